package httpapi

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/http/handlers"
	"hunyuan3d/internal/ingest"
	"hunyuan3d/internal/jobstore"
	"hunyuan3d/internal/materializer"
	"hunyuan3d/internal/service"
	"hunyuan3d/internal/storage"
)

// fakeProvider stands in for the Tencent Cloud gateway.
type fakeProvider struct {
	submitted []domain.SubmitPayload
	jobID     string
	submitErr error
	query     domain.QueryResult
	queryErr  error
}

func (p *fakeProvider) Submit(_ context.Context, payload domain.SubmitPayload) (string, error) {
	p.submitted = append(p.submitted, payload)
	if p.submitErr != nil {
		return "", p.submitErr
	}
	return p.jobID, nil
}

func (p *fakeProvider) Query(context.Context, string, domain.Edition) (domain.QueryResult, error) {
	return p.query, p.queryErr
}

type harness struct {
	server    *httptest.Server
	provider  *fakeProvider
	jobs      *jobstore.FileStore
	cacheDir  string
	remoteHit atomic.Int32
	remote    *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{provider: &fakeProvider{jobID: "1300000042"}}

	h.remote = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.remoteHit.Add(1)
		switch r.URL.Path {
		case "/y.glb":
			_, _ = w.Write([]byte("glb-bytes"))
		case "/cat.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(h.remote.Close)

	root := t.TempDir()
	var err error
	h.jobs, err = jobstore.OpenFile(filepath.Join(root, ".job_db.json"), nil)
	require.NoError(t, err)

	h.cacheDir = filepath.Join(root, "downloads")
	files, err := storage.NewFileStore(h.cacheDir)
	require.NoError(t, err)

	adapter, err := ingest.NewAdapter(ingest.Options{
		Submitter:        h.provider,
		TempDir:          t.TempDir(),
		DefaultEnablePBR: true,
	})
	require.NoError(t, err)

	mat, err := materializer.New(materializer.Options{Jobs: h.jobs, Store: files})
	require.NoError(t, err)

	svc, err := service.New(service.Deps{
		Jobs:     h.jobs,
		Ingestor: adapter,
		Provider: h.provider,
		Assets:   mat,
	})
	require.NoError(t, err)

	app := handlers.NewApp(svc, nil, nil)
	router := NewRouter(app, RouterOptions{
		AllowedOrigins: []string{"http://localhost:5173"},
		DefaultLocale:  "en",
		Logger:         zerolog.Nop(),
		Registerer:     prometheus.NewRegistry(),
		Gatherer:       prometheus.NewRegistry(),
	})
	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)
	return h
}

func (h *harness) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRedCubeScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, body := h.postJSON(t, "/submit-text", map[string]any{"prompt": "a red cube", "result_format": "GLB"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "1300000042", body["job_id"])

	job, err := h.jobs.Get(ctx, "1300000042")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusWait, job.Status)

	resp = h.get(t, "/download/1300000042/0")
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "not_ready", body["error"])

	h.provider.query = domain.QueryResult{
		Status: domain.JobStatusDone,
		Files:  []domain.ResultFile{{Type: "GLB", URL: h.remote.URL + "/y.glb"}},
	}
	resp = h.get(t, "/status/1300000042")
	body = decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DONE", body["status"])
	files := body["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, "GLB", files[0].(map[string]any)["type"])
	assert.Nil(t, body["error"])

	job, err = h.jobs.Get(ctx, "1300000042")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)

	for i := 0; i < 2; i++ {
		resp = h.get(t, "/api/download/1300000042/0")
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "glb-bytes", string(data))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "1300000042_0.glb")
	}
	assert.Equal(t, int32(1), h.remoteHit.Load())
	assert.FileExists(t, filepath.Join(h.cacheDir, "1300000042_0.glb"))

	resp = h.get(t, "/download/1300000042/1")
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "index_out_of_range", body["error"])
}

func TestConcurrencyLimitReturns409AndRecordsNothing(t *testing.T) {
	h := newHarness(t)
	h.provider.submitErr = &domain.ProviderError{Code: domain.ConcurrencyLimitCode, Message: "job num exceed"}

	resp, body := h.postJSON(t, "/api/submit-text", map[string]any{"prompt": "a red cube"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "concurrency_limit", body["error"])
	assert.Equal(t, 0, h.jobs.Len())
}

func TestSubmitImageURLUnreachableReturns502(t *testing.T) {
	h := newHarness(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL + "/img.png"
	dead.Close()

	resp, body := h.postJSON(t, "/submit-image-url", map[string]any{"image_url": deadURL})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "download_error", body["error"])
	assert.Equal(t, 0, h.jobs.Len())
	assert.Empty(t, h.provider.submitted)
}

func TestSubmitImageURLSuccess(t *testing.T) {
	h := newHarness(t)

	resp, body := h.postJSON(t, "/submit-image-url", map[string]any{
		"image_url":  h.remote.URL + "/cat.png",
		"enable_pbr": "false",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Len(t, h.provider.submitted, 1)
	assert.NotEmpty(t, h.provider.submitted[0].ImageBase64)
	assert.False(t, h.provider.submitted[0].EnablePBR)
	assert.Equal(t, "GLB", h.provider.submitted[0].ResultFormat)
}

func TestSubmitTextValidation(t *testing.T) {
	h := newHarness(t)

	resp, body := h.postJSON(t, "/submit-text", map[string]any{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["error"])

	raw, err := http.Post(h.server.URL+"/submit-text", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	body = decodeBody(t, raw)
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
	assert.Equal(t, "validation", body["error"])
	assert.Empty(t, h.provider.submitted)
}

func TestSubmitImageMultipart(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "cat.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.WriteField("result_format", "obj"))
	require.NoError(t, mw.WriteField("enable_pbr", "false"))
	require.NoError(t, mw.WriteField("prompt", "cartoon"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(h.server.URL+"/api/submit-image", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Len(t, h.provider.submitted, 1)
	got := h.provider.submitted[0]
	assert.Equal(t, "OBJ", got.ResultFormat)
	assert.False(t, got.EnablePBR)
	assert.Equal(t, "cartoon", got.Prompt)

	job, err := h.jobs.Get(context.Background(), "1300000042")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusWait, job.Status)
}

func TestSubmitTextProOptions(t *testing.T) {
	h := newHarness(t)

	resp, body := h.postJSON(t, "/api/submit-text", map[string]any{
		"prompt": "a lighthouse", "face_count": 300000, "generate_type": "geometry", "enable_pbr": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Len(t, h.provider.submitted, 1)
	got := h.provider.submitted[0]
	require.NotNil(t, got.FaceCount)
	assert.Equal(t, int64(300000), *got.FaceCount)
	assert.Equal(t, domain.GenerateGeometry, got.GenerateType)
	assert.False(t, got.EnablePBR)

	job, err := h.jobs.Get(context.Background(), "1300000042")
	require.NoError(t, err)
	assert.Equal(t, domain.EditionPro, job.Edition)

	resp, body = h.postJSON(t, "/submit-text", map[string]any{"prompt": "x", "face_count": 1000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["error"])
	assert.Len(t, h.provider.submitted, 1)
}

func TestSubmitImageMultipartProOptions(t *testing.T) {
	h := newHarness(t)

	post := func(faceCount string) (*http.Response, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "cat.png")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("png-bytes"))
		require.NoError(t, mw.WriteField("face_count", faceCount))
		require.NoError(t, mw.WriteField("generate_type", "LowPoly"))
		require.NoError(t, mw.Close())
		resp, err := http.Post(h.server.URL+"/submit-image", mw.FormDataContentType(), &buf)
		require.NoError(t, err)
		return resp, decodeBody(t, resp)
	}

	resp, body := post("many")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["error"])
	assert.Empty(t, h.provider.submitted)

	resp, body = post("45000")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.Len(t, h.provider.submitted, 1)
	got := h.provider.submitted[0]
	assert.Equal(t, int64(45000), *got.FaceCount)
	assert.Equal(t, domain.GenerateLowPoly, got.GenerateType)
}

func TestSubmitImageMissingFile(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("prompt", "x"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(h.server.URL+"/submit-image", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["error"])
}

func TestStatusProviderErrorKeepsRecord(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.jobs.Put(context.Background(), domain.Job{ID: "7", Status: domain.JobStatusRun}))
	h.provider.queryErr = &domain.ProviderError{Code: "InternalError", Message: "upstream"}

	resp := h.get(t, "/status/7")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "provider_error", body["error"])

	job, err := h.jobs.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRun, job.Status)
}

func TestStatusFailReportsError(t *testing.T) {
	h := newHarness(t)
	h.provider.query = domain.QueryResult{
		Status: domain.JobStatusFail,
		Error:  &domain.JobError{Code: "InvalidParameter", Message: "bad"},
	}

	resp := h.get(t, "/status/8")
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "FAIL", body["status"])
	assert.Equal(t, "InvalidParameter bad", body["error"])
	assert.Equal(t, "InvalidParameter", body["error_code"])
}

func TestJobLookup(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/jobs/unknown")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])

	require.NoError(t, h.jobs.Put(context.Background(), domain.Job{ID: "3", Status: domain.JobStatusWait}))
	resp = h.get(t, "/api/jobs/3")
	body = decodeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WAIT", body["status"])
}

func TestHealthAndLocalizedErrors(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/")
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "hunyuan3d", body["service"])

	req, err := http.NewRequest(http.MethodGet, h.server.URL+"/download/none/0", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body = decodeBody(t, raw)
	assert.Equal(t, "not_ready", body["error"])
	assert.Equal(t, "任务尚未完成或不存在。", body["message"])
	assert.NotEmpty(t, raw.Header.Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	resp := h.get(t, "/metrics")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDownloadCachedFileIsServed(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.jobs.Put(context.Background(), domain.Job{
		ID:     "c",
		Status: domain.JobStatusDone,
		Files:  []domain.ResultFile{{Type: "OBJ", URL: h.remote.URL + "/missing"}},
	}))
	require.NoError(t, os.WriteFile(filepath.Join(h.cacheDir, "c_0.obj"), []byte("obj"), 0o644))

	resp := h.get(t, "/download/c/0")
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "obj", string(data))
	assert.Zero(t, h.remoteHit.Load())
}

func TestDownloadRemoteFailureIs500(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.jobs.Put(context.Background(), domain.Job{
		ID:     "m",
		Status: domain.JobStatusDone,
		Files:  []domain.ResultFile{{Type: "GLB", URL: h.remote.URL + "/missing"}},
	}))

	resp := h.get(t, "/download/m/0")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "download_error", body["error"])
	assert.NoFileExists(t, filepath.Join(h.cacheDir, "m_0.glb"))
}

func TestArchiveBundlesAllFiles(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.jobs.Put(context.Background(), domain.Job{
		ID:     "z",
		Status: domain.JobStatusDone,
		Files: []domain.ResultFile{
			{Type: "GLB", URL: h.remote.URL + "/y.glb"},
			{Type: "PNG", URL: h.remote.URL + "/cat.png"},
		},
	}))

	resp := h.get(t, "/api/archive/z")
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"z_0.glb", "z_1.png"}, names)

	resp = h.get(t, "/archive/unknown")
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "not_ready", body["error"])
}

func TestOpenAPIDocumentListsRoutes(t *testing.T) {
	h := newHarness(t)
	resp := h.get(t, "/openapi.json")
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paths := body["paths"].(map[string]any)
	for _, p := range []string{"/submit-text", "/submit-image-url", "/submit-image", "/status/{job_id}", "/download/{job_id}/{index}"} {
		assert.Contains(t, paths, p)
	}
}
