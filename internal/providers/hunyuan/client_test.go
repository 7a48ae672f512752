package hunyuan

import (
	"context"
	"errors"
	"testing"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/ai3d/v20250513"
	tcerr "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"

	"hunyuan3d/internal/domain"
)

type fakeAPI struct {
	submitReq  *v20250513.SubmitHunyuanTo3DJobRequest
	submitResp string
	submitErr  error

	queryReq  *v20250513.QueryHunyuanTo3DJobRequest
	queryResp string
	queryErr  error

	proSubmitReq *v20250513.SubmitHunyuanTo3DProJobRequest
	proQueryReq  *v20250513.QueryHunyuanTo3DProJobRequest
}

func (f *fakeAPI) SubmitHunyuanTo3DJobWithContext(_ context.Context, req *v20250513.SubmitHunyuanTo3DJobRequest) (*v20250513.SubmitHunyuanTo3DJobResponse, error) {
	f.submitReq = req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	resp := v20250513.NewSubmitHunyuanTo3DJobResponse()
	if err := resp.FromJsonString(f.submitResp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeAPI) QueryHunyuanTo3DJobWithContext(_ context.Context, req *v20250513.QueryHunyuanTo3DJobRequest) (*v20250513.QueryHunyuanTo3DJobResponse, error) {
	f.queryReq = req
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	resp := v20250513.NewQueryHunyuanTo3DJobResponse()
	if err := resp.FromJsonString(f.queryResp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeAPI) SubmitHunyuanTo3DProJobWithContext(_ context.Context, req *v20250513.SubmitHunyuanTo3DProJobRequest) (*v20250513.SubmitHunyuanTo3DProJobResponse, error) {
	f.proSubmitReq = req
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	resp := v20250513.NewSubmitHunyuanTo3DProJobResponse()
	if err := resp.FromJsonString(f.submitResp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeAPI) QueryHunyuanTo3DProJobWithContext(_ context.Context, req *v20250513.QueryHunyuanTo3DProJobRequest) (*v20250513.QueryHunyuanTo3DProJobResponse, error) {
	f.proQueryReq = req
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	resp := v20250513.NewQueryHunyuanTo3DProJobResponse()
	if err := resp.FromJsonString(f.queryResp); err != nil {
		return nil, err
	}
	return resp, nil
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	c, err := NewClient(Options{API: api})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestSubmitTextPrompt(t *testing.T) {
	api := &fakeAPI{submitResp: `{"Response":{"JobId":"1357","RequestId":"req-1"}}`}
	c := newTestClient(t, api)

	id, err := c.Submit(context.Background(), domain.SubmitPayload{
		Prompt:       "  a red cube ",
		ResultFormat: "GLB",
		EnablePBR:    true,
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "1357" {
		t.Fatalf("unexpected job id: %s", id)
	}
	req := api.submitReq
	if req == nil || req.Prompt == nil || *req.Prompt != "a red cube" {
		t.Fatalf("prompt not forwarded: %+v", req)
	}
	if req.ImageBase64 != nil {
		t.Fatalf("image should be omitted for text jobs")
	}
	if req.ResultFormat == nil || *req.ResultFormat != "GLB" {
		t.Fatalf("result format mismatch: %+v", req.ResultFormat)
	}
	if req.EnablePBR == nil || !*req.EnablePBR {
		t.Fatalf("EnablePBR should be true")
	}
}

func TestSubmitImageSendsFalsePBR(t *testing.T) {
	api := &fakeAPI{submitResp: `{"Response":{"JobId":"42"}}`}
	c := newTestClient(t, api)

	if _, err := c.Submit(context.Background(), domain.SubmitPayload{ImageBase64: "aGVsbG8=", ResultFormat: "OBJ"}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	req := api.submitReq
	if req.Prompt != nil {
		t.Fatalf("prompt should be omitted for image jobs")
	}
	if req.ImageBase64 == nil || *req.ImageBase64 != "aGVsbG8=" {
		t.Fatalf("image not forwarded")
	}
	if req.EnablePBR == nil || *req.EnablePBR {
		t.Fatalf("EnablePBR=false must be sent explicitly")
	}
}

func TestSubmitEmptyJobID(t *testing.T) {
	api := &fakeAPI{submitResp: `{"Response":{"RequestId":"req-2"}}`}
	c := newTestClient(t, api)

	_, err := c.Submit(context.Background(), domain.SubmitPayload{Prompt: "x"})
	var perr *domain.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestSubmitConcurrencyLimit(t *testing.T) {
	api := &fakeAPI{submitErr: tcerr.NewTencentCloudSDKError("RequestLimitExceeded.JobNumExceed", "too many jobs", "req-3")}
	c := newTestClient(t, api)

	_, err := c.Submit(context.Background(), domain.SubmitPayload{Prompt: "x"})
	if !errors.Is(err, domain.ErrConcurrencyLimit) {
		t.Fatalf("expected concurrency limit, got %v", err)
	}
	var perr *domain.ProviderError
	if !errors.As(err, &perr) || perr.RequestID != "req-3" {
		t.Fatalf("request id not kept: %+v", perr)
	}
}

func TestSubmitTransportError(t *testing.T) {
	api := &fakeAPI{submitErr: errors.New("dial tcp: connection refused")}
	c := newTestClient(t, api)

	_, err := c.Submit(context.Background(), domain.SubmitPayload{Prompt: "x"})
	var perr *domain.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if errors.Is(err, domain.ErrConcurrencyLimit) {
		t.Fatalf("transport error must not look like a concurrency limit")
	}
}

func TestQueryDone(t *testing.T) {
	api := &fakeAPI{queryResp: `{"Response":{"Status":"DONE","RequestId":"req-4","ResultFile3Ds":[{"Type":"GLB","Url":"https://cdn.example.com/a.glb","PreviewImageUrl":"https://cdn.example.com/a.png"},{"Type":"OBJ","Url":"https://cdn.example.com/a.obj"}]}}`}
	c := newTestClient(t, api)

	res, err := c.Query(context.Background(), " 1357 ", domain.EditionStandard)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if api.queryReq.JobId == nil || *api.queryReq.JobId != "1357" {
		t.Fatalf("job id not forwarded")
	}
	if res.Status != domain.JobStatusDone {
		t.Fatalf("unexpected status: %s", res.Status)
	}
	if len(res.Files) != 2 || res.Files[0].URL != "https://cdn.example.com/a.glb" || res.Files[0].PreviewURL == "" {
		t.Fatalf("unexpected files: %+v", res.Files)
	}
	if res.Files[1].Type != "OBJ" || res.Files[1].PreviewURL != "" {
		t.Fatalf("unexpected second file: %+v", res.Files[1])
	}
	if res.Error != nil {
		t.Fatalf("unexpected error detail: %+v", res.Error)
	}
	if res.RequestID != "req-4" {
		t.Fatalf("unexpected request id: %s", res.RequestID)
	}
	if api.proQueryReq != nil {
		t.Fatalf("standard job must not be polled through the pro API")
	}
}

func TestQueryFail(t *testing.T) {
	api := &fakeAPI{queryResp: `{"Response":{"Status":"FAIL","ErrorCode":"InvalidParameter","ErrorMessage":"bad image"}}`}
	c := newTestClient(t, api)

	res, err := c.Query(context.Background(), "9", domain.EditionStandard)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if res.Status != domain.JobStatusFail {
		t.Fatalf("unexpected status: %s", res.Status)
	}
	if res.Error == nil || res.Error.Code != "InvalidParameter" || res.Error.Message != "bad image" {
		t.Fatalf("unexpected error detail: %+v", res.Error)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files")
	}
}

func TestQueryRequiresJobID(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})
	_, err := c.Query(context.Background(), "  ", domain.EditionStandard)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestNewClientMissingCredentials(t *testing.T) {
	if _, err := NewClient(Options{SecretID: "id"}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := newTestClient(t, &fakeAPI{})
	if c.Region() != "ap-guangzhou" {
		t.Fatalf("unexpected default region: %s", c.Region())
	}
	if c.timeout <= 0 {
		t.Fatalf("timeout should default to a positive value")
	}
}

func TestSubmitProOptionsUseProAPI(t *testing.T) {
	api := &fakeAPI{submitResp: `{"Response":{"JobId":"pro-1","RequestId":"req-7"}}`}
	c := newTestClient(t, api)

	faces := int64(120000)
	id, err := c.Submit(context.Background(), domain.SubmitPayload{
		Prompt:       "a lighthouse",
		ResultFormat: "GLB",
		FaceCount:    &faces,
		GenerateType: domain.GenerateLowPoly,
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if id != "pro-1" {
		t.Fatalf("unexpected job id: %s", id)
	}
	if api.submitReq != nil {
		t.Fatalf("pro options must not reach the standard API")
	}
	req := api.proSubmitReq
	if req == nil || req.Prompt == nil || *req.Prompt != "a lighthouse" {
		t.Fatalf("prompt not forwarded: %+v", req)
	}
	if req.FaceCount == nil || *req.FaceCount != 120000 {
		t.Fatalf("face count not forwarded: %+v", req.FaceCount)
	}
	if req.GenerateType == nil || *req.GenerateType != "LowPoly" {
		t.Fatalf("generate type not forwarded: %+v", req.GenerateType)
	}
	if req.EnablePBR == nil || *req.EnablePBR {
		t.Fatalf("EnablePBR=false must be sent explicitly")
	}
}

func TestSubmitProConcurrencyLimit(t *testing.T) {
	api := &fakeAPI{submitErr: tcerr.NewTencentCloudSDKError("RequestLimitExceeded.JobNumExceed", "too many jobs", "req-8")}
	c := newTestClient(t, api)

	_, err := c.Submit(context.Background(), domain.SubmitPayload{Prompt: "x", GenerateType: domain.GenerateNormal})
	if !errors.Is(err, domain.ErrConcurrencyLimit) {
		t.Fatalf("expected concurrency limit, got %v", err)
	}
}

func TestQueryProJob(t *testing.T) {
	api := &fakeAPI{queryResp: `{"Response":{"Status":"DONE","RequestId":"req-9","ResultFile3Ds":[{"Type":"OBJ","Url":"https://cdn.example.com/p.zip"}]}}`}
	c := newTestClient(t, api)

	res, err := c.Query(context.Background(), "pro-1", domain.EditionPro)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if api.queryReq != nil {
		t.Fatalf("pro job must not be polled through the standard API")
	}
	if api.proQueryReq == nil || api.proQueryReq.JobId == nil || *api.proQueryReq.JobId != "pro-1" {
		t.Fatalf("job id not forwarded")
	}
	if res.Status != domain.JobStatusDone || len(res.Files) != 1 || res.Files[0].Type != "OBJ" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.RequestID != "req-9" {
		t.Fatalf("unexpected request id: %s", res.RequestID)
	}
}
