package handlers

import (
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"hunyuan3d/internal/domain"
	"hunyuan3d/pkg/zip"
)

type fileResp struct {
	Type       string  `json:"type"`
	URL        string  `json:"url"`
	PreviewURL *string `json:"preview_url"`
}

type statusResp struct {
	OK           bool       `json:"ok"`
	JobID        string     `json:"job_id"`
	Edition      string     `json:"edition,omitempty"`
	Status       string     `json:"status"`
	Files        []fileResp `json:"files"`
	Error        *string    `json:"error"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RequestID    string     `json:"request_id,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func toStatusResp(job domain.Job) statusResp {
	out := statusResp{
		OK:        true,
		JobID:     job.ID,
		Edition:   string(job.Edition),
		Status:    string(job.Status),
		Files:     make([]fileResp, 0, len(job.Files)),
		RequestID: job.RequestID,
	}
	for _, f := range job.Files {
		fr := fileResp{Type: f.Type, URL: f.URL}
		if f.PreviewURL != "" {
			p := f.PreviewURL
			fr.PreviewURL = &p
		}
		out.Files = append(out.Files, fr)
	}
	if job.Error != nil {
		s := job.Error.String()
		out.Error = &s
		out.ErrorCode = job.Error.Code
		out.ErrorMessage = job.Error.Message
	}
	if !job.UpdatedAt.IsZero() {
		t := job.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Status polls the provider and returns the refreshed job.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Status(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	a.json(w, http.StatusOK, toStatusResp(job))
}

// Job returns the locally recorded state without contacting the provider.
func (a *App) Job(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Lookup(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.writeError(w, r, err, http.StatusBadGateway)
		return
	}
	a.json(w, http.StatusOK, toStatusResp(job))
}

// Download streams a cached result file as an attachment.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	idx, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}
	asset, err := a.Jobs.Download(r.Context(), chi.URLParam(r, "job_id"), idx)
	if err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": asset.Name}))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, asset.Name, info.ModTime(), f)
}

// Archive streams every result file of a finished job as one zip attachment.
func (a *App) Archive(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	assets, err := a.Jobs.DownloadAll(r.Context(), jobID)
	if err != nil {
		a.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	entries := make([]zip.Entry, 0, len(assets))
	for _, asset := range assets {
		entries = append(entries, zip.Entry{Name: asset.Name, Path: asset.Path})
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": jobID + ".zip"}))
	w.WriteHeader(http.StatusOK)
	if err := zip.WriteArchive(w, entries); err != nil {
		// Headers are already sent; the client sees a truncated archive.
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("archive stream failed")
	}
}
