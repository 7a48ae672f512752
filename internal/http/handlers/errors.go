package handlers

import (
	"errors"
	"net/http"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/middleware"
)

// Error tags returned in the "error" field of failure bodies.
const (
	tagValidation       = "validation"
	tagConcurrencyLimit = "concurrency_limit"
	tagProviderError    = "provider_error"
	tagDownloadError    = "download_error"
	tagNotReady         = "not_ready"
	tagIndexOutOfRange  = "index_out_of_range"
	tagNotFound         = "not_found"
	tagInternal         = "internal"
)

type errorBody struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, code int, tag, detail string) {
	a.json(w, code, errorBody{
		Error:   tag,
		Message: localizedMessage(middleware.LocaleFromContext(r.Context()), tag),
		Detail:  detail,
	})
}

// writeError maps a domain error to its status code and tag. downloadStatus
// is the code used for *domain.DownloadError, which differs per route.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error, downloadStatus int) {
	var (
		verr *domain.ValidationError
		perr *domain.ProviderError
		derr *domain.DownloadError
	)
	switch {
	case errors.As(err, &verr):
		a.error(w, r, http.StatusBadRequest, tagValidation, verr.Error())
	case errors.Is(err, domain.ErrConcurrencyLimit):
		a.error(w, r, http.StatusConflict, tagConcurrencyLimit, err.Error())
	case errors.As(err, &perr):
		a.logFailure(r, err, tagProviderError)
		a.error(w, r, http.StatusInternalServerError, tagProviderError, perr.Error())
	case errors.As(err, &derr):
		a.logFailure(r, err, tagDownloadError)
		a.error(w, r, downloadStatus, tagDownloadError, derr.Error())
	case errors.Is(err, domain.ErrNotReady):
		a.error(w, r, http.StatusBadRequest, tagNotReady, "")
	case errors.Is(err, domain.ErrIndexOutOfRange):
		a.error(w, r, http.StatusBadRequest, tagIndexOutOfRange, "")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, r, http.StatusNotFound, tagNotFound, "")
	default:
		a.logFailure(r, err, tagInternal)
		a.error(w, r, http.StatusInternalServerError, tagInternal, "")
	}
}

func (a *App) logFailure(r *http.Request, err error, tag string) {
	a.Logger.Error().
		Err(err).
		Str("tag", tag).
		Str("path", r.URL.Path).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("request failed")
}
