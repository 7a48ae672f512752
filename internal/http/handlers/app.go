package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/ingest"
	"hunyuan3d/internal/materializer"
)

// JobService is the application surface the handlers drive.
type JobService interface {
	SubmitText(ctx context.Context, in ingest.TextInput) (string, error)
	SubmitImageURL(ctx context.Context, in ingest.ImageURLInput) (string, error)
	SubmitImage(ctx context.Context, in ingest.UploadInput) (string, error)
	Status(ctx context.Context, jobID string) (domain.Job, error)
	Lookup(ctx context.Context, jobID string) (domain.Job, error)
	Download(ctx context.Context, jobID string, index int) (materializer.Asset, error)
	DownloadAll(ctx context.Context, jobID string) ([]materializer.Asset, error)
}

type App struct {
	Jobs           JobService
	ServiceName    string
	MaxUploadBytes int64
	Logger         *infra.Logger
}

func NewApp(jobs JobService, cfg *infra.Config, logger *infra.Logger) *App {
	app := &App{
		Jobs:           jobs,
		ServiceName:    "hunyuan3d",
		MaxUploadBytes: 12 << 20,
		Logger:         infra.LoggerOrDiscard(logger),
	}
	if cfg != nil {
		if cfg.ServiceName != "" {
			app.ServiceName = cfg.ServiceName
		}
		if cfg.MaxUploadBytes > 0 {
			app.MaxUploadBytes = cfg.MaxUploadBytes
		}
	}
	return app
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
