package service

import (
	"context"
	"fmt"
	"net/http"

	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/ingest"
	"hunyuan3d/internal/jobstore"
	"hunyuan3d/internal/materializer"
	"hunyuan3d/internal/providers/hunyuan"
	"hunyuan3d/internal/storage"
)

// Build wires the production collaborators from cfg. The returned close
// function releases the job store backend and is never nil.
func Build(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Service, func(), error) {
	jobs, closeJobs, err := jobstore.Open(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, fmt.Errorf("service: open job store: %w", err)
	}
	fail := func(err error) (*Service, func(), error) {
		closeJobs()
		return nil, func() {}, err
	}

	provider, err := hunyuan.NewClient(hunyuan.Options{
		SecretID:  cfg.TencentSecretID,
		SecretKey: cfg.TencentSecretKey,
		Region:    cfg.TencentRegion,
		Endpoint:  cfg.TencentEndpoint,
		Timeout:   cfg.ProviderTimeout,
		Logger:    logger,
	})
	if err != nil {
		return fail(err)
	}

	httpClient := &http.Client{}
	adapter, err := ingest.NewAdapter(ingest.Options{
		Submitter:           provider,
		HTTPClient:          httpClient,
		FetchTimeout:        cfg.ImageFetchTimeout,
		MaxImageBytes:       cfg.MaxImageBytes,
		TempDir:             cfg.TempDir,
		DefaultResultFormat: cfg.DefaultResultFormat,
		DefaultEnablePBR:    cfg.DefaultEnablePBR,
		Logger:              logger,
	})
	if err != nil {
		return fail(err)
	}

	files, err := storage.NewFileStore(cfg.DownloadDir)
	if err != nil {
		return fail(err)
	}
	assets, err := materializer.New(materializer.Options{
		Jobs:       jobs,
		Store:      files,
		HTTPClient: httpClient,
		Timeout:    cfg.AssetDownloadTimeout,
		Logger:     logger,
	})
	if err != nil {
		return fail(err)
	}

	svc, err := New(Deps{
		Jobs:     jobs,
		Ingestor: adapter,
		Provider: provider,
		Assets:   assets,
		Logger:   logger,
	})
	if err != nil {
		return fail(err)
	}
	return svc, closeJobs, nil
}
