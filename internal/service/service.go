// Package service ties ingestion, the provider gateway, the job store and the
// asset cache together behind the operations exposed over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/ingest"
	"hunyuan3d/internal/materializer"
	"hunyuan3d/internal/metrics"
)

// Ingestor submits normalized client input to the provider.
type Ingestor interface {
	FromText(ctx context.Context, in ingest.TextInput) (string, error)
	FromImageURL(ctx context.Context, in ingest.ImageURLInput) (string, error)
	FromUpload(ctx context.Context, in ingest.UploadInput) (string, error)
}

// Querier polls the provider for the state of a job.
type Querier interface {
	Query(ctx context.Context, jobID string, edition domain.Edition) (domain.QueryResult, error)
}

// AssetFetcher resolves a result file of a finished job to a local path.
type AssetFetcher interface {
	Fetch(ctx context.Context, jobID string, index int) (materializer.Asset, error)
}

// Deps wires the service collaborators.
type Deps struct {
	Jobs     domain.JobRepository
	Ingestor Ingestor
	Provider Querier
	Assets   AssetFetcher
	Logger   *infra.Logger
	Now      func() time.Time
}

// Service implements the job operations.
type Service struct {
	jobs     domain.JobRepository
	ingestor Ingestor
	provider Querier
	assets   AssetFetcher
	logger   *infra.Logger
	now      func() time.Time
}

// New validates deps and returns a Service.
func New(d Deps) (*Service, error) {
	switch {
	case d.Jobs == nil:
		return nil, errors.New("service: job repository is required")
	case d.Ingestor == nil:
		return nil, errors.New("service: ingestor is required")
	case d.Provider == nil:
		return nil, errors.New("service: provider is required")
	case d.Assets == nil:
		return nil, errors.New("service: asset fetcher is required")
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		jobs:     d.Jobs,
		ingestor: d.Ingestor,
		provider: d.Provider,
		assets:   d.Assets,
		logger:   infra.LoggerOrDiscard(d.Logger),
		now:      now,
	}, nil
}

// SubmitText submits a text prompt and records the job as WAIT.
func (s *Service) SubmitText(ctx context.Context, in ingest.TextInput) (string, error) {
	jobID, err := s.ingestor.FromText(ctx, in)
	return s.afterSubmit(ctx, metrics.SourceText, in.Edition(), jobID, err)
}

// SubmitImageURL fetches a remote image, submits it and records the job as WAIT.
func (s *Service) SubmitImageURL(ctx context.Context, in ingest.ImageURLInput) (string, error) {
	jobID, err := s.ingestor.FromImageURL(ctx, in)
	return s.afterSubmit(ctx, metrics.SourceImageURL, in.Edition(), jobID, err)
}

// SubmitImage submits uploaded image bytes and records the job as WAIT.
func (s *Service) SubmitImage(ctx context.Context, in ingest.UploadInput) (string, error) {
	jobID, err := s.ingestor.FromUpload(ctx, in)
	return s.afterSubmit(ctx, metrics.SourceImage, in.Edition(), jobID, err)
}

func (s *Service) afterSubmit(ctx context.Context, source string, edition domain.Edition, jobID string, err error) (string, error) {
	metrics.IncreaseSubmissions(source, err == nil)
	if err != nil {
		var perr *domain.ProviderError
		if errors.As(err, &perr) {
			metrics.IncreaseProviderErrors("submit")
		}
		s.logger.Warn().Err(err).Str("source", source).Msg("service: submission rejected")
		return "", err
	}

	job := domain.Job{ID: jobID, Edition: edition, Status: domain.JobStatusWait, UpdatedAt: s.now().UTC()}
	if err := s.jobs.Put(ctx, job); err != nil {
		return jobID, fmt.Errorf("service: record job %s: %w", jobID, err)
	}
	s.logger.Info().Str("job_id", jobID).Str("source", source).Msg("service: job submitted")
	return jobID, nil
}

// Status polls the provider and overwrites the local record with the
// observed state. On provider failure the local record is left untouched.
// Jobs unknown locally are polled through the standard API.
func (s *Service) Status(ctx context.Context, jobID string) (domain.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return domain.Job{}, domain.NewValidationError("job_id", "job_id is required")
	}
	edition := domain.EditionStandard
	prev, err := s.jobs.Get(ctx, jobID)
	switch {
	case err == nil:
		edition = prev.Edition
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Job{}, fmt.Errorf("service: load job %s: %w", jobID, err)
	}
	res, err := s.provider.Query(ctx, jobID, edition)
	if err != nil {
		metrics.IncreaseProviderErrors("query")
		return domain.Job{}, err
	}
	metrics.IncreaseStatusPolls(string(res.Status))

	job := domain.Job{
		ID:        jobID,
		Edition:   edition,
		Status:    res.Status,
		Files:     res.Files,
		RequestID: res.RequestID,
		UpdatedAt: s.now().UTC(),
	}
	if res.Status == domain.JobStatusFail {
		job.Error = res.Error
		if job.Error == nil {
			job.Error = &domain.JobError{}
		}
	}
	if err := s.jobs.Put(ctx, job); err != nil {
		return job, fmt.Errorf("service: record status of %s: %w", jobID, err)
	}
	return job, nil
}

// Lookup returns the locally recorded state without contacting the provider.
func (s *Service) Lookup(ctx context.Context, jobID string) (domain.Job, error) {
	job, err := s.jobs.Get(ctx, strings.TrimSpace(jobID))
	if err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

// Download resolves result file index of a finished job to a local file.
func (s *Service) Download(ctx context.Context, jobID string, index int) (materializer.Asset, error) {
	return s.assets.Fetch(ctx, strings.TrimSpace(jobID), index)
}

// DownloadAll materializes every result file of a finished job, in index order.
func (s *Service) DownloadAll(ctx context.Context, jobID string) ([]materializer.Asset, error) {
	jobID = strings.TrimSpace(jobID)
	job, err := s.jobs.Get(ctx, jobID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrNotReady
	case err != nil:
		return nil, fmt.Errorf("service: load job %s: %w", jobID, err)
	}
	if job.Status != domain.JobStatusDone {
		return nil, domain.ErrNotReady
	}
	assets := make([]materializer.Asset, 0, len(job.Files))
	for i := range job.Files {
		a, err := s.assets.Fetch(ctx, jobID, i)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, nil
}
