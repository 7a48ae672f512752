// Package materializer serves the result assets of finished jobs from a local
// cache directory, fetching each one from the provider at most once.
package materializer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/metrics"
	"hunyuan3d/internal/storage"
)

const defaultDownloadTimeout = 300 * time.Second

// Options configures a Materializer.
type Options struct {
	Jobs       domain.JobReader
	Store      *storage.FileStore
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *infra.Logger
}

// Materializer resolves (job, index) pairs to cached files on disk.
type Materializer struct {
	jobs       domain.JobReader
	store      *storage.FileStore
	httpClient *http.Client
	timeout    time.Duration
	group      singleflight.Group
	logger     *infra.Logger
}

// Asset is a result file available on local disk.
type Asset struct {
	Path   string
	Name   string
	Cached bool
}

// New constructs a Materializer.
func New(opts Options) (*Materializer, error) {
	if opts.Jobs == nil {
		return nil, errors.New("materializer: job reader is required")
	}
	if opts.Store == nil {
		return nil, errors.New("materializer: file store is required")
	}
	m := &Materializer{
		jobs:       opts.Jobs,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		logger:     infra.LoggerOrDiscard(opts.Logger),
	}
	if m.httpClient == nil {
		m.httpClient = &http.Client{}
	}
	if m.timeout <= 0 {
		m.timeout = defaultDownloadTimeout
	}
	return m, nil
}

// CacheName is the deterministic file name of result index of jobID. Distinct
// job ids always map to distinct names: bytes outside [A-Za-z0-9_-] are
// percent-encoded, '%' included.
func CacheName(jobID string, index int, fileType string) string {
	ext := strings.ToLower(strings.TrimSpace(fileType))
	ext = strings.Map(func(r rune) rune {
		if isSafeByte(r) {
			return r
		}
		return '_'
	}, ext)
	if ext == "" {
		ext = "bin"
	}
	return escapeJobID(jobID) + "_" + strconv.Itoa(index) + "." + ext
}

func escapeJobID(id string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if isSafeByte(rune(c)) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

func isSafeByte(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}

// Fetch returns the local copy of result file index of jobID, downloading it
// first when it is not cached yet. Only jobs recorded as DONE are served.
func (m *Materializer) Fetch(ctx context.Context, jobID string, index int) (Asset, error) {
	job, err := m.jobs.Get(ctx, jobID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return Asset{}, domain.ErrNotReady
	case err != nil:
		return Asset{}, fmt.Errorf("materializer: load job: %w", err)
	}
	if job.Status != domain.JobStatusDone {
		return Asset{}, domain.ErrNotReady
	}
	if index < 0 || index >= len(job.Files) {
		return Asset{}, domain.ErrIndexOutOfRange
	}

	file := job.Files[index]
	name := CacheName(jobID, index, file.Type)
	if asset, ok, err := m.cached(name); err != nil || ok {
		if ok {
			metrics.IncreaseAssetFetches(metrics.AssetCacheHit)
		}
		return asset, err
	}

	v, err, shared := m.group.Do(name, func() (any, error) {
		if asset, ok, err := m.cached(name); err != nil || ok {
			return asset, err
		}
		return m.download(ctx, name, file.URL)
	})
	if err != nil {
		metrics.IncreaseAssetFetches(metrics.AssetFailed)
		return Asset{}, err
	}
	asset := v.(Asset)
	if shared {
		m.logger.Debug().Str("name", name).Msg("materializer: joined in-flight download")
	}
	return asset, nil
}

func (m *Materializer) cached(name string) (Asset, bool, error) {
	ok, err := m.store.Exists(name)
	if err != nil {
		return Asset{}, false, fmt.Errorf("materializer: check cache: %w", err)
	}
	if !ok {
		return Asset{}, false, nil
	}
	path, err := m.store.Path(name)
	if err != nil {
		return Asset{}, false, fmt.Errorf("materializer: resolve path: %w", err)
	}
	return Asset{Path: path, Name: name, Cached: true}, true, nil
}

// download streams url into the cache under name. The request outlives the
// caller's cancellation and is bounded by the configured timeout only.
func (m *Materializer) download(ctx context.Context, name, url string) (Asset, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Asset{}, &domain.DownloadError{URL: url, Err: err}
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Asset{}, &domain.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Asset{}, &domain.DownloadError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	path, n, err := m.store.WriteStream(ctx, name, resp.Body)
	if err != nil {
		return Asset{}, &domain.DownloadError{URL: url, Err: err}
	}
	metrics.IncreaseAssetFetches(metrics.AssetFetched)
	m.logger.Info().
		Str("name", name).
		Int64("bytes", n).
		Dur("took", time.Since(start)).
		Msg("materializer: asset cached")
	return Asset{Path: path, Name: name}, nil
}
