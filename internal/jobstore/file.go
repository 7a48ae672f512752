package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/storage"
)

// FileStore keeps every job record in memory and mirrors the whole set to a
// single JSON file. Writers are serialized by writeMu for the full
// clone/marshal/write/rename cycle; readers only ever see a snapshot that has
// already been persisted.
type FileStore struct {
	path   string
	logger *infra.Logger

	writeMu sync.Mutex

	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// OpenFile loads the store from path, starting empty when the file does not
// exist yet.
func OpenFile(path string, logger *infra.Logger) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("jobstore: file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jobstore: ensure directory: %w", err)
	}

	jobs := make(map[string]domain.Job)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("jobstore: read %s: %w", path, err)
	case len(strings.TrimSpace(string(data))) > 0:
		if err := json.Unmarshal(data, &jobs); err != nil {
			return nil, fmt.Errorf("jobstore: decode %s: %w", path, err)
		}
	}

	s := &FileStore{path: path, logger: infra.LoggerOrDiscard(logger), jobs: jobs}
	s.logger.Debug().Str("path", path).Int("jobs", len(jobs)).Msg("jobstore: file store opened")
	return s, nil
}

// Put overwrites the record for job.ID and persists the full snapshot before
// returning. On failure neither the file nor the in-memory view changes.
func (s *FileStore) Put(ctx context.Context, job domain.Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("jobstore: job id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := maps.Clone(s.jobs)
	s.mu.RUnlock()
	next[job.ID] = job.Clone()

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("jobstore: encode snapshot: %w", err)
	}
	if err := storage.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("jobstore: persist snapshot: %w", err)
	}

	s.mu.Lock()
	s.jobs = next
	s.mu.Unlock()
	return nil
}

// Get returns the last persisted record for jobID.
func (s *FileStore) Get(_ context.Context, jobID string) (domain.Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return domain.Job{}, domain.ErrNotFound
	}
	return job.Clone(), nil
}

// Len reports the number of recorded jobs.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

var _ domain.JobRepository = (*FileStore)(nil)
