package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/sqlinline"
)

// PostgresStore keeps job records in the hunyuan_jobs table. Unlike the file
// store it is safe to share between several API processes.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

// EnsureSchema creates the jobs table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QCreateJobsTable); err != nil {
		return fmt.Errorf("jobstore: create schema: %w", err)
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QAddJobsEditionColumn); err != nil {
		return fmt.Errorf("jobstore: migrate schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, job domain.Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("jobstore: job id is required")
	}
	files := job.Files
	if files == nil {
		files = []domain.ResultFile{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("jobstore: encode files: %w", err)
	}
	var errJSON any
	if job.Error != nil {
		raw, err := json.Marshal(job.Error)
		if err != nil {
			return fmt.Errorf("jobstore: encode error: %w", err)
		}
		errJSON = string(raw)
	}
	var updatedAt any
	if !job.UpdatedAt.IsZero() {
		updatedAt = job.UpdatedAt
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertJob,
		job.ID, string(job.Status), string(filesJSON), errJSON, job.RequestID, updatedAt, string(job.Edition),
	); err != nil {
		return fmt.Errorf("jobstore: upsert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, jobID string) (domain.Job, error) {
	var (
		job       domain.Job
		status    string
		edition   string
		filesJSON []byte
		errJSON   []byte
		updatedAt time.Time
	)
	row := s.sql.QueryRow(ctx, sqlinline.QSelectJob, jobID)
	if err := row.Scan(&job.ID, &status, &filesJSON, &errJSON, &job.RequestID, &updatedAt, &edition); err != nil {
		if infra.IsNoRows(err) {
			return domain.Job{}, domain.ErrNotFound
		}
		return domain.Job{}, fmt.Errorf("jobstore: select job %s: %w", jobID, err)
	}
	job.Status = domain.JobStatus(status)
	job.Edition = domain.Edition(edition)
	job.UpdatedAt = updatedAt
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &job.Files); err != nil {
			return domain.Job{}, fmt.Errorf("jobstore: decode files of %s: %w", jobID, err)
		}
	}
	if len(job.Files) == 0 {
		job.Files = nil
	}
	if len(errJSON) > 0 && string(errJSON) != "null" {
		job.Error = &domain.JobError{}
		if err := json.Unmarshal(errJSON, job.Error); err != nil {
			return domain.Job{}, fmt.Errorf("jobstore: decode error of %s: %w", jobID, err)
		}
	}
	return job, nil
}

var _ domain.JobRepository = (*PostgresStore)(nil)
