package domain

import "context"

// JobRepository persists the last observed state of every submitted job.
// Put overwrites the whole record; Get returns ErrNotFound for unknown ids.
type JobRepository interface {
	Put(ctx context.Context, job Job) error
	Get(ctx context.Context, jobID string) (Job, error)
}

// JobReader is the read half of JobRepository.
type JobReader interface {
	Get(ctx context.Context, jobID string) (Job, error)
}
