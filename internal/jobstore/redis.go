package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"hunyuan3d/internal/domain"
)

// RedisStore keeps one JSON value per job without expiry.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(jobID string) string {
	return s.prefix + "job:" + jobID
}

func (s *RedisStore) Put(ctx context.Context, job domain.Job) error {
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("jobstore: job id is required")
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: encode job %s: %w", job.ID, err)
	}
	if err := s.client.Set(ctx, s.key(job.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("jobstore: redis set %s: %w", job.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (domain.Job, error) {
	raw, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Job{}, domain.ErrNotFound
		}
		return domain.Job{}, fmt.Errorf("jobstore: redis get %s: %w", jobID, err)
	}
	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.Job{}, fmt.Errorf("jobstore: decode job %s: %w", jobID, err)
	}
	return job, nil
}

var _ domain.JobRepository = (*RedisStore)(nil)
