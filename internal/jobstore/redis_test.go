package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hunyuan3d/internal/domain"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisStore(client, "test:")
}

func TestRedisStorePutGet(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()

	job := domain.Job{
		ID:        "1375367755519696896",
		Edition:   domain.EditionPro,
		Status:    domain.JobStatusDone,
		Files:     []domain.ResultFile{{Type: "GLB", URL: "https://x/y.glb", PreviewURL: "https://x/y.png"}},
		RequestID: "req-1",
		UpdatedAt: time.Date(2025, 9, 30, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(ctx, job))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	assert.True(t, mr.Exists("test:job:"+job.ID))
	assert.Zero(t, mr.TTL("test:job:"+job.ID), "job records never expire")
}

func TestRedisStoreUnknownJob(t *testing.T) {
	_, store := setupRedisStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisStoreOverwrite(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.Job{ID: "j", Status: domain.JobStatusFail, Error: &domain.JobError{Code: "c", Message: "m"}}))
	require.NoError(t, store.Put(ctx, domain.Job{ID: "j", Status: domain.JobStatusRun}))

	got, err := store.Get(ctx, "j")
	require.NoError(t, err)
	assert.Equal(t, domain.Job{ID: "j", Status: domain.JobStatusRun}, got)
}

func TestRedisStoreSurfacesConnectionErrors(t *testing.T) {
	mr, store := setupRedisStore(t)
	mr.Close()

	err := store.Put(context.Background(), domain.Job{ID: "j", Status: domain.JobStatusWait})
	assert.Error(t, err)
}
