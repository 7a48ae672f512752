package jobstore

import (
	"context"
	"fmt"

	"hunyuan3d/internal/domain"
	"hunyuan3d/internal/infra"
)

// Open builds the job store selected by cfg.JobStore. The returned close
// function releases backend connections and is never nil.
func Open(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (domain.JobRepository, func(), error) {
	logger = infra.LoggerOrDiscard(logger)
	noop := func() {}

	switch cfg.JobStore {
	case infra.JobStoreFile, "":
		store, err := OpenFile(cfg.JobDBFile, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case infra.JobStorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		store := NewPostgresStore(infra.NewSQLRunner(pool, *logger))
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil

	case infra.JobStoreRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn().Err(err).Msg("jobstore: close redis client")
			}
		}
		return NewRedisStore(client, cfg.RedisKeyPrefix), closeFn, nil

	default:
		return nil, noop, fmt.Errorf("jobstore: unsupported backend %q", cfg.JobStore)
	}
}
