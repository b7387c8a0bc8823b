package jobs

import (
	"context"

	"github.com/wonny/tradelens/backend/internal/cache"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// CacheSweepJob evicts expired entries from the in-process caches
type CacheSweepJob struct {
	sweepers []cache.Sweeper
	logger   *logger.Logger
}

// NewCacheSweepJob creates a new cache sweep job
func NewCacheSweepJob(log *logger.Logger, sweepers ...cache.Sweeper) *CacheSweepJob {
	return &CacheSweepJob{
		sweepers: sweepers,
		logger:   log,
	}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string {
	return "cache-sweep"
}

// Schedule returns the cron schedule (every minute)
func (j *CacheSweepJob) Schedule() string {
	return "0 * * * * *"
}

// Run sweeps every cache
func (j *CacheSweepJob) Run(ctx context.Context) error {
	removed := make(map[string]interface{}, len(j.sweepers))
	total := 0
	for _, s := range j.sweepers {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := s.Sweep()
		removed[s.Name()] = n
		total += n
	}

	if total > 0 {
		j.logger.WithFields(removed).Info("Cache sweep completed")
	}
	return nil
}
