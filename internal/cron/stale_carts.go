package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/datasaz/cartengine-backend/pkg/clock"
	"github.com/datasaz/cartengine-backend/pkg/logger"
)

type staleCartStore interface {
	DeleteStaleAnonymous(ctx context.Context, cutoff time.Time) (int64, error)
}

// StaleCartJob prunes anonymous carts that have not been touched within the
// TTL. User carts are kept indefinitely.
type StaleCartJob struct {
	store staleCartStore
	logg  *logger.Logger
	clock clock.Clock
	ttl   time.Duration
}

// NewStaleCartJob builds the stale cart cleanup job.
func NewStaleCartJob(store staleCartStore, logg *logger.Logger, clk clock.Clock, ttl time.Duration) (*StaleCartJob, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if clk == nil {
		clk = clock.System{}
	}
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &StaleCartJob{store: store, logg: logg, clock: clk, ttl: ttl}, nil
}

// Name implements Job.
func (j *StaleCartJob) Name() string { return "stale-carts" }

// Run deletes anonymous carts older than the TTL.
func (j *StaleCartJob) Run(ctx context.Context) error {
	cutoff := j.clock.Now().Add(-j.ttl)
	removed, err := j.store.DeleteStaleAnonymous(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete stale carts: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "removed", removed), "stale cart cleanup finished")
	return nil
}
