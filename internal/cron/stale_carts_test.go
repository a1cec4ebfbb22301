package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datasaz/cartengine-backend/pkg/clock"
	"github.com/datasaz/cartengine-backend/pkg/logger"
)

type fakeCartStore struct {
	lastCutoff time.Time
	removed    int64
	err        error
	called     int
}

func (f *fakeCartStore) DeleteStaleAnonymous(_ context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.removed, nil
}

func newStaleCartJob(t *testing.T, store staleCartStore, clk clock.Clock, ttl time.Duration) *StaleCartJob {
	t.Helper()
	job, err := NewStaleCartJob(store, logger.New(logger.Options{ServiceName: "cron-test"}), clk, ttl)
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	return job
}

func TestStaleCartJobDeletesBeforeCutoff(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeCartStore{removed: 3}
	ttl := 90 * 24 * time.Hour
	job := newStaleCartJob(t, store, clock.Fixed{At: now}, ttl)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if store.called != 1 {
		t.Fatalf("expected one delete call, got %d", store.called)
	}
	want := now.Add(-ttl)
	if !store.lastCutoff.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", store.lastCutoff, want)
	}
}

func TestStaleCartJobPropagatesStoreError(t *testing.T) {
	store := &fakeCartStore{err: errors.New("db unavailable")}
	job := newStaleCartJob(t, store, clock.Fixed{}, time.Hour)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from store")
	}
}

func TestStaleCartJobRequiresStore(t *testing.T) {
	if _, err := NewStaleCartJob(nil, logger.New(logger.Options{ServiceName: "cron-test"}), clock.System{}, time.Hour); err == nil {
		t.Fatal("expected error for nil store")
	}
}
