package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
)

// Locker serializes concurrent redemptions of the same coupon code. The
// returned release func must be called once the critical section ends; row
// based lockers release at transaction end and return a no-op.
type Locker interface {
	LockCode(ctx context.Context, tx *gorm.DB, code string) (func(), error)
}

// RowLocker takes a postgres row lock on the coupon so usage-cap checks and
// the used_count bump happen under mutual exclusion. The lock is held until
// the enclosing transaction commits or rolls back.
type RowLocker struct {
	repo CouponRepository
	wait time.Duration
}

// NewRowLocker constructs a RowLocker reading through repo with a bounded
// lock wait.
func NewRowLocker(repo CouponRepository, wait time.Duration) (*RowLocker, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required for row lock")
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RowLocker{repo: repo, wait: wait}, nil
}

// LockCode acquires the row lock inside tx via a SELECT FOR UPDATE read. A
// lock wait timeout surfaces as a retryable conflict. A missing coupon locks
// nothing; the caller's load reports it.
func (l *RowLocker) LockCode(ctx context.Context, tx *gorm.DB, code string) (func(), error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required for row lock")
	}

	timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", l.wait.Milliseconds())
	if err := tx.WithContext(ctx).Exec(timeout).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set lock timeout")
	}

	if _, err := l.repo.WithTx(tx).FindByCodeForUpdate(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return func() {}, nil
		}
		if strings.Contains(err.Error(), "lock timeout") || strings.Contains(err.Error(), "canceling statement") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "coupon lock wait timed out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock coupon row")
	}

	return func() {}, nil
}

// MutexLocker is an in-process keyed mutex used with sqlite, which has no row
// locks. It only guards a single process.
type MutexLocker struct {
	wait time.Duration

	mu    sync.Mutex
	codes map[string]chan struct{}
}

// NewMutexLocker constructs a MutexLocker with a bounded lock wait.
func NewMutexLocker(wait time.Duration) *MutexLocker {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &MutexLocker{wait: wait, codes: make(map[string]chan struct{})}
}

// LockCode acquires the per-code mutex or fails with a retryable conflict
// once the wait budget is spent.
func (l *MutexLocker) LockCode(ctx context.Context, _ *gorm.DB, code string) (func(), error) {
	key := strings.ToLower(code)

	l.mu.Lock()
	ch, ok := l.codes[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.codes[key] = ch
	}
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, pkgerrors.New(pkgerrors.CodeConcurrency, "coupon lock wait timed out")
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeConcurrency, ctx.Err(), "coupon lock interrupted")
	}
}
