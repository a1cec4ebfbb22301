package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/datasaz/cartengine-backend/pkg/clock"
	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/enums"
	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
	"github.com/datasaz/cartengine-backend/pkg/metrics"
)

// CouponRepository defines the persistence surface required by the coupon service.
type CouponRepository interface {
	WithTx(tx *gorm.DB) CouponRepository
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCodeForUpdate(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, coupon *models.Coupon) (int64, error)
	CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int64, error)
	CreateTracking(ctx context.Context, tracking *models.CouponTracking) error
}

// EligibleFunc computes the subtotal of cart items the coupon's scope covers.
type EligibleFunc func(coupon *models.Coupon) decimal.Decimal

// Service exposes coupon validation and redemption.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Validate(ctx context.Context, tx *gorm.DB, code string, userID *uuid.UUID, orderAmount decimal.Decimal, eligible EligibleFunc) (*models.Coupon, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string, userID, orderID *uuid.UUID, orderAmount decimal.Decimal, eligible EligibleFunc) (*models.Coupon, error)
}

type service struct {
	repo    CouponRepository
	locker  Locker
	clock   clock.Clock
	metrics *metrics.CouponMetrics
}

// NewService builds a coupon service backed by the provided stack.
func NewService(repo CouponRepository, locker Locker, clk clock.Clock, couponMetrics *metrics.CouponMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if locker == nil {
		return nil, fmt.Errorf("coupon locker required")
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &service{
		repo:    repo,
		locker:  locker,
		clock:   clk,
		metrics: couponMetrics,
	}, nil
}

// GetByID loads a coupon by id, mapping a missing row to an invalid coupon.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

// Validate runs the full check chain without consuming a use. Callers that
// intend to redeem should use Redeem instead, which repeats the checks under
// the code lock.
func (s *service) Validate(ctx context.Context, tx *gorm.DB, code string, userID *uuid.UUID, orderAmount decimal.Decimal, eligible EligibleFunc) (*models.Coupon, error) {
	repo := s.repo.WithTx(tx)

	coupon, err := s.loadByCode(ctx, repo, code)
	if err != nil {
		return nil, s.reject(err)
	}
	if err := s.check(ctx, repo, coupon, userID, orderAmount, eligible); err != nil {
		return nil, s.reject(err)
	}
	return coupon, nil
}

// Redeem validates the coupon under the per-code lock and consumes a use.
// Must run inside the caller's transaction so the usage bump rolls back with
// the rest of the cart mutation.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, code string, userID, orderID *uuid.UUID, orderAmount decimal.Decimal, eligible EligibleFunc) (*models.Coupon, error) {
	release, err := s.locker.LockCode(ctx, tx, code)
	if err != nil {
		return nil, s.reject(err)
	}
	defer release()

	repo := s.repo.WithTx(tx)

	coupon, err := s.loadByCode(ctx, repo, code)
	if err != nil {
		return nil, s.reject(err)
	}
	if err := s.check(ctx, repo, coupon, userID, orderAmount, eligible); err != nil {
		return nil, s.reject(err)
	}

	rows, err := repo.IncrementUsage(ctx, coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment coupon usage")
	}
	if rows == 0 {
		return nil, s.reject(pkgerrors.New(pkgerrors.CodeConcurrency, "coupon was updated concurrently"))
	}
	coupon.UsedCount++
	coupon.Version++

	if userID != nil {
		tracking := &models.CouponTracking{
			CouponID: coupon.ID,
			UserID:   *userID,
			OrderID:  orderID,
			Used:     true,
		}
		switch coupon.Scope {
		case enums.CouponScopeProduct:
			tracking.ProductID = coupon.TargetID
		case enums.CouponScopeCategory:
			tracking.CategoryID = coupon.TargetID
		}
		if err := repo.CreateTracking(ctx, tracking); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon usage")
		}
	}

	s.metrics.IncRedemption(coupon.Category.String())
	return coupon, nil
}

func (s *service) loadByCode(ctx context.Context, repo CouponRepository, code string) (*models.Coupon, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon code is required")
	}
	coupon, err := repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon not found").
				WithDetails(map[string]string{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func (s *service) check(ctx context.Context, repo CouponRepository, coupon *models.Coupon, userID *uuid.UUID, orderAmount decimal.Decimal, eligible EligibleFunc) error {
	if coupon.State != enums.CouponStateActive {
		return pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon is not active")
	}
	if !coupon.WithinWindow(s.clock.Now()) {
		return pkgerrors.New(pkgerrors.CodeCouponExpired, "coupon is outside its validity window")
	}
	if orderAmount.LessThan(coupon.MinOrderAmount) {
		return pkgerrors.New(pkgerrors.CodeInvalidCoupon, "order amount below coupon minimum").
			WithDetails(map[string]string{"min_order_amount": coupon.MinOrderAmount.StringFixed(2)})
	}
	if eligible != nil && eligible(coupon).Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon does not apply to any item in the cart")
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return pkgerrors.New(pkgerrors.CodeCouponLimit, "coupon usage limit reached")
	}
	if userID != nil && coupon.MaxUsesPerUser != nil {
		used, err := repo.CountUserRedemptions(ctx, coupon.ID, *userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon redemptions")
		}
		if used >= int64(*coupon.MaxUsesPerUser) {
			return pkgerrors.New(pkgerrors.CodeCouponLimit, "coupon usage limit reached for this user")
		}
	}
	return nil
}

func (s *service) reject(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejection(string(typed.Code()))
	}
	return err
}
