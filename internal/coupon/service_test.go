package coupon

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/datasaz/cartengine-backend/pkg/clock"
	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/enums"
	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo CouponRepository) Service {
	t.Helper()
	svc, err := NewService(repo, NewMutexLocker(time.Second), clock.Fixed{At: testNow}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func activeCoupon() *models.Coupon {
	return &models.Coupon{
		ID:            uuid.New(),
		Code:          "SAVE10",
		State:         enums.CouponStateActive,
		Category:      enums.CouponCategoryPercentage,
		Scope:         enums.CouponScopeGlobal,
		DiscountValue: dec("10"),
	}
}

func TestValidateUnknownCode(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubRepo(nil))
	_, err := svc.Validate(context.Background(), nil, "NOPE", nil, dec("100.00"), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidCoupon {
		t.Fatalf("expected invalid coupon, got %v", err)
	}
}

func TestValidateInactiveCoupon(t *testing.T) {
	t.Parallel()

	c := activeCoupon()
	c.State = enums.CouponStateInactive
	svc := newTestService(t, newStubRepo(c))

	_, err := svc.Validate(context.Background(), nil, c.Code, nil, dec("100.00"), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidCoupon {
		t.Fatalf("expected invalid coupon, got %v", err)
	}
}

func TestValidateOutsideWindow(t *testing.T) {
	t.Parallel()

	ended := testNow.Add(-24 * time.Hour)
	c := activeCoupon()
	c.EndDate = &ended
	svc := newTestService(t, newStubRepo(c))

	_, err := svc.Validate(context.Background(), nil, c.Code, nil, dec("100.00"), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCouponExpired {
		t.Fatalf("expected expired coupon, got %v", err)
	}

	notStarted := testNow.Add(24 * time.Hour)
	c2 := activeCoupon()
	c2.Code = "LATER"
	c2.StartDate = &notStarted
	svc2 := newTestService(t, newStubRepo(c2))

	_, err = svc2.Validate(context.Background(), nil, c2.Code, nil, dec("100.00"), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCouponExpired {
		t.Fatalf("expected expired coupon before start, got %v", err)
	}
}

func TestValidateBelowMinOrder(t *testing.T) {
	t.Parallel()

	c := activeCoupon()
	c.MinOrderAmount = dec("50.00")
	svc := newTestService(t, newStubRepo(c))

	_, err := svc.Validate(context.Background(), nil, c.Code, nil, dec("49.99"), nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInvalidCoupon {
		t.Fatalf("expected invalid coupon for min order, got %v", err)
	}
	if !strings.Contains(typed.Message(), "minimum") {
		t.Fatalf("unexpected message: %s", typed.Message())
	}
}

func TestValidateNoEligibleItems(t *testing.T) {
	t.Parallel()

	c := activeCoupon()
	svc := newTestService(t, newStubRepo(c))

	eligible := func(*models.Coupon) decimal.Decimal { return decimal.Zero }
	_, err := svc.Validate(context.Background(), nil, c.Code, nil, dec("100.00"), eligible)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidCoupon {
		t.Fatalf("expected invalid coupon for empty scope match, got %v", err)
	}
}

func TestValidateGlobalUsageCap(t *testing.T) {
	t.Parallel()

	max := 5
	c := activeCoupon()
	c.MaxUses = &max
	c.UsedCount = 5
	svc := newTestService(t, newStubRepo(c))

	_, err := svc.Validate(context.Background(), nil, c.Code, nil, dec("100.00"), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCouponLimit {
		t.Fatalf("expected coupon limit, got %v", err)
	}
}

func TestValidatePerUserCap(t *testing.T) {
	t.Parallel()

	perUser := 1
	c := activeCoupon()
	c.MaxUsesPerUser = &perUser
	repo := newStubRepo(c)
	userID := uuid.New()
	repo.redemptions[userID] = 1
	svc := newTestService(t, repo)

	_, err := svc.Validate(context.Background(), nil, c.Code, &userID, dec("100.00"), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeCouponLimit {
		t.Fatalf("expected per-user coupon limit, got %v", err)
	}

	otherUser := uuid.New()
	if _, err := svc.Validate(context.Background(), nil, c.Code, &otherUser, dec("100.00"), nil); err != nil {
		t.Fatalf("other user should validate: %v", err)
	}
}

func TestRedeemIncrementsUsageAndTracks(t *testing.T) {
	t.Parallel()

	c := activeCoupon()
	repo := newStubRepo(c)
	svc := newTestService(t, repo)
	userID := uuid.New()

	orderID := uuid.New()
	got, err := svc.Redeem(context.Background(), nil, c.Code, &userID, &orderID, dec("100.00"), nil)
	if err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if got.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %d", got.UsedCount)
	}
	if repo.trackings != 1 {
		t.Fatalf("expected one tracking row, got %d", repo.trackings)
	}
	track := repo.lastTrack
	if track == nil || track.CouponID != c.ID || track.UserID != userID {
		t.Fatalf("tracking row missing redemption identity: %+v", track)
	}
	if track.OrderID == nil || *track.OrderID != orderID {
		t.Fatal("tracking row should carry the order id")
	}
	if !track.Used {
		t.Fatal("tracking row should be flagged used")
	}
}

func TestRedeemTracksScopeTarget(t *testing.T) {
	t.Parallel()

	target := uuid.New()
	c := activeCoupon()
	c.Scope = enums.CouponScopeProduct
	c.TargetID = &target
	repo := newStubRepo(c)
	svc := newTestService(t, repo)
	userID := uuid.New()

	eligible := func(*models.Coupon) decimal.Decimal { return dec("100.00") }
	if _, err := svc.Redeem(context.Background(), nil, c.Code, &userID, nil, dec("100.00"), eligible); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	track := repo.lastTrack
	if track == nil || track.ProductID == nil || *track.ProductID != target {
		t.Fatalf("product-scoped redemption should record the target product: %+v", track)
	}
	if track.CategoryID != nil {
		t.Fatal("category id should stay empty for a product-scoped coupon")
	}
	if track.OrderID != nil {
		t.Fatal("order id should stay empty when no order context is given")
	}
}

func TestRedeemAnonymousSkipsTracking(t *testing.T) {
	t.Parallel()

	c := activeCoupon()
	repo := newStubRepo(c)
	svc := newTestService(t, repo)

	if _, err := svc.Redeem(context.Background(), nil, c.Code, nil, nil, dec("100.00"), nil); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}
	if repo.trackings != 0 {
		t.Fatalf("anonymous redemption should not create tracking rows, got %d", repo.trackings)
	}
}

func TestRedeemParallelRespectsMaxUses(t *testing.T) {
	t.Parallel()

	max := 1
	c := activeCoupon()
	c.MaxUses = &max
	repo := newStubRepo(c)
	svc := newTestService(t, repo)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Redeem(context.Background(), nil, c.Code, nil, nil, dec("100.00"), nil)
		}(i)
	}
	wg.Wait()

	var wins, limited int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		default:
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeCouponLimit {
				t.Fatalf("unexpected error: %v", err)
			}
			limited++
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly one successful redemption, got %d", wins)
	}
	if limited != workers-1 {
		t.Fatalf("expected %d limit errors, got %d", workers-1, limited)
	}
	if repo.coupon.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %d", repo.coupon.UsedCount)
	}
}

type stubRepo struct {
	mu          sync.Mutex
	coupon      *models.Coupon
	redemptions map[uuid.UUID]int64
	trackings   int
	lastTrack   *models.CouponTracking
}

func newStubRepo(c *models.Coupon) *stubRepo {
	return &stubRepo{coupon: c, redemptions: map[uuid.UUID]int64{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) CouponRepository { return s }

func (s *stubRepo) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil || !strings.EqualFold(s.coupon.Code, code) {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.coupon
	return &clone, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil || s.coupon.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.coupon
	return &clone, nil
}

func (s *stubRepo) FindByCodeForUpdate(ctx context.Context, code string) (*models.Coupon, error) {
	return s.FindByCode(ctx, code)
}

func (s *stubRepo) IncrementUsage(ctx context.Context, coupon *models.Coupon) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coupon == nil || s.coupon.ID != coupon.ID || s.coupon.Version != coupon.Version {
		return 0, nil
	}
	s.coupon.UsedCount++
	s.coupon.Version++
	return 1, nil
}

func (s *stubRepo) CountUserRedemptions(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redemptions[userID], nil
}

func (s *stubRepo) CreateTracking(ctx context.Context, tracking *models.CouponTracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redemptions[tracking.UserID]++
	s.trackings++
	s.lastTrack = tracking
	return nil
}
