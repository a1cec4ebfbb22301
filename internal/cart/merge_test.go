package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/enums"
	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
)

func TestMergeOnLoginCombinesQuantitiesAndCapsAtStock(t *testing.T) {
	t.Parallel()

	shared := uuid.New()
	extra := uuid.New()
	products := stubProducts{
		shared: {ID: shared, Name: "Fig Tree", Price: dec("10.00"), Stock: 5, IsActive: true},
		extra:  {ID: extra, Name: "Clay Pot", Price: dec("4.00"), Stock: 10, IsActive: true},
	}

	userID := uuid.New()
	sessionID := uuid.NewString()
	repo := newStubCartRepo()
	repo.seed(&models.Cart{
		UserID: &userID,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: shared, ProductName: "Fig Tree", Quantity: 2, UnitPrice: dec("10.00")},
		},
	})
	repo.seed(&models.Cart{
		SessionID: &sessionID,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: shared, ProductName: "Fig Tree", Quantity: 4, UnitPrice: dec("10.00")},
			{ID: uuid.New(), ProductID: extra, ProductName: "Clay Pot", Quantity: 1, UnitPrice: dec("4.00")},
		},
	})

	svc := newTestCartService(t, repo, products, &stubCouponEngine{})

	merged, err := svc.MergeOnLogin(context.Background(), sessionID, userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged.Items) != 2 {
		t.Fatalf("expected 2 lines after merge, got %d", len(merged.Items))
	}
	for i := range merged.Items {
		item := &merged.Items[i]
		switch item.ProductID {
		case shared:
			if item.Quantity != 5 {
				t.Fatalf("shared line should cap at stock 5, got %d", item.Quantity)
			}
		case extra:
			if item.Quantity != 1 {
				t.Fatalf("extra line quantity = %d, want 1", item.Quantity)
			}
		default:
			t.Fatalf("unexpected product %s in merged cart", item.ProductID)
		}
	}
	if !merged.Subtotal.Equal(dec("54.00")) {
		t.Fatalf("subtotal = %s, want 54.00", merged.Subtotal)
	}

	if _, err := repo.FindBySessionID(context.Background(), sessionID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("session cart should be deleted after merge, got %v", err)
	}
}

func TestMergeOnLoginReplayIsNoOp(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, stubProducts{}, &stubCouponEngine{})

	merged, err := svc.MergeOnLogin(context.Background(), uuid.NewString(), userID)
	if err != nil {
		t.Fatalf("merge without session cart: %v", err)
	}
	if merged.UserID == nil || *merged.UserID != userID {
		t.Fatal("merge should return the user cart")
	}
	if len(merged.Items) != 0 {
		t.Fatalf("expected empty user cart, got %d items", len(merged.Items))
	}
}

func TestMergeOnLoginCarriesValidCoupon(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	products := stubProducts{
		productID: {ID: productID, Name: "Bonsai", Price: dec("30.00"), Stock: 3, IsActive: true},
	}

	applied := &models.Coupon{
		ID:            uuid.New(),
		Code:          "WELCOME10",
		State:         enums.CouponStateActive,
		Category:      enums.CouponCategoryPercentage,
		Scope:         enums.CouponScopeGlobal,
		DiscountValue: dec("10"),
	}

	userID := uuid.New()
	sessionID := uuid.NewString()
	repo := newStubCartRepo()
	repo.seed(&models.Cart{
		SessionID: &sessionID,
		CouponID:  &applied.ID,
		Coupon:    applied,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: productID, ProductName: "Bonsai", Quantity: 1, UnitPrice: dec("30.00")},
		},
	})

	svc := newTestCartService(t, repo, products, &stubCouponEngine{})

	merged, err := svc.MergeOnLogin(context.Background(), sessionID, userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.CouponID == nil || *merged.CouponID != applied.ID {
		t.Fatal("session coupon should carry over to the user cart")
	}
	if !merged.DiscountAmount.Equal(dec("3.00")) {
		t.Fatalf("discount = %s, want 3.00", merged.DiscountAmount)
	}
	if !merged.TotalPrice.Equal(dec("27.00")) {
		t.Fatalf("total = %s, want 27.00", merged.TotalPrice)
	}
}

func TestMergeOnLoginDropsCouponBelowMinimum(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	products := stubProducts{
		productID: {ID: productID, Name: "Seed Pack", Price: dec("5.00"), Stock: 10, IsActive: true},
	}

	applied := &models.Coupon{
		ID:             uuid.New(),
		Code:           "BIGSPEND",
		State:          enums.CouponStateActive,
		Category:       enums.CouponCategoryFixed,
		Scope:          enums.CouponScopeGlobal,
		DiscountValue:  dec("20.00"),
		MinOrderAmount: dec("100.00"),
	}

	userID := uuid.New()
	sessionID := uuid.NewString()
	repo := newStubCartRepo()
	repo.seed(&models.Cart{
		SessionID: &sessionID,
		CouponID:  &applied.ID,
		Coupon:    applied,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: productID, ProductName: "Seed Pack", Quantity: 1, UnitPrice: dec("5.00")},
		},
	})

	svc := newTestCartService(t, repo, products, &stubCouponEngine{})

	merged, err := svc.MergeOnLogin(context.Background(), sessionID, userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.CouponID != nil {
		t.Fatal("coupon below minimum should be dropped during merge")
	}
	if !merged.DiscountAmount.IsZero() {
		t.Fatalf("discount = %s, want 0", merged.DiscountAmount)
	}
}

func TestMergeOnLoginSkipsVanishedProducts(t *testing.T) {
	t.Parallel()

	gone := uuid.New()
	userID := uuid.New()
	sessionID := uuid.NewString()
	repo := newStubCartRepo()
	repo.seed(&models.Cart{
		SessionID: &sessionID,
		Items: []models.CartItem{
			{ID: uuid.New(), ProductID: gone, ProductName: "Discontinued", Quantity: 2, UnitPrice: dec("9.00")},
		},
	})

	svc := newTestCartService(t, repo, stubProducts{}, &stubCouponEngine{})

	merged, err := svc.MergeOnLogin(context.Background(), sessionID, userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged.Items) != 0 {
		t.Fatalf("vanished product should be skipped, got %d items", len(merged.Items))
	}
}

func TestMergeOnLoginRejectsMalformedSessionID(t *testing.T) {
	t.Parallel()

	repo := newStubCartRepo()
	svc := newTestCartService(t, repo, stubProducts{}, &stubCouponEngine{})

	_, err := svc.MergeOnLogin(context.Background(), "not-a-uuid", uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
