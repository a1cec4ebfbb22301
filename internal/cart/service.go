package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/datasaz/cartengine-backend/internal/coupon"
	"github.com/datasaz/cartengine-backend/pkg/clock"
	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/enums"
	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
	"github.com/datasaz/cartengine-backend/pkg/logger"
	"github.com/datasaz/cartengine-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type couponEngine interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string, userID, orderID *uuid.UUID, orderAmount decimal.Decimal, eligible coupon.EligibleFunc) (*models.Coupon, error)
}

// RetryPolicy bounds the automatic retries on optimistic lock conflicts.
type RetryPolicy struct {
	Attempts uint64
	Backoff  time.Duration
}

// Service exposes cart mutations. Every mutation recomputes the persisted
// totals inside one transaction.
type Service interface {
	GetCart(ctx context.Context, key CartKey) (*models.Cart, error)
	AddItem(ctx context.Context, key CartKey, productID uuid.UUID, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, key CartKey, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, key CartKey, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, key CartKey) (*models.Cart, error)
	ApplyCoupon(ctx context.Context, key CartKey, code string) (*models.Cart, error)
	RemoveCoupon(ctx context.Context, key CartKey) (*models.Cart, error)
	MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	coupons  couponEngine
	logg     *logger.Logger
	clock    clock.Clock
	metrics  *metrics.CouponMetrics
	retry    RetryPolicy
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, coupons couponEngine, logg *logger.Logger, clk clock.Clock, couponMetrics *metrics.CouponMetrics, policy RetryPolicy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if clk == nil {
		clk = clock.System{}
	}
	if policy.Attempts == 0 {
		policy.Attempts = 3
	}
	if policy.Backoff <= 0 {
		policy.Backoff = 100 * time.Millisecond
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		coupons:  coupons,
		logg:     logg,
		clock:    clk,
		metrics:  couponMetrics,
		retry:    policy,
	}, nil
}

// GetCart returns the cart for the key, creating an empty one on first access.
func (s *service) GetCart(ctx context.Context, key CartKey) (*models.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindByKey(ctx, key)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.createEmpty(ctx, s.repo, key)
}

// AddItem snapshots the product and adds it to the cart, folding the quantity
// into an existing line for the same product.
func (s *service) AddItem(ctx context.Context, key CartKey, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.getOrCreate(ctx, repo, key)
		if err != nil {
			return err
		}

		product, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		var line *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ProductID == productID {
				line = &cart.Items[i]
				break
			}
		}

		newQty := quantity
		if line != nil {
			newQty += line.Quantity
		}
		if err := checkStock(product, newQty); err != nil {
			return err
		}

		if line != nil {
			line.Quantity = newQty
			if err := repo.UpdateItemQuantity(ctx, line.ID, newQty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		} else {
			item := models.CartItem{
				CartID:             cart.ID,
				ProductID:          product.ID,
				CompanyID:          product.CompanyID,
				CategoryID:         product.CategoryID,
				ProductName:        product.Name,
				Quantity:           quantity,
				UnitPrice:          product.EffectivePrice(),
				ShippingCost:       product.ShippingCost,
				AdditionalShipping: product.AdditionalShipping,
			}
			if err := repo.CreateItem(ctx, &item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
			cart.Items = append(cart.Items, item)
		}

		return s.saveRecomputed(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

// UpdateItem replaces the quantity of an existing cart line. A quantity of
// zero or less removes the line instead.
func (s *service) UpdateItem(ctx context.Context, key CartKey, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return s.RemoveItem(ctx, key, itemID)
	}

	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mustLoad(ctx, repo, key)
		if err != nil {
			return err
		}

		line := findItem(cart, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeCartItemNotFound, "cart item not found")
		}

		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if err := checkStock(product, quantity); err != nil {
			return err
		}

		line.Quantity = quantity
		if err := repo.UpdateItemQuantity(ctx, line.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}

		return s.saveRecomputed(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

// RemoveItem deletes a cart line.
func (s *service) RemoveItem(ctx context.Context, key CartKey, itemID uuid.UUID) (*models.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mustLoad(ctx, repo, key)
		if err != nil {
			return err
		}

		line := findItem(cart, itemID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeCartItemNotFound, "cart item not found")
		}

		if err := repo.DeleteItem(ctx, line.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		cart.Items = removeItem(cart.Items, itemID)

		return s.saveRecomputed(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

// Clear empties the cart and drops any applied coupon.
func (s *service) Clear(ctx context.Context, key CartKey) (*models.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mustLoad(ctx, repo, key)
		if err != nil {
			return err
		}

		if err := repo.DeleteItemsByCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		cart.Items = nil
		cart.CouponID = nil
		cart.Coupon = nil

		return s.saveRecomputed(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

// ApplyCoupon redeems the code against the cart. The redemption and the
// totals update commit together.
func (s *service) ApplyCoupon(ctx context.Context, key CartKey, code string) (*models.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mustLoad(ctx, repo, key)
		if err != nil {
			return err
		}
		if cart.CouponID != nil {
			return pkgerrors.New(pkgerrors.CodeCouponApplied, "a coupon is already applied")
		}

		orderAmount := decimal.Zero
		for i := range cart.Items {
			orderAmount = orderAmount.Add(cart.Items[i].LineSubtotal())
		}

		applied, err := s.coupons.Redeem(ctx, tx, code, key.UserID, nil, orderAmount, func(c *models.Coupon) decimal.Decimal {
			return coupon.EligibleSubtotal(c, cart.Items)
		})
		if err != nil {
			return err
		}

		cart.CouponID = &applied.ID
		cart.Coupon = applied
		applyTotals(cart, ComputeTotals(cart.Items, applied))

		return s.save(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

// RemoveCoupon detaches the applied coupon and restores undiscounted totals.
func (s *service) RemoveCoupon(ctx context.Context, key CartKey) (*models.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mustLoad(ctx, repo, key)
		if err != nil {
			return err
		}

		cart.CouponID = nil
		cart.Coupon = nil
		applyTotals(cart, ComputeTotals(cart.Items, nil))

		return s.save(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByKey(ctx, key)
}

func (s *service) getOrCreate(ctx context.Context, repo CartRepository, key CartKey) (*models.Cart, error) {
	cart, err := repo.FindByKey(ctx, key)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.createEmpty(ctx, repo, key)
}

func (s *service) createEmpty(ctx context.Context, repo CartRepository, key CartKey) (*models.Cart, error) {
	cart := &models.Cart{
		SessionID: key.SessionID,
		UserID:    key.UserID,
	}
	created, err := repo.Create(ctx, cart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	return created, nil
}

func (s *service) mustLoad(ctx context.Context, repo CartRepository, key CartKey) (*models.Cart, error) {
	cart, err := repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeCartNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

// saveRecomputed re-evaluates the applied coupon against the mutated items,
// dropping it silently when it no longer holds, then persists the totals.
func (s *service) saveRecomputed(ctx context.Context, repo CartRepository, cart *models.Cart) error {
	applied, err := s.revalidateCoupon(ctx, cart)
	if err != nil {
		return err
	}
	applyTotals(cart, ComputeTotals(cart.Items, applied))
	return s.save(ctx, repo, cart)
}

func (s *service) save(ctx context.Context, repo CartRepository, cart *models.Cart) error {
	rows, err := repo.SaveWithVersion(ctx, cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrency, "cart was updated concurrently")
	}
	return nil
}

// revalidateCoupon keeps the applied coupon only while it still holds for the
// current cart contents. Usage caps are not rechecked here since the cart
// already consumed its use.
func (s *service) revalidateCoupon(ctx context.Context, cart *models.Cart) (*models.Coupon, error) {
	if cart.CouponID == nil {
		return nil, nil
	}

	applied := cart.Coupon
	if applied == nil {
		loaded, err := s.coupons.GetByID(ctx, *cart.CouponID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInvalidCoupon {
				s.dropCoupon(ctx, cart, "coupon no longer exists")
				return nil, nil
			}
			return nil, err
		}
		applied = loaded
	}

	subtotal := decimal.Zero
	for i := range cart.Items {
		subtotal = subtotal.Add(cart.Items[i].LineSubtotal())
	}

	switch {
	case applied.State != enums.CouponStateActive:
		s.dropCoupon(ctx, cart, "coupon is no longer active")
		return nil, nil
	case !applied.WithinWindow(s.clock.Now()):
		s.dropCoupon(ctx, cart, "coupon validity window passed")
		return nil, nil
	case subtotal.LessThan(applied.MinOrderAmount):
		s.dropCoupon(ctx, cart, "cart fell below coupon minimum")
		return nil, nil
	case coupon.EligibleSubtotal(applied, cart.Items).Sign() <= 0:
		s.dropCoupon(ctx, cart, "no eligible items remain")
		return nil, nil
	}

	cart.Coupon = applied
	return applied, nil
}

func (s *service) dropCoupon(ctx context.Context, cart *models.Cart, reason string) {
	s.logg.Warn(s.logg.WithField(ctx, "cart_id", cart.ID.String()), "dropping applied coupon: "+reason)
	cart.CouponID = nil
	cart.Coupon = nil
}

func (s *service) withRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	backoff := retry.WithMaxRetries(s.retry.Attempts, retry.NewConstant(s.retry.Backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.tx.WithTx(ctx, fn)
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConcurrency {
			s.metrics.IncVersionConflict()
			return retry.RetryableError(err)
		}
		return err
	})
}

func checkStock(product *models.Product, quantity int) error {
	if quantity > product.Stock {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds stock").
			WithDetails(map[string]int{"requested": quantity, "available": product.Stock})
	}
	return nil
}

func findItem(cart *models.Cart, itemID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

func removeItem(items []models.CartItem, itemID uuid.UUID) []models.CartItem {
	kept := items[:0]
	for i := range items {
		if items[i].ID != itemID {
			kept = append(kept, items[i])
		}
	}
	return kept
}
