package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/datasaz/cartengine-backend/pkg/db/models"
	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
)

// MergeOnLogin folds the anonymous session cart into the user's cart and
// deletes the session cart, so a replayed merge is a no-op. Quantities are
// capped at current stock and the session coupon carries over only when the
// user cart has none and the coupon still validates against the merged cart.
func (s *service) MergeOnLogin(ctx context.Context, sessionID string, userID uuid.UUID) (*models.Cart, error) {
	sessionKey := SessionKey(sessionID)
	if err := sessionKey.Validate(); err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sessionCart, err := repo.FindBySessionID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Nothing to merge; make sure the user cart exists.
				_, err := s.getOrCreate(ctx, repo, UserKey(userID))
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart")
		}

		userCart, err := s.getOrCreate(ctx, repo, UserKey(userID))
		if err != nil {
			return err
		}

		for i := range sessionCart.Items {
			if err := s.mergeItem(ctx, repo, userCart, &sessionCart.Items[i]); err != nil {
				return err
			}
		}

		if sessionCart.CouponID != nil && userCart.CouponID == nil {
			userCart.CouponID = sessionCart.CouponID
			userCart.Coupon = sessionCart.Coupon
		}

		if err := repo.Delete(ctx, sessionCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session cart")
		}

		return s.saveRecomputed(ctx, repo, userCart)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByUserID(ctx, userID)
}

// mergeItem folds one session line into the user cart, capping the combined
// quantity at available stock. Products that vanished since the session added
// them are skipped.
func (s *service) mergeItem(ctx context.Context, repo CartRepository, userCart *models.Cart, incoming *models.CartItem) error {
	product, err := s.products.GetProduct(ctx, incoming.ProductID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeProductNotFound {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", incoming.ProductID.String()), "skipping merge of unavailable product")
			return nil
		}
		return err
	}

	var line *models.CartItem
	for i := range userCart.Items {
		if userCart.Items[i].ProductID == incoming.ProductID {
			line = &userCart.Items[i]
			break
		}
	}

	combined := incoming.Quantity
	if line != nil {
		combined += line.Quantity
	}
	if combined > product.Stock {
		combined = product.Stock
	}
	if combined < 1 {
		return nil
	}

	if line != nil {
		line.Quantity = combined
		if err := repo.UpdateItemQuantity(ctx, line.ID, combined); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
		}
		return nil
	}

	item := models.CartItem{
		CartID:             userCart.ID,
		ProductID:          incoming.ProductID,
		CompanyID:          incoming.CompanyID,
		CategoryID:         incoming.CategoryID,
		ProductName:        incoming.ProductName,
		Quantity:           combined,
		UnitPrice:          incoming.UnitPrice,
		ShippingCost:       incoming.ShippingCost,
		AdditionalShipping: incoming.AdditionalShipping,
	}
	if err := repo.CreateItem(ctx, &item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
	}
	userCart.Items = append(userCart.Items, item)
	return nil
}
