package cart

import (
	"github.com/google/uuid"

	pkgerrors "github.com/datasaz/cartengine-backend/pkg/errors"
)

// CartKey identifies the owner of a cart. Exactly one of SessionID and
// UserID is set; anonymous carts hang off a client-generated session id.
type CartKey struct {
	SessionID *string
	UserID    *uuid.UUID
}

// SessionKey builds a key for an anonymous session cart.
func SessionKey(sessionID string) CartKey {
	return CartKey{SessionID: &sessionID}
}

// UserKey builds a key for an authenticated user's cart.
func UserKey(userID uuid.UUID) CartKey {
	return CartKey{UserID: &userID}
}

// Validate rejects ambiguous or malformed keys. Session ids must be UUIDs so
// clients cannot claim arbitrary strings as cart owners.
func (k CartKey) Validate() error {
	switch {
	case k.SessionID == nil && k.UserID == nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "session id or user id is required")
	case k.SessionID != nil && k.UserID != nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "session id and user id are mutually exclusive")
	case k.SessionID != nil:
		if _, err := uuid.Parse(*k.SessionID); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "session id must be a UUID")
		}
	case k.UserID != nil && *k.UserID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return nil
}
