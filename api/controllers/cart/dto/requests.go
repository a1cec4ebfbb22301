package cartdto

// AddItemRequest adds a product to the cart or bumps its quantity.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemRequest sets the absolute quantity of an existing line. Zero
// removes the line, so the field is a pointer to tell 0 from absent.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// ApplyCouponRequest redeems a coupon code against the cart.
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

// MergeRequest folds an anonymous session cart into the caller's cart.
type MergeRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}
