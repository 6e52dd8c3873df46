package models

// CartLine is a server-tracked pairing of a user's cart to a product and
// quantity. The backend may hold several lines for the same product.
type CartLine struct {
	ProductID  string `json:"productId"`
	ProductQty int    `json:"productQty"`
	LineID     string `json:"_id"`
}

// CartResponse is the envelope for the get-cart call.
type CartResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Cart    struct {
		ProductsInCart []CartLine `json:"productsInCart"`
	} `json:"cart"`
}

// ResolvedItem is a cart line enriched with full product details. The
// aggregator guarantees exactly one resolved item per unique product id.
type ResolvedItem struct {
	Product
	Quantity int    `json:"quantity"`
	LineID   string `json:"cartItemId"`
}

// Discount is the active coupon state. Only one discount is tracked at a
// time; redeeming a new code replaces the previous one outright.
type Discount struct {
	Code       string  `json:"code"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
}

// StatusResponse is the generic success/message envelope used by cart
// mutations (add, update-quantity, delete-items).
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CouponVerifyResponse is the envelope for coupon verification. A valid
// code carries DiscountPercentage; an invalid one carries only Message.
type CouponVerifyResponse struct {
	DiscountPercentage float64 `json:"discountPercentage"`
	Message            string  `json:"message,omitempty"`
}

// MsgInvalidCoupon is the literal the backend returns for unknown codes.
const MsgInvalidCoupon = "Invalid coupon code"
