package models

import "strings"

// Address is the shipping address collected at checkout. All five fields
// must be non-blank for an order to be placeable.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

// Valid reports whether every field is non-empty after trimming whitespace.
func (a Address) Valid() bool {
	for _, f := range []string{a.Street, a.City, a.State, a.Pincode, a.Phone} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Flatten joins the address fields into the single comma-separated string
// the backend stores on orders and user profiles.
func (a Address) Flatten() string {
	return strings.Join([]string{a.Street, a.City, a.State, a.Pincode, a.Phone}, ", ")
}

// OrderedProduct is one line of an order payload.
type OrderedProduct struct {
	ProductID  string `json:"productId"`
	ProductQty int    `json:"productQty"`
}

// PlaceOrderRequest is the payload for the place-order call. Date is
// DD/MM/YYYY, Time is HH:MM:SS, both from the client clock. Address is the
// flattened string and Price the final discounted total.
type PlaceOrderRequest struct {
	UserID          string           `json:"userId"`
	Date            string           `json:"date"`
	Time            string           `json:"time"`
	Address         string           `json:"address"`
	Price           float64          `json:"price"`
	ProductsOrdered []OrderedProduct `json:"productsOrdered"`
}

// PlaceOrderResponse carries only the backend's confirmation message.
type PlaceOrderResponse struct {
	Message string `json:"message"`
}

// MsgOrderPlaced is the literal success message the backend returns. Order
// placement is confirmed only on an exact match.
const MsgOrderPlaced = "Order placed successfully"

// Order is a previously placed order as returned by find-my-order.
type Order struct {
	OrderID    string   `json:"orderId"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Address    string   `json:"address"`
	Price      float64  `json:"price"`
	ProductIDs []string `json:"productIds"`
}

// OrdersResponse is the envelope for the order-history call.
type OrdersResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Orders  []Order `json:"orders"`
}

// UpdateAddressRequest pushes a flattened address to the user's profile.
// The call is best-effort; its response is not checked.
type UpdateAddressRequest struct {
	UserID  string `json:"userId"`
	Address string `json:"address"`
}
