// Package commerce is the typed client for the remote commerce backend. All
// business logic (auth, pricing authority, coupon validation, stock, order
// persistence) lives behind these calls; this side only shapes requests and
// validates response envelopes at the boundary.
package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/giftbloom/storefront/internal/models"
	"github.com/giftbloom/storefront/internal/patterns"
)

// Client talks to the commerce backend over JSON/HTTPS. Each backend
// concern gets its own circuit breaker so a melted-down coupon endpoint
// cannot take cart reads with it.
type Client struct {
	http    *resty.Client
	baseURL string

	cartCircuit    *patterns.CircuitBreaker
	catalogCircuit *patterns.CircuitBreaker
	orderCircuit   *patterns.CircuitBreaker
	couponCircuit  *patterns.CircuitBreaker
	sellerCircuit  *patterns.CircuitBreaker
}

// New creates a Client for the given backend origin. The service label is
// used for breaker metrics.
func New(baseURL, service string) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(patterns.SlowBackendTimeout).
			SetRetryCount(0), // no automatic retries, breakers handle failure
		baseURL:        baseURL,
		cartCircuit:    patterns.NewCircuitBreaker("Cart", service),
		catalogCircuit: patterns.NewCircuitBreaker("Catalog", service),
		orderCircuit:   patterns.NewCircuitBreaker("Orders", service),
		couponCircuit:  patterns.NewCircuitBreaker("Coupons", service),
		sellerCircuit:  patterns.NewCircuitBreaker("Seller", service),
	}
}

// CircuitStatus is one breaker's entry in the status endpoint payload.
type CircuitStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Value int    `json:"value"`
}

// CircuitStates reports each breaker's state for the status endpoint, as
// both the human-readable string and the numeric gauge value.
func (c *Client) CircuitStates() map[string]CircuitStatus {
	out := make(map[string]CircuitStatus)
	for _, cb := range []*patterns.CircuitBreaker{
		c.cartCircuit, c.catalogCircuit, c.orderCircuit, c.couponCircuit, c.sellerCircuit,
	} {
		out[cb.Name()] = CircuitStatus{
			Name:  cb.Name(),
			State: cb.State(),
			Value: cb.StateValue(),
		}
	}
	return out
}

// call issues one request through the named circuit. When strict is true a
// non-2xx status is a failure; lenient endpoints (coupon verify, seller
// login) parse whatever body came back because the backend reports business
// errors with non-2xx statuses and a message field.
func (c *Client) call(ctx context.Context, cb *patterns.CircuitBreaker, method, path string, body, out interface{}, strict bool) error {
	return cb.Do(func() error {
		req := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json")
		if body != nil {
			req.SetBody(body)
		}

		resp, err := req.Execute(method, c.baseURL+path)
		if err != nil {
			return fmt.Errorf("HTTP error: %w", err)
		}

		if strict && !resp.IsSuccess() {
			return fmt.Errorf("commerce backend returned status %d: %s", resp.StatusCode(), resp.String())
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}
		return nil
	})
}

// GetCart fetches the raw cart lines for a user. A server-side failure is
// returned as an error carrying the backend's message.
func (c *Client) GetCart(ctx context.Context, userID string) ([]models.CartLine, error) {
	var resp models.CartResponse
	err := c.call(ctx, c.cartCircuit, http.MethodPost, "/cart/get-cart",
		map[string]string{"userId": userID}, &resp, true)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.Message == "" {
			resp.Message = "Failed to fetch cart"
		}
		return nil, fmt.Errorf("%s", resp.Message)
	}
	return resp.Cart.ProductsInCart, nil
}

// GetProduct fetches full product detail for one product id.
func (c *Client) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	var resp models.ProductResponse
	err := c.call(ctx, c.catalogCircuit, http.MethodPost, "/"+productID,
		map[string]string{"productId": productID}, &resp, true)
	if err != nil {
		return models.Product{}, err
	}
	if !resp.Success {
		return models.Product{}, fmt.Errorf("product %s not found", productID)
	}
	return resp.Product, nil
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var resp models.ProductsResponse
	err := c.call(ctx, c.catalogCircuit, http.MethodGet, "/get-product", nil, &resp, true)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("failed to fetch products: %s", resp.Message)
	}
	return resp.Products, nil
}

// ProductsByCategory fetches the catalog filtered server-side by category.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var resp models.ProductsResponse
	err := c.call(ctx, c.catalogCircuit, http.MethodPost, "/product/category",
		map[string]string{"category": category}, &resp, true)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("failed to fetch category %s: %s", category, resp.Message)
	}
	return resp.Products, nil
}

// AddToCart puts qty units of a product into the user's cart.
func (c *Client) AddToCart(ctx context.Context, userID, productID string, qty int) error {
	var resp models.StatusResponse
	err := c.call(ctx, c.cartCircuit, http.MethodPost, "/cart/addtocart",
		map[string]interface{}{"userId": userID, "productId": productID, "quantity": qty},
		&resp, true)
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message == "" {
			resp.Message = "Product not saved to cart"
		}
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

// UpdateQuantity sets the absolute quantity for a product in the cart.
func (c *Client) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	var resp models.StatusResponse
	err := c.call(ctx, c.cartCircuit, http.MethodPut, "/cart/update-quantity",
		map[string]interface{}{"userId": userID, "productId": productID, "productQty": qty},
		&resp, true)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to update quantity: %s", resp.Message)
	}
	return nil
}

// DeleteCartItem removes a product from the user's cart.
func (c *Client) DeleteCartItem(ctx context.Context, userID, productID string) error {
	var resp models.StatusResponse
	err := c.call(ctx, c.cartCircuit, http.MethodPost, "/cart/delete-items",
		map[string]string{"userId": userID, "productId": productID}, &resp, true)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to remove item: %s", resp.Message)
	}
	return nil
}

// VerifyCoupon checks a coupon code. The backend answers invalid codes with
// a message body rather than a success envelope, so the call is lenient
// about status and the caller inspects the response.
func (c *Client) VerifyCoupon(ctx context.Context, code string) (models.CouponVerifyResponse, error) {
	var resp models.CouponVerifyResponse
	err := c.call(ctx, c.couponCircuit, http.MethodPost, "/coupon/verify-coupon",
		map[string]string{"code": code}, &resp, false)
	return resp, err
}

// PlaceOrder submits an order. There is no idempotency token; the backend
// treats every submission as a new order.
func (c *Client) PlaceOrder(ctx context.Context, order models.PlaceOrderRequest) (models.PlaceOrderResponse, error) {
	var resp models.PlaceOrderResponse
	err := c.call(ctx, c.orderCircuit, http.MethodPost, "/cart/place-order", order, &resp, false)
	return resp, err
}

// UpdateAddress pushes a flattened address to the user's profile. The
// response body is intentionally ignored; the caller treats the whole call
// as best-effort.
func (c *Client) UpdateAddress(ctx context.Context, userID, flatAddress string) error {
	return c.call(ctx, c.orderCircuit, http.MethodPost, "/update-address",
		models.UpdateAddressRequest{UserID: userID, Address: flatAddress}, nil, true)
}

// FindMyOrders fetches the user's order history.
func (c *Client) FindMyOrders(ctx context.Context, userID string) ([]models.Order, error) {
	var resp models.OrdersResponse
	err := c.call(ctx, c.orderCircuit, http.MethodPost, "/find-my-order",
		map[string]string{"userId": userID}, &resp, true)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("failed to fetch orders: %s", resp.Message)
	}
	return resp.Orders, nil
}

// GetUser fetches the shopper's display name. Failures are logged and an
// empty name returned; the navbar greeting is not worth an error path.
func (c *Client) GetUser(ctx context.Context, userID string) string {
	var resp models.UserResponse
	if err := c.call(ctx, c.sellerCircuit, http.MethodGet, "/auth/user/"+userID, nil, &resp, true); err != nil {
		log.WithField("user_id", userID).Warn("Failed to fetch user profile: ", err)
		return ""
	}
	return resp.Name
}
