package commerce

import (
	"context"
	"fmt"
	"net/http"

	"github.com/giftbloom/storefront/internal/models"
)

// AdminLogin authenticates a seller. The backend reports bad credentials
// with a non-2xx status plus a message, so the call is lenient and the
// message literal decides the outcome.
func (c *Client) AdminLogin(ctx context.Context, req models.AdminLoginRequest) (models.AdminLoginResponse, error) {
	var resp models.AdminLoginResponse
	err := c.call(ctx, c.sellerCircuit, http.MethodPost, "/admin/login", req, &resp, false)
	return resp, err
}

// SellerSignup registers a new seller account.
func (c *Client) SellerSignup(ctx context.Context, req models.SellerSignupRequest) error {
	var resp models.StatusResponse
	if err := c.call(ctx, c.sellerCircuit, http.MethodPost, "/seller/signup", req, &resp, true); err != nil {
		return err
	}
	return nil
}

// SendOTP asks the backend to mail a one-time code to the seller.
func (c *Client) SendOTP(ctx context.Context, emailID string) error {
	return c.call(ctx, c.sellerCircuit, http.MethodPost, "/seller/send-otp",
		models.SendOTPRequest{EmailID: emailID}, nil, true)
}

// VerifyOTP confirms the mailed one-time code.
func (c *Client) VerifyOTP(ctx context.Context, emailID, otp string) (models.StatusResponse, error) {
	var resp models.StatusResponse
	err := c.call(ctx, c.sellerCircuit, http.MethodPost, "/seller/verify-otp",
		models.VerifyOTPRequest{OTP: otp, EmailID: emailID}, &resp, false)
	return resp, err
}

// VerifySeller checks whether a seller session is still valid. Every admin
// panel request goes through this gate.
func (c *Client) VerifySeller(ctx context.Context, sellerID string) (bool, error) {
	var resp models.VerifySellerResponse
	err := c.call(ctx, c.sellerCircuit, http.MethodPost, "/admin/verify-seller",
		map[string]string{"sellerId": sellerID}, &resp, true)
	if err != nil {
		return false, err
	}
	return resp.LoggedIn == models.SellerLoggedIn, nil
}

// GetCoupons lists all coupons.
func (c *Client) GetCoupons(ctx context.Context) ([]models.Coupon, error) {
	var resp models.CouponsResponse
	err := c.call(ctx, c.couponCircuit, http.MethodGet, "/coupon/get-coupon", nil, &resp, true)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("failed to fetch coupons: %s", resp.Message)
	}
	return resp.Coupons, nil
}

// SaveCoupon creates a coupon.
func (c *Client) SaveCoupon(ctx context.Context, coupon models.Coupon) error {
	return c.call(ctx, c.couponCircuit, http.MethodPost, "/coupon/save-coupon", coupon, nil, true)
}

// DeleteCoupon removes a coupon.
func (c *Client) DeleteCoupon(ctx context.Context, coupon models.Coupon) error {
	return c.call(ctx, c.couponCircuit, http.MethodDelete, "/coupon/delete-coupon", coupon, nil, true)
}

// AddProduct uploads a new product as a multipart form, matching the
// backend's upload endpoint.
func (c *Client) AddProduct(ctx context.Context, p models.NewProduct) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"name":           p.Name,
			"price":          p.Price,
			"category":       p.Category,
			"description":    p.Description,
			"rating":         p.Rating,
			"inStockValue":   p.InStockValue,
			"soldStockValue": p.SoldStockValue,
			"visibility":     p.Visibility,
		}).
		Post(c.baseURL + "/upload/addproduct")
	if err != nil {
		return fmt.Errorf("HTTP error: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("commerce backend returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// DeleteProduct removes a product from the catalog.
func (c *Client) DeleteProduct(ctx context.Context, productID string) error {
	var resp models.StatusResponse
	err := c.call(ctx, c.catalogCircuit, http.MethodPost, "/upload/deleteProduct",
		map[string]string{"productId": productID}, &resp, true)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("failed to delete product: %s", resp.Message)
	}
	return nil
}

// UpdateStock edits a product's listing fields and stock counters in place.
func (c *Client) UpdateStock(ctx context.Context, update models.StockUpdate) error {
	return c.call(ctx, c.catalogCircuit, http.MethodPut, "/instock-update", update, nil, true)
}
