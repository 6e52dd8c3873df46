// Package seller backs the admin portal: seller auth flows, the per-request
// verify gate, and coupon/product management against the commerce backend.
package seller

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/giftbloom/storefront/internal/metrics"
	"github.com/giftbloom/storefront/internal/models"
)

// API is the slice of the commerce client the seller portal needs.
type API interface {
	AdminLogin(ctx context.Context, req models.AdminLoginRequest) (models.AdminLoginResponse, error)
	SellerSignup(ctx context.Context, req models.SellerSignupRequest) error
	SendOTP(ctx context.Context, emailID string) error
	VerifyOTP(ctx context.Context, emailID, otp string) (models.StatusResponse, error)
	VerifySeller(ctx context.Context, sellerID string) (bool, error)
	GetCoupons(ctx context.Context) ([]models.Coupon, error)
	SaveCoupon(ctx context.Context, coupon models.Coupon) error
	DeleteCoupon(ctx context.Context, coupon models.Coupon) error
	ListProducts(ctx context.Context) ([]models.Product, error)
	AddProduct(ctx context.Context, p models.NewProduct) error
	DeleteProduct(ctx context.Context, productID string) error
	UpdateStock(ctx context.Context, update models.StockUpdate) error
}

// Service wraps seller operations.
type Service struct {
	api API

	mu      sync.Mutex
	lastOTP map[string]time.Time
	now     func() time.Time
}

// NewService creates a seller service.
func NewService(api API) *Service {
	return &Service{
		api:     api,
		lastOTP: make(map[string]time.Time),
		now:     time.Now,
	}
}

// otpResendCooldown matches the resend timer shown on the signup form.
const otpResendCooldown = 30 * time.Second

const couponCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// couponCodeLen matches the 8-character codes the admin panel generated.
const couponCodeLen = 8

// GenerateCouponCode returns a random 8-character A-Z0-9 code.
func GenerateCouponCode() string {
	var b strings.Builder
	for i := 0; i < couponCodeLen; i++ {
		b.WriteByte(couponCodeChars[rand.Intn(len(couponCodeChars))])
	}
	return b.String()
}

// Login authenticates a seller. The backend's literal message decides
// success; anything else is surfaced verbatim.
func (s *Service) Login(ctx context.Context, req models.AdminLoginRequest) (string, error) {
	resp, err := s.api.AdminLogin(ctx, req)
	if err != nil {
		return "", err
	}
	if resp.Message != models.MsgLoginSuccessful {
		if resp.Message == "" {
			resp.Message = "Login failed. Please try again."
		}
		return "", fmt.Errorf("%s", resp.Message)
	}
	return resp.SellerID, nil
}

// Signup registers a seller and triggers the first OTP mail.
func (s *Service) Signup(ctx context.Context, req models.SellerSignupRequest) error {
	if err := s.api.SellerSignup(ctx, req); err != nil {
		return err
	}
	if err := s.api.SendOTP(ctx, req.EmailID); err != nil {
		return err
	}
	s.markOTPSent(req.EmailID)
	return nil
}

// ResendOTP re-sends the one-time code, at most once per cooldown window.
func (s *Service) ResendOTP(ctx context.Context, emailID string) error {
	s.mu.Lock()
	if last, ok := s.lastOTP[emailID]; ok {
		if wait := otpResendCooldown - s.now().Sub(last); wait > 0 {
			s.mu.Unlock()
			return fmt.Errorf("please wait %d seconds before requesting another OTP", int(wait.Seconds())+1)
		}
	}
	s.mu.Unlock()

	if err := s.api.SendOTP(ctx, emailID); err != nil {
		return err
	}
	s.markOTPSent(emailID)
	return nil
}

func (s *Service) markOTPSent(emailID string) {
	s.mu.Lock()
	s.lastOTP[emailID] = s.now()
	s.mu.Unlock()
}

// VerifyOTP confirms the mailed code against its literal success message.
func (s *Service) VerifyOTP(ctx context.Context, emailID, otp string) error {
	resp, err := s.api.VerifyOTP(ctx, emailID, otp)
	if err != nil {
		return err
	}
	if resp.Message != models.MsgOTPVerified {
		if resp.Message == "" {
			resp.Message = "Invalid OTP. Please try again."
		}
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

// Coupons lists all coupons.
func (s *Service) Coupons(ctx context.Context) ([]models.Coupon, error) {
	return s.api.GetCoupons(ctx)
}

// CreateCoupon validates and saves a coupon. An empty code gets a generated
// one.
func (s *Service) CreateCoupon(ctx context.Context, coupon models.Coupon) (models.Coupon, error) {
	if coupon.Code == "" {
		coupon.Code = GenerateCouponCode()
	}
	if coupon.DiscountPercentage <= 0 || coupon.DiscountPercentage > 100 {
		return models.Coupon{}, fmt.Errorf("discount percentage must be in (0,100]")
	}
	if err := s.api.SaveCoupon(ctx, coupon); err != nil {
		return models.Coupon{}, err
	}
	return coupon, nil
}

// DeleteCoupon removes a coupon.
func (s *Service) DeleteCoupon(ctx context.Context, coupon models.Coupon) error {
	return s.api.DeleteCoupon(ctx, coupon)
}

// Products lists the catalog unfiltered; sellers see hidden products too.
func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	return s.api.ListProducts(ctx)
}

// AddProduct uploads a new product.
func (s *Service) AddProduct(ctx context.Context, p models.NewProduct) error {
	return s.api.AddProduct(ctx, p)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	return s.api.DeleteProduct(ctx, productID)
}

// UpdateStock edits listing fields and stock counters.
func (s *Service) UpdateStock(ctx context.Context, update models.StockUpdate) error {
	return s.api.UpdateStock(ctx, update)
}

// VerifyMiddleware gates admin routes on the backend's verify-seller call.
// Every request re-checks; there is no local admin session cache.
func (s *Service) VerifyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sellerID := c.Param("sellerId")
		ok, err := s.api.VerifySeller(c.Request.Context(), sellerID)
		if err != nil {
			metrics.SellerVerifications.WithLabelValues("error").Inc()
			log.WithField("seller_id", sellerID).Error("Error verifying seller: ", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Unable to verify seller"})
			return
		}
		if !ok {
			metrics.SellerVerifications.WithLabelValues("denied").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Seller session expired"})
			return
		}
		metrics.SellerVerifications.WithLabelValues("ok").Inc()
		c.Next()
	}
}
