package models

// AdminLoginRequest authenticates a seller against the backend.
type AdminLoginRequest struct {
	SellerID     string `json:"sellerId" binding:"required"`
	EmailOrPhone string `json:"emailOrPhone" binding:"required"`
	Password     string `json:"password" binding:"required"`
}

// AdminLoginResponse echoes the seller id on a successful login.
type AdminLoginResponse struct {
	Message  string `json:"message"`
	SellerID string `json:"sellerId,omitempty"`
}

// MsgLoginSuccessful is the backend's literal seller login confirmation.
const MsgLoginSuccessful = "Login successful"

// SellerSignupRequest registers a new seller account.
type SellerSignupRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	EmailID     string `json:"emailId" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// SendOTPRequest asks the backend to mail a one-time code.
type SendOTPRequest struct {
	EmailID string `json:"emailId" binding:"required"`
}

// VerifyOTPRequest confirms the mailed one-time code.
type VerifyOTPRequest struct {
	OTP     string `json:"otp" binding:"required"`
	EmailID string `json:"emailId" binding:"required"`
}

// MsgOTPVerified is the backend's literal OTP confirmation.
const MsgOTPVerified = "OTP verified successfully"

// VerifySellerResponse gates every admin panel request. Any value other
// than SellerLoggedIn means the session is not valid.
type VerifySellerResponse struct {
	LoggedIn string `json:"loggedIn"`
}

// SellerLoggedIn is the verify-seller value for an authenticated session.
const SellerLoggedIn = "loggedin"

// Coupon is a redeemable percentage discount managed by sellers.
type Coupon struct {
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// CouponsResponse is the envelope for the coupon listing call.
type CouponsResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Coupons []Coupon `json:"coupons"`
}

// UserResponse carries the display name for a logged-in shopper.
type UserResponse struct {
	Name string `json:"name"`
}
