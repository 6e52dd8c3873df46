package main

import (
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/giftbloom/storefront/internal/commerce"
	"github.com/giftbloom/storefront/internal/metrics"
	"github.com/giftbloom/storefront/internal/models"
	"github.com/giftbloom/storefront/internal/seller"
)

var portal *seller.Service

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment")
	}

	backendURL := getEnv("COMMERCE_API_URL", "https://e-commerce-backend-im60.onrender.com")
	addr := getEnv("SELLER_PORTAL_ADDR", ":8081")

	portal = seller.NewService(commerce.New(backendURL, "seller-portal"))

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))
	router.Use(metrics.PrometheusMiddleware("seller-portal"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/seller/login", sellerLogin)
	router.POST("/seller/signup", sellerSignup)
	router.POST("/seller/send-otp", resendOTP)
	router.POST("/seller/verify-otp", verifyOTP)

	admin := router.Group("/admin/:sellerId", portal.VerifyMiddleware())
	admin.GET("/products", listProducts)
	admin.POST("/products", addProduct)
	admin.DELETE("/products/:productId", deleteProduct)
	admin.PUT("/products/stock", updateStock)
	admin.GET("/coupons", listCoupons)
	admin.POST("/coupons", createCoupon)
	admin.DELETE("/coupons", deleteCoupon)

	log.WithFields(log.Fields{
		"backend": backendURL,
		"addr":    addr,
	}).Info("Seller portal starting")

	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func sellerLogin(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sellerID, err := portal.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": models.MsgLoginSuccessful, "sellerId": sellerID})
}

func sellerSignup(c *gin.Context) {
	var req models.SellerSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := portal.Signup(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signup accepted, OTP sent"})
}

func resendOTP(c *gin.Context) {
	var req models.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := portal.ResendOTP(c.Request.Context(), req.EmailID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send OTP. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

func verifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := portal.VerifyOTP(c.Request.Context(), req.EmailID, req.OTP); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": models.MsgOTPVerified})
}

func listProducts(c *gin.Context) {
	products, err := portal.Products(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func addProduct(c *gin.Context) {
	var req models.NewProduct
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := portal.AddProduct(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product added"})
}

func deleteProduct(c *gin.Context) {
	if err := portal.DeleteProduct(c.Request.Context(), c.Param("productId")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func updateStock(c *gin.Context) {
	var req models.StockUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := portal.UpdateStock(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated"})
}

func listCoupons(c *gin.Context) {
	coupons, err := portal.Coupons(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

func createCoupon(c *gin.Context) {
	var req models.Coupon
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	coupon, err := portal.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

func deleteCoupon(c *gin.Context) {
	var req models.Coupon
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := portal.DeleteCoupon(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Coupon deleted"})
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
