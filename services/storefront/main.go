package main

import (
	"net/http"
	"os"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/giftbloom/storefront/internal/cart"
	"github.com/giftbloom/storefront/internal/catalog"
	"github.com/giftbloom/storefront/internal/checkout"
	"github.com/giftbloom/storefront/internal/commerce"
	"github.com/giftbloom/storefront/internal/metrics"
	"github.com/giftbloom/storefront/internal/orders"
	"github.com/giftbloom/storefront/internal/session"
	"github.com/giftbloom/storefront/internal/storage"
)

// Storefront wires the user-facing gateway: session identity, catalog,
// cart, checkout and order history, all backed by the remote commerce API.
type Storefront struct {
	api      *commerce.Client
	sessions *session.Store
	catalog  *catalog.Service
	orders   *orders.Service
	store    *storage.AddressStore

	mutex     sync.Mutex
	carts     map[string]*cart.Aggregator
	checkouts map[string]*checkout.Orchestrator
}

var storefront *Storefront

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
	addr := getEnv("STOREFRONT_ADDR", ":8080")
	stateDir := getEnv("STATE_DIR", "./state")

	addressStore, err := storage.NewAddressStore(stateDir)
	if err != nil {
		log.Fatal("Failed to open state dir: ", err)
	}

	api := commerce.New(backendURL, "storefront")
	storefront = &Storefront{
		api:       api,
		sessions:  session.NewStore(),
		catalog:   catalog.NewService(api),
		orders:    orders.NewService(api),
		store:     addressStore,
		carts:     make(map[string]*cart.Aggregator),
		checkouts: make(map[string]*checkout.Orchestrator),
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: false,
	}))
	router.Use(metrics.PrometheusMiddleware("storefront"))
	router.Use(storefront.sessions.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/circuit-status", func(c *gin.Context) {
		c.JSON(http.StatusOK, storefront.api.CircuitStates())
	})

	router.POST("/session/login", login)
	router.POST("/session/logout", logout)

	router.GET("/catalog", listCatalog)
	router.GET("/catalog/:category", listCategory)
	router.GET("/product/:productId", productDetail)

	authed := router.Group("/", session.RequireLogin())
	authed.GET("/me", whoami)
	authed.POST("/cart/items", addToCart)
	authed.GET("/cart", getCart)
	authed.PATCH("/cart/items/:lineId", changeQuantity)
	authed.DELETE("/cart/items/:lineId", removeItem)
	authed.POST("/cart/voucher", redeemVoucher)
	authed.GET("/checkout", beginCheckout)
	authed.PUT("/checkout/address", editAddress)
	authed.POST("/checkout/save-address", toggleSaveAddress)
	authed.POST("/checkout/place-order", placeOrder)
	authed.GET("/orders", orderHistory)

	log.WithFields(log.Fields{
		"backend": backendURL,
		"addr":    addr,
	}).Info("Storefront gateway starting")

	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// cartFor returns the session's cart aggregator, creating it on first use.
func (s *Storefront) cartFor(id session.Identity) *cart.Aggregator {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if agg, ok := s.carts[id.SessionID]; ok {
		return agg
	}
	agg := cart.New(s.api, id.UserID, cart.ReconcileKeepLocal)
	s.carts[id.SessionID] = agg
	return agg
}

// checkoutFor returns the session's checkout orchestrator. Checkout state
// is deliberately independent of the cart aggregator.
func (s *Storefront) checkoutFor(id session.Identity) *checkout.Orchestrator {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if o, ok := s.checkouts[id.SessionID]; ok {
		return o
	}
	o := checkout.New(s.api, s.store, id.SessionID, id.UserID)
	s.checkouts[id.SessionID] = o
	return o
}

func (s *Storefront) drop(sessionID string) {
	s.mutex.Lock()
	delete(s.carts, sessionID)
	delete(s.checkouts, sessionID)
	s.mutex.Unlock()
}

func login(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	id := storefront.sessions.Login(req.UserID)
	c.SetCookie(session.CookieName, id.SessionID, 0, "/", "", false, true)

	name := storefront.api.GetUser(c.Request.Context(), req.UserID)
	log.WithField("user_id", req.UserID).Info("Session started")
	c.JSON(http.StatusOK, gin.H{"userId": req.UserID, "name": name})
}

func logout(c *gin.Context) {
	id := session.FromContext(c)
	if id.SessionID != "" {
		storefront.sessions.Logout(id.SessionID)
		storefront.drop(id.SessionID)
	}
	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func whoami(c *gin.Context) {
	id := session.FromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"userId": id.UserID,
		"name":   storefront.api.GetUser(c.Request.Context(), id.UserID),
	})
}

func listCatalog(c *gin.Context) {
	products, err := storefront.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":    products,
		"bestSellers": catalog.BestSellers(products, 6),
	})
}

func listCategory(c *gin.Context) {
	products, err := storefront.catalog.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func productDetail(c *gin.Context) {
	product, err := storefront.catalog.Detail(c.Request.Context(), c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func addToCart(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
		return
	}

	id := session.FromContext(c)
	if err := storefront.catalog.AddToCart(c.Request.Context(), id.UserID, req.ProductID, req.Quantity); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to cart"})
}

func getCart(c *gin.Context) {
	agg := storefront.cartFor(session.FromContext(c))
	items, err := agg.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"discount": agg.Discount(),
		"summary":  agg.Summarize(),
	})
}

func changeQuantity(c *gin.Context) {
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	agg := storefront.cartFor(session.FromContext(c))
	if err := agg.ChangeQuantity(c.Request.Context(), c.Param("lineId"), req.Delta); err != nil {
		// the optimistic state already changed; report the divergence
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "items": agg.Items()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": agg.Items(), "summary": agg.Summarize()})
}

func removeItem(c *gin.Context) {
	agg := storefront.cartFor(session.FromContext(c))
	if err := agg.RemoveItem(c.Request.Context(), c.Param("lineId")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "items": agg.Items()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": agg.Items(), "summary": agg.Summarize()})
}

func redeemVoucher(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	agg := storefront.cartFor(session.FromContext(c))
	discount := agg.RedeemVoucher(c.Request.Context(), req.Code)
	c.JSON(http.StatusOK, gin.H{"discount": discount, "summary": agg.Summarize()})
}

func beginCheckout(c *gin.Context) {
	o := storefront.checkoutFor(session.FromContext(c))
	items, err := o.Begin(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	addr, save := o.Address()
	c.JSON(http.StatusOK, gin.H{
		"items":        items,
		"subtotal":     o.Subtotal(),
		"address":      addr,
		"saveAddress":  save,
		"addressValid": o.AddressValid(),
	})
}

func editAddress(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	o := storefront.checkoutFor(session.FromContext(c))
	if err := o.SetField(req.Name, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"addressValid": o.AddressValid()})
}

func toggleSaveAddress(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	o := storefront.checkoutFor(session.FromContext(c))
	if err := o.SetSaveAddress(*req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saveAddress": *req.Enabled})
}

func placeOrder(c *gin.Context) {
	var req struct {
		// pointer so a legitimate 0.00 total (full discount) still binds
		Total *float64 `json:"total" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	o := storefront.checkoutFor(session.FromContext(c))
	conf, err := o.PlaceOrder(c.Request.Context(), *req.Total)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         conf.Message,
		"celebrate":       conf.Celebrate,
		"redirectTo":      conf.RedirectTo,
		"redirectAfterMs": conf.RedirectAfter.Milliseconds(),
	})
}

func orderHistory(c *gin.Context) {
	id := session.FromContext(c)
	views, err := storefront.orders.History(c.Request.Context(), id.UserID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
