// Package checkout collects the shipping address, re-presents the cart and
// the total carried over from the cart view, and submits the order. Cart
// resolution here is an independent fetch; there is no shared cache with
// the cart aggregator.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/giftbloom/storefront/internal/metrics"
	"github.com/giftbloom/storefront/internal/models"
	"github.com/giftbloom/storefront/internal/patterns"
	"github.com/giftbloom/storefront/internal/pricing"
)

// API is the slice of the commerce client checkout needs.
type API interface {
	GetCart(ctx context.Context, userID string) ([]models.CartLine, error)
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	PlaceOrder(ctx context.Context, order models.PlaceOrderRequest) (models.PlaceOrderResponse, error)
	UpdateAddress(ctx context.Context, userID, flatAddress string) error
}

// AddressStore is the durable client storage behind the address form.
type AddressStore interface {
	Load(key string) (addr models.Address, saved bool, preference bool)
	SaveAddress(key string, addr models.Address) error
	SetPreference(key string, on bool) error
}

// Confirmation is the outcome of a successful order placement. Celebrate
// drives the success panel and confetti; RedirectAfter is the fixed delay
// before returning to the cart view.
type Confirmation struct {
	Celebrate     bool          `json:"celebrate"`
	Message       string        `json:"message"`
	RedirectTo    string        `json:"redirectTo"`
	RedirectAfter time.Duration `json:"redirectAfterMs"`
}

// redirectDelay matches the original success panel's 5 second pause.
const redirectDelay = 5 * time.Second

// Orchestrator drives one user's checkout.
type Orchestrator struct {
	api      API
	store    AddressStore
	storeKey string
	userID   string
	now      func() time.Time

	mu          sync.Mutex
	address     models.Address
	saveAddress bool
	items       []models.ResolvedItem
}

// New creates an orchestrator. storeKey scopes the saved address to the
// session.
func New(api API, store AddressStore, storeKey, userID string) *Orchestrator {
	return &Orchestrator{
		api:      api,
		store:    store,
		storeKey: storeKey,
		userID:   userID,
		now:      time.Now,
	}
}

// Begin loads the saved address and preference, then independently
// re-fetches the cart grouped by product id (summing duplicate quantities)
// and resolves product details.
func (o *Orchestrator) Begin(ctx context.Context) ([]models.ResolvedItem, error) {
	addr, saved, pref := o.store.Load(o.storeKey)
	o.mu.Lock()
	if saved {
		o.address = addr
	}
	o.saveAddress = pref
	o.mu.Unlock()

	lines, err := o.api.GetCart(ctx, o.userID)
	if err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}

	// checkout sums duplicate lines rather than taking the first
	order := make([]string, 0, len(lines))
	qty := make(map[string]int, len(lines))
	for _, line := range lines {
		if _, seen := qty[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		qty[line.ProductID] += line.ProductQty
	}

	resolved := make([]*models.ResolvedItem, len(order))
	var wg sync.WaitGroup
	for i, productID := range order {
		wg.Add(1)
		go func(slot int, id string) {
			defer wg.Done()
			product, err := o.api.GetProduct(ctx, id)
			if err != nil {
				metrics.ProductResolutionFailures.Inc()
				log.WithFields(log.Fields{
					"user_id":    o.userID,
					"product_id": id,
				}).Warn("Dropping unresolvable checkout line: ", err)
				return
			}
			resolved[slot] = &models.ResolvedItem{Product: product, Quantity: qty[id]}
		}(i, productID)
	}
	wg.Wait()

	items := make([]models.ResolvedItem, 0, len(resolved))
	for _, item := range resolved {
		if item != nil {
			items = append(items, *item)
		}
	}

	o.mu.Lock()
	o.items = items
	o.mu.Unlock()
	return items, nil
}

// SetField updates one address field by form name. While saving is enabled
// the full address is written through to the store on every edit.
func (o *Orchestrator) SetField(name, value string) error {
	o.mu.Lock()
	switch name {
	case "street":
		o.address.Street = value
	case "city":
		o.address.City = value
	case "state":
		o.address.State = value
	case "pincode":
		o.address.Pincode = value
	case "phone":
		o.address.Phone = value
	default:
		o.mu.Unlock()
		return fmt.Errorf("unknown address field %q", name)
	}
	save := o.saveAddress
	snapshot := o.address
	o.mu.Unlock()

	if save {
		if err := o.store.SaveAddress(o.storeKey, snapshot); err != nil {
			return fmt.Errorf("persist address: %w", err)
		}
	}
	return nil
}

// SetSaveAddress flips the remember-address preference. Enabling snapshots
// the current address; disabling deletes the stored one.
func (o *Orchestrator) SetSaveAddress(on bool) error {
	o.mu.Lock()
	o.saveAddress = on
	snapshot := o.address
	o.mu.Unlock()

	if err := o.store.SetPreference(o.storeKey, on); err != nil {
		return fmt.Errorf("persist preference: %w", err)
	}
	if on {
		if err := o.store.SaveAddress(o.storeKey, snapshot); err != nil {
			return fmt.Errorf("persist address: %w", err)
		}
	}
	return nil
}

// Address returns the current in-memory address and preference.
func (o *Orchestrator) Address() (models.Address, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.address, o.saveAddress
}

// AddressValid gates the place-order action: every field must be non-blank.
func (o *Orchestrator) AddressValid() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.address.Valid()
}

// Items returns the resolved checkout lines.
func (o *Orchestrator) Items() []models.ResolvedItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.ResolvedItem, len(o.items))
	copy(out, o.items)
	return out
}

// Subtotal is the checkout-side subtotal as a 2-decimal string.
func (o *Orchestrator) Subtotal() string {
	return pricing.FormatAmount(pricing.Subtotal(o.Items()))
}

// PlaceOrder submits the order with the externally-passed total. If the
// remember-address preference is on, the flattened address is pushed to the
// profile first, best-effort. There is no dedup token: submitting twice
// creates two orders.
func (o *Orchestrator) PlaceOrder(ctx context.Context, total float64) (Confirmation, error) {
	o.mu.Lock()
	addr := o.address
	save := o.saveAddress
	items := o.items
	o.mu.Unlock()

	if !addr.Valid() {
		metrics.OrdersPlaced.WithLabelValues("invalid_address").Inc()
		return Confirmation{}, fmt.Errorf("shipping address is incomplete")
	}

	if save {
		// best-effort, so it gets the short timeout
		pushCtx, cancel := patterns.WithTimeout(ctx, patterns.DefaultTimeout)
		if err := o.api.UpdateAddress(pushCtx, o.userID, addr.Flatten()); err != nil {
			log.WithField("user_id", o.userID).Error("Error saving address: ", err)
		}
		cancel()
	}

	now := o.now()
	payload := models.PlaceOrderRequest{
		UserID:          o.userID,
		Date:            now.Format("02/01/2006"),
		Time:            now.Format("15:04:05"),
		Address:         addr.Flatten(),
		Price:           total,
		ProductsOrdered: make([]models.OrderedProduct, 0, len(items)),
	}
	for _, item := range items {
		payload.ProductsOrdered = append(payload.ProductsOrdered, models.OrderedProduct{
			ProductID:  item.ProductID,
			ProductQty: item.Quantity,
		})
	}

	resp, err := o.api.PlaceOrder(ctx, payload)
	if err != nil {
		metrics.OrdersPlaced.WithLabelValues("failed").Inc()
		log.WithField("user_id", o.userID).Error("Error placing order: ", err)
		return Confirmation{}, fmt.Errorf("place order: %w", err)
	}
	if resp.Message != models.MsgOrderPlaced {
		metrics.OrdersPlaced.WithLabelValues("rejected").Inc()
		log.WithFields(log.Fields{
			"user_id": o.userID,
			"message": resp.Message,
		}).Error("Order not confirmed by backend")
		return Confirmation{}, fmt.Errorf("order not confirmed: %s", resp.Message)
	}

	metrics.OrdersPlaced.WithLabelValues("placed").Inc()
	log.WithFields(log.Fields{
		"user_id": o.userID,
		"total":   total,
		"items":   len(payload.ProductsOrdered),
	}).Info("Order placed")

	return Confirmation{
		Celebrate:     true,
		Message:       resp.Message,
		RedirectTo:    "/cart",
		RedirectAfter: redirectDelay,
	}, nil
}
