// Package cart presents the authenticated user's cart as a deduplicated,
// priced list and carries the coupon state. Mutations are optimistic: local
// state changes first, the backend is reconciled after, and the
// reconciliation policy on failure is explicit.
package cart

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

// API is the slice of the commerce client the aggregator needs.
type API interface {
	GetCart(ctx context.Context, userID string) ([]models.CartLine, error)
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) error
	DeleteCartItem(ctx context.Context, userID, productID string) error
	VerifyCoupon(ctx context.Context, code string) (models.CouponVerifyResponse, error)
}

// ReconcilePolicy decides what happens to the optimistic local change when
// the backend rejects the matching update.
type ReconcilePolicy int

const (
	// ReconcileKeepLocal keeps the optimistic change and only reports the
	// failure. This is the behavior of the original storefront.
	ReconcileKeepLocal ReconcilePolicy = iota
	// ReconcileRollback restores the pre-change state on failure.
	ReconcileRollback
)

// Aggregator holds one user's resolved cart and discount state.
type Aggregator struct {
	api      API
	policy   ReconcilePolicy
	bulkhead *patterns.Bulkhead
	userID   string

	mu       sync.Mutex
	items    []models.ResolvedItem
	discount models.Discount
}

// New creates an aggregator for one user. The bulkhead caps the
// product-detail fan-out during resolution.
func New(api API, userID string, policy ReconcilePolicy) *Aggregator {
	return &Aggregator{
		api:      api,
		policy:   policy,
		bulkhead: patterns.NewBulkhead(10, "product-resolve", "storefront"),
		userID:   userID,
	}
}

// Load fetches the raw cart lines and resolves each unique product to full
// detail. Product fetches run in parallel with no ordering guarantee among
// them; the join waits for all and drops any that failed. Row order is
// unique-id discovery order.
func (a *Aggregator) Load(ctx context.Context) ([]models.ResolvedItem, error) {
	start := time.Now()
	defer func() {
		metrics.CartResolutionDuration.Observe(time.Since(start).Seconds())
	}()

	lines, err := a.api.GetCart(ctx, a.userID)
	if err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}

	// bound the whole fan-out, not just each fetch
	resolveCtx, cancel := patterns.WithTimeout(ctx, patterns.SlowBackendTimeout)
	defer cancel()

	// first line per product wins for quantity and line id, matching the
	// backend's assignment of the summed quantity to the first entry
	uniqueIDs := make([]string, 0, len(lines))
	firstLine := make(map[string]models.CartLine, len(lines))
	for _, line := range lines {
		if _, seen := firstLine[line.ProductID]; !seen {
			uniqueIDs = append(uniqueIDs, line.ProductID)
			firstLine[line.ProductID] = line
		}
	}

	resolved := make([]*models.ResolvedItem, len(uniqueIDs))
	var wg sync.WaitGroup
	for i, productID := range uniqueIDs {
		wg.Add(1)
		go func(slot int, id string) {
			defer wg.Done()
			err := a.bulkhead.Execute(func() error {
				product, err := a.api.GetProduct(resolveCtx, id)
				if err != nil {
					return err
				}
				line := firstLine[id]
				resolved[slot] = &models.ResolvedItem{
					Product:  product,
					Quantity: line.ProductQty,
					LineID:   line.LineID,
				}
				return nil
			})
			if err != nil {
				metrics.ProductResolutionFailures.Inc()
				log.WithFields(log.Fields{
					"user_id":    a.userID,
					"product_id": id,
				}).Warn("Dropping unresolvable cart line: ", err)
			}
		}(i, productID)
	}
	wg.Wait()

	items := make([]models.ResolvedItem, 0, len(resolved))
	for _, item := range resolved {
		if item != nil {
			items = append(items, *item)
		}
	}

	a.mu.Lock()
	a.items = items
	a.mu.Unlock()
	return items, nil
}

// ChangeQuantity applies a signed delta to one line. A result below 1 is a
// no-op with no network call. Otherwise the local quantity changes first
// and the backend update follows; on failure the configured policy decides
// whether the local change survives, and the error is always returned.
func (a *Aggregator) ChangeQuantity(ctx context.Context, lineID string, delta int) error {
	a.mu.Lock()
	idx := a.indexOfLocked(lineID)
	if idx < 0 {
		a.mu.Unlock()
		return fmt.Errorf("no cart line %s", lineID)
	}
	previous := a.items[idx].Quantity
	next := previous + delta
	if next < 1 {
		a.mu.Unlock()
		return nil
	}
	a.items[idx].Quantity = next
	productID := a.items[idx].ProductID
	a.mu.Unlock()

	if err := a.api.UpdateQuantity(ctx, a.userID, productID, next); err != nil {
		log.WithFields(log.Fields{
			"user_id":    a.userID,
			"product_id": productID,
		}).Error("Failed to update quantity: ", err)

		if a.policy == ReconcileRollback {
			a.mu.Lock()
			if idx := a.indexOfLocked(lineID); idx >= 0 {
				a.items[idx].Quantity = previous
			}
			a.mu.Unlock()
		}
		return fmt.Errorf("update quantity: %w", err)
	}
	return nil
}

// RemoveItem drops a line locally, then deletes it on the backend under the
// same reconciliation policy.
func (a *Aggregator) RemoveItem(ctx context.Context, lineID string) error {
	a.mu.Lock()
	idx := a.indexOfLocked(lineID)
	if idx < 0 {
		a.mu.Unlock()
		return fmt.Errorf("no cart line %s", lineID)
	}
	removed := a.items[idx]
	a.items = append(a.items[:idx], a.items[idx+1:]...)
	a.mu.Unlock()

	if err := a.api.DeleteCartItem(ctx, a.userID, removed.ProductID); err != nil {
		log.WithFields(log.Fields{
			"user_id":    a.userID,
			"product_id": removed.ProductID,
		}).Error("Failed to remove item: ", err)

		if a.policy == ReconcileRollback {
			a.mu.Lock()
			if idx > len(a.items) {
				idx = len(a.items)
			}
			a.items = append(a.items[:idx], append([]models.ResolvedItem{removed}, a.items[idx:]...)...)
			a.mu.Unlock()
		}
		return fmt.Errorf("remove item: %w", err)
	}
	return nil
}

// RedeemVoucher verifies a code and replaces the active discount outright.
// An invalid code or a transport failure resets the discount to zero.
func (a *Aggregator) RedeemVoucher(ctx context.Context, code string) models.Discount {
	resp, err := a.api.VerifyCoupon(ctx, code)

	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case err != nil:
		log.WithField("code", code).Error("Error verifying coupon: ", err)
		metrics.CouponsRedeemed.WithLabelValues("error").Inc()
		a.discount = models.Discount{Message: "Error verifying coupon"}
	case resp.Message == models.MsgInvalidCoupon:
		metrics.CouponsRedeemed.WithLabelValues("invalid").Inc()
		a.discount = models.Discount{Message: models.MsgInvalidCoupon}
	case resp.DiscountPercentage > 0:
		metrics.CouponsRedeemed.WithLabelValues("applied").Inc()
		a.discount = models.Discount{
			Code:       code,
			Percentage: resp.DiscountPercentage,
			Message:    fmt.Sprintf("%g%% discount applied!", resp.DiscountPercentage),
		}
	}
	return a.discount
}

// Discount returns the active discount state.
func (a *Aggregator) Discount() models.Discount {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.discount
}

// Items returns a copy of the resolved cart rows.
func (a *Aggregator) Items() []models.ResolvedItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.ResolvedItem, len(a.items))
	copy(out, a.items)
	return out
}

// Summary is the priced view of the cart: subtotal, discount, fixed-zero
// shipping and the final total, all as 2-decimal strings.
type Summary struct {
	Subtotal       string  `json:"subtotal"`
	DiscountPct    float64 `json:"discountPercentage"`
	DiscountAmount string  `json:"discountAmount"`
	Shipping       string  `json:"shipping"`
	Total          string  `json:"total"`
}

// Summarize computes the current cart summary. It prices a deep copy of the
// rows so a concurrent quantity change on the same session cannot race the
// reads.
func (a *Aggregator) Summarize() Summary {
	items := a.Items()
	pct := a.Discount().Percentage

	subtotal := pricing.Subtotal(items)
	total := pricing.ApplyDiscount(subtotal, pct)
	return Summary{
		Subtotal:       pricing.FormatAmount(subtotal),
		DiscountPct:    pct,
		DiscountAmount: pricing.FormatAmount(subtotal.Sub(total)),
		Shipping:       "0.00",
		Total:          pricing.FormatAmount(total),
	}
}

// Total returns the discounted total as a 2-decimal string.
func (a *Aggregator) Total() string {
	return a.Summarize().Total
}

func (a *Aggregator) indexOfLocked(lineID string) int {
	for i, item := range a.items {
		if item.LineID == lineID {
			return i
		}
	}
	return -1
}
