// Package orders renders a shopper's past orders, resolving each order's
// product ids to display detail the same way the cart does: parallel
// fetches, failures dropped.
package orders

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/giftbloom/storefront/internal/models"
)

// API is the slice of the commerce client order history needs.
type API interface {
	FindMyOrders(ctx context.Context, userID string) ([]models.Order, error)
	GetProduct(ctx context.Context, productID string) (models.Product, error)
}

// View is one order with its products resolved for display.
type View struct {
	models.Order
	Products []models.Product `json:"products"`
}

// Service wraps order-history reads.
type Service struct {
	api API
}

// NewService creates an order-history service.
func NewService(api API) *Service {
	return &Service{api: api}
}

// History fetches the user's orders and resolves their products.
func (s *Service) History(ctx context.Context, userID string) ([]View, error) {
	if userID == "" {
		return nil, fmt.Errorf("please login to view orders")
	}

	orders, err := s.api.FindMyOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]View, len(orders))
	for i, order := range orders {
		views[i] = View{Order: order, Products: s.resolve(ctx, order.ProductIDs)}
	}
	return views, nil
}

func (s *Service) resolve(ctx context.Context, productIDs []string) []models.Product {
	resolved := make([]*models.Product, len(productIDs))
	var wg sync.WaitGroup
	for i, id := range productIDs {
		wg.Add(1)
		go func(slot int, productID string) {
			defer wg.Done()
			product, err := s.api.GetProduct(ctx, productID)
			if err != nil {
				log.WithField("product_id", productID).Warn("Skipping unresolvable ordered product: ", err)
				return
			}
			resolved[slot] = &product
		}(i, id)
	}
	wg.Wait()

	out := make([]models.Product, 0, len(resolved))
	for _, p := range resolved {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
