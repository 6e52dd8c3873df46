// Package catalog is the read-only listing side of the storefront: the
// shop grid, category filters and product detail, plus the add-to-cart
// pass-through. No invariants beyond hiding unlistable products.
package catalog

import (
	"context"
	"fmt"

	"github.com/giftbloom/storefront/internal/models"
)

// API is the slice of the commerce client the catalog needs.
type API interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]models.Product, error)
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	AddToCart(ctx context.Context, userID, productID string, qty int) error
}

// Service wraps catalog reads.
type Service struct {
	api API
}

// NewService creates a catalog service.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Visible filters out products missing required display fields or switched
// off by the seller.
func Visible(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Listable() {
			out = append(out, p)
		}
	}
	return out
}

// FilterByCategory keeps products in the given category.
func FilterByCategory(products []models.Product, category string) []models.Product {
	if category == "" || category == "all" {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// BestSellers returns the first n visible products, the same slice the
// original shop page promoted.
func BestSellers(products []models.Product, n int) []models.Product {
	if n > len(products) {
		n = len(products)
	}
	return products[:n]
}

// List fetches the catalog and hides unlistable products.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return Visible(products), nil
}

// ByCategory fetches one category, server-side filtered.
func (s *Service) ByCategory(ctx context.Context, category string) ([]models.Product, error) {
	products, err := s.api.ProductsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return Visible(products), nil
}

// Detail fetches one product.
func (s *Service) Detail(ctx context.Context, productID string) (models.Product, error) {
	return s.api.GetProduct(ctx, productID)
}

// AddToCart validates the quantity and forwards to the backend.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("invalid quantity %d", qty)
	}
	return s.api.AddToCart(ctx, userID, productID, qty)
}
