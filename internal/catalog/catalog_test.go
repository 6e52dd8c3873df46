package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftbloom/storefront/internal/models"
)

type stubAPI struct {
	products []models.Product
	addCalls int
}

func (s *stubAPI) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products, nil
}

func (s *stubAPI) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return FilterByCategory(s.products, category), nil
}

func (s *stubAPI) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	for _, p := range s.products {
		if p.ProductID == productID {
			return p, nil
		}
	}
	return models.Product{}, assert.AnError
}

func (s *stubAPI) AddToCart(ctx context.Context, userID, productID string, qty int) error {
	s.addCalls++
	return nil
}

func listable(id, category string) models.Product {
	return models.Product{
		ProductID:  id,
		Name:       "Gift " + id,
		Price:      "Rs. 100.00",
		Img:        "x.jpg",
		Category:   category,
		Visibility: "on",
	}
}

func TestVisibleDropsIncompleteAndHiddenProducts(t *testing.T) {
	hidden := listable("p2", "gifts")
	hidden.Visibility = "off"
	noPrice := listable("p3", "gifts")
	noPrice.Price = ""
	legacy := listable("p4", "gifts")
	legacy.Visibility = "true" // older records use the string "true"

	got := Visible([]models.Product{listable("p1", "gifts"), hidden, noPrice, legacy})
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ProductID)
	assert.Equal(t, "p4", got[1].ProductID)
}

func TestFilterByCategory(t *testing.T) {
	products := []models.Product{
		listable("p1", "gifts"),
		listable("p2", "stationery"),
		listable("p3", "gifts"),
	}

	assert.Len(t, FilterByCategory(products, "gifts"), 2)
	assert.Len(t, FilterByCategory(products, "all"), 3)
	assert.Len(t, FilterByCategory(products, ""), 3)
	assert.Empty(t, FilterByCategory(products, "toys"))
}

func TestBestSellersClampsToLength(t *testing.T) {
	products := []models.Product{listable("p1", "gifts"), listable("p2", "gifts")}
	assert.Len(t, BestSellers(products, 6), 2)
	assert.Len(t, BestSellers(products, 1), 1)
}

func TestAddToCartRejectsInvalidQuantity(t *testing.T) {
	api := &stubAPI{}
	svc := NewService(api)

	err := svc.AddToCart(context.Background(), "u1", "p1", 0)
	require.Error(t, err)
	assert.Zero(t, api.addCalls)

	require.NoError(t, svc.AddToCart(context.Background(), "u1", "p1", 2))
	assert.Equal(t, 1, api.addCalls)
}
