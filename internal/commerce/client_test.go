package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftbloom/storefront/internal/models"
	"github.com/giftbloom/storefront/internal/patterns"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetCartUnwrapsEnvelope(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cart/get-cart", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "u1", body["userId"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"cart": map[string]interface{}{
				"productsInCart": []map[string]interface{}{
					{"productId": "p1", "productQty": 2, "_id": "line-1"},
					{"productId": "p2", "productQty": 1, "_id": "line-2"},
				},
			},
		})
	})

	client := New(srv.URL, "client-test")
	lines, err := client.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, models.CartLine{ProductID: "p1", ProductQty: 2, LineID: "line-1"}, lines[0])
}

func TestGetCartSurfacesServerMessage(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Cart not found",
		})
	})

	client := New(srv.URL, "client-test")
	_, err := client.GetCart(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cart not found")
}

func TestVerifyCouponLenientOnBusinessError(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		// the backend answers unknown codes with a 404 plus a message body
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": models.MsgInvalidCoupon})
	})

	client := New(srv.URL, "client-test")
	resp, err := client.VerifyCoupon(context.Background(), "NOPE1234")
	require.NoError(t, err)
	assert.Equal(t, models.MsgInvalidCoupon, resp.Message)
	assert.Zero(t, resp.DiscountPercentage)
}

func TestCartCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := New(srv.URL, "breaker-test")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.GetCart(ctx, "u1")
		require.Error(t, err)
		require.NotErrorIs(t, err, patterns.ErrBackendUnavailable)
	}

	_, err := client.GetCart(ctx, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, patterns.ErrBackendUnavailable)
}

func TestBreakersAreIsolatedPerConcern(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cart/get-cart" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":  true,
			"products": []models.Product{},
		})
	})

	client := New(srv.URL, "isolation-test")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		client.GetCart(ctx, "u1")
	}

	// catalog calls still flow while the cart circuit is open
	_, err := client.ListProducts(ctx)
	assert.NoError(t, err)

	states := client.CircuitStates()
	assert.Equal(t, "open", states["Cart"].State)
	assert.Equal(t, 1, states["Cart"].Value)
	assert.Equal(t, "closed", states["Catalog"].State)
	assert.Equal(t, 0, states["Catalog"].Value)
}

func TestVerifySellerGate(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		resp := models.VerifySellerResponse{LoggedIn: "loggedout"}
		if body["sellerId"] == "seller-1" {
			resp.LoggedIn = models.SellerLoggedIn
		}
		json.NewEncoder(w).Encode(resp)
	})

	client := New(srv.URL, "client-test")

	ok, err := client.VerifySeller(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.VerifySeller(context.Background(), "stranger")
	require.NoError(t, err)
	assert.False(t, ok)
}
