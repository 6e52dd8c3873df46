package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giftbloom/storefront/internal/models"
)

// stubAPI counts calls and lets each endpoint be scripted per test.
type stubAPI struct {
	mu sync.Mutex

	lines    []models.CartLine
	cartErr  error
	products map[string]models.Product

	updateCalls int
	updateErr   error
	lastQty     int

	deleteCalls int
	deleteErr   error

	couponResp models.CouponVerifyResponse
	couponErr  error
}

func (s *stubAPI) GetCart(ctx context.Context, userID string) ([]models.CartLine, error) {
	return s.lines, s.cartErr
}

func (s *stubAPI) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return models.Product{}, errors.New("product not found")
	}
	return p, nil
}

func (s *stubAPI) UpdateQuantity(ctx context.Context, userID, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	s.lastQty = qty
	return s.updateErr
}

func (s *stubAPI) DeleteCartItem(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	return s.deleteErr
}

func (s *stubAPI) VerifyCoupon(ctx context.Context, code string) (models.CouponVerifyResponse, error) {
	return s.couponResp, s.couponErr
}

func product(id, price string) models.Product {
	return models.Product{ProductID: id, Name: "Gift " + id, Price: price, Img: "x.jpg", Category: "gifts"}
}

func loadedAggregator(t *testing.T, api *stubAPI, policy ReconcilePolicy) *Aggregator {
	t.Helper()
	agg := New(api, "u1", policy)
	_, err := agg.Load(context.Background())
	require.NoError(t, err)
	return agg
}

func TestLoadDeduplicatesProductLines(t *testing.T) {
	api := &stubAPI{
		lines: []models.CartLine{
			{ProductID: "p1", ProductQty: 2, LineID: "l1"},
			{ProductID: "p1", ProductQty: 3, LineID: "l2"},
			{ProductID: "p2", ProductQty: 1, LineID: "l3"},
		},
		products: map[string]models.Product{
			"p1": product("p1", "Rs. 100.00"),
			"p2": product("p2", "Rs. 50.00"),
		},
	}

	items, err := loadedAggregator(t, api, ReconcileKeepLocal).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2, "duplicate lines for one product collapse to one row")
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity, "first line's quantity is carried")
	assert.Equal(t, "l1", items[0].LineID)
	assert.Equal(t, "p2", items[1].ProductID)
}

func TestLoadDropsFailedProductFetches(t *testing.T) {
	api := &stubAPI{
		lines: []models.CartLine{
			{ProductID: "p1", ProductQty: 1, LineID: "l1"},
			{ProductID: "gone", ProductQty: 1, LineID: "l2"},
			{ProductID: "p2", ProductQty: 1, LineID: "l3"},
		},
		products: map[string]models.Product{
			"p1": product("p1", "Rs. 100.00"),
			"p2": product("p2", "Rs. 50.00"),
		},
	}

	items, err := loadedAggregator(t, api, ReconcileKeepLocal).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, "p2", items[1].ProductID)
}

func TestLoadSurfacesCartFailure(t *testing.T) {
	api := &stubAPI{cartErr: errors.New("Cart not found")}

	agg := New(api, "u1", ReconcileKeepLocal)
	_, err := agg.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cart not found")
}

func TestQuantityFloorSkipsNetworkCall(t *testing.T) {
	api := &stubAPI{
		lines:    []models.CartLine{{ProductID: "p1", ProductQty: 1, LineID: "l1"}},
		products: map[string]models.Product{"p1": product("p1", "Rs. 100.00")},
	}
	agg := loadedAggregator(t, api, ReconcileKeepLocal)

	require.NoError(t, agg.ChangeQuantity(context.Background(), "l1", -1))

	assert.Equal(t, 1, agg.Items()[0].Quantity, "quantity never drops below 1")
	assert.Zero(t, api.updateCalls, "decrement at the floor must not hit the backend")
}

func TestQuantityChangeIsOptimistic(t *testing.T) {
	api := &stubAPI{
		lines:    []models.CartLine{{ProductID: "p1", ProductQty: 2, LineID: "l1"}},
		products: map[string]models.Product{"p1": product("p1", "Rs. 100.00")},
	}
	agg := loadedAggregator(t, api, ReconcileKeepLocal)

	require.NoError(t, agg.ChangeQuantity(context.Background(), "l1", 1))
	assert.Equal(t, 3, agg.Items()[0].Quantity)
	assert.Equal(t, 1, api.updateCalls)
	assert.Equal(t, 3, api.lastQty, "backend receives the absolute quantity")
}

func TestKeepLocalPolicySurvivesBackendFailure(t *testing.T) {
	api := &stubAPI{
		lines:     []models.CartLine{{ProductID: "p1", ProductQty: 2, LineID: "l1"}},
		products:  map[string]models.Product{"p1": product("p1", "Rs. 100.00")},
		updateErr: errors.New("boom"),
	}
	agg := loadedAggregator(t, api, ReconcileKeepLocal)

	err := agg.ChangeQuantity(context.Background(), "l1", 1)
	require.Error(t, err, "failures are always surfaced")
	assert.Equal(t, 3, agg.Items()[0].Quantity, "keep-local leaves the optimistic change")
}

func TestRollbackPolicyRestoresQuantity(t *testing.T) {
	api := &stubAPI{
		lines:     []models.CartLine{{ProductID: "p1", ProductQty: 2, LineID: "l1"}},
		products:  map[string]models.Product{"p1": product("p1", "Rs. 100.00")},
		updateErr: errors.New("boom"),
	}
	agg := loadedAggregator(t, api, ReconcileRollback)

	err := agg.ChangeQuantity(context.Background(), "l1", 1)
	require.Error(t, err)
	assert.Equal(t, 2, agg.Items()[0].Quantity)
}

func TestRemoveItemOptimisticAndRollback(t *testing.T) {
	newAPI := func(fail bool) *stubAPI {
		api := &stubAPI{
			lines: []models.CartLine{
				{ProductID: "p1", ProductQty: 1, LineID: "l1"},
				{ProductID: "p2", ProductQty: 1, LineID: "l2"},
			},
			products: map[string]models.Product{
				"p1": product("p1", "Rs. 100.00"),
				"p2": product("p2", "Rs. 50.00"),
			},
		}
		if fail {
			api.deleteErr = errors.New("boom")
		}
		return api
	}

	agg := loadedAggregator(t, newAPI(false), ReconcileKeepLocal)
	require.NoError(t, agg.RemoveItem(context.Background(), "l1"))
	require.Len(t, agg.Items(), 1)
	assert.Equal(t, "p2", agg.Items()[0].ProductID)

	agg = loadedAggregator(t, newAPI(true), ReconcileKeepLocal)
	require.Error(t, agg.RemoveItem(context.Background(), "l1"))
	assert.Len(t, agg.Items(), 1, "keep-local: row stays removed despite failure")

	agg = loadedAggregator(t, newAPI(true), ReconcileRollback)
	require.Error(t, agg.RemoveItem(context.Background(), "l1"))
	require.Len(t, agg.Items(), 2, "rollback reinstates the row")
	assert.Equal(t, "p1", agg.Items()[0].ProductID)
}

func TestRedeemVoucherOutcomes(t *testing.T) {
	api := &stubAPI{}
	agg := New(api, "u1", ReconcileKeepLocal)
	ctx := context.Background()

	api.couponResp = models.CouponVerifyResponse{Message: models.MsgInvalidCoupon}
	d := agg.RedeemVoucher(ctx, "BADCODE1")
	assert.Zero(t, d.Percentage)
	assert.Equal(t, models.MsgInvalidCoupon, d.Message)

	api.couponResp = models.CouponVerifyResponse{DiscountPercentage: 10}
	d = agg.RedeemVoucher(ctx, "SAVE10AA")
	assert.Equal(t, 10.0, d.Percentage)
	assert.Equal(t, "SAVE10AA", d.Code)
	assert.Contains(t, d.Message, "10% discount applied")

	api.couponResp = models.CouponVerifyResponse{}
	api.couponErr = errors.New("timeout")
	d = agg.RedeemVoucher(ctx, "SAVE10AA")
	assert.Zero(t, d.Percentage, "transport failure resets the discount")
	assert.Equal(t, "Error verifying coupon", d.Message)
}

func TestRedeemReplacesNotStacks(t *testing.T) {
	api := &stubAPI{}
	agg := New(api, "u1", ReconcileKeepLocal)
	ctx := context.Background()

	api.couponResp = models.CouponVerifyResponse{DiscountPercentage: 10}
	agg.RedeemVoucher(ctx, "CODEA123")

	api.couponResp = models.CouponVerifyResponse{DiscountPercentage: 20}
	d := agg.RedeemVoucher(ctx, "CODEB456")

	assert.Equal(t, 20.0, d.Percentage, "second coupon replaces the first outright")
	assert.Equal(t, "CODEB456", d.Code)
}

func TestSummarizeDuringConcurrentQuantityChanges(t *testing.T) {
	api := &stubAPI{
		lines:    []models.CartLine{{ProductID: "p1", ProductQty: 1, LineID: "l1"}},
		products: map[string]models.Product{"p1": product("p1", "Rs. 100.00")},
	}
	agg := loadedAggregator(t, api, ReconcileKeepLocal)

	// two request handlers on the same session, one mutating, one pricing
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = agg.ChangeQuantity(context.Background(), "l1", 1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			agg.Summarize()
		}
	}()
	wg.Wait()

	assert.Equal(t, 201, agg.Items()[0].Quantity)
	assert.Equal(t, "20100.00", agg.Summarize().Subtotal)
}

func TestSummaryAppliesDiscount(t *testing.T) {
	api := &stubAPI{
		lines: []models.CartLine{
			{ProductID: "p1", ProductQty: 2, LineID: "l1"},
			{ProductID: "p2", ProductQty: 1, LineID: "l2"},
		},
		products: map[string]models.Product{
			"p1": product("p1", "Rs. 400.00"),
			"p2": product("p2", "Rs. 200.00"),
		},
	}
	agg := loadedAggregator(t, api, ReconcileKeepLocal)

	api.couponResp = models.CouponVerifyResponse{DiscountPercentage: 10}
	agg.RedeemVoucher(context.Background(), "SAVE10AA")

	s := agg.Summarize()
	assert.Equal(t, "1000.00", s.Subtotal)
	assert.Equal(t, "100.00", s.DiscountAmount)
	assert.Equal(t, "0.00", s.Shipping)
	assert.Equal(t, "900.00", s.Total)
	assert.Equal(t, "900.00", agg.Total())
}
