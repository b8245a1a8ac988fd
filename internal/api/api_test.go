package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/cart"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/coupon"
	"github.com/kenresoft/wine-delivery-backend-sub000/internal/domain/product"
)

type memProducts struct {
	product.Repository
	byID map[string]product.Product
}

func (m *memProducts) List(context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memCarts struct {
	cart.Repository
	byUser map[string]*cart.Cart
}

func (m *memCarts) FindByUser(_ context.Context, userID string) (*cart.Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCarts) Save(_ context.Context, c *cart.Cart) error {
	if c.ID == "" {
		c.ID = "cart-" + c.UserID
	}
	cp := *c
	m.byUser[c.UserID] = &cp
	return nil
}

func (m *memCarts) Delete(_ context.Context, userID string) error {
	delete(m.byUser, userID)
	return nil
}

type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, code string, _ decimal.Decimal) (*coupon.Coupon, error) {
	if code != "WINE10" {
		return nil, coupon.ErrNotFound
	}
	return &coupon.Coupon{
		ID:            "c1",
		Code:          "WINE10",
		DiscountValue: decimal.NewFromInt(10),
		DiscountType:  coupon.DiscountPercentage,
	}, nil
}

func testServer(t *testing.T) (*Server, *memProducts) {
	t.Helper()
	products := &memProducts{byID: map[string]product.Product{
		"merlot": {
			ID:              "merlot",
			Name:            "Merlot Reserve",
			DefaultPrice:    decimal.RequireFromString("20.00"),
			DefaultQuantity: 10,
		},
	}}
	carts := &memCarts{byUser: map[string]*cart.Cart{}}
	cartSvc := cart.NewService(carts, products, stubValidator{}, nil)
	return NewServer(Deps{
		Carts:    cartSvc,
		Products: products,
	}), products
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// assertAmount compares a JSON-decoded decimal string numerically, so
// "40", "40.0" and "40.00" all match.
func assertAmount(t *testing.T, got any, want string) {
	t.Helper()
	gs, ok := got.(string)
	require.True(t, ok, "amount %v is not a string", got)
	g := decimal.RequireFromString(gs)
	assert.True(t, g.Equal(decimal.RequireFromString(want)), "got %s want %s", gs, want)
}

func TestCartRequiresIdentity(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()

	w := do(t, router, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "unauthorized", body["error"].(map[string]any)["code"])
}

func TestAdminRoutesGated(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()

	w := do(t, router, http.MethodGet, "/api/coupons", "", map[string]string{"X-User-ID": "u1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAddItemAndGetCart(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()
	auth := map[string]string{"X-User-ID": "u1"}

	w := do(t, router, http.MethodPost, "/api/cart/items", `{"productId":"merlot","quantity":2}`, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assertAmount(t, data["subtotal"], "40")
	assertAmount(t, data["total"], "40")

	// Empty-cart users get an empty cart, not a 404.
	w = do(t, router, http.MethodGet, "/api/cart", "", map[string]string{"X-User-ID": "fresh"})
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.Empty(t, data["items"])
}

func TestApplyCouponReprices(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()
	auth := map[string]string{"X-User-ID": "u1"}

	do(t, router, http.MethodPost, "/api/cart/items", `{"productId":"merlot","quantity":2}`, auth)

	w := do(t, router, http.MethodPost, "/api/cart/coupon", `{"code":"WINE10"}`, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]any)
	assertAmount(t, data["discount"], "4")
	assertAmount(t, data["total"], "36")

	// Unknown code leaves pricing untouched and maps to 404.
	w = do(t, router, http.MethodPost, "/api/cart/coupon", `{"code":"NOPE"}`, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductNotFoundEnvelope(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()

	w := do(t, router, http.MethodGet, "/api/products/cabernet", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_found", body["error"].(map[string]any)["code"])
	assert.Equal(t, "product not found", body["error"].(map[string]any)["message"])
}

func TestStockLimitSurfacesConflict(t *testing.T) {
	s, _ := testServer(t)
	router := s.Router()
	auth := map[string]string{"X-User-ID": "u1"}

	w := do(t, router, http.MethodPost, "/api/cart/items", `{"productId":"merlot","quantity":11}`, auth)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient_inventory", body["error"].(map[string]any)["code"])
}

func TestFlashPricePropagatesToCart(t *testing.T) {
	s, products := testServer(t)
	router := s.Router()
	auth := map[string]string{"X-User-ID": "u1"}

	p := products.byID["merlot"]
	p.FlashSale = &product.FlashOverride{
		SaleID:       "sale1",
		SpecialPrice: decimal.RequireFromString("15.00"),
		StartDate:    time.Now().Add(-time.Hour),
		EndDate:      time.Now().Add(time.Hour),
		Active:       true,
	}
	products.byID["merlot"] = p

	w := do(t, router, http.MethodPost, "/api/cart/items", `{"productId":"merlot","quantity":1}`, auth)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assertAmount(t, data["subtotal"], "15")
}
