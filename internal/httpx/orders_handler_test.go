package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcgearph/storefront/internal/orders"
)

// memStore mirrors the repo's transactional semantics in memory: the stock
// guard is evaluated under one lock and an order either commits fully or
// leaves nothing behind.
type memStore struct {
	mu        sync.Mutex
	stock     map[string]int // by product name
	stockByID map[int64]int  // by product id, when the cart sends one
	nextID    int64
	statuses  map[int64]orders.Status
	placed    []orders.PlaceOrderInput
}

func newMemStore(stock map[string]int) *memStore {
	return &memStore{stock: stock, stockByID: map[int64]int{}, statuses: map[int64]orders.Status{}}
}

// guardOK mirrors the repo's conditional update: an id-keyed item checks the
// id table only, so an unknown id is indistinguishable from empty stock.
func (m *memStore) guardOK(it orders.LineInput) bool {
	if it.ProductID != nil {
		return m.stockByID[*it.ProductID] >= it.Qty
	}
	return m.stock[it.Name] >= it.Qty
}

func (m *memStore) PlaceOrder(_ context.Context, in orders.PlaceOrderInput) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range in.Items {
		if !m.guardOK(it) {
			return 0, &orders.InsufficientStockError{Item: it.Name}
		}
	}
	for _, it := range in.Items {
		if it.ProductID != nil {
			m.stockByID[*it.ProductID] -= it.Qty
		} else {
			m.stock[it.Name] -= it.Qty
		}
	}
	m.nextID++
	m.statuses[m.nextID] = orders.StatusPending
	m.placed = append(m.placed, in)
	return m.nextID, nil
}

func (m *memStore) ListByUser(context.Context, int64) ([]orders.Order, error) { return nil, nil }
func (m *memStore) ListAll(context.Context) ([]orders.Order, error)           { return nil, nil }

func (m *memStore) GetStatus(_ context.Context, id int64) (orders.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[id]
	if !ok {
		return "", orders.ErrNotFound
	}
	return s, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, to orders.Status) (orders.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, ok := m.statuses[id]
	if !ok {
		return "", orders.ErrNotFound
	}
	if !orders.CanTransition(from, to) {
		return "", &orders.InvalidTransitionError{From: from, To: to}
	}
	m.statuses[id] = to
	return from, nil
}

func (m *memStore) stockOf(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[name]
}

func (m *memStore) stockOfID(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stockByID[id]
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (p *fakePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, value)
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[int64]string
	invalidated []int64
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[int64]string{}} }

func (c *fakeCache) GetStatus(_ context.Context, id int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	return s, ok
}

func (c *fakeCache) SetStatus(_ context.Context, id int64, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = status
}

func (c *fakeCache) Invalidate(_ context.Context, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
}

func newTestHandler(store OrderStore) (*OrdersHandler, *fakePublisher, *fakePublisher, *fakeCache, *chi.Mux) {
	placed := &fakePublisher{}
	statusChanged := &fakePublisher{}
	cache := newFakeCache()
	h := &OrdersHandler{
		Store:              store,
		Placed:             placed,
		StatusChanged:      statusChanged,
		Cache:              cache,
		Validate:           validator.New(),
		Service:            "storefront-test",
		DefaultCourier:     "Standard",
		DefaultShippingFee: decimal.NewFromInt(150),
	}
	r := chi.NewRouter()
	passthrough := func(next http.Handler) http.Handler { return next }
	h.Register(r, passthrough)
	return h, placed, statusChanged, cache, r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

const validOrderBody = `{
	"customer": {"firstName":"Juan","lastName":"Dela Cruz","email":"juan@example.com","phone":"09170000001"},
	"shipping": {"address":"123 Mabini St","barangay":"Poblacion","city":"Makati","province":"Metro Manila","postalCode":"1210"},
	"payment": {"method":"cod"},
	"items": [
		{"title":"AULA F2088 Pro","price":"₱1,000.00","qty":2},
		{"title":"Mouse pad","price":500,"qty":1}
	],
	"total": 2650,
	"userId": 7
}`

func TestPlaceOrderSuccess(t *testing.T) {
	store := newMemStore(map[string]int{"AULA F2088 Pro": 10, "Mouse pad": 5})
	_, placed, _, cache, r := newTestHandler(store)

	rr := postJSON(r, "/orders", validOrderBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp PlaceOrderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Order placed successfully", resp.Message)
	assert.Equal(t, int64(1), resp.OrderID)
	assert.Equal(t, "ORD-000001", resp.DisplayID)
	assert.Equal(t, "Standard", resp.Courier)
	assert.InDelta(t, 2650.00, resp.Total, 0.001)

	assert.Equal(t, 8, store.stockOf("AULA F2088 Pro"))
	assert.Equal(t, 4, store.stockOf("Mouse pad"))

	// committed order is cached as Pending and announced exactly once
	s, ok := cache.GetStatus(context.Background(), 1)
	assert.True(t, ok)
	assert.Equal(t, "Pending", s)
	require.Equal(t, 1, placed.count())

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(placed.msgs[0], &env))
	assert.Equal(t, orders.EventOrderPlaced, env.EventType)
	var payload orders.OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "ORD-000001", payload.DisplayID)
	assert.Equal(t, "juan@example.com", payload.Customer.Email)
	assert.Len(t, payload.Items, 2)
}

func TestPlaceOrderMissingFields(t *testing.T) {
	store := newMemStore(map[string]int{})
	_, placed, _, _, r := newTestHandler(store)

	rr := postJSON(r, "/orders", `{"items":[{"title":"x","price":1,"qty":1}],"total":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Missing required order fields")
	assert.Zero(t, placed.count())
}

func TestPlaceOrderEmptyItems(t *testing.T) {
	store := newMemStore(map[string]int{})
	_, _, _, _, r := newTestHandler(store)

	body := `{
		"customer": {"firstName":"A","lastName":"B","email":"a@b.c","phone":"1"},
		"shipping": {"address":"a","barangay":"b","city":"c","province":"d","postalCode":"e"},
		"items": [],
		"total": 150
	}`
	rr := postJSON(r, "/orders", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlaceOrderTotalMismatch(t *testing.T) {
	store := newMemStore(map[string]int{"AULA F2088 Pro": 10, "Mouse pad": 5})
	_, placed, _, _, r := newTestHandler(store)

	body := bytes.Replace([]byte(validOrderBody), []byte(`"total": 2650`), []byte(`"total": 999`), 1)
	rr := postJSON(r, "/orders", string(body))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "order total mismatch")

	// nothing committed, nothing announced
	assert.Equal(t, 10, store.stockOf("AULA F2088 Pro"))
	assert.Zero(t, placed.count())
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	store := newMemStore(map[string]int{"AULA F2088 Pro": 1, "Mouse pad": 5})
	_, placed, _, _, r := newTestHandler(store)

	rr := postJSON(r, "/orders", validOrderBody)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "AULA F2088 Pro")

	// full rollback: neither product was decremented, no event left
	assert.Equal(t, 1, store.stockOf("AULA F2088 Pro"))
	assert.Equal(t, 5, store.stockOf("Mouse pad"))
	assert.Zero(t, placed.count())
	assert.Empty(t, store.placed)
}

func orderBodyForProduct(productID int64, qty int) string {
	b, _ := json.Marshal(map[string]any{
		"customer": map[string]string{"firstName": "A", "lastName": "B", "email": "a@b.c", "phone": "1"},
		"shipping": map[string]string{"address": "a", "barangay": "b", "city": "c", "province": "d", "postalCode": "e"},
		"payment":  map[string]string{"method": "cod"},
		"items":    []map[string]any{{"productId": productID, "title": "AULA F2088 Pro", "price": 100, "qty": qty}},
		"total":    float64(100*qty + 150),
	})
	return string(b)
}

func TestPlaceOrderByProductID(t *testing.T) {
	store := newMemStore(map[string]int{})
	store.stockByID[3] = 10
	_, placed, _, _, r := newTestHandler(store)

	rr := postJSON(r, "/orders", orderBodyForProduct(3, 4))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, 6, store.stockOfID(3))
	assert.Equal(t, 1, placed.count())

	// the line item keeps the id the cart sent
	require.Len(t, store.placed, 1)
	require.NotNil(t, store.placed[0].Items[0].ProductID)
	assert.Equal(t, int64(3), *store.placed[0].Items[0].ProductID)
}

func TestPlaceOrderUnknownProductID(t *testing.T) {
	store := newMemStore(map[string]int{"AULA F2088 Pro": 10})
	store.stockByID[3] = 10
	_, placed, _, _, r := newTestHandler(store)

	// id 99 matches nothing; the same-named stock must not be touched
	rr := postJSON(r, "/orders", orderBodyForProduct(99, 1))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "AULA F2088 Pro")

	assert.Equal(t, 10, store.stockOf("AULA F2088 Pro"))
	assert.Equal(t, 10, store.stockOfID(3))
	assert.Zero(t, placed.count())
	assert.Empty(t, store.placed)
}

func TestPlaceOrderInsufficientStockByProductID(t *testing.T) {
	store := newMemStore(map[string]int{})
	store.stockByID[3] = 2
	_, placed, _, _, r := newTestHandler(store)

	rr := postJSON(r, "/orders", orderBodyForProduct(3, 5))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 2, store.stockOfID(3))
	assert.Zero(t, placed.count())
}

func orderBodyFor(qty int) string {
	b, _ := json.Marshal(map[string]any{
		"customer": map[string]string{"firstName": "A", "lastName": "B", "email": "a@b.c", "phone": "1"},
		"shipping": map[string]string{"address": "a", "barangay": "b", "city": "c", "province": "d", "postalCode": "e"},
		"payment":  map[string]string{"method": "cod"},
		"items":    []map[string]any{{"title": "AULA F2088 Pro", "price": 100, "qty": qty}},
		"total":    float64(100*qty + 150),
	})
	return string(b)
}

func TestConcurrentOrdersNoLostUpdate(t *testing.T) {
	store := newMemStore(map[string]int{"AULA F2088 Pro": 10})
	_, _, _, _, r := newTestHandler(store)

	codes := make(chan int, 2)
	var wg sync.WaitGroup
	for _, qty := range []int{4, 5} {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			rr := postJSON(r, "/orders", orderBodyFor(q))
			codes <- rr.Code
		}(qty)
	}
	wg.Wait()
	close(codes)

	for c := range codes {
		assert.Equal(t, http.StatusOK, c)
	}
	assert.Equal(t, 1, store.stockOf("AULA F2088 Pro")) // 10 - 4 - 5
}

func TestConcurrentOrdersOversellPrevented(t *testing.T) {
	store := newMemStore(map[string]int{"AULA F2088 Pro": 10})
	_, _, _, _, r := newTestHandler(store)

	type result struct{ code, qty int }
	results := make(chan result, 2)
	var wg sync.WaitGroup
	for _, qty := range []int{7, 6} {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			rr := postJSON(r, "/orders", orderBodyFor(q))
			results <- result{rr.Code, q}
		}(qty)
	}
	wg.Wait()
	close(results)

	var okQty, conflicts, successes int
	for res := range results {
		switch res.code {
		case http.StatusOK:
			successes++
			okQty = res.qty
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", res.code)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, 10-okQty, store.stockOf("AULA F2088 Pro"))
}

func TestGetOrderCacheHit(t *testing.T) {
	store := newMemStore(map[string]int{})
	_, _, _, cache, r := newTestHandler(store)
	cache.SetStatus(context.Background(), 42, "Shipped")

	req := httptest.NewRequest(http.MethodGet, "/orders/ORD-000042", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"Shipped"}`, rr.Body.String())
}

func TestGetOrderNotFound(t *testing.T) {
	store := newMemStore(map[string]int{})
	_, _, _, _, r := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/orders/999", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListOrdersRequiresUserID(t *testing.T) {
	store := newMemStore(map[string]int{})
	_, _, _, _, r := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "User ID is required")
}

func TestUpdateStatus(t *testing.T) {
	store := newMemStore(map[string]int{})
	store.statuses[42] = orders.StatusPending
	_, _, statusChanged, cache, r := newTestHandler(store)
	cache.SetStatus(context.Background(), 42, "Pending")

	rr := postJSON(r, "/admin/orders/status", `{"order_id":"ORD-000042","status":"Processing"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	s, _ := store.GetStatus(context.Background(), 42)
	assert.Equal(t, orders.StatusProcessing, s)
	assert.Equal(t, 1, statusChanged.count())
	assert.Contains(t, cache.invalidated, int64(42))

	// numeric id form is accepted too
	rr = postJSON(r, "/admin/orders/status", `{"order_id":42,"status":"Shipped"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	store := newMemStore(map[string]int{})
	store.statuses[7] = orders.StatusDelivered
	_, _, statusChanged, _, r := newTestHandler(store)

	rr := postJSON(r, "/admin/orders/status", `{"order_id":7,"status":"Pending"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Zero(t, statusChanged.count())
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	store := newMemStore(map[string]int{})
	store.statuses[7] = orders.StatusPending
	_, _, _, _, r := newTestHandler(store)

	rr := postJSON(r, "/admin/orders/status", `{"order_id":7,"status":"Lost"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
