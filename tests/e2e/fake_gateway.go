//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// FakeGateway answers the Razorpay orders endpoint with predictable ids.
type FakeGateway struct {
	server *httptest.Server
	seq    atomic.Int64

	mu     sync.Mutex
	orders []FakeOrder
	fail   bool
}

type FakeOrder struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

func NewFakeGateway(t *testing.T) *FakeGateway {
	g := &FakeGateway{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/orders", g.createOrder)
	g.server = httptest.NewServer(mux)
	t.Cleanup(g.server.Close)
	return g
}

func (g *FakeGateway) URL() string {
	return g.server.URL
}

// FailNext makes the next order request answer 502.
func (g *FakeGateway) FailNext() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = true
}

func (g *FakeGateway) Orders() []FakeOrder {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]FakeOrder(nil), g.orders...)
}

func (g *FakeGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = nil
	g.fail = false
}

func (g *FakeGateway) createOrder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if _, _, ok := r.BasicAuth(); !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
		return
	}

	g.mu.Lock()
	fail := g.fail
	g.fail = false
	g.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"code":"SERVER_ERROR","description":"upstream unavailable"}}`))
		return
	}

	var order FakeOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	order.ID = fmt.Sprintf("order_e2e%06d", g.seq.Add(1))

	g.mu.Lock()
	g.orders = append(g.orders, order)
	g.mu.Unlock()

	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":       order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"status":   "created",
	})
}

// LastOrder fails the test when no order was created.
func (g *FakeGateway) LastOrder(t *testing.T) FakeOrder {
	t.Helper()
	orders := g.Orders()
	require.NotEmpty(t, orders, "no order reached the gateway")
	return orders[len(orders)-1]
}
