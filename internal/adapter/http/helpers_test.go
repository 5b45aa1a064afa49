package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aq2208/gpos-checkout/configs"
	"github.com/aq2208/gpos-checkout/internal/adapter/http/middleware"
	"github.com/aq2208/gpos-checkout/internal/adapter/notify"
	"github.com/aq2208/gpos-checkout/internal/adapter/observ"
	"github.com/aq2208/gpos-checkout/internal/adapter/repo"
	domain "github.com/aq2208/gpos-checkout/internal/entity"
	"github.com/aq2208/gpos-checkout/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type memCarts struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func newMemCarts() *memCarts { return &memCarts{carts: map[string]domain.Cart{}} }

func (m *memCarts) Load(_ context.Context, shopID, userID string) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.carts[shopID+":"+userID], nil
}

func (m *memCarts) Save(_ context.Context, shopID, userID string, c domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[shopID+":"+userID] = c
	return nil
}

func (m *memCarts) Delete(_ context.Context, shopID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, shopID+":"+userID)
	return nil
}

// memIdem is an in-memory usecase.IdempotencyStore.
type memIdem struct {
	mu    sync.Mutex
	locks map[string]bool
	vals  map[string]string
}

func newMemIdem() *memIdem { return &memIdem{locks: map[string]bool{}, vals: map[string]string{}} }

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[scope+":"+key] {
		return false, nil
	}
	m.locks[scope+":"+key] = true
	return true, nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[scope+":"+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[scope+":"+key]
	return v, ok, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+":"+key)
	return nil
}

type testServer struct {
	router   *gin.Engine
	carts    *memCarts
	sessions *SessionRegistry
}

func testConfig() configs.Config {
	var cfg configs.Config
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.Issuer = "gpos-auth"
	cfg.Security.Audience = "gpos-checkout"
	cfg.Security.TTL = time.Hour
	return cfg
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repo.Migrate(context.Background(), db))

	cfg := testConfig()
	sales := usecase.NewSaleService(repo.NewSQLSaleRepo(db), newMemIdem(), nil, nil)
	carts := newMemCarts()
	sessions := NewSessionRegistry(time.Hour)
	metrics := observ.NewCheckoutMetrics(prometheus.NewRegistry())

	r := NewRouter(Handlers{
		Token:    NewTokenHandler(cfg),
		Cart:     NewCartHandler(carts, time.Second),
		Checkout: NewCheckoutHandler(sales, carts, sessions, metrics, CheckoutDefaults{Currency: "USD"}),
		Sale:     NewSaleHandler(sales),
	}, middleware.NewAuthz(cfg))
	return &testServer{router: r, carts: carts, sessions: sessions}
}

func (s *testServer) token(t *testing.T, clientID, secret string) string {
	t.Helper()
	form := url.Values{"client_id": {clientID}, "client_secret": {secret}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithHeaders(t, method, path, token, nil, body)
}

func (s *testServer) doWithHeaders(t *testing.T, method, path, token string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type viewResp struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
	State  struct {
		CurrentStep      string               `json:"currentStep"`
		Sale             *domain.Sale         `json:"sale"`
		Payments         []domain.SalePayment `json:"payments"`
		Error            string               `json:"error"`
		DeferredPayments []json.RawMessage    `json:"deferredPayments"`
	} `json:"state"`
	Totals     usecase.CheckoutTotals `json:"totals"`
	StepIndex  int                    `json:"stepIndex"`
	TotalSteps int                    `json:"totalSteps"`
	CanProceed bool                   `json:"canProceed"`
	CanGoBack  bool                   `json:"canGoBack"`
	Notices    []notify.Notice        `json:"notices"`
	Result     json.RawMessage        `json:"result"`
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) viewResp {
	t.Helper()
	var v viewResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const (
	terminal1       = "pos-terminal-1"
	terminal1Secret = "pos-terminal-1-secret"
	terminal2       = "pos-terminal-2"
	terminal2Secret = "pos-terminal-2-secret"
)

func ringCart(withCustomer bool) domain.Cart {
	c := domain.Cart{
		Items: []domain.CartItem{
			{ItemID: "ring-01", SKU: "R-01", Name: "Gold ring", UnitPrice: dec("1200"), Quantity: 1},
			{ItemID: "chain-02", SKU: "C-02", Name: "Silver chain", UnitPrice: dec("150"), Quantity: 2,
				Discount: &domain.Discount{Type: domain.DiscountFixed, Value: dec("50")}},
		},
		Notes: "gift wrap",
	}
	if withCustomer {
		c.Customer = &domain.Customer{ID: "cust-9", Name: "A. Client"}
	}
	return c
}
