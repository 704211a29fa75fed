package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/balanceledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/balanceledger/internal/adapter/http/middleware"
	"github.com/iho/balanceledger/internal/adapter/repository/memory"
	"github.com/iho/balanceledger/internal/infrastructure/idgen"
	"github.com/iho/balanceledger/internal/infrastructure/metrics"
	"github.com/iho/balanceledger/internal/usecase"
	"github.com/iho/balanceledger/internal/usecase/mocks"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyOnlyGuardsPostings(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIdempotencyStore(ctrl)

	store.EXPECT().CheckAndSet(gomock.Any(), "/deposit:key-123", nil, time.Minute).Return(false, nil, nil)
	store.EXPECT().Update(gomock.Any(), "/deposit:key-123", gomock.Any(), time.Minute).Return(nil)

	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
		cfg.IdempotencyTTL = time.Minute
	}))

	req := httptest.NewRequest(http.MethodPost, "/deposit", strings.NewReader(`{"amount":"10"}`))
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	get := httptest.NewRequest(http.MethodGet, "/balance", nil)
	get.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, get)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"GET /balance",
		"POST /deposit",
		"POST /withdraw",
		"GET /entries",
		"GET /ledger/verify",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_PostingFlow(t *testing.T) {
	router := NewRouter(newRouterConfig())

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"amount":"0"}`, rec.Body.String())

	require.Equal(t, http.StatusOK, do(http.MethodPost, "/deposit", `{"amount":"50"}`).Code)
	rec = do(http.MethodPost, "/deposit", `{"amount":"100"}`)
	assert.JSONEq(t, `{"amount":"150"}`, rec.Body.String())

	rec = do(http.MethodPost, "/withdraw", `{"amount":"250"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodGet, "/balance", "")
	assert.JSONEq(t, `{"amount":"150"}`, rec.Body.String())

	rec = do(http.MethodPost, "/withdraw", `{"amount":"75"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"amount":"75"}`, rec.Body.String())

	rec = do(http.MethodGet, "/entries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Entries []struct {
			Sequence int64  `json:"sequence"`
			Kind     string `json:"kind"`
		} `json:"entries"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 3, list.Total)
	assert.Equal(t, "withdrawal", list.Entries[2].Kind)

	rec = do(http.MethodGet, "/ledger/verify", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"consistent":true`)

	rec = do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "balanceledger_postings_total")
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := memory.NewEntryStore()
	balanceUC := usecase.NewBalanceUseCase(store, idgen.NewULIDGenerator(), nil, m)
	ledgerUC := usecase.NewLedgerUseCase(store)

	cfg := RouterConfig{
		BalanceHandler: handler.NewBalanceHandler(balanceUC),
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC),
		HealthHandler:  handler.NewHealthHandler(),
		Metrics:        m,
		Gatherer:       registry,
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}
