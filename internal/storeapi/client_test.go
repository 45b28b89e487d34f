package storeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/metrics"
	"github.com/vladislavdragonenkov/minimart/internal/session"
	"github.com/vladislavdragonenkov/minimart/internal/version"
)

func newTestClient(t *testing.T, router http.Handler, token string, opts ...Option) (*Client, *session.MemoryTokenStore) {
	t.Helper()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	store := session.NewMemoryTokenStore(token)
	sess := session.New(store, nil)
	base := []Option{
		WithBaseURL(srv.URL),
		WithRetryWait(time.Millisecond),
		WithMetrics(metrics.NewAPIMetricsWithRegisterer(prometheus.NewRegistry())),
	}
	return New(sess, append(base, opts...)...), store
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_LoginStoresToken(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		require.Empty(t, req.Header.Get("Authorization"))
		var body loginRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.Equal(t, "cashier@example.com", body.Email)
		writeJSON(w, http.StatusOK, `{"accessToken":"tok-42"}`)
	})

	client, store := newTestClient(t, r, "")

	user, err := client.Login(context.Background(), "cashier@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "cashier@example.com", user.Email)

	stored, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "tok-42", stored)
	require.True(t, client.Session().Authenticated())
}

func TestClient_LoginWithoutTokenIsInvalid(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"user":{"email":"x@example.com"}}`)
	})

	client, _ := newTestClient(t, r, "")

	_, err := client.Login(context.Background(), "x@example.com", "secret")
	require.ErrorIs(t, err, domain.ErrInvalidLoginResponse)
	require.False(t, client.Session().Authenticated())
}

func TestClient_SendsBearerToken(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/categories", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		require.Equal(t, version.UserAgent(), req.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"Drinks"}]`)
	})

	client, _ := newTestClient(t, r, "tok")

	categories, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Equal(t, "Drinks", categories[0].Name)
}

func TestClient_UnauthorizedLogsOut(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/inventory/products", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
	})

	client, store := newTestClient(t, r, "tok")
	loggedOut := false
	client.Session().OnLogout(func() { loggedOut = true })

	_, err := client.ListInventoryProducts(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthenticationRequired)
	require.True(t, domain.IsAuthError(err))
	require.True(t, loggedOut)
	require.False(t, client.Session().Authenticated())

	stored, err := store.Load()
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestClient_ServerErrorCarriesStatusAndBody(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/product/purchases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `insufficient stock`)
	})

	client, _ := newTestClient(t, r, "tok")

	_, err := client.CreatePurchase(context.Background(), domain.Order{Items: []domain.OrderLine{{ProductInventoryID: 1, Quantity: 2}}})
	require.ErrorIs(t, err, domain.ErrNetworkOrServer)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Contains(t, err.Error(), "API Error: 422 - insufficient stock")
}

func TestClient_PurchaseIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post("/product/purchases", func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		require.Equal(t, "key-1", req.Header.Get(IdempotencyHeader))

		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		require.NotContains(t, body, "IdempotencyKey")
		writeJSON(w, http.StatusInternalServerError, `boom`)
	})

	client, _ := newTestClient(t, r, "tok", WithRetryCount(3))

	_, err := client.CreatePurchase(context.Background(), domain.Order{
		Items:          []domain.OrderLine{{ProductInventoryID: 7, Quantity: 1}},
		IdempotencyKey: "key-1",
	})
	require.ErrorIs(t, err, domain.ErrNetworkOrServer)
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_ReadsAreRetriedOn5xx(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/stock/products", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusBadGateway, `upstream`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"id":3,"name":"Tea","basePrice":2.5,"quantity":40}]`)
	})

	client, _ := newTestClient(t, r, "tok", WithRetryCount(2))

	products, err := client.ListStockProducts(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
	require.Len(t, products, 1)
	require.True(t, products[0].BasePrice.Equal(decimal.RequireFromString("2.5")))
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/reports/daily-summary", func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, `{}`)
	})

	client, _ := newTestClient(t, r, "tok", WithTimeout(20*time.Millisecond), WithRetryCount(0))

	_, err := client.DailySummary(context.Background())
	require.ErrorIs(t, err, domain.ErrNetworkOrServer)
	require.False(t, domain.IsAuthError(err))
}

func TestClient_AnonymousRequestReachesServer(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/categories", func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		require.Empty(t, req.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[]`)
	})

	client, _ := newTestClient(t, r, "tok")
	client.Session().Logout()

	// Пустой токен не блокирует запрос: решает сервер.
	_, err := client.ListCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_ExpiredTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Get("/categories", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `[]`)
	})

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	client, _ := newTestClient(t, r, expired)

	_, err = client.ListCategories(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthenticationRequired)
	require.Zero(t, calls.Load())
}

func TestClient_MoneyIsSentAsNumbers(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/stock/products", func(w http.ResponseWriter, req *http.Request) {
		raw, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.Contains(t, string(raw), `"basePrice":12.5`)
		writeJSON(w, http.StatusCreated, `{"id":9,"name":"Coffee","basePrice":12.5,"quantity":5,"categoryId":1}`)
	})

	client, _ := newTestClient(t, r, "tok")

	product, err := client.CreateStockProduct(context.Background(), domain.StockProductInput{
		Name:       "Coffee",
		BasePrice:  decimal.RequireFromString("12.50"),
		Quantity:   5,
		CategoryID: 1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), product.ID)
}

func TestClient_ReturnToStockPath(t *testing.T) {
	var hit atomic.Bool
	r := chi.NewRouter()
	r.Delete("/inventory/products/return-to-stock/{id}", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "15", chi.URLParam(req, "id"))
		hit.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})

	client, _ := newTestClient(t, r, "tok")

	require.NoError(t, client.ReturnInventoryToStock(context.Background(), 15))
	require.True(t, hit.Load())
}

func TestClient_ListAvailableStockProducts(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/stock/products/available", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":11,"name":"Salsa","basePrice":4,"quantity":6,"categoryId":1}]`)
	})

	client, _ := newTestClient(t, r, "tok")

	products, err := client.ListAvailableStockProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, int64(11), products[0].ID)
	require.Equal(t, "Salsa", products[0].Name)
	require.Equal(t, int64(6), products[0].Quantity)
}
