package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/datasaz/cartengine-backend/internal/cart"
	"github.com/datasaz/cartengine-backend/pkg/config"
	"github.com/datasaz/cartengine-backend/pkg/db/models"
	"github.com/datasaz/cartengine-backend/pkg/logger"
	pkgredis "github.com/datasaz/cartengine-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type routeCartService struct {
	record *models.Cart
}

func (s *routeCartService) GetCart(context.Context, cart.CartKey) (*models.Cart, error) {
	return s.record, nil
}

func (s *routeCartService) AddItem(context.Context, cart.CartKey, uuid.UUID, int) (*models.Cart, error) {
	return s.record, nil
}

func (s *routeCartService) UpdateItem(context.Context, cart.CartKey, uuid.UUID, int) (*models.Cart, error) {
	return s.record, nil
}

func (s *routeCartService) RemoveItem(context.Context, cart.CartKey, uuid.UUID) (*models.Cart, error) {
	return s.record, nil
}

func (s *routeCartService) Clear(context.Context, cart.CartKey) (*models.Cart, error) {
	return s.record, nil
}

func (s *routeCartService) ApplyCoupon(context.Context, cart.CartKey, string) (*models.Cart, error) {
	return s.record, nil
}

func (s *routeCartService) RemoveCoupon(context.Context, cart.CartKey) (*models.Cart, error) {
	return s.record, nil
}

func (s *routeCartService) MergeOnLogin(context.Context, string, uuid.UUID) (*models.Cart, error) {
	return s.record, nil
}

func newTestRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	svc := &routeCartService{record: &models.Cart{ID: uuid.New()}}
	return NewRouter(cfg, logg, stubPinger{}, &pkgredis.Client{}, svc)
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterCartFetchWithSessionHeader(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID == uuid.Nil {
		t.Fatal("expected cart id in response")
	}
}

func TestRouterMergeRejectsAnonymous(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", nil)
	req.Header.Set("X-Session-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
