package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/portal-payments/app/controller"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/gateway"
	"github.com/vibast-solutions/portal-payments/app/middleware"
	"github.com/vibast-solutions/portal-payments/app/repository"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/session"
	"github.com/vibast-solutions/portal-payments/app/transport"
	"github.com/vibast-solutions/portal-payments/app/types"
	"github.com/vibast-solutions/portal-payments/config"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T, allowedOrigins ...string) *echo.Echo {
	t.Helper()

	store := session.NewStore(session.ScopeMember, repository.NewMemoryStorage())
	api := transport.NewClient(transport.Config{BaseURL: "http://127.0.0.1:1"}, store)
	authService := service.NewAuthService(gateway.NewAuthClient(api, entity.RoleMember), store)

	return setupHTTPServer(
		middleware.NewAccessGuard(testAPIKey, allowedOrigins),
		controller.NewAuthController(authService),
		controller.NewPaymentController(nil),
		controller.NewSubscriptionController(nil),
	)
}

func TestHealthAssignsRequestID(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("expected generated request id")
	}

	var body types.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Status != "ok" || body.Scope != entity.RoleMember || body.Authenticated {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderXRequestID); got != "req-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestSessionRouteWithoutLogin(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set(middleware.HeaderAPIKey, testAPIKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set(middleware.HeaderAPIKey, testAPIKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set(middleware.HeaderAPIKey, testAPIKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRoutesRequireAPIKey(t *testing.T) {
	e := newTestServer(t)

	for _, path := range []string{"/auth/session", "/metrics", "/payments", "/subscriptions"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
		var body types.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != "Missing or invalid API key" {
			t.Fatalf("%s: unexpected body %s", path, rec.Body.String())
		}
	}
}

func TestCrossSiteRequestRefused(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	req.Header.Set(middleware.HeaderAPIKey, testAPIKey)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("expected no Access-Control-Allow-Origin, got %q", got)
	}
}

func TestCrossSitePreflightRefused(t *testing.T) {
	e := newTestServer(t, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodOptions, "/subscriptions/abc/cancel", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("expected no Access-Control-Allow-Origin, got %q", got)
	}
}

func TestAllowedOriginPreflight(t *testing.T) {
	e := newTestServer(t, "http://localhost:5173")

	req := httptest.NewRequest(http.MethodOptions, "/subscriptions/abc/cancel", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:5173" {
		t.Fatalf("unexpected Access-Control-Allow-Origin %q", got)
	}
}

func TestOpenSessionStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Session.Store = "memory"
		storage, closeFn, err := openSessionStorage(ctx, cfg)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer closeFn()
		if _, ok := storage.(*repository.MemoryStorage); !ok {
			t.Fatalf("expected memory storage, got %T", storage)
		}
	})

	t.Run("file", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Session.Store = "file"
		cfg.Session.FilePath = filepath.Join(t.TempDir(), "session.yaml")
		storage, closeFn, err := openSessionStorage(ctx, cfg)
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer closeFn()

		if err := storage.Save(ctx, map[string]string{"member_token": "abc"}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		values, err := storage.Load(ctx, "member_token")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if values["member_token"] != "abc" {
			t.Fatalf("unexpected values: %+v", values)
		}
	})
}
