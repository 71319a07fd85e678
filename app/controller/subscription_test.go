package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/types"
)

type controllerSubscriptionGateway struct {
	cancelFn func(ctx context.Context, id string) error
}

func (g *controllerSubscriptionGateway) ListSubscriptions(context.Context) ([]types.Subscription, error) {
	return []types.Subscription{{ID: "s1", Status: types.SubscriptionActive}}, nil
}

func (g *controllerSubscriptionGateway) GetSubscription(_ context.Context, id string) (*types.Subscription, error) {
	return &types.Subscription{ID: id, Status: types.SubscriptionCancelled}, nil
}

func (g *controllerSubscriptionGateway) GetSubscriptionStats(context.Context) (*types.SubscriptionStats, error) {
	return &types.SubscriptionStats{TotalSubscriptions: 1, ActiveSubscriptions: 1}, nil
}

func (g *controllerSubscriptionGateway) CancelSubscription(ctx context.Context, id string) error {
	if g.cancelFn != nil {
		return g.cancelFn(ctx, id)
	}
	return nil
}

func TestListSubscriptions(t *testing.T) {
	ctrl := NewSubscriptionController(service.NewSubscriptionService(&controllerSubscriptionGateway{}, &controllerSession{authenticated: true}))
	e := echo.New()
	rec := httptest.NewRecorder()

	_ = ctrl.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/subscriptions", nil), rec))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload types.SubscriptionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(payload.Subscriptions) != 1 || payload.Subscriptions[0].ID != "s1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestCancelSubscriptionConflict(t *testing.T) {
	gw := &controllerSubscriptionGateway{cancelFn: func(context.Context, string) error {
		return apierror.FromStatus(http.StatusConflict, "Subscription is not active")
	}}
	ctrl := NewSubscriptionController(service.NewSubscriptionService(gw, &controllerSession{authenticated: true}))
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodPost, "/subscriptions/s1/cancel", nil), rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("s1")

	_ = ctrl.Cancel(ctx)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var payload types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload.Error != "Subscription is not active" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
}

func TestGetSubscriptionMissingID(t *testing.T) {
	ctrl := NewSubscriptionController(service.NewSubscriptionService(&controllerSubscriptionGateway{}, &controllerSession{authenticated: true}))
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/subscriptions/", nil), rec)

	_ = ctrl.Get(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
