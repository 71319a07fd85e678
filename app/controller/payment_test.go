package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/types"
	"github.com/vibast-solutions/portal-payments/config"
)

type controllerPaymentGateway struct {
	createFn  func(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error)
	statusFn  func(ctx context.Context, paymentID string) (*types.PaymentStatus, error)
	historyFn func(ctx context.Context, opts types.HistoryOptions) (*types.HistoryPage, error)
}

func (g *controllerPaymentGateway) CreateSubscriptionPayment(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error) {
	if g.createFn != nil {
		return g.createFn(ctx, req)
	}
	return &types.PaymentResult{PaymentID: "pay-1", Status: types.StatusPending}, nil
}

func (g *controllerPaymentGateway) GetPaymentStatus(ctx context.Context, paymentID string) (*types.PaymentStatus, error) {
	if g.statusFn != nil {
		return g.statusFn(ctx, paymentID)
	}
	return &types.PaymentStatus{ID: paymentID, Status: types.StatusPending}, nil
}

func (g *controllerPaymentGateway) GetPaymentHistory(ctx context.Context, opts types.HistoryOptions) (*types.HistoryPage, error) {
	if g.historyFn != nil {
		return g.historyFn(ctx, opts)
	}
	return &types.HistoryPage{Items: []types.PaymentHistoryItem{}, Limit: opts.Limit}, nil
}

func (g *controllerPaymentGateway) GetPaymentMethods(context.Context) ([]types.PaymentMethodInfo, error) {
	return []types.PaymentMethodInfo{{Type: "card", Enabled: true}, {Type: "promptpay", Enabled: true}}, nil
}

func (g *controllerPaymentGateway) GetPublicKey(context.Context) (string, error) {
	return "pkey_test_1", nil
}

type controllerPoller struct {
	pollFn func(ctx context.Context, paymentID string) (*poller.Result, error)
}

func (p *controllerPoller) Poll(ctx context.Context, paymentID string) (*poller.Result, error) {
	if p.pollFn != nil {
		return p.pollFn(ctx, paymentID)
	}
	return &poller.Result{PaymentID: paymentID, Attempts: 1, Outcome: poller.OutcomeSuccessful, Status: &types.PaymentStatus{ID: paymentID, Status: types.StatusSuccessful}}, nil
}

type controllerSession struct {
	authenticated bool
}

func (s *controllerSession) IsAuthenticated() bool {
	return s.authenticated
}

func newPaymentControllerForTest(gw *controllerPaymentGateway, pl *controllerPoller, authenticated bool) *PaymentController {
	return NewPaymentController(service.NewPaymentService(gw, pl, &controllerSession{authenticated: authenticated}, config.PaymentsConfig{}))
}

func TestCreatePaymentBadBody(t *testing.T) {
	ctrl := newPaymentControllerForTest(&controllerPaymentGateway{}, &controllerPoller{}, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString("{bad"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.CreatePayment(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePaymentValidationError(t *testing.T) {
	gw := &controllerPaymentGateway{createFn: func(_ context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error) {
		return nil, req.Validate()
	}}
	ctrl := newPaymentControllerForTest(gw, &controllerPoller{}, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(`{"planId":"plan-1","paymentMethod":"card"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	_ = ctrl.CreatePayment(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	var payload types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Field != "paymentSource" || payload.Error != "Payment source is required for card payments" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestCreatePaymentRequiresSession(t *testing.T) {
	ctrl := newPaymentControllerForTest(&controllerPaymentGateway{}, &controllerPoller{}, false)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(`{"planId":"plan-1","paymentMethod":"promptpay"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	_ = ctrl.CreatePayment(ctx)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreatePaymentAndWait(t *testing.T) {
	ctrl := newPaymentControllerForTest(&controllerPaymentGateway{}, &controllerPoller{}, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments?wait=true", bytes.NewBufferString(`{"planId":"plan-1","paymentMethod":"promptpay"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	_ = ctrl.CreatePayment(ctx)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var payload types.CreatePaymentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Result == nil || payload.Result.PaymentID != "pay-1" {
		t.Fatalf("unexpected result: %+v", payload.Result)
	}
	if payload.Final == nil || payload.Final.Outcome != "successful" {
		t.Fatalf("unexpected final: %+v", payload.Final)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	gw := &controllerPaymentGateway{statusFn: func(context.Context, string) (*types.PaymentStatus, error) {
		return nil, apierror.FromStatus(http.StatusNotFound, "Payment not found")
	}}
	ctrl := newPaymentControllerForTest(gw, &controllerPoller{}, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/payments/9", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("9")

	_ = ctrl.GetPayment(ctx)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWaitPaymentTimeoutIsOutcome(t *testing.T) {
	pl := &controllerPoller{pollFn: func(_ context.Context, paymentID string) (*poller.Result, error) {
		return &poller.Result{PaymentID: paymentID, Attempts: 60, Outcome: poller.OutcomeTimedOut}, poller.ErrVerificationTimeout
	}}
	ctrl := newPaymentControllerForTest(&controllerPaymentGateway{}, pl, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/payments/pay-1/wait", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("pay-1")

	_ = ctrl.WaitPayment(ctx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload types.PollView
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Outcome != "timed_out" || payload.Attempts != 60 || payload.Error == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestWaitPaymentFetchFailure(t *testing.T) {
	pl := &controllerPoller{pollFn: func(_ context.Context, paymentID string) (*poller.Result, error) {
		return &poller.Result{PaymentID: paymentID, Attempts: 3, Outcome: poller.OutcomeErrored},
			&poller.FetchError{PaymentID: paymentID, Attempts: 3, Err: apierror.FromStatus(http.StatusBadGateway, "")}
	}}
	ctrl := newPaymentControllerForTest(&controllerPaymentGateway{}, pl, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/payments/pay-1/wait", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("pay-1")

	_ = ctrl.WaitPayment(ctx)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestListPaymentsBadQuery(t *testing.T) {
	ctrl := newPaymentControllerForTest(&controllerPaymentGateway{}, &controllerPoller{}, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/payments?limit=abc", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	_ = ctrl.ListPayments(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListPaymentsSuccess(t *testing.T) {
	var got types.HistoryOptions
	gw := &controllerPaymentGateway{historyFn: func(_ context.Context, opts types.HistoryOptions) (*types.HistoryPage, error) {
		got = opts
		return &types.HistoryPage{Items: []types.PaymentHistoryItem{{ID: "pay-1"}}, Total: 1, Limit: opts.Limit}, nil
	}}
	ctrl := newPaymentControllerForTest(gw, &controllerPoller{}, true)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/payments?limit=5&offset=10&status=Pending", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	_ = ctrl.ListPayments(ctx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got.Limit != 5 || got.Offset != 10 || got.Status != types.StatusPending {
		t.Fatalf("unexpected options: %+v", got)
	}
}

func TestPublicKeyAndMethods(t *testing.T) {
	ctrl := newPaymentControllerForTest(&controllerPaymentGateway{}, &controllerPoller{}, false)
	e := echo.New()

	rec := httptest.NewRecorder()
	_ = ctrl.PublicKey(e.NewContext(httptest.NewRequest(http.MethodGet, "/payments/key", nil), rec))
	var key types.PublicKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &key); err != nil || key.PublicKey != "pkey_test_1" {
		t.Fatalf("unexpected key response: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	_ = ctrl.ListMethods(e.NewContext(httptest.NewRequest(http.MethodGet, "/payments/methods", nil), rec))
	var methods types.PaymentMethodsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &methods); err != nil || len(methods.Methods) != 2 {
		t.Fatalf("unexpected methods response: %s", rec.Body.String())
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not authenticated", err: service.ErrNotAuthenticated, want: http.StatusUnauthorized},
		{name: "owner scope", err: service.ErrOwnerScopeRequired, want: http.StatusForbidden},
		{name: "auth", err: apierror.Auth(http.StatusUnauthorized, apierror.MsgAuthFailed), want: http.StatusUnauthorized},
		{name: "conflict", err: apierror.FromStatus(http.StatusConflict, ""), want: http.StatusConflict},
		{name: "rate limit", err: apierror.FromStatus(http.StatusTooManyRequests, ""), want: http.StatusTooManyRequests},
		{name: "request keeps status", err: apierror.FromStatus(http.StatusUnprocessableEntity, ""), want: http.StatusUnprocessableEntity},
		{name: "timeout", err: apierror.Network(apierror.MsgRequestTimeout, nil), want: http.StatusGatewayTimeout},
		{name: "network", err: apierror.Network(apierror.MsgNetworkFailed, nil), want: http.StatusBadGateway},
		{name: "payment failed", err: &poller.PaymentError{Status: types.StatusFailed}, want: http.StatusPaymentRequired},
		{name: "other", err: context.DeadlineExceeded, want: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorStatus(tc.err); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

type controllerAuthGateway struct {
	loginFn func(ctx context.Context, req *types.LoginRequest) (*types.AuthResult, error)
}

func (g *controllerAuthGateway) Role() string {
	return entity.RoleMember
}

func (g *controllerAuthGateway) Login(ctx context.Context, req *types.LoginRequest) (*types.AuthResult, error) {
	return g.loginFn(ctx, req)
}

func (g *controllerAuthGateway) Register(context.Context, *types.RegisterRequest) (*types.AuthResult, error) {
	return &types.AuthResult{}, nil
}

func (g *controllerAuthGateway) Profile(context.Context) (*entity.User, error) {
	return nil, apierror.Validation("scope", "profile is only available to owners")
}

func (g *controllerAuthGateway) Callback(context.Context, *types.AuthCallbackRequest) (*types.AuthResult, error) {
	return nil, apierror.Validation("scope", "callback is only available to owners")
}

func (g *controllerAuthGateway) ResendVerification(context.Context, *types.EmailRequest) (string, error) {
	return "", nil
}

func (g *controllerAuthGateway) ForgotPassword(context.Context, *types.EmailRequest) (string, error) {
	return "", nil
}

func (g *controllerAuthGateway) VerifyResetToken(context.Context, *types.ResetTokenRequest) (string, error) {
	return "", nil
}

func (g *controllerAuthGateway) ResetPassword(context.Context, *types.ResetPasswordRequest) (string, error) {
	return "", nil
}

type controllerSessionStore struct {
	current *entity.Session
}

func (s *controllerSessionStore) SetSession(_ context.Context, token string, user entity.User) error {
	s.current = &entity.Session{Subject: user.Subject(), Token: token, User: user}
	return nil
}

func (s *controllerSessionStore) ClearSession(context.Context) error {
	s.current = nil
	return nil
}

func (s *controllerSessionStore) RestoreSession(context.Context) (*entity.Session, error) {
	return s.current, nil
}

func (s *controllerSessionStore) IsAuthenticated() bool {
	return s.current != nil
}

func (s *controllerSessionStore) Current() *entity.Session {
	return s.current
}

func TestLoginAndSession(t *testing.T) {
	gw := &controllerAuthGateway{loginFn: func(_ context.Context, req *types.LoginRequest) (*types.AuthResult, error) {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return &types.AuthResult{Success: true, Token: "jwt-1", User: &entity.User{ID: "m1", Email: req.Email, FullName: "Jane"}}, nil
	}}
	store := &controllerSessionStore{}
	ctrl := NewAuthController(service.NewAuthService(gw, store))
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"Jane@Example.com","password":"secret1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = ctrl.Login(e.NewContext(req, rec))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	_ = ctrl.Session(e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/session", nil), rec))
	var view types.SessionView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !view.Authenticated || view.Subject != "m1" || view.Email != "jane@example.com" || view.Name != "Jane" {
		t.Fatalf("unexpected view: %+v", view)
	}

	rec = httptest.NewRecorder()
	_ = ctrl.Logout(e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec))
	if rec.Code != http.StatusOK || store.current != nil {
		t.Fatalf("expected session to be cleared, code=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	_ = ctrl.Session(e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/session", nil), rec))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestLoginInvalidCredentialsFormat(t *testing.T) {
	gw := &controllerAuthGateway{loginFn: func(_ context.Context, req *types.LoginRequest) (*types.AuthResult, error) {
		return nil, req.Validate()
	}}
	ctrl := NewAuthController(service.NewAuthService(gw, &controllerSessionStore{}))
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"nope","password":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = ctrl.Login(e.NewContext(req, rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	ctrl := NewAuthController(service.NewAuthService(&controllerAuthGateway{}, &controllerSessionStore{}))
	e := echo.New()
	rec := httptest.NewRecorder()

	_ = ctrl.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec))
	var payload types.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload.Status != "ok" || payload.Scope != entity.RoleMember || payload.Authenticated {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
