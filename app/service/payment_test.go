package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/types"
	"github.com/vibast-solutions/portal-payments/config"
)

type servicePaymentGateway struct {
	createFn  func(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error)
	statusFn  func(ctx context.Context, paymentID string) (*types.PaymentStatus, error)
	historyFn func(ctx context.Context, opts types.HistoryOptions) (*types.HistoryPage, error)

	statusCalls []string
}

func (g *servicePaymentGateway) CreateSubscriptionPayment(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error) {
	return g.createFn(ctx, req)
}

func (g *servicePaymentGateway) GetPaymentStatus(ctx context.Context, paymentID string) (*types.PaymentStatus, error) {
	g.statusCalls = append(g.statusCalls, paymentID)
	return g.statusFn(ctx, paymentID)
}

func (g *servicePaymentGateway) GetPaymentHistory(ctx context.Context, opts types.HistoryOptions) (*types.HistoryPage, error) {
	return g.historyFn(ctx, opts)
}

func (g *servicePaymentGateway) GetPaymentMethods(context.Context) ([]types.PaymentMethodInfo, error) {
	return []types.PaymentMethodInfo{{Type: "card"}}, nil
}

func (g *servicePaymentGateway) GetPublicKey(context.Context) (string, error) {
	return "pkey_test", nil
}

type servicePoller struct {
	calls  int
	pollFn func(ctx context.Context, paymentID string) (*poller.Result, error)
}

func (p *servicePoller) Poll(ctx context.Context, paymentID string) (*poller.Result, error) {
	p.calls++
	return p.pollFn(ctx, paymentID)
}

type serviceSession struct {
	authenticated bool
}

func (s *serviceSession) IsAuthenticated() bool {
	return s.authenticated
}

func promptPayRequest() *types.CreatePaymentRequest {
	return &types.CreatePaymentRequest{PlanID: "plan-1", PaymentMethod: types.PaymentMethodPromptPay}
}

func TestCheckoutRequiresSession(t *testing.T) {
	gw := &servicePaymentGateway{createFn: func(context.Context, *types.CreatePaymentRequest) (*types.PaymentResult, error) {
		t.Fatal("gateway must not be called without a session")
		return nil, nil
	}}
	svc := NewPaymentService(gw, &servicePoller{}, &serviceSession{}, config.PaymentsConfig{})

	_, err := svc.Checkout(context.Background(), promptPayRequest())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCheckoutPollsPendingPayment(t *testing.T) {
	gw := &servicePaymentGateway{createFn: func(context.Context, *types.CreatePaymentRequest) (*types.PaymentResult, error) {
		return &types.PaymentResult{PaymentID: "pay-1", Status: types.StatusPending, QRCodeURL: "https://qr"}, nil
	}}
	pl := &servicePoller{pollFn: func(_ context.Context, paymentID string) (*poller.Result, error) {
		if paymentID != "pay-1" {
			t.Fatalf("unexpected payment id %q", paymentID)
		}
		return &poller.Result{
			PaymentID: paymentID,
			Attempts:  3,
			Outcome:   poller.OutcomeSuccessful,
			Status:    &types.PaymentStatus{ID: paymentID, Status: types.StatusSuccessful},
		}, nil
	}}
	svc := NewPaymentService(gw, pl, &serviceSession{authenticated: true}, config.PaymentsConfig{})

	out, err := svc.Checkout(context.Background(), promptPayRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pl.calls != 1 || out.Poll == nil || out.Poll.Outcome != poller.OutcomeSuccessful {
		t.Fatalf("unexpected checkout result: %+v", out)
	}
}

func TestCheckoutSkipsPollingForTerminalReply(t *testing.T) {
	cases := []struct {
		status  types.Status
		wantErr bool
	}{
		{status: types.StatusSuccessful},
		{status: types.StatusFailed, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			gw := &servicePaymentGateway{createFn: func(context.Context, *types.CreatePaymentRequest) (*types.PaymentResult, error) {
				return &types.PaymentResult{PaymentID: "pay-1", Status: tc.status}, nil
			}}
			pl := &servicePoller{}
			svc := NewPaymentService(gw, pl, &serviceSession{authenticated: true}, config.PaymentsConfig{})

			out, err := svc.Checkout(context.Background(), &types.CreatePaymentRequest{
				PlanID:        "plan-1",
				PaymentMethod: types.PaymentMethodCard,
				PaymentSource: "tokn_test_1",
			})
			if pl.calls != 0 {
				t.Fatalf("did not expect polling, got %d calls", pl.calls)
			}
			if out == nil || out.Payment.PaymentID != "pay-1" {
				t.Fatalf("unexpected result: %+v", out)
			}
			var payErr *poller.PaymentError
			if got := errors.As(err, &payErr); got != tc.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckoutSurfacesValidationError(t *testing.T) {
	gw := &servicePaymentGateway{createFn: func(context.Context, *types.CreatePaymentRequest) (*types.PaymentResult, error) {
		return nil, apierror.Validation("paymentSource", "Payment source is required for card payments")
	}}
	pl := &servicePoller{}
	svc := NewPaymentService(gw, pl, &serviceSession{authenticated: true}, config.PaymentsConfig{})

	_, err := svc.Checkout(context.Background(), &types.CreatePaymentRequest{PlanID: "plan-1", PaymentMethod: types.PaymentMethodCard})
	if !errors.Is(err, apierror.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if pl.calls != 0 {
		t.Fatalf("did not expect polling")
	}
}

func TestGetPaymentHistoryUsesConfiguredLimit(t *testing.T) {
	var got types.HistoryOptions
	gw := &servicePaymentGateway{historyFn: func(_ context.Context, opts types.HistoryOptions) (*types.HistoryPage, error) {
		got = opts
		return &types.HistoryPage{Items: []types.PaymentHistoryItem{}}, nil
	}}
	svc := NewPaymentService(gw, &servicePoller{}, &serviceSession{authenticated: true}, config.PaymentsConfig{HistoryLimit: 50})

	if _, err := svc.GetPaymentHistory(context.Background(), types.HistoryOptions{Offset: 10}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Limit != 50 || got.Offset != 10 {
		t.Fatalf("unexpected options: %+v", got)
	}
}

func TestRunReconcileBatchReportsChanges(t *testing.T) {
	var historyOpts types.HistoryOptions
	gw := &servicePaymentGateway{
		historyFn: func(_ context.Context, opts types.HistoryOptions) (*types.HistoryPage, error) {
			historyOpts = opts
			return &types.HistoryPage{Items: []types.PaymentHistoryItem{
				{ID: "pay-1", Status: types.StatusPending, PlanName: "Gold"},
				{ID: "pay-2", Status: types.StatusPending},
				{ID: "pay-3", Status: types.StatusPending},
				{ID: "pay-4", Status: types.StatusSuccessful},
			}}, nil
		},
		statusFn: func(_ context.Context, paymentID string) (*types.PaymentStatus, error) {
			switch paymentID {
			case "pay-1":
				return &types.PaymentStatus{ID: paymentID, Status: types.StatusSuccessful}, nil
			case "pay-2":
				return nil, apierror.FromStatus(502, "")
			default:
				return &types.PaymentStatus{ID: paymentID, Status: types.StatusPending}, nil
			}
		},
	}
	svc := NewPaymentService(gw, &servicePoller{}, &serviceSession{authenticated: true}, config.PaymentsConfig{})

	report, err := svc.RunReconcileBatch(context.Background())
	if !errors.Is(err, apierror.ErrServer) {
		t.Fatalf("expected first error to be returned, got %v", err)
	}
	if historyOpts.Status != types.StatusPending || historyOpts.Limit != types.DefaultHistoryLimit {
		t.Fatalf("unexpected history options: %+v", historyOpts)
	}
	if report.Checked != 3 || len(gw.statusCalls) != 3 {
		t.Fatalf("expected 3 checks, got report=%d calls=%v", report.Checked, gw.statusCalls)
	}
	if len(report.Changes) != 1 || report.Changes[0].PaymentID != "pay-1" || report.Changes[0].NewStatus != types.StatusSuccessful {
		t.Fatalf("unexpected changes: %+v", report.Changes)
	}
}

type serviceAuthGateway struct {
	role       string
	loginFn    func(ctx context.Context, req *types.LoginRequest) (*types.AuthResult, error)
	profileFn  func(ctx context.Context) (*entity.User, error)
	callbackFn func(ctx context.Context, req *types.AuthCallbackRequest) (*types.AuthResult, error)
	resetFn    func(ctx context.Context, req *types.ResetPasswordRequest) (string, error)
}

func (g *serviceAuthGateway) Role() string {
	return g.role
}

func (g *serviceAuthGateway) Login(ctx context.Context, req *types.LoginRequest) (*types.AuthResult, error) {
	return g.loginFn(ctx, req)
}

func (g *serviceAuthGateway) Register(ctx context.Context, req *types.RegisterRequest) (*types.AuthResult, error) {
	return &types.AuthResult{Success: true, RequiresVerification: true}, nil
}

func (g *serviceAuthGateway) Profile(ctx context.Context) (*entity.User, error) {
	return g.profileFn(ctx)
}

func (g *serviceAuthGateway) Callback(ctx context.Context, req *types.AuthCallbackRequest) (*types.AuthResult, error) {
	return g.callbackFn(ctx, req)
}

func (g *serviceAuthGateway) ResendVerification(context.Context, *types.EmailRequest) (string, error) {
	return "Verification email sent", nil
}

func (g *serviceAuthGateway) ForgotPassword(context.Context, *types.EmailRequest) (string, error) {
	return "Password reset email sent", nil
}

func (g *serviceAuthGateway) VerifyResetToken(context.Context, *types.ResetTokenRequest) (string, error) {
	return "Reset link is valid", nil
}

func (g *serviceAuthGateway) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (string, error) {
	return g.resetFn(ctx, req)
}

type serviceSessionStore struct {
	current  *entity.Session
	setCalls int
	setErr   error
}

func (s *serviceSessionStore) SetSession(_ context.Context, token string, user entity.User) error {
	s.setCalls++
	if s.setErr != nil {
		return s.setErr
	}
	s.current = &entity.Session{Subject: user.Subject(), Token: token, User: user}
	return nil
}

func (s *serviceSessionStore) ClearSession(context.Context) error {
	s.current = nil
	return nil
}

func (s *serviceSessionStore) RestoreSession(context.Context) (*entity.Session, error) {
	return s.current, nil
}

func (s *serviceSessionStore) IsAuthenticated() bool {
	return s.current != nil
}

func (s *serviceSessionStore) Current() *entity.Session {
	return s.current
}

func TestLoginEstablishesSession(t *testing.T) {
	gw := &serviceAuthGateway{role: entity.RoleMember, loginFn: func(context.Context, *types.LoginRequest) (*types.AuthResult, error) {
		return &types.AuthResult{Success: true, Token: "jwt-1", User: &entity.User{ID: "m1", Email: "a@b.co"}}, nil
	}}
	store := &serviceSessionStore{}
	svc := NewAuthService(gw, store)

	session, err := svc.Login(context.Background(), &types.LoginRequest{Email: "a@b.co", Password: "secret1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.Subject != "m1" || session.User.Role != entity.RoleMember || !svc.IsAuthenticated() {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestLoginRejectsIncompleteReply(t *testing.T) {
	gw := &serviceAuthGateway{role: entity.RoleMember, loginFn: func(context.Context, *types.LoginRequest) (*types.AuthResult, error) {
		return &types.AuthResult{Success: true, Token: "jwt-1"}, nil
	}}
	store := &serviceSessionStore{}
	svc := NewAuthService(gw, store)

	_, err := svc.Login(context.Background(), &types.LoginRequest{Email: "a@b.co", Password: "secret1"})
	if !errors.Is(err, ErrInvalidAuthResponse) {
		t.Fatalf("expected ErrInvalidAuthResponse, got %v", err)
	}
	if store.setCalls != 0 {
		t.Fatalf("did not expect session to be stored")
	}
}

func TestLoginRequiresVerification(t *testing.T) {
	gw := &serviceAuthGateway{role: entity.RoleMember, loginFn: func(context.Context, *types.LoginRequest) (*types.AuthResult, error) {
		return &types.AuthResult{Success: true, RequiresVerification: true}, nil
	}}
	svc := NewAuthService(gw, &serviceSessionStore{})

	if _, err := svc.Login(context.Background(), &types.LoginRequest{Email: "a@b.co", Password: "secret1"}); !errors.Is(err, ErrVerificationRequired) {
		t.Fatalf("expected ErrVerificationRequired, got %v", err)
	}
}

func TestRegisterAwaitingVerification(t *testing.T) {
	svc := NewAuthService(&serviceAuthGateway{role: entity.RoleMember}, &serviceSessionStore{})

	session, err := svc.Register(context.Background(), &types.RegisterRequest{})
	if err != nil || session != nil {
		t.Fatalf("expected no session and no error, got %+v %v", session, err)
	}
}

func TestWhoamiRefreshesOwnerProfile(t *testing.T) {
	gw := &serviceAuthGateway{role: entity.RoleOwner, profileFn: func(context.Context) (*entity.User, error) {
		return &entity.User{OwnerID: "o1", OrgName: "New Gym", Email: "o@gym.co"}, nil
	}}
	store := &serviceSessionStore{current: &entity.Session{Subject: "o1", Token: "jwt-1", User: entity.User{OwnerID: "o1", OrgName: "Gym"}}}
	svc := NewAuthService(gw, store)

	session, err := svc.Whoami(context.Background(), true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.Token != "jwt-1" || session.User.OrgName != "New Gym" || session.User.Role != entity.RoleOwner {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestWhoamiWithoutSession(t *testing.T) {
	svc := NewAuthService(&serviceAuthGateway{role: entity.RoleMember}, &serviceSessionStore{})

	if _, err := svc.Whoami(context.Background(), false); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
