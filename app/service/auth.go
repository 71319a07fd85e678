package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/types"
)

type authGateway interface {
	Role() string
	Login(ctx context.Context, req *types.LoginRequest) (*types.AuthResult, error)
	Register(ctx context.Context, req *types.RegisterRequest) (*types.AuthResult, error)
	Profile(ctx context.Context) (*entity.User, error)
	Callback(ctx context.Context, req *types.AuthCallbackRequest) (*types.AuthResult, error)
	ResendVerification(ctx context.Context, req *types.EmailRequest) (string, error)
	ForgotPassword(ctx context.Context, req *types.EmailRequest) (string, error)
	VerifyResetToken(ctx context.Context, req *types.ResetTokenRequest) (string, error)
	ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (string, error)
}

type sessionStore interface {
	SetSession(ctx context.Context, token string, user entity.User) error
	ClearSession(ctx context.Context) error
	RestoreSession(ctx context.Context) (*entity.Session, error)
	IsAuthenticated() bool
	Current() *entity.Session
}

type AuthService struct {
	gateway authGateway
	store   sessionStore
	logger  logrus.FieldLogger
}

func NewAuthService(gateway authGateway, store sessionStore) *AuthService {
	return &AuthService{
		gateway: gateway,
		store:   store,
		logger:  factory.NewModuleLogger("auth-service"),
	}
}

func (s *AuthService) Login(ctx context.Context, req *types.LoginRequest) (*entity.Session, error) {
	result, err := s.gateway.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.RequiresVerification {
		return nil, ErrVerificationRequired
	}
	return s.establish(ctx, result)
}

// Register creates the account. A nil session means the backend wants the
// email verified before the first login.
func (s *AuthService) Register(ctx context.Context, req *types.RegisterRequest) (*entity.Session, error) {
	result, err := s.gateway.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.RequiresVerification || strings.TrimSpace(result.Token) == "" {
		s.logger.Info("Registration accepted, waiting for verification")
		return nil, nil
	}
	return s.establish(ctx, result)
}

// ConfirmEmail completes registration from the tokens of a confirmation link
// and signs the owner in.
func (s *AuthService) ConfirmEmail(ctx context.Context, req *types.AuthCallbackRequest) (*entity.Session, error) {
	result, err := s.gateway.Callback(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, result)
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	return s.gateway.ResendVerification(ctx, &types.EmailRequest{Email: email})
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.gateway.ForgotPassword(ctx, &types.EmailRequest{Email: email})
}

func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	return s.gateway.VerifyResetToken(ctx, &types.ResetTokenRequest{AccessToken: token})
}

// ResetPassword sets a new password from a reset link. The current session,
// if any, is left alone.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (string, error) {
	return s.gateway.ResetPassword(ctx, &types.ResetPasswordRequest{AccessToken: token, Password: password})
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.store.ClearSession(ctx)
}

func (s *AuthService) Restore(ctx context.Context) (*entity.Session, error) {
	return s.store.RestoreSession(ctx)
}

// Whoami returns the current session. With refresh, owners reload their
// profile and the stored user is replaced.
func (s *AuthService) Whoami(ctx context.Context, refresh bool) (*entity.Session, error) {
	current := s.store.Current()
	if current == nil {
		return nil, ErrNotAuthenticated
	}
	if !refresh || s.gateway.Role() != entity.RoleOwner {
		return current, nil
	}

	user, err := s.gateway.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role == "" {
		user.Role = entity.RoleOwner
	}
	if err := s.store.SetSession(ctx, current.Token, *user); err != nil {
		return nil, err
	}
	return s.store.Current(), nil
}

func (s *AuthService) IsAuthenticated() bool {
	return s.store.IsAuthenticated()
}

func (s *AuthService) Scope() string {
	return s.gateway.Role()
}

func (s *AuthService) establish(ctx context.Context, result *types.AuthResult) (*entity.Session, error) {
	if strings.TrimSpace(result.Token) == "" || result.User == nil || result.User.Subject() == "" {
		return nil, ErrInvalidAuthResponse
	}
	user := *result.User
	if user.Role == "" {
		user.Role = s.gateway.Role()
	}
	if err := s.store.SetSession(ctx, result.Token, user); err != nil {
		return nil, err
	}

	s.logger.WithField("subject", user.Subject()).Info("Session established")
	return s.store.Current(), nil
}
