package gateway

import (
	"context"
	"net/http"

	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/transport"
	"github.com/vibast-solutions/portal-payments/app/types"
)

// AuthClient talks to the auth endpoints of one portal: owners under
// /api/auth, members under /api/member/auth.
type AuthClient struct {
	api    Doer
	role   string
	prefix string
}

func NewAuthClient(api Doer, role string) *AuthClient {
	prefix := "/api/member/auth"
	if role == entity.RoleOwner {
		prefix = "/api/auth"
	}
	return &AuthClient{api: api, role: role, prefix: prefix}
}

func (c *AuthClient) Role() string {
	return c.role
}

func (c *AuthClient) Login(ctx context.Context, req *types.LoginRequest) (*types.AuthResult, error) {
	if req == nil {
		return nil, apierror.Validation("", "login request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.issue(ctx, "/login", req, "Login failed. Please try again.")
}

func (c *AuthClient) Register(ctx context.Context, req *types.RegisterRequest) (*types.AuthResult, error) {
	if req == nil {
		return nil, apierror.Validation("", "registration request is required")
	}
	req.Normalize()
	if err := req.Validate(c.role); err != nil {
		return nil, err
	}
	return c.issue(ctx, "/register", req, "Registration failed")
}

// Profile is only served to owners; members keep the user returned at login.
func (c *AuthClient) Profile(ctx context.Context) (*entity.User, error) {
	if c.role != entity.RoleOwner {
		return nil, apierror.Validation("scope", "profile is only available to owners")
	}
	resp, err := c.api.Do(ctx, transport.Request{Path: c.prefix + "/profile"})
	if err != nil {
		return nil, err
	}

	var body struct {
		User *entity.User `json:"user"`
	}
	if err := resp.DecodeRaw(&body); err == nil && body.User != nil {
		return body.User, nil
	}
	var user entity.User
	if err := resp.Decode(&user); err != nil || user.Subject() == "" {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Failed to load profile"}
	}
	return &user, nil
}

// ResendVerification asks the backend to send the confirmation email again.
func (c *AuthClient) ResendVerification(ctx context.Context, req *types.EmailRequest) (string, error) {
	if err := c.requireOwner("resend-verification"); err != nil {
		return "", err
	}
	if req == nil {
		return "", apierror.Validation("email", "Email is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	return c.acknowledge(ctx, "/resend-verification", req, "Verification email sent")
}

func (c *AuthClient) ForgotPassword(ctx context.Context, req *types.EmailRequest) (string, error) {
	if err := c.requireOwner("forgot-password"); err != nil {
		return "", err
	}
	if req == nil {
		return "", apierror.Validation("email", "Email is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}
	return c.acknowledge(ctx, "/forgot-password", req, "Password reset email sent")
}

// VerifyResetToken checks the token of a password reset link before the new
// password is asked for.
func (c *AuthClient) VerifyResetToken(ctx context.Context, req *types.ResetTokenRequest) (string, error) {
	if err := c.requireOwner("verify-reset-token"); err != nil {
		return "", err
	}
	if req == nil {
		return "", apierror.Validation("access_token", "Invalid reset link")
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	return c.acknowledge(ctx, "/verify-reset-token", req, "Reset link is valid")
}

func (c *AuthClient) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (string, error) {
	if err := c.requireOwner("reset-password"); err != nil {
		return "", err
	}
	if req == nil {
		return "", apierror.Validation("access_token", "Invalid reset link")
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	return c.acknowledge(ctx, "/reset-password", req, "Password updated")
}

// Callback exchanges email-confirmation tokens for a session, like Login.
func (c *AuthClient) Callback(ctx context.Context, req *types.AuthCallbackRequest) (*types.AuthResult, error) {
	if err := c.requireOwner("callback"); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apierror.Validation("access_token", "Access token is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.issue(ctx, "/callback", req, "Email confirmation failed")
}

func (c *AuthClient) requireOwner(operation string) error {
	if c.role != entity.RoleOwner {
		return apierror.Validationf("scope", "%s is only available to owners", operation)
	}
	return nil
}

func (c *AuthClient) acknowledge(ctx context.Context, path string, body interface{}, fallback string) (string, error) {
	resp, err := c.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.prefix + path,
		Body:   body,
	})
	if err != nil {
		return "", err
	}
	return replyMessage(resp, fallback), nil
}

func (c *AuthClient) issue(ctx context.Context, path string, body interface{}, fallback string) (*types.AuthResult, error) {
	resp, err := c.api.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   c.prefix + path,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var result types.AuthResult
	if err := resp.DecodeRaw(&result); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: fallback, Err: err}
	}
	if result.Token == "" && resp.HasData() {
		var nested types.AuthResult
		if err := resp.Decode(&nested); err == nil {
			result.Token = nested.Token
			if nested.User != nil {
				result.User = nested.User
			}
		}
	}
	result.Success = true
	if result.Message == "" {
		result.Message = resp.Message
	}
	return &result, nil
}
