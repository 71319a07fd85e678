package types

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/entity"
)

const MinPasswordLength = 6

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Normalize()
	return &body, nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return apierror.Validation("email", "Email is required")
	}
	if strings.TrimSpace(r.Password) == "" {
		return apierror.Validation("password", "Password is required")
	}
	if !ValidEmail(r.Email) {
		return apierror.Validation("email", "Please enter a valid email address")
	}
	return nil
}

// RegisterRequest covers both portals: owners register an organization
// (org_name), members register a person (fullName).
type RegisterRequest struct {
	FullName    string `json:"fullName,omitempty"`
	OrgName     string `json:"org_name,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone,omitempty"`
	Description string `json:"description,omitempty"`
	ContactInfo string `json:"contact_info,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.OrgName = strings.TrimSpace(r.OrgName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	r.Description = strings.TrimSpace(r.Description)
	r.ContactInfo = strings.TrimSpace(r.ContactInfo)
}

func (r *RegisterRequest) Validate(role string) error {
	if role == entity.RoleOwner {
		if r.OrgName == "" {
			return apierror.Validation("org_name", "Organization name is required")
		}
	} else if r.FullName == "" {
		return apierror.Validation("fullName", "Full name is required")
	}
	if r.Email == "" {
		return apierror.Validation("email", "Email is required")
	}
	if !ValidEmail(r.Email) {
		return apierror.Validation("email", "Please enter a valid email address")
	}
	if len(r.Password) < MinPasswordLength {
		return apierror.Validationf("password", "Password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// AuthResult is the login/register reply. Older deployments put token and
// user at the top level, newer ones inside data; both decode into this shape.
type AuthResult struct {
	Success              bool         `json:"success"`
	Message              string       `json:"message,omitempty"`
	Token                string       `json:"token,omitempty"`
	User                 *entity.User `json:"user,omitempty"`
	RequiresVerification bool         `json:"requiresVerification,omitempty"`
}
