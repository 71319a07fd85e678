package types

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/portal-payments/app/apierror"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Scope         string `json:"scope"`
	Authenticated bool   `json:"authenticated"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type PaymentEnvelopeResponse struct {
	Payment *PaymentStatus `json:"payment"`
}

type CreatePaymentResponse struct {
	Result *PaymentResult `json:"result"`
	Final  *PollView      `json:"final,omitempty"`
}

type PollView struct {
	PaymentID string         `json:"paymentId"`
	Outcome   string         `json:"outcome"`
	Attempts  int            `json:"attempts"`
	Payment   *PaymentStatus `json:"payment,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type PaymentMethodsResponse struct {
	Methods []PaymentMethodInfo `json:"methods"`
}

type SubscriptionsResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

type SubscriptionEnvelopeResponse struct {
	Subscription *Subscription `json:"subscription"`
}

type SessionView struct {
	Authenticated bool   `json:"authenticated"`
	Scope         string `json:"scope"`
	Subject       string `json:"subject,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role,omitempty"`
	IssuedAt      string `json:"issuedAt,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
}

type PathIDRequest struct {
	ID string
}

func NewPathIDRequestFromContext(ctx echo.Context) *PathIDRequest {
	return &PathIDRequest{ID: strings.TrimSpace(ctx.Param("id"))}
}

func (r *PathIDRequest) Validate() error {
	if r.ID == "" {
		return apierror.Validation("id", "id is required")
	}
	return nil
}
