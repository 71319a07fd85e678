package types

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/portal-payments/app/apierror"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cardTokenPattern = regexp.MustCompile(`^tokn_[A-Za-z0-9_]+$`)
)

func NewCreatePaymentRequestFromContext(ctx echo.Context) (*CreatePaymentRequest, error) {
	var body CreatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Normalize()
	return &body, nil
}

func (r *CreatePaymentRequest) Normalize() {
	r.PlanID = strings.TrimSpace(r.PlanID)
	r.PaymentMethod = PaymentMethod(strings.ToLower(strings.TrimSpace(string(r.PaymentMethod))))
	r.PaymentSource = strings.TrimSpace(r.PaymentSource)
	if r.CustomerData != nil {
		r.CustomerData.Name = strings.TrimSpace(r.CustomerData.Name)
		r.CustomerData.Email = strings.ToLower(strings.TrimSpace(r.CustomerData.Email))
		r.CustomerData.Phone = strings.TrimSpace(r.CustomerData.Phone)
	}
}

// Validate runs before the request reaches the network.
func (r *CreatePaymentRequest) Validate() error {
	if strings.TrimSpace(r.PlanID) == "" {
		return apierror.Validation("planId", "Plan ID is required")
	}
	switch r.PaymentMethod {
	case PaymentMethodCard:
		source := strings.TrimSpace(r.PaymentSource)
		if source == "" {
			return apierror.Validation("paymentSource", "Payment source is required for card payments")
		}
		if !cardTokenPattern.MatchString(source) {
			return apierror.Validation("paymentSource", "Invalid card token")
		}
	case PaymentMethodPromptPay:
	default:
		return apierror.Validation("paymentMethod", "Payment method must be card or promptpay")
	}
	if r.CustomerData != nil {
		if email := strings.TrimSpace(r.CustomerData.Email); email != "" && !ValidEmail(email) {
			return apierror.Validation("customerData.email", "Please enter a valid email address")
		}
	}
	return nil
}

func ValidatePaymentID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apierror.Validation("paymentId", "Payment ID is required")
	}
	return nil
}

func NewHistoryOptionsFromContext(ctx echo.Context) (*HistoryOptions, error) {
	opts := &HistoryOptions{
		Status: Status(strings.ToLower(strings.TrimSpace(ctx.QueryParam("status")))),
	}
	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			return nil, err
		}
		opts.Limit = limit
	}
	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.Atoi(offsetRaw)
		if err != nil {
			return nil, err
		}
		opts.Offset = offset
	}
	return opts, nil
}

// Validate fills the default limit and rejects out-of-range values.
func (o *HistoryOptions) Validate() error {
	if o.Limit == 0 {
		o.Limit = DefaultHistoryLimit
	}
	if o.Limit < 0 || o.Limit > MaxHistoryLimit {
		return apierror.Validationf("limit", "limit must be between 1 and %d", MaxHistoryLimit)
	}
	if o.Offset < 0 {
		return apierror.Validation("offset", "offset must be >= 0")
	}
	if o.Status != "" && !o.Status.IsKnown() {
		return apierror.Validation("status", "invalid status")
	}
	return nil
}

func (o *HistoryOptions) Query() url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(o.Limit))
	q.Set("offset", strconv.Itoa(o.Offset))
	if o.Status != "" {
		q.Set("status", string(o.Status))
	}
	return q
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
