package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/metrics"
	"github.com/vibast-solutions/portal-payments/app/transport"
	"github.com/vibast-solutions/portal-payments/app/types"
)

const (
	DefaultPaymentTimeout  = 60 * time.Second
	DefaultLongPollTimeout = 90 * time.Second
)

type PaymentConfig struct {
	// Timeout applies to payment creation and status calls.
	Timeout time.Duration
	// LongPollTimeout applies to the server-assisted poll endpoint.
	LongPollTimeout time.Duration
}

type PaymentClient struct {
	api    Doer
	cfg    PaymentConfig
	logger logrus.FieldLogger
}

func NewPaymentClient(api Doer, cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPaymentTimeout
	}
	if cfg.LongPollTimeout <= 0 {
		cfg.LongPollTimeout = DefaultLongPollTimeout
	}
	return &PaymentClient{
		api:    api,
		cfg:    cfg,
		logger: factory.NewModuleLogger("payments-gateway"),
	}
}

// CreateSubscriptionPayment validates req locally and only then submits it.
func (c *PaymentClient) CreateSubscriptionPayment(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error) {
	if req == nil {
		return nil, apierror.Validation("", "payment request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"plan_id":            req.PlanID,
		"payment_method":     req.PaymentMethod,
		"has_payment_source": req.PaymentSource != "",
	}).Info("Creating subscription payment")

	resp, err := c.api.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		Path:    "/api/payments/subscription",
		Body:    req,
		Timeout: c.cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := requireData(resp, "Payment creation failed"); err != nil {
		return nil, err
	}

	var result types.PaymentResult
	if err := resp.Decode(&result); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid payment response from server", Err: err}
	}
	if strings.TrimSpace(result.PaymentID) == "" {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Payment creation failed"}
	}
	result.Status = normalizeStatus(result.Status)

	metrics.IncPaymentCreated(string(req.PaymentMethod))
	return &result, nil
}

func (c *PaymentClient) GetPaymentStatus(ctx context.Context, paymentID string) (*types.PaymentStatus, error) {
	return c.fetchStatus(ctx, paymentID, "/api/payments/status/", c.cfg.Timeout)
}

// PollPaymentStatus asks the backend to hold the request until the payment
// changes or its own deadline passes.
func (c *PaymentClient) PollPaymentStatus(ctx context.Context, paymentID string) (*types.PaymentStatus, error) {
	return c.fetchStatus(ctx, paymentID, "/api/payments/poll/", c.cfg.LongPollTimeout)
}

func (c *PaymentClient) fetchStatus(ctx context.Context, paymentID, prefix string, timeout time.Duration) (*types.PaymentStatus, error) {
	if err := types.ValidatePaymentID(paymentID); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, transport.Request{
		Path:    prefix + escapeID(paymentID),
		Route:   prefix + ":id",
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := requireData(resp, "Failed to get payment status"); err != nil {
		return nil, err
	}

	var status types.PaymentStatus
	if err := resp.Decode(&status); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid payment status from server", Err: err}
	}
	status.Status = normalizeStatus(status.Status)
	if status.ID == "" {
		status.ID = strings.TrimSpace(paymentID)
	}
	return &status, nil
}

// GetPaymentHistory returns one page of history. A payload that is not a list
// yields an empty page.
func (c *PaymentClient) GetPaymentHistory(ctx context.Context, opts types.HistoryOptions) (*types.HistoryPage, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, transport.Request{
		Path:  "/api/payments/history",
		Query: opts.Query(),
	})
	if err != nil {
		return nil, err
	}

	page := &types.HistoryPage{
		Items:  []types.PaymentHistoryItem{},
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if !resp.DataIsArray() {
		if resp.HasData() {
			c.logger.WithField("payload", truncate(string(resp.Data), 200)).Warn("Payment history payload is not a list")
		}
		page.Total = opts.Offset
		return page, nil
	}

	if err := resp.Decode(&page.Items); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid payment history from server", Err: err}
	}
	for i := range page.Items {
		page.Items[i].Status = normalizeStatus(page.Items[i].Status)
	}

	seen := opts.Offset + len(page.Items)
	switch {
	case resp.Pagination != nil && resp.Pagination.Total != nil:
		page.Total = *resp.Pagination.Total
		page.HasMore = seen < page.Total
	default:
		page.Total = seen
		page.HasMore = len(page.Items) == opts.Limit
	}
	if resp.Pagination != nil && resp.Pagination.HasMore != nil {
		page.HasMore = *resp.Pagination.HasMore
	}
	return page, nil
}

func (c *PaymentClient) GetPaymentMethods(ctx context.Context) ([]types.PaymentMethodInfo, error) {
	resp, err := c.api.Do(ctx, transport.Request{Path: "/api/payments/methods"})
	if err != nil {
		return nil, err
	}

	methods := []types.PaymentMethodInfo{}
	switch {
	case resp.DataIsArray():
		if err := resp.Decode(&methods); err != nil {
			return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid payment methods from server", Err: err}
		}
	case resp.HasData():
		var wrapped struct {
			Methods []types.PaymentMethodInfo `json:"methods"`
		}
		if err := resp.Decode(&wrapped); err == nil && wrapped.Methods != nil {
			methods = wrapped.Methods
		}
	}
	return methods, nil
}

// GetPublicKey returns the gateway key used for card tokenization. The key is
// served next to the envelope members rather than inside data.
func (c *PaymentClient) GetPublicKey(ctx context.Context) (string, error) {
	resp, err := c.api.Do(ctx, transport.Request{Path: "/api/payments/omise-key"})
	if err != nil {
		return "", err
	}

	var body struct {
		PublicKey string          `json:"publicKey"`
		Data      json.RawMessage `json:"data"`
	}
	_ = resp.DecodeRaw(&body)
	key := strings.TrimSpace(body.PublicKey)
	if key == "" && resp.HasData() {
		var data struct {
			PublicKey string `json:"publicKey"`
		}
		if err := resp.Decode(&data); err == nil {
			key = strings.TrimSpace(data.PublicKey)
		}
	}
	if key == "" {
		return "", &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Failed to get Omise public key from server"}
	}
	return key, nil
}

func normalizeStatus(s types.Status) types.Status {
	return types.Status(strings.ToLower(strings.TrimSpace(string(s))))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
