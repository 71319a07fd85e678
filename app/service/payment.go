package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/types"
	"github.com/vibast-solutions/portal-payments/config"
)

type paymentGateway interface {
	CreateSubscriptionPayment(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error)
	GetPaymentStatus(ctx context.Context, paymentID string) (*types.PaymentStatus, error)
	GetPaymentHistory(ctx context.Context, opts types.HistoryOptions) (*types.HistoryPage, error)
	GetPaymentMethods(ctx context.Context) ([]types.PaymentMethodInfo, error)
	GetPublicKey(ctx context.Context) (string, error)
}

type statusPoller interface {
	Poll(ctx context.Context, paymentID string) (*poller.Result, error)
}

type sessionState interface {
	IsAuthenticated() bool
}

type PaymentService struct {
	gateway     paymentGateway
	poller      statusPoller
	session     sessionState
	paymentsCfg config.PaymentsConfig
	logger      logrus.FieldLogger
}

func NewPaymentService(gateway paymentGateway, poller statusPoller, session sessionState, paymentsCfg config.PaymentsConfig) *PaymentService {
	return &PaymentService{
		gateway:     gateway,
		poller:      poller,
		session:     session,
		paymentsCfg: paymentsCfg,
		logger:      factory.NewModuleLogger("payments-service"),
	}
}

// CheckoutResult is a created payment plus, when the payment had to be
// waited on, the poll that settled it.
type CheckoutResult struct {
	Payment *types.PaymentResult
	Poll    *poller.Result
}

// CreatePayment submits a subscription payment without waiting for it.
func (s *PaymentService) CreatePayment(ctx context.Context, req *types.CreatePaymentRequest) (*types.PaymentResult, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.gateway.CreateSubscriptionPayment(ctx, req)
}

// WaitForPayment polls until the payment is terminal, attempts run out or ctx ends.
func (s *PaymentService) WaitForPayment(ctx context.Context, paymentID string) (*poller.Result, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.poller.Poll(ctx, paymentID)
}

// Checkout creates the payment and waits for it unless the create reply is
// already terminal.
func (s *PaymentService) Checkout(ctx context.Context, req *types.CreatePaymentRequest) (*CheckoutResult, error) {
	created, err := s.CreatePayment(ctx, req)
	if err != nil {
		return nil, err
	}
	out := &CheckoutResult{Payment: created}

	switch {
	case created.Status == types.StatusSuccessful:
		return out, nil
	case created.Status.IsTerminal():
		return out, &poller.PaymentError{PaymentID: created.PaymentID, Status: created.Status}
	}

	s.logger.WithFields(logrus.Fields{
		"payment_id":     created.PaymentID,
		"payment_method": req.PaymentMethod,
	}).Info("Waiting for payment confirmation")

	out.Poll, err = s.poller.Poll(ctx, created.PaymentID)
	return out, err
}

func (s *PaymentService) GetPaymentStatus(ctx context.Context, paymentID string) (*types.PaymentStatus, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.gateway.GetPaymentStatus(ctx, paymentID)
}

func (s *PaymentService) GetPaymentHistory(ctx context.Context, opts types.HistoryOptions) (*types.HistoryPage, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if opts.Limit == 0 {
		opts.Limit = s.historyLimit()
	}
	return s.gateway.GetPaymentHistory(ctx, opts)
}

func (s *PaymentService) GetPaymentMethods(ctx context.Context) ([]types.PaymentMethodInfo, error) {
	return s.gateway.GetPaymentMethods(ctx)
}

func (s *PaymentService) GetPublicKey(ctx context.Context) (string, error) {
	return s.gateway.GetPublicKey(ctx)
}

func (s *PaymentService) requireSession() error {
	if s.session == nil || !s.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *PaymentService) historyLimit() int {
	limit := s.paymentsCfg.HistoryLimit
	if limit <= 0 || limit > types.MaxHistoryLimit {
		return types.DefaultHistoryLimit
	}
	return limit
}
