package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/metrics"
	"github.com/vibast-solutions/portal-payments/app/types"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 60
)

var ErrVerificationTimeout = errors.New("Payment verification timeout. Please check your payment status manually.")

// errStillPending keeps retry.Call going while the payment has not settled.
var errStillPending = errors.New("payment still pending")

// errPollDeadline stops the loop once Config.Timeout is spent, even in the
// middle of a fetch.
var errPollDeadline = errors.New("poll deadline reached")

type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
	OutcomeExpired    Outcome = "expired"
	OutcomeRefunded   Outcome = "refunded"
	OutcomeTimedOut   Outcome = "timed_out"
	OutcomeErrored    Outcome = "errored"
	OutcomeCanceled   Outcome = "canceled"
)

// PaymentError means the payment reached a terminal status other than successful.
type PaymentError struct {
	PaymentID string
	Status    types.Status
}

func (e *PaymentError) Error() string {
	switch e.Status {
	case types.StatusExpired:
		return "Payment expired. Please try again."
	case types.StatusRefunded:
		return "Payment was refunded."
	default:
		return "Payment failed. Please try again or use a different payment method."
	}
}

// FetchError means the status could not be determined.
type FetchError struct {
	PaymentID string
	Attempts  int
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch payment %s status after %d attempt(s): %v", e.PaymentID, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher returns one status snapshot for a payment.
type Fetcher func(ctx context.Context, paymentID string) (*types.PaymentStatus, error)

type Config struct {
	MaxAttempts int
	Interval    time.Duration
	// Timeout bounds the whole poll on the wall clock. Zero means no bound
	// other than MaxAttempts.
	Timeout time.Duration
	Clock   clock.Clock
}

type Result struct {
	PaymentID string
	Status    *types.PaymentStatus
	Attempts  int
	Outcome   Outcome
	Elapsed   time.Duration
}

type Poller struct {
	fetch  Fetcher
	cfg    Config
	logger logrus.FieldLogger
}

func New(fetch Fetcher, cfg Config) *Poller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	return &Poller{
		fetch:  fetch,
		cfg:    cfg,
		logger: factory.NewModuleLogger("poller"),
	}
}

// Poll fetches the payment status every Interval until it is terminal.
// The returned Result is never nil and reports what was seen even when an
// error is returned.
func (p *Poller) Poll(ctx context.Context, paymentID string) (*Result, error) {
	paymentID = strings.TrimSpace(paymentID)
	result := &Result{PaymentID: paymentID}
	if err := types.ValidatePaymentID(paymentID); err != nil {
		result.Outcome = OutcomeErrored
		return result, err
	}

	logger := p.logger.WithField("payment_id", paymentID)
	start := p.cfg.Clock.Now()

	callErr := retry.Call(retry.CallArgs{
		Func: func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fetchCtx, cancel, err := p.fetchContext(ctx, start)
			if err != nil {
				return err
			}
			defer cancel()
			result.Attempts++

			status, err := p.fetch(fetchCtx, paymentID)
			if err != nil && ctx.Err() == nil && fetchCtx.Err() != nil {
				metrics.IncPollAttempt("error")
				return errPollDeadline
			}
			if err == nil && status == nil {
				err = &apierror.Error{Kind: apierror.KindServer, Message: "Failed to get payment status"}
			}
			if err != nil {
				metrics.IncPollAttempt("error")
				return err
			}
			result.Status = status

			switch {
			case status.Status.IsTerminal():
				metrics.IncPollAttempt("terminal")
				return nil
			case status.Status != types.StatusPending:
				logger.WithField("status", status.Status).Warn("Unknown payment status, treating as pending")
			}
			metrics.IncPollAttempt("pending")
			return errStillPending
		},
		IsFatalError: func(err error) bool {
			if errors.Is(err, errStillPending) {
				return false
			}
			if errors.Is(err, errPollDeadline) {
				return true
			}
			if ctx.Err() != nil {
				return true
			}
			return !apierror.IsRetryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			if errors.Is(err, errStillPending) {
				logger.WithField("attempt", attempt).Debug("Payment still pending")
				return
			}
			logger.WithError(err).WithField("attempt", attempt).Warn("Payment status fetch failed, retrying")
		},
		Attempts:    p.cfg.MaxAttempts,
		Delay:       p.cfg.Interval,
		MaxDuration: p.cfg.Timeout,
		Clock:       p.cfg.Clock,
		Stop:        ctx.Done(),
	})

	result.Elapsed = p.cfg.Clock.Now().Sub(start)
	err := p.resolve(ctx, result, callErr)
	metrics.ObservePollOutcome(string(result.Outcome), result.Elapsed)

	entry := logger.WithFields(logrus.Fields{
		"attempts": result.Attempts,
		"outcome":  result.Outcome,
		"elapsed":  result.Elapsed.String(),
	})
	if err != nil {
		entry.WithError(err).Info("Payment polling finished")
	} else {
		entry.Info("Payment polling finished")
	}
	return result, err
}

// fetchContext bounds one fetch by what is left of Config.Timeout.
func (p *Poller) fetchContext(ctx context.Context, start time.Time) (context.Context, context.CancelFunc, error) {
	if p.cfg.Timeout <= 0 {
		return ctx, func() {}, nil
	}
	remaining := start.Add(p.cfg.Timeout).Sub(p.cfg.Clock.Now())
	if remaining <= 0 {
		return nil, nil, errPollDeadline
	}
	fetchCtx, cancel := context.WithTimeout(ctx, remaining)
	return fetchCtx, cancel, nil
}

func (p *Poller) resolve(ctx context.Context, result *Result, callErr error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && (callErr != nil || result.Status == nil) {
		result.Outcome = OutcomeCanceled
		return ctxErr
	}

	if callErr == nil {
		switch result.Status.Status {
		case types.StatusSuccessful:
			result.Outcome = OutcomeSuccessful
			return nil
		case types.StatusExpired:
			result.Outcome = OutcomeExpired
		case types.StatusRefunded:
			result.Outcome = OutcomeRefunded
		default:
			result.Outcome = OutcomeFailed
		}
		return &PaymentError{PaymentID: result.PaymentID, Status: result.Status.Status}
	}

	// Fatal errors come back from retry.Call as is; exhausted or stopped loops
	// wrap the last one.
	last := callErr
	if retry.IsAttemptsExceeded(callErr) || retry.IsDurationExceeded(callErr) || retry.IsRetryStopped(callErr) {
		last = retry.LastError(callErr)
	}
	switch {
	case errors.Is(last, errStillPending), errors.Is(last, errPollDeadline):
		result.Outcome = OutcomeTimedOut
		return ErrVerificationTimeout
	case retry.IsDurationExceeded(callErr):
		result.Outcome = OutcomeTimedOut
		return ErrVerificationTimeout
	default:
		result.Outcome = OutcomeErrored
		return &FetchError{PaymentID: result.PaymentID, Attempts: result.Attempts, Err: last}
	}
}
