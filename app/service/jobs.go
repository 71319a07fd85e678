package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/metrics"
	"github.com/vibast-solutions/portal-payments/app/types"
)

// StatusChange is a payment listed as pending in history whose status
// endpoint now reports something else.
type StatusChange struct {
	PaymentID string       `json:"paymentId"`
	PlanName  string       `json:"planName,omitempty"`
	OldStatus types.Status `json:"oldStatus"`
	NewStatus types.Status `json:"newStatus"`
}

type ReconcileReport struct {
	Checked int            `json:"checked"`
	Changes []StatusChange `json:"changes"`
}

// RunReconcileBatch re-checks one page of pending payments. It keeps going
// past individual failures and returns the first one.
func (s *PaymentService) RunReconcileBatch(ctx context.Context) (*ReconcileReport, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}

	page, err := s.gateway.GetPaymentHistory(ctx, types.HistoryOptions{
		Limit:  s.historyLimit(),
		Status: types.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Changes: []StatusChange{}}
	var firstErr error
	for _, item := range page.Items {
		if strings.TrimSpace(item.ID) == "" || item.Status.IsTerminal() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, keepFirstErr(firstErr, err)
		}

		report.Checked++
		status, err := s.gateway.GetPaymentStatus(ctx, item.ID)
		if err != nil {
			s.logger.WithError(err).WithField("payment_id", item.ID).Warn("Reconcile status check failed")
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if status.Status == item.Status || status.Status == types.StatusPending {
			continue
		}

		report.Changes = append(report.Changes, StatusChange{
			PaymentID: item.ID,
			PlanName:  item.PlanName,
			OldStatus: item.Status,
			NewStatus: status.Status,
		})
		metrics.IncReconcileChange(string(status.Status))
		s.logger.WithFields(logrus.Fields{
			"payment_id": item.ID,
			"old_status": item.Status,
			"new_status": status.Status,
		}).Info("payment_reconciled")
	}

	return report, firstErr
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
