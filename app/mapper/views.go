package mapper

import (
	"time"

	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/types"
)

func SessionToView(scope string, item *entity.Session) *types.SessionView {
	view := &types.SessionView{Scope: scope}
	if item == nil {
		return view
	}

	view.Authenticated = true
	view.Subject = item.Subject
	view.Email = item.User.Email
	view.Name = item.User.DisplayName()
	view.Role = item.User.Role
	view.IssuedAt = formatTime(item.IssuedAt)
	if item.ExpiresAt != nil {
		view.ExpiresAt = formatTime(*item.ExpiresAt)
	}
	return view
}

// PollToView renders a finished poll. err is the error Poll returned with it.
func PollToView(result *poller.Result, err error) *types.PollView {
	if result == nil {
		return nil
	}

	view := &types.PollView{
		PaymentID: result.PaymentID,
		Outcome:   string(result.Outcome),
		Attempts:  result.Attempts,
		Payment:   result.Status,
	}
	if err != nil {
		view.Error = err.Error()
	}
	return view
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
