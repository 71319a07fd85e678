package gateway

import (
	"context"
	"net/url"
	"strings"

	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/transport"
)

// Doer is the transport seen by the gateway clients.
type Doer interface {
	Do(ctx context.Context, r transport.Request) (*transport.Response, error)
}

func escapeID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

// requireData turns a 2xx reply without payload into a server error carrying
// the server message or fallback.
func requireData(resp *transport.Response, fallback string) error {
	if resp.HasData() {
		return nil
	}
	message := resp.Message
	if message == "" {
		message = fallback
	}
	return &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: message}
}
