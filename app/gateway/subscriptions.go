package gateway

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/transport"
	"github.com/vibast-solutions/portal-payments/app/types"
)

type SubscriptionClient struct {
	api    Doer
	logger logrus.FieldLogger
}

func NewSubscriptionClient(api Doer) *SubscriptionClient {
	return &SubscriptionClient{
		api:    api,
		logger: factory.NewModuleLogger("subscriptions-gateway"),
	}
}

func (c *SubscriptionClient) ListSubscriptions(ctx context.Context) ([]types.Subscription, error) {
	resp, err := c.api.Do(ctx, transport.Request{Path: "/api/subscriptions"})
	if err != nil {
		return nil, err
	}

	items := []types.Subscription{}
	if !resp.DataIsArray() {
		if resp.HasData() {
			c.logger.Warn("Subscriptions payload is not a list")
		}
		return items, nil
	}
	if err := resp.Decode(&items); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid subscriptions from server", Err: err}
	}
	return items, nil
}

func (c *SubscriptionClient) GetSubscription(ctx context.Context, id string) (*types.Subscription, error) {
	if err := validateID("subscriptionId", "Subscription ID is required", id); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, transport.Request{
		Path:  "/api/subscriptions/" + escapeID(id),
		Route: "/api/subscriptions/:id",
	})
	if err != nil {
		return nil, err
	}
	if err := requireData(resp, "Failed to get subscription details"); err != nil {
		return nil, err
	}

	var item types.Subscription
	if err := resp.Decode(&item); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid subscription from server", Err: err}
	}
	return &item, nil
}

func (c *SubscriptionClient) GetSubscriptionStats(ctx context.Context) (*types.SubscriptionStats, error) {
	resp, err := c.api.Do(ctx, transport.Request{Path: "/api/subscriptions/stats"})
	if err != nil {
		return nil, err
	}
	if err := requireData(resp, "Failed to get subscription statistics"); err != nil {
		return nil, err
	}

	var stats types.SubscriptionStats
	if err := resp.Decode(&stats); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid subscription statistics from server", Err: err}
	}
	return &stats, nil
}

// CancelSubscription moves the subscription to cancelled. A subscription that
// is no longer active comes back as a conflict error.
func (c *SubscriptionClient) CancelSubscription(ctx context.Context, id string) error {
	if err := validateID("subscriptionId", "Subscription ID is required", id); err != nil {
		return err
	}

	_, err := c.api.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   "/api/subscriptions/" + escapeID(id) + "/status",
		Route:  "/api/subscriptions/:id/status",
		Body:   map[string]string{"status": string(types.SubscriptionCancelled)},
	})
	if err != nil {
		return err
	}
	c.logger.WithField("subscription_id", id).Info("Subscription cancelled")
	return nil
}
