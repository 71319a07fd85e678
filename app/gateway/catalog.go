package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/transport"
	"github.com/vibast-solutions/portal-payments/app/types"
)

// CatalogClient reads the public owner and plan listings of the member portal.
// These endpoints answer with bare arrays.
type CatalogClient struct {
	api    Doer
	logger logrus.FieldLogger
}

func NewCatalogClient(api Doer) *CatalogClient {
	return &CatalogClient{
		api:    api,
		logger: factory.NewModuleLogger("catalog-gateway"),
	}
}

func (c *CatalogClient) ListOwners(ctx context.Context) ([]types.Owner, error) {
	items := []types.Owner{}
	err := c.list(ctx, transport.Request{Path: "/api/member/owners"}, &items, "owners")
	return items, err
}

func (c *CatalogClient) ListOwnerPlans(ctx context.Context, ownerID string) ([]types.Plan, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apierror.Validation("ownerId", "Owner ID is required")
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return nil, apierror.Validation("ownerId", "Invalid owner ID format")
	}

	items := []types.Plan{}
	err := c.list(ctx, transport.Request{
		Path:  "/api/member/owners/" + escapeID(ownerID) + "/plans",
		Route: "/api/member/owners/:id/plans",
	}, &items, "owner plans")
	if errors.Is(err, apierror.ErrNotFound) {
		return nil, &apierror.Error{Kind: apierror.KindNotFound, Status: 404, Message: "Organization not found or has no plans available.", Err: err}
	}
	return items, err
}

func (c *CatalogClient) ListAvailablePlans(ctx context.Context) ([]types.Plan, error) {
	items := []types.Plan{}
	err := c.list(ctx, transport.Request{Path: "/api/member/plans/available"}, &items, "available plans")
	return items, err
}

func (c *CatalogClient) list(ctx context.Context, req transport.Request, out interface{}, what string) error {
	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.DataIsArray() {
		if resp.HasData() {
			c.logger.WithField("listing", what).Warn("Listing payload is not a list")
		}
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid " + what + " from server", Err: err}
	}
	return nil
}

func validateID(field, message, id string) error {
	if strings.TrimSpace(id) == "" {
		return apierror.Validation(field, message)
	}
	return nil
}
