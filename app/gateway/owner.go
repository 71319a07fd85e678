package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/transport"
	"github.com/vibast-solutions/portal-payments/app/types"
)

// OwnerClient covers the owner dashboard: plans, features, dashboard
// statistics and member management. Every call needs an owner session.
type OwnerClient struct {
	api    Doer
	logger logrus.FieldLogger
}

func NewOwnerClient(api Doer) *OwnerClient {
	return &OwnerClient{
		api:    api,
		logger: factory.NewModuleLogger("owner-gateway"),
	}
}

// ListPlans fails on a non-list payload; the dashboard cannot render without plans.
func (c *OwnerClient) ListPlans(ctx context.Context) ([]types.OwnerPlan, error) {
	items := []types.OwnerPlan{}
	if err := c.list(ctx, transport.Request{Path: "/api/plans"}, &items, "plans", true); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *OwnerClient) GetPlan(ctx context.Context, id string) (*types.OwnerPlan, error) {
	if err := validateID("planId", "Plan ID is required", id); err != nil {
		return nil, err
	}
	resp, err := c.api.Do(ctx, transport.Request{
		Path:  "/api/plans/" + escapeID(id),
		Route: "/api/plans/:id",
	})
	if err != nil {
		return nil, err
	}

	var plan types.OwnerPlan
	if !decodeEntity(resp, "plan", &plan) || plan.ID == "" {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid plan from server"}
	}
	return &plan, nil
}

// CreatePlan validates locally and returns the stored plan, or nil when the
// backend only acknowledges the write.
func (c *OwnerClient) CreatePlan(ctx context.Context, in *types.PlanInput) (*types.OwnerPlan, error) {
	return c.savePlan(ctx, http.MethodPost, "/api/plans", "/api/plans", in)
}

func (c *OwnerClient) UpdatePlan(ctx context.Context, id string, in *types.PlanInput) (*types.OwnerPlan, error) {
	if err := validateID("planId", "Plan ID is required", id); err != nil {
		return nil, err
	}
	return c.savePlan(ctx, http.MethodPut, "/api/plans/"+escapeID(id), "/api/plans/:id", in)
}

func (c *OwnerClient) DeletePlan(ctx context.Context, id string) (string, error) {
	if err := validateID("planId", "Plan ID is required", id); err != nil {
		return "", err
	}
	return c.delete(ctx, "/api/plans/"+escapeID(id), "/api/plans/:id", "Plan deleted")
}

func (c *OwnerClient) ListFeatures(ctx context.Context) ([]types.OwnerFeature, error) {
	items := []types.OwnerFeature{}
	if err := c.list(ctx, transport.Request{Path: "/api/features"}, &items, "features", false); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *OwnerClient) GetFeature(ctx context.Context, id string) (*types.OwnerFeature, error) {
	if err := validateID("featureId", "Feature ID is required", id); err != nil {
		return nil, err
	}
	resp, err := c.api.Do(ctx, transport.Request{
		Path:  "/api/features/" + escapeID(id),
		Route: "/api/features/:id",
	})
	if err != nil {
		return nil, err
	}

	var feature types.OwnerFeature
	if !decodeEntity(resp, "feature", &feature) || feature.ID == "" {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid feature from server"}
	}
	return &feature, nil
}

func (c *OwnerClient) CreateFeature(ctx context.Context, in *types.FeatureInput) (*types.OwnerFeature, error) {
	return c.saveFeature(ctx, http.MethodPost, "/api/features", "/api/features", in)
}

func (c *OwnerClient) UpdateFeature(ctx context.Context, id string, in *types.FeatureInput) (*types.OwnerFeature, error) {
	if err := validateID("featureId", "Feature ID is required", id); err != nil {
		return nil, err
	}
	return c.saveFeature(ctx, http.MethodPut, "/api/features/"+escapeID(id), "/api/features/:id", in)
}

func (c *OwnerClient) DeleteFeature(ctx context.Context, id string) (string, error) {
	if err := validateID("featureId", "Feature ID is required", id); err != nil {
		return "", err
	}
	return c.delete(ctx, "/api/features/"+escapeID(id), "/api/features/:id", "Feature deleted")
}

func (c *OwnerClient) DashboardStats(ctx context.Context) (*types.DashboardStats, error) {
	resp, err := c.api.Do(ctx, transport.Request{Path: "/api/dashboard/stats"})
	if err != nil {
		return nil, err
	}
	if err := requireData(resp, "Invalid dashboard stats response format"); err != nil {
		return nil, err
	}

	var stats types.DashboardStats
	if err := resp.Decode(&stats); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid dashboard stats response format", Err: err}
	}
	return &stats, nil
}

// Revenue returns monthly revenue for the last 6 or 12 months. An empty
// period means 12 months.
func (c *OwnerClient) Revenue(ctx context.Context, period string) ([]types.RevenuePoint, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		period = types.RevenuePeriod12Months
	}
	if !types.ValidRevenuePeriod(period) {
		return nil, apierror.Validation("period", "Invalid period. Must be 6months or 12months")
	}

	items := []types.RevenuePoint{}
	err := c.list(ctx, transport.Request{
		Path:  "/api/dashboard/revenue",
		Query: url.Values{"period": []string{period}},
	}, &items, "revenue data", true)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *OwnerClient) DashboardMembers(ctx context.Context) ([]types.Subscriber, error) {
	items := []types.Subscriber{}
	if err := c.list(ctx, transport.Request{Path: "/api/dashboard/members"}, &items, "members", false); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *OwnerClient) MembersByPlan(ctx context.Context) ([]types.PlanMemberCount, error) {
	items := []types.PlanMemberCount{}
	if err := c.list(ctx, transport.Request{Path: "/api/dashboard/members-by-plan"}, &items, "members by plan", false); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *OwnerClient) PlanMembers(ctx context.Context, planID string) ([]types.Subscriber, error) {
	if err := validateID("planId", "Plan ID is required", planID); err != nil {
		return nil, err
	}
	items := []types.Subscriber{}
	err := c.list(ctx, transport.Request{
		Path:  "/api/dashboard/plans/" + escapeID(planID) + "/members",
		Route: "/api/dashboard/plans/:id/members",
	}, &items, "plan members", false)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *OwnerClient) PlanStats(ctx context.Context) ([]types.PlanStats, error) {
	items := []types.PlanStats{}
	if err := c.list(ctx, transport.Request{Path: "/api/members/plan-stats"}, &items, "plan statistics", false); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *OwnerClient) ListMembers(ctx context.Context) ([]types.MemberDetail, error) {
	items := []types.MemberDetail{}
	if err := c.list(ctx, transport.Request{Path: "/api/members/members"}, &items, "members", false); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteMember removes the member from the organization and cancels all of
// their subscriptions.
func (c *OwnerClient) DeleteMember(ctx context.Context, memberID string) (*types.DeleteMemberResult, error) {
	if err := validateID("memberId", "Member ID is required", memberID); err != nil {
		return nil, err
	}
	resp, err := c.api.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   "/api/members/members/" + escapeID(memberID),
		Route:  "/api/members/members/:id",
	})
	if err != nil {
		return nil, err
	}

	var out types.DeleteMemberResult
	if err := resp.DecodeRaw(&out); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid response from server", Err: err}
	}
	if out.CancelledSubscriptions == 0 && resp.HasData() && !resp.Legacy {
		var nested types.DeleteMemberResult
		if err := resp.Decode(&nested); err == nil {
			out.CancelledSubscriptions = nested.CancelledSubscriptions
		}
	}
	if out.Message == "" {
		out.Message = replyMessage(resp, "Member deleted")
	}
	c.logger.WithFields(logrus.Fields{
		"member_id":               memberID,
		"cancelled_subscriptions": out.CancelledSubscriptions,
	}).Info("Member deleted")
	return &out, nil
}

func (c *OwnerClient) savePlan(ctx context.Context, method, path, route string, in *types.PlanInput) (*types.OwnerPlan, error) {
	if in == nil {
		return nil, apierror.Validation("", "plan is required")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, transport.Request{Method: method, Path: path, Route: route, Body: in})
	if err != nil {
		return nil, err
	}
	var plan types.OwnerPlan
	if !decodeEntity(resp, "plan", &plan) || plan.ID == "" {
		return nil, nil
	}
	return &plan, nil
}

func (c *OwnerClient) saveFeature(ctx context.Context, method, path, route string, in *types.FeatureInput) (*types.OwnerFeature, error) {
	if in == nil {
		return nil, apierror.Validation("", "feature is required")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.api.Do(ctx, transport.Request{Method: method, Path: path, Route: route, Body: in})
	if err != nil {
		return nil, err
	}
	var feature types.OwnerFeature
	if !decodeEntity(resp, "feature", &feature) || feature.ID == "" {
		return nil, nil
	}
	return &feature, nil
}

func (c *OwnerClient) delete(ctx context.Context, path, route, fallback string) (string, error) {
	resp, err := c.api.Do(ctx, transport.Request{Method: http.MethodDelete, Path: path, Route: route})
	if err != nil {
		return "", err
	}
	return replyMessage(resp, fallback), nil
}

// list decodes a list payload. With strict, a payload that is not a list is
// a server error; otherwise it reads as an empty list.
func (c *OwnerClient) list(ctx context.Context, req transport.Request, out interface{}, what string, strict bool) error {
	resp, err := c.api.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.DataIsArray() {
		if strict {
			return &apierror.Error{Kind: apierror.KindServer, Status: resp.Status, Message: "Invalid " + what + " response format"}
		}
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

// decodeEntity reads an entity either from a named member of the body
// ({"plan": {...}}) or from the payload itself.
func decodeEntity(resp *transport.Response, key string, out interface{}) bool {
	var named map[string]json.RawMessage
	if err := resp.DecodeRaw(&named); err == nil {
		if raw, ok := named[key]; ok && !isJSONNull(raw) {
			return json.Unmarshal(raw, out) == nil
		}
	}
	if !resp.HasData() {
		return false
	}
	return resp.Decode(out) == nil
}

func replyMessage(resp *transport.Response, fallback string) string {
	if resp.Message != "" {
		return resp.Message
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := resp.DecodeRaw(&body); err == nil && strings.TrimSpace(body.Message) != "" {
		return strings.TrimSpace(body.Message)
	}
	return fallback
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
