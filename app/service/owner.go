package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/entity"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/types"
)

type ownerGateway interface {
	ListPlans(ctx context.Context) ([]types.OwnerPlan, error)
	GetPlan(ctx context.Context, id string) (*types.OwnerPlan, error)
	CreatePlan(ctx context.Context, in *types.PlanInput) (*types.OwnerPlan, error)
	UpdatePlan(ctx context.Context, id string, in *types.PlanInput) (*types.OwnerPlan, error)
	DeletePlan(ctx context.Context, id string) (string, error)

	ListFeatures(ctx context.Context) ([]types.OwnerFeature, error)
	GetFeature(ctx context.Context, id string) (*types.OwnerFeature, error)
	CreateFeature(ctx context.Context, in *types.FeatureInput) (*types.OwnerFeature, error)
	UpdateFeature(ctx context.Context, id string, in *types.FeatureInput) (*types.OwnerFeature, error)
	DeleteFeature(ctx context.Context, id string) (string, error)

	DashboardStats(ctx context.Context) (*types.DashboardStats, error)
	Revenue(ctx context.Context, period string) ([]types.RevenuePoint, error)
	DashboardMembers(ctx context.Context) ([]types.Subscriber, error)
	MembersByPlan(ctx context.Context) ([]types.PlanMemberCount, error)
	PlanMembers(ctx context.Context, planID string) ([]types.Subscriber, error)

	PlanStats(ctx context.Context) ([]types.PlanStats, error)
	ListMembers(ctx context.Context) ([]types.MemberDetail, error)
	DeleteMember(ctx context.Context, memberID string) (*types.DeleteMemberResult, error)
}

// OwnerService runs the owner dashboard operations. All of them need an
// authenticated owner-scope session.
type OwnerService struct {
	gateway ownerGateway
	session sessionState
	scope   string
	logger  logrus.FieldLogger
}

func NewOwnerService(gateway ownerGateway, session sessionState, scope string) *OwnerService {
	return &OwnerService{
		gateway: gateway,
		session: session,
		scope:   scope,
		logger:  factory.NewModuleLogger("owner-service"),
	}
}

func (s *OwnerService) ListPlans(ctx context.Context) ([]types.OwnerPlan, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.ListPlans(ctx)
}

func (s *OwnerService) GetPlan(ctx context.Context, id string) (*types.OwnerPlan, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.GetPlan(ctx, id)
}

// CreatePlan checks that every referenced feature exists before the plan is
// sent, so a typo in a feature id fails locally.
func (s *OwnerService) CreatePlan(ctx context.Context, in *types.PlanInput) (*types.OwnerPlan, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	if err := s.checkFeatures(ctx, in); err != nil {
		return nil, err
	}
	plan, err := s.gateway.CreatePlan(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("plan_name", in.Name).Info("Plan created")
	return plan, nil
}

func (s *OwnerService) UpdatePlan(ctx context.Context, id string, in *types.PlanInput) (*types.OwnerPlan, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	if err := s.checkFeatures(ctx, in); err != nil {
		return nil, err
	}
	return s.gateway.UpdatePlan(ctx, id, in)
}

func (s *OwnerService) DeletePlan(ctx context.Context, id string) (string, error) {
	if err := s.requireOwner(); err != nil {
		return "", err
	}
	return s.gateway.DeletePlan(ctx, id)
}

func (s *OwnerService) ListFeatures(ctx context.Context) ([]types.OwnerFeature, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.ListFeatures(ctx)
}

func (s *OwnerService) GetFeature(ctx context.Context, id string) (*types.OwnerFeature, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.GetFeature(ctx, id)
}

func (s *OwnerService) CreateFeature(ctx context.Context, in *types.FeatureInput) (*types.OwnerFeature, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.CreateFeature(ctx, in)
}

func (s *OwnerService) UpdateFeature(ctx context.Context, id string, in *types.FeatureInput) (*types.OwnerFeature, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.UpdateFeature(ctx, id, in)
}

func (s *OwnerService) DeleteFeature(ctx context.Context, id string) (string, error) {
	if err := s.requireOwner(); err != nil {
		return "", err
	}
	return s.gateway.DeleteFeature(ctx, id)
}

func (s *OwnerService) DashboardStats(ctx context.Context) (*types.DashboardStats, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.DashboardStats(ctx)
}

func (s *OwnerService) Revenue(ctx context.Context, period string) ([]types.RevenuePoint, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.Revenue(ctx, period)
}

func (s *OwnerService) DashboardMembers(ctx context.Context) ([]types.Subscriber, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.DashboardMembers(ctx)
}

func (s *OwnerService) MembersByPlan(ctx context.Context) ([]types.PlanMemberCount, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.MembersByPlan(ctx)
}

func (s *OwnerService) PlanMembers(ctx context.Context, planID string) ([]types.Subscriber, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.PlanMembers(ctx, planID)
}

func (s *OwnerService) PlanStats(ctx context.Context) ([]types.PlanStats, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.PlanStats(ctx)
}

func (s *OwnerService) ListMembers(ctx context.Context) ([]types.MemberDetail, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.ListMembers(ctx)
}

func (s *OwnerService) DeleteMember(ctx context.Context, memberID string) (*types.DeleteMemberResult, error) {
	if err := s.requireOwner(); err != nil {
		return nil, err
	}
	return s.gateway.DeleteMember(ctx, memberID)
}

func (s *OwnerService) checkFeatures(ctx context.Context, in *types.PlanInput) error {
	if in == nil {
		return nil
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	features, err := s.gateway.ListFeatures(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(features))
	for _, f := range features {
		known[f.ID] = struct{}{}
	}
	for _, id := range in.Features {
		if _, ok := known[id]; !ok {
			return apierror.Validationf("features", "Unknown feature %s", id)
		}
	}
	return nil
}

func (s *OwnerService) requireOwner() error {
	if s.scope != entity.RoleOwner {
		return ErrOwnerScopeRequired
	}
	if s.session == nil || !s.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
