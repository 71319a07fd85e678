package service

import (
	"context"

	"github.com/vibast-solutions/portal-payments/app/types"
)

type subscriptionGateway interface {
	ListSubscriptions(ctx context.Context) ([]types.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*types.Subscription, error)
	GetSubscriptionStats(ctx context.Context) (*types.SubscriptionStats, error)
	CancelSubscription(ctx context.Context, id string) error
}

type SubscriptionService struct {
	gateway subscriptionGateway
	session sessionState
}

func NewSubscriptionService(gateway subscriptionGateway, session sessionState) *SubscriptionService {
	return &SubscriptionService{gateway: gateway, session: session}
}

func (s *SubscriptionService) List(ctx context.Context) ([]types.Subscription, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.gateway.ListSubscriptions(ctx)
}

func (s *SubscriptionService) Get(ctx context.Context, id string) (*types.Subscription, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.gateway.GetSubscription(ctx, id)
}

func (s *SubscriptionService) Stats(ctx context.Context) (*types.SubscriptionStats, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.gateway.GetSubscriptionStats(ctx)
}

// Cancel cancels the subscription and returns its refreshed record.
func (s *SubscriptionService) Cancel(ctx context.Context, id string) (*types.Subscription, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.gateway.CancelSubscription(ctx, id); err != nil {
		return nil, err
	}
	return s.gateway.GetSubscription(ctx, id)
}

func (s *SubscriptionService) requireSession() error {
	if s.session == nil || !s.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
