package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/types"
)

type SubscriptionController struct {
	subscriptionService *service.SubscriptionService
	logger              logrus.FieldLogger
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		logger:              factory.NewModuleLogger("subscriptions-controller"),
	}
}

func (c *SubscriptionController) List(ctx echo.Context) error {
	items, err := c.subscriptionService.List(ctx.Request().Context())
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, &types.SubscriptionsResponse{Subscriptions: items})
}

func (c *SubscriptionController) Stats(ctx echo.Context) error {
	stats, err := c.subscriptionService.Stats(ctx.Request().Context())
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (c *SubscriptionController) Get(ctx echo.Context) error {
	req := types.NewPathIDRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return writeError(ctx, c.logger, err)
	}

	item, err := c.subscriptionService.Get(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, &types.SubscriptionEnvelopeResponse{Subscription: item})
}

func (c *SubscriptionController) Cancel(ctx echo.Context) error {
	req := types.NewPathIDRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return writeError(ctx, c.logger, err)
	}

	item, err := c.subscriptionService.Cancel(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, &types.SubscriptionEnvelopeResponse{Subscription: item})
}
