package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/mapper"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/types"
)

type AuthController struct {
	authService *service.AuthService
	logger      logrus.FieldLogger
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      factory.NewModuleLogger("auth-controller"),
	}
}

func (c *AuthController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{
		Status:        "ok",
		Scope:         c.authService.Scope(),
		Authenticated: c.authService.IsAuthenticated(),
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "invalid request body")
	}

	session, err := c.authService.Login(ctx.Request().Context(), req)
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToView(c.authService.Scope(), session))
}

func (c *AuthController) Logout(ctx echo.Context) error {
	if err := c.authService.Logout(ctx.Request().Context()); err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Logged out"})
}

func (c *AuthController) Session(ctx echo.Context) error {
	session, err := c.authService.Whoami(ctx.Request().Context(), false)
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, mapper.SessionToView(c.authService.Scope(), session))
}
