package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/types"
)

// writeError maps err to a status code and writes {"error": ...}.
func writeError(ctx echo.Context, logger logrus.FieldLogger, err error) error {
	status := errorStatus(err)
	body := &types.ErrorResponse{Error: err.Error()}

	var apiErr *apierror.Error
	if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindValidation {
		body.Field = apiErr.Field
	}
	if status >= http.StatusInternalServerError {
		factory.LoggerWithContext(logger, ctx).WithError(err).Warn("Request failed")
	}
	return ctx.JSON(status, body)
}

func writeMessage(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, &types.ErrorResponse{Error: message})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrVerificationRequired), errors.Is(err, service.ErrOwnerScopeRequired):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidAuthResponse):
		return http.StatusBadGateway
	case errors.Is(err, poller.ErrVerificationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	var payErr *poller.PaymentError
	if errors.As(err, &payErr) {
		return http.StatusPaymentRequired
	}

	var apiErr *apierror.Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case apierror.KindValidation:
		return http.StatusBadRequest
	case apierror.KindAuth:
		return http.StatusUnauthorized
	case apierror.KindNotFound:
		return http.StatusNotFound
	case apierror.KindConflict:
		return http.StatusConflict
	case apierror.KindRateLimit:
		return http.StatusTooManyRequests
	case apierror.KindRequest:
		if apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
			return apiErr.Status
		}
		return http.StatusBadRequest
	case apierror.KindNetwork:
		if apiErr.Message == apierror.MsgRequestTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case apierror.KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
