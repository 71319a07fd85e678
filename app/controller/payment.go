package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/portal-payments/app/factory"
	"github.com/vibast-solutions/portal-payments/app/mapper"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/app/types"
)

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

// CreatePayment submits a payment. With ?wait=true it also waits for the
// payment to settle and returns the poll outcome in "final".
func (c *PaymentController) CreatePayment(ctx echo.Context) error {
	req, err := types.NewCreatePaymentRequestFromContext(ctx)
	if err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "invalid request body")
	}
	wait, _ := strconv.ParseBool(ctx.QueryParam("wait"))

	if !wait {
		result, err := c.paymentService.CreatePayment(ctx.Request().Context(), req)
		if err != nil {
			return writeError(ctx, c.logger, err)
		}
		return ctx.JSON(http.StatusCreated, &types.CreatePaymentResponse{Result: result})
	}

	out, err := c.paymentService.Checkout(ctx.Request().Context(), req)
	if out == nil {
		return writeError(ctx, c.logger, err)
	}
	resp := &types.CreatePaymentResponse{Result: out.Payment, Final: mapper.PollToView(out.Poll, err)}
	if resp.Final == nil && err != nil {
		resp.Final = &types.PollView{PaymentID: out.Payment.PaymentID, Outcome: string(out.Payment.Status), Error: err.Error()}
	}
	return ctx.JSON(http.StatusCreated, resp)
}

func (c *PaymentController) GetPayment(ctx echo.Context) error {
	req := types.NewPathIDRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return writeError(ctx, c.logger, err)
	}

	item, err := c.paymentService.GetPaymentStatus(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, &types.PaymentEnvelopeResponse{Payment: item})
}

// WaitPayment polls the payment. Payment outcomes, including a verification
// timeout, are a 200 with the outcome in the body; fetch failures are errors.
func (c *PaymentController) WaitPayment(ctx echo.Context) error {
	req := types.NewPathIDRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return writeError(ctx, c.logger, err)
	}

	result, err := c.paymentService.WaitForPayment(ctx.Request().Context(), req.ID)
	if err != nil && !isPaymentOutcome(err) {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, mapper.PollToView(result, err))
}

func (c *PaymentController) ListPayments(ctx echo.Context) error {
	opts, err := types.NewHistoryOptionsFromContext(ctx)
	if err != nil {
		return writeMessage(ctx, http.StatusBadRequest, "invalid request")
	}

	page, err := c.paymentService.GetPaymentHistory(ctx.Request().Context(), *opts)
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (c *PaymentController) ListMethods(ctx echo.Context) error {
	methods, err := c.paymentService.GetPaymentMethods(ctx.Request().Context())
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, &types.PaymentMethodsResponse{Methods: methods})
}

func (c *PaymentController) PublicKey(ctx echo.Context) error {
	key, err := c.paymentService.GetPublicKey(ctx.Request().Context())
	if err != nil {
		return writeError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, &types.PublicKeyResponse{PublicKey: key})
}

func isPaymentOutcome(err error) bool {
	var payErr *poller.PaymentError
	return errors.As(err, &payErr) || errors.Is(err, poller.ErrVerificationTimeout)
}
