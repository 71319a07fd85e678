package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/portal-payments/app/controller"
	"github.com/vibast-solutions/portal-payments/app/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local companion HTTP API",
	Long:  "Start an HTTP (Echo) server exposing the session, payments and subscriptions operations to local tools.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	app, cleanup := mustCreateApp()
	defer cleanup()

	apiKey, created, err := middleware.ResolveAPIKey(app.cfg.HTTP.APIKey, app.cfg.HTTP.APIKeyFile)
	if err != nil {
		cleanup()
		logrus.WithError(err).Fatal("Failed to resolve API key")
	}
	if created {
		logrus.WithField("key_file", app.cfg.HTTP.APIKeyFile).Info("Generated API key for the companion API")
	}

	e := setupHTTPServer(
		middleware.NewAccessGuard(apiKey, app.cfg.HTTP.AllowedOrigins),
		controller.NewAuthController(app.auth),
		controller.NewPaymentController(app.payments),
		controller.NewSubscriptionController(app.subscriptions),
	)

	go func() {
		httpAddr := net.JoinHostPort(app.cfg.HTTP.Host, app.cfg.HTTP.Port)
		logrus.WithFields(logrus.Fields{"addr": httpAddr, "scope": app.scope}).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	guard *middleware.AccessGuard,
	authController *controller.AuthController,
	paymentController *controller.PaymentController,
	subscriptionController *controller.SubscriptionController,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(ensureRequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(guard.RejectForeignOrigins())
	if origins := guard.AllowedOrigins(); len(origins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: origins,
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID, middleware.HeaderAPIKey},
		}))
	}
	e.Use(guard.RequireAPIKey("/health"))

	e.GET("/health", authController.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/auth")
	auth.POST("/login", authController.Login)
	auth.POST("/logout", authController.Logout)
	auth.GET("/session", authController.Session)

	payments := e.Group("/payments")
	payments.POST("", paymentController.CreatePayment)
	payments.GET("", paymentController.ListPayments)
	payments.GET("/methods", paymentController.ListMethods)
	payments.GET("/key", paymentController.PublicKey)
	payments.GET("/:id", paymentController.GetPayment)
	payments.GET("/:id/wait", paymentController.WaitPayment)

	subscriptions := e.Group("/subscriptions")
	subscriptions.GET("", subscriptionController.List)
	subscriptions.GET("/stats", subscriptionController.Stats)
	subscriptions.GET("/:id", subscriptionController.Get)
	subscriptions.POST("/:id/cancel", subscriptionController.Cancel)

	return e
}

// ensureRequestID echoes the caller's X-Request-ID or assigns a new one.
func ensureRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
				ctx.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}
