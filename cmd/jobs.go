package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/portal-payments/app/service"
	"github.com/vibast-solutions/portal-payments/config"
)

var (
	workerMode bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-check pending payments from history and report status changes",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"payments_reconcile",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ReconcileInterval },
			func(s *service.PaymentService, ctx context.Context) error {
				report, err := s.RunReconcileBatch(ctx)
				if report != nil && !workerMode {
					if printErr := printJSON(report); printErr != nil {
						return printErr
					}
				}
				return err
			},
		)
	},
}

func init() {
	paymentsCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&workerMode, "worker", false, "Run continuously using JOBS_RECONCILE_INTERVAL")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.PaymentService, ctx context.Context) error,
) {
	app, cleanup := mustCreateApp()
	defer cleanup()

	if !app.auth.IsAuthenticated() {
		fail(service.ErrNotAuthenticated)
	}

	if workerMode {
		runWorker(name, intervalResolver(app.cfg), app.payments, fn)
		return
	}

	ctx := context.Background()
	if err := runJob(name, func() error { return fn(app.payments, ctx) }); err != nil {
		cleanup()
		fail(err)
	}
}

func runWorker(
	name string,
	interval time.Duration,
	paymentService *service.PaymentService,
	fn func(s *service.PaymentService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = runJob(name, func() error { return fn(paymentService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			_ = runJob(name, func() error { return fn(paymentService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return err
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
	return nil
}
