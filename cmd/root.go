package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scopeFlag string

var rootCmd = &cobra.Command{
	Use:          "portal",
	Short:        "Subscription portal payments client",
	Long:         "A client for the subscription portal backend: sessions, subscription payments, payment status polling and a local companion API.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "", "Portal scope: owner or member (defaults to APP_SCOPE)")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
