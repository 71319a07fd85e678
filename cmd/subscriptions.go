package cmd

import (
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/portal-payments/app/types"
)

var catalogOwnerID string

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "Manage member subscriptions",
}

var subscriptionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		items, err := app.subscriptions.List(commandContext(cmd))
		if err == nil {
			err = printJSON(&types.SubscriptionsResponse{Subscriptions: items})
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var subscriptionsGetCmd = &cobra.Command{
	Use:   "get <subscription-id>",
	Short: "Show one subscription",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		item, err := app.subscriptions.Get(commandContext(cmd), args[0])
		if err == nil {
			err = printJSON(item)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var subscriptionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show subscription totals",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		stats, err := app.subscriptions.Stats(commandContext(cmd))
		if err == nil {
			err = printJSON(stats)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var subscriptionsCancelCmd = &cobra.Command{
	Use:   "cancel <subscription-id>",
	Short: "Cancel a subscription",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		item, err := app.subscriptions.Cancel(commandContext(cmd), args[0])
		if err == nil {
			err = printJSON(item)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse organizations and their plans",
}

var catalogOwnersCmd = &cobra.Command{
	Use:   "owners",
	Short: "List organizations",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		owners, err := app.catalog.ListOwners(commandContext(cmd))
		if err == nil {
			err = printJSON(owners)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var catalogPlansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List plans, optionally for one organization",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()
		ctx := commandContext(cmd)

		var (
			plans []types.Plan
			err   error
		)
		if catalogOwnerID != "" {
			plans, err = app.catalog.ListOwnerPlans(ctx, catalogOwnerID)
		} else {
			plans, err = app.catalog.ListAvailablePlans(ctx)
		}
		if err == nil {
			err = printJSON(plans)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(subscriptionsCmd)
	subscriptionsCmd.AddCommand(subscriptionsListCmd)
	subscriptionsCmd.AddCommand(subscriptionsGetCmd)
	subscriptionsCmd.AddCommand(subscriptionsStatsCmd)
	subscriptionsCmd.AddCommand(subscriptionsCancelCmd)

	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogOwnersCmd)
	catalogCmd.AddCommand(catalogPlansCmd)
	catalogPlansCmd.Flags().StringVar(&catalogOwnerID, "owner", "", "Organization (owner) ID")
}
