package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/portal-payments/app/apierror"
	"github.com/vibast-solutions/portal-payments/app/types"
)

var (
	planName        string
	planDescription string
	planPrice       string
	planDuration    int
	planFeatures    []string

	featureName        string
	featureDescription string

	revenuePeriod string
)

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Owner dashboard: plans, features, statistics and members (owner scope)",
}

var ownerPlansCmd = &cobra.Command{Use: "plans", Short: "Manage subscription plans"}
var ownerFeaturesCmd = &cobra.Command{Use: "features", Short: "Manage plan features"}
var ownerDashboardCmd = &cobra.Command{Use: "dashboard", Short: "Show dashboard statistics"}
var ownerMembersCmd = &cobra.Command{Use: "members", Short: "Manage organization members"}

// runOwner prints the value returned by fn as JSON, or a plain line for
// string results.
func runOwner(cmd *cobra.Command, fn func(ctx context.Context, app *application) (interface{}, error)) {
	app, cleanup := mustCreateApp()
	defer cleanup()

	out, err := fn(commandContext(cmd), app)
	if err == nil {
		if msg, ok := out.(string); ok {
			fmt.Println(msg)
			return
		}
		err = printJSON(out)
	}
	if err != nil {
		cleanup()
		fail(err)
	}
}

func planInputFromFlags() (*types.PlanInput, error) {
	price, err := decimal.NewFromString(planPrice)
	if err != nil {
		return nil, apierror.Validation("price", "Valid price is required")
	}
	return &types.PlanInput{
		Name:        planName,
		Description: planDescription,
		Price:       price,
		Duration:    planDuration,
		Features:    planFeatures,
	}, nil
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plans",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.ListPlans(ctx)
		})
	},
}

var planGetCmd = &cobra.Command{
	Use:   "get <plan-id>",
	Short: "Show a plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.GetPlan(ctx, args[0])
		})
	},
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a plan",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			in, err := planInputFromFlags()
			if err != nil {
				return nil, err
			}
			plan, err := app.owner.CreatePlan(ctx, in)
			if err != nil || plan == nil {
				return "Plan created", err
			}
			return plan, nil
		})
	},
}

var planUpdateCmd = &cobra.Command{
	Use:   "update <plan-id>",
	Short: "Replace a plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			in, err := planInputFromFlags()
			if err != nil {
				return nil, err
			}
			plan, err := app.owner.UpdatePlan(ctx, args[0], in)
			if err != nil || plan == nil {
				return "Plan updated", err
			}
			return plan, nil
		})
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.DeletePlan(ctx, args[0])
		})
	},
}

var featureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List features",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.ListFeatures(ctx)
		})
	},
}

var featureGetCmd = &cobra.Command{
	Use:   "get <feature-id>",
	Short: "Show a feature",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.GetFeature(ctx, args[0])
		})
	},
}

var featureCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a feature",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			feature, err := app.owner.CreateFeature(ctx, &types.FeatureInput{Name: featureName, Description: featureDescription})
			if err != nil || feature == nil {
				return "Feature created", err
			}
			return feature, nil
		})
	},
}

var featureUpdateCmd = &cobra.Command{
	Use:   "update <feature-id>",
	Short: "Replace a feature",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			feature, err := app.owner.UpdateFeature(ctx, args[0], &types.FeatureInput{Name: featureName, Description: featureDescription})
			if err != nil || feature == nil {
				return "Feature updated", err
			}
			return feature, nil
		})
	},
}

var featureDeleteCmd = &cobra.Command{
	Use:   "delete <feature-id>",
	Short: "Delete a feature",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.DeleteFeature(ctx, args[0])
		})
	},
}

var dashboardStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show revenue, member and plan totals",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.DashboardStats(ctx)
		})
	},
}

var dashboardRevenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Show monthly revenue",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.Revenue(ctx, revenuePeriod)
		})
	},
}

var dashboardMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List subscribers",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.DashboardMembers(ctx)
		})
	},
}

var dashboardMembersByPlanCmd = &cobra.Command{
	Use:   "members-by-plan",
	Short: "Count members per plan",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.MembersByPlan(ctx)
		})
	},
}

var dashboardPlanMembersCmd = &cobra.Command{
	Use:   "plan-members <plan-id>",
	Short: "List the subscribers of one plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.PlanMembers(ctx, args[0])
		})
	},
}

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members with their plan and payments",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.ListMembers(ctx)
		})
	},
}

var memberStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show subscriptions and revenue per plan",
	Run: func(cmd *cobra.Command, _ []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.PlanStats(ctx)
		})
	},
}

var memberDeleteCmd = &cobra.Command{
	Use:   "delete <member-id>",
	Short: "Remove a member and cancel their subscriptions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOwner(cmd, func(ctx context.Context, app *application) (interface{}, error) {
			return app.owner.DeleteMember(ctx, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(ownerCmd)
	ownerCmd.AddCommand(ownerPlansCmd, ownerFeaturesCmd, ownerDashboardCmd, ownerMembersCmd)

	ownerPlansCmd.AddCommand(planListCmd, planGetCmd, planCreateCmd, planUpdateCmd, planDeleteCmd)
	for _, c := range []*cobra.Command{planCreateCmd, planUpdateCmd} {
		c.Flags().StringVar(&planName, "name", "", "Plan name")
		c.Flags().StringVar(&planDescription, "description", "", "Plan description")
		c.Flags().StringVar(&planPrice, "price", "", "Plan price")
		c.Flags().IntVar(&planDuration, "duration", 30, "Plan duration in days")
		c.Flags().StringSliceVar(&planFeatures, "features", nil, "Feature IDs included in the plan")
	}

	ownerFeaturesCmd.AddCommand(featureListCmd, featureGetCmd, featureCreateCmd, featureUpdateCmd, featureDeleteCmd)
	for _, c := range []*cobra.Command{featureCreateCmd, featureUpdateCmd} {
		c.Flags().StringVar(&featureName, "name", "", "Feature name")
		c.Flags().StringVar(&featureDescription, "description", "", "Feature description")
	}

	ownerDashboardCmd.AddCommand(dashboardStatsCmd, dashboardRevenueCmd, dashboardMembersCmd, dashboardMembersByPlanCmd, dashboardPlanMembersCmd)
	dashboardRevenueCmd.Flags().StringVar(&revenuePeriod, "period", types.RevenuePeriod12Months, "Revenue period: 6months or 12months")

	ownerMembersCmd.AddCommand(memberListCmd, memberStatsCmd, memberDeleteCmd)
}
