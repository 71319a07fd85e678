package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/portal-payments/app/mapper"
	"github.com/vibast-solutions/portal-payments/app/poller"
	"github.com/vibast-solutions/portal-payments/app/types"
)

var (
	payPlanID string
	payMethod string
	paySource string
	payName   string
	payEmail  string
	payPhone  string
	payNoWait bool

	historyLimit  int
	historyOffset int
	historyStatus string
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Inspect subscription payments",
}

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Pay for a subscription plan and wait for confirmation",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()
		ctx := commandContext(cmd)

		req := &types.CreatePaymentRequest{
			PlanID:        payPlanID,
			PaymentMethod: types.PaymentMethod(payMethod),
			PaymentSource: paySource,
		}
		if payName != "" || payEmail != "" || payPhone != "" {
			req.CustomerData = &types.CustomerData{Name: payName, Email: payEmail, Phone: payPhone}
		}
		req.Normalize()

		created, err := app.payments.CreatePayment(ctx, req)
		if err != nil {
			cleanup()
			fail(err)
		}
		if created.QRCodeURL != "" {
			fmt.Printf("Scan to pay: %s\n", created.QRCodeURL)
			if created.ExpiresAt != "" {
				fmt.Printf("QR code expires at %s\n", created.ExpiresAt)
			}
		}
		fmt.Printf("Payment %s created: %s %s (%s)\n", created.PaymentID, created.Amount.StringFixed(2), created.Currency, created.Status)

		if created.Status.IsTerminal() && created.Status != types.StatusSuccessful {
			cleanup()
			fail(&poller.PaymentError{PaymentID: created.PaymentID, Status: created.Status})
		}
		if payNoWait || created.Status.IsTerminal() {
			return
		}

		result, err := app.payments.WaitForPayment(ctx, created.PaymentID)
		if printErr := printJSON(mapper.PollToView(result, err)); printErr != nil {
			cleanup()
			fail(printErr)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var paymentStatusCmd = &cobra.Command{
	Use:   "status <payment-id>",
	Short: "Show the current status of a payment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		item, err := app.payments.GetPaymentStatus(commandContext(cmd), args[0])
		if err == nil {
			err = printJSON(item)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var paymentWaitCmd = &cobra.Command{
	Use:   "wait <payment-id>",
	Short: "Poll a payment until it settles",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		result, err := app.payments.WaitForPayment(commandContext(cmd), args[0])
		if view := mapper.PollToView(result, err); view != nil {
			if printErr := printJSON(view); printErr != nil {
				cleanup()
				fail(printErr)
			}
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var paymentHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List payment history",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		page, err := app.payments.GetPaymentHistory(commandContext(cmd), types.HistoryOptions{
			Limit:  historyLimit,
			Offset: historyOffset,
			Status: types.Status(historyStatus),
		})
		if err == nil {
			err = printJSON(page)
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var paymentMethodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List supported payment methods",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		methods, err := app.payments.GetPaymentMethods(commandContext(cmd))
		if err == nil {
			err = printJSON(&types.PaymentMethodsResponse{Methods: methods})
		}
		if err != nil {
			cleanup()
			fail(err)
		}
	},
}

var paymentKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Print the processor public key used for card tokenization",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		key, err := app.payments.GetPublicKey(commandContext(cmd))
		if err != nil {
			cleanup()
			fail(err)
		}
		fmt.Println(key)
	},
}

func init() {
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentStatusCmd)
	paymentsCmd.AddCommand(paymentWaitCmd)
	paymentsCmd.AddCommand(paymentHistoryCmd)
	paymentsCmd.AddCommand(paymentMethodsCmd)
	paymentsCmd.AddCommand(paymentKeyCmd)

	payCmd.Flags().StringVar(&payPlanID, "plan", "", "Plan ID to pay for")
	payCmd.Flags().StringVar(&payMethod, "method", string(types.PaymentMethodPromptPay), "Payment method: card or promptpay")
	payCmd.Flags().StringVar(&paySource, "source", "", "Card token (tokn_...) for card payments")
	payCmd.Flags().StringVar(&payName, "name", "", "Customer name")
	payCmd.Flags().StringVar(&payEmail, "email", "", "Customer email")
	payCmd.Flags().StringVar(&payPhone, "phone", "", "Customer phone")
	payCmd.Flags().BoolVar(&payNoWait, "no-wait", false, "Return after creating the payment")

	paymentHistoryCmd.Flags().IntVar(&historyLimit, "limit", 0, "Page size (defaults to PAYMENTS_HISTORY_LIMIT)")
	paymentHistoryCmd.Flags().IntVar(&historyOffset, "offset", 0, "Page offset")
	paymentHistoryCmd.Flags().StringVar(&historyStatus, "status", "", "Filter by status")
}
