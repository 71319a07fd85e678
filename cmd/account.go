package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/portal-payments/app/types"
)

var (
	accountEmail        string
	accountToken        string
	accountRefreshToken string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Owner account recovery and email confirmation",
}

var resendVerificationCmd = &cobra.Command{
	Use:   "resend-verification",
	Short: "Send the confirmation email again",
	Run: func(cmd *cobra.Command, _ []string) {
		runAccount(cmd, func(ctx context.Context, app *application) (string, error) {
			return app.auth.ResendVerification(ctx, accountEmail)
		})
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Email a password reset link",
	Run: func(cmd *cobra.Command, _ []string) {
		runAccount(cmd, func(ctx context.Context, app *application) (string, error) {
			return app.auth.ForgotPassword(ctx, accountEmail)
		})
	},
}

var verifyResetTokenCmd = &cobra.Command{
	Use:   "verify-reset-token",
	Short: "Check the token of a password reset link",
	Run: func(cmd *cobra.Command, _ []string) {
		runAccount(cmd, func(ctx context.Context, app *application) (string, error) {
			return app.auth.VerifyResetToken(ctx, accountToken)
		})
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password from a reset link",
	Run: func(cmd *cobra.Command, _ []string) {
		runAccount(cmd, func(ctx context.Context, app *application) (string, error) {
			return app.auth.ResetPassword(ctx, accountToken, resolvePassword())
		})
	},
}

var confirmEmailCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm the account email from the link tokens and sign in",
	Run: func(cmd *cobra.Command, _ []string) {
		runAccount(cmd, func(ctx context.Context, app *application) (string, error) {
			session, err := app.auth.ConfirmEmail(ctx, &types.AuthCallbackRequest{
				AccessToken:  accountToken,
				RefreshToken: accountRefreshToken,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Email confirmed. Logged in as %s (%s)", session.User.Email, app.auth.Scope()), nil
		})
	},
}

func runAccount(cmd *cobra.Command, fn func(ctx context.Context, app *application) (string, error)) {
	app, cleanup := mustCreateApp()
	defer cleanup()

	msg, err := fn(commandContext(cmd), app)
	if err != nil {
		cleanup()
		fail(err)
	}
	fmt.Println(msg)
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(resendVerificationCmd, forgotPasswordCmd, verifyResetTokenCmd, resetPasswordCmd, confirmEmailCmd)

	for _, c := range []*cobra.Command{resendVerificationCmd, forgotPasswordCmd} {
		c.Flags().StringVar(&accountEmail, "email", "", "Account email")
	}
	for _, c := range []*cobra.Command{verifyResetTokenCmd, resetPasswordCmd, confirmEmailCmd} {
		c.Flags().StringVar(&accountToken, "token", "", "Access token from the emailed link")
	}
	resetPasswordCmd.Flags().StringVar(&loginPassword, "password", "", "New password (defaults to PORTAL_PASSWORD)")
	confirmEmailCmd.Flags().StringVar(&accountRefreshToken, "refresh-token", "", "Refresh token from the confirmation link")
}
