package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/portal-payments/app/mapper"
	"github.com/vibast-solutions/portal-payments/app/types"
)

var (
	loginEmail    string
	loginPassword string

	whoamiRefresh bool

	registerName        string
	registerOrg         string
	registerPhone       string
	registerDescription string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session for the selected scope",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		req := &types.LoginRequest{Email: loginEmail, Password: resolvePassword()}
		req.Normalize()

		item, err := app.auth.Login(commandContext(cmd), req)
		if err != nil {
			cleanup()
			fail(err)
		}
		fmt.Printf("Logged in as %s (%s)\n", item.User.Email, app.auth.Scope())
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account in the selected scope",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		req := &types.RegisterRequest{
			FullName:    registerName,
			OrgName:     registerOrg,
			Email:       loginEmail,
			Password:    resolvePassword(),
			Phone:       registerPhone,
			Description: registerDescription,
		}
		req.Normalize()

		item, err := app.auth.Register(commandContext(cmd), req)
		if err != nil {
			cleanup()
			fail(err)
		}
		if item == nil {
			fmt.Println("Registration received. Check your email to verify the account, then run `portal login`.")
			return
		}
		fmt.Printf("Registered and logged in as %s (%s)\n", item.User.Email, app.auth.Scope())
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session for the selected scope",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		if err := app.auth.Logout(commandContext(cmd)); err != nil {
			cleanup()
			fail(err)
		}
		fmt.Println("Logged out")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Run: func(cmd *cobra.Command, _ []string) {
		app, cleanup := mustCreateApp()
		defer cleanup()

		item, err := app.auth.Whoami(commandContext(cmd), whoamiRefresh)
		if err != nil {
			cleanup()
			fail(err)
		}
		if err := printJSON(mapper.SessionToView(app.auth.Scope(), item)); err != nil {
			cleanup()
			fail(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&loginEmail, "email", "", "Account email")
		c.Flags().StringVar(&loginPassword, "password", "", "Account password (defaults to PORTAL_PASSWORD)")
	}
	registerCmd.Flags().StringVar(&registerName, "name", "", "Full name (member scope)")
	registerCmd.Flags().StringVar(&registerOrg, "org", "", "Organization name (owner scope)")
	registerCmd.Flags().StringVar(&registerPhone, "phone", "", "Phone number")
	registerCmd.Flags().StringVar(&registerDescription, "description", "", "Organization description (owner scope)")

	whoamiCmd.Flags().BoolVar(&whoamiRefresh, "refresh", false, "Refresh the profile from the backend (owner scope)")
}

func resolvePassword() string {
	if loginPassword != "" {
		return loginPassword
	}
	return os.Getenv("PORTAL_PASSWORD")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
