package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/imagify/imagify-api/cmd/imagify/ui"
	"github.com/imagify/imagify-api/internal/client"
)

const defaultAPIURL = "http://localhost:4000"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "imagify",
		Short:         "Turn text prompts into images",
		Long:          "Command line client for the Imagify API: sign up, buy credits and generate images.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api", envOr("IMAGIFY_API_URL", defaultAPIURL), "API base URL")
	rootCmd.PersistentFlags().StringVar(&a.tokenPath, "token-file", os.Getenv("IMAGIFY_TOKEN_FILE"), "Where the session token is kept")

	rootCmd.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.creditsCmd(),
		a.plansCmd(),
		a.buyCmd(),
		a.verifyPaymentCmd(),
		a.generateCmd(),
	)

	return wrapErrors(rootCmd)
}

// wrapErrors prints command errors in the shared style
func wrapErrors(root *cobra.Command) *cobra.Command {
	for _, cmd := range root.Commands() {
		run := cmd.RunE
		if run == nil {
			continue
		}
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if err == nil {
				return nil
			}
			if errors.Is(err, client.ErrNoCredits) {
				ui.PrintNoCredits(cmd.ErrOrStderr())
				return err
			}
			ui.PrintError(cmd.ErrOrStderr(), err.Error())
			return err
		}
	}
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
