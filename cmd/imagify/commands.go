package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/imagify/imagify-api/cmd/imagify/ui"
	"github.com/imagify/imagify-api/internal/client"
)

type app struct {
	apiURL    string
	tokenPath string

	client *client.Client
	tokens *client.TokenFile
	in     *bufio.Reader
	tty    bool
	ttyFD  int
}

func (a *app) init(cmd *cobra.Command) error {
	if a.tokenPath == "" {
		tf, err := client.DefaultTokenFile()
		if err != nil {
			return err
		}
		a.tokens = tf
	} else {
		a.tokens = &client.TokenFile{Path: a.tokenPath}
	}

	token, err := a.tokens.Load()
	if err != nil {
		return err
	}

	a.client = client.New(a.apiURL, client.WithToken(token))

	stdin := cmd.InOrStdin()
	a.in = bufio.NewReader(stdin)
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		a.tty = true
		a.ttyFD = int(f.Fd())
	}
	return nil
}

func (a *app) saveSession() error {
	return a.tokens.Save(a.client.Token())
}

// readLine prompts on w and reads one line from stdin
func (a *app) readLine(w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo on a terminal and falls back to a plain line for pipes
func (a *app) readPassword(w io.Writer, prompt string) (string, error) {
	if !a.tty {
		return a.readLine(w, prompt)
	}

	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(a.ttyFD)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func (a *app) signupCmd() *cobra.Command {
	var s ui.Signup

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account with an emailed code",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if err := a.collectSignup(out, &s); err != nil {
				return err
			}

			if err := a.client.SendOTP(ctx, s.Email); err != nil {
				return err
			}
			ui.PrintSuccess(out, "OTP sent to "+s.Email)

			code, err := a.askOTP(out, s.Email)
			if err != nil {
				return err
			}
			if err := a.client.VerifyOTP(ctx, s.Email, code); err != nil {
				return err
			}

			if err := a.client.Register(ctx, s.Name, s.Email, s.Password); err != nil {
				return err
			}
			if err := a.saveSession(); err != nil {
				return err
			}

			ui.PrintSuccess(out, "Welcome, "+a.client.Session().User.Name)
			return a.showCredits(ctx, out)
		},
	}

	cmd.Flags().StringVar(&s.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&s.Email, "email", "", "Email address")
	return cmd
}

func (a *app) collectSignup(out io.Writer, s *ui.Signup) error {
	if a.tty && (s.Name == "" || s.Email == "") {
		return ui.RunSignupForm(s)
	}

	if s.Name == "" || s.Email == "" {
		return fmt.Errorf("--name and --email are required")
	}
	if err := ui.ValidateEmail(s.Email); err != nil {
		return err
	}

	password, err := a.readPassword(out, "Password: ")
	if err != nil {
		return err
	}
	if err := ui.ValidatePassword(password); err != nil {
		return err
	}
	s.Password = password
	return nil
}

func (a *app) askOTP(out io.Writer, email string) (string, error) {
	if a.tty {
		return ui.RunOTPForm(email)
	}

	code, err := a.readLine(out, "OTP: ")
	if err != nil {
		return "", err
	}
	if err := ui.ValidateOTP(code); err != nil {
		return "", err
	}
	return code, nil
}

func (a *app) loginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var password string
			if email == "" && a.tty {
				if err := ui.RunLoginForm(&email, &password); err != nil {
					return err
				}
			} else {
				if email == "" {
					return fmt.Errorf("--email is required")
				}
				p, err := a.readPassword(out, "Password: ")
				if err != nil {
					return err
				}
				password = p
			}

			if err := a.client.Login(ctx, email, password); err != nil {
				return err
			}
			if err := a.saveSession(); err != nil {
				return err
			}

			ui.PrintSuccess(out, "Logged in")
			return a.showCredits(ctx, out)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.client.Logout()
			if err := a.tokens.Clear(); err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) creditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Show the credit balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showCredits(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) showCredits(ctx context.Context, out io.Writer) error {
	if _, err := a.client.LoadCredits(ctx); err != nil {
		return err
	}
	ui.PrintCredits(out, a.client.Session())
	return nil
}

func (a *app) plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the credit plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := a.client.Plans(cmd.Context())
			if err != nil {
				return err
			}
			ui.PrintPlans(cmd.OutOrStdout(), plans)
			return nil
		},
	}
}

func (a *app) buyCmd() *cobra.Command {
	var planID string

	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Open a payment order for a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if planID == "" {
				if !a.tty {
					return fmt.Errorf("--plan is required")
				}
				plans, err := a.client.Plans(ctx)
				if err != nil {
					return err
				}
				if planID, err = ui.RunPlanSelect(plans); err != nil {
					return err
				}
			}

			checkout, err := a.client.CreateOrder(ctx, planID)
			if err != nil {
				return err
			}
			ui.PrintCheckout(cmd.OutOrStdout(), checkout)
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "Plan id (Basic, Advanced, Business)")
	return cmd
}

func (a *app) verifyPaymentCmd() *cobra.Command {
	var orderID, paymentID, signature string

	cmd := &cobra.Command{
		Use:   "verify-payment",
		Short: "Add the credits of a paid order",
		RunE: func(cmd *cobra.Command, args []string) error {
			credits, err := a.client.VerifyPayment(cmd.Context(), orderID, paymentID, signature)
			if err != nil {
				return err
			}
			ui.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Credits Added. Balance: %d", credits))
			return nil
		},
	}

	cmd.Flags().StringVar(&orderID, "order", "", "Gateway order id")
	cmd.Flags().StringVar(&paymentID, "payment", "", "Gateway payment id")
	cmd.Flags().StringVar(&signature, "signature", "", "Checkout signature")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

func (a *app) generateCmd() *cobra.Command {
	var prompt, outPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Spend one credit to generate an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if prompt == "" && len(args) > 0 {
				prompt = strings.Join(args, " ")
			}
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("--prompt is required")
			}

			image, err := a.client.GenerateImage(ctx, prompt)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = fmt.Sprintf("imagify-%s.png", time.Now().Format("20060102-150405"))
			}
			if err := a.client.SaveImage(ctx, image, outPath); err != nil {
				return err
			}

			ui.PrintSuccess(out, "Image saved to "+outPath)
			ui.PrintCredits(out, a.client.Session())
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "What to draw")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file")
	return cmd
}
