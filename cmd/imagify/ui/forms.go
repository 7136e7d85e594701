package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imagify/imagify-api/internal/client"
)

// Signup holds what the signup form collects
type Signup struct {
	Name     string
	Email    string
	Password string
}

// RunSignupForm asks for the account details. Fields already set are kept as defaults.
func RunSignupForm(s *Signup) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&s.Name).
				Validate(ValidateName),

			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&s.Email).
				Validate(ValidateEmail),

			huh.NewInput().
				Title("Password").
				Description(fmt.Sprintf("At least %d characters", MinPasswordLength)).
				EchoMode(huh.EchoModePassword).
				Value(&s.Password).
				Validate(ValidatePassword),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return err
	}

	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	return nil
}

// RunOTPForm asks for the code that was emailed to email.
func RunOTPForm(email string) (string, error) {
	var code string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Verification code").
				Description("Sent to " + email + ". It expires in 5 minutes.").
				CharLimit(6).
				Value(&code).
				Validate(ValidateOTP),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}

// RunLoginForm asks for email and password.
func RunLoginForm(email, password *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(email).
				Validate(ValidateEmail),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return err
	}

	*email = strings.TrimSpace(*email)
	return nil
}

// RunPlanSelect lets the user pick one of plans and returns its id.
func RunPlanSelect(plans []client.Plan) (string, error) {
	var planID string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose a plan").
				Options(planOptions(plans)...).
				Value(&planID),
		),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return "", err
	}
	return planID, nil
}

func planOptions(plans []client.Plan) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(plans))
	for _, p := range plans {
		opts = append(opts, huh.NewOption(PlanLabel(p), p.ID))
	}
	return opts
}

// PlanLabel renders a plan on one line
func PlanLabel(p client.Plan) string {
	return fmt.Sprintf("%s: %d credits for %d %s", p.ID, p.Credits, p.Price, p.Currency)
}
