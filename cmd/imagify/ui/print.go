package ui

import (
	"fmt"
	"io"

	"github.com/imagify/imagify-api/internal/client"
)

// PrintTitle prints a section heading.
func PrintTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

// PrintSuccess prints a confirmation.
func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+msg))
}

// PrintCredits prints the balance of the signed-in user.
func PrintCredits(w io.Writer, s client.Session) {
	name := s.User.Name
	if name == "" {
		name = "you"
	}
	fmt.Fprintf(w, "Hi %s, credits left: %s\n", name, creditStyle.Render(fmt.Sprint(s.Credits)))
}

// PrintPlans lists the credit plans.
func PrintPlans(w io.Writer, plans []client.Plan) {
	PrintTitle(w, "Credit plans")
	for _, p := range plans {
		fmt.Fprintf(w, "  %s\n", PlanLabel(p))
		if p.Description != "" {
			fmt.Fprintf(w, "    %s\n", subtleStyle.Render(p.Description))
		}
	}
	fmt.Fprintln(w)
}

// PrintCheckout prints what the user needs to pay for an order.
func PrintCheckout(w io.Writer, c *client.Checkout) {
	PrintTitle(w, "Payment order created")
	fmt.Fprintf(w, "  Order:    %s\n", c.Order.ID)
	fmt.Fprintf(w, "  Amount:   %d %s (minor units)\n", c.Order.Amount, c.Order.Currency)
	fmt.Fprintf(w, "  Key:      %s\n", c.KeyID)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Complete the checkout, then run:")
	fmt.Fprintf(w, "  imagify verify-payment --order %s\n", c.Order.ID)
	fmt.Fprintln(w)
}

// PrintNoCredits points the user at the plans.
func PrintNoCredits(w io.Writer) {
	fmt.Fprintln(w, errorStyle.Render("No Credit Balance"))
	fmt.Fprintln(w, subtleStyle.Render("Buy credits with: imagify plans && imagify buy"))
}
