package ui

import (
	"fmt"
	"net/mail"
	"strings"
)

// MinPasswordLength matches the server's registration rule
const MinPasswordLength = 8

// ValidateName checks that a display name was entered.
func ValidateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// ValidateEmail checks for a single plain address.
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// ValidatePassword checks the minimum length.
func ValidatePassword(s string) error {
	if len(s) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateOTP checks for the six digits sent by email.
func ValidateOTP(s string) error {
	s = strings.TrimSpace(s)
	if len(s) != 6 {
		return fmt.Errorf("the code has 6 digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("the code has 6 digits")
		}
	}
	return nil
}
