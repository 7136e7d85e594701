package client

import (
	"context"
	"net/http"
)

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type creditsResponse struct {
	Credits int64 `json:"credits"`
	User    User  `json:"user"`
}

// SendOTP asks the server to email a signup code
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/user/send-otp", map[string]string{"email": email}, nil)
}

// VerifyOTP checks a signup code. A code is accepted once.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	return c.do(ctx, http.MethodPost, "/api/user/verify-otp", map[string]string{"email": email, "otp": otp}, nil)
}

// Register creates a password account and signs in
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/user/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}
	c.signIn(resp)
	return nil
}

// Login signs in with email and password
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp authResponse
	err := c.do(ctx, http.MethodPost, "/api/user/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}
	c.signIn(resp)
	return nil
}

func (c *Client) signIn(resp authResponse) {
	c.mu.Lock()
	c.session = Session{Token: resp.Token, User: resp.User}
	c.mu.Unlock()
}

// LoadCredits refreshes the balance and the user from the server
func (c *Client) LoadCredits(ctx context.Context) (int64, error) {
	if err := c.requireToken(); err != nil {
		return 0, err
	}

	var resp creditsResponse
	if err := c.do(ctx, http.MethodGet, "/api/user/credits", nil, &resp); err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.session.Credits = resp.Credits
	c.session.User = resp.User
	c.mu.Unlock()

	return resp.Credits, nil
}
