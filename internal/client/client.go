// Package client is a Go SDK for the Imagify API. It keeps the session
// (token, user, credit balance) the way the web app keeps its shared context.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenHeader carries the session token on authenticated calls
const TokenHeader = "token"

var (
	ErrUnableToConnect = errors.New("Unable to connect to the server")
	ErrNotLoggedIn     = errors.New("Not logged in")
	ErrNoCredits       = errors.New("No Credit Balance")
)

// APIError is a soft failure reported by the server
type APIError struct {
	Message string
	Code    string
	// CreditBalance is set when the server reports the balance with the failure
	CreditBalance *int64
}

func (e *APIError) Error() string {
	return e.Message
}

// User is the account shown to the person using the client
type User struct {
	Name string `json:"name"`
}

// Session is what the client knows about the signed-in user
type Session struct {
	Token   string
	User    User
	Credits int64
}

// LoggedIn reports whether the session carries a token
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken starts the client with a saved session token
func WithToken(token string) Option {
	return func(c *Client) {
		c.session.Token = token
	}
}

// Client talks to the Imagify API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session Session
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current session
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Token returns the session token, empty when logged out
func (c *Client) Token() string {
	return c.Session().Token
}

// SetToken replaces the session token, e.g. one handed out by Google sign-in
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.session.Token = token
	c.mu.Unlock()
}

// Logout forgets the token, the user and the balance
func (c *Client) Logout() {
	c.mu.Lock()
	c.session = Session{}
	c.mu.Unlock()
}

type envelope struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Code          string `json:"code"`
	CreditBalance *int64 `json:"creditBalance"`
}

// do sends a JSON request and decodes a successful body into out.
// Failures in transport map to ErrUnableToConnect, soft failures to *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnableToConnect, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnableToConnect, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return &APIError{Message: env.Message, Code: env.Code, CreditBalance: env.CreditBalance}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) requireToken() error {
	if c.Token() == "" {
		return ErrNotLoggedIn
	}
	return nil
}
