package image

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	DefaultClipdropURL = "https://clipdrop-api.co/text-to-image/v1"
	maxImageBytes      = 20 << 20
)

// ErrImageTooLarge is returned when the image API answers with more than the client accepts
var ErrImageTooLarge = errors.New("image api response too large")

// Generator turns a prompt into PNG bytes
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// ClipdropClient calls the ClipDrop text-to-image endpoint
type ClipdropClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	maxBytes   int64
}

func NewClipdropClient(apiURL, apiKey string, timeout time.Duration) *ClipdropClient {
	if apiURL == "" {
		apiURL = DefaultClipdropURL
	}
	return &ClipdropClient{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     apiURL,
		apiKey:     apiKey,
		maxBytes:   maxImageBytes,
	}
}

// APIError is a non-200 answer from the image API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("image api returned %d: %s", e.StatusCode, e.Message)
}

func (c *ClipdropClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("failed to write prompt field: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image api response: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, c.maxBytes)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return nil, apiErr
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image api returned an empty body")
	}

	return data, nil
}
