package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedImage = errors.New("unsupported image reference")

type generateResponse struct {
	CreditBalance int64  `json:"creditBalance"`
	ResultImage   string `json:"resultImage"`
}

// GenerateImage spends a credit on prompt and returns the image reference,
// a data URL or an http(s) link. When the server reports an empty balance
// the error is ErrNoCredits so the caller can offer the plans.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if err := c.requireToken(); err != nil {
		return "", err
	}

	var resp generateResponse
	err := c.do(ctx, http.MethodPost, "/api/image/generate-image", map[string]string{"prompt": prompt}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.CreditBalance != nil && *apiErr.CreditBalance == 0 {
			c.setCredits(0)
			return "", fmt.Errorf("%w: %s", ErrNoCredits, apiErr.Message)
		}
		return "", err
	}

	c.setCredits(resp.CreditBalance)
	if _, err := c.LoadCredits(ctx); err != nil {
		// the image is paid for; a stale balance is not worth failing over
		c.setCredits(resp.CreditBalance)
	}

	return resp.ResultImage, nil
}

func (c *Client) setCredits(credits int64) {
	c.mu.Lock()
	c.session.Credits = credits
	c.mu.Unlock()
}

// SaveImage writes a generated image to path. Data URLs are decoded in
// place, http(s) links are downloaded.
func (c *Client) SaveImage(ctx context.Context, image, path string) error {
	var data []byte
	var err error

	switch {
	case strings.HasPrefix(image, "data:"):
		data, err = decodeDataURL(image)
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		data, err = c.download(ctx, image)
	default:
		return ErrUnsupportedImage
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

func decodeDataURL(s string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, ErrUnsupportedImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return data, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnableToConnect, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
