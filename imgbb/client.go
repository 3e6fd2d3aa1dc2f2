// Package imgbb uploads images to imgbb so they can be sent to WhatsApp by public link.
package imgbb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
)

var ErrEmptyImage = errors.New("image cannot be empty")

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type uploadResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		ID         string `json:"id"`
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: "https://api.imgbb.com",
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Upload stores image and returns its public URL.
func (c *Client) Upload(ctx context.Context, image []byte) (link string, err error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	defer func() { metrics.ObserveUpstream("imgbb", err) }()

	form := url.Values{}
	form.Set("key", c.APIKey)
	form.Set("image", base64.StdEncoding.EncodeToString(image))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/1/upload", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var upload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if upload.Data.URL == "" {
		return "", fmt.Errorf("upload response has no url")
	}
	return upload.Data.URL, nil
}
