// Package ytmp3 converts YouTube links to downloadable MP3 links through RapidAPI.
package ytmp3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
)

const DefaultHost = "youtube-mp3-downloader2.p.rapidapi.com"

var ErrEmptyURL = errors.New("video url cannot be empty")

type Client struct {
	BaseURL    string
	Host       string
	APIKey     string
	HTTPClient *http.Client
}

type convertResponse struct {
	Link   string `json:"link"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func NewClient(apiKey string) *Client {
	return &Client{
		BaseURL: "https://" + DefaultHost,
		Host:    DefaultHost,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Convert returns the MP3 download link for videoURL.
func (c *Client) Convert(ctx context.Context, videoURL string) (link string, err error) {
	if videoURL == "" {
		return "", ErrEmptyURL
	}
	defer func() { metrics.ObserveUpstream("ytmp3", err) }()

	u, err := url.Parse(c.BaseURL + "/ytmp3/ytmp3/")
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	params := url.Values{}
	params.Set("url", videoURL)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.Host)

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

	var converted convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&converted); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if converted.Link == "" {
		return "", fmt.Errorf("conversion returned no link (status %q)", converted.Status)
	}
	return converted.Link, nil
}
