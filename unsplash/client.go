package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
)

// RateLimitError is returned when Unsplash reports no requests left in the current window.
type RateLimitError struct {
	Reset string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit reached, resets at %s", e.Reset)
}

var ErrEmptyQuery = errors.New("query cannot be empty")

type Client struct {
	BaseURL    string
	AccessKey  string
	PerPage    int
	HTTPClient *http.Client
}

type SearchResponse struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

type Photo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	URLs        URLs   `json:"urls"`
}

type URLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

func NewClient(accessKey string) *Client {
	return &Client{
		BaseURL:   "https://api.unsplash.com",
		AccessKey: accessKey,
		PerPage:   1,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Search returns the regular-size URLs of the photos matching query.
func (c *Client) Search(ctx context.Context, query string) (links []string, err error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	defer func() { metrics.ObserveUpstream("unsplash", err) }()

	u, err := url.Parse(c.BaseURL + "/search/photos")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("client_id", c.AccessKey)
	params.Set("per_page", strconv.Itoa(c.PerPage))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Version", "v1")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.Header.Get("X-Ratelimit-Remaining") == "0" {
		return nil, &RateLimitError{Reset: resp.Header.Get("X-Ratelimit-Reset")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var search SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	links = make([]string, 0, len(search.Results))
	for _, photo := range search.Results {
		if photo.URLs.Regular != "" {
			links = append(links, photo.URLs.Regular)
		}
	}
	return links, nil
}
