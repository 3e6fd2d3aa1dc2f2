// Package sheets reads and writes cell ranges with the Google Sheets v4 values API.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"golang.org/x/oauth2/google"
)

const (
	DefaultBaseURL = "https://sheets.googleapis.com"
	scope          = "https://www.googleapis.com/auth/spreadsheets"
)

type Client struct {
	BaseURL       string
	SpreadsheetID string
	HTTPClient    *http.Client
}

// ValueRange is the request and response body of the values endpoints.
type ValueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

// NewServiceAccountClient authenticates with a service account key file's JSON.
func NewServiceAccountClient(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}

	httpClient := conf.Client(ctx)
	httpClient.Timeout = 30 * time.Second
	return NewClient(httpClient, spreadsheetID), nil
}

// NewClient uses httpClient as is; it must already add credentials.
func NewClient(httpClient *http.Client, spreadsheetID string) *Client {
	return &Client{
		BaseURL:       DefaultBaseURL,
		SpreadsheetID: spreadsheetID,
		HTTPClient:    httpClient,
	}
}

func (c *Client) valuesURL(rng, suffix string, query url.Values) string {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s%s",
		c.BaseURL, url.PathEscape(c.SpreadsheetID), url.PathEscape(rng), suffix)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Get returns the values stored in rng. Empty ranges come back with no rows.
func (c *Client) Get(ctx context.Context, rng string) ([][]any, error) {
	var out ValueRange
	if err := c.do(ctx, http.MethodGet, c.valuesURL(rng, "", nil), nil, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

// Update overwrites rng with values, stored as entered.
func (c *Client) Update(ctx context.Context, rng string, values [][]any) error {
	q := url.Values{}
	q.Set("valueInputOption", "RAW")
	body := ValueRange{Range: rng, MajorDimension: "ROWS", Values: values}
	return c.do(ctx, http.MethodPut, c.valuesURL(rng, "", q), body, nil)
}

// Append adds values as new rows after the table found in rng.
func (c *Client) Append(ctx context.Context, rng string, values [][]any) error {
	q := url.Values{}
	q.Set("valueInputOption", "RAW")
	q.Set("insertDataOption", "INSERT_ROWS")
	body := ValueRange{Range: rng, MajorDimension: "ROWS", Values: values}
	return c.do(ctx, http.MethodPost, c.valuesURL(rng, ":append", q), body, nil)
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) (err error) {
	defer func() { metrics.ObserveUpstream("sheets", err) }()

	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sheets API returned status %d: %s", resp.StatusCode, string(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
