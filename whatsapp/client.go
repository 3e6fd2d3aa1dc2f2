package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"

	// MaxBodyLength is the Cloud API limit on text message bodies.
	MaxBodyLength = 4096
)

// Sender is what command handlers need to talk back to users.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendImage(ctx context.Context, to, link string) error
	MarkRead(ctx context.Context, messageID string) error
}

// APIError is returned for any non-200 answer from the Cloud API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp API returned status %d: %s", e.StatusCode, e.Body)
}

// Config identifies the sending business number.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
}

type Client struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	HTTPClient    *http.Client
	logger        *logging.Logger
}

func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		BaseURL:       cfg.BaseURL,
		APIVersion:    cfg.APIVersion,
		PhoneNumberID: cfg.PhoneNumberID,
		AccessToken:   cfg.AccessToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Component("whatsapp"),
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	return c
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type imagePayload struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Image            struct {
		Link string `json:"link"`
	} `json:"image"`
}

type readPayload struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

// SendText delivers body to the wa_id "to". Bodies over MaxBodyLength characters are cut.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	p := textPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	p.Text.Body = Truncate(body, MaxBodyLength)

	err := c.post(ctx, p)
	c.count(err, "text", to)
	return err
}

// SendImage sends an image message by public link.
func (c *Client) SendImage(ctx context.Context, to, link string) error {
	p := imagePayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "image",
	}
	p.Image.Link = link

	err := c.post(ctx, p)
	c.count(err, "image", to)
	return err
}

// MarkRead sends the read receipt for an inbound message.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	err := c.post(ctx, readPayload{
		MessagingProduct: "whatsapp",
		Status:           "read",
		MessageID:        messageID,
	})
	if err != nil {
		metrics.ReadReceiptFailed.Add(1)
		c.logger.Error("error sending read receipt", "error", err.Error(), "messageID", messageID)
	}
	return err
}

func (c *Client) count(err error, kind, to string) {
	if err != nil {
		metrics.WhatsAppSendFailed.Add(1)
		c.logger.Error("error sending message", "error", err.Error(), "type", kind, "to", to)
		return
	}
	metrics.WhatsAppMessageSent.Add(1)
	c.logger.Debug("message sent", "type", kind, "to", to)
}

func (c *Client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.BaseURL, c.APIVersion, c.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// Truncate cuts s to at most limit characters, ending with "..." when it had to cut.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
