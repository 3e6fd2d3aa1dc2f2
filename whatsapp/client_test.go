package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path   string
	auth   string
	ctype  string
	body   map[string]any
	status int
}

func newTestClient(t *testing.T, status int) (*Client, *captured) {
	t.Helper()
	got := &captured{status: status}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.ctype = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))

		w.WriteHeader(got.status)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		AccessToken:   "token",
		PhoneNumberID: "106540352242922",
		BaseURL:       server.URL,
	}, logging.Discard())
	return client, got
}

func TestSendText(t *testing.T) {
	client, got := newTestClient(t, http.StatusOK)

	err := client.SendText(context.Background(), "919876543210", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/v21.0/106540352242922/messages", got.path)
	assert.Equal(t, "Bearer token", got.auth)
	assert.Equal(t, "application/json", got.ctype)
	assert.Equal(t, "whatsapp", got.body["messaging_product"])
	assert.Equal(t, "individual", got.body["recipient_type"])
	assert.Equal(t, "919876543210", got.body["to"])
	assert.Equal(t, "text", got.body["type"])
	assert.Equal(t, "hello", got.body["text"].(map[string]any)["body"])
}

func TestSendTextTruncates(t *testing.T) {
	client, got := newTestClient(t, http.StatusOK)

	require.NoError(t, client.SendText(context.Background(), "919", strings.Repeat("a", 5000)))

	body := got.body["text"].(map[string]any)["body"].(string)
	assert.Len(t, body, MaxBodyLength)
	assert.True(t, strings.HasSuffix(body, "..."))
}

func TestSendImage(t *testing.T) {
	client, got := newTestClient(t, http.StatusOK)

	require.NoError(t, client.SendImage(context.Background(), "919", "https://i.ibb.co/x.png"))

	assert.Equal(t, "image", got.body["type"])
	assert.Equal(t, "https://i.ibb.co/x.png", got.body["image"].(map[string]any)["link"])
}

func TestMarkRead(t *testing.T) {
	client, got := newTestClient(t, http.StatusOK)

	require.NoError(t, client.MarkRead(context.Background(), "wamid.1"))

	assert.Equal(t, map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        "wamid.1",
	}, got.body)
}

func TestSendNon200IsAPIError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusUnauthorized)

	err := client.SendText(context.Background(), "919", "hello")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad token")
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{}, nil)
	assert.Equal(t, DefaultBaseURL, client.BaseURL)
	assert.Equal(t, DefaultAPIVersion, client.APIVersion)
	assert.NotNil(t, client.HTTPClient)
}
