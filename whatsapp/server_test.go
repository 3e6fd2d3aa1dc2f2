package whatsapp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []types.InboundEvent
	refuse bool
}

func (f *fakePublisher) Publish(event types.InboundEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse {
		return false
	}
	f.events = append(f.events, event)
	return true
}

func newTestServer(secret string) (*Server, *fakePublisher) {
	pub := &fakePublisher{}
	return NewServer("", WebhookConfig{VerifyToken: "verify-me", AppSecret: secret}, pub, logging.Discard()), pub
}

func TestVerifyHandshake(t *testing.T) {
	server, _ := newTestServer("")

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantBody string
	}{
		{name: "ok", query: "hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=1158201444", wantCode: http.StatusOK, wantBody: "1158201444"},
		{name: "wrong token", query: "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1", wantCode: http.StatusForbidden},
		{name: "wrong mode", query: "hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=1", wantCode: http.StatusForbidden},
		{name: "missing", query: "", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func postWebhook(server *Server, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestReceivePublishesMessage(t *testing.T) {
	server, pub := newTestServer("")

	rec := postWebhook(server, textWebhook, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "/ai tell me a joke", pub.events[0].Text)
}

func TestReceiveIgnoresStatusUpdates(t *testing.T) {
	server, pub := newTestServer("")

	rec := postWebhook(server, statusWebhook, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, pub.events)
}

func TestReceiveChecksSignature(t *testing.T) {
	server, pub := newTestServer("app-secret")

	rec := postWebhook(server, textWebhook, "sha256=deadbeef")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, pub.events)

	rec = postWebhook(server, textWebhook, Sign("app-secret", []byte(textWebhook)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.events, 1)
}

func TestReceiveQueueFull(t *testing.T) {
	server, pub := newTestServer("")
	pub.refuse = true

	rec := postWebhook(server, textWebhook, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer("")

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReceiveRejectsOversizedBody(t *testing.T) {
	server, pub := newTestServer("")
	body := `{"padding":"` + strings.Repeat("x", 2<<20) + `"}`

	rec := postWebhook(server, body, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// without a Content-Length the limit applies while reading
	req := httptest.NewRequest(http.MethodPost, "/webhook", io.NopCloser(strings.NewReader(body)))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Empty(t, pub.events)
}
