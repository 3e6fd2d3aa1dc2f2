package whatsapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const textWebhook = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550783881", "phone_number_id": "106540352242922"},
        "contacts": [{"profile": {"name": "Aryan"}, "wa_id": "919876543210"}],
        "messages": [{
          "from": "919876543210",
          "id": "wamid.HBgLMTY1MDM4Nzk0MzkVAgASGBQzQTRBNjU5OUFFRTAzODEwMTQ0RgA=",
          "timestamp": "1760778000",
          "type": "text",
          "text": {"body": "/ai tell me a joke"}
        }]
      }
    }]
  }]
}`

const statusWebhook = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "102290129340398",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550783881", "phone_number_id": "106540352242922"},
        "statuses": [{"id": "wamid.abc", "status": "delivered"}]
      }
    }]
  }]
}`

func TestParseEventText(t *testing.T) {
	event, ok := ParseEvent([]byte(textWebhook))

	assert.True(t, ok)
	assert.Equal(t, "wamid.HBgLMTY1MDM4Nzk0MzkVAgASGBQzQTRBNjU5OUFFRTAzODEwMTQ0RgA=", event.ID)
	assert.Equal(t, "919876543210", event.Sender)
	assert.Equal(t, "/ai tell me a joke", event.Text)
	assert.Equal(t, "text", event.Kind)
	assert.Equal(t, time.Unix(1760778000, 0).UTC(), event.ReceivedAt)
}

func TestParseEventInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "status update", body: statusWebhook},
		{name: "not json", body: "hello"},
		{name: "empty object", body: `{}`},
		{name: "no object", body: `{"entry":[{"changes":[{"value":{"messages":[{"id":"x"}]}}]}]}`},
		{name: "no entries", body: `{"object":"whatsapp_business_account","entry":[]}`},
		{name: "no changes", body: `{"object":"whatsapp_business_account","entry":[{"changes":[]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseEvent([]byte(tt.body))
			assert.False(t, ok)
		})
	}
}

func TestParseEventFallsBackToFrom(t *testing.T) {
	body := `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{
		"messages":[{"from":"918000000000","id":"wamid.2","type":"image"}]}}]}]}`

	event, ok := ParseEvent([]byte(body))
	assert.True(t, ok)
	assert.Equal(t, "918000000000", event.Sender)
	assert.Empty(t, event.Text)
	assert.False(t, event.HasText())
}

func TestVerifySignature(t *testing.T) {
	body := []byte(textWebhook)
	sig := Sign("app-secret", body)

	assert.True(t, VerifySignature("app-secret", body, sig))
	assert.False(t, VerifySignature("other-secret", body, sig))
	assert.False(t, VerifySignature("app-secret", body, ""))
	assert.False(t, VerifySignature("app-secret", body, "md5=abc"))
	assert.True(t, VerifySignature("", body, ""), "no secret configured")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", Truncate("éééééééé", 6))
}
