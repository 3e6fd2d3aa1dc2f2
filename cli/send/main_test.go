package main

import (
	"testing"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/stretchr/testify/assert"
)

func TestRunRequiresRecipientAndBody(t *testing.T) {
	logger := logging.Discard()

	assert.ErrorContains(t, run(logger, "", "", "hi", ""), "usage")
	assert.ErrorContains(t, run(logger, "", "919000000001", "", ""), "usage")
}

func TestRunRequiresCredentials(t *testing.T) {
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "")

	err := run(logging.Discard(), "does-not-exist.env", "919000000001", "hi", "")
	assert.ErrorContains(t, err, "WHATSAPP_ACCESS_TOKEN")
}
