// package ai answers free-form /ai questions with an OpenAI-compatible chat model.
package ai

import (
	"context"
	"errors"
)

// DefaultPrompt steers the model towards short chat-sized answers.
const DefaultPrompt = "You are a helpful assistant replying inside a WhatsApp chat. Answer the question directly and keep the reply short enough to read on a phone. Use plain text; *single asterisks* are the only formatting WhatsApp understands. If you do not know the answer, say so."

const (
	DefaultTemperature = 0.9
	DefaultMaxTokens   = 2048
)

// ErrNoResponse is returned when the model produced no choices or only whitespace.
var ErrNoResponse = errors.New("no response was generated")

// Chatter is implemented by anything that can answer a single prompt.
type Chatter interface {
	Ask(ctx context.Context, prompt string) (string, error)
}
