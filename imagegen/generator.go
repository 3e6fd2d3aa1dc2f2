// Package imagegen turns text prompts into PNG images.
package imagegen

import (
	"context"
	"errors"
)

// ErrEmptyPrompt is returned before any upstream call when the prompt is blank.
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// ErrNoImage is returned when the provider answered without an image.
var ErrNoImage = errors.New("no image in response")

// Generator produces one image for a prompt and returns its encoded bytes.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
