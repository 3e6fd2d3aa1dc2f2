package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
)

const DefaultStabilityEngine = "stable-diffusion-v1-6"

// Stability calls the Stability AI text-to-image REST endpoint.
type Stability struct {
	BaseURL    string
	Engine     string
	APIKey     string
	CFGScale   float64
	Height     int
	Width      int
	Steps      int
	HTTPClient *http.Client
}

type textPrompt struct {
	Text string `json:"text"`
}

type stabilityRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CFGScale    float64      `json:"cfg_scale"`
	Height      int          `json:"height"`
	Width       int          `json:"width"`
	Samples     int          `json:"samples"`
	Steps       int          `json:"steps"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int64  `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

func NewStability(apiKey string) *Stability {
	return &Stability{
		BaseURL:  "https://api.stability.ai",
		Engine:   DefaultStabilityEngine,
		APIKey:   apiKey,
		CFGScale: 7,
		Height:   1024,
		Width:    1024,
		Steps:    30,
		HTTPClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Generate implements Generator.
func (s *Stability) Generate(ctx context.Context, prompt string) (image []byte, err error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	defer func() { metrics.ObserveUpstream("stability", err) }()

	body, err := json.Marshal(stabilityRequest{
		TextPrompts: []textPrompt{{Text: prompt}},
		CFGScale:    s.CFGScale,
		Height:      s.Height,
		Width:       s.Width,
		Samples:     1,
		Steps:       s.Steps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/generation/%s/text-to-image", s.BaseURL, s.Engine)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(msg))
	}

	var generated stabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(generated.Artifacts) == 0 || generated.Artifacts[0].Base64 == "" {
		return nil, ErrNoImage
	}

	image, err = base64.StdEncoding.DecodeString(generated.Artifacts[0].Base64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return image, nil
}
