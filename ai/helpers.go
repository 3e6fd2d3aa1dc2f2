package ai

import (
	"regexp"
	"strings"
)

var (
	citationPattern = regexp.MustCompile(`【.*?】`)
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// FormatForWhatsApp drops 【…】 citation markers and turns markdown **bold** into the
// single-asterisk bold WhatsApp renders.
func FormatForWhatsApp(resp string) string {
	resp = citationPattern.ReplaceAllString(resp, "")
	resp = boldPattern.ReplaceAllString(resp, "*$1*")
	resp = strings.ReplaceAll(resp, "<|im_start|>", "")
	resp = strings.ReplaceAll(resp, "<|im_end|>", "")
	return strings.TrimSpace(resp)
}
