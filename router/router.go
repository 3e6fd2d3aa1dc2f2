// Package router maps message text to a command using a fixed-priority keyword table.
package router

import (
	"strings"

	"github.com/ARYAN-9099/whatsapp-bot-public/types"
)

// Rule binds a command to the keywords that trigger it.
type Rule struct {
	Command  types.Command
	Keywords []string
}

// Table is evaluated top to bottom; the first rule with a keyword contained in the text
// wins. Matching is case-sensitive, so only the listed spellings trigger a command.
var Table = []Rule{
	{Command: types.CommandHelp, Keywords: []string{"/help", "/Help", "/HELP"}},
	{Command: types.CommandAIChat, Keywords: []string{"/ai", "/AI", "/bard"}},
	{Command: types.CommandBusSchedule, Keywords: []string{"/bus timetable", "/bus schedule", "/bus"}},
	{Command: types.CommandBroadcast, Keywords: []string{"/all"}},
	{Command: types.CommandReminder, Keywords: []string{"/reminder"}},
	{Command: types.CommandCounter, Keywords: []string{"/chaitanya"}},
	{Command: types.CommandYouTubeMP3, Keywords: []string{"/youtubemp3", "/youtube", "/mp3", "/yt"}},
	{Command: types.CommandImageGenerate, Keywords: []string{"/generate", "/gen"}},
	{Command: types.CommandImageSearch, Keywords: []string{"/image", "/img", "/photo"}},
	{Command: types.CommandLedgerUpdate, Keywords: []string{"/money", "/m"}},
	{Command: types.CommandLedgerBalance, Keywords: []string{"/balance"}},
}

// Route classifies text. It returns CommandNone when no keyword appears.
func Route(text string) types.Command {
	for _, rule := range Table {
		for _, kw := range rule.Keywords {
			if strings.Contains(text, kw) {
				return rule.Command
			}
		}
	}
	return types.CommandNone
}

// Args removes every keyword of cmd from text and trims the rest. Longer keywords are
// listed first in the table so "/bus schedule" is stripped whole before "/bus".
func Args(cmd types.Command, text string) string {
	for _, rule := range Table {
		if rule.Command != cmd {
			continue
		}
		for _, kw := range rule.Keywords {
			text = strings.ReplaceAll(text, kw, "")
		}
		break
	}
	return strings.TrimSpace(text)
}
