package types

// Command identifies which handler an inbound message is routed to.
type Command int

const (
	CommandNone Command = iota
	CommandHelp
	CommandAIChat
	CommandBusSchedule
	CommandBroadcast
	CommandReminder
	CommandCounter
	CommandYouTubeMP3
	CommandImageGenerate
	CommandImageSearch
	CommandLedgerUpdate
	CommandLedgerBalance
)

var commandNames = map[Command]string{
	CommandNone:          "none",
	CommandHelp:          "help",
	CommandAIChat:        "ai-chat",
	CommandBusSchedule:   "bus-schedule",
	CommandBroadcast:     "broadcast",
	CommandReminder:      "reminder",
	CommandCounter:       "counter",
	CommandYouTubeMP3:    "youtube-to-mp3",
	CommandImageGenerate: "image-generate",
	CommandImageSearch:   "image-search",
	CommandLedgerUpdate:  "ledger-update",
	CommandLedgerBalance: "ledger-balance",
}

// String returns the metric/log label of the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}
