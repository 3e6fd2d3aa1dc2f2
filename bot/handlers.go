package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/ai"
	"github.com/ARYAN-9099/whatsapp-bot-public/counter"
	"github.com/ARYAN-9099/whatsapp-bot-public/imagegen"
	"github.com/ARYAN-9099/whatsapp-bot-public/ledger"
	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/reminder"
	"github.com/ARYAN-9099/whatsapp-bot-public/router"
	"github.com/ARYAN-9099/whatsapp-bot-public/timeconv"
	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"github.com/ARYAN-9099/whatsapp-bot-public/unsplash"
	"github.com/ARYAN-9099/whatsapp-bot-public/whatsapp"
)

// Replies sent back to users.
const (
	ReplyGenericError     = "Sorry, something went wrong. Please try again later."
	ReplyUnavailable      = "This command is not available right now."
	ReplyAskEmpty         = "Please ask me something after /ai."
	ReplyNoResponse       = "No response was generated."
	ReplyInvalidTime      = "Invalid time format."
	ReplyTimeInPast       = "The specified time is in the past."
	ReplyReminderUsage    = "Usage: /reminder YYYY-MM-DD HH:MM [AM|PM] message"
	ReplyInvalidInput     = "Invalid input."
	ReplyInvalidAction    = "Invalid action."
	ReplyNotAuthorized    = "Not authorized."
	ReplyLinkEmpty        = "Please send a YouTube link after /yt."
	ReplyConvertFailed    = "Error occurred while converting the mp3."
	ReplyPromptEmpty      = "Please enter a prompt."
	ReplyGenerateFailed   = "Error occurred while generating the image."
	ReplyUploadFailed     = "Error occurred while uploading."
	ReplySearchEmpty      = "Please tell me what to search for."
	ReplySearchFailed     = "Error occurred while searching for images."
	ReplyNoImages         = "No images found."
	ReplyBusNotConfigured = "The bus timetable has not been set up."
)

// ImageSearcher finds photo URLs for a query.
type ImageSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Uploader hosts image bytes and returns a public link.
type Uploader interface {
	Upload(ctx context.Context, image []byte) (string, error)
}

// Converter turns a video link into an MP3 download link.
type Converter interface {
	Convert(ctx context.Context, videoURL string) (string, error)
}

// Scheduler arms one-shot reminders.
type Scheduler interface {
	ScheduleOnce(req types.ReminderRequest) (types.Outcome, reminder.Handle)
}

// Services are the backends handlers call. Nil members disable their commands.
type Services struct {
	Sender    whatsapp.Sender
	Chat      ai.Chatter
	Images    ImageSearcher
	Generator imagegen.Generator
	Uploader  Uploader
	MP3       Converter
	Ledger    *ledger.Ledger
	Counter   *counter.Counter
	Reminders Scheduler
}

// Settings are the static parts of the bot's behaviour.
type Settings struct {
	HelpText            string
	BusImageURL         string
	BroadcastRecipients []string
	BroadcastPause      time.Duration
	Timezone            string
}

// Handlers runs one command for one inbound message.
type Handlers struct {
	svc      Services
	settings Settings
	sleep    func(ctx context.Context, d time.Duration)
	logger   *logging.Logger
}

func NewHandlers(svc Services, settings Settings, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.Default()
	}
	if settings.Timezone == "" {
		settings.Timezone = timeconv.DefaultSourceZone
	}
	return &Handlers{
		svc:      svc,
		settings: settings,
		sleep:    sleepCtx,
		logger:   logger.Component("handlers"),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Handle runs cmd for event. The returned error is for accounting only; the user has
// already been answered when it makes sense.
func (h *Handlers) Handle(ctx context.Context, cmd types.Command, event types.InboundEvent) error {
	args := router.Args(cmd, event.Text)

	switch cmd {
	case types.CommandHelp:
		return h.reply(ctx, event.Sender, h.settings.HelpText)
	case types.CommandAIChat:
		return h.aiChat(ctx, event.Sender, args)
	case types.CommandBusSchedule:
		return h.busSchedule(ctx, event.Sender)
	case types.CommandBroadcast:
		return h.broadcast(ctx, args)
	case types.CommandReminder:
		return h.reminder(ctx, event.Sender, args)
	case types.CommandCounter:
		return h.counter(ctx, event.Sender, args)
	case types.CommandYouTubeMP3:
		return h.youtubeMP3(ctx, event.Sender, args)
	case types.CommandImageGenerate:
		return h.imageGenerate(ctx, event.Sender, args)
	case types.CommandImageSearch:
		return h.imageSearch(ctx, event.Sender, args)
	case types.CommandLedgerUpdate:
		return h.ledgerUpdate(ctx, event.Sender, args)
	case types.CommandLedgerBalance:
		return h.ledgerBalance(ctx, event.Sender)
	default:
		return nil
	}
}

func (h *Handlers) reply(ctx context.Context, to, body string) error {
	return h.svc.Sender.SendText(ctx, to, body)
}

// fail answers with a fixed message and returns cause so the dispatcher counts the error.
func (h *Handlers) fail(ctx context.Context, to, body string, cause error) error {
	if err := h.reply(ctx, to, body); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (h *Handlers) aiChat(ctx context.Context, sender, prompt string) error {
	if h.svc.Chat == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}
	if prompt == "" {
		return h.reply(ctx, sender, ReplyAskEmpty)
	}

	answer, err := h.svc.Chat.Ask(ctx, prompt)
	if errors.Is(err, ai.ErrNoResponse) {
		return h.reply(ctx, sender, ReplyNoResponse)
	}
	if err != nil {
		return h.fail(ctx, sender, ReplyGenericError, err)
	}
	return h.reply(ctx, sender, answer)
}

func (h *Handlers) busSchedule(ctx context.Context, sender string) error {
	if h.settings.BusImageURL == "" {
		return h.reply(ctx, sender, ReplyBusNotConfigured)
	}
	return h.svc.Sender.SendImage(ctx, sender, h.settings.BusImageURL)
}

// broadcast sends text to every recipient one after another. Failures are logged and do
// not stop the loop.
func (h *Handlers) broadcast(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	logger := h.logger.WithContext(ctx)
	failed := 0
	for i, to := range h.settings.BroadcastRecipients {
		if i > 0 && h.settings.BroadcastPause > 0 {
			h.sleep(ctx, h.settings.BroadcastPause)
		}
		if err := h.svc.Sender.SendText(ctx, to, text); err != nil {
			failed++
			logger.Warn("broadcast send failed", "error", err.Error(), "to", to)
		}
	}
	logger.Info("broadcast sent", "recipients", len(h.settings.BroadcastRecipients), "failed", failed)
	return nil
}

// parseReminder splits "<date> <time> [AM|PM] <message>".
func parseReminder(args string) (date, clock, message string, ok bool) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return "", "", "", false
	}
	date, clock = fields[0], fields[1]
	rest := fields[2:]
	if strings.EqualFold(rest[0], "AM") || strings.EqualFold(rest[0], "PM") {
		clock += " " + rest[0]
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", "", "", false
	}
	return date, clock, strings.Join(rest, " "), true
}

func (h *Handlers) reminder(ctx context.Context, sender, args string) error {
	if h.svc.Reminders == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}

	date, clock, message, ok := parseReminder(args)
	if !ok {
		return h.reply(ctx, sender, ReplyReminderUsage)
	}

	fireAt, err := timeconv.ToAbsoluteInstant(clock, date, h.settings.Timezone, timeconv.DefaultTargetZone)
	if err != nil {
		h.logger.WithContext(ctx).Debug("reminder time rejected", "error", err.Error())
		return h.reply(ctx, sender, ReplyInvalidTime)
	}

	outcome, _ := h.svc.Reminders.ScheduleOnce(types.ReminderRequest{
		Sender: sender,
		FireAt: fireAt,
		Text:   message,
	})
	if outcome == types.OutcomeTooLate {
		return h.reply(ctx, sender, ReplyTimeInPast)
	}
	return h.reply(ctx, sender, fmt.Sprintf("Reminder set for %s (%s)",
		timeconv.FormatIn(fireAt, h.settings.Timezone), h.settings.Timezone))
}

func (h *Handlers) counter(ctx context.Context, sender, args string) error {
	if h.svc.Counter == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}

	if counter.IsListRequest(args) {
		report, err := h.svc.Counter.Report(ctx)
		if err != nil {
			return h.fail(ctx, sender, ReplyGenericError, err)
		}
		return h.reply(ctx, sender, report)
	}

	item, delta, err := h.svc.Counter.Parse(args)
	switch {
	case errors.Is(err, counter.ErrUnknownItem):
		return h.reply(ctx, sender, ReplyInvalidAction)
	case err != nil:
		return h.reply(ctx, sender, ReplyInvalidInput)
	}

	report, err := h.svc.Counter.Add(ctx, item, delta)
	if err != nil {
		return h.fail(ctx, sender, ReplyGenericError, err)
	}
	return h.reply(ctx, sender, report)
}

func (h *Handlers) youtubeMP3(ctx context.Context, sender, link string) error {
	if h.svc.MP3 == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}
	if link == "" {
		return h.reply(ctx, sender, ReplyLinkEmpty)
	}

	download, err := h.svc.MP3.Convert(ctx, link)
	if err != nil {
		return h.fail(ctx, sender, ReplyConvertFailed, err)
	}
	return h.reply(ctx, sender, "Download link: "+download)
}

func (h *Handlers) imageGenerate(ctx context.Context, sender, prompt string) error {
	if h.svc.Generator == nil || h.svc.Uploader == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}
	if prompt == "" {
		return h.reply(ctx, sender, ReplyPromptEmpty)
	}

	image, err := h.svc.Generator.Generate(ctx, prompt)
	if err != nil {
		return h.fail(ctx, sender, ReplyGenerateFailed, err)
	}
	link, err := h.svc.Uploader.Upload(ctx, image)
	if err != nil {
		return h.fail(ctx, sender, ReplyUploadFailed, err)
	}
	return h.svc.Sender.SendImage(ctx, sender, link)
}

func (h *Handlers) imageSearch(ctx context.Context, sender, query string) error {
	if h.svc.Images == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}
	if query == "" {
		return h.reply(ctx, sender, ReplySearchEmpty)
	}

	links, err := h.svc.Images.Search(ctx, query)
	var rateLimited *unsplash.RateLimitError
	if errors.As(err, &rateLimited) {
		return h.reply(ctx, sender, fmt.Sprintf("Rate limit reached. Please try again after %s.", h.resetTime(rateLimited.Reset)))
	}
	if err != nil {
		return h.fail(ctx, sender, ReplySearchFailed, err)
	}
	if len(links) == 0 {
		return h.reply(ctx, sender, ReplyNoImages)
	}

	var sendErr error
	for _, link := range links {
		if err := h.svc.Sender.SendImage(ctx, sender, link); err != nil {
			sendErr = errors.Join(sendErr, err)
		}
	}
	return sendErr
}

// resetTime renders a Unix-seconds reset header in the user's zone. Anything else is shown as is.
func (h *Handlers) resetTime(reset string) string {
	sec, err := strconv.ParseInt(strings.TrimSpace(reset), 10, 64)
	if err != nil {
		return reset
	}
	return timeconv.FormatIn(time.Unix(sec, 0), h.settings.Timezone)
}

func (h *Handlers) ledgerUpdate(ctx context.Context, sender, args string) error {
	if h.svc.Ledger == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}
	if !h.svc.Ledger.IsParty(sender) {
		return h.reply(ctx, sender, ReplyNotAuthorized)
	}

	action, amount, note, err := ledger.ParseArgs(args)
	if err != nil {
		return h.reply(ctx, sender, ReplyInvalidInput)
	}

	balance, err := h.svc.Ledger.Apply(ctx, sender, action, amount, note)
	switch {
	case errors.Is(err, ledger.ErrInvalidAction):
		return h.reply(ctx, sender, ReplyInvalidAction)
	case errors.Is(err, ledger.ErrUnauthorized):
		return h.reply(ctx, sender, ReplyNotAuthorized)
	case err != nil:
		return h.fail(ctx, sender, ReplyGenericError, err)
	}
	return h.reply(ctx, sender, "Action successful. "+h.svc.Ledger.Describe(sender, balance))
}

func (h *Handlers) ledgerBalance(ctx context.Context, sender string) error {
	if h.svc.Ledger == nil {
		return h.reply(ctx, sender, ReplyUnavailable)
	}

	balance, err := h.svc.Ledger.Balance(ctx, sender)
	if errors.Is(err, ledger.ErrUnauthorized) {
		return h.reply(ctx, sender, ReplyNotAuthorized)
	}
	if err != nil {
		return h.fail(ctx, sender, ReplyGenericError, err)
	}
	return h.reply(ctx, sender, h.svc.Ledger.Describe(sender, balance))
}

// ReminderDelivery returns the scheduler callback that sends a fired reminder.
func ReminderDelivery(sender whatsapp.Sender, timeout time.Duration) reminder.DeliverFunc {
	return func(ctx context.Context, req types.ReminderRequest) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		// send errors are logged and counted by the client
		_ = sender.SendText(ctx, req.Sender, "⏰ Reminder: "+req.Text)
	}
}
