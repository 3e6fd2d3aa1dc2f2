package keepalive

import (
	"context"
	"errors"
	"fmt"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/whatsapp"
	"github.com/bwmarrin/discordgo"
)

// WhatsAppAlerter texts every admin number through the Cloud API.
type WhatsAppAlerter struct {
	sender whatsapp.Sender
	admins []string
	logger *logging.Logger
}

func NewWhatsAppAlerter(sender whatsapp.Sender, admins []string, logger *logging.Logger) (*WhatsAppAlerter, error) {
	if len(admins) == 0 {
		return nil, errors.New("whatsapp alerter needs at least one admin number")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppAlerter{sender: sender, admins: admins, logger: logger}, nil
}

// SendAlert tries every admin and returns the joined errors of the failed sends.
func (a *WhatsAppAlerter) SendAlert(ctx context.Context, target string, message string) error {
	var errs error
	for _, to := range a.admins {
		if err := a.sender.SendText(ctx, to, "🚨 Alert: "+message); err != nil {
			errs = errors.Join(errs, fmt.Errorf("alert to %s: %w", to, err))
		}
	}
	if errs != nil {
		a.logger.Error("failed to send whatsapp alert", "error", errs.Error(), "target", target)
		return errs
	}
	a.logger.Info("whatsapp alert sent", "target", target, "recipients", len(a.admins))
	return nil
}

// channelSender is the part of a discordgo session the alerter uses.
type channelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordAlerter posts alerts to one Discord channel.
type DiscordAlerter struct {
	session   channelSender
	closer    func() error
	channelID string
	userID    string
	logger    *logging.Logger
}

// NewDiscordAlerter opens a bot session with token. userID, when set, is mentioned in
// every alert.
func NewDiscordAlerter(token, channelID, userID string, logger *logging.Logger) (*DiscordAlerter, error) {
	if token == "" || channelID == "" {
		return nil, errors.New("discord alerter needs a bot token and a channel id")
	}
	if logger == nil {
		logger = logging.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord session: %w", err)
	}

	logger.Info("Discord alerter initialized", "channelID", channelID)
	return &DiscordAlerter{
		session:   session,
		closer:    session.Close,
		channelID: channelID,
		userID:    userID,
		logger:    logger,
	}, nil
}

func (da *DiscordAlerter) SendAlert(_ context.Context, target string, message string) error {
	content := fmt.Sprintf("**Alert:** %s", message)
	if da.userID != "" {
		content = fmt.Sprintf("<@%s> %s", da.userID, content)
	}

	if _, err := da.session.ChannelMessageSend(da.channelID, content); err != nil {
		da.logger.Error("failed to send Discord alert", "error", err.Error(), "target", target, "channel_id", da.channelID)
		return fmt.Errorf("failed to send Discord message: %w", err)
	}
	da.logger.Info("Discord alert sent", "target", target, "channel_id", da.channelID)
	return nil
}

// Close closes the Discord session.
func (da *DiscordAlerter) Close() error {
	if da.closer == nil {
		return nil
	}
	return da.closer()
}
