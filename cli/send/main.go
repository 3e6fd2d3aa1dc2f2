// Command send delivers one text or image message through the WhatsApp Cloud API. It is
// meant for checking credentials and templates without going through the webhook.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ARYAN-9099/whatsapp-bot-public/config"
	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/whatsapp"
)

func main() {
	var to, text, image, envFile string
	flag.StringVar(&to, "to", "", "recipient phone number in international format without +")
	flag.StringVar(&text, "text", "", "text body to send")
	flag.StringVar(&image, "image", "", "public image URL to send")
	flag.StringVar(&envFile, "env", ".env", "dotenv file to load")
	flag.Parse()

	logger := logging.NewLogger(logging.LogLevelInfo, os.Stderr)

	if err := run(logger, envFile, to, text, image); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logger *logging.Logger, envFile, to, text, image string) error {
	if to == "" || (text == "" && image == "") {
		return fmt.Errorf("usage: send -to <number> (-text <body> | -image <url>)")
	}
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	secrets := config.FromEnv()
	if secrets.WhatsAppToken == "" || secrets.WhatsAppPhoneNumberID == "" {
		return fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID are required")
	}

	client := whatsapp.NewClient(whatsapp.Config{
		AccessToken:   secrets.WhatsAppToken,
		PhoneNumberID: secrets.WhatsAppPhoneNumberID,
		APIVersion:    secrets.WhatsAppAPIVersion,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if text != "" {
		if err := client.SendText(ctx, to, text); err != nil {
			return fmt.Errorf("sending text: %w", err)
		}
	}
	if image != "" {
		if err := client.SendImage(ctx, to, image); err != nil {
			return fmt.Errorf("sending image: %w", err)
		}
	}
	logger.Info("message sent", "to", to)
	return nil
}
