package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Secrets holds credentials and endpoints read from the environment.
type Secrets struct {
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppAPIVersion    string

	RedisURL    string
	PostgresURL string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	UnsplashAccessKey string
	StabilityAPIKey   string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	ImgBBAPIKey       string
	RapidAPIKey       string

	GoogleCredentialsFile string
	SpreadsheetID         string

	MetricsAddr string
	Port        int
}

// LoadDotEnv loads the given files into the environment without overriding variables that
// are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv reads Secrets from the environment.
func FromEnv() Secrets {
	return Secrets{
		WhatsAppToken:         getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAPIVersion:    getEnv("WHATSAPP_API_VERSION", "v21.0"),

		RedisURL:    getEnv("REDIS_URL", ""),
		PostgresURL: getEnv("POSTGRES_URL", ""),

		LLMBaseURL: getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),

		UnsplashAccessKey: getEnv("UNSPLASH_ACCESS_KEY", ""),
		StabilityAPIKey:   getEnv("STABILITY_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		ImgBBAPIKey:       getEnv("IMGBB_API_KEY", ""),
		RapidAPIKey:       getEnv("RAPIDAPI_KEY", ""),

		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		SpreadsheetID:         getEnv("SPREADSHEET_ID", ""),

		MetricsAddr: getEnv("METRICS_ADDR", ":6060"),
		Port:        getEnvInt("PORT", 8000),
	}
}

// Validate reports the first missing value the bot cannot start without.
func (s Secrets) Validate() error {
	required := []struct{ key, value string }{
		{"WHATSAPP_ACCESS_TOKEN", s.WhatsAppToken},
		{"WHATSAPP_PHONE_NUMBER_ID", s.WhatsAppPhoneNumberID},
		{"WHATSAPP_VERIFY_TOKEN", s.WhatsAppVerifyToken},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s environment variable is required", r.key)
		}
	}
	return nil
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
