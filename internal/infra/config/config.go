package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint     = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultPollSchedule = "@every 600s"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultLogFile      = "main.log"
)

// ErrConfigMissing is returned when a required variable is absent or empty.
var ErrConfigMissing = fmt.Errorf("required configuration is missing")

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken string
	TelegramToken  string
	TelegramChatID int64
	Endpoint       string
	PollSchedule   string // cron spec or descriptor, e.g. "@every 10m"
	HTTPTimeout    time.Duration
	LogLevel       string
	LogFile        string // empty disables file logging
	Environment    string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	var missing []string
	required := func(name string) string {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg.PracticumToken = required("PRACTICUM_TOKEN")
	cfg.TelegramToken = required("TELEGRAM_TOKEN")
	chatIDStr := required("TELEGRAM_CHAT_ID")
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrConfigMissing, strings.Join(missing, ", "))
	}

	var err error
	cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	cfg.Endpoint = os.Getenv("PRACTICUM_ENDPOINT")
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	cfg.PollSchedule = os.Getenv("POLL_SCHEDULE")
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = DefaultPollSchedule
	}

	cfg.HTTPTimeout = DefaultHTTPTimeout
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}

	logFile, ok := os.LookupEnv("LOG_FILE")
	if !ok {
		logFile = DefaultLogFile
	}
	cfg.LogFile = logFile

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
