package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken       string
	DatabaseDriver      string // "postgres" or "sqlite"
	DatabaseURL         string
	AllowedTelegramIDs  []int64 // Empty allows everyone
	LogLevel            string
	Environment         string
	LogFile             string // Optional rotated log file
	ReminderOffsets     []int  // Days before expiry
	ReminderFireHour    int
	ReminderFireMinute  int
	Location            *time.Location
	CurrencySuffix      string
	DefaultExpiryMonths int
	ReminderMaxAttempts int
	ReminderRetention   time.Duration
	CronSpecDispatch    string // For delivering due reminders
	CronSpecCleanup     string // For purging finished reminders
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseDriver = strings.ToLower(getEnv("DATABASE_DRIVER", "postgres"))
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: must be postgres or sqlite", cfg.DatabaseDriver)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.AllowedTelegramIDs, err = parseIDList(os.Getenv("ALLOWED_TELEGRAM_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOWED_TELEGRAM_IDS: %w", err)
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.LogFile = os.Getenv("LOG_FILE")

	cfg.ReminderOffsets, err = parseOffsets(getEnv("REMINDER_OFFSETS", "7,1"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_OFFSETS: %w", err)
	}

	cfg.ReminderFireHour, cfg.ReminderFireMinute, err = parseClock(getEnv("REMINDER_FIRE_TIME", "09:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_FIRE_TIME: %w", err)
	}

	cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.CurrencySuffix = getEnv("CURRENCY_SUFFIX", "kr")

	cfg.DefaultExpiryMonths, err = parsePositiveInt("DEFAULT_EXPIRY_MONTHS", "6")
	if err != nil {
		return nil, err
	}
	cfg.ReminderMaxAttempts, err = parsePositiveInt("REMINDER_MAX_ATTEMPTS", "3")
	if err != nil {
		return nil, err
	}
	retentionDays, err := parsePositiveInt("REMINDER_RETENTION_DAYS", "30")
	if err != nil {
		return nil, err
	}
	cfg.ReminderRetention = time.Duration(retentionDays) * 24 * time.Hour

	cfg.CronSpecDispatch = getEnv("CRON_SPEC_DISPATCH", "* * * * *") // Default: every minute
	cfg.CronSpecCleanup = getEnv("CRON_SPEC_CLEANUP", "0 3 * * *")   // Default: 3 AM daily

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parsePositiveInt(key, fallback string) (int, error) {
	n, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseOffsets parses "7,1" into day offsets. Duplicates are dropped.
func parseOffsets(s string) ([]int, error) {
	seen := make(map[int]bool)
	var offsets []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("offset %d is negative", d)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		offsets = append(offsets, d)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("at least one offset is required")
	}
	return offsets, nil
}

// parseClock parses "HH:MM".
func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
