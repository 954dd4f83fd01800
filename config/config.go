package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthFailurePolicy selects how the monitor reacts when the marketplace
// rejects the API key mid-run.
type AuthFailurePolicy string

const (
	// AuthTerminate stops the process with a non-zero exit code.
	AuthTerminate AuthFailurePolicy = "terminate"
	// AuthRetry logs the failure loudly and keeps polling.
	AuthRetry AuthFailurePolicy = "retry"
)

// Config holds the application configuration. It is resolved once at startup
// and read-only for the process lifetime.
type Config struct {
	APIKey     string
	APIBaseURL string
	Country    int
	Service    string

	CheckInterval     time.Duration
	RequestTimeout    time.Duration
	PurchaseQuantity  int
	AutoPurchase      bool
	AuthFailurePolicy AuthFailurePolicy

	EmailEnabled   bool
	SMTPHost       string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	RecipientEmail string

	TelegramToken  string
	TelegramChatID int64

	LedgerPath string
	LogFile    string
}

// Load resolves the configuration from environment variables. Missing or
// invalid required options fail here, before the monitor loop starts.
func Load() (*Config, error) {
	apiKey := os.Getenv("ONLINESIM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ONLINESIM_API_KEY is required")
	}

	cfg := &Config{
		APIKey:            apiKey,
		APIBaseURL:        "https://onlinesim.io/api",
		Country:           36,
		Service:           "foodora",
		CheckInterval:     5 * time.Minute,
		RequestTimeout:    30 * time.Second,
		PurchaseQuantity:  2,
		AutoPurchase:      true,
		AuthFailurePolicy: AuthTerminate,
		SMTPHost:          "smtp.gmail.com",
		SMTPPort:          587,
		LedgerPath:        "./purchases.db",
		LogFile:           "simwatch.log",
	}

	if v := os.Getenv("ONLINESIM_API_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("SERVICE"); v != "" {
		cfg.Service = v
	}

	var err error
	if cfg.Country, err = intVar("COUNTRY", cfg.Country); err != nil {
		return nil, err
	}
	if cfg.PurchaseQuantity, err = intVar("PURCHASE_QUANTITY", cfg.PurchaseQuantity); err != nil {
		return nil, err
	}
	if cfg.CheckInterval, err = secondsVar("CHECK_INTERVAL", cfg.CheckInterval); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = secondsVar("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.AutoPurchase, err = boolVar("AUTO_PURCHASE", cfg.AutoPurchase); err != nil {
		return nil, err
	}
	if cfg.EmailEnabled, err = boolVar("EMAIL_ENABLED", cfg.EmailEnabled); err != nil {
		return nil, err
	}

	switch policy := os.Getenv("AUTH_FAILURE_POLICY"); policy {
	case "":
	case string(AuthTerminate), string(AuthRetry):
		cfg.AuthFailurePolicy = AuthFailurePolicy(policy)
	default:
		return nil, fmt.Errorf("invalid AUTH_FAILURE_POLICY %q (want terminate or retry)", policy)
	}

	if cfg.EmailEnabled {
		if v := os.Getenv("SMTP_SERVER"); v != "" {
			cfg.SMTPHost = v
		}
		if cfg.SMTPPort, err = intVar("SMTP_PORT", cfg.SMTPPort); err != nil {
			return nil, err
		}
		cfg.SenderEmail = os.Getenv("SENDER_EMAIL")
		cfg.SenderPassword = os.Getenv("SENDER_PASSWORD")
		cfg.RecipientEmail = os.Getenv("RECIPIENT_EMAIL")
		if cfg.SenderEmail == "" || cfg.SenderPassword == "" || cfg.RecipientEmail == "" {
			return nil, fmt.Errorf("EMAIL_ENABLED requires SENDER_EMAIL, SENDER_PASSWORD and RECIPIENT_EMAIL")
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	if (cfg.TelegramToken == "") != (chatIDStr == "") {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q", chatIDStr)
		}
		cfg.TelegramChatID = chatID
	}

	if v := os.Getenv("LEDGER_PATH"); v != "" {
		cfg.LedgerPath = v
	}
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.LogFile = v
	}

	return cfg, nil
}

func intVar(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q (want a positive integer)", name, v)
	}
	return n, nil
}

func secondsVar(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q (want seconds as a positive integer)", name, v)
	}
	return time.Duration(n) * time.Second, nil
}

func boolVar(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q (want true or false)", name, v)
	}
	return b, nil
}
