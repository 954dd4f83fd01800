package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ONLINESIM_API_KEY", "test-key")
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("ONLINESIM_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ONLINESIM_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "https://onlinesim.io/api", cfg.APIBaseURL)
	assert.Equal(t, 36, cfg.Country)
	assert.Equal(t, "foodora", cfg.Service)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.PurchaseQuantity)
	assert.True(t, cfg.AutoPurchase)
	assert.False(t, cfg.EmailEnabled)
	assert.Equal(t, AuthTerminate, cfg.AuthFailurePolicy)
	assert.Equal(t, "./purchases.db", cfg.LedgerPath)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ONLINESIM_API_URL", "https://example.test/api/")
	t.Setenv("COUNTRY", "380")
	t.Setenv("SERVICE", "bolt")
	t.Setenv("CHECK_INTERVAL", "60")
	t.Setenv("PURCHASE_QUANTITY", "5")
	t.Setenv("AUTO_PURCHASE", "false")
	t.Setenv("AUTH_FAILURE_POLICY", "retry")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/api", cfg.APIBaseURL)
	assert.Equal(t, 380, cfg.Country)
	assert.Equal(t, "bolt", cfg.Service)
	assert.Equal(t, time.Minute, cfg.CheckInterval)
	assert.Equal(t, 5, cfg.PurchaseQuantity)
	assert.False(t, cfg.AutoPurchase)
	assert.Equal(t, AuthRetry, cfg.AuthFailurePolicy)
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECK_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECK_INTERVAL")
}

func TestLoadRejectsNonPositiveQuantity(t *testing.T) {
	setRequired(t)
	t.Setenv("PURCHASE_QUANTITY", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownAuthPolicy(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_FAILURE_POLICY", "shrug")

	_, err := Load()
	require.Error(t, err)
}

func TestEmailEnabledRequiresCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("SENDER_EMAIL", "monitor@example.com")
	// SENDER_PASSWORD and RECIPIENT_EMAIL missing

	_, err := Load()
	require.Error(t, err)
}

func TestEmailEnabledWithFullCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("SMTP_SERVER", "mail.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SENDER_EMAIL", "monitor@example.com")
	t.Setenv("SENDER_PASSWORD", "secret")
	t.Setenv("RECIPIENT_EMAIL", "operator@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", cfg.SMTPHost)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.Equal(t, "operator@example.com", cfg.RecipientEmail)
}

func TestTelegramSettingsMustBePaired(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("TELEGRAM_CHAT_ID", "42")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.TelegramChatID)
}
