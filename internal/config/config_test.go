package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.Equal(t, []string{"card"}, cfg.Stripe.PaymentMethods)
	assert.Equal(t, 3*time.Second, cfg.Eligibility.LookupTimeout)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  host: db.internal
  port: 6543
stripe:
  currency: usd
  payment_methods: [card, sepa_debit]
eligibility:
  lookup_timeout: 750ms
payment:
  poll_attempts: 4
  poll_interval: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "orderdesk", cfg.Database.User)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, []string{"card", "sepa_debit"}, cfg.Stripe.PaymentMethods)
	assert.Equal(t, 750*time.Millisecond, cfg.Eligibility.LookupTimeout)
	assert.Equal(t, 4, cfg.Payment.PollAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 4000\n"), 0o600))

	t.Setenv("PORT", "8081")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  timezone: Mars/Olympus\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("DB_PORT", "not-a-port")
	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	cfg := Default()
	cfg.Store.Timezone = "Europe/Lisbon"
	assert.Equal(t, "Europe/Lisbon", cfg.Location().String())
}
