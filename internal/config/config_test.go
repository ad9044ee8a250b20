package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/app?sslmode=disable")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GO_ENV", "dev")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.TxMaxRetries)
	assert.Equal(t, time.Minute, cfg.TopSellingCacheTTL)
	assert.Equal(t, "orders.placed", cfg.OrderTopic)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_ParsesOptionalValues(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TX_MAX_RETRIES", "5")
	t.Setenv("TOP_SELLING_CACHE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5, cfg.TxMaxRetries)
	assert.Equal(t, 30*time.Second, cfg.TopSellingCacheTTL)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

func TestLoad_PostgresFieldsRequiredWithoutURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "")

	_, err := Load()
	assert.ErrorContains(t, err, "POSTGRES_USER is required")
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("TX_MAX_RETRIES", "many")

	_, err := Load()
	assert.ErrorContains(t, err, "TX_MAX_RETRIES must be number")
}
