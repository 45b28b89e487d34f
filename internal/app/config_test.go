package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/minimart/internal/storage/memory"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, "http://localhost:8080", cfg.APIURL)
	require.Equal(t, 15*time.Second, cfg.APITimeout)
	require.Equal(t, ":9090", cfg.MetricsAddr)
	require.Equal(t, memory.DefaultReceiptCapacity, cfg.ReceiptCapacity)
	require.NotEmpty(t, cfg.TokenFile)
	require.False(t, cfg.KafkaEnabled())
	require.Positive(t, cfg.OutboxPollInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("POS_API_URL", "https://store.example.com/api")
	t.Setenv("POS_API_TIMEOUT", "3s")
	t.Setenv("POS_API_RETRIES", "0")
	t.Setenv("POS_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("POS_RECEIPT_CAPACITY", "20")
	t.Setenv("POS_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "https://store.example.com/api", cfg.APIURL)
	require.Equal(t, 3*time.Second, cfg.APITimeout)
	require.Zero(t, cfg.APIRetries)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.KafkaEnabled())
	require.Equal(t, 20, cfg.ReceiptCapacity)
	require.Equal(t, "debug", cfg.LogLevel)
	// Незаданные переменные сохраняют значения по умолчанию.
	require.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("POS_API_TIMEOUT", "soon")
		_, err := LoadConfig()
		require.Error(t, err)
	})
	t.Run("bad log level", func(t *testing.T) {
		t.Setenv("POS_LOG_LEVEL", "loud")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "POS_LOG_LEVEL")
	})
	t.Run("negative retries", func(t *testing.T) {
		t.Setenv("POS_API_RETRIES", "-1")
		_, err := LoadConfig()
		require.ErrorContains(t, err, "POS_API_RETRIES")
	})
}

func TestConfig_KafkaEnabledIgnoresBlankBrokers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"", "  "}
	require.False(t, cfg.KafkaEnabled())
}
