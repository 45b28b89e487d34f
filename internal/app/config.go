package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/session"
	"github.com/vladislavdragonenkov/minimart/internal/storage/memory"
)

// EnvPrefix — префикс переменных окружения кассы.
const EnvPrefix = "pos"

// Config описывает настройки запуска кассы.
type Config struct {
	APIURL      string        `envconfig:"API_URL"`
	APITimeout  time.Duration `envconfig:"API_TIMEOUT"`
	APIRetries  int           `envconfig:"API_RETRIES"`
	TokenFile   string        `envconfig:"TOKEN_FILE"`
	MetricsAddr string        `envconfig:"METRICS_ADDR"`
	LogLevel    string        `envconfig:"LOG_LEVEL"`

	// KafkaBrokers пустой — события продаж остаются в локальном outbox.
	KafkaBrokers       []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic         string        `envconfig:"KAFKA_TOPIC"`
	RegisterID         string        `envconfig:"REGISTER_ID"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS"`
	OutboxDrainTimeout time.Duration `envconfig:"OUTBOX_DRAIN_TIMEOUT"`
	OutboxRetention    time.Duration `envconfig:"OUTBOX_RETENTION"`

	ReceiptCapacity int `envconfig:"RECEIPT_CAPACITY"`
}

// DefaultConfig возвращает настройки для локального API магазина.
func DefaultConfig() Config {
	return Config{
		APIURL:             "http://localhost:8080",
		APITimeout:         15 * time.Second,
		APIRetries:         2,
		TokenFile:          session.DefaultTokenPath(),
		MetricsAddr:        ":9090",
		LogLevel:           "info",
		RegisterID:         "register-1",
		OutboxPollInterval: time.Second,
		OutboxMaxAttempts:  3,
		OutboxDrainTimeout: 5 * time.Second,
		OutboxRetention:    time.Hour,
		ReceiptCapacity:    memory.DefaultReceiptCapacity,
	}
}

// LoadConfig накладывает переменные POS_* поверх DefaultConfig.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя молча исправить.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("config: POS_API_URL is empty")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("config: POS_API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.APIRetries < 0 {
		return fmt.Errorf("config: POS_API_RETRIES must be >= 0, got %d", c.APIRetries)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: POS_LOG_LEVEL: %w", err)
	}
	return nil
}

// KafkaEnabled сообщает, настроена ли публикация событий продаж.
func (c Config) KafkaEnabled() bool {
	for _, b := range c.KafkaBrokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// ConfigureLogging выставляет уровень и формат logrus.
func ConfigureLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}
