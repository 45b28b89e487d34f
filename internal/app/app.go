// Package app собирает зависимости кассы и запускает её режимы работы.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/catalog"
	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/minimart/internal/metrics"
	"github.com/vladislavdragonenkov/minimart/internal/service/checkout"
	"github.com/vladislavdragonenkov/minimart/internal/service/inventory"
	"github.com/vladislavdragonenkov/minimart/internal/service/outbox"
	"github.com/vladislavdragonenkov/minimart/internal/service/reports"
	"github.com/vladislavdragonenkov/minimart/internal/session"
	"github.com/vladislavdragonenkov/minimart/internal/settings"
	"github.com/vladislavdragonenkov/minimart/internal/storage/memory"
	"github.com/vladislavdragonenkov/minimart/internal/storeapi"
)

// Options задаёт подмены зависимостей (тесты, встраивание).
type Options struct {
	Logger       *log.Entry
	TokenStore   session.TokenStore
	HTTPClient   *http.Client
	SyncProducer sarama.SyncProducer
}

// Option настраивает Options.
type Option func(*Options)

// WithLogger задаёт корневой logger.
func WithLogger(logger *log.Entry) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithTokenStore подменяет файловое хранилище токена.
func WithTokenStore(store session.TokenStore) Option {
	return func(o *Options) { o.TokenStore = store }
}

// WithHTTPClient подменяет транспорт клиента API.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.HTTPClient = c }
}

// WithSyncProducer подменяет Kafka producer, брокеры из конфига при этом не используются.
func WithSyncProducer(p sarama.SyncProducer) Option {
	return func(o *Options) { o.SyncProducer = p }
}

// App содержит все компоненты одной кассы.
type App struct {
	Config   Config
	Logger   *log.Entry
	Registry *prometheus.Registry

	Session   *session.Session
	API       *storeapi.Client
	Catalog   *catalog.Cache
	Settings  *settings.Store
	Receipts  domain.ReceiptLog
	Outbox    *memory.OutboxRepository
	Engine    *checkout.Engine
	Inventory *inventory.Manager
	Reports   *reports.Service

	OutboxWorker  *outbox.Worker
	OutboxCleanup *outbox.CleanupWorker
	producer      *kafka.Producer
}

// New собирает кассу по конфигу. Сеть не трогает: каталог загружается отдельно через Catalog.Refresh.
func New(cfg Config, options ...Option) (*App, error) {
	var opts Options
	for _, option := range options {
		option(&opts)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	apiMetrics := metrics.NewAPIMetricsWithRegisterer(registry)
	checkoutMetrics := metrics.NewCheckoutMetricsWithRegisterer(registry)
	outboxMetrics := metrics.NewOutboxMetricsWithRegisterer(registry)

	tokenStore := opts.TokenStore
	if tokenStore == nil {
		tokenStore = session.NewFileTokenStore(cfg.TokenFile)
	}
	sess := session.New(tokenStore, logger.WithField("component", "session"))

	apiOptions := []storeapi.Option{
		storeapi.WithBaseURL(cfg.APIURL),
		storeapi.WithTimeout(cfg.APITimeout),
		storeapi.WithRetryCount(cfg.APIRetries),
		storeapi.WithLogger(logger.WithField("component", "storeapi")),
		storeapi.WithMetrics(apiMetrics),
	}
	if opts.HTTPClient != nil {
		apiOptions = append(apiOptions, storeapi.WithHTTPClient(opts.HTTPClient))
	}
	api := storeapi.New(sess, apiOptions...)

	cache := catalog.New(api,
		catalog.WithLogger(logger.WithField("component", "catalog")),
		catalog.WithRecorder(checkoutMetrics),
	)
	store := settings.New(logger.WithField("component", "settings"))
	receipts := memory.NewReceiptLog(cfg.ReceiptCapacity)
	outboxRepo := memory.NewOutboxRepository()

	engine := checkout.NewEngine(checkout.Dependencies{
		Submitter: api,
		Catalog:   cache,
		Settings:  store,
		Receipts:  receipts,
		Outbox:    outboxRepo,
		Logger:    logger.WithField("component", "checkout"),
		Metrics:   checkoutMetrics,
	})
	// Корзина переживает 401: после повторного входа продажу можно завершить.
	sess.OnLogout(func() {
		logger.WithField("cart_lines", engine.Len()).Warn("session ended")
	})

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Registry:  registry,
		Session:   sess,
		API:       api,
		Catalog:   cache,
		Settings:  store,
		Receipts:  receipts,
		Outbox:    outboxRepo,
		Engine:    engine,
		Inventory: inventory.NewManager(api, cache, logger.WithField("component", "inventory")),
		Reports:   reports.NewService(api, receipts, logger.WithField("component", "reports")),

		OutboxCleanup: outbox.NewCleanupWorker(outboxRepo,
			outbox.WithCleanupLogger(logger.WithField("component", "outbox-cleanup-worker")),
			outbox.WithCleanupMetrics(outboxMetrics),
			outbox.WithRetention(cfg.OutboxRetention),
		),
	}

	if err := a.initSaleEvents(opts, outboxMetrics); err != nil {
		return nil, err
	}
	return a, nil
}

// initSaleEvents поднимает Kafka producer и outbox worker, если публикация настроена.
func (a *App) initSaleEvents(opts Options, outboxMetrics *metrics.OutboxMetrics) error {
	kafkaLogger := a.Logger.WithField("component", "kafka-producer")

	switch {
	case opts.SyncProducer != nil:
		a.producer = kafka.NewProducerFromSync(opts.SyncProducer, kafkaLogger)
	case a.Config.KafkaEnabled():
		producer, err := kafka.NewProducer(a.Config.KafkaBrokers, a.Config.RegisterID, kafkaLogger)
		if err != nil {
			// Касса продаёт и без брокера, события копятся в outbox.
			a.Logger.WithError(err).WithField("brokers", strings.Join(a.Config.KafkaBrokers, ",")).
				Warn("kafka is unavailable, sale events stay local")
			return nil
		}
		a.producer = producer
		a.Logger.WithField("brokers", a.Config.KafkaBrokers).Info("kafka producer initialized")
	default:
		return nil
	}

	publisher := kafka.NewOutboxPublisher(a.producer, a.Config.KafkaTopic, a.Config.RegisterID)
	dlq := kafka.NewOutboxPublisher(a.producer, kafka.TopicDeadLetterQueue, a.Config.RegisterID)
	a.OutboxWorker = outbox.NewWorker(a.Outbox, publisher,
		outbox.WithLogger(a.Logger.WithField("component", "outbox-worker")),
		outbox.WithDLQPublisher(dlq),
		outbox.WithMetrics(outboxMetrics),
		outbox.WithPollInterval(a.Config.OutboxPollInterval),
		outbox.WithMaxAttempts(a.Config.OutboxMaxAttempts),
	)
	return nil
}

// Login входит в API и сразу загружает каталог.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := a.API.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, err
	}
	if err := a.Catalog.Refresh(ctx); err != nil {
		return user, fmt.Errorf("initial catalog load: %w", err)
	}
	return user, nil
}

// Logout забывает токен и очищает корзину.
func (a *App) Logout() {
	a.API.Logout()
	a.Engine.Clear()
}

// AvailableStock запрашивает у сервера товары склада с ненулевым остатком.
// Если сервер не отдал список, фильтрует последний снимок каталога.
func (a *App) AvailableStock(ctx context.Context) ([]domain.StockProduct, error) {
	products, err := a.API.ListAvailableStockProducts(ctx)
	if err == nil {
		return products, nil
	}
	if domain.IsAuthError(err) {
		return nil, err
	}
	a.Logger.WithError(err).Warn("available stock request failed, using cached catalog")
	return a.Catalog.AvailableStock(), nil
}

// RequireSession загружает каталог и проверяет, что токен принят сервером.
func (a *App) RequireSession(ctx context.Context) error {
	if !a.Session.Authenticated() {
		return domain.ErrAuthenticationRequired
	}
	return a.Catalog.Refresh(ctx)
}

// Close дожидается публикации накопленных событий и закрывает producer.
func (a *App) Close() error {
	if a.OutboxWorker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.OutboxDrainTimeout)
		a.OutboxWorker.Drain(ctx)
		cancel()
	}
	if a.producer == nil {
		return nil
	}
	if err := a.producer.Close(); err != nil {
		return err
	}
	a.Logger.Info("kafka producer closed")
	return nil
}
