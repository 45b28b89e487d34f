package storeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/metrics"
	"github.com/vladislavdragonenkov/minimart/internal/session"
	"github.com/vladislavdragonenkov/minimart/internal/version"
)

const (
	defaultBaseURL      = "http://localhost:8080"
	defaultTimeout      = 15 * time.Second
	defaultRetryCount   = 2
	defaultRetryWait    = 200 * time.Millisecond
	defaultRetryMaxWait = 2 * time.Second

	// IdempotencyHeader передаёт ключ заказа, чтобы сервер мог отбросить повторную отправку.
	IdempotencyHeader = "Idempotency-Key"
)

func init() {
	// API ожидает числа, а не строки, в денежных полях.
	decimal.MarshalJSONWithoutQuotes = true
}

// Options задаёт параметры клиента.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	Logger     *log.Entry
	Metrics    *metrics.APIMetrics
	HTTPClient *http.Client
}

// Option настраивает Options.
type Option func(*Options)

// WithBaseURL задаёт адрес API.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = url }
}

// WithTimeout задаёт таймаут одного запроса.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) { o.Timeout = timeout }
}

// WithRetryCount задаёт число повторов для GET-запросов.
func WithRetryCount(count int) Option {
	return func(o *Options) { o.RetryCount = count }
}

// WithRetryWait задаёт базовую задержку между повторами.
func WithRetryWait(wait time.Duration) Option {
	return func(o *Options) { o.RetryWait = wait }
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithMetrics задаёт метрики запросов.
func WithMetrics(m *metrics.APIMetrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithHTTPClient подменяет транспорт (тесты, прокси).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.HTTPClient = c }
}

// Client — типизированная обёртка над HTTP API магазина.
type Client struct {
	rest    *resty.Client
	session *session.Session
	logger  *log.Entry
	metrics *metrics.APIMetrics
}

// New создаёт клиент. Токен берётся из сессии при каждом запросе.
func New(sess *session.Session, options ...Option) *Client {
	opts := Options{
		BaseURL:    defaultBaseURL,
		Timeout:    defaultTimeout,
		RetryCount: defaultRetryCount,
		RetryWait:  defaultRetryWait,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "storeapi")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if sess == nil {
		sess = session.New(nil, logger)
	}

	var rest *resty.Client
	if opts.HTTPClient != nil {
		rest = resty.NewWithClient(opts.HTTPClient)
	} else {
		rest = resty.New()
	}
	rest.SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent()).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		AddRetryCondition(retryIdempotentReads)

	return &Client{
		rest:    rest,
		session: sess,
		logger:  logger,
		metrics: opts.Metrics,
	}
}

// retryIdempotentReads повторяет только GET при транспортной ошибке или 5xx.
// Покупки и прочие записи никогда не повторяются автоматически.
func retryIdempotentReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	return resp.StatusCode() >= http.StatusInternalServerError
}

// Session возвращает сессию клиента.
func (c *Client) Session() *session.Session {
	return c.session
}

// call описывает один запрос к API.
type call struct {
	op      string
	method  string
	path    string
	body    any
	result  any
	headers map[string]string
	noAuth  bool
}

// do выполняет запрос и приводит любые ошибки к таксономии домена.
func (c *Client) do(ctx context.Context, req call) error {
	logger := c.logger.WithFields(log.Fields{
		"operation": req.op,
		"method":    req.method,
		"path":      req.path,
	})

	r := c.rest.R().SetContext(ctx)
	if !req.noAuth {
		token, err := c.session.Token()
		if err != nil {
			return &APIError{Op: req.op, Kind: domain.ErrAuthenticationRequired, Cause: err}
		}
		if token != "" {
			r.SetAuthToken(token)
		}
	}
	if req.body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.body)
	}
	for k, v := range req.headers {
		r.SetHeader(k, v)
	}

	start := time.Now()
	resp, err := r.Execute(req.method, req.path)
	elapsed := time.Since(start)

	if err != nil {
		c.observe(req.op, 0, elapsed)
		logger.WithError(err).Warn("store api request failed")
		return &APIError{Op: req.op, Kind: domain.ErrNetworkOrServer, Cause: err}
	}

	status := resp.StatusCode()
	c.observe(req.op, status, elapsed)

	if status == http.StatusUnauthorized {
		logger.Warn("store api answered 401, logging out")
		if c.metrics != nil {
			c.metrics.RecordForcedLogout()
		}
		c.session.Logout()
		return &APIError{Op: req.op, StatusCode: status, Body: resp.String(), Kind: domain.ErrAuthenticationRequired}
	}
	if !resp.IsSuccess() {
		logger.WithField("status", status).Warn("store api answered with error")
		return &APIError{Op: req.op, StatusCode: status, Body: resp.String(), Kind: domain.ErrNetworkOrServer}
	}

	logger.WithFields(log.Fields{"status": status, "elapsed": elapsed}).Debug("store api request done")

	if req.result == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), req.result); err != nil {
		return &APIError{Op: req.op, StatusCode: status, Kind: domain.ErrNetworkOrServer, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) observe(op string, status int, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveRequest(op, status, elapsed)
}
