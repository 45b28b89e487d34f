package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/minimart/internal/health"
	"github.com/vladislavdragonenkov/minimart/internal/version"
)

const (
	// catalogStaleAfter — после этого срока без обновления каталог считается устаревшим.
	catalogStaleAfter = 15 * time.Minute
	// outboxBacklogLimit — столько неотправленных событий переводит кассу в degraded.
	outboxBacklogLimit = 100
)

// HealthHandler собирает проверки сессии, каталога и outbox.
func (a *App) HealthHandler() *healthcheck.Handler {
	h := healthcheck.NewHandler(a.Config.RegisterID, version.GetVersion())
	h.Register("session", healthcheck.SessionProbe(a.Session))
	h.Register("catalog", healthcheck.CatalogProbe(a.Catalog, catalogStaleAfter, nil))
	h.Register("outbox", healthcheck.OutboxProbe(a.Outbox, outboxBacklogLimit))
	return h
}

// Router возвращает mux с метриками и health-проверками.
func (a *App) Router() http.Handler {
	healthHandler := a.HealthHandler()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	r.Method(http.MethodGet, "/healthz", healthHandler)
	r.Get("/readyz", healthHandler.ReadinessHandler)
	r.Get("/livez", healthHandler.LivenessHandler)
	return r
}

// startMetricsServer запускает HTTP-сервер метрик и останавливает его по ctx.
func startMetricsServer(ctx context.Context, addr string, handler http.Handler, logger *log.Entry) *http.Server {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
