// Package health отдаёт состояние кассы: сессия, свежесть каталога и очередь событий продаж.
package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status — состояние кассы или отдельной проверки.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity упорядочивает статусы: итог отчёта равен худшей проверке.
func (s Status) severity() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Probe возвращает статус и пояснение. Пустой статус считается healthy.
type Probe func() (Status, string)

// Check — результат одной проверки.
type Check struct {
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Report — ответ /healthz и /readyz.
type Report struct {
	Status        Status           `json:"status"`
	Ready         bool             `json:"ready"`
	Register      string           `json:"register,omitempty"`
	Version       string           `json:"version,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Checks        map[string]Check `json:"checks,omitempty"`
	// Degraded перечисляет проверки, из-за которых касса работает с ограничениями.
	Degraded []string `json:"degraded,omitempty"`
}

// Handler собирает проверки кассы и отдаёт их по HTTP.
type Handler struct {
	mu       sync.RWMutex
	probes   map[string]Probe
	register string
	version  string
	started  time.Time
	now      func() time.Time
}

// NewHandler создаёт handler для кассы registerID.
func NewHandler(registerID, version string) *Handler {
	return &Handler{
		probes:   make(map[string]Probe),
		register: registerID,
		version:  version,
		started:  time.Now(),
		now:      time.Now,
	}
}

// Register добавляет проверку. Повторная регистрация имени заменяет проверку.
func (h *Handler) Register(name string, probe Probe) {
	if probe == nil {
		return
	}
	h.mu.Lock()
	h.probes[name] = probe
	h.mu.Unlock()
}

// Evaluate выполняет все проверки.
// Касса готова, пока ни одна проверка не unhealthy; degraded готовности не мешает.
func (h *Handler) Evaluate() Report {
	h.mu.RLock()
	probes := make(map[string]Probe, len(h.probes))
	for name, probe := range h.probes {
		probes[name] = probe
	}
	h.mu.RUnlock()

	report := Report{
		Status:        StatusHealthy,
		Register:      h.register,
		Version:       h.version,
		Timestamp:     h.now().UTC(),
		UptimeSeconds: int64(h.now().Sub(h.started).Seconds()),
		Checks:        make(map[string]Check, len(probes)),
	}
	for name, probe := range probes {
		start := time.Now()
		status, message := probe()
		if status == "" {
			status = StatusHealthy
		}
		report.Checks[name] = Check{Status: status, Message: message, DurationMs: time.Since(start).Milliseconds()}

		if status == StatusDegraded {
			report.Degraded = append(report.Degraded, name)
		}
		if status.severity() > report.Status.severity() {
			report.Status = status
		}
	}
	sort.Strings(report.Degraded)
	report.Ready = report.Status != StatusUnhealthy
	return report
}

// ServeHTTP отдаёт полный отчёт: 503, только если касса unhealthy.
func (h *Handler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	report := h.Evaluate()
	writeReport(w, report, report.Status != StatusUnhealthy)
}

// ReadinessHandler отдаёт тот же отчёт, что /healthz, с кодом по готовности.
// Ограниченная работа видна в теле: status=degraded и список degraded.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	report := h.Evaluate()
	writeReport(w, report, report.Ready)
}

// LivenessHandler отвечает 200, пока процесс кассы жив.
func (h *Handler) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":         "alive",
		"register":       h.register,
		"uptime_seconds": int64(h.now().Sub(h.started).Seconds()),
	})
}

func writeReport(w http.ResponseWriter, report Report, ok bool) {
	code := http.StatusOK
	if !ok {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
