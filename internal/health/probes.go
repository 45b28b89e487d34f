package health

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// SessionState — источник признака входа кассира.
type SessionState interface {
	Authenticated() bool
}

// CatalogState — источник времени последней ресинхронизации каталога.
type CatalogState interface {
	LastRefreshed() time.Time
}

// OutboxState — источник размера очереди событий продаж.
type OutboxState interface {
	Stats() (domain.OutboxStats, error)
}

// SessionProbe: без входа касса не может продавать.
func SessionProbe(s SessionState) Probe {
	return func() (Status, string) {
		if !s.Authenticated() {
			return StatusUnhealthy, "not logged in"
		}
		return StatusHealthy, ""
	}
}

// CatalogProbe переводит кассу в degraded, если каталог не загружен или старше staleAfter.
func CatalogProbe(c CatalogState, staleAfter time.Duration, now func() time.Time) Probe {
	if now == nil {
		now = time.Now
	}
	return func() (Status, string) {
		last := c.LastRefreshed()
		if last.IsZero() {
			return StatusDegraded, "catalog never refreshed"
		}
		if age := now().Sub(last); age > staleAfter {
			return StatusDegraded, fmt.Sprintf("catalog refreshed %s ago", age.Truncate(time.Second))
		}
		return StatusHealthy, ""
	}
}

// OutboxProbe переводит кассу в degraded, когда неотправленных событий больше limit.
func OutboxProbe(o OutboxState, limit int) Probe {
	return func() (Status, string) {
		stats, err := o.Stats()
		if err != nil {
			return StatusDegraded, err.Error()
		}
		if stats.PendingCount > limit {
			return StatusDegraded, fmt.Sprintf("%d sale events pending", stats.PendingCount)
		}
		return StatusHealthy, ""
	}
}
