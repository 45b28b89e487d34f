// Package checkout содержит движок корзины и протокол оформления продажи:
// локальное оптимистичное состояние, фиксация на сервере и полная ресинхронизация каталога.
package checkout

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/metrics"
)

// Dependencies — зависимости движка. Submitter, Catalog, Settings и Receipts обязательны.
type Dependencies struct {
	Submitter domain.PurchaseSubmitter
	Catalog   domain.CatalogRefresher
	Settings  domain.TaxRateSource
	Receipts  domain.ReceiptLog
	// Outbox опционален: без него события продаж не публикуются.
	Outbox  domain.OutboxRepository
	Logger  *log.Entry
	Metrics *metrics.CheckoutMetrics
}

// Engine владеет корзиной и жизненным циклом заказа одной кассы.
type Engine struct {
	mu    sync.Mutex
	lines []domain.CartLine

	submitter domain.PurchaseSubmitter
	catalog   domain.CatalogRefresher
	settings  domain.TaxRateSource
	receipts  domain.ReceiptLog
	outbox    domain.OutboxRepository
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics

	observersMu sync.RWMutex
	observers   []domain.CartObserver

	// inFlight допускает не больше одной отправки продажи одновременно.
	inFlight atomic.Bool

	now   func() time.Time
	newID func() string
}

// NewEngine создаёт движок с пустой корзиной.
func NewEngine(deps Dependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "checkout")
	}
	return &Engine{
		submitter: deps.Submitter,
		catalog:   deps.Catalog,
		settings:  deps.Settings,
		receipts:  deps.Receipts,
		outbox:    deps.Outbox,
		logger:    logger,
		metrics:   deps.Metrics,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Subscribe подключает наблюдателя (слой отображения). Наблюдателей может быть несколько.
func (e *Engine) Subscribe(observer domain.CartObserver) {
	if observer == nil {
		return
	}
	e.observersMu.Lock()
	e.observers = append(e.observers, observer)
	e.observersMu.Unlock()
}

func (e *Engine) snapshotObservers() []domain.CartObserver {
	e.observersMu.RLock()
	defer e.observersMu.RUnlock()
	return append([]domain.CartObserver(nil), e.observers...)
}

func (e *Engine) notifyCartChanged(lines []domain.CartLine, totals domain.Totals) {
	for _, o := range e.snapshotObservers() {
		o.OnCartChanged(lines, totals)
	}
}

func (e *Engine) notifyCheckoutError(err error) {
	for _, o := range e.snapshotObservers() {
		o.OnCheckoutError(err)
	}
}

func (e *Engine) notifySaleCompleted(receipt domain.SaleReceipt) {
	for _, o := range e.snapshotObservers() {
		o.OnSaleCompleted(receipt)
	}
}

// RecentReceipts возвращает до n последних чеков, новые первыми.
func (e *Engine) RecentReceipts(n int) []domain.SaleReceipt {
	return e.receipts.Recent(n)
}

// InFlight сообщает, ожидает ли продажа ответа сервера.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}
