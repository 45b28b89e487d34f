// Package render — слой отображения: наблюдатель движка корзины и текстовые таблицы для терминала.
package render

import (
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// LogObserver пишет события корзины в лог.
type LogObserver struct {
	logger *log.Entry
}

// NewLogObserver создаёт наблюдатель поверх logger.
func NewLogObserver(logger *log.Entry) *LogObserver {
	if logger == nil {
		logger = log.WithField("component", "register")
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCartChanged(lines []domain.CartLine, totals domain.Totals) {
	o.logger.WithFields(log.Fields{
		"lines":       len(lines),
		"grand_total": totals.GrandTotal.StringFixed(domain.CurrencyPlaces),
	}).Debug("cart changed")
}

func (o *LogObserver) OnCheckoutError(err error) {
	o.logger.WithError(err).Warn("checkout error")
}

func (o *LogObserver) OnSaleCompleted(receipt domain.SaleReceipt) {
	o.logger.WithFields(log.Fields{
		"receipt_id":  receipt.ID,
		"grand_total": receipt.GrandTotal.StringFixed(domain.CurrencyPlaces),
		"method":      receipt.PaymentMethod,
	}).Info("sale completed")
}

// TerminalObserver перерисовывает корзину и печатает чек в терминал кассы.
type TerminalObserver struct {
	mu       sync.Mutex
	out      io.Writer
	currency func() string
}

// NewTerminalObserver создаёт наблюдатель. currency читается при каждой отрисовке.
func NewTerminalObserver(out io.Writer, currency func() string) *TerminalObserver {
	if currency == nil {
		currency = func() string { return domain.DefaultCurrency }
	}
	return &TerminalObserver{out: out, currency: currency}
}

func (o *TerminalObserver) OnCartChanged(lines []domain.CartLine, totals domain.Totals) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = Cart(o.out, lines, totals, o.currency())
}

func (o *TerminalObserver) OnCheckoutError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintln(o.out, domain.UserMessage(err))
}

func (o *TerminalObserver) OnSaleCompleted(receipt domain.SaleReceipt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = Receipt(o.out, receipt, o.currency())
}

var (
	_ domain.CartObserver = (*LogObserver)(nil)
	_ domain.CartObserver = (*TerminalObserver)(nil)
)
