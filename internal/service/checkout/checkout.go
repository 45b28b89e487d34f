package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// BeginCheckout фиксирует итог корзины для экрана оплаты.
// Черновик не меняется, если корзину изменили после его открытия.
func (e *Engine) BeginCheckout() (domain.CheckoutDraft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.lines) == 0 {
		return domain.CheckoutDraft{}, domain.ErrEmptyCart
	}
	totals := domain.ComputeTotals(e.lines, e.settings.TaxRate())
	return domain.CheckoutDraft{
		GrandTotal:     totals.GrandTotal,
		Totals:         totals,
		LineCount:      len(e.lines),
		IdempotencyKey: e.newID(),
		OpenedAt:       e.now(),
	}, nil
}

// ValidatePayment возвращает сдачу или ErrInsufficientPayment.
func (e *Engine) ValidatePayment(draft domain.CheckoutDraft, amountReceived decimal.Decimal) (decimal.Decimal, error) {
	if amountReceived.LessThan(draft.GrandTotal) {
		return decimal.Zero, fmt.Errorf("received %s, due %s: %w",
			amountReceived.StringFixed(domain.CurrencyPlaces),
			draft.GrandTotal.StringFixed(domain.CurrencyPlaces),
			domain.ErrInsufficientPayment)
	}
	return amountReceived.Sub(draft.GrandTotal), nil
}

// CompleteSale отправляет текущую корзину на сервер.
//
// Порядок: снимок заказа, отправка, затем чек, списание проданного из корзины и ресинхронизация каталога.
// Строки, добавленные во время отправки, остаются в корзине.
// При ошибке отправки корзина не меняется, чек не пишется, каталог не обновляется.
// Повтор с тем же черновиком использует тот же ключ идемпотентности.
func (e *Engine) CompleteSale(
	ctx context.Context,
	draft domain.CheckoutDraft,
	amountReceived decimal.Decimal,
	method domain.PaymentMethod,
) (domain.SaleReceipt, error) {
	method = domain.PaymentMethod(strings.TrimSpace(string(method)))
	if method == "" {
		return domain.SaleReceipt{}, e.reject(domain.ErrPaymentMethodRequired)
	}
	if _, err := e.ValidatePayment(draft, amountReceived); err != nil {
		return domain.SaleReceipt{}, e.reject(err)
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		return domain.SaleReceipt{}, e.reject(domain.ErrCheckoutInProgress)
	}
	defer e.inFlight.Store(false)

	e.mu.Lock()
	lines := e.copyLinesLocked()
	totals := domain.ComputeTotals(e.lines, e.settings.TaxRate())
	e.mu.Unlock()

	if len(lines) == 0 {
		return domain.SaleReceipt{}, e.reject(domain.ErrEmptyCart)
	}
	// Корзину дополнили после открытия черновика: оплаты может не хватить.
	if amountReceived.LessThan(totals.GrandTotal) {
		return domain.SaleReceipt{}, e.reject(fmt.Errorf("cart changed after checkout opened, due %s: %w",
			totals.GrandTotal.StringFixed(domain.CurrencyPlaces), domain.ErrInsufficientPayment))
	}

	key := draft.IdempotencyKey
	if key == "" {
		key = e.newID()
	}
	order := domain.NewOrder(lines, key)

	logger := e.logger.WithFields(log.Fields{
		"idempotency_key": key,
		"lines":           len(lines),
		"grand_total":     totals.GrandTotal.StringFixed(domain.CurrencyPlaces),
	})

	ack, err := e.submit(ctx, order)
	if err != nil {
		logger.WithError(err).Warn("sale submission failed, cart kept")
		if e.metrics != nil {
			e.metrics.RecordSaleFailed()
		}
		e.notifyCheckoutError(err)
		return domain.SaleReceipt{}, err
	}

	receipt := domain.SaleReceipt{
		ID:             e.newID(),
		Timestamp:      e.now(),
		LineCount:      len(lines),
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		GrandTotal:     totals.GrandTotal,
		AmountReceived: amountReceived,
		ChangeDue:      amountReceived.Sub(totals.GrandTotal),
		PaymentMethod:  method,
		IdempotencyKey: key,
		Lines:          lines,
	}
	logger = logger.WithField("receipt_id", receipt.ID)
	if ack.ID != 0 {
		logger = logger.WithField("purchase_id", ack.ID)
	}

	if err := e.receipts.Append(receipt); err != nil {
		logger.WithError(err).Warn("failed to append receipt")
	}
	e.settle(lines)
	if err := e.catalog.Refresh(ctx); err != nil {
		// Продажа уже зафиксирована сервером, устаревший каталог её не отменяет.
		logger.WithError(err).Warn("catalog refresh after sale failed")
	}
	e.enqueueSaleEvent(receipt, logger)

	if e.metrics != nil {
		e.metrics.RecordSaleCompleted()
	}
	logger.Info("sale completed")
	e.notifySaleCompleted(receipt)
	return receipt, nil
}

func (e *Engine) submit(ctx context.Context, order domain.Order) (domain.PurchaseAck, error) {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.RecordSaleStarted()
		defer func() { e.metrics.RecordSaleFinished(time.Since(start)) }()
	}

	ack, err := e.submitter.CreatePurchase(ctx, order)
	if err == nil {
		return ack, nil
	}
	if !errors.Is(err, domain.ErrAuthenticationRequired) && !errors.Is(err, domain.ErrNetworkOrServer) {
		err = fmt.Errorf("%w: %w", domain.ErrNetworkOrServer, err)
	}
	return domain.PurchaseAck{}, fmt.Errorf("submit sale: %w", err)
}

func (e *Engine) reject(err error) error {
	if e.metrics != nil {
		e.metrics.RecordSaleRejected()
	}
	e.notifyCheckoutError(err)
	return err
}

func (e *Engine) enqueueSaleEvent(receipt domain.SaleReceipt, logger *log.Entry) {
	if e.outbox == nil {
		return
	}
	msg, err := domain.NewSaleCompletedMessage(receipt)
	if err != nil {
		logger.WithError(err).Error("failed to build sale event")
		return
	}
	if _, err := e.outbox.Enqueue(msg); err != nil {
		logger.WithError(err).Warn("failed to enqueue sale event")
	}
}
