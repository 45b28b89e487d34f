package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces — точность округления денежных сумм при выводе и в итогах.
const CurrencyPlaces = 2

// CartLine представляет одну позицию корзины.
type CartLine struct {
	// ItemID совпадает с SellableItem.ID; в корзине не больше одной строки на товар.
	ItemID int64
	Name   string
	// Quantity всегда в диапазоне [1, MaxStock].
	Quantity int64
	// UnitPrice — цена со скидкой, зафиксированная в момент добавления.
	UnitPrice     decimal.Decimal
	OriginalPrice decimal.Decimal
	Discount      decimal.Decimal
	// MaxStock — saleQuantity на момент добавления, мягкий потолок на клиенте.
	MaxStock int64
}

// LineTotal возвращает unitPrice * quantity без округления.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Totals — производные суммы корзины, всегда пересчитываются из строк.
type Totals struct {
	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	GrandTotal decimal.Decimal
}

// ComputeTotals считает итоги по строкам и ставке налога в процентах.
// Subtotal и TaxAmount округляются до CurrencyPlaces, GrandTotal всегда равен их сумме.
func ComputeTotals(lines []CartLine, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	tax := subtotal.Mul(taxRate).Div(decimal.NewFromInt(100))
	subtotal, tax = subtotal.Round(CurrencyPlaces), tax.Round(CurrencyPlaces)
	return Totals{
		Subtotal:   subtotal,
		TaxAmount:  tax,
		GrandTotal: subtotal.Add(tax),
	}
}

// OrderLine — пара (товар, количество) в отправляемом заказе.
type OrderLine struct {
	ProductInventoryID int64 `json:"productInventoryId"`
	Quantity           int64 `json:"quantity"`
}

// Order — неизменяемый снимок корзины, отправляемый на сервер один раз.
type Order struct {
	Items []OrderLine `json:"items"`
	// IdempotencyKey передаётся заголовком, в тело не попадает.
	IdempotencyKey string `json:"-"`
}

// NewOrder строит снимок заказа из строк корзины.
func NewOrder(lines []CartLine, idempotencyKey string) Order {
	items := make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		items = append(items, OrderLine{ProductInventoryID: line.ItemID, Quantity: line.Quantity})
	}
	return Order{Items: items, IdempotencyKey: idempotencyKey}
}

// PurchaseAck — ответ сервера на создание покупки. Поля опциональны.
type PurchaseAck struct {
	ID          int64           `json:"id,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
}

// CheckoutDraft фиксирует итог корзины в момент открытия оплаты.
// Изменения корзины после открытия в черновик не попадают.
type CheckoutDraft struct {
	GrandTotal     decimal.Decimal
	Totals         Totals
	LineCount      int
	IdempotencyKey string
	OpenedAt       time.Time
}

// PaymentMethod — способ оплаты продажи.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodMobile PaymentMethod = "mobile"
)

// SaleReceipt — локальная запись о завершённой продаже (не серверный журнал).
type SaleReceipt struct {
	ID             string
	Timestamp      time.Time
	LineCount      int
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	GrandTotal     decimal.Decimal
	AmountReceived decimal.Decimal
	ChangeDue      decimal.Decimal
	PaymentMethod  PaymentMethod
	IdempotencyKey string
	Lines          []CartLine
}
