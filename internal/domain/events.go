package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AggregateTypeSale — тип агрегата для событий продаж в outbox.
	AggregateTypeSale = "sale"
	// EventTypeSaleCompleted публикуется после подтверждения продажи сервером.
	EventTypeSaleCompleted = "sale.completed"
)

// SaleEventLine — позиция проданного товара в событии.
type SaleEventLine struct {
	ItemID    int64           `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleCompletedEvent — полезная нагрузка события sale.completed.
type SaleCompletedEvent struct {
	ReceiptID      string          `json:"receipt_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	Lines          []SaleEventLine `json:"lines"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	Timestamp      time.Time       `json:"ts"`
}

// NewSaleCompletedMessage собирает outbox-сообщение по чеку.
func NewSaleCompletedMessage(receipt SaleReceipt) (OutboxMessage, error) {
	event := SaleCompletedEvent{
		ReceiptID:      receipt.ID,
		IdempotencyKey: receipt.IdempotencyKey,
		Lines:          make([]SaleEventLine, 0, len(receipt.Lines)),
		GrandTotal:     receipt.GrandTotal,
		PaymentMethod:  receipt.PaymentMethod,
		Timestamp:      receipt.Timestamp.UTC(),
	}
	for _, line := range receipt.Lines {
		event.Lines = append(event.Lines, SaleEventLine{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxMessage{}, err
	}
	return OutboxMessage{
		AggregateType: AggregateTypeSale,
		AggregateID:   receipt.ID,
		EventType:     EventTypeSaleCompleted,
		Payload:       payload,
	}, nil
}
