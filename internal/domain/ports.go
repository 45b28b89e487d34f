package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseSubmitter отправляет заказ в удалённый API — единственный источник списания остатков.
type PurchaseSubmitter interface {
	CreatePurchase(ctx context.Context, order Order) (PurchaseAck, error)
}

// CatalogReader отдаёт снимки каталога, полученные с сервера.
type CatalogReader interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListStockProducts(ctx context.Context) ([]StockProduct, error)
	ListInventoryProducts(ctx context.Context) ([]SellableItem, error)
}

// CatalogWriter описывает операции управления складом и витриной.
type CatalogWriter interface {
	CreateCategory(ctx context.Context, in CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CreateStockProduct(ctx context.Context, in StockProductInput) (StockProduct, error)
	UpdateStockProduct(ctx context.Context, id int64, in StockProductInput) (StockProduct, error)
	DeleteStockProduct(ctx context.Context, id int64) error
	CreateInventoryProduct(ctx context.Context, in InventoryProductInput) (SellableItem, error)
	UpdateInventoryProduct(ctx context.Context, id int64, in InventoryProductInput) (SellableItem, error)
	ReturnInventoryToStock(ctx context.Context, id int64) error
}

// ReportReader получает серверную сводку продаж.
type ReportReader interface {
	DailySummary(ctx context.Context) (DailySummary, error)
}

// CatalogRefresher выполняет полную ресинхронизацию кэша каталога.
type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

// TaxRateSource отдаёт текущую ставку налога в процентах.
type TaxRateSource interface {
	TaxRate() decimal.Decimal
}

// ReceiptLog — ограниченный журнал последних продаж, старые записи вытесняются.
type ReceiptLog interface {
	Append(receipt SaleReceipt) error
	// Recent возвращает до n последних чеков, новые первыми.
	Recent(n int) []SaleReceipt
	Len() int
}

// CartObserver получает уведомления движка корзины (слой отображения).
type CartObserver interface {
	OnCartChanged(lines []CartLine, totals Totals)
	OnCheckoutError(err error)
	OnSaleCompleted(receipt SaleReceipt)
}

// OutboxPublisher публикует события из outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository хранит события продаж до публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// CategoryInput — данные формы категории.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StockProductInput — данные формы товара склада.
type StockProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Quantity    int64           `json:"quantity"`
	CategoryID  int64           `json:"categoryId"`
}

// InventoryProductInput — данные формы товара витрины.
type InventoryProductInput struct {
	StockProductID int64           `json:"stockProductId"`
	SalePrice      decimal.Decimal `json:"salePrice"`
	SaleQuantity   int64           `json:"saleQuantity"`
	Discount       decimal.Decimal `json:"discount"`
}
