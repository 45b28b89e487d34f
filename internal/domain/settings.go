package domain

import "github.com/shopspring/decimal"

// Значения настроек магазина по умолчанию.
const (
	DefaultStoreName     = "Mini Mart"
	DefaultStoreAddress  = "123 Main Street, City, State 12345"
	DefaultCurrency      = "USD"
	DefaultLowStockAlert = 10
)

// Settings — глобальные настройки магазина. Корзина их читает, но не владеет ими.
type Settings struct {
	StoreName    string
	StoreAddress string
	StorePhone   string
	// TaxRate — ставка налога в процентах.
	TaxRate       decimal.Decimal
	Currency      string
	LowStockAlert int64
}

// DefaultSettings возвращает настройки свежей сессии.
func DefaultSettings() Settings {
	return Settings{
		StoreName:     DefaultStoreName,
		StoreAddress:  DefaultStoreAddress,
		TaxRate:       decimal.Zero,
		Currency:      DefaultCurrency,
		LowStockAlert: DefaultLowStockAlert,
	}
}
