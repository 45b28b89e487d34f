package domain

import "github.com/shopspring/decimal"

// UnknownProductName подставляется, если сервер не вернул вложенный товар склада.
const UnknownProductName = "Unknown Product"

// Category описывает категорию товаров магазина.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StockProduct — базовая складская запись товара до выставления на продажу.
type StockProduct struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Quantity    int64           `json:"quantity"`
	CategoryID  int64           `json:"categoryId"`
	Category    *Category       `json:"category,omitempty"`
}

// CategoryName возвращает имя категории или пустую строку.
func (p StockProduct) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// SellableItem — товар, выставленный на продажу, со своей ценой, скидкой и количеством.
// Снимок принадлежит кэшу каталога и обновляется только целиком.
type SellableItem struct {
	ID             int64           `json:"id"`
	StockProductID int64           `json:"stockProductId"`
	StockProduct   *StockProduct   `json:"stockProduct,omitempty"`
	SalePrice      decimal.Decimal `json:"salePrice"`
	// Discount — доля в диапазоне [0,1), 0 означает отсутствие скидки.
	Discount     decimal.Decimal `json:"discount"`
	SaleQuantity int64           `json:"saleQuantity"`
}

// EffectivePrice возвращает цену со скидкой: salePrice * (1 - discount).
// Округление выполняется только при отображении и подсчёте итогов.
func (i SellableItem) EffectivePrice() decimal.Decimal {
	return i.SalePrice.Mul(decimal.NewFromInt(1).Sub(i.Discount))
}

// Name возвращает название товара склада.
func (i SellableItem) Name() string {
	if i.StockProduct == nil || i.StockProduct.Name == "" {
		return UnknownProductName
	}
	return i.StockProduct.Name
}

// CategoryName возвращает название категории товара.
func (i SellableItem) CategoryName() string {
	if i.StockProduct == nil {
		return ""
	}
	return i.StockProduct.CategoryName()
}

// InStock сообщает, можно ли добавить товар в корзину.
func (i SellableItem) InStock() bool {
	return i.SaleQuantity > 0
}

// DailySummary — сводка продаж за день, которую считает сервер.
type DailySummary struct {
	TotalSales        decimal.Decimal `json:"totalSales"`
	TransactionCount  int64           `json:"transactionCount"`
	TopSellingProduct string          `json:"topSellingProduct"`
	LowStockCount     int64           `json:"lowStockCount"`
	TotalProfit       decimal.Decimal `json:"totalProfit"`
}

// User описывает оператора кассы, вернувшегося из логина.
type User struct {
	ID    int64  `json:"id,omitempty"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}
