// Package inventory управляет складом, витриной и категориями через удалённый API.
// Каждая запись проверяет входные данные до вызова API и затем обновляет каталог целиком.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// Catalog — часть кэша каталога, нужная менеджеру.
type Catalog interface {
	domain.CatalogRefresher
	StockProduct(id int64) (domain.StockProduct, error)
}

// markup — наценка для рекомендованной цены продажи.
var markup = decimal.RequireFromString("1.3")

// Manager выполняет операции управления складом и витриной.
type Manager struct {
	writer  domain.CatalogWriter
	catalog Catalog
	logger  *log.Entry
}

// NewManager создаёт менеджер.
func NewManager(writer domain.CatalogWriter, catalog Catalog, logger *log.Entry) *Manager {
	if logger == nil {
		logger = log.WithField("component", "inventory")
	}
	return &Manager{writer: writer, catalog: catalog, logger: logger}
}

// AddCategory создаёт категорию.
func (m *Manager) AddCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateCategory(in); err != nil {
		return domain.Category{}, err
	}
	category, err := m.writer.CreateCategory(ctx, in)
	if err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	m.refresh(ctx, "category_created", category.ID)
	return category, nil
}

// UpdateCategory изменяет категорию.
func (m *Manager) UpdateCategory(ctx context.Context, id int64, in domain.CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := errors.Join(validateID(id), validateCategory(in)); err != nil {
		return domain.Category{}, err
	}
	category, err := m.writer.UpdateCategory(ctx, id, in)
	if err != nil {
		return domain.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	m.refresh(ctx, "category_updated", id)
	return category, nil
}

// DeleteCategory удаляет категорию.
func (m *Manager) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := m.writer.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	m.refresh(ctx, "category_deleted", id)
	return nil
}

// AddStockProduct создаёт товар склада.
func (m *Manager) AddStockProduct(ctx context.Context, in domain.StockProductInput) (domain.StockProduct, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStockProduct(in); err != nil {
		return domain.StockProduct{}, err
	}
	product, err := m.writer.CreateStockProduct(ctx, in)
	if err != nil {
		return domain.StockProduct{}, fmt.Errorf("create stock product: %w", err)
	}
	m.refresh(ctx, "stock_product_created", product.ID)
	return product, nil
}

// UpdateStockProduct изменяет товар склада.
func (m *Manager) UpdateStockProduct(ctx context.Context, id int64, in domain.StockProductInput) (domain.StockProduct, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := errors.Join(validateID(id), validateStockProduct(in)); err != nil {
		return domain.StockProduct{}, err
	}
	product, err := m.writer.UpdateStockProduct(ctx, id, in)
	if err != nil {
		return domain.StockProduct{}, fmt.Errorf("update stock product %d: %w", id, err)
	}
	m.refresh(ctx, "stock_product_updated", id)
	return product, nil
}

// DeleteStockProduct удаляет товар склада.
func (m *Manager) DeleteStockProduct(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := m.writer.DeleteStockProduct(ctx, id); err != nil {
		return fmt.Errorf("delete stock product %d: %w", id, err)
	}
	m.refresh(ctx, "stock_product_deleted", id)
	return nil
}

// AddInventoryProduct выставляет товар склада на продажу.
func (m *Manager) AddInventoryProduct(ctx context.Context, in domain.InventoryProductInput) (domain.SellableItem, error) {
	if err := m.validateInventory(in); err != nil {
		return domain.SellableItem{}, err
	}
	item, err := m.writer.CreateInventoryProduct(ctx, in)
	if err != nil {
		return domain.SellableItem{}, fmt.Errorf("create inventory product: %w", err)
	}
	m.refresh(ctx, "inventory_product_created", item.ID)
	return item, nil
}

// UpdateInventoryProduct меняет цену, скидку или количество на витрине.
func (m *Manager) UpdateInventoryProduct(ctx context.Context, id int64, in domain.InventoryProductInput) (domain.SellableItem, error) {
	if err := errors.Join(validateID(id), m.validateInventory(in)); err != nil {
		return domain.SellableItem{}, err
	}
	item, err := m.writer.UpdateInventoryProduct(ctx, id, in)
	if err != nil {
		return domain.SellableItem{}, fmt.Errorf("update inventory product %d: %w", id, err)
	}
	m.refresh(ctx, "inventory_product_updated", id)
	return item, nil
}

// ReturnToStock снимает товар с витрины и возвращает остаток на склад.
func (m *Manager) ReturnToStock(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := m.writer.ReturnInventoryToStock(ctx, id); err != nil {
		return fmt.Errorf("return inventory %d to stock: %w", id, err)
	}
	m.refresh(ctx, "inventory_returned", id)
	return nil
}

// SuggestSalePrice предлагает цену продажи: базовая цена с наценкой 30%, 2 знака.
func (m *Manager) SuggestSalePrice(stockProductID int64) (decimal.Decimal, error) {
	product, err := m.catalog.StockProduct(stockProductID)
	if err != nil {
		return decimal.Zero, err
	}
	return product.BasePrice.Mul(markup).Round(domain.CurrencyPlaces), nil
}

// refresh ресинхронизирует каталог. Запись уже принята сервером, поэтому ошибка только логируется.
func (m *Manager) refresh(ctx context.Context, action string, id int64) {
	logger := m.logger.WithFields(log.Fields{"action": action, "id": id})
	if err := m.catalog.Refresh(ctx); err != nil {
		logger.WithError(err).Warn("catalog refresh after write failed")
		return
	}
	logger.Info("inventory changed")
}

func (m *Manager) validateInventory(in domain.InventoryProductInput) error {
	err := errors.Join(
		validatePositiveID("stockProductId", in.StockProductID),
		validateMoney("salePrice", in.SalePrice),
		validateQuantity("saleQuantity", in.SaleQuantity),
		validateDiscount(in.Discount),
	)
	if err != nil {
		return err
	}

	// Остаток склада проверяется, только если товар есть в кэше; сервер проверит в любом случае.
	product, lookupErr := m.catalog.StockProduct(in.StockProductID)
	if lookupErr == nil && in.SaleQuantity > product.Quantity {
		return fieldError("saleQuantity", fmt.Sprintf("exceeds stock quantity %d", product.Quantity))
	}
	return nil
}

func validateCategory(in domain.CategoryInput) error {
	if in.Name == "" {
		return fieldError("name", "is required")
	}
	return nil
}

func validateStockProduct(in domain.StockProductInput) error {
	var nameErr error
	if in.Name == "" {
		nameErr = fieldError("name", "is required")
	}
	return errors.Join(
		nameErr,
		validateMoney("basePrice", in.BasePrice),
		validateQuantity("quantity", in.Quantity),
		validatePositiveID("categoryId", in.CategoryID),
	)
}

func validateID(id int64) error {
	return validatePositiveID("id", id)
}

func validatePositiveID(field string, id int64) error {
	if id <= 0 {
		return fieldError(field, "must be positive")
	}
	return nil
}

func validateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fieldError(field, "must not be negative")
	}
	return nil
}

func validateQuantity(field string, v int64) error {
	if v < 0 {
		return fieldError(field, "must not be negative")
	}
	return nil
}

func validateDiscount(v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fieldError("discount", "must be in [0, 1)")
	}
	return nil
}

func fieldError(field, msg string) error {
	return fmt.Errorf("%s %s: %w", field, msg, domain.ErrValidation)
}
