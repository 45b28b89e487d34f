// Package catalog хранит последний полученный с сервера снимок категорий,
// складских товаров и витрины. Снимок обновляется только целиком.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// RefreshRecorder получает результат каждой ресинхронизации.
type RefreshRecorder interface {
	RecordCatalogRefresh(err error)
}

type snapshot struct {
	categories    []domain.Category
	stockProducts []domain.StockProduct
	inventory     []domain.SellableItem
	refreshedAt   time.Time
}

// Cache — кэш каталога. Читатели всегда видят согласованный снимок.
type Cache struct {
	reader   domain.CatalogReader
	logger   *log.Entry
	recorder RefreshRecorder
	now      func() time.Time

	current   atomic.Pointer[snapshot]
	refreshes atomic.Int64
}

// Option настраивает Cache.
type Option func(*Cache)

// WithLogger задаёт logger кэша.
func WithLogger(logger *log.Entry) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithRecorder задаёт приёмник метрик ресинхронизации.
func WithRecorder(r RefreshRecorder) Option {
	return func(c *Cache) { c.recorder = r }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New создаёт пустой кэш поверх источника каталога.
func New(reader domain.CatalogReader, opts ...Option) *Cache {
	c := &Cache{reader: reader, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.WithField("component", "catalog")
	}
	c.current.Store(&snapshot{})
	return c
}

// Refresh заново загружает категории, склад и витрину параллельно.
// При ошибке предыдущий снимок сохраняется.
func (c *Cache) Refresh(ctx context.Context) (err error) {
	start := c.now()
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordCatalogRefresh(err)
		}
	}()

	var next snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := c.reader.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		next.categories = categories
		return nil
	})
	g.Go(func() error {
		products, err := c.reader.ListStockProducts(gctx)
		if err != nil {
			return fmt.Errorf("load stock products: %w", err)
		}
		next.stockProducts = products
		return nil
	})
	g.Go(func() error {
		items, err := c.reader.ListInventoryProducts(gctx)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		next.inventory = items
		return nil
	})
	if err := g.Wait(); err != nil {
		c.logger.WithError(err).Warn("catalog refresh failed, keeping previous snapshot")
		return err
	}

	next.refreshedAt = c.now()
	c.current.Store(&next)
	c.refreshes.Add(1)

	c.logger.WithFields(log.Fields{
		"categories": len(next.categories),
		"stock":      len(next.stockProducts),
		"inventory":  len(next.inventory),
		"elapsed":    next.refreshedAt.Sub(start),
	}).Debug("catalog refreshed")
	return nil
}

// Categories возвращает копию списка категорий.
func (c *Cache) Categories() []domain.Category {
	return append([]domain.Category(nil), c.current.Load().categories...)
}

// StockProducts возвращает копию списка товаров склада.
func (c *Cache) StockProducts() []domain.StockProduct {
	return append([]domain.StockProduct(nil), c.current.Load().stockProducts...)
}

// Inventory возвращает копию витрины.
func (c *Cache) Inventory() []domain.SellableItem {
	return append([]domain.SellableItem(nil), c.current.Load().inventory...)
}

// Item ищет товар витрины по id.
func (c *Cache) Item(id int64) (domain.SellableItem, error) {
	for _, item := range c.current.Load().inventory {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.SellableItem{}, fmt.Errorf("inventory item %d: %w", id, domain.ErrNotFound)
}

// StockProduct ищет товар склада по id.
func (c *Cache) StockProduct(id int64) (domain.StockProduct, error) {
	for _, product := range c.current.Load().stockProducts {
		if product.ID == id {
			return product, nil
		}
	}
	return domain.StockProduct{}, fmt.Errorf("stock product %d: %w", id, domain.ErrNotFound)
}

// Search ищет товары витрины по подстроке имени товара или категории без учёта регистра.
// Пустой запрос возвращает всю витрину.
func (c *Cache) Search(query string) []domain.SellableItem {
	query = strings.ToLower(strings.TrimSpace(query))
	items := c.current.Load().inventory
	if query == "" {
		return append([]domain.SellableItem(nil), items...)
	}

	var out []domain.SellableItem
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name()), query) ||
			strings.Contains(strings.ToLower(item.CategoryName()), query) {
			out = append(out, item)
		}
	}
	return out
}

// LowStock возвращает товары витрины с saleQuantity <= threshold.
func (c *Cache) LowStock(threshold int64) []domain.SellableItem {
	var out []domain.SellableItem
	for _, item := range c.current.Load().inventory {
		if item.SaleQuantity <= threshold {
			out = append(out, item)
		}
	}
	return out
}

// AvailableStock возвращает товары склада с ненулевым остатком.
func (c *Cache) AvailableStock() []domain.StockProduct {
	var out []domain.StockProduct
	for _, product := range c.current.Load().stockProducts {
		if product.Quantity > 0 {
			out = append(out, product)
		}
	}
	return out
}

// LastRefreshed возвращает время последней успешной ресинхронизации.
func (c *Cache) LastRefreshed() time.Time {
	return c.current.Load().refreshedAt
}

// RefreshCount возвращает число успешных ресинхронизаций.
func (c *Cache) RefreshCount() int64 {
	return c.refreshes.Load()
}

var _ domain.CatalogRefresher = (*Cache)(nil)
