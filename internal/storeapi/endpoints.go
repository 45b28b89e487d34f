package storeapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

const (
	pathLogin                  = "/auth/login"
	pathCategories             = "/categories"
	pathStockProducts          = "/stock/products"
	pathStockProductsAvailable = "/stock/products/available"
	pathInventoryProducts      = "/inventory/products"
	pathReturnToStock          = "/inventory/products/return-to-stock"
	pathPurchases              = "/product/purchases"
	pathDailySummary           = "/reports/daily-summary"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse поддерживает оба варианта имени поля токена.
type loginResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"accessToken"`
	User        *domain.User `json:"user"`
}

// Login выполняет вход и сохраняет токен в сессии.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	var resp loginResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   pathLogin,
		body:   loginRequest{Email: email, Password: password},
		result: &resp,
		noAuth: true,
	})
	if err != nil {
		return domain.User{}, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return domain.User{}, domain.ErrInvalidLoginResponse
	}

	user := domain.User{Email: email}
	if resp.User != nil {
		user = *resp.User
	}
	if err := c.session.SetCredentials(token, user); err != nil {
		c.logger.WithError(err).Warn("failed to persist token, session will not survive restart")
	}
	return user, nil
}

// Logout завершает сессию локально; у API нет эндпоинта выхода.
func (c *Client) Logout() {
	c.session.Logout()
}

// ListCategories возвращает все категории.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := c.do(ctx, call{op: "list_categories", method: http.MethodGet, path: pathCategories, result: &out})
	return out, err
}

// CreateCategory создаёт категорию.
func (c *Client) CreateCategory(ctx context.Context, in domain.CategoryInput) (domain.Category, error) {
	var out domain.Category
	err := c.do(ctx, call{op: "create_category", method: http.MethodPost, path: pathCategories, body: in, result: &out})
	return out, err
}

// UpdateCategory изменяет категорию.
func (c *Client) UpdateCategory(ctx context.Context, id int64, in domain.CategoryInput) (domain.Category, error) {
	var out domain.Category
	err := c.do(ctx, call{op: "update_category", method: http.MethodPut, path: byID(pathCategories, id), body: in, result: &out})
	return out, err
}

// DeleteCategory удаляет категорию.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete_category", method: http.MethodDelete, path: byID(pathCategories, id)})
}

// ListStockProducts возвращает все товары склада.
func (c *Client) ListStockProducts(ctx context.Context) ([]domain.StockProduct, error) {
	var out []domain.StockProduct
	err := c.do(ctx, call{op: "list_stock_products", method: http.MethodGet, path: pathStockProducts, result: &out})
	return out, err
}

// ListAvailableStockProducts возвращает товары склада с ненулевым остатком.
func (c *Client) ListAvailableStockProducts(ctx context.Context) ([]domain.StockProduct, error) {
	var out []domain.StockProduct
	err := c.do(ctx, call{op: "list_available_stock_products", method: http.MethodGet, path: pathStockProductsAvailable, result: &out})
	return out, err
}

// CreateStockProduct создаёт товар склада.
func (c *Client) CreateStockProduct(ctx context.Context, in domain.StockProductInput) (domain.StockProduct, error) {
	var out domain.StockProduct
	err := c.do(ctx, call{op: "create_stock_product", method: http.MethodPost, path: pathStockProducts, body: in, result: &out})
	return out, err
}

// UpdateStockProduct изменяет товар склада.
func (c *Client) UpdateStockProduct(ctx context.Context, id int64, in domain.StockProductInput) (domain.StockProduct, error) {
	var out domain.StockProduct
	err := c.do(ctx, call{op: "update_stock_product", method: http.MethodPut, path: byID(pathStockProducts, id), body: in, result: &out})
	return out, err
}

// DeleteStockProduct удаляет товар склада.
func (c *Client) DeleteStockProduct(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "delete_stock_product", method: http.MethodDelete, path: byID(pathStockProducts, id)})
}

// ListInventoryProducts возвращает товары, выставленные на продажу.
func (c *Client) ListInventoryProducts(ctx context.Context) ([]domain.SellableItem, error) {
	var out []domain.SellableItem
	err := c.do(ctx, call{op: "list_inventory_products", method: http.MethodGet, path: pathInventoryProducts, result: &out})
	return out, err
}

// CreateInventoryProduct выставляет товар склада на продажу.
func (c *Client) CreateInventoryProduct(ctx context.Context, in domain.InventoryProductInput) (domain.SellableItem, error) {
	var out domain.SellableItem
	err := c.do(ctx, call{op: "create_inventory_product", method: http.MethodPost, path: pathInventoryProducts, body: in, result: &out})
	return out, err
}

// UpdateInventoryProduct изменяет цену, скидку или количество на витрине.
func (c *Client) UpdateInventoryProduct(ctx context.Context, id int64, in domain.InventoryProductInput) (domain.SellableItem, error) {
	var out domain.SellableItem
	err := c.do(ctx, call{op: "update_inventory_product", method: http.MethodPut, path: byID(pathInventoryProducts, id), body: in, result: &out})
	return out, err
}

// ReturnInventoryToStock снимает товар с витрины и возвращает остаток на склад.
func (c *Client) ReturnInventoryToStock(ctx context.Context, id int64) error {
	return c.do(ctx, call{op: "return_inventory_to_stock", method: http.MethodDelete, path: byID(pathReturnToStock, id)})
}

// CreatePurchase отправляет заказ. Запрос не повторяется автоматически.
func (c *Client) CreatePurchase(ctx context.Context, order domain.Order) (domain.PurchaseAck, error) {
	var ack domain.PurchaseAck
	headers := map[string]string{}
	if order.IdempotencyKey != "" {
		headers[IdempotencyHeader] = order.IdempotencyKey
	}
	err := c.do(ctx, call{
		op:      "create_purchase",
		method:  http.MethodPost,
		path:    pathPurchases,
		body:    order,
		result:  &ack,
		headers: headers,
	})
	return ack, err
}

// DailySummary возвращает сводку продаж за сегодня.
func (c *Client) DailySummary(ctx context.Context) (domain.DailySummary, error) {
	var out domain.DailySummary
	err := c.do(ctx, call{op: "daily_summary", method: http.MethodGet, path: pathDailySummary, result: &out})
	return out, err
}

func byID(base string, id int64) string {
	return fmt.Sprintf("%s/%d", base, id)
}

var (
	_ domain.PurchaseSubmitter = (*Client)(nil)
	_ domain.CatalogReader     = (*Client)(nil)
	_ domain.CatalogWriter     = (*Client)(nil)
	_ domain.ReportReader      = (*Client)(nil)
)
