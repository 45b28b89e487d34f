package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCart_RendersLinesAndTotals(t *testing.T) {
	var buf bytes.Buffer
	lines := []domain.CartLine{{ItemID: 1, Name: "Tea", Quantity: 2, UnitPrice: dec("8"), Discount: dec("0.2"), MaxStock: 5}}
	totals := domain.Totals{Subtotal: dec("16"), TaxAmount: dec("1.6"), GrandTotal: dec("17.6")}

	require.NoError(t, Cart(&buf, lines, totals, "USD"))

	out := buf.String()
	require.Contains(t, out, "Tea")
	require.Contains(t, out, "20%")
	require.Contains(t, out, "16.00 USD")
	require.Contains(t, out, "17.60 USD")
}

func TestCart_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Cart(&buf, nil, domain.Totals{}, "USD"))
	require.Equal(t, "Cart is empty\n", buf.String())
}

func TestInventory_MarksOutOfStockAndUnknownNames(t *testing.T) {
	var buf bytes.Buffer
	items := []domain.SellableItem{
		{ID: 1, SalePrice: dec("2"), SaleQuantity: 0},
	}

	require.NoError(t, Inventory(&buf, items, "EUR"))
	require.Contains(t, buf.String(), domain.UnknownProductName)
	require.Contains(t, buf.String(), "out of stock")
}

func TestDailySummary_TopProductFallback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DailySummary(&buf, domain.DailySummary{TotalSales: dec("10")}, "USD"))
	require.Contains(t, buf.String(), "N/A")
	require.Contains(t, buf.String(), "10.00 USD")
}

func TestTerminalObserver(t *testing.T) {
	var buf bytes.Buffer
	o := NewTerminalObserver(&buf, func() string { return "GBP" })

	o.OnCheckoutError(fmt.Errorf("submit: %w", domain.ErrEmptyCart))
	o.OnSaleCompleted(domain.SaleReceipt{
		ID:            "r-1",
		Timestamp:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		GrandTotal:    dec("5"),
		PaymentMethod: domain.PaymentMethodCard,
	})

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "Cart is empty!"))
	require.Contains(t, out, "r-1")
	require.Contains(t, out, "5.00 GBP")
	require.Contains(t, out, "Paid (card)")
}

func TestLogObserverDoesNotPanic(t *testing.T) {
	o := NewLogObserver(nil)
	o.OnCartChanged(nil, domain.Totals{})
	o.OnCheckoutError(errors.New("boom"))
	o.OnSaleCompleted(domain.SaleReceipt{ID: "r"})
}
