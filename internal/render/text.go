package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

// Money форматирует сумму с двумя знаками и кодом валюты.
func Money(v decimal.Decimal, currency string) string {
	return v.StringFixed(domain.CurrencyPlaces) + " " + currency
}

// Percent форматирует долю скидки как проценты.
func Percent(fraction decimal.Decimal) string {
	return fraction.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}

// Cart печатает строки корзины и итоги.
func Cart(out io.Writer, lines []domain.CartLine, totals domain.Totals, currency string) error {
	if len(lines) == 0 {
		_, err := fmt.Fprintln(out, "Cart is empty")
		return err
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tITEM\tQTY\tPRICE\tDISCOUNT\tTOTAL")
	for _, line := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			line.ItemID, line.Name, line.Quantity,
			Money(line.UnitPrice, currency), Percent(line.Discount),
			Money(line.LineTotal(), currency))
	}
	fmt.Fprintf(tw, "\t\t\t\tSubtotal\t%s\n", Money(totals.Subtotal, currency))
	fmt.Fprintf(tw, "\t\t\t\tTax\t%s\n", Money(totals.TaxAmount, currency))
	fmt.Fprintf(tw, "\t\t\t\tTotal\t%s\n", Money(totals.GrandTotal, currency))
	return tw.Flush()
}

// Inventory печатает товары витрины.
func Inventory(out io.Writer, items []domain.SellableItem, currency string) error {
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tPRODUCT\tCATEGORY\tPRICE\tDISCOUNT\tSELL PRICE\tSTOCK")
	for _, item := range items {
		stock := fmt.Sprintf("%d", item.SaleQuantity)
		if !item.InStock() {
			stock = "out of stock"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Name(), item.CategoryName(),
			Money(item.SalePrice, currency), Percent(item.Discount),
			Money(item.EffectivePrice(), currency), stock)
	}
	return tw.Flush()
}

// StockProducts печатает товары склада.
func StockProducts(out io.Writer, products []domain.StockProduct, currency string) error {
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tBASE PRICE\tQTY")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.CategoryName(), Money(p.BasePrice, currency), p.Quantity)
	}
	return tw.Flush()
}

// Categories печатает категории.
func Categories(out io.Writer, categories []domain.Category) error {
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, c := range categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
	}
	return tw.Flush()
}

// Receipt печатает чек продажи.
func Receipt(out io.Writer, r domain.SaleReceipt, currency string) error {
	tw := newTable(out)
	fmt.Fprintf(tw, "Receipt\t%s\n", r.ID)
	fmt.Fprintf(tw, "Time\t%s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	for _, line := range r.Lines {
		fmt.Fprintf(tw, "%s x%d\t%s\n", line.Name, line.Quantity, Money(line.LineTotal(), currency))
	}
	fmt.Fprintf(tw, "Subtotal\t%s\n", Money(r.Subtotal, currency))
	fmt.Fprintf(tw, "Tax\t%s\n", Money(r.TaxAmount, currency))
	fmt.Fprintf(tw, "Total\t%s\n", Money(r.GrandTotal, currency))
	fmt.Fprintf(tw, "Paid (%s)\t%s\n", r.PaymentMethod, Money(r.AmountReceived, currency))
	fmt.Fprintf(tw, "Change\t%s\n", Money(r.ChangeDue, currency))
	return tw.Flush()
}

// Transactions печатает список последних продаж.
func Transactions(out io.Writer, receipts []domain.SaleReceipt, currency string) error {
	if len(receipts) == 0 {
		_, err := fmt.Fprintln(out, "No transactions yet")
		return err
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "TIME\tITEMS\tTOTAL\tMETHOD")
	for _, r := range receipts {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Timestamp.Format("15:04:05"), r.LineCount, Money(r.GrandTotal, currency), r.PaymentMethod)
	}
	return tw.Flush()
}

// DailySummary печатает серверную сводку дня.
func DailySummary(out io.Writer, s domain.DailySummary, currency string) error {
	top := s.TopSellingProduct
	if top == "" {
		top = "N/A"
	}
	tw := newTable(out)
	fmt.Fprintf(tw, "Total sales\t%s\n", Money(s.TotalSales, currency))
	fmt.Fprintf(tw, "Transactions\t%d\n", s.TransactionCount)
	fmt.Fprintf(tw, "Top product\t%s\n", top)
	fmt.Fprintf(tw, "Low stock items\t%d\n", s.LowStockCount)
	fmt.Fprintf(tw, "Total profit\t%s\n", Money(s.TotalProfit, currency))
	return tw.Flush()
}
