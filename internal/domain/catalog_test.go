package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

func TestSellableItem_EffectivePrice(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		discount string
		want     string
	}{
		{name: "no discount", price: "4.50", discount: "0", want: "4.5"},
		{name: "twenty percent", price: "10.00", discount: "0.2", want: "8"},
		{name: "fractional", price: "2.99", discount: "0.15", want: "2.5415"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := domain.SellableItem{SalePrice: dec(tc.price), Discount: dec(tc.discount)}
			if got := item.EffectivePrice(); !got.Equal(dec(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestSellableItem_NameFallback(t *testing.T) {
	item := domain.SellableItem{ID: 3}
	if item.Name() != domain.UnknownProductName {
		t.Fatalf("expected fallback name, got %q", item.Name())
	}
	if item.CategoryName() != "" {
		t.Fatalf("expected empty category, got %q", item.CategoryName())
	}
}

func TestSellableItem_DecodesServerPayload(t *testing.T) {
	payload := []byte(`{
		"id": 12,
		"stockProductId": 4,
		"salePrice": 3.25,
		"discount": 0.1,
		"saleQuantity": 8,
		"stockProduct": {"id": 4, "name": "Milk", "basePrice": 2.5, "quantity": 20, "categoryId": 1,
			"category": {"id": 1, "name": "Dairy"}}
	}`)

	var item domain.SellableItem
	if err := json.Unmarshal(payload, &item); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if item.Name() != "Milk" || item.CategoryName() != "Dairy" {
		t.Fatalf("unexpected names %q/%q", item.Name(), item.CategoryName())
	}
	if !item.SalePrice.Equal(dec("3.25")) || item.SaleQuantity != 8 {
		t.Fatalf("unexpected item %+v", item)
	}
	if !item.InStock() {
		t.Fatal("expected item to be in stock")
	}
}
