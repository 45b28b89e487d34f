package memory

import (
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

const (
	// DefaultReceiptCapacity — сколько последних чеков хранит журнал по умолчанию.
	DefaultReceiptCapacity = 50
	// MinReceiptCapacity — нижняя граница ёмкости: последние 10 продаж всегда доступны.
	MinReceiptCapacity = 10
)

// receiptLogInMemory — кольцевой буфер последних продаж. Старые записи вытесняются.
type receiptLogInMemory struct {
	mu       sync.RWMutex
	receipts []domain.SaleReceipt
	next     int
	size     int
}

// NewReceiptLog создаёт журнал чеков. Ёмкость меньше MinReceiptCapacity поднимается до минимума.
func NewReceiptLog(capacity int) domain.ReceiptLog {
	if capacity < MinReceiptCapacity {
		capacity = MinReceiptCapacity
	}
	return &receiptLogInMemory{receipts: make([]domain.SaleReceipt, capacity)}
}

// Append добавляет чек, вытесняя самый старый при заполнении.
func (r *receiptLogInMemory) Append(receipt domain.SaleReceipt) error {
	if receipt.ID == "" {
		return fmt.Errorf("receipt without id: %w", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	receipt.Lines = append([]domain.CartLine(nil), receipt.Lines...)
	r.receipts[r.next] = receipt
	r.next = (r.next + 1) % len(r.receipts)
	if r.size < len(r.receipts) {
		r.size++
	}
	return nil
}

// Recent возвращает до n последних чеков, новые первыми. n <= 0 возвращает все.
func (r *receiptLogInMemory) Recent(n int) []domain.SaleReceipt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 || n > r.size {
		n = r.size
	}
	result := make([]domain.SaleReceipt, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.receipts)) % len(r.receipts)
		result = append(result, r.receipts[idx])
	}
	return result
}

// Len возвращает число хранимых чеков.
func (r *receiptLogInMemory) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

var _ domain.ReceiptLog = (*receiptLogInMemory)(nil)
