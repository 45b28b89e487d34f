package checkout

import (
	"fmt"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

const (
	opAdd    = "add"
	opChange = "change_quantity"
	opRemove = "remove"
	opClear  = "clear"
	opSettle = "settle"
)

// AddItem добавляет одну единицу товара витрины в корзину.
// Цена и потолок количества фиксируются в момент первого добавления.
func (e *Engine) AddItem(item domain.SellableItem) error {
	return e.AddItems(item, 1)
}

// AddItems добавляет count единиц товара целиком или не добавляет ничего.
func (e *Engine) AddItems(item domain.SellableItem, count int64) error {
	e.mu.Lock()
	err := e.addLocked(item, count)
	lines, totals := e.stateLocked()
	e.mu.Unlock()

	e.recordMutation(opAdd, err)
	if err != nil {
		return err
	}
	e.notifyCartChanged(lines, totals)
	return nil
}

func (e *Engine) addLocked(item domain.SellableItem, count int64) error {
	if count <= 0 {
		return fmt.Errorf("count %d: %w", count, domain.ErrValidation)
	}
	if item.SaleQuantity <= 0 {
		return fmt.Errorf("%s: %w", item.Name(), domain.ErrOutOfStock)
	}

	if idx := e.indexLocked(item.ID); idx >= 0 {
		line := &e.lines[idx]
		if line.Quantity+count > line.MaxStock {
			return fmt.Errorf("%s: only %d available: %w", line.Name, line.MaxStock, domain.ErrInsufficientStock)
		}
		line.Quantity += count
		return nil
	}

	if count > item.SaleQuantity {
		return fmt.Errorf("%s: only %d available: %w", item.Name(), item.SaleQuantity, domain.ErrInsufficientStock)
	}
	e.lines = append(e.lines, domain.CartLine{
		ItemID:        item.ID,
		Name:          item.Name(),
		Quantity:      count,
		UnitPrice:     item.EffectivePrice(),
		OriginalPrice: item.SalePrice,
		Discount:      item.Discount,
		MaxStock:      item.SaleQuantity,
	})
	return nil
}

// ChangeQuantity меняет количество строки на delta.
// Количество <= 0 удаляет строку, превышение MaxStock отклоняется без изменений.
func (e *Engine) ChangeQuantity(itemID int64, delta int64) error {
	e.mu.Lock()
	err := e.changeLocked(itemID, delta)
	lines, totals := e.stateLocked()
	e.mu.Unlock()

	e.recordMutation(opChange, err)
	if err != nil {
		return err
	}
	e.notifyCartChanged(lines, totals)
	return nil
}

func (e *Engine) changeLocked(itemID int64, delta int64) error {
	idx := e.indexLocked(itemID)
	if idx < 0 {
		return fmt.Errorf("item %d: %w", itemID, domain.ErrItemNotInCart)
	}

	line := &e.lines[idx]
	next := line.Quantity + delta
	switch {
	case next <= 0:
		e.removeAtLocked(idx)
	case next > line.MaxStock:
		return fmt.Errorf("%s: only %d available: %w", line.Name, line.MaxStock, domain.ErrInsufficientStock)
	default:
		line.Quantity = next
	}
	return nil
}

// RemoveItem удаляет строку. Удаление отсутствующего товара ничего не делает.
func (e *Engine) RemoveItem(itemID int64) {
	e.mu.Lock()
	idx := e.indexLocked(itemID)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	e.removeAtLocked(idx)
	lines, totals := e.stateLocked()
	e.mu.Unlock()

	e.recordMutation(opRemove, nil)
	e.notifyCartChanged(lines, totals)
}

// Clear очищает корзину безусловно.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.lines = nil
	lines, totals := e.stateLocked()
	e.mu.Unlock()

	e.recordMutation(opClear, nil)
	e.notifyCartChanged(lines, totals)
}

// settle списывает из корзины проданные строки после подтверждения сервера.
func (e *Engine) settle(sold []domain.CartLine) {
	e.mu.Lock()
	for _, s := range sold {
		idx := e.indexLocked(s.ItemID)
		if idx < 0 {
			continue
		}
		if e.lines[idx].Quantity <= s.Quantity {
			e.removeAtLocked(idx)
			continue
		}
		e.lines[idx].Quantity -= s.Quantity
	}
	lines, totals := e.stateLocked()
	e.mu.Unlock()

	e.recordMutation(opSettle, nil)
	e.notifyCartChanged(lines, totals)
}

// Lines возвращает копию строк корзины в порядке добавления.
func (e *Engine) Lines() []domain.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyLinesLocked()
}

// Totals пересчитывает итоги по текущим строкам и ставке налога.
func (e *Engine) Totals() domain.Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.ComputeTotals(e.lines, e.settings.TaxRate())
}

// Len возвращает число строк корзины.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines)
}

func (e *Engine) indexLocked(itemID int64) int {
	for i := range e.lines {
		if e.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeAtLocked(idx int) {
	e.lines = append(e.lines[:idx], e.lines[idx+1:]...)
}

func (e *Engine) copyLinesLocked() []domain.CartLine {
	out := make([]domain.CartLine, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *Engine) stateLocked() ([]domain.CartLine, domain.Totals) {
	return e.copyLinesLocked(), domain.ComputeTotals(e.lines, e.settings.TaxRate())
}

func (e *Engine) recordMutation(op string, err error) {
	if e.metrics != nil {
		e.metrics.RecordCartMutation(op, err)
	}
}
