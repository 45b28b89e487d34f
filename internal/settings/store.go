// Package settings хранит глобальные настройки магазина на время сессии.
package settings

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// Store — потокобезопасный держатель настроек. Проверок, кроме приведения типов, нет.
type Store struct {
	mu       sync.RWMutex
	settings domain.Settings
	logger   *log.Entry
}

// New создаёт хранилище с настройками по умолчанию.
func New(logger *log.Entry) *Store {
	if logger == nil {
		logger = log.WithField("component", "settings")
	}
	return &Store{settings: domain.DefaultSettings(), logger: logger}
}

// Get возвращает копию текущих настроек.
func (s *Store) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// TaxRate возвращает ставку налога в процентах.
func (s *Store) TaxRate() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.TaxRate
}

// UpdateStore меняет реквизиты магазина.
func (s *Store) UpdateStore(name, address, phone string) {
	s.mu.Lock()
	s.settings.StoreName = name
	s.settings.StoreAddress = address
	s.settings.StorePhone = phone
	s.mu.Unlock()

	s.logger.WithField("store_name", name).Info("store settings updated")
}

// UpdatePayment меняет налог, валюту и порог низкого остатка.
func (s *Store) UpdatePayment(taxRate decimal.Decimal, currency string, lowStockAlert int64) {
	s.mu.Lock()
	s.settings.TaxRate = taxRate
	s.settings.Currency = currency
	s.settings.LowStockAlert = lowStockAlert
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"tax_rate":        taxRate.String(),
		"currency":        currency,
		"low_stock_alert": lowStockAlert,
	}).Info("payment settings updated")
}

var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
	leadingInt     = regexp.MustCompile(`^[+-]?\d+`)
)

// UpdatePaymentFromForm принимает сырые строки формы.
// Читается числовой префикс поля ("8%" -> 8, "12abc" -> 12).
// Нечитаемый налог становится 0, нечитаемый или нулевой порог становится 10.
func (s *Store) UpdatePaymentFromForm(taxRate, currency, lowStockAlert string) {
	rate, err := decimal.NewFromString(leadingDecimal.FindString(strings.TrimSpace(taxRate)))
	if err != nil {
		rate = decimal.Zero
	}

	alert, err := strconv.ParseInt(leadingInt.FindString(strings.TrimSpace(lowStockAlert)), 10, 64)
	if err != nil || alert == 0 {
		alert = domain.DefaultLowStockAlert
	}

	s.UpdatePayment(rate, strings.TrimSpace(currency), alert)
}

// UpdateStoreFromForm принимает реквизиты одной строкой "имя|адрес|телефон".
// Недостающие поля становятся пустыми.
func (s *Store) UpdateStoreFromForm(form string) {
	parts := strings.SplitN(form, "|", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	s.UpdateStore(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]))
}

var _ domain.TaxRateSource = (*Store)(nil)
