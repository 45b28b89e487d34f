// Package reports отдаёт серверную сводку дня и локальный журнал последних продаж.
package reports

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// DefaultRecentCount — сколько последних продаж показывает отчёт.
const DefaultRecentCount = 10

// Service собирает отчёты.
type Service struct {
	reader   domain.ReportReader
	receipts domain.ReceiptLog
	logger   *log.Entry
}

// NewService создаёт сервис отчётов.
func NewService(reader domain.ReportReader, receipts domain.ReceiptLog, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "reports")
	}
	return &Service{reader: reader, receipts: receipts, logger: logger}
}

// Daily запрашивает сводку продаж за сегодня.
func (s *Service) Daily(ctx context.Context) (domain.DailySummary, error) {
	summary, err := s.reader.DailySummary(ctx)
	if err != nil {
		return domain.DailySummary{}, fmt.Errorf("daily summary: %w", err)
	}
	s.logger.WithFields(log.Fields{
		"transactions": summary.TransactionCount,
		"total_sales":  summary.TotalSales.StringFixed(domain.CurrencyPlaces),
	}).Debug("daily summary loaded")
	return summary, nil
}

// Recent возвращает до n последних продаж этой кассы, новые первыми. n <= 0 означает DefaultRecentCount.
func (s *Service) Recent(n int) []domain.SaleReceipt {
	if n <= 0 {
		n = DefaultRecentCount
	}
	return s.receipts.Recent(n)
}
