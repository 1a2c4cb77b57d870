package service

import (
	"context"

	"github.com/nomena/pharmastock/internal/repository"
)

// StockService derives stock levels on demand from the raw ledger. Nothing
// is cached or persisted: stock is always entries minus exits at read time.
type StockService struct {
	entries     repository.EntryRepository
	expeditions repository.ExpeditionRepository
}

func NewStockService(entries repository.EntryRepository, expeditions repository.ExpeditionRepository) *StockService {
	return &StockService{entries: entries, expeditions: expeditions}
}

// Stock returns entered minus shipped for a medicine. The result may be
// negative when data entered out of band over-shipped a medicine; that is a
// fact to surface, not an error. A medicine with no activity yields 0.
func (s *StockService) Stock(ctx context.Context, medicineID int64) (int, error) {
	entered, err := s.entries.SumForMedicine(ctx, medicineID)
	if err != nil {
		return 0, err
	}

	shipped, err := s.expeditions.SumForMedicine(ctx, medicineID)
	if err != nil {
		return 0, err
	}

	return entered - shipped, nil
}

// AvailableStock clamps Stock at zero for allocation purposes.
func (s *StockService) AvailableStock(ctx context.Context, medicineID int64) (int, error) {
	stock, err := s.Stock(ctx, medicineID)
	if err != nil {
		return 0, err
	}
	if stock < 0 {
		return 0, nil
	}
	return stock, nil
}
