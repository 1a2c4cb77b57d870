package service

import (
	"context"
	"errors"

	"github.com/nomena/pharmastock/internal/cache"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository"
	"github.com/rs/zerolog/log"
)

// InventoryUnits is the standard vocabulary offered to UI selectors. It is
// a presentation convenience: any non-empty unit is accepted on an entry.
var InventoryUnits = []string{
	"Tablet", "Bottle", "Blister", "Box", "Ampoule",
	"Tube", "Sachet", "Capsule", "Vial", "Pack",
}

const (
	maxSupplierLen      = 200
	maxInventoryUnitLen = 50
)

// EntryService handles stock-in CRUD.
type EntryService struct {
	entries   repository.EntryRepository
	medicines repository.MedicineRepository
	cache     cache.DashboardCache
}

func NewEntryService(
	entries repository.EntryRepository,
	medicines repository.MedicineRepository,
	dashboardCache cache.DashboardCache,
) *EntryService {
	return &EntryService{entries: entries, medicines: medicines, cache: dashboardCache}
}

func (s *EntryService) List(ctx context.Context) ([]domain.Entry, error) {
	return s.entries.List(ctx)
}

func (s *EntryService) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	return s.entries.Get(ctx, id)
}

func (s *EntryService) Create(ctx context.Context, input domain.EntryInput) (*domain.Entry, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	e, err := s.entries.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	log.Info().Int64("entry_id", e.ID).Int64("medicine_id", e.MedicineID).Int("quantity", e.Quantity).Msg("entry created")

	return e, nil
}

func (s *EntryService) Update(ctx context.Context, id int64, input domain.EntryInput) (*domain.Entry, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	e, err := s.entries.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	log.Info().Int64("entry_id", id).Msg("entry updated")

	return e, nil
}

func (s *EntryService) Delete(ctx context.Context, id int64) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	log.Info().Int64("entry_id", id).Msg("entry deleted")

	return nil
}

func (s *EntryService) validateInput(ctx context.Context, input domain.EntryInput) error {
	v := domain.NewValidationError()

	if input.MedicineID <= 0 {
		v.Add("medicine_id", "The medicine field is required.")
	} else if _, err := s.medicines.Get(ctx, input.MedicineID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			v.Add("medicine_id", "The selected medicine does not exist.")
		} else {
			return err
		}
	}
	if input.Quantity < 1 {
		v.Add("quantity", "The quantity must be at least 1.")
	}
	if input.InventoryUnit == "" {
		v.Add("inventory_unit", "The inventory unit is required.")
	} else if len(input.InventoryUnit) > maxInventoryUnitLen {
		v.Add("inventory_unit", "The inventory unit must be at most 50 characters.")
	}
	if input.Supplier != nil && len(*input.Supplier) > maxSupplierLen {
		v.Add("supplier", "The supplier must be at most 200 characters.")
	}
	if input.EnteredAt.IsZero() {
		v.Add("entered_at", "The entry date is required.")
	}
	if input.ExpiresAt != nil && !input.EnteredAt.IsZero() && input.ExpiresAt.Before(input.EnteredAt) {
		v.Add("expires_at", "The expiration date must not be before the entry date.")
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

func (s *EntryService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
