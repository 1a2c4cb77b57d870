package service

import (
	"context"
	"errors"

	"github.com/nomena/pharmastock/internal/cache"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/format"
	"github.com/nomena/pharmastock/internal/repository"
	"github.com/rs/zerolog/log"
)

// MedicineService handles catalog CRUD. Uniqueness of (name, category,
// dosage value, dosage unit) surfaces as a field error on name.
type MedicineService struct {
	medicines repository.MedicineRepository
	cache     cache.DashboardCache
}

func NewMedicineService(medicines repository.MedicineRepository, dashboardCache cache.DashboardCache) *MedicineService {
	return &MedicineService{medicines: medicines, cache: dashboardCache}
}

func (s *MedicineService) List(ctx context.Context) ([]domain.Medicine, error) {
	return s.medicines.List(ctx)
}

// Options shapes the catalog for form selectors, with the combined display
// label per medicine.
func (s *MedicineService) Options(ctx context.Context) ([]domain.MedicineOption, error) {
	medicines, err := s.medicines.List(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]domain.MedicineOption, 0, len(medicines))
	for i := range medicines {
		m := &medicines[i]
		options = append(options, domain.MedicineOption{
			ID:          m.ID,
			Name:        m.Name,
			Category:    m.Category,
			Form:        m.Form,
			DosageValue: m.DosageValue,
			DosageUnit:  m.DosageUnit,
			DisplayName: format.DisplayName(m),
		})
	}

	return options, nil
}

func (s *MedicineService) Get(ctx context.Context, id int64) (*domain.Medicine, error) {
	return s.medicines.Get(ctx, id)
}

func (s *MedicineService) Create(ctx context.Context, input domain.MedicineInput) (*domain.Medicine, error) {
	if err := validateMedicineInput(input); err != nil {
		return nil, err
	}

	m, err := s.medicines.Create(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, duplicateMedicineError()
		}
		return nil, err
	}

	s.invalidateDashboard(ctx)
	log.Info().Int64("medicine_id", m.ID).Str("name", m.Name).Msg("medicine created")

	return m, nil
}

func (s *MedicineService) Update(ctx context.Context, id int64, input domain.MedicineInput) (*domain.Medicine, error) {
	if err := validateMedicineInput(input); err != nil {
		return nil, err
	}

	m, err := s.medicines.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, duplicateMedicineError()
		}
		return nil, err
	}

	s.invalidateDashboard(ctx)
	log.Info().Int64("medicine_id", id).Str("name", m.Name).Msg("medicine updated")

	return m, nil
}

// Delete removes a medicine; its entries and expedition lines cascade with
// it at the persistence layer.
func (s *MedicineService) Delete(ctx context.Context, id int64) error {
	if err := s.medicines.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	log.Info().Int64("medicine_id", id).Msg("medicine deleted")

	return nil
}

func validateMedicineInput(input domain.MedicineInput) error {
	v := domain.NewValidationError()

	if input.Name == "" {
		v.Add("name", "The name field is required.")
	}
	if input.Category == "" {
		v.Add("category", "The category field is required.")
	}
	if input.DosageValue != nil && *input.DosageValue < 0 {
		v.Add("dosage_value", "The dosage value must not be negative.")
	}

	if v.HasErrors() {
		return v
	}
	return nil
}

func duplicateMedicineError() error {
	v := domain.NewValidationError()
	v.Add("name", "A medicine with the same name, category and dosage already exists.")
	return v
}

func (s *MedicineService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
