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

// ExpeditionService validates and commits shipments. Validation runs to
// completion before any write: field problems and every insufficient line
// are collected first, and only a clean request reaches the repository,
// which re-checks availability inside the commit transaction.
type ExpeditionService struct {
	medicines   repository.MedicineRepository
	entries     repository.EntryRepository
	expeditions repository.ExpeditionRepository
	stock       *StockService
	cache       cache.DashboardCache
}

func NewExpeditionService(
	medicines repository.MedicineRepository,
	entries repository.EntryRepository,
	expeditions repository.ExpeditionRepository,
	stock *StockService,
	dashboardCache cache.DashboardCache,
) *ExpeditionService {
	return &ExpeditionService{
		medicines:   medicines,
		entries:     entries,
		expeditions: expeditions,
		stock:       stock,
		cache:       dashboardCache,
	}
}

func (s *ExpeditionService) List(ctx context.Context) ([]domain.ExpeditionView, error) {
	expeditions, err := s.expeditions.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ExpeditionView, 0, len(expeditions))
	for i := range expeditions {
		view, err := s.buildView(ctx, &expeditions[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	return views, nil
}

func (s *ExpeditionService) Get(ctx context.Context, id int64) (*domain.ExpeditionView, error) {
	exp, err := s.expeditions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, exp)
}

func (s *ExpeditionService) Create(ctx context.Context, input domain.ExpeditionInput) (*domain.Expedition, error) {
	zone, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	merged := mergeLines(input.Lines)
	if err := s.validateStock(ctx, merged, 0); err != nil {
		return nil, err
	}

	exp := &domain.Expedition{
		Village:      input.Village,
		Zone:         zone,
		ShippedAt:    input.ShippedAt,
		DurationDays: input.DurationDays,
	}
	if err := s.expeditions.Create(ctx, exp, merged); err != nil {
		return nil, err
	}
	exp.Lines = merged

	s.invalidateDashboard(ctx)
	log.Info().Int64("expedition_id", exp.ID).Str("village", exp.Village).Msg("expedition created")

	return exp, nil
}

func (s *ExpeditionService) Update(ctx context.Context, id int64, input domain.ExpeditionInput) (*domain.Expedition, error) {
	if _, err := s.expeditions.Get(ctx, id); err != nil {
		return nil, err
	}

	zone, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	merged := mergeLines(input.Lines)
	if err := s.validateStock(ctx, merged, id); err != nil {
		return nil, err
	}

	exp := &domain.Expedition{
		ID:           id,
		Village:      input.Village,
		Zone:         zone,
		ShippedAt:    input.ShippedAt,
		DurationDays: input.DurationDays,
	}
	if err := s.expeditions.Update(ctx, exp, merged); err != nil {
		return nil, err
	}
	exp.Lines = merged

	s.invalidateDashboard(ctx)
	log.Info().Int64("expedition_id", id).Str("village", exp.Village).Msg("expedition updated")

	return exp, nil
}

func (s *ExpeditionService) Delete(ctx context.Context, id int64) error {
	if err := s.expeditions.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	log.Info().Int64("expedition_id", id).Msg("expedition deleted")

	return nil
}

func (s *ExpeditionService) validateInput(input domain.ExpeditionInput) (domain.Zone, error) {
	v := domain.NewValidationError()

	if input.Village == "" {
		v.Add("village", "The village field is required.")
	}
	zone, zoneErr := domain.ParseZone(input.Zone)
	if zoneErr != nil {
		v.Add("zone", "The zone must be one of: north, south, east, west.")
	}
	if input.ShippedAt.IsZero() {
		v.Add("shipped_at", "The expedition date is required.")
	}
	if input.DurationDays < 1 {
		v.Add("duration_days", "The duration must be at least 1 day.")
	}
	if len(input.Lines) == 0 {
		v.Add("lines", "At least one medicine is required.")
	}
	for _, l := range input.Lines {
		if l.MedicineID <= 0 {
			v.Add("lines", "Each line must reference a medicine.")
		}
		if l.Quantity < 1 {
			v.Add("lines", "Each quantity must be at least 1.")
		}
	}

	if v.HasErrors() {
		return "", v
	}
	return zone, nil
}

// validateStock checks every merged line against available stock and
// collects all shortfalls before returning. When editing, the expedition's
// own current reservation is added back so keeping the same quantity always
// passes even at zero free stock.
func (s *ExpeditionService) validateStock(ctx context.Context, lines []domain.ExpeditionLine, editingID int64) error {
	var reserved map[int64]int
	if editingID != 0 {
		current, err := s.expeditions.CurrentLines(ctx, editingID)
		if err != nil {
			return err
		}
		reserved = make(map[int64]int, len(current))
		for _, l := range current {
			reserved[l.MedicineID] = l.Quantity
		}
	}

	var failures []domain.StockFailure
	for _, l := range lines {
		med, err := s.medicines.Get(ctx, l.MedicineID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				failures = append(failures, domain.StockFailure{MedicineID: l.MedicineID, NotFound: true})
				continue
			}
			return err
		}

		available, err := s.stock.AvailableStock(ctx, l.MedicineID)
		if err != nil {
			return err
		}
		available += reserved[l.MedicineID]

		if l.Quantity > available {
			failures = append(failures, domain.StockFailure{
				MedicineID:   l.MedicineID,
				MedicineName: med.Name,
				Requested:    l.Quantity,
				Available:    available,
			})
		}
	}

	if len(failures) > 0 {
		return &domain.StockError{Failures: failures}
	}
	return nil
}

// mergeLines sums duplicate medicine selections into one line each,
// preserving first-seen order. A form submitting medicine A twice (3 and 4)
// is treated as a single request for 7.
func mergeLines(requested []domain.LineRequest) []domain.ExpeditionLine {
	index := make(map[int64]int, len(requested))
	merged := make([]domain.ExpeditionLine, 0, len(requested))
	for _, l := range requested {
		if i, ok := index[l.MedicineID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.MedicineID] = len(merged)
		merged = append(merged, domain.ExpeditionLine{MedicineID: l.MedicineID, Quantity: l.Quantity})
	}
	return merged
}

func (s *ExpeditionService) buildView(ctx context.Context, exp *domain.Expedition) (*domain.ExpeditionView, error) {
	view := &domain.ExpeditionView{
		ID:           exp.ID,
		Village:      exp.Village,
		Zone:         exp.Zone,
		ShippedAt:    exp.ShippedAt,
		DurationDays: exp.DurationDays,
		Details:      make([]domain.ExpeditionLineDetail, 0, len(exp.Lines)),
	}

	for _, l := range exp.Lines {
		view.TotalMedicines++
		view.TotalItems += l.Quantity

		detail := domain.ExpeditionLineDetail{
			MedicineID: l.MedicineID,
			Quantity:   l.Quantity,
		}

		med, err := s.medicines.Get(ctx, l.MedicineID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				view.Details = append(view.Details, detail)
				continue
			}
			return nil, err
		}

		unit, err := s.entries.LatestInventoryUnit(ctx, l.MedicineID)
		if err != nil {
			return nil, err
		}

		detail.Name = med.Name
		detail.DisplayName = format.DisplayName(med)
		detail.Category = med.Category
		detail.Form = med.Form
		detail.DosageValue = med.DosageValue
		detail.DosageUnit = med.DosageUnit
		detail.DosageDisplay = format.DosageDisplay(med, l.Quantity)
		detail.InventoryUnit = unit
		if unit != nil {
			display := format.PluralizeUnit(*unit, l.Quantity)
			detail.InventoryUnitDisplay = &display
		}

		view.Details = append(view.Details, detail)
	}

	return view, nil
}

func (s *ExpeditionService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
}
