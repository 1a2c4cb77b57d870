package memory

import (
	"context"
	"sort"

	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository"
)

// ExpeditionRepository is the in-memory stock-out ledger. Create and Update
// mirror the SQL implementation: the availability re-check and the write
// happen under one lock, and a shortfall leaves nothing written.
type ExpeditionRepository struct {
	store *Store
}

func NewExpeditionRepository(store *Store) *ExpeditionRepository {
	return &ExpeditionRepository{store: store}
}

var _ repository.ExpeditionRepository = (*ExpeditionRepository)(nil)

func (r *ExpeditionRepository) List(ctx context.Context) ([]domain.Expedition, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	expeditions := make([]domain.Expedition, 0, len(r.store.expeditions))
	for _, exp := range r.store.expeditions {
		exp.Lines = r.linesFor(exp.ID)
		expeditions = append(expeditions, exp)
	}
	sort.Slice(expeditions, func(i, j int) bool {
		if !expeditions[i].ShippedAt.Equal(expeditions[j].ShippedAt) {
			return expeditions[i].ShippedAt.After(expeditions[j].ShippedAt)
		}
		return expeditions[i].ID > expeditions[j].ID
	})

	return expeditions, nil
}

func (r *ExpeditionRepository) Get(ctx context.Context, id int64) (*domain.Expedition, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	exp, ok := r.store.expeditions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	exp.Lines = r.linesFor(id)
	return &exp, nil
}

func (r *ExpeditionRepository) Create(ctx context.Context, exp *domain.Expedition, lines []domain.ExpeditionLine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.recheckAvailability(lines, 0); err != nil {
		return err
	}

	now := r.store.now()
	exp.ID = r.store.nextExpeditionID
	exp.CreatedAt = now
	exp.UpdatedAt = now
	r.store.nextExpeditionID++
	r.store.expeditions[exp.ID] = *exp

	for _, l := range lines {
		l.ExpeditionID = exp.ID
		r.store.lines = append(r.store.lines, l)
	}

	return nil
}

func (r *ExpeditionRepository) Update(ctx context.Context, exp *domain.Expedition, lines []domain.ExpeditionLine) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.expeditions[exp.ID]
	if !ok {
		return domain.ErrNotFound
	}

	// The expedition's own current lines do not count against it.
	if err := r.recheckAvailability(lines, exp.ID); err != nil {
		return err
	}

	exp.CreatedAt = existing.CreatedAt
	exp.UpdatedAt = r.store.now()
	r.store.expeditions[exp.ID] = *exp

	kept := r.store.lines[:0]
	for _, l := range r.store.lines {
		if l.ExpeditionID != exp.ID {
			kept = append(kept, l)
		}
	}
	r.store.lines = kept
	for _, l := range lines {
		l.ExpeditionID = exp.ID
		r.store.lines = append(r.store.lines, l)
	}

	return nil
}

func (r *ExpeditionRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.expeditions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.expeditions, id)

	kept := r.store.lines[:0]
	for _, l := range r.store.lines {
		if l.ExpeditionID != id {
			kept = append(kept, l)
		}
	}
	r.store.lines = kept

	return nil
}

func (r *ExpeditionRepository) CurrentLines(ctx context.Context, expeditionID int64) ([]domain.ExpeditionLine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.linesFor(expeditionID), nil
}

func (r *ExpeditionRepository) SumForMedicine(ctx context.Context, medicineID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.sumLines(medicineID, 0), nil
}

func (r *ExpeditionRepository) recheckAvailability(lines []domain.ExpeditionLine, excludeExpeditionID int64) error {
	var failures []domain.StockFailure
	for _, l := range lines {
		m, ok := r.store.medicines[l.MedicineID]
		if !ok {
			failures = append(failures, domain.StockFailure{MedicineID: l.MedicineID, NotFound: true})
			continue
		}

		available := r.store.sumEntries(l.MedicineID) - r.store.sumLines(l.MedicineID, excludeExpeditionID)
		if available < 0 {
			available = 0
		}
		if l.Quantity > available {
			failures = append(failures, domain.StockFailure{
				MedicineID:   l.MedicineID,
				MedicineName: m.Name,
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

// linesFor returns an expedition's lines sorted by medicine id. Caller
// holds the lock.
func (r *ExpeditionRepository) linesFor(expeditionID int64) []domain.ExpeditionLine {
	var lines []domain.ExpeditionLine
	for _, l := range r.store.lines {
		if l.ExpeditionID == expeditionID {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MedicineID < lines[j].MedicineID })
	return lines
}
