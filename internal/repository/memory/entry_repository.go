package memory

import (
	"context"
	"sort"

	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository"
)

// EntryRepository is the in-memory stock-in ledger.
type EntryRepository struct {
	store *Store
}

func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

var _ repository.EntryRepository = (*EntryRepository)(nil)

func (r *EntryRepository) List(ctx context.Context) ([]domain.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := make([]domain.Entry, 0, len(r.store.entries))
	for _, e := range r.store.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].EnteredAt.Equal(entries[j].EnteredAt) {
			return entries[i].EnteredAt.After(entries[j].EnteredAt)
		}
		return entries[i].ID > entries[j].ID
	})

	for i := range entries {
		if m, ok := r.store.medicines[entries[i].MedicineID]; ok {
			copied := m
			entries[i].Medicine = &copied
		}
	}

	return entries, nil
}

func (r *EntryRepository) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if m, ok := r.store.medicines[e.MedicineID]; ok {
		copied := m
		e.Medicine = &copied
	}
	return &e, nil
}

func (r *EntryRepository) Create(ctx context.Context, input domain.EntryInput) (*domain.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.medicines[input.MedicineID]; !ok {
		return nil, domain.ErrNotFound
	}

	now := r.store.now()
	e := domain.Entry{
		ID:            r.store.nextEntryID,
		MedicineID:    input.MedicineID,
		Supplier:      input.Supplier,
		Quantity:      input.Quantity,
		InventoryUnit: input.InventoryUnit,
		EnteredAt:     input.EnteredAt,
		ExpiresAt:     input.ExpiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.store.nextEntryID++
	r.store.entries[e.ID] = e

	return &e, nil
}

func (r *EntryRepository) Update(ctx context.Context, id int64, input domain.EntryInput) (*domain.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, ok := r.store.medicines[input.MedicineID]; !ok {
		return nil, domain.ErrNotFound
	}

	e.MedicineID = input.MedicineID
	e.Supplier = input.Supplier
	e.Quantity = input.Quantity
	e.InventoryUnit = input.InventoryUnit
	e.EnteredAt = input.EnteredAt
	e.ExpiresAt = input.ExpiresAt
	e.UpdatedAt = r.store.now()
	r.store.entries[id] = e

	return &e, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.entries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.entries, id)
	return nil
}

func (r *EntryRepository) SumForMedicine(ctx context.Context, medicineID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.sumEntries(medicineID), nil
}

func (r *EntryRepository) LatestInventoryUnit(ctx context.Context, medicineID int64) (*string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.latestInventoryUnit(medicineID), nil
}
