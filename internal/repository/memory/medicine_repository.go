package memory

import (
	"context"

	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository"
)

// MedicineRepository is the in-memory catalog store.
type MedicineRepository struct {
	store *Store
}

func NewMedicineRepository(store *Store) *MedicineRepository {
	return &MedicineRepository{store: store}
}

var _ repository.MedicineRepository = (*MedicineRepository)(nil)

func (r *MedicineRepository) List(ctx context.Context) ([]domain.Medicine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.sortedMedicines(), nil
}

func (r *MedicineRepository) Get(ctx context.Context, id int64) (*domain.Medicine, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.medicines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

func (r *MedicineRepository) Create(ctx context.Context, input domain.MedicineInput) (*domain.Medicine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.duplicateExists(input, 0) {
		return nil, domain.ErrDuplicate
	}

	now := r.store.now()
	m := domain.Medicine{
		ID:          r.store.nextMedicineID,
		Name:        input.Name,
		Category:    input.Category,
		Form:        input.Form,
		DosageValue: input.DosageValue,
		DosageUnit:  input.DosageUnit,
		ExpiresAt:   input.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.store.nextMedicineID++
	r.store.medicines[m.ID] = m

	return &m, nil
}

func (r *MedicineRepository) Update(ctx context.Context, id int64, input domain.MedicineInput) (*domain.Medicine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.medicines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.duplicateExists(input, id) {
		return nil, domain.ErrDuplicate
	}

	m.Name = input.Name
	m.Category = input.Category
	m.Form = input.Form
	m.DosageValue = input.DosageValue
	m.DosageUnit = input.DosageUnit
	m.ExpiresAt = input.ExpiresAt
	m.UpdatedAt = r.store.now()
	r.store.medicines[id] = m

	return &m, nil
}

// Delete removes the medicine and cascades to its entries and expedition
// lines, mirroring the foreign key behavior of the SQL schema.
func (r *MedicineRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.medicines[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.medicines, id)

	for entryID, e := range r.store.entries {
		if e.MedicineID == id {
			delete(r.store.entries, entryID)
		}
	}

	kept := r.store.lines[:0]
	for _, l := range r.store.lines {
		if l.MedicineID != id {
			kept = append(kept, l)
		}
	}
	r.store.lines = kept

	return nil
}

func (r *MedicineRepository) duplicateExists(input domain.MedicineInput, excludeID int64) bool {
	for _, m := range r.store.medicines {
		if m.ID == excludeID {
			continue
		}
		if m.Name == input.Name && m.Category == input.Category &&
			equalPtr(m.DosageValue, input.DosageValue) && equalPtr(m.DosageUnit, input.DosageUnit) {
			return true
		}
	}
	return false
}
