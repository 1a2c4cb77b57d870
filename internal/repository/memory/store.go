// Package memory provides in-memory repository implementations backing the
// service tests and seed-free development runs. A single Store holds all
// four tables so the ledger stays consistent across repositories.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/nomena/pharmastock/internal/domain"
)

// Store is the shared in-memory database.
type Store struct {
	mu sync.RWMutex

	medicines   map[int64]domain.Medicine
	entries     map[int64]domain.Entry
	expeditions map[int64]domain.Expedition
	lines       []domain.ExpeditionLine

	nextMedicineID   int64
	nextEntryID      int64
	nextExpeditionID int64
}

// NewStore creates an empty in-memory database.
func NewStore() *Store {
	return &Store{
		medicines:        make(map[int64]domain.Medicine),
		entries:          make(map[int64]domain.Entry),
		expeditions:      make(map[int64]domain.Expedition),
		nextMedicineID:   1,
		nextEntryID:      1,
		nextExpeditionID: 1,
	}
}

func (s *Store) now() time.Time { return time.Now().UTC() }

// sumEntries totals entered quantities for one medicine. Caller holds the lock.
func (s *Store) sumEntries(medicineID int64) int {
	total := 0
	for _, e := range s.entries {
		if e.MedicineID == medicineID {
			total += e.Quantity
		}
	}
	return total
}

// sumLines totals shipped quantities for one medicine, optionally excluding
// one expedition's own lines. Caller holds the lock.
func (s *Store) sumLines(medicineID, excludeExpeditionID int64) int {
	total := 0
	for _, l := range s.lines {
		if l.MedicineID == medicineID && l.ExpeditionID != excludeExpeditionID {
			total += l.Quantity
		}
	}
	return total
}

func (s *Store) stock(medicineID int64) int {
	return s.sumEntries(medicineID) - s.sumLines(medicineID, 0)
}

// latestInventoryUnit picks the inventory unit of the most recent entry (by
// entry date, then id) carrying one. Caller holds the lock.
func (s *Store) latestInventoryUnit(medicineID int64) *string {
	var best *domain.Entry
	for id := range s.entries {
		e := s.entries[id]
		if e.MedicineID != medicineID || e.InventoryUnit == "" {
			continue
		}
		if best == nil || e.EnteredAt.After(best.EnteredAt) ||
			(e.EnteredAt.Equal(best.EnteredAt) && e.ID > best.ID) {
			copied := e
			best = &copied
		}
	}
	if best == nil {
		return nil
	}
	unit := best.InventoryUnit
	return &unit
}

func (s *Store) sortedMedicines() []domain.Medicine {
	medicines := make([]domain.Medicine, 0, len(s.medicines))
	for _, m := range s.medicines {
		medicines = append(medicines, m)
	}
	sort.Slice(medicines, func(i, j int) bool {
		if medicines[i].Name != medicines[j].Name {
			return medicines[i].Name < medicines[j].Name
		}
		return medicines[i].ID < medicines[j].ID
	})
	return medicines
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
