package memory

import (
	"context"
	"sort"
	"time"

	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository"
)

// ReportRepository derives the dashboard projections from the in-memory
// ledger with the same ordering and tie-breaks as the SQL queries.
type ReportRepository struct {
	store *Store
}

func NewReportRepository(store *Store) *ReportRepository {
	return &ReportRepository{store: store}
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

func (r *ReportRepository) Totals(ctx context.Context) (*domain.DashboardTotals, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	totals := domain.DashboardTotals{Medicines: len(r.store.medicines)}
	for _, e := range r.store.entries {
		totals.TotalEntered += e.Quantity
	}
	for _, l := range r.store.lines {
		totals.TotalShipped += l.Quantity
	}

	return &totals, nil
}

func (r *ReportRepository) StockPerMedicine(ctx context.Context) ([]domain.MedicineStock, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	medicines := r.store.sortedMedicines()
	rows := make([]domain.MedicineStock, 0, len(medicines))
	for _, m := range medicines {
		entered := r.store.sumEntries(m.ID)
		shipped := r.store.sumLines(m.ID, 0)
		rows = append(rows, domain.MedicineStock{
			MedicineID:    m.ID,
			Name:          m.Name,
			Category:      m.Category,
			Form:          m.Form,
			DosageValue:   m.DosageValue,
			DosageUnit:    m.DosageUnit,
			InventoryUnit: r.store.latestInventoryUnit(m.ID),
			Stock:         entered - shipped,
			TotalEntries:  entered,
			TotalExits:    shipped,
		})
	}

	return rows, nil
}

func (r *ReportRepository) MostUsed(ctx context.Context, limit int) ([]domain.ConsumptionRow, error) {
	if limit <= 0 {
		limit = 10
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	totals := make(map[int64]int)
	for _, l := range r.store.lines {
		totals[l.MedicineID] += l.Quantity
	}

	rows := make([]domain.ConsumptionRow, 0, len(totals))
	for medicineID, total := range totals {
		m, ok := r.store.medicines[medicineID]
		if !ok {
			continue
		}
		rows = append(rows, domain.ConsumptionRow{
			MedicineID:    medicineID,
			Name:          m.Name,
			Form:          m.Form,
			DosageValue:   m.DosageValue,
			DosageUnit:    m.DosageUnit,
			InventoryUnit: r.store.latestInventoryUnit(medicineID),
			Total:         total,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].MedicineID < rows[j].MedicineID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return rows, nil
}

func (r *ReportRepository) VillageUsage(ctx context.Context, limit int) ([]domain.VillageUsage, error) {
	if limit <= 0 {
		limit = 10
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	distinct := make(map[string]map[int64]struct{})
	for _, l := range r.store.lines {
		exp, ok := r.store.expeditions[l.ExpeditionID]
		if !ok {
			continue
		}
		if distinct[exp.Village] == nil {
			distinct[exp.Village] = make(map[int64]struct{})
		}
		distinct[exp.Village][l.MedicineID] = struct{}{}
	}

	rows := make([]domain.VillageUsage, 0, len(distinct))
	for village, medicines := range distinct {
		rows = append(rows, domain.VillageUsage{Village: village, MedicineCount: len(medicines)})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MedicineCount != rows[j].MedicineCount {
			return rows[i].MedicineCount > rows[j].MedicineCount
		}
		return rows[i].Village < rows[j].Village
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return rows, nil
}

func (r *ReportRepository) Inventory(ctx context.Context) ([]domain.InventoryRow, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]domain.InventoryRow, 0, len(r.store.medicines))
	for _, m := range r.store.medicines {
		rows = append(rows, domain.InventoryRow{
			MedicineID:    m.ID,
			Name:          m.Name,
			Category:      m.Category,
			Form:          m.Form,
			DosageValue:   m.DosageValue,
			DosageUnit:    m.DosageUnit,
			InventoryUnit: r.store.latestInventoryUnit(m.ID),
			Stock:         r.store.stock(m.ID),
			NearestExpiry: r.nearestExpiry(m.ID),
		})
	}

	// Known expirations first, soonest first; unknown last, then by id.
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].NearestExpiry, rows[j].NearestExpiry
		switch {
		case a == nil && b == nil:
			return rows[i].MedicineID < rows[j].MedicineID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return rows[i].MedicineID < rows[j].MedicineID
		}
	})

	return rows, nil
}

// nearestExpiry is the minimum expiration over the medicine's entries, nil
// when no entry carries one. Caller holds the lock.
func (r *ReportRepository) nearestExpiry(medicineID int64) *time.Time {
	var min *time.Time
	for _, e := range r.store.entries {
		if e.MedicineID != medicineID || e.ExpiresAt == nil {
			continue
		}
		if min == nil || e.ExpiresAt.Before(*min) {
			copied := *e.ExpiresAt
			min = &copied
		}
	}
	return min
}
