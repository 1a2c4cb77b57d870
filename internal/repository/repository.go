package repository

import (
	"context"

	"github.com/nomena/pharmastock/internal/domain"
)

// MedicineRepository is the catalog store. Create and Update return
// domain.ErrDuplicate when another row already describes the same
// (name, category, dosage value, dosage unit) combination.
type MedicineRepository interface {
	List(ctx context.Context) ([]domain.Medicine, error)
	Get(ctx context.Context, id int64) (*domain.Medicine, error)
	Create(ctx context.Context, input domain.MedicineInput) (*domain.Medicine, error)
	Update(ctx context.Context, id int64, input domain.MedicineInput) (*domain.Medicine, error)
	Delete(ctx context.Context, id int64) error
}

// EntryRepository is the stock-in side of the ledger.
type EntryRepository interface {
	List(ctx context.Context) ([]domain.Entry, error)
	Get(ctx context.Context, id int64) (*domain.Entry, error)
	Create(ctx context.Context, input domain.EntryInput) (*domain.Entry, error)
	Update(ctx context.Context, id int64, input domain.EntryInput) (*domain.Entry, error)
	Delete(ctx context.Context, id int64) error

	// SumForMedicine totals entered quantities; zero rows yield 0.
	SumForMedicine(ctx context.Context, medicineID int64) (int, error)
	// LatestInventoryUnit returns the inventory unit of the most recent
	// entry (by entry date) carrying one, or nil when none does.
	LatestInventoryUnit(ctx context.Context, medicineID int64) (*string, error)
}

// ExpeditionRepository is the stock-out side of the ledger. Create and
// Update persist the header and the full line set atomically, re-checking
// availability against the locked entry/line aggregates inside the same
// transaction; an insufficient re-check surfaces as *domain.StockError and
// leaves nothing written.
type ExpeditionRepository interface {
	List(ctx context.Context) ([]domain.Expedition, error)
	Get(ctx context.Context, id int64) (*domain.Expedition, error)
	Create(ctx context.Context, exp *domain.Expedition, lines []domain.ExpeditionLine) error
	Update(ctx context.Context, exp *domain.Expedition, lines []domain.ExpeditionLine) error
	Delete(ctx context.Context, id int64) error

	// CurrentLines returns the quantities an expedition presently reserves,
	// used for the add-back adjustment when validating an edit.
	CurrentLines(ctx context.Context, expeditionID int64) ([]domain.ExpeditionLine, error)
	// SumForMedicine totals shipped quantities across all expeditions.
	SumForMedicine(ctx context.Context, medicineID int64) (int, error)
}

// ReportRepository serves the read-only dashboard projections.
type ReportRepository interface {
	Totals(ctx context.Context) (*domain.DashboardTotals, error)
	StockPerMedicine(ctx context.Context) ([]domain.MedicineStock, error)
	MostUsed(ctx context.Context, limit int) ([]domain.ConsumptionRow, error)
	VillageUsage(ctx context.Context, limit int) ([]domain.VillageUsage, error)
	Inventory(ctx context.Context) ([]domain.InventoryRow, error)
}
