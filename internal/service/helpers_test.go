package service

import (
	"context"
	"testing"
	"time"

	"github.com/nomena/pharmastock/internal/cache"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository/memory"
)

// fixture wires every service against one shared in-memory store.
type fixture struct {
	medicines   *MedicineService
	entries     *EntryService
	expeditions *ExpeditionService
	dashboard   *DashboardService
	stock       *StockService
}

func newFixture() *fixture {
	store := memory.NewStore()
	medicineRepo := memory.NewMedicineRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	expeditionRepo := memory.NewExpeditionRepository(store)
	reportRepo := memory.NewReportRepository(store)
	noop := cache.NewNoopDashboardCache()

	stock := NewStockService(entryRepo, expeditionRepo)
	return &fixture{
		medicines:   NewMedicineService(medicineRepo, noop),
		entries:     NewEntryService(entryRepo, medicineRepo, noop),
		expeditions: NewExpeditionService(medicineRepo, entryRepo, expeditionRepo, stock, noop),
		dashboard:   NewDashboardService(reportRepo, noop),
		stock:       stock,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

// addMedicine creates a catalog row, failing the test on any error.
func (f *fixture) addMedicine(t *testing.T, name string) *domain.Medicine {
	t.Helper()
	m, err := f.medicines.Create(context.Background(), domain.MedicineInput{
		Name:     name,
		Category: "analgesic",
	})
	if err != nil {
		t.Fatalf("create medicine %q: %v", name, err)
	}
	return m
}

// addEntry records a stock-in of quantity units for the medicine.
func (f *fixture) addEntry(t *testing.T, medicineID int64, quantity int) *domain.Entry {
	t.Helper()
	e, err := f.entries.Create(context.Background(), domain.EntryInput{
		MedicineID:    medicineID,
		Quantity:      quantity,
		InventoryUnit: "Box",
		EnteredAt:     date(2026, time.January, 10),
	})
	if err != nil {
		t.Fatalf("create entry for medicine %d: %v", medicineID, err)
	}
	return e
}

// ship creates an expedition with the given lines, failing on error.
func (f *fixture) ship(t *testing.T, village string, lines ...domain.LineRequest) *domain.Expedition {
	t.Helper()
	exp, err := f.expeditions.Create(context.Background(), domain.ExpeditionInput{
		Village:      village,
		Zone:         "north",
		ShippedAt:    date(2026, time.February, 1),
		DurationDays: 3,
		Lines:        lines,
	})
	if err != nil {
		t.Fatalf("create expedition to %q: %v", village, err)
	}
	return exp
}

func (f *fixture) mustStock(t *testing.T, medicineID int64) int {
	t.Helper()
	stock, err := f.stock.Stock(context.Background(), medicineID)
	if err != nil {
		t.Fatalf("stock for medicine %d: %v", medicineID, err)
	}
	return stock
}
