package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nomena/pharmastock/internal/cache"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository/memory"
)

// recordingCache is a test double that stores one dashboard in memory and
// counts hits, so cache interaction is observable.
type recordingCache struct {
	dashboard *domain.Dashboard
	sets      int
	hits      int
}

func (c *recordingCache) Get(ctx context.Context) (*domain.Dashboard, bool, error) {
	if c.dashboard == nil {
		return nil, false, nil
	}
	c.hits++
	return c.dashboard, true, nil
}

func (c *recordingCache) Set(ctx context.Context, d *domain.Dashboard) error {
	c.dashboard = d
	c.sets++
	return nil
}

func (c *recordingCache) Invalidate(ctx context.Context) error {
	c.dashboard = nil
	return nil
}

var _ cache.DashboardCache = (*recordingCache)(nil)

func TestDashboardTotalsExcludeNegativeStock(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.addMedicine(t, "Paracetamol")
	b := f.addMedicine(t, "Amoxicillin")
	f.addEntry(t, a.ID, 10)
	f.addEntry(t, b.ID, 5)
	f.ship(t, "Ambanja", domain.LineRequest{MedicineID: b.ID, Quantity: 5})

	// Deleting medicine B's entry afterwards drives its stock to -5; the
	// global total must count only A's 10.
	entries, err := f.entries.List(ctx)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	for _, e := range entries {
		if e.MedicineID == b.ID {
			if err := f.entries.Delete(ctx, e.ID); err != nil {
				t.Fatalf("delete entry: %v", err)
			}
		}
	}

	dash, err := f.dashboard.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Totals.Medicines != 2 {
		t.Errorf("medicines = %d, want 2", dash.Totals.Medicines)
	}
	if dash.Totals.TotalEntered != 10 {
		t.Errorf("total entered = %d, want 10", dash.Totals.TotalEntered)
	}
	if dash.Totals.TotalShipped != 5 {
		t.Errorf("total shipped = %d, want 5", dash.Totals.TotalShipped)
	}
	if dash.Totals.Stock != 10 {
		t.Errorf("global stock = %d, want 10 (negative stock excluded)", dash.Totals.Stock)
	}

	var rowB *domain.MedicineStock
	for i := range dash.StockPerMedicine {
		if dash.StockPerMedicine[i].MedicineID == b.ID {
			rowB = &dash.StockPerMedicine[i]
		}
	}
	if rowB == nil || rowB.Stock != -5 {
		t.Errorf("per-medicine row keeps raw value, got %+v", rowB)
	}
}

func TestDashboardMostUsedTopTen(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 15 medicines shipped in strictly increasing amounts: the ranking must
	// keep the 15th down to the 6th, in descending order.
	ids := make([]int64, 15)
	for i := range ids {
		m := f.addMedicine(t, fmt.Sprintf("Medicine %02d", i+1))
		f.addEntry(t, m.ID, 100)
		ids[i] = m.ID
	}
	for i, id := range ids {
		f.ship(t, fmt.Sprintf("Village %02d", i+1), domain.LineRequest{MedicineID: id, Quantity: i + 1})
	}

	dash, err := f.dashboard.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dash.MostUsed) != 10 {
		t.Fatalf("most used rows = %d, want 10", len(dash.MostUsed))
	}
	for i, row := range dash.MostUsed {
		want := 15 - i
		if row.Total != want {
			t.Errorf("row %d total = %d, want %d", i, row.Total, want)
		}
	}
}

func TestDashboardMostUsedTieBreaksByMedicineID(t *testing.T) {
	f := newFixture()

	a := f.addMedicine(t, "Zinc")
	b := f.addMedicine(t, "Aspirin")
	f.addEntry(t, a.ID, 10)
	f.addEntry(t, b.ID, 10)
	f.ship(t, "Sakaraha",
		domain.LineRequest{MedicineID: a.ID, Quantity: 4},
		domain.LineRequest{MedicineID: b.ID, Quantity: 4},
	)

	dash, err := f.dashboard.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dash.MostUsed) != 2 {
		t.Fatalf("most used rows = %d, want 2", len(dash.MostUsed))
	}
	if dash.MostUsed[0].MedicineID != a.ID {
		t.Errorf("tie broken by id: first row is medicine %d, want %d", dash.MostUsed[0].MedicineID, a.ID)
	}
}

func TestDashboardVillageUsageCountsDistinctMedicines(t *testing.T) {
	f := newFixture()

	a := f.addMedicine(t, "Paracetamol")
	b := f.addMedicine(t, "Amoxicillin")
	f.addEntry(t, a.ID, 100)
	f.addEntry(t, b.ID, 100)

	// Two expeditions to the same village with overlapping medicines: the
	// village counts 2 distinct medicines, not 3 lines.
	f.ship(t, "Ambovombe", domain.LineRequest{MedicineID: a.ID, Quantity: 1})
	f.ship(t, "Ambovombe",
		domain.LineRequest{MedicineID: a.ID, Quantity: 2},
		domain.LineRequest{MedicineID: b.ID, Quantity: 2},
	)
	f.ship(t, "Beloha", domain.LineRequest{MedicineID: a.ID, Quantity: 1})

	dash, err := f.dashboard.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dash.VillageUsage) != 2 {
		t.Fatalf("village rows = %d, want 2", len(dash.VillageUsage))
	}
	if dash.VillageUsage[0].Village != "Ambovombe" || dash.VillageUsage[0].MedicineCount != 2 {
		t.Errorf("first row = %+v, want Ambovombe with 2", dash.VillageUsage[0])
	}
	if dash.VillageUsage[1].Village != "Beloha" || dash.VillageUsage[1].MedicineCount != 1 {
		t.Errorf("second row = %+v, want Beloha with 1", dash.VillageUsage[1])
	}
}

func TestDashboardInventoryOrdersByNearestExpiry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	noExpiry := f.addMedicine(t, "Gauze")
	late := f.addMedicine(t, "Amoxicillin")
	soon := f.addMedicine(t, "Insulin")

	f.addEntry(t, noExpiry.ID, 5)
	for _, tc := range []struct {
		id      int64
		expires time.Time
	}{
		{late.ID, date(2027, time.June, 1)},
		{soon.ID, date(2026, time.September, 1)},
	} {
		if _, err := f.entries.Create(ctx, domain.EntryInput{
			MedicineID:    tc.id,
			Quantity:      5,
			InventoryUnit: "Box",
			EnteredAt:     date(2026, time.January, 10),
			ExpiresAt:     timePtr(tc.expires),
		}); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	dash, err := f.dashboard.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dash.Inventory) != 3 {
		t.Fatalf("inventory rows = %d, want 3", len(dash.Inventory))
	}

	order := []int64{soon.ID, late.ID, noExpiry.ID}
	for i, want := range order {
		if dash.Inventory[i].MedicineID != want {
			t.Errorf("inventory[%d] = medicine %d, want %d", i, dash.Inventory[i].MedicineID, want)
		}
	}
	if dash.Inventory[2].NearestExpiry != nil {
		t.Errorf("no-expiry medicine reports %v", dash.Inventory[2].NearestExpiry)
	}
}

func TestDashboardUsesCacheUntilInvalidated(t *testing.T) {
	store := memory.NewStore()
	medicineRepo := memory.NewMedicineRepository(store)
	entryRepo := memory.NewEntryRepository(store)
	reportRepo := memory.NewReportRepository(store)

	rec := &recordingCache{}
	medicines := NewMedicineService(medicineRepo, rec)
	entries := NewEntryService(entryRepo, medicineRepo, rec)
	dashboard := NewDashboardService(reportRepo, rec)

	ctx := context.Background()
	m, err := medicines.Create(ctx, domain.MedicineInput{Name: "Paracetamol", Category: "analgesic"})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}

	if _, err := dashboard.Dashboard(ctx); err != nil {
		t.Fatalf("first dashboard: %v", err)
	}
	if _, err := dashboard.Dashboard(ctx); err != nil {
		t.Fatalf("second dashboard: %v", err)
	}
	if rec.sets != 1 || rec.hits != 1 {
		t.Errorf("sets = %d hits = %d, want 1 and 1", rec.sets, rec.hits)
	}

	// Any stock mutation drops the cached dashboard.
	if _, err := entries.Create(ctx, domain.EntryInput{
		MedicineID:    m.ID,
		Quantity:      5,
		InventoryUnit: "Box",
		EnteredAt:     date(2026, time.January, 10),
	}); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	dash, err := dashboard.Dashboard(ctx)
	if err != nil {
		t.Fatalf("third dashboard: %v", err)
	}
	if rec.sets != 2 {
		t.Errorf("sets = %d, want 2 after invalidation", rec.sets)
	}
	if dash.Totals.TotalEntered != 5 {
		t.Errorf("total entered = %d, want 5 from fresh read", dash.Totals.TotalEntered)
	}
}
