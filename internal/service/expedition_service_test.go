package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nomena/pharmastock/internal/domain"
)

func TestCreateExpeditionMergesDuplicateLines(t *testing.T) {
	f := newFixture()
	m := f.addMedicine(t, "Paracetamol")
	f.addEntry(t, m.ID, 10)

	exp := f.ship(t, "Ambatolampy",
		domain.LineRequest{MedicineID: m.ID, Quantity: 3},
		domain.LineRequest{MedicineID: m.ID, Quantity: 4},
	)

	if len(exp.Lines) != 1 {
		t.Fatalf("lines = %d, want 1 merged line", len(exp.Lines))
	}
	if exp.Lines[0].Quantity != 7 {
		t.Errorf("merged quantity = %d, want 7", exp.Lines[0].Quantity)
	}
	if got := f.mustStock(t, m.ID); got != 3 {
		t.Errorf("stock = %d, want 3", got)
	}
}

func TestCreateExpeditionRejectsOverAllocation(t *testing.T) {
	f := newFixture()
	m := f.addMedicine(t, "Amoxicillin")
	f.addEntry(t, m.ID, 10)

	f.ship(t, "Ankazobe", domain.LineRequest{MedicineID: m.ID, Quantity: 5})

	_, err := f.expeditions.Create(context.Background(), domain.ExpeditionInput{
		Village:      "Faratsiho",
		Zone:         "south",
		ShippedAt:    date(2026, time.February, 2),
		DurationDays: 2,
		Lines:        []domain.LineRequest{{MedicineID: m.ID, Quantity: 8}},
	})

	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want *domain.StockError", err)
	}
	if len(stockErr.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(stockErr.Failures))
	}
	fail := stockErr.Failures[0]
	if fail.Requested != 8 || fail.Available != 5 {
		t.Errorf("failure = requested %d available %d, want 8/5", fail.Requested, fail.Available)
	}
	want := "Insufficient stock for: Amoxicillin (requested: 8, available: 5)"
	if stockErr.Error() != want {
		t.Errorf("message = %q, want %q", stockErr.Error(), want)
	}

	// A rejected request writes nothing.
	if got := f.mustStock(t, m.ID); got != 5 {
		t.Errorf("stock = %d, want 5 unchanged", got)
	}
}

func TestCreateExpeditionCollectsEveryFailure(t *testing.T) {
	f := newFixture()
	a := f.addMedicine(t, "Artesunate")
	b := f.addMedicine(t, "Zinc")
	f.addEntry(t, a.ID, 2)
	f.addEntry(t, b.ID, 1)

	_, err := f.expeditions.Create(context.Background(), domain.ExpeditionInput{
		Village:      "Betafo",
		Zone:         "west",
		ShippedAt:    date(2026, time.February, 3),
		DurationDays: 1,
		Lines: []domain.LineRequest{
			{MedicineID: a.ID, Quantity: 5},
			{MedicineID: b.ID, Quantity: 4},
			{MedicineID: 999, Quantity: 1},
		},
	})

	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want *domain.StockError", err)
	}
	if len(stockErr.Failures) != 3 {
		t.Fatalf("failures = %d, want 3", len(stockErr.Failures))
	}
	want := "Insufficient stock for: Artesunate (requested: 5, available: 2); Zinc (requested: 4, available: 1); Medicine #999 not found."
	if stockErr.Error() != want {
		t.Errorf("message = %q, want %q", stockErr.Error(), want)
	}
}

func TestUpdateExpeditionAddsBackOwnReservation(t *testing.T) {
	f := newFixture()
	m := f.addMedicine(t, "Doxycycline")
	f.addEntry(t, m.ID, 10)
	exp := f.ship(t, "Antsirabe", domain.LineRequest{MedicineID: m.ID, Quantity: 10})

	// Free stock is zero, but keeping the same quantity must pass.
	ctx := context.Background()
	updated, err := f.expeditions.Update(ctx, exp.ID, domain.ExpeditionInput{
		Village:      "Antsirabe",
		Zone:         "east",
		ShippedAt:    exp.ShippedAt,
		DurationDays: 5,
		Lines:        []domain.LineRequest{{MedicineID: m.ID, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("update with unchanged reservation: %v", err)
	}
	if updated.Zone != domain.ZoneEast || updated.DurationDays != 5 {
		t.Errorf("update not applied: zone %q duration %d", updated.Zone, updated.DurationDays)
	}

	// Asking for one more than entered must fail even on edit.
	_, err = f.expeditions.Update(ctx, exp.ID, domain.ExpeditionInput{
		Village:      "Antsirabe",
		Zone:         "east",
		ShippedAt:    exp.ShippedAt,
		DurationDays: 5,
		Lines:        []domain.LineRequest{{MedicineID: m.ID, Quantity: 11}},
	})
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("err = %v, want *domain.StockError", err)
	}
	fail := stockErr.Failures[0]
	if fail.Requested != 11 || fail.Available != 10 {
		t.Errorf("failure = requested %d available %d, want 11/10", fail.Requested, fail.Available)
	}
}

func TestUpdateExpeditionReleasesReducedQuantity(t *testing.T) {
	f := newFixture()
	m := f.addMedicine(t, "Ciprofloxacin")
	f.addEntry(t, m.ID, 10)
	exp := f.ship(t, "Ambositra", domain.LineRequest{MedicineID: m.ID, Quantity: 8})

	if _, err := f.expeditions.Update(context.Background(), exp.ID, domain.ExpeditionInput{
		Village:      "Ambositra",
		Zone:         "south",
		ShippedAt:    exp.ShippedAt,
		DurationDays: exp.DurationDays,
		Lines:        []domain.LineRequest{{MedicineID: m.ID, Quantity: 3}},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := f.mustStock(t, m.ID); got != 7 {
		t.Errorf("stock = %d, want 7 after reducing reservation", got)
	}
}

func TestExpeditionInputValidation(t *testing.T) {
	f := newFixture()
	m := f.addMedicine(t, "Paracetamol")
	f.addEntry(t, m.ID, 10)

	valid := domain.ExpeditionInput{
		Village:      "Ihosy",
		Zone:         "north",
		ShippedAt:    date(2026, time.March, 1),
		DurationDays: 2,
		Lines:        []domain.LineRequest{{MedicineID: m.ID, Quantity: 1}},
	}

	tests := []struct {
		name   string
		mutate func(*domain.ExpeditionInput)
		field  string
	}{
		{"missing village", func(in *domain.ExpeditionInput) { in.Village = "" }, "village"},
		{"bad zone", func(in *domain.ExpeditionInput) { in.Zone = "center" }, "zone"},
		{"missing date", func(in *domain.ExpeditionInput) { in.ShippedAt = time.Time{} }, "shipped_at"},
		{"zero duration", func(in *domain.ExpeditionInput) { in.DurationDays = 0 }, "duration_days"},
		{"no lines", func(in *domain.ExpeditionInput) { in.Lines = nil }, "lines"},
		{"zero quantity", func(in *domain.ExpeditionInput) { in.Lines[0].Quantity = 0 }, "lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			input.Lines = append([]domain.LineRequest(nil), valid.Lines...)
			tt.mutate(&input)

			_, err := f.expeditions.Create(context.Background(), input)
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want *domain.ValidationError", err)
			}
			if _, ok := vErr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want key %q", vErr.Fields, tt.field)
			}
		})
	}
}

func TestExpeditionViewAggregates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	m, err := f.medicines.Create(ctx, domain.MedicineInput{
		Name:        "Paracetamol",
		Category:    "analgesic",
		Form:        strPtr("tablet"),
		DosageValue: floatPtr(500),
		DosageUnit:  strPtr("mg"),
	})
	if err != nil {
		t.Fatalf("create medicine: %v", err)
	}
	other := f.addMedicine(t, "Zinc")
	f.addEntry(t, m.ID, 20)
	f.addEntry(t, other.ID, 20)

	exp := f.ship(t, "Mandoto",
		domain.LineRequest{MedicineID: m.ID, Quantity: 3},
		domain.LineRequest{MedicineID: other.ID, Quantity: 2},
	)

	view, err := f.expeditions.Get(ctx, exp.ID)
	if err != nil {
		t.Fatalf("get expedition: %v", err)
	}
	if view.TotalMedicines != 2 {
		t.Errorf("total medicines = %d, want 2", view.TotalMedicines)
	}
	if view.TotalItems != 5 {
		t.Errorf("total items = %d, want 5", view.TotalItems)
	}

	var detail *domain.ExpeditionLineDetail
	for i := range view.Details {
		if view.Details[i].MedicineID == m.ID {
			detail = &view.Details[i]
		}
	}
	if detail == nil {
		t.Fatalf("no detail for medicine %d", m.ID)
	}
	if detail.DisplayName != "Paracetamol - tablet 500mg" {
		t.Errorf("display name = %q", detail.DisplayName)
	}
	if detail.DosageDisplay != "500mgs" {
		t.Errorf("dosage display = %q, want %q", detail.DosageDisplay, "500mgs")
	}
	if detail.InventoryUnitDisplay == nil || *detail.InventoryUnitDisplay != "Boxs" {
		t.Errorf("inventory unit display = %v, want Boxs", detail.InventoryUnitDisplay)
	}
}
