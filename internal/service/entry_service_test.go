package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nomena/pharmastock/internal/domain"
)

func TestCreateEntryValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	m := f.addMedicine(t, "Paracetamol")

	valid := domain.EntryInput{
		MedicineID:    m.ID,
		Quantity:      10,
		InventoryUnit: "Box",
		EnteredAt:     date(2026, time.January, 5),
	}

	tests := []struct {
		name   string
		mutate func(*domain.EntryInput)
		field  string
	}{
		{"missing medicine", func(in *domain.EntryInput) { in.MedicineID = 0 }, "medicine_id"},
		{"unknown medicine", func(in *domain.EntryInput) { in.MedicineID = 999 }, "medicine_id"},
		{"zero quantity", func(in *domain.EntryInput) { in.Quantity = 0 }, "quantity"},
		{"missing unit", func(in *domain.EntryInput) { in.InventoryUnit = "" }, "inventory_unit"},
		{"unit too long", func(in *domain.EntryInput) { in.InventoryUnit = strings.Repeat("x", 51) }, "inventory_unit"},
		{"supplier too long", func(in *domain.EntryInput) { in.Supplier = strPtr(strings.Repeat("x", 201)) }, "supplier"},
		{"missing date", func(in *domain.EntryInput) { in.EnteredAt = time.Time{} }, "entered_at"},
		{
			"expires before entry",
			func(in *domain.EntryInput) { in.ExpiresAt = timePtr(date(2026, time.January, 1)) },
			"expires_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)

			_, err := f.entries.Create(ctx, input)
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

func TestCreateEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	m := f.addMedicine(t, "Amoxicillin")

	e, err := f.entries.Create(ctx, domain.EntryInput{
		MedicineID:    m.ID,
		Supplier:      strPtr("PSI"),
		Quantity:      30,
		InventoryUnit: "Blister",
		EnteredAt:     date(2026, time.January, 5),
		ExpiresAt:     timePtr(date(2027, time.January, 5)),
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if e.ID == 0 {
		t.Error("entry id not assigned")
	}

	got, err := f.entries.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.Quantity != 30 || got.InventoryUnit != "Blister" {
		t.Errorf("entry = %+v", got)
	}
	if got.Supplier == nil || *got.Supplier != "PSI" {
		t.Errorf("supplier = %v, want PSI", got.Supplier)
	}
}

func TestEntryExpiryOnSameDayAccepted(t *testing.T) {
	f := newFixture()
	m := f.addMedicine(t, "ORS")

	day := date(2026, time.January, 5)
	if _, err := f.entries.Create(context.Background(), domain.EntryInput{
		MedicineID:    m.ID,
		Quantity:      1,
		InventoryUnit: "Sachet",
		EnteredAt:     day,
		ExpiresAt:     &day,
	}); err != nil {
		t.Errorf("same-day expiry rejected: %v", err)
	}
}
