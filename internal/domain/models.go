package domain

import "time"

// Medicine is a catalog entry: a named, dosed, categorized product.
// DosageValue/DosageUnit describe strength (500 mg); the physical packaging
// unit used for counting stock lives on Entry.
type Medicine struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Category    string     `json:"category" db:"category"`
	Form        *string    `json:"form" db:"form"`
	DosageValue *float64   `json:"dosage_value" db:"dosage_value"`
	DosageUnit  *string    `json:"dosage_unit" db:"dosage_unit"`
	ExpiresAt   *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Entry is a stock-in event: a received lot of one medicine.
type Entry struct {
	ID            int64      `json:"id" db:"id"`
	MedicineID    int64      `json:"medicine_id" db:"medicine_id"`
	Supplier      *string    `json:"supplier" db:"supplier"`
	Quantity      int        `json:"quantity" db:"quantity"`
	InventoryUnit string     `json:"inventory_unit" db:"inventory_unit"`
	EnteredAt     time.Time  `json:"entered_at" db:"entered_at"`
	ExpiresAt     *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	Medicine *Medicine `json:"medicine,omitempty" db:"-"`
}

// Expedition is a shipment to a destination village.
type Expedition struct {
	ID           int64     `json:"id" db:"id"`
	Village      string    `json:"village" db:"village"`
	Zone         Zone      `json:"zone" db:"zone"`
	ShippedAt    time.Time `json:"shipped_at" db:"shipped_at"`
	DurationDays int       `json:"duration_days" db:"duration_days"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Lines []ExpeditionLine `json:"lines,omitempty" db:"-"`
}

// ExpeditionLine is one (medicine, quantity) row within an expedition.
// Composite-keyed pivot; at most one line per (expedition, medicine).
type ExpeditionLine struct {
	ExpeditionID int64 `json:"expedition_id" db:"expedition_id"`
	MedicineID   int64 `json:"medicine_id" db:"medicine_id"`
	Quantity     int   `json:"quantity" db:"quantity"`
}

// LineRequest is a requested (medicine, quantity) pair from a submitted form.
// Duplicates for the same medicine are merged by summing before validation.
type LineRequest struct {
	MedicineID int64 `json:"medicine_id"`
	Quantity   int   `json:"quantity"`
}

// ExpeditionInput carries the header and requested lines of a create/update.
type ExpeditionInput struct {
	Village      string        `json:"village"`
	Zone         string        `json:"zone"`
	ShippedAt    time.Time     `json:"shipped_at"`
	DurationDays int           `json:"duration_days"`
	Lines        []LineRequest `json:"lines"`
}

// MedicineInput carries a catalog create/update submission.
type MedicineInput struct {
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Form        *string    `json:"form"`
	DosageValue *float64   `json:"dosage_value"`
	DosageUnit  *string    `json:"dosage_unit"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// EntryInput carries a stock-in create/update submission.
type EntryInput struct {
	MedicineID    int64      `json:"medicine_id"`
	Supplier      *string    `json:"supplier"`
	Quantity      int        `json:"quantity"`
	InventoryUnit string     `json:"inventory_unit"`
	EnteredAt     time.Time  `json:"entered_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
}
