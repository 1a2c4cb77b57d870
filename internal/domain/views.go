package domain

import "time"

// MedicineOption is a catalog row shaped for form selectors, including the
// combined display label ("Paracetamol - tablet 500mg").
type MedicineOption struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Form        *string  `json:"form"`
	DosageValue *float64 `json:"dosage_value"`
	DosageUnit  *string  `json:"dosage_unit"`
	DisplayName string   `json:"display_name"`
}

// ExpeditionLineDetail is one shipped medicine formatted for display:
// quantities, the pluralized inventory unit, and the dosage rendered for
// the shipped amount.
type ExpeditionLineDetail struct {
	MedicineID           int64    `json:"medicine_id"`
	Name                 string   `json:"name"`
	DisplayName          string   `json:"display_name"`
	Category             string   `json:"category"`
	Form                 *string  `json:"form"`
	DosageValue          *float64 `json:"dosage_value"`
	DosageUnit           *string  `json:"dosage_unit"`
	DosageDisplay        string   `json:"dosage_display"`
	InventoryUnit        *string  `json:"inventory_unit"`
	InventoryUnitDisplay *string  `json:"inventory_unit_display"`
	Quantity             int      `json:"quantity"`
}

// ExpeditionView is a shipment with its formatted line details and totals.
// TotalItems sums shipped units; TotalMedicines counts distinct lines.
type ExpeditionView struct {
	ID             int64                  `json:"id"`
	Village        string                 `json:"village"`
	Zone           Zone                   `json:"zone"`
	ShippedAt      time.Time              `json:"shipped_at"`
	DurationDays   int                    `json:"duration_days"`
	TotalMedicines int                    `json:"total_medicines"`
	TotalItems     int                    `json:"total_items"`
	Details        []ExpeditionLineDetail `json:"details"`
}
