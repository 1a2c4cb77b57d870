package domain

import "time"

// DashboardTotals are the headline counters of the dashboard. Stock is the
// sum of per-medicine stock clamped at zero; over-shipped medicines do not
// reduce the total.
type DashboardTotals struct {
	Medicines    int `json:"medicines" db:"medicines"`
	TotalEntered int `json:"total_entered" db:"total_entered"`
	TotalShipped int `json:"total_shipped" db:"total_shipped"`
	Stock        int `json:"stock" db:"stock"`
}

// MedicineStock is one row of the per-medicine stock table. Stock may be
// negative when a medicine was over-shipped; the raw value stays inspectable.
type MedicineStock struct {
	MedicineID    int64    `json:"medicine_id" db:"medicine_id"`
	Name          string   `json:"name" db:"name"`
	Category      string   `json:"category" db:"category"`
	Form          *string  `json:"form" db:"form"`
	DosageValue   *float64 `json:"dosage_value" db:"dosage_value"`
	DosageUnit    *string  `json:"dosage_unit" db:"dosage_unit"`
	InventoryUnit *string  `json:"inventory_unit" db:"inventory_unit"`
	Stock         int      `json:"stock" db:"stock"`
	TotalEntries  int      `json:"total_entries" db:"total_entries"`
	TotalExits    int      `json:"total_exits" db:"total_exits"`
}

// ConsumptionRow is one row of the top-N most-consumed ranking.
type ConsumptionRow struct {
	MedicineID    int64    `json:"medicine_id" db:"medicine_id"`
	Name          string   `json:"name" db:"name"`
	Form          *string  `json:"form" db:"form"`
	DosageValue   *float64 `json:"dosage_value" db:"dosage_value"`
	DosageUnit    *string  `json:"dosage_unit" db:"dosage_unit"`
	InventoryUnit *string  `json:"inventory_unit" db:"inventory_unit"`
	Total         int      `json:"total" db:"total"`
}

// VillageUsage counts distinct medicines shipped to a village, not units.
type VillageUsage struct {
	Village       string `json:"village" db:"village"`
	MedicineCount int    `json:"medicine_count" db:"medicine_count"`
}

// InventoryRow is one row of the full inventory listing. NearestExpiry is
// the minimum upcoming expiration over the medicine's entries; nil when no
// entry carries one.
type InventoryRow struct {
	MedicineID    int64      `json:"medicine_id" db:"medicine_id"`
	Name          string     `json:"name" db:"name"`
	Category      string     `json:"category" db:"category"`
	Form          *string    `json:"form" db:"form"`
	DosageValue   *float64   `json:"dosage_value" db:"dosage_value"`
	DosageUnit    *string    `json:"dosage_unit" db:"dosage_unit"`
	InventoryUnit *string    `json:"inventory_unit" db:"inventory_unit"`
	Stock         int        `json:"stock" db:"stock"`
	NearestExpiry *time.Time `json:"nearest_expiry" db:"nearest_expiry"`
}

// Dashboard bundles every projection the dashboard page renders.
type Dashboard struct {
	Totals           DashboardTotals `json:"totals"`
	StockPerMedicine []MedicineStock `json:"stock_per_medicine"`
	MostUsed         []ConsumptionRow `json:"most_used"`
	VillageUsage     []VillageUsage  `json:"village_usage"`
	Inventory        []InventoryRow  `json:"inventory"`
}
