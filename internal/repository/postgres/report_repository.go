package postgres

import (
	"context"
	"fmt"

	"github.com/nomena/pharmastock/internal/domain"
)

type reportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

// inventoryUnitSubquery picks the medicine's display inventory unit: the most
// recent entry (by entry date, then id) carrying a non-empty one.
const inventoryUnitSubquery = `(
	SELECT e.inventory_unit
	FROM entries e
	WHERE e.medicine_id = m.id AND e.inventory_unit <> ''
	ORDER BY e.entered_at DESC, e.id DESC
	LIMIT 1
)`

func (r *reportRepository) Totals(ctx context.Context) (*domain.DashboardTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM medicines) AS medicines,
			COALESCE((SELECT SUM(quantity) FROM entries), 0) AS total_entered,
			COALESCE((SELECT SUM(quantity) FROM expedition_lines), 0) AS total_shipped,
			0 AS stock
	`

	var totals domain.DashboardTotals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("failed to get dashboard totals: %w", err)
	}

	return &totals, nil
}

func (r *reportRepository) StockPerMedicine(ctx context.Context) ([]domain.MedicineStock, error) {
	query := `
		SELECT
			m.id AS medicine_id,
			m.name,
			m.category,
			m.form,
			m.dosage_value,
			m.dosage_unit,
			` + inventoryUnitSubquery + ` AS inventory_unit,
			COALESCE((SELECT SUM(quantity) FROM entries WHERE medicine_id = m.id), 0) AS total_entries,
			COALESCE((SELECT SUM(quantity) FROM expedition_lines WHERE medicine_id = m.id), 0) AS total_exits,
			COALESCE((SELECT SUM(quantity) FROM entries WHERE medicine_id = m.id), 0)
				- COALESCE((SELECT SUM(quantity) FROM expedition_lines WHERE medicine_id = m.id), 0) AS stock
		FROM medicines m
		ORDER BY m.name, m.id
	`

	var rows []domain.MedicineStock
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get stock per medicine: %w", err)
	}

	return rows, nil
}

// MostUsed ranks medicines by total shipped quantity. Ties at the cutoff
// break on medicine id ascending to keep the ranking deterministic.
func (r *reportRepository) MostUsed(ctx context.Context, limit int) ([]domain.ConsumptionRow, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			l.medicine_id,
			m.name,
			m.form,
			m.dosage_value,
			m.dosage_unit,
			` + inventoryUnitSubquery + ` AS inventory_unit,
			SUM(l.quantity) AS total
		FROM expedition_lines l
		JOIN medicines m ON m.id = l.medicine_id
		GROUP BY l.medicine_id, m.id
		ORDER BY total DESC, l.medicine_id ASC
		LIMIT $1
	`

	var rows []domain.ConsumptionRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get most used medicines: %w", err)
	}

	return rows, nil
}

// VillageUsage counts distinct medicines shipped per village, not total
// units. Ties break on village name ascending.
func (r *reportRepository) VillageUsage(ctx context.Context, limit int) ([]domain.VillageUsage, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			x.village,
			COUNT(DISTINCT l.medicine_id) AS medicine_count
		FROM expedition_lines l
		JOIN expeditions x ON x.id = l.expedition_id
		GROUP BY x.village
		ORDER BY medicine_count DESC, x.village ASC
		LIMIT $1
	`

	var rows []domain.VillageUsage
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get village usage: %w", err)
	}

	return rows, nil
}

// Inventory lists every medicine with its stock and nearest upcoming
// expiration. Medicines with no known expiration sort last; the rest sort
// soonest first.
func (r *reportRepository) Inventory(ctx context.Context) ([]domain.InventoryRow, error) {
	query := `
		SELECT
			m.id AS medicine_id,
			m.name,
			m.category,
			m.form,
			m.dosage_value,
			m.dosage_unit,
			` + inventoryUnitSubquery + ` AS inventory_unit,
			COALESCE((SELECT SUM(quantity) FROM entries WHERE medicine_id = m.id), 0)
				- COALESCE((SELECT SUM(quantity) FROM expedition_lines WHERE medicine_id = m.id), 0) AS stock,
			(SELECT MIN(expires_at) FROM entries WHERE medicine_id = m.id) AS nearest_expiry
		FROM medicines m
		ORDER BY (SELECT MIN(expires_at) FROM entries WHERE medicine_id = m.id) ASC NULLS LAST, m.id
	`

	var rows []domain.InventoryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}

	return rows, nil
}
