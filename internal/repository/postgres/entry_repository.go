package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nomena/pharmastock/internal/domain"
)

type entryRepository struct {
	db *DB
}

func NewEntryRepository(db *DB) *entryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) List(ctx context.Context) ([]domain.Entry, error) {
	query := `
		SELECT id, medicine_id, supplier, quantity, inventory_unit, entered_at, expires_at, created_at, updated_at
		FROM entries
		ORDER BY entered_at DESC, id DESC
	`

	var entries []domain.Entry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	if err := r.attachMedicines(ctx, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *entryRepository) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	query := `
		SELECT id, medicine_id, supplier, quantity, inventory_unit, entered_at, expires_at, created_at, updated_at
		FROM entries
		WHERE id = $1
	`

	var e domain.Entry
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	entries := []domain.Entry{e}
	if err := r.attachMedicines(ctx, entries); err != nil {
		return nil, err
	}

	return &entries[0], nil
}

func (r *entryRepository) Create(ctx context.Context, input domain.EntryInput) (*domain.Entry, error) {
	query := `
		INSERT INTO entries (medicine_id, supplier, quantity, inventory_unit, entered_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, medicine_id, supplier, quantity, inventory_unit, entered_at, expires_at, created_at, updated_at
	`

	var e domain.Entry
	err := r.db.GetContext(ctx, &e, query,
		input.MedicineID, input.Supplier, input.Quantity, input.InventoryUnit, input.EnteredAt, input.ExpiresAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	return &e, nil
}

func (r *entryRepository) Update(ctx context.Context, id int64, input domain.EntryInput) (*domain.Entry, error) {
	query := `
		UPDATE entries
		SET medicine_id = $1, supplier = $2, quantity = $3, inventory_unit = $4, entered_at = $5, expires_at = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING id, medicine_id, supplier, quantity, inventory_unit, entered_at, expires_at, created_at, updated_at
	`

	var e domain.Entry
	err := r.db.GetContext(ctx, &e, query,
		input.MedicineID, input.Supplier, input.Quantity, input.InventoryUnit, input.EnteredAt, input.ExpiresAt, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	return &e, nil
}

func (r *entryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *entryRepository) SumForMedicine(ctx context.Context, medicineID int64) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(quantity), 0) FROM entries WHERE medicine_id = $1`, medicineID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum entries: %w", err)
	}
	return total, nil
}

func (r *entryRepository) LatestInventoryUnit(ctx context.Context, medicineID int64) (*string, error) {
	query := `
		SELECT inventory_unit
		FROM entries
		WHERE medicine_id = $1 AND inventory_unit <> ''
		ORDER BY entered_at DESC, id DESC
		LIMIT 1
	`

	var unit string
	if err := r.db.GetContext(ctx, &unit, query, medicineID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get inventory unit: %w", err)
	}

	return &unit, nil
}

// attachMedicines resolves the referenced catalog rows in one query instead
// of one lookup per entry.
func (r *entryRepository) attachMedicines(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.MedicineID]; ok {
			continue
		}
		seen[e.MedicineID] = struct{}{}
		ids = append(ids, e.MedicineID)
	}

	query := `
		SELECT id, name, category, form, dosage_value, dosage_unit, expires_at, created_at, updated_at
		FROM medicines
		WHERE id = ANY($1)
	`

	var medicines []domain.Medicine
	if err := r.db.SelectContext(ctx, &medicines, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load entry medicines: %w", err)
	}

	byID := make(map[int64]*domain.Medicine, len(medicines))
	for i := range medicines {
		byID[medicines[i].ID] = &medicines[i]
	}

	for i := range entries {
		entries[i].Medicine = byID[entries[i].MedicineID]
	}

	return nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
