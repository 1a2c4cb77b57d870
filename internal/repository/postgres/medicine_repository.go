package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nomena/pharmastock/internal/domain"
)

const uniqueViolation = "23505"

type medicineRepository struct {
	db *DB
}

func NewMedicineRepository(db *DB) *medicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) List(ctx context.Context) ([]domain.Medicine, error) {
	query := `
		SELECT id, name, category, form, dosage_value, dosage_unit, expires_at, created_at, updated_at
		FROM medicines
		ORDER BY name, id
	`

	var medicines []domain.Medicine
	if err := r.db.SelectContext(ctx, &medicines, query); err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}

	return medicines, nil
}

func (r *medicineRepository) Get(ctx context.Context, id int64) (*domain.Medicine, error) {
	query := `
		SELECT id, name, category, form, dosage_value, dosage_unit, expires_at, created_at, updated_at
		FROM medicines
		WHERE id = $1
	`

	var m domain.Medicine
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}

	return &m, nil
}

// duplicateExists detects another catalog row describing the same product and
// strength. NULL dosage fields compare as equal here, so two rows for
// "Paracetamol / analgesic" with no dosage still count as duplicates.
func (r *medicineRepository) duplicateExists(ctx context.Context, input domain.MedicineInput, excludeID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM medicines
			WHERE name = $1
			  AND category = $2
			  AND dosage_value IS NOT DISTINCT FROM $3
			  AND dosage_unit IS NOT DISTINCT FROM $4
			  AND id <> $5
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, input.Name, input.Category, input.DosageValue, input.DosageUnit, excludeID); err != nil {
		return false, fmt.Errorf("failed to check catalog uniqueness: %w", err)
	}
	return exists, nil
}

func (r *medicineRepository) Create(ctx context.Context, input domain.MedicineInput) (*domain.Medicine, error) {
	if dup, err := r.duplicateExists(ctx, input, 0); err != nil {
		return nil, err
	} else if dup {
		return nil, domain.ErrDuplicate
	}

	query := `
		INSERT INTO medicines (name, category, form, dosage_value, dosage_unit, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, name, category, form, dosage_value, dosage_unit, expires_at, created_at, updated_at
	`

	var m domain.Medicine
	err := r.db.GetContext(ctx, &m, query,
		input.Name, input.Category, input.Form, input.DosageValue, input.DosageUnit, input.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}

	return &m, nil
}

func (r *medicineRepository) Update(ctx context.Context, id int64, input domain.MedicineInput) (*domain.Medicine, error) {
	if dup, err := r.duplicateExists(ctx, input, id); err != nil {
		return nil, err
	} else if dup {
		return nil, domain.ErrDuplicate
	}

	query := `
		UPDATE medicines
		SET name = $1, category = $2, form = $3, dosage_value = $4, dosage_unit = $5, expires_at = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING id, name, category, form, dosage_value, dosage_unit, expires_at, created_at, updated_at
	`

	var m domain.Medicine
	err := r.db.GetContext(ctx, &m, query,
		input.Name, input.Category, input.Form, input.DosageValue, input.DosageUnit, input.ExpiresAt, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}

	return &m, nil
}

// Delete removes a catalog row. Dependent entries and expedition lines go
// with it via the foreign key cascade.
func (r *medicineRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
