package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nomena/pharmastock/internal/domain"
)

type expeditionRepository struct {
	db *DB
}

func NewExpeditionRepository(db *DB) *expeditionRepository {
	return &expeditionRepository{db: db}
}

func (r *expeditionRepository) List(ctx context.Context) ([]domain.Expedition, error) {
	query := `
		SELECT id, village, zone, shipped_at, duration_days, created_at, updated_at
		FROM expeditions
		ORDER BY shipped_at DESC, id DESC
	`

	var expeditions []domain.Expedition
	if err := r.db.SelectContext(ctx, &expeditions, query); err != nil {
		return nil, fmt.Errorf("failed to list expeditions: %w", err)
	}

	if err := r.attachLines(ctx, expeditions); err != nil {
		return nil, err
	}

	return expeditions, nil
}

func (r *expeditionRepository) Get(ctx context.Context, id int64) (*domain.Expedition, error) {
	query := `
		SELECT id, village, zone, shipped_at, duration_days, created_at, updated_at
		FROM expeditions
		WHERE id = $1
	`

	var exp domain.Expedition
	if err := r.db.GetContext(ctx, &exp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get expedition: %w", err)
	}

	expeditions := []domain.Expedition{exp}
	if err := r.attachLines(ctx, expeditions); err != nil {
		return nil, err
	}

	return &expeditions[0], nil
}

// Create writes the header and every line in one transaction. Availability
// is re-checked against the locked medicine rows inside the transaction, so
// two submissions racing for the same stock cannot both commit.
func (r *expeditionRepository) Create(ctx context.Context, exp *domain.Expedition, lines []domain.ExpeditionLine) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO expeditions (village, zone, shipped_at, duration_days, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING id, created_at, updated_at
		`

		err := tx.QueryRowContext(ctx, query, exp.Village, exp.Zone, exp.ShippedAt, exp.DurationDays).
			Scan(&exp.ID, &exp.CreatedAt, &exp.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert expedition: %w", err)
		}

		if err := r.recheckAvailability(ctx, tx, lines); err != nil {
			return err
		}

		return r.insertLines(ctx, tx, exp.ID, lines)
	})
}

// Update rewrites the header and replaces the full line set atomically. The
// old lines are deleted before the availability re-check, which is what
// makes an edit keeping the same reservation pass at zero free stock.
func (r *expeditionRepository) Update(ctx context.Context, exp *domain.Expedition, lines []domain.ExpeditionLine) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE expeditions
			SET village = $1, zone = $2, shipped_at = $3, duration_days = $4, updated_at = NOW()
			WHERE id = $5
			RETURNING created_at, updated_at
		`

		err := tx.QueryRowContext(ctx, query, exp.Village, exp.Zone, exp.ShippedAt, exp.DurationDays, exp.ID).
			Scan(&exp.CreatedAt, &exp.UpdatedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("failed to update expedition: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM expedition_lines WHERE expedition_id = $1`, exp.ID); err != nil {
			return fmt.Errorf("failed to clear expedition lines: %w", err)
		}

		if err := r.recheckAvailability(ctx, tx, lines); err != nil {
			return err
		}

		return r.insertLines(ctx, tx, exp.ID, lines)
	})
}

func (r *expeditionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expeditions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expedition: %w", err)
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

func (r *expeditionRepository) CurrentLines(ctx context.Context, expeditionID int64) ([]domain.ExpeditionLine, error) {
	query := `
		SELECT expedition_id, medicine_id, quantity
		FROM expedition_lines
		WHERE expedition_id = $1
		ORDER BY medicine_id
	`

	var lines []domain.ExpeditionLine
	if err := r.db.SelectContext(ctx, &lines, query, expeditionID); err != nil {
		return nil, fmt.Errorf("failed to get expedition lines: %w", err)
	}

	return lines, nil
}

func (r *expeditionRepository) SumForMedicine(ctx context.Context, medicineID int64) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(quantity), 0) FROM expedition_lines WHERE medicine_id = $1`, medicineID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum expedition lines: %w", err)
	}
	return total, nil
}

// recheckAvailability locks the requested medicines in id order and
// recomputes their free stock inside the caller's transaction. Lines the
// current transaction already deleted are not counted, so an edit sees its
// own reservation as headroom. Every shortfall is collected before
// returning so the caller gets the complete list.
func (r *expeditionRepository) recheckAvailability(ctx context.Context, tx *sql.Tx, lines []domain.ExpeditionLine) error {
	if len(lines) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MedicineID)
	}

	lockQuery := `
		SELECT id, name,
			COALESCE((SELECT SUM(quantity) FROM entries WHERE medicine_id = m.id), 0)
			- COALESCE((SELECT SUM(quantity) FROM expedition_lines WHERE medicine_id = m.id), 0) AS stock
		FROM medicines m
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE OF m
	`

	rows, err := tx.QueryContext(ctx, lockQuery, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to lock medicines: %w", err)
	}
	defer rows.Close()

	type lockedStock struct {
		name  string
		stock int
	}
	locked := make(map[int64]lockedStock, len(ids))
	for rows.Next() {
		var id int64
		var ls lockedStock
		if err := rows.Scan(&id, &ls.name, &ls.stock); err != nil {
			return fmt.Errorf("failed to scan locked medicine: %w", err)
		}
		locked[id] = ls
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read locked medicines: %w", err)
	}

	var failures []domain.StockFailure
	for _, l := range lines {
		ls, ok := locked[l.MedicineID]
		if !ok {
			failures = append(failures, domain.StockFailure{MedicineID: l.MedicineID, NotFound: true})
			continue
		}

		available := ls.stock
		if available < 0 {
			available = 0
		}
		if l.Quantity > available {
			failures = append(failures, domain.StockFailure{
				MedicineID:   l.MedicineID,
				MedicineName: ls.name,
				Requested:    l.Quantity,
				Available:    available,
			})
		}
	}

	if len(failures) > 0 {
		return &domain.StockError{Failures: failures}
	}

	return nil
}

func (r *expeditionRepository) insertLines(ctx context.Context, tx *sql.Tx, expeditionID int64, lines []domain.ExpeditionLine) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expedition_lines (expedition_id, medicine_id, quantity)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare line insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range lines {
		if _, err := stmt.ExecContext(ctx, expeditionID, l.MedicineID, l.Quantity); err != nil {
			return fmt.Errorf("failed to insert expedition line: %w", err)
		}
	}

	return nil
}

func (r *expeditionRepository) attachLines(ctx context.Context, expeditions []domain.Expedition) error {
	if len(expeditions) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(expeditions))
	for _, exp := range expeditions {
		ids = append(ids, exp.ID)
	}

	query := `
		SELECT expedition_id, medicine_id, quantity
		FROM expedition_lines
		WHERE expedition_id = ANY($1)
		ORDER BY expedition_id, medicine_id
	`

	var lines []domain.ExpeditionLine
	if err := r.db.SelectContext(ctx, &lines, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load expedition lines: %w", err)
	}

	byExpedition := make(map[int64][]domain.ExpeditionLine, len(expeditions))
	for _, l := range lines {
		byExpedition[l.ExpeditionID] = append(byExpedition[l.ExpeditionID], l)
	}

	for i := range expeditions {
		expeditions[i].Lines = byExpedition[expeditions[i].ID]
	}

	return nil
}
