package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the stock backend.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS medicines (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			form TEXT,
			dosage_value DOUBLE PRECISION,
			dosage_unit TEXT,
			expires_at DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS medicines_identity_idx
			ON medicines (name, category, dosage_value, dosage_unit) NULLS NOT DISTINCT;`,
		`CREATE TABLE IF NOT EXISTS entries (
			id BIGSERIAL PRIMARY KEY,
			medicine_id BIGINT NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			inventory_unit TEXT NOT NULL,
			supplier TEXT,
			entered_at DATE NOT NULL,
			expires_at DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS entries_medicine_idx ON entries (medicine_id);`,
		`CREATE TABLE IF NOT EXISTS expeditions (
			id BIGSERIAL PRIMARY KEY,
			village TEXT NOT NULL,
			zone TEXT NOT NULL CHECK (zone IN ('north', 'south', 'east', 'west')),
			shipped_at DATE NOT NULL,
			duration_days INTEGER NOT NULL CHECK (duration_days >= 1),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS expedition_lines (
			expedition_id BIGINT NOT NULL REFERENCES expeditions(id) ON DELETE CASCADE,
			medicine_id BIGINT NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			PRIMARY KEY (expedition_id, medicine_id)
		);`,
		`CREATE INDEX IF NOT EXISTS expedition_lines_medicine_idx ON expedition_lines (medicine_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
