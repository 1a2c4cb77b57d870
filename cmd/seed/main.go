package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing seed CSV files",
		Value:   "./data/seeds",
		EnvVars: []string{"SEED_DATA_DIR"},
	}
}

// nullIfEmpty returns NULL if the string is empty, otherwise returns the string
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the database with initial data",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:  "medicines",
				Usage: "Seed the medicine catalog from medicines.csv",
				Flags: []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Action: func(c *cli.Context) error {
					return runSeeder(c, seedMedicines)
				},
			},
			{
				Name:  "entries",
				Usage: "Seed stock entries from entries.csv (medicines must exist)",
				Flags: []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Action: func(c *cli.Context) error {
					return runSeeder(c, seedEntries)
				},
			},
			{
				Name:  "all",
				Usage: "Seed medicines then entries",
				Flags: []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Action: func(c *cli.Context) error {
					return runSeeder(c, func(ctx context.Context, tx *sql.Tx, dataDir string) error {
						if err := seedMedicines(ctx, tx, dataDir); err != nil {
							return err
						}
						return seedEntries(ctx, tx, dataDir)
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSeeder(c *cli.Context, fn func(ctx context.Context, tx *sql.Tx, dataDir string) error) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Defer a rollback in case anything fails.
	defer tx.Rollback()

	log.Println("Starting database seeding...")

	if err := fn(ctx, tx, c.String("data-dir")); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// seedMedicines upserts the catalog from medicines.csv with columns:
// name,category,form,dosage_value,dosage_unit
func seedMedicines(ctx context.Context, tx *sql.Tx, dataDir string) error {
	filePath := filepath.Join(dataDir, "medicines.csv")
	log.Printf("Seeding medicines from %s\n", filePath)

	query := `
        INSERT INTO medicines (name, category, form, dosage_value, dosage_unit)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (name, category, dosage_value, dosage_unit)
        DO UPDATE SET form = EXCLUDED.form, updated_at = CURRENT_TIMESTAMP`

	count := 0
	err := forEachRecord(filePath, func(header, record []string) error {
		dosageValue, err := nullableFloat(field(header, record, "dosage_value"))
		if err != nil {
			return fmt.Errorf("invalid dosage_value %q: %w", field(header, record, "dosage_value"), err)
		}

		_, err = tx.ExecContext(ctx, query,
			field(header, record, "name"),
			field(header, record, "category"),
			nullIfEmpty(field(header, record, "form")),
			dosageValue,
			nullIfEmpty(field(header, record, "dosage_unit")),
		)
		if err != nil {
			return fmt.Errorf("failed to insert medicine: %w", err)
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Successfully seeded %d medicines\n", count)
	return nil
}

// seedEntries inserts stock entries from entries.csv with columns:
// medicine_name,quantity,inventory_unit,supplier,entered_at,expires_at
// Medicines are matched by name; ambiguous names resolve to the lowest id.
func seedEntries(ctx context.Context, tx *sql.Tx, dataDir string) error {
	filePath := filepath.Join(dataDir, "entries.csv")
	log.Printf("Seeding entries from %s\n", filePath)

	query := `
        INSERT INTO entries (medicine_id, quantity, inventory_unit, supplier, entered_at, expires_at)
        SELECT m.id, $2, $3, $4, $5::date, $6::date
        FROM medicines m
        WHERE m.name = $1
        ORDER BY m.id
        LIMIT 1`

	count := 0
	err := forEachRecord(filePath, func(header, record []string) error {
		quantity, err := strconv.Atoi(field(header, record, "quantity"))
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", field(header, record, "quantity"), err)
		}

		res, err := tx.ExecContext(ctx, query,
			field(header, record, "medicine_name"),
			quantity,
			field(header, record, "inventory_unit"),
			nullIfEmpty(field(header, record, "supplier")),
			field(header, record, "entered_at"),
			nullIfEmpty(field(header, record, "expires_at")),
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("no medicine named %q found", field(header, record, "medicine_name"))
		}
		count++
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Successfully seeded %d entries\n", count)
	return nil
}

// forEachRecord streams a CSV file, calling fn for every data record.
func forEachRecord(filePath string, fn func(header, record []string) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if err := fn(header, record); err != nil {
			return err
		}
	}
	return nil
}

// field returns the record value for the named header column, or "" if absent.
func field(header, record []string, name string) string {
	for i, h := range header {
		if h == name && i < len(record) {
			return record[i]
		}
	}
	return ""
}

func nullableFloat(s string) (sql.NullFloat64, error) {
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
