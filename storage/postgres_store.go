package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"nycdev-scraper/models"
)

// PostgresStore mirrors the history table into PostgreSQL. The relational
// schema itself plays the role of the header row: ReadAll always reports
// the canonical header, so a reconciliation run never resets this backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema
// migrations, and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS development_records (
			id         SERIAL PRIMARY KEY,
			date       TEXT NOT NULL,
			source     TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			address    TEXT NOT NULL DEFAULT '',
			borough    TEXT NOT NULL DEFAULT '',
			developers TEXT NOT NULL DEFAULT '',
			url        TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_development_records_date   ON development_records(date);
		CREATE INDEX IF NOT EXISTS idx_development_records_source ON development_records(source);
	`)
	return err
}

// ReadAll returns the canonical header followed by all stored rows in
// insertion order.
func (ps *PostgresStore) ReadAll() ([][]string, error) {
	rows, err := ps.db.Query(`
		SELECT date, source, title, address, borough, developers, url
		FROM development_records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: read all: %w", err)
	}
	defer rows.Close()

	table := [][]string{models.Columns}
	for rows.Next() {
		row := make([]string, len(models.Columns))
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		table = append(table, row)
	}
	return table, rows.Err()
}

// WriteHeader is a no-op: the table schema is the header.
func (ps *PostgresStore) WriteHeader(columns []string) error {
	return nil
}

// AppendRows batch-inserts rows after the current last row.
func (ps *PostgresStore) AppendRows(rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := ps.insertBatch(rows[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) insertBatch(batch [][]string) error {
	width := len(models.Columns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*width)

	for idx, row := range batch {
		base := idx * width
		placeholders := make([]string, width)
		for i := 0; i < width; i++ {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
			if i < len(row) {
				valueArgs = append(valueArgs, row[i])
			} else {
				valueArgs = append(valueArgs, "")
			}
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
	}

	query := fmt.Sprintf(`
		INSERT INTO development_records (date, source, title, address, borough, developers, url)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.Exec(query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

// ClearAll deletes every stored row.
func (ps *PostgresStore) ClearAll() error {
	if _, err := ps.db.Exec("DELETE FROM development_records"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
