package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"transfer-tracking-service/internal/domain"

	"github.com/google/uuid"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InitSchema creates the record table if needed and adds any schema column
// an older table is missing, with an empty default.
func InitSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureTable(ctx, tx, d); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

func ensureTable(ctx context.Context, q queryer, d Dialect) error {
	defs := []string{`"position" INTEGER NOT NULL PRIMARY KEY`}
	for _, c := range domain.Columns() {
		defs = append(defs, fmt.Sprintf("%s TEXT NOT NULL DEFAULT ''", quoteIdent(c.Name)))
	}

	createRecordsQuery := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n);",
		recordsTable, strings.Join(defs, ",\n\t"),
	)
	if _, err := q.ExecContext(ctx, createRecordsQuery); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	return migrateColumns(ctx, q, d)
}

// migrateColumns adds schema columns missing from a table created by an
// earlier version.
func migrateColumns(ctx context.Context, q queryer, d Dialect) error {
	existing, err := tableColumns(ctx, q, d)
	if err != nil {
		return err
	}

	for _, c := range domain.Columns() {
		if existing[c.Name] {
			continue
		}
		stmt := fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT '';",
			recordsTable, quoteIdent(c.Name),
		)
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %q: %w", c.Name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, q queryer, d Dialect) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, d.ColumnsQuery, recordsTable)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list columns: scan row: %w", err)
		}
		out[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list columns: row iteration: %w", err)
	}
	return out, nil
}

type RecordSeed struct {
	ID          string            `json:"id"`
	Date        string            `json:"date"`
	Plate       string            `json:"plate"`
	Recorder    string            `json:"recorder"`
	Checkpoints map[string]string `json:"checkpoints"`
}

// ReadSeed loads demo records from a JSON file.
func ReadSeed(jsonPath string) ([]domain.Record, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed records: read %q: %w", jsonPath, err)
	}

	var data []RecordSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed records: parse json: %w", err)
	}

	records := make([]domain.Record, 0, len(data))
	for i, item := range data {
		plate := strings.TrimSpace(item.Plate)
		if plate == "" {
			return nil, fmt.Errorf("seed records: item at index %d: plate cannot be empty", i+1)
		}

		rec := domain.NewRecord(strings.TrimSpace(item.Date), plate, strings.TrimSpace(item.Recorder))
		rec.ID = strings.TrimSpace(item.ID)
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		for name, v := range item.Checkpoints {
			if !domain.IsCheckpoint(name) {
				return nil, fmt.Errorf("seed records: item at index %d: unknown checkpoint %q", i+1, name)
			}
			rec.Checkpoints[name] = strings.TrimSpace(v)
		}
		records = append(records, domain.WithMetrics(rec))
	}

	return records, nil
}
