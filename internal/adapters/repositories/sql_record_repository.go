package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"transfer-tracking-service/internal/domain"
	"transfer-tracking-service/internal/platform/obs"
)

// SQL-backed implementation of the RecordRepository port.
// One row per record; "position" keeps insertion order.
type SQLRecordRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSqliteRecordRepository(db *sql.DB) *SQLRecordRepository {
	return &SQLRecordRepository{DB: db, Dialect: SqliteDialect}
}

func NewPostgresRecordRepository(db *sql.DB) *SQLRecordRepository {
	return &SQLRecordRepository{DB: db, Dialect: PostgresDialect}
}

func (s *SQLRecordRepository) Exists(ctx context.Context) (bool, error) {
	if s.DB == nil {
		return false, errors.New("sql record repository: DB is nil")
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, s.Dialect.TableExistsQuery, recordsTable).Scan(&n); err != nil {
		return false, fmt.Errorf("record table exists: %w", err)
	}
	return n > 0, nil
}

// Return all records in insertion order. Only columns present in the table
// are selected; schema fields it lacks stay empty.
func (s *SQLRecordRepository) LoadAll(ctx context.Context) (_ []domain.Record, err error) {
	defer obs.Time(ctx, s.Dialect.Name+".LoadAll")(&err)

	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if !exists {
		return []domain.Record{}, nil
	}

	present, err := tableColumns(ctx, s.DB, s.Dialect)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	names := make([]string, 0, len(present))
	quoted := make([]string, 0, len(present))
	for _, c := range domain.Columns() {
		if present[c.Name] {
			names = append(names, c.Name)
			quoted = append(quoted, quoteIdent(c.Name))
		}
	}
	if len(names) == 0 {
		return []domain.Record{}, nil
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY "position";`,
		strings.Join(quoted, ", "), recordsTable,
	)
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load records: query %s table: %w", recordsTable, err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0, 64)
	for rows.Next() {
		values := make([]sql.NullString, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("load records: scan row: %w", err)
		}

		rec := domain.NewRecord("", "", "")
		for i, name := range names {
			rec.SetField(name, values[i].String)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load records: row iteration: %w", err)
	}

	return records, nil
}

// Replace the table contents in a single transaction.
func (s *SQLRecordRepository) RewriteAll(ctx context.Context, records []domain.Record) (err error) {
	defer obs.Time(ctx, s.Dialect.Name+".RewriteAll")(&err)

	if s.DB == nil {
		return errors.New("sql record repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rewrite records: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := ensureTable(ctx, tx, s.Dialect); err != nil {
		return fmt.Errorf("rewrite records: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+recordsTable+";"); err != nil {
		return fmt.Errorf("rewrite records: clear table: %w", err)
	}

	cols := domain.Columns()
	quoted := make([]string, 0, 1+len(cols))
	quoted = append(quoted, `"position"`)
	for _, c := range cols {
		quoted = append(quoted, quoteIdent(c.Name))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s);",
		recordsTable, strings.Join(quoted, ", "), s.Dialect.placeholders(1, len(quoted)),
	)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("rewrite records: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		args := make([]any, 0, len(quoted))
		args = append(args, i)
		for _, c := range cols {
			args = append(args, r.Field(c.Name))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("rewrite records: insert position=%d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rewrite records: commit tx: %w", err)
	}

	return nil
}
