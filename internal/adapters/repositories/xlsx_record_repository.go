package repositories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"transfer-tracking-service/internal/adapters/spreadsheet"
	"transfer-tracking-service/internal/domain"
	"transfer-tracking-service/internal/platform/obs"
)

// Workbook file implementation of the RecordRepository port.
//
// Every rewrite produces a new file that replaces the old one by rename, so
// readers never see a half-written workbook.
type XlsxRecordRepository struct {
	Path  string
	Sheet string
}

func NewXlsxRecordRepository(path, sheet string) *XlsxRecordRepository {
	if sheet == "" {
		sheet = spreadsheet.DefaultSheet
	}
	return &XlsxRecordRepository{Path: path, Sheet: sheet}
}

func (x *XlsxRecordRepository) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(x.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("workbook exists: stat %q: %w", x.Path, err)
	}
	return true, nil
}

func (x *XlsxRecordRepository) LoadAll(ctx context.Context) (_ []domain.Record, err error) {
	defer obs.Time(ctx, "xlsx.LoadAll")(&err)

	raw, err := os.ReadFile(x.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load workbook: read %q: %w", x.Path, err)
	}

	records, err := spreadsheet.Decode(bytes.NewReader(raw), x.Sheet)
	if err != nil {
		return nil, fmt.Errorf("load workbook %q: %w", x.Path, err)
	}
	return records, nil
}

func (x *XlsxRecordRepository) RewriteAll(ctx context.Context, records []domain.Record) (err error) {
	defer obs.Time(ctx, "xlsx.RewriteAll")(&err)

	raw, err := spreadsheet.Encode(records, x.Sheet)
	if err != nil {
		return fmt.Errorf("rewrite workbook: %w", err)
	}

	dir := filepath.Dir(x.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rewrite workbook: create dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".records-*.xlsx")
	if err != nil {
		return fmt.Errorf("rewrite workbook: create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("rewrite workbook: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("rewrite workbook: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), x.Path); err != nil {
		return fmt.Errorf("rewrite workbook: replace %q: %w", x.Path, err)
	}
	return nil
}
