// Package spreadsheet converts record tables to and from the single-sheet
// workbook layout operators open in a spreadsheet application.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"transfer-tracking-service/internal/domain"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used by the operators' existing workbook.
const DefaultSheet = "Basae"

const defaultNewSheet = "Sheet1"

// Encode writes records as a workbook with a header row of column labels.
func Encode(records []domain.Record, sheet string) (_ []byte, err error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("encode workbook: close: %w", cerr)
		}
	}()

	if err := f.SetSheetName(defaultNewSheet, sheet); err != nil {
		return nil, fmt.Errorf("encode workbook: name sheet %q: %w", sheet, err)
	}

	cols := domain.Columns()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("encode workbook: header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("encode workbook: row %d: %w", i+1, err)
		}
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = r.Field(c.Name)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("encode workbook: row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: write: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Decode reads records from a workbook.
//
// Columns are matched by label or machine name. Columns the sheet does not
// have are left empty; unknown columns are ignored. Blank rows are skipped.
func Decode(r io.Reader, sheet string) (_ []domain.Record, err error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("decode workbook: open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("decode workbook: close: %w", cerr)
		}
	}()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("decode workbook: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []domain.Record{}, nil
	}

	index := columnIndex(rows[0])
	if len(index) == 0 {
		return nil, errors.New("decode workbook: header row has no known columns")
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := domain.NewRecord("", "", "")
		for name, pos := range index {
			if pos < len(row) {
				rec.SetField(name, strings.TrimSpace(row[pos]))
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// columnIndex maps schema column names to their position in header.
func columnIndex(header []string) map[string]int {
	byKey := make(map[string]string)
	for _, c := range domain.Columns() {
		byKey[key(c.Label)] = c.Name
		byKey[key(c.Name)] = c.Name
	}

	out := make(map[string]int, len(header))
	for i, h := range header {
		name, ok := byKey[key(h)]
		if !ok {
			continue
		}
		if _, dup := out[name]; !dup {
			out[name] = i
		}
	}
	return out
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
