package objectstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"reviewit/internal/domain"
)

var departmentHeaders = []string{"department", "department_name", "dept"}

// DecodeCSV reads a header row and maps every following record onto it.
// Short records are padded; blank records are dropped.
func DecodeCSV(r io.Reader) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}
	return toRows(header, records), nil
}

// DecodeXLSX reads the first sheet of a workbook the same way as DecodeCSV.
func DecodeXLSX(r io.Reader) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return toRows(rows[0], rows[1:]), nil
}

func toRows(header []string, records [][]string) []domain.RawRow {
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = h
	}

	out := make([]domain.RawRow, 0, len(records))
	for _, rec := range records {
		row := domain.RawRow{}
		for i, col := range cols {
			if col == "" || i >= len(rec) {
				continue
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				row[col] = v
			}
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

// FilterDepartment keeps the rows whose department column equals name.
func FilterDepartment(rows []domain.RawRow, name string) []domain.RawRow {
	out := rows[:0:0]
	for _, row := range rows {
		for _, h := range departmentHeaders {
			if v, ok := row[h].(string); ok && v == name {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func decodeByExt(ext string, body []byte) ([]domain.RawRow, error) {
	switch ext {
	case ".csv":
		return DecodeCSV(bytes.NewReader(body))
	case ".xlsx":
		return DecodeXLSX(bytes.NewReader(body))
	}
	return nil, fmt.Errorf("unsupported source format %q", ext)
}
