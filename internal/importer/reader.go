package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/huangfeng15/taizhang/internal/encoding"
)

// headerScanLimit bounds how deep into a sheet the header row may sit.
// Exports often carry a title row or two above the real header.
const headerScanLimit = 10

// ReadFile loads a spreadsheet into a Table. CSV files go through charset
// detection first, with fallbackEncoding assumed when detection is
// inconclusive; .xlsx files are read from their first sheet.
func ReadFile(path string, def ModuleDefinition, fallbackEncoding string) (Table, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readExcel(path)
	default:
		records, err = readCSV(path, fallbackEncoding)
	}
	if err != nil {
		return Table{}, err
	}
	return buildTable(records, def)
}

func readCSV(path, fallbackEncoding string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if fallbackEncoding == "" {
		fallbackEncoding = encoding.DefaultEncoding
	}
	name := encoding.Detect(raw, fallbackEncoding)
	slog.Info("encoding resolved", "file", path, "encoding", name)
	decoded, err := encoding.DecodeToUTF8(raw, name)
	if err != nil {
		return nil, fmt.Errorf("decode %s as %s: %w", path, name, err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}
	return records, nil
}

func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheets[0], path, err)
	}
	return records, nil
}

// buildTable locates the header row and maps every following record onto the
// header names. Line numbers are 1-based positions in the source file so
// report errors point at what the user sees in their spreadsheet tool.
func buildTable(records [][]string, def ModuleDefinition) (Table, error) {
	headerIdx := findHeaderRow(records, def.HeaderKey)
	if headerIdx < 0 {
		return Table{}, fmt.Errorf("header row not found: no %q column in the first %d rows", def.HeaderKey, headerScanLimit)
	}

	headers := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		headers[i] = CleanCell(h)
	}

	table := Table{Headers: headers}
	for i := headerIdx + 1; i < len(records); i++ {
		cells := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(records[i]) {
				cells[h] = CleanCell(records[i][j])
			} else {
				cells[h] = ""
			}
		}
		table.Rows = append(table.Rows, Row{Line: i + 1, Cells: cells})
	}
	return table, nil
}

func findHeaderRow(records [][]string, key string) int {
	limit := len(records)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		for _, cell := range records[i] {
			if CleanCell(cell) == key {
				return i
			}
		}
	}
	return -1
}
