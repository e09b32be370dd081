/*
Package workbook reads collection spreadsheets into raw ledger rows.

PURPOSE:
  This is the Workbook Source of the engine: it turns an uploaded .xlsx or
  .csv file into the header-to-cell maps that ledger.Ingest consumes. It
  does no normalization of its own; the ledger decides what a cell means.

XLSX CELLS:
  Number cells are passed on as float64 holding the stored value, never the
  displayed text: a "#,##0" format shows 10500 as "10,500", which the
  ledger would read as ten. Every other cell is passed on as its text.

HEADER ROW:
  The first row with any non-blank cell is the header. Blank header cells
  and repeated headers are ignored after their first occurrence. Rows with
  no non-blank cell are skipped.

CSV EXPORTS:
  Spreadsheet programs export CSV with either ";" or "," depending on the
  locale, and older ones in Windows-1252 rather than UTF-8. The delimiter
  is sniffed from the header line and invalid UTF-8 is decoded as
  Windows-1252.

SEE ALSO:
  - ledger/ingest.go: Consumes the rows
  - export.go: Writes a roster back to .xlsx
*/
package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/warp/cuota-ledger/ledger"
)

// Format is a supported file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf returns the format implied by a file name.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ledger.ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Read parses the file named name from r.
func Read(r io.Reader, name string) ([]ledger.RawRow, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var rows []ledger.RawRow
	switch format {
	case FormatXLSX:
		rows, err = ReadXLSX(r, "")
	default:
		rows, err = ReadCSV(r)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("workbook read", "file", name, "format", format, "rows", len(rows))
	return rows, nil
}

// =============================================================================
// XLSX
// =============================================================================

// ReadXLSX reads the named sheet, or the first sheet when sheet is empty.
func ReadXLSX(r io.Reader, sheet string) ([]ledger.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return []ledger.RawRow{}, nil
		}
		sheet = sheets[0]
	}

	table, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return tableToRows(table, func(row, col int, text string) any {
		return xlsxCell(f, sheet, row, col, text)
	}), nil
}

// xlsxCell returns the stored number of a numeric cell as float64 and the
// text of any other cell. row and col are 0-based.
func xlsxCell(f *excelize.File, sheet string, row, col int, text string) any {
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return text
	}
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return text
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return text
	}
	// Numbers written without a type attribute report CellTypeUnset.
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return n
	default:
		return text
	}
}

// =============================================================================
// CSV
// =============================================================================

// ReadCSV reads a delimited export.
func ReadCSV(r io.Reader) ([]ledger.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return tableToRows(table, nil), nil
}

// sniffDelimiter picks the most frequent candidate in the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', 0
	for _, c := range []rune{';', ',', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// =============================================================================
// TABLE TO ROWS
// =============================================================================

// tableToRows keys every row after the header by header text. cell converts
// the text at table[row][col]; nil keeps the text.
func tableToRows(table [][]string, cell func(row, col int, text string) any) []ledger.RawRow {
	rows := []ledger.RawRow{}

	start := -1
	for i, cells := range table {
		if !blank(cells) {
			start = i
			break
		}
	}
	if start < 0 {
		return rows
	}

	header := make([]string, len(table[start]))
	seen := make(map[string]bool, len(header))
	for i, h := range table[start] {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		header[i] = h
	}

	for j := start + 1; j < len(table); j++ {
		cells := table[j]
		if blank(cells) {
			continue
		}
		row := make(ledger.RawRow, len(header))
		for i, h := range header {
			switch {
			case h == "":
				continue
			case i >= len(cells) || strings.TrimSpace(cells[i]) == "":
				row[h] = nil
			case cell != nil:
				row[h] = cell(j, i, cells[i])
			default:
				row[h] = cells[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
