package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// RawSheet is the parsed form of one worksheet: the header row in file
// order plus one column-name -> cell-value map per data row. Rows whose
// cells are all empty are dropped during extraction.
type RawSheet struct {
	Headers []string
	Rows    []map[string]string
}

var (
	ErrEmptySheet    = errors.New("sheet has no data rows")
	ErrSheetNotFound = errors.New("sheet index out of range")
	ErrUnsupported   = errors.New("unsupported file type")
)

// Extract parses an uploaded spreadsheet buffer into a RawSheet. The file
// format is chosen by extension (".xlsx", ".xls" or ".csv", lowercase).
// The first row of the selected sheet defines the column headers; when a
// header name repeats, the later column wins in the row map.
func Extract(buf []byte, ext string, sheetIndex int) (*RawSheet, error) {
	grid, err := readGrid(buf, ext, sheetIndex)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}

	headers := grid[0]
	rows := make([]map[string]string, 0, len(grid)-1)
	for _, raw := range grid[1:] {
		empty := true
		for _, cell := range raw {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		record := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(raw) {
				record[h] = raw[j]
			} else {
				record[h] = ""
			}
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	return &RawSheet{Headers: headers, Rows: rows}, nil
}

func readGrid(buf []byte, ext string, sheetIndex int) ([][]string, error) {
	switch ext {
	case ".csv":
		if sheetIndex != 0 {
			return nil, fmt.Errorf("%w: %d", ErrSheetNotFound, sheetIndex)
		}
		r := csv.NewReader(bytes.NewReader(buf))
		r.FieldsPerRecord = -1
		return r.ReadAll()
	case ".xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if sheetIndex < 0 || sheetIndex >= len(sheets) {
			return nil, fmt.Errorf("%w: %d", ErrSheetNotFound, sheetIndex)
		}
		return f.GetRows(sheets[sheetIndex])
	case ".xls":
		wb, err := xls.OpenReader(bytes.NewReader(buf), "utf-8")
		if err != nil {
			return nil, err
		}
		if sheetIndex < 0 || sheetIndex >= wb.NumSheets() {
			return nil, fmt.Errorf("%w: %d", ErrSheetNotFound, sheetIndex)
		}
		ws := wb.GetSheet(sheetIndex)
		if ws == nil {
			return nil, fmt.Errorf("%w: %d", ErrSheetNotFound, sheetIndex)
		}
		grid := make([][]string, 0, int(ws.MaxRow)+1)
		for i := 0; i <= int(ws.MaxRow); i++ {
			row := ws.Row(i)
			if row == nil {
				grid = append(grid, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for j := row.FirstCol(); j < row.LastCol(); j++ {
				cells[j] = row.Col(j)
			}
			grid = append(grid, cells)
		}
		return grid, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
}

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// dateLayouts covers the formats the ERP exports have been seen to emit.
// Ambiguous all-numeric dates are read day-first regardless of separator;
// the feeds come from European locales.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02-01-2006",
	"02/01/2006",
	"2 Jan 2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
}

// Serial date numbers beyond 9999-12-31 are treated as not-a-date.
const maxSerialDate = 2958465

// Date normalizes a cell value to "YYYY-MM-DD". It accepts an ISO-like
// string (date portion returned unchanged), a spreadsheet serial number,
// or any of the known export layouts. Empty or unparseable input yields
// the empty string; Date never fails.
func Date(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	if isoDatePrefix.MatchString(s) {
		return s[:10]
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || serial > maxSerialDate {
			return ""
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// Number normalizes a numeric cell: thousands separators are stripped and
// the remainder parsed as a float. Unparseable input yields 0 rather than
// an error; batch validation strict-rejects malformed non-empty numerics
// before this lenient value can reach storage.
func Number(v string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// StrictNumber is the validating counterpart of Number: it reports an
// error for non-empty input that does not parse after separator stripping.
func StrictNumber(v string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Text trims a cell value. Empty input yields the empty string.
func Text(v string) string {
	return strings.TrimSpace(v)
}
