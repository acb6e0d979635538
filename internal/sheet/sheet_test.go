package sheet

import (
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestExtractXLSX(t *testing.T) {
	buf := buildXLSX(t, [][]interface{}{
		{"Purchase order No.", "Order value"},
		{"PO-1001", "10000"},
		{"", ""},
		{"PO-1002", "2500"},
	})

	got, err := Extract(buf, ".xlsx", 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got.Headers) != 2 || got.Headers[0] != "Purchase order No." {
		t.Fatalf("unexpected headers: %v", got.Headers)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 data rows after dropping the blank one, got %d", len(got.Rows))
	}
	if got.Rows[1]["Purchase order No."] != "PO-1002" {
		t.Errorf("row 2 PO number = %q", got.Rows[1]["Purchase order No."])
	}
}

func TestExtractCSV(t *testing.T) {
	csv := "Purchase order No.,Status\nPO-1,open\nPO-2,closed\n"
	got, err := Extract([]byte(csv), ".csv", 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Rows[0]["Status"] != "open" {
		t.Errorf("row 1 status = %q", got.Rows[0]["Status"])
	}
}

func TestExtractDuplicateHeaderLaterWins(t *testing.T) {
	csv := "Vendor ID,Name,Vendor ID\nold,Alice,new\n"
	got, err := Extract([]byte(csv), ".csv", 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Rows[0]["Vendor ID"] != "new" {
		t.Errorf("duplicate header: got %q, want later column value", got.Rows[0]["Vendor ID"])
	}
}

func TestExtractEmptySheet(t *testing.T) {
	if _, err := Extract([]byte("Purchase order No.,Status\n"), ".csv", 0); !errors.Is(err, ErrEmptySheet) {
		t.Errorf("header-only file: got %v, want ErrEmptySheet", err)
	}
	if _, err := Extract([]byte(""), ".csv", 0); !errors.Is(err, ErrEmptySheet) {
		t.Errorf("empty file: got %v, want ErrEmptySheet", err)
	}
}

func TestExtractUnsupported(t *testing.T) {
	if _, err := Extract([]byte("x"), ".pdf", 0); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestExtractSheetIndexOutOfRange(t *testing.T) {
	buf := buildXLSX(t, [][]interface{}{{"A"}, {"1"}})
	if _, err := Extract(buf, ".xlsx", 3); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("got %v, want ErrSheetNotFound", err)
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-05", "2024-03-05"},
		{"2024-03-05T10:11:12Z", "2024-03-05"},
		{"2024-03-05 10:11:12", "2024-03-05"},
		{"05.03.2024", "2024-03-05"},
		{"05-03-2024", "2024-03-05"},
		{"05/03/2024", "2024-03-05"},
		{"13/02/2024", "2024-02-13"},
		{"5 Mar 2024", "2024-03-05"},
		{"2024/03/05", "2024-03-05"},
		{"45000", "2023-03-15"},
		{"0", ""},
		{"-12", ""},
		{"9999999", ""},
		{"not a date", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Date(tt.in); got != tt.want {
			t.Errorf("Date(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1234.5", 1234.5},
		{"1,234.5", 1234.5},
		{"1,234,567", 1234567},
		{"-42", -42},
		{" 10 ", 10},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := Number(tt.in); got != tt.want {
			t.Errorf("Number(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStrictNumber(t *testing.T) {
	if _, err := StrictNumber("12x"); err == nil {
		t.Error("StrictNumber(\"12x\") should fail")
	}
	if v, err := StrictNumber(""); err != nil || v != 0 {
		t.Errorf("StrictNumber(\"\") = %v, %v; want 0, nil", v, err)
	}
	if v, err := StrictNumber("1,500.25"); err != nil || v != 1500.25 {
		t.Errorf("StrictNumber(\"1,500.25\") = %v, %v", v, err)
	}
}

func TestText(t *testing.T) {
	if got := Text("  hello  "); got != "hello" {
		t.Errorf("Text = %q", got)
	}
	if got := Text(""); got != "" {
		t.Errorf("Text(\"\") = %q", got)
	}
}
