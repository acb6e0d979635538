package imports

import (
	"strings"
	"testing"
)

func poRow(overrides map[string]string) map[string]string {
	row := map[string]string{
		"Purchase order No.": "PO-1001",
		"Status":             "Released",
		"Company":            "ACME",
		"Order short text":   "Site works",
		"Order value":        "10000",
		"Vendor ID":          "V-1",
		"Short term":         "ACME Ltd",
		"Name":               "Alice",
		"Start date":         "2024-01-15",
		"Date of completion": "2024-12-31",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func qsRow(overrides map[string]string) map[string]string {
	row := map[string]string{
		"Purchase order No.":         "PO-1001",
		"Q.S. number":                "QS-1",
		"Quantity survey short text": "Excavation",
		"Contractor contact":         "Bob",
		"Vendor ID":                  "V-1",
		"TOTAL":                      "2500",
		"CREATED":                    "2024-02-01",
		"TRANSFERED":                 "2024-02-05",
		"Accepted":                   "2024-02-10",
		"Invoice number":             "INV-1",
		"Invoice Document Date":      "2024-02-12",
		"Accounting Document":        "AD-1",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestValidateSchemaMissingColumns(t *testing.T) {
	result := ValidateSchema([]string{"Purchase order No.", "Status"}, ExpectedPOColumns)
	if result.IsValid {
		t.Error("schema with 8 missing columns must be invalid")
	}
	if len(result.Errors) != 8 {
		t.Errorf("got %d errors, want 8", len(result.Errors))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("got %d warnings, want 0", len(result.Warnings))
	}
}

func TestValidateSchemaExtraColumnIsWarning(t *testing.T) {
	headers := append(append([]string{}, ExpectedPOColumns...), "Internal notes")
	result := ValidateSchema(headers, ExpectedPOColumns)
	if !result.IsValid {
		t.Errorf("extra column must not block the import: %v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0].Message, "Internal notes") {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestValidateSchemaIgnoresColumnOrder(t *testing.T) {
	reversed := make([]string, len(ExpectedQSColumns))
	for i, c := range ExpectedQSColumns {
		reversed[len(reversed)-1-i] = c
	}
	if result := ValidateSchema(reversed, ExpectedQSColumns); !result.IsValid {
		t.Errorf("column order must not matter: %v", result.Errors)
	}
}

func TestValidateBatchPORows(t *testing.T) {
	tests := []struct {
		name       string
		row        map[string]string
		wantErrors int
	}{
		{"valid row", poRow(nil), 0},
		{"missing PO number", poRow(map[string]string{"Purchase order No.": "  "}), 1},
		{"malformed order value", poRow(map[string]string{"Order value": "12x"}), 1},
		{"empty order value is tolerated", poRow(map[string]string{"Order value": ""}), 0},
		{"bad start date", poRow(map[string]string{"Start date": "sometime"}), 1},
		{"empty dates are tolerated", poRow(map[string]string{"Start date": "", "Date of completion": ""}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateBatch([]map[string]string{tt.row}, RecordPO)
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("got %d errors (%v), want %d", len(result.Errors), result.Errors, tt.wantErrors)
			}
			if result.IsValid != (tt.wantErrors == 0) {
				t.Errorf("IsValid = %v with %d errors", result.IsValid, len(result.Errors))
			}
		})
	}
}

func TestValidateBatchQSRows(t *testing.T) {
	tests := []struct {
		name       string
		row        map[string]string
		wantErrors int
	}{
		{"valid row", qsRow(nil), 0},
		{"missing QS number", qsRow(map[string]string{"Q.S. number": ""}), 1},
		{"missing PO number", qsRow(map[string]string{"Purchase order No.": ""}), 1},
		{"malformed total", qsRow(map[string]string{"TOTAL": "n/a"}), 1},
		{"bad invoice date", qsRow(map[string]string{"Invoice Document Date": "31-31-2024"}), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateBatch([]map[string]string{tt.row}, RecordQS)
			if len(result.Errors) != tt.wantErrors {
				t.Errorf("got %d errors (%v), want %d", len(result.Errors), result.Errors, tt.wantErrors)
			}
		})
	}
}

func TestValidateBatchDuplicateKeysAreWarnings(t *testing.T) {
	rows := []map[string]string{
		poRow(nil),
		poRow(map[string]string{"Order value": "9000"}),
	}
	result := ValidateBatch(rows, RecordPO)
	if !result.IsValid {
		t.Errorf("duplicates must not block the import: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(result.Warnings))
	}
	if result.Warnings[0].Row != 2 {
		t.Errorf("duplicate flagged on row %d, want 2", result.Warnings[0].Row)
	}
}

func TestValidateBatchRowNumbersAreOneBased(t *testing.T) {
	rows := []map[string]string{
		poRow(nil),
		poRow(map[string]string{"Purchase order No.": "PO-2", "Order value": "bad"}),
	}
	result := ValidateBatch(rows, RecordPO)
	if len(result.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(result.Errors))
	}
	if result.Errors[0].Row != 2 {
		t.Errorf("error on row %d, want 2", result.Errors[0].Row)
	}
}
