package imports

import (
	"fmt"

	"AestrakTrack/internal/sheet"
)

// Column names as the ERP export writes them. Positional order in the
// file is irrelevant; only presence is checked.
var ExpectedPOColumns = []string{
	"Purchase order No.",
	"Status",
	"Company",
	"Order short text",
	"Order value",
	"Vendor ID",
	"Short term",
	"Name",
	"Start date",
	"Date of completion",
}

var ExpectedQSColumns = []string{
	"Purchase order No.",
	"Q.S. number",
	"Quantity survey short text",
	"Contractor contact",
	"Vendor ID",
	"TOTAL",
	"CREATED",
	"TRANSFERED",
	"Accepted",
	"Invoice number",
	"Invoice Document Date",
	"Accounting Document",
}

// ValidationIssue locates one problem in an uploaded file. Row 0 means a
// header-level issue.
type ValidationIssue struct {
	Row     int
	Column  string
	Value   string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("Row %d, Column %s: %s", v.Row, v.Column, v.Message)
}

// ValidationResult collects the issues found in one file. Warnings never
// block an import; IsValid is false iff at least one error was recorded.
type ValidationResult struct {
	IsValid  bool
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// ValidateSchema checks the header row against the expected column set.
// Missing required columns are errors; unexpected extra columns are
// warnings only, since schema drift in the ERP export is tolerated.
func ValidateSchema(headers []string, expected []string) ValidationResult {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	want := make(map[string]bool, len(expected))
	for _, c := range expected {
		want[c] = true
	}

	var result ValidationResult
	for _, c := range expected {
		if !present[c] {
			result.Errors = append(result.Errors, ValidationIssue{
				Column:  c,
				Message: fmt.Sprintf("Required column '%s' is missing", c),
			})
		}
	}
	for _, h := range headers {
		if !want[h] {
			result.Warnings = append(result.Warnings, ValidationIssue{
				Column:  h,
				Message: fmt.Sprintf("Unexpected column '%s' found", h),
			})
		}
	}
	result.IsValid = len(result.Errors) == 0
	return result
}

// RecordType selects the per-row rule set of ValidateBatch.
type RecordType string

const (
	RecordPO RecordType = "po"
	RecordQS RecordType = "qs"
)

// ValidateBatch runs row-level validation over the full set of rows for
// one file: business keys must be present, numeric fields must strictly
// parse, date fields must normalize. A business key repeated within the
// same file is flagged as a warning; later occurrences win at persistence
// time because upserts are keyed.
func ValidateBatch(rows []map[string]string, recordType RecordType) ValidationResult {
	var result ValidationResult
	for i, row := range rows {
		rowNo := i + 1
		switch recordType {
		case RecordPO:
			result.Errors = append(result.Errors, validatePORow(row, rowNo)...)
		case RecordQS:
			result.Errors = append(result.Errors, validateQSRow(row, rowNo)...)
		}
	}

	keyColumn := "Purchase order No."
	if recordType == RecordQS {
		keyColumn = "Q.S. number"
	}
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		key := sheet.Text(row[keyColumn])
		if key == "" {
			continue
		}
		if seen[key] {
			result.Warnings = append(result.Warnings, ValidationIssue{
				Row:     i + 1,
				Column:  keyColumn,
				Value:   key,
				Message: fmt.Sprintf("Duplicate %s: %s", keyColumn, key),
			})
			continue
		}
		seen[key] = true
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func validatePORow(row map[string]string, rowNo int) []ValidationIssue {
	var issues []ValidationIssue
	if sheet.Text(row["Purchase order No."]) == "" {
		issues = append(issues, ValidationIssue{
			Row:     rowNo,
			Column:  "Purchase order No.",
			Value:   row["Purchase order No."],
			Message: "Purchase order number is required",
		})
	}
	issues = append(issues, validateNumericCell(row, "Order value", rowNo)...)
	issues = append(issues, validateDateCell(row, "Start date", rowNo)...)
	issues = append(issues, validateDateCell(row, "Date of completion", rowNo)...)
	return issues
}

func validateQSRow(row map[string]string, rowNo int) []ValidationIssue {
	var issues []ValidationIssue
	if sheet.Text(row["Purchase order No."]) == "" {
		issues = append(issues, ValidationIssue{
			Row:     rowNo,
			Column:  "Purchase order No.",
			Value:   row["Purchase order No."],
			Message: "Purchase order number is required",
		})
	}
	if sheet.Text(row["Q.S. number"]) == "" {
		issues = append(issues, ValidationIssue{
			Row:     rowNo,
			Column:  "Q.S. number",
			Value:   row["Q.S. number"],
			Message: "Q.S. number is required",
		})
	}
	issues = append(issues, validateNumericCell(row, "TOTAL", rowNo)...)
	for _, col := range []string{"CREATED", "TRANSFERED", "Accepted", "Invoice Document Date"} {
		issues = append(issues, validateDateCell(row, col, rowNo)...)
	}
	return issues
}

// validateNumericCell strict-rejects malformed numerics: a non-empty cell
// that fails a strict parse is an error, so the lenient zero-fill in
// sheet.Number only ever applies to empty cells on the persisted path.
func validateNumericCell(row map[string]string, column string, rowNo int) []ValidationIssue {
	raw := sheet.Text(row[column])
	if raw == "" {
		return nil
	}
	if _, err := sheet.StrictNumber(raw); err != nil {
		return []ValidationIssue{{
			Row:     rowNo,
			Column:  column,
			Value:   raw,
			Message: fmt.Sprintf("%s must be a valid number", column),
		}}
	}
	return nil
}

func validateDateCell(row map[string]string, column string, rowNo int) []ValidationIssue {
	raw := sheet.Text(row[column])
	if raw == "" {
		return nil
	}
	if sheet.Date(raw) == "" {
		return []ValidationIssue{{
			Row:     rowNo,
			Column:  column,
			Value:   raw,
			Message: fmt.Sprintf("%s has invalid date format", column),
		}}
	}
	return nil
}
