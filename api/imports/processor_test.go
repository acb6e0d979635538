package imports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

type fakeStore struct {
	mu sync.Mutex

	existingPOs       []ExistingPO
	existingQSNumbers map[string]bool

	upsertedPOs []PurchaseOrderRecord
	upsertedQS  []QuantitySurveyRecord

	jobID         string
	jobStatus     string
	jobRowCount   int
	jobErrorCount int
	jobMetadata   ImportMetadata

	lockHeld     bool
	lockReleased bool
	unlockedRead bool

	failPOUpsert bool
	failQSUpsert bool
}

func (f *fakeStore) AcquireOrganizationLock(ctx context.Context, organizationID string) (func(), error) {
	f.mu.Lock()
	f.lockHeld = true
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.lockHeld = false
		f.lockReleased = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeStore) FetchExistingPOs(ctx context.Context, organizationID string) ([]ExistingPO, error) {
	f.mu.Lock()
	if !f.lockHeld {
		f.unlockedRead = true
	}
	f.mu.Unlock()
	return f.existingPOs, nil
}

func (f *fakeStore) FetchExistingQSNumbers(ctx context.Context, organizationID string) (map[string]bool, error) {
	f.mu.Lock()
	if !f.lockHeld {
		f.unlockedRead = true
	}
	f.mu.Unlock()
	if f.existingQSNumbers == nil {
		return map[string]bool{}, nil
	}
	return f.existingQSNumbers, nil
}

func (f *fakeStore) UpsertPurchaseOrders(ctx context.Context, records []PurchaseOrderRecord) error {
	if f.failPOUpsert {
		return errors.New("connection reset")
	}
	f.upsertedPOs = append(f.upsertedPOs, records...)
	return nil
}

func (f *fakeStore) UpsertQuantitySurveys(ctx context.Context, records []QuantitySurveyRecord) error {
	if f.failQSUpsert {
		return errors.New("failed to upsert QS batch 1/1: connection reset")
	}
	f.upsertedQS = append(f.upsertedQS, records...)
	return nil
}

func (f *fakeStore) UpdateImportJob(ctx context.Context, jobID, status string, rowCount, errorCount int, metadata ImportMetadata) error {
	f.jobID = jobID
	f.jobStatus = status
	f.jobRowCount = rowCount
	f.jobErrorCount = errorCount
	f.jobMetadata = metadata
	return nil
}

func buildCSV(headers []string, rows [][]string) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Column order follows ExpectedPOColumns / ExpectedQSColumns.
func poFile(rows [][]string) []byte {
	return buildCSV(ExpectedPOColumns, rows)
}

func qsFile(rows [][]string) []byte {
	return buildCSV(ExpectedQSColumns, rows)
}

func defaultParams(poBuf, qsBuf []byte) ProcessParams {
	return ProcessParams{
		POFileBuffer:   poBuf,
		QSFileBuffer:   qsBuf,
		POFileExt:      ".csv",
		QSFileExt:      ".csv",
		OrganizationID: "org-1",
		ImportJobID:    "job-1",
		UserID:         "user-1",
	}
}

var (
	samplePORows = [][]string{
		{"PO-1001", "Released", "ACME", "Site works", "10000", "V-1", "ACME Ltd", "Alice", "2024-01-15", "2024-12-31"},
	}
	sampleQSRows = [][]string{
		{"PO-1001", "QS-1", "Excavation", "Bob", "V-1", "2500", "2024-02-01", "2024-02-05", "2024-02-10", "INV-1", "2024-02-12", "AD-1"},
		{"PO-1001", "QS-2", "Foundation", "Bob", "V-1", "1500", "2024-03-01", "2024-03-05", "", "INV-2", "2024-03-12", "AD-2"},
	}
)

func TestProcessExcelImportFirstRun(t *testing.T) {
	store := &fakeStore{}
	result := ProcessExcelImport(context.Background(), store, defaultParams(poFile(samplePORows), qsFile(sampleQSRows)))

	if !result.Success {
		t.Fatalf("import failed: %v", result.Errors)
	}
	if result.RowsProcessed != 3 {
		t.Errorf("RowsProcessed = %d, want 3", result.RowsProcessed)
	}

	m := result.Metadata
	if m.POsNew != 1 || m.POsUpdated != 0 || m.POsUnchanged != 0 {
		t.Errorf("PO counts = %d/%d/%d, want 1/0/0", m.POsNew, m.POsUpdated, m.POsUnchanged)
	}
	if m.QSNew != 2 || m.QSUnchanged != 0 {
		t.Errorf("QS counts = %d/%d, want 2/0", m.QSNew, m.QSUnchanged)
	}
	if len(m.NewPOIDs) != 1 || len(m.NewQSIDs) != 2 || len(m.POChanges) != 1 || len(m.QSChanges) != 2 {
		t.Errorf("change report sizes: %d po ids, %d qs ids, %d po changes, %d qs changes",
			len(m.NewPOIDs), len(m.NewQSIDs), len(m.POChanges), len(m.QSChanges))
	}

	if len(store.upsertedPOs) != 1 {
		t.Fatalf("upserted %d POs, want 1", len(store.upsertedPOs))
	}
	po := store.upsertedPOs[0]
	if po.TotalSpent != 4000 {
		t.Errorf("TotalSpent = %v, want the 4000 QS aggregate", po.TotalSpent)
	}
	if po.UtilizationPercent != 40 {
		t.Errorf("UtilizationPercent = %v, want 40", po.UtilizationPercent)
	}

	if len(store.upsertedQS) != 2 {
		t.Fatalf("upserted %d QS records, want 2", len(store.upsertedQS))
	}
	for _, qs := range store.upsertedQS {
		if qs.PurchaseOrderID == nil || *qs.PurchaseOrderID != po.ID {
			t.Errorf("QS %s not linked to the PO of this batch", qs.QSNumber)
		}
	}

	if store.jobStatus != JobSucceeded || store.jobRowCount != 3 || store.jobErrorCount != 0 {
		t.Errorf("job write = %s/%d/%d, want succeeded/3/0", store.jobStatus, store.jobRowCount, store.jobErrorCount)
	}
}

func TestProcessExcelImportIsIdempotent(t *testing.T) {
	first := &fakeStore{}
	ProcessExcelImport(context.Background(), first, defaultParams(poFile(samplePORows), qsFile(sampleQSRows)))

	// Second run against the state the first run produced.
	second := &fakeStore{
		existingQSNumbers: map[string]bool{},
	}
	for _, po := range first.upsertedPOs {
		second.existingPOs = append(second.existingPOs, ExistingPO{
			ID:                 po.ID,
			PurchaseOrderNo:    po.PurchaseOrderNo,
			TotalSpent:         po.TotalSpent,
			UtilizationPercent: po.UtilizationPercent,
		})
	}
	for _, qs := range first.upsertedQS {
		second.existingQSNumbers[qs.QSNumber] = true
	}

	result := ProcessExcelImport(context.Background(), second, defaultParams(poFile(samplePORows), qsFile(sampleQSRows)))
	if !result.Success {
		t.Fatalf("second import failed: %v", result.Errors)
	}

	m := result.Metadata
	if m.POsNew != 0 || m.POsUpdated != 0 || m.POsUnchanged != 1 {
		t.Errorf("PO counts = %d/%d/%d, want 0/0/1", m.POsNew, m.POsUpdated, m.POsUnchanged)
	}
	if m.QSNew != 0 || m.QSUnchanged != 2 {
		t.Errorf("QS counts = %d/%d, want 0/2", m.QSNew, m.QSUnchanged)
	}
	if len(m.NewPOIDs) != 0 || len(m.NewQSIDs) != 0 || len(m.POChanges) != 0 {
		t.Error("an identical re-import must report no changes")
	}

	// Same deterministic ids on both runs.
	if second.upsertedPOs[0].ID != first.upsertedPOs[0].ID {
		t.Error("PO id changed between identical runs")
	}
	if second.upsertedQS[0].ID != first.upsertedQS[0].ID {
		t.Error("QS id changed between identical runs")
	}
}

func TestProcessExcelImportSchemaFailure(t *testing.T) {
	store := &fakeStore{}
	badPO := buildCSV([]string{"Purchase order No.", "Status"}, [][]string{{"PO-1", "open"}})
	result := ProcessExcelImport(context.Background(), store, defaultParams(badPO, qsFile(sampleQSRows)))

	if result.Success {
		t.Fatal("import with missing PO columns must fail")
	}
	if result.ErrorKind != ErrKindSchema {
		t.Errorf("ErrorKind = %s, want %s", result.ErrorKind, ErrKindSchema)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Order value") {
		t.Errorf("failure message should name the missing columns: %v", result.Errors)
	}

	if store.jobStatus != JobFailed || store.jobErrorCount != 1 || store.jobRowCount != 0 {
		t.Errorf("job write = %s/%d/%d, want failed/1/0", store.jobStatus, store.jobErrorCount, store.jobRowCount)
	}
	if store.jobMetadata.POsNew != 0 || len(store.jobMetadata.NewPOIDs) != 0 {
		t.Error("failed job must carry the empty metadata shape")
	}
	if len(store.upsertedPOs) != 0 || len(store.upsertedQS) != 0 {
		t.Error("nothing may be persisted on a failed validation")
	}
}

func TestProcessExcelImportParseFailure(t *testing.T) {
	store := &fakeStore{}
	result := ProcessExcelImport(context.Background(), store, defaultParams(poFile(samplePORows), []byte("")))

	if result.Success {
		t.Fatal("empty QS file must fail the import")
	}
	if result.ErrorKind != ErrKindSheetParse {
		t.Errorf("ErrorKind = %s, want %s", result.ErrorKind, ErrKindSheetParse)
	}
	if store.jobStatus != JobFailed {
		t.Errorf("job status = %s, want failed", store.jobStatus)
	}
}

func TestProcessExcelImportDataValidationCap(t *testing.T) {
	rows := make([][]string, 12)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("PO-%d", i), "open", "ACME", "x", "not-a-number", "V-1", "A", "Alice", "", ""}
	}
	store := &fakeStore{}
	result := ProcessExcelImport(context.Background(), store, defaultParams(poFile(rows), qsFile(sampleQSRows)))

	if result.Success {
		t.Fatal("malformed numerics must fail the import")
	}
	if result.ErrorKind != ErrKindData {
		t.Errorf("ErrorKind = %s, want %s", result.ErrorKind, ErrKindData)
	}
	if got := strings.Count(result.Errors[0], "Row "); got != 10 {
		t.Errorf("failure message lists %d issues, want cap of 10", got)
	}
}

func TestProcessExcelImportHoldsOrganizationLock(t *testing.T) {
	store := &fakeStore{}
	result := ProcessExcelImport(context.Background(), store, defaultParams(poFile(samplePORows), qsFile(sampleQSRows)))

	if !result.Success {
		t.Fatalf("import failed: %v", result.Errors)
	}
	if store.unlockedRead {
		t.Error("prior-state reads ran without the organization lock")
	}
	if !store.lockReleased {
		t.Error("organization lock was not released after the run")
	}
	if store.lockHeld {
		t.Error("organization lock is still held")
	}
}

func TestProcessExcelImportReleasesLockOnFailure(t *testing.T) {
	store := &fakeStore{failPOUpsert: true}
	ProcessExcelImport(context.Background(), store, defaultParams(poFile(samplePORows), qsFile(sampleQSRows)))

	if !store.lockReleased || store.lockHeld {
		t.Error("organization lock must be released on the failure path too")
	}
}

func TestProcessExcelImportQSPersistenceFailure(t *testing.T) {
	store := &fakeStore{failQSUpsert: true}
	result := ProcessExcelImport(context.Background(), store, defaultParams(poFile(samplePORows), qsFile(sampleQSRows)))

	if result.Success {
		t.Fatal("QS upsert failure must fail the import")
	}
	if result.ErrorKind != ErrKindPersistence {
		t.Errorf("ErrorKind = %s, want %s", result.ErrorKind, ErrKindPersistence)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "QS batch") {
		t.Errorf("failure message should carry the batch position: %v", result.Errors)
	}
	if store.jobStatus != JobFailed || store.jobErrorCount != 1 {
		t.Errorf("job write = %s/%d, want failed/1", store.jobStatus, store.jobErrorCount)
	}
	// The PO write precedes QS persistence and stays committed; the keyed
	// upserts make a re-run converge.
	if len(store.upsertedPOs) != 1 {
		t.Errorf("upserted %d POs before the QS failure, want 1", len(store.upsertedPOs))
	}
}

func TestProcessExcelImportPersistenceFailure(t *testing.T) {
	store := &fakeStore{failPOUpsert: true}
	result := ProcessExcelImport(context.Background(), store, defaultParams(poFile(samplePORows), qsFile(sampleQSRows)))

	if result.Success {
		t.Fatal("upsert failure must fail the import")
	}
	if result.ErrorKind != ErrKindPersistence {
		t.Errorf("ErrorKind = %s, want %s", result.ErrorKind, ErrKindPersistence)
	}
	if store.jobStatus != JobFailed || store.jobErrorCount != 1 {
		t.Errorf("job write = %s/%d, want failed/1", store.jobStatus, store.jobErrorCount)
	}
	if len(store.upsertedQS) != 0 {
		t.Error("QS upsert must not run after a PO upsert failure")
	}
}
