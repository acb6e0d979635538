package imports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"AestrakTrack/api"
	"AestrakTrack/internal/config"
	"AestrakTrack/internal/sheet"
)

// ProcessParams is everything the upload layer hands to one import run.
// The job id refers to an already-open job in processing state; this
// engine only ever writes its terminal status.
type ProcessParams struct {
	POFileBuffer   []byte
	QSFileBuffer   []byte
	POFileExt      string
	QSFileExt      string
	OrganizationID string
	ImportJobID    string
	UserID         string
}

// ProcessExcelImport runs the full reconciliation pipeline for one pair
// of PO/QS exports: extract, validate, read prior state, reconcile,
// persist in batches, record metadata. Every fatal error is caught here
// and turned into a failed job write plus a structured failure result; no
// error escapes to the caller and no job is left in processing.
func ProcessExcelImport(ctx context.Context, store Store, params ProcessParams) ProcessingResult {
	start := time.Now()

	result, err := runPipeline(ctx, store, params, start)
	if err == nil {
		return result
	}

	var impErr *ImportError
	if !errors.As(err, &impErr) {
		impErr = &ImportError{Kind: ErrKindPersistence, Message: err.Error()}
	}
	api.LogError("import %s failed: %s", params.ImportJobID, impErr.Message)

	elapsed := time.Since(start).Milliseconds()
	if jobErr := store.UpdateImportJob(ctx, params.ImportJobID, JobFailed, 0, 1, emptyMetadata(elapsed)); jobErr != nil {
		api.LogError("import %s: failed to record job failure: %v", params.ImportJobID, jobErr)
	}

	return ProcessingResult{
		Success:   false,
		Metadata:  emptyMetadata(elapsed),
		Errors:    []string{impErr.Message},
		ErrorKind: impErr.Kind,
	}
}

func runPipeline(ctx context.Context, store Store, params ProcessParams, start time.Time) (ProcessingResult, error) {
	// Extract both files. The two parses are independent, so they run
	// concurrently.
	var (
		poData, qsData *sheet.RawSheet
		poErr, qsErr   error
		wg             sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		poData, poErr = sheet.Extract(params.POFileBuffer, params.POFileExt, 0)
	}()
	go func() {
		defer wg.Done()
		qsData, qsErr = sheet.Extract(params.QSFileBuffer, params.QSFileExt, 0)
	}()
	wg.Wait()
	if poErr != nil {
		return ProcessingResult{}, importErrorf(ErrKindSheetParse, "PO file: %v", poErr)
	}
	if qsErr != nil {
		return ProcessingResult{}, importErrorf(ErrKindSheetParse, "QS file: %v", qsErr)
	}

	// Schema validation: the failure message lists every missing column.
	if v := ValidateSchema(poData.Headers, ExpectedPOColumns); !v.IsValid {
		return ProcessingResult{}, importErrorf(ErrKindSchema, "PO file schema errors: %s", joinIssues(v.Errors, len(v.Errors)))
	}
	if v := ValidateSchema(qsData.Headers, ExpectedQSColumns); !v.IsValid {
		return ProcessingResult{}, importErrorf(ErrKindSchema, "QS file schema errors: %s", joinIssues(v.Errors, len(v.Errors)))
	}

	// Per-organization lock held across the whole read-reconcile-write
	// window, so a concurrent import for the same tenant cannot reconcile
	// against the snapshot this run is about to replace.
	release, err := store.AcquireOrganizationLock(ctx, params.OrganizationID)
	if err != nil {
		return ProcessingResult{}, importErrorf(ErrKindPersistence, "failed to lock organization: %v", err)
	}
	defer release()

	// Prior state for the organization; the two lookups are independent.
	var (
		existingPOs       []ExistingPO
		existingQSNumbers map[string]bool
		posErr, qssErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		existingPOs, posErr = store.FetchExistingPOs(ctx, params.OrganizationID)
	}()
	go func() {
		defer wg.Done()
		existingQSNumbers, qssErr = store.FetchExistingQSNumbers(ctx, params.OrganizationID)
	}()
	wg.Wait()
	if posErr != nil {
		return ProcessingResult{}, importErrorf(ErrKindPersistence, "failed to read prior PO state: %v", posErr)
	}
	if qssErr != nil {
		return ProcessingResult{}, importErrorf(ErrKindPersistence, "failed to read prior QS state: %v", qssErr)
	}

	existingPOMap := make(map[string]ExistingPO, len(existingPOs))
	for _, po := range existingPOs {
		existingPOMap[po.PurchaseOrderNo] = po
	}

	// Row-level validation over both files; abort on the first error set,
	// surfacing at most the first ten formatted issues.
	poValidation := ValidateBatch(poData.Rows, RecordPO)
	qsValidation := ValidateBatch(qsData.Rows, RecordQS)
	if !poValidation.IsValid || !qsValidation.IsValid {
		allErrors := append(append([]ValidationIssue{}, poValidation.Errors...), qsValidation.Errors...)
		return ProcessingResult{}, importErrorf(ErrKindData, "Data validation errors: %s",
			joinIssues(allErrors, config.MaxValidationErrorsShown))
	}

	// Reconcile: billing aggregate, then PO change detection, then QS
	// linkage against the POs of this batch.
	qsTotals := BuildQSTotals(qsData.Rows)

	processedPOs := make([]PurchaseOrderRecord, 0, len(poData.Rows))
	for _, row := range poData.Rows {
		processedPOs = append(processedPOs, ProcessPORecord(row, params.OrganizationID, qsTotals, existingPOMap))
	}

	poIDs := make(map[string]string, len(processedPOs))
	for _, po := range processedPOs {
		poIDs[po.PurchaseOrderNo] = po.ID
	}

	processedQS := make([]QuantitySurveyRecord, 0, len(qsData.Rows))
	for _, row := range qsData.Rows {
		processedQS = append(processedQS, ProcessQSRecord(row, params.OrganizationID, params.ImportJobID, poIDs, existingQSNumbers))
	}

	// Persist: all POs first, then QS in bounded batches.
	if err := store.UpsertPurchaseOrders(ctx, processedPOs); err != nil {
		return ProcessingResult{}, importErrorf(ErrKindPersistence, "Failed to upsert purchase orders: %v", err)
	}
	if err := store.UpsertQuantitySurveys(ctx, processedQS); err != nil {
		return ProcessingResult{}, importErrorf(ErrKindPersistence, "%v", err)
	}

	metadata := buildMetadata(processedPOs, processedQS, time.Since(start).Milliseconds())

	rowsProcessed := len(processedPOs) + len(processedQS)
	if err := store.UpdateImportJob(ctx, params.ImportJobID, JobSucceeded, rowsProcessed, 0, metadata); err != nil {
		return ProcessingResult{}, importErrorf(ErrKindPersistence, "Failed to record import job result: %v", err)
	}

	api.LogInfo("import %s succeeded: %d POs (%d new, %d updated), %d QS (%d new)",
		params.ImportJobID, len(processedPOs), metadata.POsNew, metadata.POsUpdated,
		len(processedQS), metadata.QSNew)

	return ProcessingResult{
		Success:       true,
		Metadata:      metadata,
		Errors:        []string{},
		RowsProcessed: rowsProcessed,
	}, nil
}

// buildMetadata aggregates classification counts and the change report.
func buildMetadata(pos []PurchaseOrderRecord, qss []QuantitySurveyRecord, elapsedMs int64) ImportMetadata {
	metadata := emptyMetadata(elapsedMs)
	for _, po := range pos {
		switch po.ImportStatus {
		case StatusNew:
			metadata.POsNew++
			metadata.NewPOIDs = append(metadata.NewPOIDs, po.ID)
			metadata.POChanges = append(metadata.POChanges, poChangeEntry(po))
		case StatusUpdated:
			metadata.POsUpdated++
			metadata.UpdatedPOIDs = append(metadata.UpdatedPOIDs, po.ID)
			metadata.POChanges = append(metadata.POChanges, poChangeEntry(po))
		case StatusUnchanged:
			metadata.POsUnchanged++
		}
	}
	for _, qs := range qss {
		if qs.ImportStatus == StatusNew {
			metadata.QSNew++
			metadata.NewQSIDs = append(metadata.NewQSIDs, qs.ID)
			metadata.QSChanges = append(metadata.QSChanges, qsChangeEntry(qs))
		} else {
			metadata.QSUnchanged++
		}
	}
	return metadata
}

func joinIssues(issues []ValidationIssue, limit int) string {
	if len(issues) < limit {
		limit = len(issues)
	}
	parts := make([]string, 0, limit)
	for _, issue := range issues[:limit] {
		if issue.Row == 0 {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("Row %d, Column %s: %s", issue.Row, issue.Column, issue.Message))
	}
	return strings.Join(parts, "; ")
}
