package imports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"AestrakTrack/api"
	"AestrakTrack/internal/config"
)

// Store is the narrow keyed-upsert interface the reconciliation engine
// needs from the durable store. The pgx implementation below is the only
// component that mutates it.
type Store interface {
	AcquireOrganizationLock(ctx context.Context, organizationID string) (func(), error)
	FetchExistingPOs(ctx context.Context, organizationID string) ([]ExistingPO, error)
	FetchExistingQSNumbers(ctx context.Context, organizationID string) (map[string]bool, error)
	UpsertPurchaseOrders(ctx context.Context, records []PurchaseOrderRecord) error
	UpsertQuantitySurveys(ctx context.Context, records []QuantitySurveyRecord) error
	UpdateImportJob(ctx context.Context, jobID, status string, rowCount, errorCount int, metadata ImportMetadata) error
}

// PgStore implements Store on a pgx connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// AcquireOrganizationLock takes a session-level advisory lock keyed on the
// organization and returns its release func. The orchestrator holds it
// from before the prior-state reads until after the terminal job write,
// so two concurrent imports for one tenant can never reconcile against
// the same prior snapshot. The lock rides a dedicated pooled connection;
// release unlocks on that same session and returns the connection.
func (s *PgStore) AcquireOrganizationLock(ctx context.Context, organizationID string) (func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock connection: %w", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1))`, organizationID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to take organization lock: %w", err)
	}
	release := func() {
		// Unlock on a fresh context: the run's context may already be
		// canceled and the lock must still be released.
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, organizationID); err != nil {
			api.LogError("failed to release organization lock for %s: %v", organizationID, err)
		}
		conn.Release()
	}
	return release, nil
}

func (s *PgStore) FetchExistingPOs(ctx context.Context, organizationID string) ([]ExistingPO, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, purchase_order_no, total_spent, utilization_percent
		FROM purchase_orders
		WHERE organization_id = $1
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing purchase orders: %w", err)
	}
	defer rows.Close()

	existing := []ExistingPO{}
	for rows.Next() {
		var po ExistingPO
		if err := rows.Scan(&po.ID, &po.PurchaseOrderNo, &po.TotalSpent, &po.UtilizationPercent); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order snapshot: %w", err)
		}
		existing = append(existing, po)
	}
	return existing, rows.Err()
}

func (s *PgStore) FetchExistingQSNumbers(ctx context.Context, organizationID string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT qs_number FROM quantity_surveys WHERE organization_id = $1
	`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing QS numbers: %w", err)
	}
	defer rows.Close()

	numbers := make(map[string]bool)
	for rows.Next() {
		var qsNumber string
		if err := rows.Scan(&qsNumber); err != nil {
			return nil, fmt.Errorf("failed to scan QS number: %w", err)
		}
		numbers[qsNumber] = true
	}
	return numbers, rows.Err()
}

const upsertPOQuery = `
	INSERT INTO purchase_orders (
		id, organization_id, purchase_order_no, status, company,
		order_short_text, order_value, total_spent, remaining_budget,
		utilization_percent, vendor_id, vendor_short_term,
		work_coordinator_name, start_date, completion_date, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now())
	ON CONFLICT (organization_id, purchase_order_no) DO UPDATE SET
		status = EXCLUDED.status,
		company = EXCLUDED.company,
		order_short_text = EXCLUDED.order_short_text,
		order_value = EXCLUDED.order_value,
		total_spent = EXCLUDED.total_spent,
		remaining_budget = EXCLUDED.remaining_budget,
		utilization_percent = EXCLUDED.utilization_percent,
		vendor_id = EXCLUDED.vendor_id,
		vendor_short_term = EXCLUDED.vendor_short_term,
		work_coordinator_name = EXCLUDED.work_coordinator_name,
		start_date = EXCLUDED.start_date,
		completion_date = EXCLUDED.completion_date,
		updated_at = now()`

// UpsertPurchaseOrders writes the full PO set of one import in a single
// transaction keyed on (organization_id, purchase_order_no). Mutual
// exclusion between concurrent same-org imports comes from the
// organization lock the orchestrator already holds, not from here.
func (s *PgStore) UpsertPurchaseOrders(ctx context.Context, records []PurchaseOrderRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin purchase order upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, po := range records {
		batch.Queue(upsertPOQuery,
			po.ID, po.OrganizationID, po.PurchaseOrderNo, po.Status, po.Company,
			nullIfEmpty(po.OrderShortText), po.OrderValue, po.TotalSpent, po.RemainingBudget,
			po.UtilizationPercent, nullIfEmpty(po.VendorID), nullIfEmpty(po.VendorShortTerm),
			nullIfEmpty(po.WorkCoordinatorName), nullIfEmpty(po.StartDate), nullIfEmpty(po.CompletionDate))
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(records); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to upsert purchase order %s: %w", records[i].PurchaseOrderNo, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close purchase order batch: %w", err)
	}
	return tx.Commit(ctx)
}

const upsertQSQuery = `
	INSERT INTO quantity_surveys (
		id, organization_id, purchase_order_id, purchase_order_no, qs_number,
		quantity_survey_short_text, contractor_contact, vendor_id, total,
		created_date, transfer_date, accepted_date, invoice_number,
		invoice_date, accounting_document, import_job_id, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
	ON CONFLICT (id) DO UPDATE SET
		purchase_order_id = EXCLUDED.purchase_order_id,
		total = EXCLUDED.total,
		created_date = EXCLUDED.created_date,
		transfer_date = EXCLUDED.transfer_date,
		accepted_date = EXCLUDED.accepted_date,
		invoice_number = EXCLUDED.invoice_number,
		invoice_date = EXCLUDED.invoice_date,
		accounting_document = EXCLUDED.accounting_document,
		import_job_id = EXCLUDED.import_job_id,
		updated_at = now()`

// UpsertQuantitySurveys writes QS records keyed on their deterministic id
// in sequential size-bounded batches. A failed batch aborts the remaining
// ones; earlier batches stay committed. A full re-run converges because
// every key is deterministic.
func (s *PgStore) UpsertQuantitySurveys(ctx context.Context, records []QuantitySurveyRecord) error {
	batches := batchRecords(records, config.QSUpsertBatchSize)
	for i, chunk := range batches {
		batch := &pgx.Batch{}
		for _, qs := range chunk {
			batch.Queue(upsertQSQuery,
				qs.ID, qs.OrganizationID, qs.PurchaseOrderID, qs.PurchaseOrderNo, qs.QSNumber,
				nullIfEmpty(qs.QuantitySurveyShortText), nullIfEmpty(qs.ContractorContact),
				nullIfEmpty(qs.VendorID), qs.Total, nullIfEmpty(qs.CreatedDate),
				nullIfEmpty(qs.TransferDate), nullIfEmpty(qs.AcceptedDate),
				nullIfEmpty(qs.InvoiceNumber), nullIfEmpty(qs.InvoiceDate),
				nullIfEmpty(qs.AccountingDocument), qs.ImportJobID)
		}
		br := s.pool.SendBatch(ctx, batch)
		for j := 0; j < len(chunk); j++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to upsert QS batch %d/%d: %w", i+1, len(batches), err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close QS batch %d/%d: %w", i+1, len(batches), err)
		}
	}
	return nil
}

// UpdateImportJob writes the terminal job state exactly once per run.
func (s *PgStore) UpdateImportJob(ctx context.Context, jobID, status string, rowCount, errorCount int, metadata ImportMetadata) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal import metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE import_jobs
		SET status = $2, row_count = $3, error_count = $4, metadata = $5, updated_at = now()
		WHERE id = $1
	`, jobID, status, rowCount, errorCount, meta)
	if err != nil {
		return fmt.Errorf("failed to update import job %s: %w", jobID, err)
	}
	return nil
}

// CreateImportJob opens a new job in processing state at upload
// acceptance time and returns its id.
func (s *PgStore) CreateImportJob(ctx context.Context, organizationID, jobType, fileName, fileHash, createdBy string) (string, error) {
	var jobID string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO import_jobs (organization_id, type, status, file_name, file_hash, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, organizationID, jobType, JobProcessing, fileName, fileHash, createdBy).Scan(&jobID)
	if err != nil {
		return "", fmt.Errorf("failed to create import job: %w", err)
	}
	return jobID, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
