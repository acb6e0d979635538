package imports

// ImportStatus classifies one record relative to the previously stored
// state for the same organization.
type ImportStatus string

const (
	StatusNew       ImportStatus = "new"
	StatusUpdated   ImportStatus = "updated"
	StatusUnchanged ImportStatus = "unchanged"
)

// Import job lifecycle states. Terminal states are written exactly once.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobSucceeded  = "succeeded"
	JobFailed     = "failed"
)

// PurchaseOrderRecord is one fully computed PO row ready for persistence.
// The ImportStatus and Previous* fields are transient: they drive change
// classification and the change report but are not stored on the row.
type PurchaseOrderRecord struct {
	ID                  string  `json:"id"`
	OrganizationID      string  `json:"organization_id"`
	PurchaseOrderNo     string  `json:"purchase_order_no"`
	Status              string  `json:"status"`
	Company             string  `json:"company"`
	OrderShortText      string  `json:"order_short_text"`
	OrderValue          float64 `json:"order_value"`
	TotalSpent          float64 `json:"total_spent"`
	RemainingBudget     float64 `json:"remaining_budget"`
	UtilizationPercent  float64 `json:"utilization_percent"`
	VendorID            string  `json:"vendor_id"`
	VendorShortTerm     string  `json:"vendor_short_term"`
	WorkCoordinatorName string  `json:"work_coordinator_name"`
	StartDate           string  `json:"start_date"`
	CompletionDate      string  `json:"completion_date"`

	ImportStatus               ImportStatus `json:"-"`
	PreviousTotalSpent         *float64     `json:"-"`
	PreviousUtilizationPercent *float64     `json:"-"`
}

// QuantitySurveyRecord is one billing line claiming spend against a PO.
// QS records are append-only facts: once stored they are never updated,
// so classification is binary (new or unchanged). PurchaseOrderID is
// resolved against the POs of the current import batch only and stays
// empty when the referenced PO is absent from this run.
type QuantitySurveyRecord struct {
	ID                      string  `json:"id"`
	OrganizationID          string  `json:"organization_id"`
	PurchaseOrderID         *string `json:"purchase_order_id"`
	PurchaseOrderNo         string  `json:"purchase_order_no"`
	QSNumber                string  `json:"qs_number"`
	QuantitySurveyShortText string  `json:"quantity_survey_short_text"`
	ContractorContact       string  `json:"contractor_contact"`
	VendorID                string  `json:"vendor_id"`
	Total                   float64 `json:"total"`
	CreatedDate             string  `json:"created_date"`
	TransferDate            string  `json:"transfer_date"`
	AcceptedDate            string  `json:"accepted_date"`
	InvoiceNumber           string  `json:"invoice_number"`
	InvoiceDate             string  `json:"invoice_date"`
	AccountingDocument      string  `json:"accounting_document"`
	ImportJobID             string  `json:"import_job_id"`

	ImportStatus ImportStatus `json:"-"`
}

// ExistingPO is the prior snapshot of a PO, read before reconciliation.
type ExistingPO struct {
	ID                 string
	PurchaseOrderNo    string
	TotalSpent         float64
	UtilizationPercent float64
}

// PurchaseOrderChange is one change-report entry for a new or updated PO,
// carrying current and previous financial figures plus 2dp deltas. Delta
// pointers are nil when there is no prior value to diff against.
type PurchaseOrderChange struct {
	ID                         string   `json:"id"`
	PurchaseOrderNo            string   `json:"purchaseOrderNo"`
	OrderShortText             string   `json:"orderShortText"`
	Status                     string   `json:"status"`
	OrderValue                 float64  `json:"orderValue"`
	TotalSpent                 float64  `json:"totalSpent"`
	PreviousTotalSpent         *float64 `json:"previousTotalSpent"`
	TotalSpentDelta            *float64 `json:"totalSpentDelta"`
	UtilizationPercent         float64  `json:"utilizationPercent"`
	PreviousUtilizationPercent *float64 `json:"previousUtilizationPercent"`
	UtilizationDelta           *float64 `json:"utilizationDelta"`
	RemainingBudget            float64  `json:"remainingBudget"`
	ChangeType                 string   `json:"changeType"`
}

// QuantitySurveyChange is one change-report entry for a newly seen QS line.
type QuantitySurveyChange struct {
	ID                string  `json:"id"`
	PurchaseOrderNo   string  `json:"purchaseOrderNo"`
	QSNumber          string  `json:"qsNumber"`
	Total             float64 `json:"total"`
	CreatedDate       string  `json:"createdDate"`
	ContractorContact string  `json:"contractorContact"`
}

// ImportMetadata is the durable audit record of one import run, stored on
// the import job and replayed by the change-report views.
type ImportMetadata struct {
	POsNew           int                    `json:"posNew"`
	POsUpdated       int                    `json:"posUpdated"`
	POsUnchanged     int                    `json:"posUnchanged"`
	QSNew            int                    `json:"qsNew"`
	QSUnchanged      int                    `json:"qsUnchanged"`
	NewPOIDs         []string               `json:"newPoIds"`
	UpdatedPOIDs     []string               `json:"updatedPoIds"`
	NewQSIDs         []string               `json:"newQsIds"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
	POChanges        []PurchaseOrderChange  `json:"poChanges"`
	QSChanges        []QuantitySurveyChange `json:"qsChanges"`
}

// emptyMetadata is the zero shape written on the failure path.
func emptyMetadata(elapsedMs int64) ImportMetadata {
	return ImportMetadata{
		NewPOIDs:         []string{},
		UpdatedPOIDs:     []string{},
		NewQSIDs:         []string{},
		ProcessingTimeMs: elapsedMs,
		POChanges:        []PurchaseOrderChange{},
		QSChanges:        []QuantitySurveyChange{},
	}
}

// ImportJob mirrors one row of import_jobs.
type ImportJob struct {
	ID              string          `json:"id"`
	OrganizationID  string          `json:"organization_id"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	FileName        string          `json:"file_name"`
	FileHash        string          `json:"file_hash"`
	RowCount        int             `json:"row_count"`
	ErrorCount      int             `json:"error_count"`
	Metadata        *ImportMetadata `json:"metadata"`
	ErrorReportPath *string         `json:"error_report_path"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// ProcessingResult is what the orchestrator returns to the upload handler.
type ProcessingResult struct {
	Success       bool           `json:"success"`
	Metadata      ImportMetadata `json:"metadata"`
	Errors        []string       `json:"errors"`
	ErrorKind     ErrorKind      `json:"error_kind,omitempty"`
	RowsProcessed int            `json:"rows_processed"`
}
