package dash

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"AestrakTrack/api"
)

// Handler: GetPurchaseOrders
// Returns the stored financial roll-up for every PO of an organization,
// newest first.
func GetPurchaseOrders(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizationID := r.URL.Query().Get("organization_id")
		if organizationID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "organization_id is required")
			return
		}

		rows, err := pgxPool.Query(ctx, `
			SELECT id, purchase_order_no, status, order_value, total_spent,
			       remaining_budget, utilization_percent, vendor_short_term,
			       work_coordinator_name, start_date, completion_date,
			       to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ')
			FROM purchase_orders
			WHERE organization_id = $1
			ORDER BY created_at DESC
		`, organizationID)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		type Item struct {
			ID                  string   `json:"id"`
			PurchaseOrderNo     string   `json:"purchase_order_no"`
			Status              string   `json:"status"`
			OrderValue          float64  `json:"order_value"`
			TotalSpent          float64  `json:"total_spent"`
			RemainingBudget     float64  `json:"remaining_budget"`
			UtilizationPercent  float64  `json:"utilization_percent"`
			VendorShortTerm     *string  `json:"vendor_short_term"`
			WorkCoordinatorName *string  `json:"work_coordinator_name"`
			StartDate           *string  `json:"start_date"`
			CompletionDate      *string  `json:"completion_date"`
			CreatedAt           string   `json:"created_at"`
		}

		results := make([]Item, 0)
		for rows.Next() {
			var it Item
			if err := rows.Scan(
				&it.ID,
				&it.PurchaseOrderNo,
				&it.Status,
				&it.OrderValue,
				&it.TotalSpent,
				&it.RemainingBudget,
				&it.UtilizationPercent,
				&it.VendorShortTerm,
				&it.WorkCoordinatorName,
				&it.StartDate,
				&it.CompletionDate,
				&it.CreatedAt,
			); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			results = append(results, it)
		}
		if rows.Err() != nil {
			api.RespondWithError(w, http.StatusInternalServerError, rows.Err().Error())
			return
		}
		api.RespondWithPayload(w, true, "", results)
	}
}

// Handler: GetQuantitySurveys
// Returns QS lines for an organization, optionally narrowed to one PO
// number.
func GetQuantitySurveys(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizationID := r.URL.Query().Get("organization_id")
		if organizationID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "organization_id is required")
			return
		}
		poNumber := r.URL.Query().Get("purchase_order_no")

		query := `
			SELECT id, purchase_order_no, qs_number, quantity_survey_short_text,
			       contractor_contact, total, created_date, invoice_number,
			       invoice_date, accounting_document, import_job_id
			FROM quantity_surveys
			WHERE organization_id = $1`
		args := []interface{}{organizationID}
		if poNumber != "" {
			query += ` AND purchase_order_no = $2`
			args = append(args, poNumber)
		}
		query += ` ORDER BY created_date DESC NULLS LAST, qs_number`

		rows, err := pgxPool.Query(ctx, query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		type Item struct {
			ID                      string  `json:"id"`
			PurchaseOrderNo         string  `json:"purchase_order_no"`
			QSNumber                string  `json:"qs_number"`
			QuantitySurveyShortText *string `json:"quantity_survey_short_text"`
			ContractorContact       *string `json:"contractor_contact"`
			Total                   float64 `json:"total"`
			CreatedDate             *string `json:"created_date"`
			InvoiceNumber           *string `json:"invoice_number"`
			InvoiceDate             *string `json:"invoice_date"`
			AccountingDocument      *string `json:"accounting_document"`
			ImportJobID             *string `json:"import_job_id"`
		}

		results := make([]Item, 0)
		for rows.Next() {
			var it Item
			if err := rows.Scan(
				&it.ID,
				&it.PurchaseOrderNo,
				&it.QSNumber,
				&it.QuantitySurveyShortText,
				&it.ContractorContact,
				&it.Total,
				&it.CreatedDate,
				&it.InvoiceNumber,
				&it.InvoiceDate,
				&it.AccountingDocument,
				&it.ImportJobID,
			); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			results = append(results, it)
		}
		if rows.Err() != nil {
			api.RespondWithError(w, http.StatusInternalServerError, rows.Err().Error())
			return
		}
		api.RespondWithPayload(w, true, "", results)
	}
}
