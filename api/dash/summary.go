package dash

import (
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"AestrakTrack/api"
)

// Utilization buckets rendered by the dashboard donut chart.
const (
	bucketOnTrack  = "On Track"
	bucketMonitor  = "Monitor"
	bucketCritical = "Critical"
	bucketOverAuth = "Over Auth"
)

// Handler: GetUtilizationDistribution
// Buckets every PO of an organization by utilization percent, optionally
// restricted to POs starting within a date range.
func GetUtilizationDistribution(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizationID := r.URL.Query().Get("organization_id")
		if organizationID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "organization_id is required")
			return
		}

		query := `SELECT utilization_percent FROM purchase_orders WHERE organization_id = $1`
		args := []interface{}{organizationID}
		if startDate := r.URL.Query().Get("start_date"); startDate != "" {
			args = append(args, startDate)
			query += ` AND start_date >= $` + strconv.Itoa(len(args))
		}
		if endDate := r.URL.Query().Get("end_date"); endDate != "" {
			args = append(args, endDate)
			query += ` AND start_date <= $` + strconv.Itoa(len(args))
		}

		rows, err := pgxPool.Query(ctx, query, args...)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		counts := map[string]int{
			bucketOnTrack:  0,
			bucketMonitor:  0,
			bucketCritical: 0,
			bucketOverAuth: 0,
		}
		for rows.Next() {
			var utilization float64
			if err := rows.Scan(&utilization); err != nil {
				api.RespondWithError(w, http.StatusInternalServerError, err.Error())
				return
			}
			switch {
			case utilization < 75:
				counts[bucketOnTrack]++
			case utilization < 90:
				counts[bucketMonitor]++
			case utilization < 100:
				counts[bucketCritical]++
			default:
				counts[bucketOverAuth]++
			}
		}
		if rows.Err() != nil {
			api.RespondWithError(w, http.StatusInternalServerError, rows.Err().Error())
			return
		}

		type Bucket struct {
			Status string `json:"status"`
			Count  int    `json:"count"`
		}
		distribution := []Bucket{
			{bucketOnTrack, counts[bucketOnTrack]},
			{bucketMonitor, counts[bucketMonitor]},
			{bucketCritical, counts[bucketCritical]},
			{bucketOverAuth, counts[bucketOverAuth]},
		}
		api.RespondWithPayload(w, true, "", distribution)
	}
}

// Handler: GetTopPurchaseOrders
// Returns the N most utilized POs of an organization.
func GetTopPurchaseOrders(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizationID := r.URL.Query().Get("organization_id")
		if organizationID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "organization_id is required")
			return
		}
		limit := 10
		if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
			limit = l
		}

		rows, err := pgxPool.Query(ctx, `
			SELECT purchase_order_no, order_short_text, order_value,
			       total_spent, utilization_percent
			FROM purchase_orders
			WHERE organization_id = $1
			ORDER BY utilization_percent DESC, order_value DESC
			LIMIT $2
		`, organizationID, limit)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		defer rows.Close()

		type Item struct {
			PurchaseOrderNo    string  `json:"purchase_order_no"`
			OrderShortText     *string `json:"order_short_text"`
			OrderValue         float64 `json:"order_value"`
			TotalSpent         float64 `json:"total_spent"`
			UtilizationPercent float64 `json:"utilization_percent"`
		}
		results := make([]Item, 0)
		for rows.Next() {
			var it Item
			if err := rows.Scan(&it.PurchaseOrderNo, &it.OrderShortText, &it.OrderValue, &it.TotalSpent, &it.UtilizationPercent); err != nil {
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

// Handler: GetOrganizationSummary
// Headline totals for the landing page cards.
func GetOrganizationSummary(pgxPool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		organizationID := r.URL.Query().Get("organization_id")
		if organizationID == "" {
			api.RespondWithError(w, http.StatusBadRequest, "organization_id is required")
			return
		}

		var summary struct {
			POCount         int     `json:"po_count"`
			QSCount         int     `json:"qs_count"`
			TotalAuthorized float64 `json:"total_authorized"`
			TotalSpent      float64 `json:"total_spent"`
			TotalRemaining  float64 `json:"total_remaining"`
		}
		err := pgxPool.QueryRow(ctx, `
			SELECT COUNT(*),
			       COALESCE(SUM(order_value), 0),
			       COALESCE(SUM(total_spent), 0),
			       COALESCE(SUM(remaining_budget), 0)
			FROM purchase_orders
			WHERE organization_id = $1
		`, organizationID).Scan(&summary.POCount, &summary.TotalAuthorized, &summary.TotalSpent, &summary.TotalRemaining)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		err = pgxPool.QueryRow(ctx, `
			SELECT COUNT(*) FROM quantity_surveys WHERE organization_id = $1
		`, organizationID).Scan(&summary.QSCount)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": summary})
	}
}
