package imports

import (
	"math"

	"github.com/shopspring/decimal"

	"AestrakTrack/internal/config"
	"AestrakTrack/internal/sheet"
)

// round2 rounds to two decimal places, half away from zero. All money and
// percent figures are stored at this precision.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// BuildQSTotals aggregates QS billing totals per PO number in a single
// pass. Rows without a PO number are skipped.
func BuildQSTotals(qsRows []map[string]string) map[string]float64 {
	totals := make(map[string]float64)
	for _, row := range qsRows {
		poNumber := sheet.Text(row["Purchase order No."])
		if poNumber == "" {
			continue
		}
		totals[poNumber] += sheet.Number(row["TOTAL"])
	}
	return totals
}

// ProcessPORecord computes one PurchaseOrderRecord from a parsed PO row:
// derived financials from the QS aggregate, plus new/updated/unchanged
// classification against the prior snapshot for the same PO number.
func ProcessPORecord(row map[string]string, organizationID string, qsTotals map[string]float64, existing map[string]ExistingPO) PurchaseOrderRecord {
	poNumber := sheet.Text(row["Purchase order No."])
	orderValue := sheet.Number(row["Order value"])
	totalSpent := qsTotals[poNumber]
	remainingBudget := math.Max(orderValue-totalSpent, 0)

	utilizationPercent := 0.0
	if orderValue > 0 {
		utilizationPercent = round2(totalSpent / orderValue * 100)
	}

	status := sheet.Text(row["Status"])
	if status == "" {
		status = "open"
	}
	coordinator := sheet.Text(row["Name"])
	if coordinator == "" {
		coordinator = sheet.Text(row["Work coordinator"])
	}

	record := PurchaseOrderRecord{
		ID:                  PurchaseOrderID(poNumber),
		OrganizationID:      organizationID,
		PurchaseOrderNo:     poNumber,
		Status:              status,
		Company:             sheet.Text(row["Company"]),
		OrderShortText:      sheet.Text(row["Order short text"]),
		OrderValue:          orderValue,
		TotalSpent:          round2(totalSpent),
		RemainingBudget:     round2(remainingBudget),
		UtilizationPercent:  utilizationPercent,
		VendorID:            sheet.Text(row["Vendor ID"]),
		VendorShortTerm:     sheet.Text(row["Short term"]),
		WorkCoordinatorName: coordinator,
		StartDate:           sheet.Date(row["Start date"]),
		CompletionDate:      sheet.Date(row["Date of completion"]),
		ImportStatus:        StatusNew,
	}

	if prior, ok := existing[poNumber]; ok {
		prevSpent := prior.TotalSpent
		prevUtil := prior.UtilizationPercent
		record.PreviousTotalSpent = &prevSpent
		record.PreviousUtilizationPercent = &prevUtil
		// Utilization is the change indicator: within epsilon the PO is
		// considered untouched even if cosmetic fields moved.
		if math.Abs(prevUtil-utilizationPercent) < config.UtilizationEpsilon {
			record.ImportStatus = StatusUnchanged
		} else {
			record.ImportStatus = StatusUpdated
		}
	}

	return record
}

// poChangeEntry builds the change-report entry for a new or updated PO.
func poChangeEntry(po PurchaseOrderRecord) PurchaseOrderChange {
	change := PurchaseOrderChange{
		ID:                         po.ID,
		PurchaseOrderNo:            po.PurchaseOrderNo,
		OrderShortText:             po.OrderShortText,
		Status:                     po.Status,
		OrderValue:                 po.OrderValue,
		TotalSpent:                 po.TotalSpent,
		PreviousTotalSpent:         po.PreviousTotalSpent,
		UtilizationPercent:         po.UtilizationPercent,
		PreviousUtilizationPercent: po.PreviousUtilizationPercent,
		RemainingBudget:            po.RemainingBudget,
		ChangeType:                 string(po.ImportStatus),
	}
	if po.PreviousTotalSpent != nil {
		d := round2(po.TotalSpent - *po.PreviousTotalSpent)
		change.TotalSpentDelta = &d
	}
	if po.PreviousUtilizationPercent != nil {
		d := round2(po.UtilizationPercent - *po.PreviousUtilizationPercent)
		change.UtilizationDelta = &d
	}
	return change
}
