package imports

import (
	"AestrakTrack/internal/sheet"
)

// ProcessQSRecord computes one QuantitySurveyRecord from a parsed QS row.
// PO linkage is resolved against the PO ids of the current import batch,
// not the store; a QS row referencing a PO absent from this run keeps its
// PO number but gets no PurchaseOrderID. Classification is binary: a QS
// number already known to the store is unchanged, anything else is new.
func ProcessQSRecord(row map[string]string, organizationID, importJobID string, poIDs map[string]string, existingQSNumbers map[string]bool) QuantitySurveyRecord {
	poNumber := sheet.Text(row["Purchase order No."])
	qsNumber := sheet.Text(row["Q.S. number"])

	var purchaseOrderID *string
	if id, ok := poIDs[poNumber]; ok {
		purchaseOrderID = &id
	}

	status := StatusNew
	if existingQSNumbers[qsNumber] {
		status = StatusUnchanged
	}

	contact := sheet.Text(row["Contractor contact"])
	if contact == "" {
		contact = sheet.Text(row["Contractor Contact"])
	}

	return QuantitySurveyRecord{
		ID:                      QuantitySurveyID(poNumber, qsNumber),
		OrganizationID:          organizationID,
		PurchaseOrderID:         purchaseOrderID,
		PurchaseOrderNo:         poNumber,
		QSNumber:                qsNumber,
		QuantitySurveyShortText: sheet.Text(row["Quantity survey short text"]),
		ContractorContact:       contact,
		VendorID:                sheet.Text(row["Vendor ID"]),
		Total:                   sheet.Number(row["TOTAL"]),
		CreatedDate:             sheet.Date(row["CREATED"]),
		TransferDate:            sheet.Date(row["TRANSFERED"]),
		AcceptedDate:            sheet.Date(row["Accepted"]),
		InvoiceNumber:           sheet.Text(row["Invoice number"]),
		InvoiceDate:             sheet.Date(row["Invoice Document Date"]),
		AccountingDocument:      sheet.Text(row["Accounting Document"]),
		ImportJobID:             importJobID,
		ImportStatus:            status,
	}
}

// qsChangeEntry builds the change-report entry for a newly seen QS line.
func qsChangeEntry(qs QuantitySurveyRecord) QuantitySurveyChange {
	return QuantitySurveyChange{
		ID:                qs.ID,
		PurchaseOrderNo:   qs.PurchaseOrderNo,
		QSNumber:          qs.QSNumber,
		Total:             qs.Total,
		CreatedDate:       qs.CreatedDate,
		ContractorContact: qs.ContractorContact,
	}
}

// batchRecords splits records into size-bounded chunks for persistence.
func batchRecords(records []QuantitySurveyRecord, size int) [][]QuantitySurveyRecord {
	var batches [][]QuantitySurveyRecord
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}
