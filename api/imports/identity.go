package imports

import "github.com/google/uuid"

// Per-entity-type UUIDv5 namespaces. Deriving record ids from a fixed
// namespace and the record's natural key makes repeated imports collide
// onto the same row instead of duplicating it, across restarts and hosts.
var (
	poNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("aestrak/purchase-order"))
	qsNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("aestrak/quantity-survey"))
)

// DeterministicID returns the RFC 4122 v5 UUID of naturalKey within the
// given namespace.
func DeterministicID(namespace uuid.UUID, naturalKey string) string {
	return uuid.NewSHA1(namespace, []byte(naturalKey)).String()
}

// PurchaseOrderID derives the stable id of a PO from its order number.
func PurchaseOrderID(purchaseOrderNo string) string {
	return DeterministicID(poNamespace, purchaseOrderNo)
}

// QuantitySurveyID derives the stable id of a QS line. QS numbers are only
// unique per PO in practice, so the natural key is the compound
// "poNo:qsNo".
func QuantitySurveyID(purchaseOrderNo, qsNumber string) string {
	return DeterministicID(qsNamespace, purchaseOrderNo+":"+qsNumber)
}
