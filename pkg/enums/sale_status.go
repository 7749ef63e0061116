package enums

import "slices"

// SaleStatus moves draft -> completed -> voided, or draft -> voided.
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "draft"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusVoided    SaleStatus = "voided"
)

var saleStatuses = []SaleStatus{SaleStatusDraft, SaleStatusCompleted, SaleStatusVoided}

func ParseSaleStatus(value string) (SaleStatus, error) {
	return parse("sale status", value, saleStatuses)
}

func (s SaleStatus) String() string { return string(s) }

func (s SaleStatus) IsValid() bool { return slices.Contains(saleStatuses, s) }

// IsTerminal reports whether items, discounts and payments are frozen.
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusCompleted || s == SaleStatusVoided
}
