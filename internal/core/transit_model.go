package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransitStatus string

const (
	TransitStatusInTransit         TransitStatus = "in_transit"
	TransitStatusPartiallyReceived TransitStatus = "partially_received"
	TransitStatusReceived          TransitStatus = "received"
)

// TransitRecord is ordered-but-not-yet-received quantity for one booked PO
// line. QtyOrdered and UnitCost are fixed at booking; QtyRemaining only ever
// decreases, and only through the receiving engine.
type TransitRecord struct {
	ID           int             `json:"id"`
	CompanyID    int             `json:"company_id"`
	ProductID    int             `json:"product_id"`
	OrderID      int             `json:"order_id"`
	POLineID     int             `json:"po_line_id"`
	SupplierID   int             `json:"supplier_id"`
	QtyOrdered   decimal.Decimal `json:"qty_ordered"`
	QtyRemaining decimal.Decimal `json:"qty_remaining"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Status       TransitStatus   `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// transitStatus derives the record status from remaining vs ordered.
func transitStatus(ordered, remaining decimal.Decimal) TransitStatus {
	switch {
	case remaining.IsZero():
		return TransitStatusReceived
	case remaining.LessThan(ordered):
		return TransitStatusPartiallyReceived
	default:
		return TransitStatusInTransit
	}
}
