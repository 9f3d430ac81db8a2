package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type POStatus string

const (
	POStatusDraft             POStatus = "DRAFT"
	POStatusBooked            POStatus = "BOOKED"
	POStatusPartiallyReceived POStatus = "PARTIALLY_RECEIVED"
	POStatusReceived          POStatus = "RECEIVED"
)

type PurchaseOrder struct {
	ID           int             `json:"id"`
	CompanyID    int             `json:"company_id"`
	SupplierID   int             `json:"supplier_id"`
	SupplierCode string          `json:"supplier_code"`
	SupplierName string          `json:"supplier_name"`
	PONumber     *string         `json:"po_number,omitempty"`
	ExternalRef  string          `json:"external_ref"`
	Status       POStatus        `json:"status"`
	PODate       string          `json:"po_date"`
	Notes        *string         `json:"notes,omitempty"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	BookedAt     *time.Time      `json:"booked_at,omitempty"`
	Lines        []PurchaseOrderLine
}

type PurchaseOrderLine struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"order_id"`
	LineNumber  int             `json:"line_number"`
	ProductID   *int            `json:"product_id,omitempty"`
	SupplierSKU *string         `json:"supplier_sku,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseOrderLineInput is a raw line as entered or OCR-extracted: a free
// text description, an optional supplier SKU, quantity and unit cost.
type PurchaseOrderLineInput struct {
	Description string
	SupplierSKU string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// BookingSummary reports what booking a purchase order did. The counts are
// for operator reporting, not control flow.
type BookingSummary struct {
	OrderID         int    `json:"order_id"`
	PONumber        string `json:"po_number"`
	ProductsCreated int    `json:"products_created"`
	ProductsMatched int    `json:"products_matched"`
	TransitCreated  int    `json:"transit_created"`
	SkippedLines    []int  `json:"skipped_lines,omitempty"`
}

// ReceivedLine is one line of a whole-PO receipt request.
type ReceivedLine struct {
	POLineID    int
	QtyReceived decimal.Decimal
}

// POReceiptResult aggregates the per-product receive results of a whole-PO
// receipt, plus the order's resulting status.
type POReceiptResult struct {
	OrderID  int             `json:"order_id"`
	Status   POStatus        `json:"status"`
	Receipts []ReceiveResult `json:"receipts"`
}
