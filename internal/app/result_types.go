package app

import (
	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products    []core.Product
	CompanyCode string
}

// ProductResult is returned by single-product operations.
type ProductResult struct {
	Product *core.Product
}

// MatchResult is returned by MatchProduct. Product is nil when nothing in
// the catalog matched; Score is only meaningful for fuzzy matches.
type MatchResult struct {
	Product *core.Product
	Matched bool
}

// SupplierListResult is returned by ListSuppliers.
type SupplierListResult struct {
	Suppliers []core.Supplier
}

// SupplierResult is returned by CreateSupplier.
type SupplierResult struct {
	Supplier *core.Supplier
}

// PurchaseOrderResult is returned by purchase order lifecycle operations.
type PurchaseOrderResult struct {
	Order *core.PurchaseOrder
}

// PurchaseOrderListResult is returned by ListPurchaseOrders.
type PurchaseOrderListResult struct {
	Orders      []core.PurchaseOrder
	CompanyCode string
}

// BookingResult is returned by BookPurchaseOrder.
type BookingResult struct {
	Summary *core.BookingSummary
	Order   *core.PurchaseOrder
}

// ReceiveResult is returned by Receive.
type ReceiveResult struct {
	Receipt *core.ReceiveResult
}

// POReceiptResult is returned by ReceivePurchaseOrder.
type POReceiptResult struct {
	Receipt *core.POReceiptResult
}

// StockResult is returned by GetStockLevels.
type StockResult struct {
	Levels      []core.StockLevel
	CompanyCode string
}

// SnapshotResult is returned by GetSnapshot.
type SnapshotResult struct {
	Rows        []core.SnapshotRow
	CompanyCode string

	// Totals across all rows, valued at avg cost on hand and expected cost
	// in transit.
	TotalOnHand    decimal.Decimal
	TotalInTransit decimal.Decimal
}
