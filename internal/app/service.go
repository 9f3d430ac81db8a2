package app

import (
	"context"

	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

// ApplicationService is the single interface all UI adapters call. It
// decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// LoadDefaultCompany returns the company identified by the COMPANY_CODE
	// environment variable, or the only company in the database if unset.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)

	// ListProducts returns all active products for a company.
	ListProducts(ctx context.Context, companyCode string) (*ProductListResult, error)

	// MatchProduct resolves a free-text description against the company's
	// catalog without creating anything. A nil Product means no match.
	MatchProduct(ctx context.Context, companyCode, description string) (*MatchResult, error)

	// AddBarcode attaches a barcode to a product. Re-adding a barcode the
	// product already carries succeeds without change.
	AddBarcode(ctx context.Context, companyCode string, productID int, barcode string) (*ProductResult, error)

	// DeleteProduct removes a product; its inventory and transit records go
	// with it, while PO line history survives unlinked.
	DeleteProduct(ctx context.Context, companyCode string, productID int) error

	// ListSuppliers returns all active suppliers for a company.
	ListSuppliers(ctx context.Context, companyCode string) (*SupplierListResult, error)

	// CreateSupplier creates a new supplier.
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierResult, error)

	// CreatePurchaseOrder creates a new DRAFT purchase order.
	CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error)

	// BookPurchaseOrder matches every line to a product, creates transit
	// records and moves the order from DRAFT to BOOKED.
	BookPurchaseOrder(ctx context.Context, companyCode string, poID int) (*BookingResult, error)

	// ListPurchaseOrders returns purchase orders, optionally filtered by status.
	ListPurchaseOrders(ctx context.Context, companyCode, status string) (*PurchaseOrderListResult, error)

	// GetPurchaseOrder returns a single purchase order with its lines.
	GetPurchaseOrder(ctx context.Context, companyCode string, poID int) (*PurchaseOrderResult, error)

	// Receive records goods arriving for a product, consuming its transit
	// records oldest first and updating the weighted average cost.
	Receive(ctx context.Context, companyCode string, productID int, qty decimal.Decimal) (*ReceiveResult, error)

	// ReceivePurchaseOrder records a whole-PO receipt line by line.
	ReceivePurchaseOrder(ctx context.Context, req ReceivePORequest) (*POReceiptResult, error)

	// GetStockLevels returns current on-hand quantities and costs.
	GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error)

	// GetSnapshot returns the combined on-hand plus in-transit view of the
	// catalog with blended expected unit costs.
	GetSnapshot(ctx context.Context, companyCode string) (*SnapshotResult, error)
}
