package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is the on-hand ledger row for one product: at most one per
// product, created lazily on first receipt and mutated only by the receiving
// engine using the running weighted-average formula.
type InventoryItem struct {
	ID          int             `json:"id"`
	CompanyID   int             `json:"company_id"`
	ProductID   int             `json:"product_id"`
	QtyOnHand   decimal.Decimal `json:"qty_on_hand"`
	AvgUnitCost decimal.Decimal `json:"avg_unit_cost"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockLevel is a read view of an inventory item joined with its product.
type StockLevel struct {
	ProductID   int
	ProductName string
	SKU         *string
	OnHand      decimal.Decimal
	AvgUnitCost decimal.Decimal // weighted average purchase cost
	UpdatedAt   time.Time
}

// ReceiveResult reports what one receive call actually did.
type ReceiveResult struct {
	ProductID          int             `json:"product_id"`
	Received           decimal.Decimal `json:"received_quantity"`
	RemainingRequested decimal.Decimal `json:"remaining_requested_quantity"`
	NewOnHand          decimal.Decimal `json:"new_on_hand"`
	NewAvgCost         decimal.Decimal `json:"new_average_cost"`
	TransitIDs         []int           `json:"affected_transit_ids"`
}

// SnapshotRow is one product's consolidated stock position: on-hand,
// quantity still in transit, and a blended expected unit cost combining
// on-hand value with the value still on order. Inventory is synthesized
// (on-hand 0, avg = blended cost) for products that have open transit but
// no inventory row yet, and nil when there is neither.
type SnapshotRow struct {
	Product           Product         `json:"product"`
	Inventory         *InventoryItem  `json:"inventory,omitempty"`
	QuantityInTransit decimal.Decimal `json:"quantity_in_transit"`
	ExpectedUnitCost  decimal.Decimal `json:"expected_unit_cost"`
}
