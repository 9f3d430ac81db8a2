package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SnapshotService is the read path over the two ledgers: one row per
// product joining on-hand inventory with open transit quantity and a
// blended expected unit cost. It never mutates anything and is safe to run
// concurrently with receiving; it sees a point-in-time transactional view.
type SnapshotService interface {
	GetSnapshot(ctx context.Context, companyCode string) ([]SnapshotRow, error)
}

type snapshotService struct {
	pool *pgxpool.Pool
}

// NewSnapshotService constructs a SnapshotService backed by PostgreSQL.
func NewSnapshotService(pool *pgxpool.Pool) SnapshotService {
	return &snapshotService{pool: pool}
}

func (s *snapshotService) GetSnapshot(ctx context.Context, companyCode string) ([]SnapshotRow, error) {
	var companyID int
	if err := s.pool.QueryRow(ctx, "SELECT id FROM companies WHERE company_code = $1", companyCode).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", companyCode, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve company: %w", err)
	}

	// The in-transit value falls back to the originating PO line's unit cost
	// when the transit record's stored cost is missing or non-positive.
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.company_id, p.name, p.sku, p.supplier_sku, p.barcodes, p.aliases,
		       p.supplier_id, p.category, p.tags, p.is_active, p.created_at,
		       ii.id, ii.qty_on_hand, ii.avg_unit_cost, ii.updated_at,
		       COALESCE(SUM(t.qty_remaining), 0) AS qty_in_transit,
		       COALESCE(SUM(t.qty_remaining *
		           CASE WHEN t.unit_cost > 0 THEN t.unit_cost
		                ELSE COALESCE(pol.unit_cost, 0) END), 0) AS transit_value
		FROM products p
		LEFT JOIN inventory_items ii ON ii.company_id = p.company_id AND ii.product_id = p.id
		LEFT JOIN transit_records t ON t.product_id = p.id AND t.qty_remaining > 0
		LEFT JOIN purchase_order_lines pol ON pol.id = t.po_line_id
		WHERE p.company_id = $1 AND p.is_active = true
		GROUP BY p.id, ii.id
		ORDER BY p.id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var snapshot []SnapshotRow
	for rows.Next() {
		var (
			p            Product
			invID        *int
			invOnHand    *decimal.Decimal
			invAvgCost   *decimal.Decimal
			invUpdatedAt *time.Time
			inTransit    decimal.Decimal
			transitValue decimal.Decimal
		)
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Name, &p.SKU, &p.SupplierSKU, &p.Barcodes, &p.Aliases,
			&p.SupplierID, &p.Category, &p.Tags, &p.IsActive, &p.CreatedAt,
			&invID, &invOnHand, &invAvgCost, &invUpdatedAt,
			&inTransit, &transitValue,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		row := SnapshotRow{Product: p, QuantityInTransit: inTransit}

		onHand := decimal.Zero
		avgCost := decimal.Zero
		if invID != nil {
			onHand = *invOnHand
			avgCost = *invAvgCost
			row.Inventory = &InventoryItem{
				ID:          *invID,
				CompanyID:   p.CompanyID,
				ProductID:   p.ID,
				QtyOnHand:   onHand,
				AvgUnitCost: avgCost,
				UpdatedAt:   *invUpdatedAt,
			}
		}

		blendedQty := onHand.Add(inTransit)
		if blendedQty.IsPositive() {
			blendedValue := onHand.Mul(avgCost).Add(transitValue)
			row.ExpectedUnitCost = blendedValue.Div(blendedQty).Round(4)
		}

		// A product with stock on order but nothing on hand yet still gets
		// an inventory view so consumers always see an expected cost.
		if row.Inventory == nil && transitValue.IsPositive() {
			row.Inventory = &InventoryItem{
				CompanyID:   p.CompanyID,
				ProductID:   p.ID,
				QtyOnHand:   decimal.Zero,
				AvgUnitCost: row.ExpectedUnitCost,
			}
		}

		snapshot = append(snapshot, row)
	}
	return snapshot, rows.Err()
}
