package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ReceivingService moves ordered quantity from the transit ledger into
// on-hand stock. It is the only writer of inventory_items and the only
// mutator of transit_records after booking.
type ReceivingService interface {
	// Receive consumes the product's open transit records oldest-first until
	// qty is satisfied or the records run out, then folds the consumed value
	// into the product's weighted-average cost. A request larger than the
	// available transit quantity succeeds for the available amount and
	// reports the shortfall in RemainingRequested; callers wanting strict
	// all-or-nothing semantics must pre-check availability.
	// poLineID, if non-nil, restricts consumption to that PO line.
	// All transit updates and the inventory upsert commit atomically.
	Receive(ctx context.Context, companyCode string, productID int, qty decimal.Decimal, poLineID *int) (*ReceiveResult, error)

	GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error)
}

type receivingService struct {
	pool *pgxpool.Pool
}

// NewReceivingService constructs a ReceivingService backed by PostgreSQL.
func NewReceivingService(pool *pgxpool.Pool) ReceivingService {
	return &receivingService{pool: pool}
}

func (s *receivingService) Receive(ctx context.Context, companyCode string, productID int, qty decimal.Decimal, poLineID *int) (*ReceiveResult, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("receive quantity must be positive, got %s: %w", qty, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var companyID int
	if err := tx.QueryRow(ctx, "SELECT id FROM companies WHERE company_code = $1", companyCode).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", companyCode, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve company: %w", err)
	}

	var productExists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM products WHERE company_id = $1 AND id = $2)",
		companyID, productID,
	).Scan(&productExists); err != nil {
		return nil, fmt.Errorf("check product %d: %w", productID, err)
	}
	if !productExists {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}

	// Lock the open transit rows in a single stable FIFO order. Concurrent
	// receives for the same product queue on these locks; the ORDER BY keeps
	// lock acquisition deadlock-free across callers.
	query := `
		SELECT id, qty_ordered, qty_remaining, unit_cost
		FROM transit_records
		WHERE company_id = $1 AND product_id = $2 AND qty_remaining > 0`
	args := []any{companyID, productID}
	if poLineID != nil {
		query += " AND po_line_id = $3"
		args = append(args, *poLineID)
	}
	query += `
		ORDER BY created_at, id
		FOR UPDATE`

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lock transit records for product %d: %w", productID, err)
	}

	type transitRow struct {
		id        int
		ordered   decimal.Decimal
		remaining decimal.Decimal
		unitCost  decimal.Decimal
	}
	var open []transitRow
	for rows.Next() {
		var r transitRow
		if err := rows.Scan(&r.id, &r.ordered, &r.remaining, &r.unitCost); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transit record: %w", err)
		}
		open = append(open, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transit records: %w", err)
	}

	if len(open) == 0 {
		return nil, fmt.Errorf("product %d has no open transit records: %w", productID, ErrInsufficientTransit)
	}

	// Greedy FIFO consumption.
	outstanding := qty
	received := decimal.Zero
	costContribution := decimal.Zero
	var affected []int

	for _, rec := range open {
		if !outstanding.IsPositive() {
			break
		}
		take := outstanding
		if rec.remaining.LessThan(take) {
			take = rec.remaining
		}
		newRemaining := rec.remaining.Sub(take)

		if _, err := tx.Exec(ctx,
			"UPDATE transit_records SET qty_remaining = $1, status = $2 WHERE id = $3",
			newRemaining, string(transitStatus(rec.ordered, newRemaining)), rec.id,
		); err != nil {
			return nil, fmt.Errorf("update transit record %d: %w", rec.id, err)
		}

		received = received.Add(take)
		costContribution = costContribution.Add(take.Mul(rec.unitCost))
		outstanding = outstanding.Sub(take)
		affected = append(affected, rec.id)
	}

	if received.IsZero() {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNothingReceived)
	}

	// Lazily create the inventory row, then lock it for the read-modify-write
	// of quantity and weighted-average cost.
	var itemID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO inventory_items (company_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (company_id, product_id) DO UPDATE SET updated_at = NOW()
		RETURNING id`,
		companyID, productID,
	).Scan(&itemID); err != nil {
		return nil, fmt.Errorf("upsert inventory item for product %d: %w", productID, err)
	}

	var onHand, avgCost decimal.Decimal
	if err := tx.QueryRow(ctx,
		"SELECT qty_on_hand, avg_unit_cost FROM inventory_items WHERE id = $1 FOR UPDATE",
		itemID,
	).Scan(&onHand, &avgCost); err != nil {
		return nil, fmt.Errorf("lock inventory item %d: %w", itemID, err)
	}

	// new_avg = (on_hand * avg + received * unit_cost_of_each_consumed_record)
	//         / (on_hand + received)
	// costContribution already carries the per-record cost basis, so only the
	// value actually consumed enters the average.
	newQty := onHand.Add(received)
	newAvg := onHand.Mul(avgCost).Add(costContribution).Div(newQty).Round(4)

	if _, err := tx.Exec(ctx, `
		UPDATE inventory_items
		SET qty_on_hand = $1, avg_unit_cost = $2, updated_at = NOW()
		WHERE id = $3`,
		newQty, newAvg, itemID,
	); err != nil {
		return nil, fmt.Errorf("update inventory item %d: %w", itemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit receive for product %d: %w", productID, err)
	}

	return &ReceiveResult{
		ProductID:          productID,
		Received:           received,
		RemainingRequested: outstanding,
		NewOnHand:          newQty,
		NewAvgCost:         newAvg,
		TransitIDs:         affected,
	}, nil
}

func (s *receivingService) GetStockLevels(ctx context.Context, companyCode string) ([]StockLevel, error) {
	var companyID int
	if err := s.pool.QueryRow(ctx, "SELECT id FROM companies WHERE company_code = $1", companyCode).Scan(&companyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("company %s: %w", companyCode, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve company: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.sku, ii.qty_on_hand, ii.avg_unit_cost, ii.updated_at
		FROM inventory_items ii
		JOIN products p ON p.id = ii.product_id
		WHERE ii.company_id = $1
		ORDER BY p.id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stock levels: %w", err)
	}
	defer rows.Close()

	var levels []StockLevel
	for rows.Next() {
		var sl StockLevel
		if err := rows.Scan(&sl.ProductID, &sl.ProductName, &sl.SKU, &sl.OnHand, &sl.AvgUnitCost, &sl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		levels = append(levels, sl)
	}
	return levels, rows.Err()
}
