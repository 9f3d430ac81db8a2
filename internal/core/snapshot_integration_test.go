package core_test

import (
	"context"
	"testing"
	"time"

	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

func TestSnapshot_BlendedCost(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	receiving := core.NewReceivingService(pool)
	snapshot := core.NewSnapshotService(pool)

	productID := seedProduct(t, ctx, pool, "Pokemon 151 Booster Box", "", nil, nil)

	// 5 on hand at 1.00, 5 still in transit at 3.00.
	seedTransit(t, ctx, pool, productID, decimal.NewFromInt(5), decimal.NewFromInt(1), 2*time.Hour)
	if _, err := receiving.Receive(ctx, "1000", productID, decimal.NewFromInt(5), nil); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	seedTransit(t, ctx, pool, productID, decimal.NewFromInt(5), decimal.NewFromInt(3), time.Hour)

	rows, err := snapshot.GetSnapshot(ctx, "1000")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	row := rows[0]
	if !row.QuantityInTransit.Equal(decimal.NewFromInt(5)) {
		t.Errorf("in transit = %s, want 5", row.QuantityInTransit)
	}
	if row.Inventory == nil {
		t.Fatal("inventory missing from snapshot row")
	}
	if !row.Inventory.QtyOnHand.Equal(decimal.NewFromInt(5)) {
		t.Errorf("on hand = %s, want 5", row.Inventory.QtyOnHand)
	}
	// blended = (5*1 + 5*3) / 10 = 2
	if !row.ExpectedUnitCost.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected unit cost = %s, want 2", row.ExpectedUnitCost)
	}
}

func TestSnapshot_TransitOnlyProduct(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	snapshot := core.NewSnapshotService(pool)

	productID := seedProduct(t, ctx, pool, "Charizard Premium Collection", "", nil, nil)
	seedTransit(t, ctx, pool, productID, decimal.NewFromInt(4), decimal.RequireFromString("12.50"), time.Hour)

	rows, err := snapshot.GetSnapshot(ctx, "1000")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	row := rows[0]

	// No stock was ever received, but the snapshot still carries a view with
	// zero on hand and the expected cost of what is on order.
	if row.Inventory == nil {
		t.Fatal("expected a synthesized inventory view for transit-only product")
	}
	if !row.Inventory.QtyOnHand.IsZero() {
		t.Errorf("on hand = %s, want 0", row.Inventory.QtyOnHand)
	}
	if !row.ExpectedUnitCost.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected unit cost = %s, want 12.5", row.ExpectedUnitCost)
	}
	if !row.QuantityInTransit.Equal(decimal.NewFromInt(4)) {
		t.Errorf("in transit = %s, want 4", row.QuantityInTransit)
	}
}

func TestSnapshot_POLineCostFallback(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	snapshot := core.NewSnapshotService(pool)

	productID := seedProduct(t, ctx, pool, "Pikachu Premium Collection", "", nil, nil)
	transitID := seedTransit(t, ctx, pool, productID, decimal.NewFromInt(2), decimal.NewFromInt(8), time.Hour)

	// Zero out the transit record's cost; the snapshot must fall back to the
	// originating PO line's unit cost.
	if _, err := pool.Exec(ctx, "UPDATE transit_records SET unit_cost = 0 WHERE id = $1", transitID); err != nil {
		t.Fatalf("Failed to zero transit cost: %v", err)
	}

	rows, err := snapshot.GetSnapshot(ctx, "1000")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if !rows[0].ExpectedUnitCost.Equal(decimal.NewFromInt(8)) {
		t.Errorf("expected unit cost = %s, want PO line fallback 8", rows[0].ExpectedUnitCost)
	}
}

func TestSnapshot_ProductWithNoActivity(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	snapshot := core.NewSnapshotService(pool)

	seedProduct(t, ctx, pool, "Dormant Product", "", nil, nil)

	rows, err := snapshot.GetSnapshot(ctx, "1000")
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	row := rows[0]
	if row.Inventory != nil {
		t.Error("product with no receipts and no transit should have nil inventory")
	}
	if !row.QuantityInTransit.IsZero() || !row.ExpectedUnitCost.IsZero() {
		t.Errorf("expected zero transit and cost, got %s / %s", row.QuantityInTransit, row.ExpectedUnitCost)
	}
}
