package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockroom/internal/core"

	"github.com/shopspring/decimal"
)

func TestPurchaseOrder_CreateDraft(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)

	po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
		{Description: "Pokemon 151 Booster Box", SupplierSKU: "PKM-151", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
		{Description: "Magic Commander Deck", Quantity: decimal.NewFromInt(4), UnitCost: decimal.RequireFromString("24.50")},
	}, "first stock order")
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}

	if po.Status != core.POStatusDraft {
		t.Errorf("status = %s, want DRAFT", po.Status)
	}
	if po.PONumber != nil {
		t.Error("draft order must not carry a PO number")
	}
	if po.ExternalRef == "" {
		t.Error("order must carry an external reference from creation")
	}
	if len(po.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(po.Lines))
	}
	// total = 10*5 + 4*24.50 = 148
	if !po.Total.Equal(decimal.NewFromInt(148)) {
		t.Errorf("total = %s, want 148", po.Total)
	}
	if po.Lines[0].ProductID != nil {
		t.Error("draft lines must not be matched to products yet")
	}
}

func TestPurchaseOrder_Book(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)
	products := core.NewProductService(pool, testLogger())

	existingID := seedProduct(t, ctx, pool, "Pokemon 151 Booster Box", "", nil, nil)

	po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
		{Description: "POKEMON 151 BOOSTER BOX (ENG)", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
		{Description: "Yugioh Rarity Collection Tin", Quantity: decimal.NewFromInt(6), UnitCost: decimal.NewFromInt(3)},
	}, "")
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}

	summary, err := svc.BookPO(ctx, "1000", po.ID, products)
	if err != nil {
		t.Fatalf("BookPO failed: %v", err)
	}
	if summary.ProductsMatched != 1 || summary.ProductsCreated != 1 {
		t.Errorf("matched=%d created=%d, want 1/1", summary.ProductsMatched, summary.ProductsCreated)
	}
	if summary.TransitCreated != 2 {
		t.Errorf("transit created = %d, want 2", summary.TransitCreated)
	}
	if summary.PONumber != "PO-00001" {
		t.Errorf("PO number = %s, want PO-00001", summary.PONumber)
	}

	booked, err := svc.GetPO(ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPO failed: %v", err)
	}
	if booked.Status != core.POStatusBooked {
		t.Errorf("status = %s, want BOOKED", booked.Status)
	}
	if booked.Lines[0].ProductID == nil || *booked.Lines[0].ProductID != existingID {
		t.Error("fuzzy-matched line not stamped with existing product")
	}

	// One transit record per usable line, qty_remaining starts at qty_ordered.
	var count int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM transit_records WHERE order_id = $1 AND qty_remaining = qty_ordered",
		po.ID,
	).Scan(&count); err != nil {
		t.Fatalf("Failed to count transit records: %v", err)
	}
	if count != 2 {
		t.Errorf("open transit records = %d, want 2", count)
	}
}

func TestPurchaseOrder_Book_SkipsUnusableLines(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)
	products := core.NewProductService(pool, testLogger())

	po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
		{Description: "Pokemon 151 Booster Box", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
		{Description: "Carriage / Shipping", Quantity: decimal.Zero, UnitCost: decimal.NewFromInt(15)},
		{Description: "   ", Quantity: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(2)},
	}, "")
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}

	summary, err := svc.BookPO(ctx, "1000", po.ID, products)
	if err != nil {
		t.Fatalf("BookPO failed: %v", err)
	}
	if summary.TransitCreated != 1 {
		t.Errorf("transit created = %d, want 1", summary.TransitCreated)
	}
	if len(summary.SkippedLines) != 2 {
		t.Errorf("skipped lines = %v, want line numbers 2 and 3", summary.SkippedLines)
	}
}

func TestPurchaseOrder_Book_RequiresDraft(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)
	products := core.NewProductService(pool, testLogger())

	po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
		{Description: "Pokemon 151 Booster Box", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
	}, "")
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}

	if _, err := svc.BookPO(ctx, "1000", po.ID, products); err != nil {
		t.Fatalf("first BookPO failed: %v", err)
	}
	if _, err := svc.BookPO(ctx, "1000", po.ID, products); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("second booking: expected ErrInvalidInput, got %v", err)
	}
}

func TestPurchaseOrder_GaplessNumbering(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)
	products := core.NewProductService(pool, testLogger())

	want := []string{"PO-00001", "PO-00002", "PO-00003"}
	for _, expected := range want {
		po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
			{Description: "Pokemon 151 Booster Box", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(5)},
		}, "")
		if err != nil {
			t.Fatalf("CreatePO failed: %v", err)
		}
		summary, err := svc.BookPO(ctx, "1000", po.ID, products)
		if err != nil {
			t.Fatalf("BookPO failed: %v", err)
		}
		if summary.PONumber != expected {
			t.Errorf("PO number = %s, want %s", summary.PONumber, expected)
		}
	}
}

func TestPurchaseOrder_ReceiveLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)
	products := core.NewProductService(pool, testLogger())
	receiving := core.NewReceivingService(pool)

	// Book 10 Widget A at 5.00.
	po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
		{Description: "Widget A", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
	}, "")
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}
	if _, err := svc.BookPO(ctx, "1000", po.ID, products); err != nil {
		t.Fatalf("BookPO failed: %v", err)
	}

	booked, err := svc.GetPO(ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPO failed: %v", err)
	}
	lineID := booked.Lines[0].ID

	// First delivery: 4 of 10.
	result, err := svc.ReceivePO(ctx, "1000", po.ID, []core.ReceivedLine{
		{POLineID: lineID, QtyReceived: decimal.NewFromInt(4)},
	}, receiving)
	if err != nil {
		t.Fatalf("first ReceivePO failed: %v", err)
	}
	if result.Status != core.POStatusPartiallyReceived {
		t.Errorf("status after partial delivery = %s, want PARTIALLY_RECEIVED", result.Status)
	}
	if !result.Receipts[0].NewOnHand.Equal(decimal.NewFromInt(4)) {
		t.Errorf("on hand = %s, want 4", result.Receipts[0].NewOnHand)
	}
	if !result.Receipts[0].NewAvgCost.Equal(decimal.NewFromInt(5)) {
		t.Errorf("avg cost = %s, want 5", result.Receipts[0].NewAvgCost)
	}

	// Second delivery: remaining 6.
	result, err = svc.ReceivePO(ctx, "1000", po.ID, []core.ReceivedLine{
		{POLineID: lineID, QtyReceived: decimal.NewFromInt(6)},
	}, receiving)
	if err != nil {
		t.Fatalf("second ReceivePO failed: %v", err)
	}
	if result.Status != core.POStatusReceived {
		t.Errorf("status after full delivery = %s, want RECEIVED", result.Status)
	}
	if !result.Receipts[0].NewOnHand.Equal(decimal.NewFromInt(10)) {
		t.Errorf("on hand = %s, want 10", result.Receipts[0].NewOnHand)
	}

	// Nothing left in transit.
	var remaining decimal.Decimal
	if err := pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(qty_remaining), 0) FROM transit_records WHERE order_id = $1", po.ID,
	).Scan(&remaining); err != nil {
		t.Fatalf("Failed to sum transit: %v", err)
	}
	if !remaining.IsZero() {
		t.Errorf("transit remaining = %s, want 0", remaining)
	}
}

func TestPurchaseOrder_Receive_RequiresBooked(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)
	receiving := core.NewReceivingService(pool)

	po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
		{Description: "Widget A", Quantity: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(5)},
	}, "")
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}

	_, err = svc.ReceivePO(ctx, "1000", po.ID, []core.ReceivedLine{
		{POLineID: po.Lines[0].ID, QtyReceived: decimal.NewFromInt(1)},
	}, receiving)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("receiving a draft: expected ErrInvalidInput, got %v", err)
	}
}

func TestPurchaseOrder_WrongCompany(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	svc := core.NewPurchaseOrderService(pool)
	products := core.NewProductService(pool, testLogger())

	po, err := svc.CreatePO(ctx, "1000", "ACME", time.Now(), []core.PurchaseOrderLineInput{
		{Description: "Widget A", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(5)},
	}, "")
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}

	if _, err := svc.BookPO(ctx, "2000", po.ID, products); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-company booking: expected ErrNotFound, got %v", err)
	}
}
