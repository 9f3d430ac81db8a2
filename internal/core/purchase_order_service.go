package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PurchaseOrderService interface {
	// CreatePO stores a DRAFT purchase order with its raw lines exactly as
	// entered or extracted; nothing is matched or booked yet.
	CreatePO(ctx context.Context, companyCode, supplierCode string, poDate time.Time, lines []PurchaseOrderLineInput, notes string) (*PurchaseOrder, error)

	// BookPO resolves every usable line to a product (creating products as
	// needed), writes one transit record per line, assigns the gapless PO
	// number and moves the order to BOOKED. Lines with non-positive quantity
	// or a blank description are skipped, not erred.
	BookPO(ctx context.Context, companyCode string, poID int, products ProductService) (*BookingSummary, error)

	// ReceivePO receives quantities against a BOOKED order line by line via
	// the receiving engine, then rolls the order status forward to
	// PARTIALLY_RECEIVED or RECEIVED based on what remains in transit.
	ReceivePO(ctx context.Context, companyCode string, poID int, receivedLines []ReceivedLine, recv ReceivingService) (*POReceiptResult, error)

	GetPO(ctx context.Context, poID int) (*PurchaseOrder, error)
	GetPOs(ctx context.Context, companyID int, status string) ([]PurchaseOrder, error)
}

type purchaseOrderService struct {
	pool *pgxpool.Pool
}

// NewPurchaseOrderService constructs a PurchaseOrderService backed by PostgreSQL.
func NewPurchaseOrderService(pool *pgxpool.Pool) PurchaseOrderService {
	return &purchaseOrderService{pool: pool}
}

func (s *purchaseOrderService) CreatePO(ctx context.Context, companyCode, supplierCode string, poDate time.Time, lines []PurchaseOrderLineInput, notes string) (*PurchaseOrder, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("purchase order must have at least one line: %w", ErrInvalidInput)
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

	var supplierID int
	if err := tx.QueryRow(ctx,
		"SELECT id FROM suppliers WHERE company_id = $1 AND code = $2 AND is_active = true",
		companyID, supplierCode,
	).Scan(&supplierID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %q: %w", supplierCode, ErrNotFound)
		}
		return nil, fmt.Errorf("resolve supplier: %w", err)
	}

	var total decimal.Decimal
	for _, l := range lines {
		total = total.Add(l.Quantity.Mul(l.UnitCost))
	}

	var toNotes *string
	if notes != "" {
		toNotes = &notes
	}

	// The external ref is the stable dedupe handle for supplier invoices
	// imported more than once.
	var poID int
	if err := tx.QueryRow(ctx, `
		INSERT INTO purchase_orders (company_id, supplier_id, external_ref, status, po_date, total, notes)
		VALUES ($1, $2, $3, 'DRAFT', $4, $5, $6)
		RETURNING id`,
		companyID, supplierID, uuid.NewString(), poDate.Format("2006-01-02"), total, toNotes,
	).Scan(&poID); err != nil {
		return nil, fmt.Errorf("insert purchase order: %w", err)
	}

	for i, l := range lines {
		var supplierSKU *string
		if sku := strings.TrimSpace(l.SupplierSKU); sku != "" {
			supplierSKU = &sku
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_lines
			            (order_id, line_number, supplier_sku, description, quantity, unit_cost, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			poID, i+1, supplierSKU, l.Description, l.Quantity, l.UnitCost, l.Quantity.Mul(l.UnitCost),
		); err != nil {
			return nil, fmt.Errorf("insert PO line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit purchase order: %w", err)
	}

	return s.GetPO(ctx, poID)
}

func (s *purchaseOrderService) BookPO(ctx context.Context, companyCode string, poID int, products ProductService) (*BookingSummary, error) {
	po, err := s.getPOForCompany(ctx, poID, companyCode)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the header so concurrent bookings of the same order serialize.
	var status string
	if err := tx.QueryRow(ctx,
		"SELECT status FROM purchase_orders WHERE id = $1 FOR UPDATE",
		poID,
	).Scan(&status); err != nil {
		return nil, fmt.Errorf("lock purchase order %d: %w", poID, err)
	}
	if POStatus(status) != POStatusDraft {
		return nil, fmt.Errorf("purchase order %d cannot be booked: status is %s (must be DRAFT): %w", poID, status, ErrInvalidInput)
	}

	summary := &BookingSummary{OrderID: poID}
	for _, line := range po.Lines {
		if !line.Quantity.IsPositive() || strings.TrimSpace(line.Description) == "" {
			summary.SkippedLines = append(summary.SkippedLines, line.LineNumber)
			continue
		}

		supplierSKU := ""
		if line.SupplierSKU != nil {
			supplierSKU = *line.SupplierSKU
		}
		supplierID := po.SupplierID
		product, created, err := products.MatchOrCreate(ctx, po.CompanyID, line.Description, supplierSKU, &supplierID)
		if err != nil {
			return nil, fmt.Errorf("resolve product for PO line %d: %w", line.LineNumber, err)
		}
		if created {
			summary.ProductsCreated++
		} else {
			summary.ProductsMatched++
		}

		if _, err := tx.Exec(ctx,
			"UPDATE purchase_order_lines SET product_id = $1 WHERE id = $2",
			product.ID, line.ID,
		); err != nil {
			return nil, fmt.Errorf("stamp product on PO line %d: %w", line.LineNumber, err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO transit_records
			            (company_id, product_id, order_id, po_line_id, supplier_id,
			             qty_ordered, qty_remaining, unit_cost, status)
			VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8)`,
			po.CompanyID, product.ID, poID, line.ID, po.SupplierID,
			line.Quantity, line.UnitCost.Round(4), string(TransitStatusInTransit),
		); err != nil {
			return nil, fmt.Errorf("create transit record for PO line %d: %w", line.LineNumber, err)
		}
		summary.TransitCreated++
	}

	poNumber, err := s.nextPONumber(ctx, tx, po.CompanyID)
	if err != nil {
		return nil, err
	}
	summary.PONumber = poNumber

	if _, err := tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = 'BOOKED', po_number = $1, booked_at = NOW()
		WHERE id = $2`,
		poNumber, poID,
	); err != nil {
		return nil, fmt.Errorf("book purchase order %d: %w", poID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}
	return summary, nil
}

// nextPONumber assigns a gapless per-company sequence number within the
// caller's transaction.
func (s *purchaseOrderService) nextPONumber(ctx context.Context, tx pgx.Tx, companyID int) (string, error) {
	var lastNumber int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO po_sequences (company_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (company_id)
		DO UPDATE SET last_number = po_sequences.last_number + 1
		RETURNING last_number`,
		companyID,
	).Scan(&lastNumber); err != nil {
		return "", fmt.Errorf("generate PO number: %w", err)
	}
	return fmt.Sprintf("PO-%05d", lastNumber), nil
}

func (s *purchaseOrderService) ReceivePO(ctx context.Context, companyCode string, poID int, receivedLines []ReceivedLine, recv ReceivingService) (*POReceiptResult, error) {
	if len(receivedLines) == 0 {
		return nil, fmt.Errorf("at least one received line is required: %w", ErrInvalidInput)
	}

	po, err := s.getPOForCompany(ctx, poID, companyCode)
	if err != nil {
		return nil, err
	}
	if po.Status != POStatusBooked && po.Status != POStatusPartiallyReceived {
		return nil, fmt.Errorf("purchase order %d cannot be received: status is %s: %w", poID, po.Status, ErrInvalidInput)
	}

	lineByID := make(map[int]PurchaseOrderLine, len(po.Lines))
	for _, l := range po.Lines {
		lineByID[l.ID] = l
	}

	result := &POReceiptResult{OrderID: poID}
	for _, rl := range receivedLines {
		pol, ok := lineByID[rl.POLineID]
		if !ok {
			return nil, fmt.Errorf("PO line %d not found on purchase order %d: %w", rl.POLineID, poID, ErrNotFound)
		}
		if pol.ProductID == nil {
			return nil, fmt.Errorf("PO line %d was skipped at booking and cannot be received: %w", rl.POLineID, ErrInvalidInput)
		}

		lineID := pol.ID
		receipt, err := recv.Receive(ctx, companyCode, *pol.ProductID, rl.QtyReceived, &lineID)
		if err != nil {
			return nil, fmt.Errorf("receive PO line %d: %w", rl.POLineID, err)
		}
		result.Receipts = append(result.Receipts, *receipt)
	}

	// Roll the order status forward from what remains in transit.
	var remaining decimal.Decimal
	if err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(qty_remaining), 0) FROM transit_records WHERE order_id = $1",
		poID,
	).Scan(&remaining); err != nil {
		return nil, fmt.Errorf("sum remaining transit for PO %d: %w", poID, err)
	}

	newStatus := POStatusPartiallyReceived
	if remaining.IsZero() {
		newStatus = POStatusReceived
	}
	if _, err := s.pool.Exec(ctx,
		"UPDATE purchase_orders SET status = $1 WHERE id = $2",
		string(newStatus), poID,
	); err != nil {
		return nil, fmt.Errorf("update PO %d status: %w", poID, err)
	}
	result.Status = newStatus
	return result, nil
}

// getPOForCompany fetches a PO by ID, asserting it belongs to the given
// company. Ownership failures are indistinguishable from not-found to
// prevent order enumeration across companies.
func (s *purchaseOrderService) getPOForCompany(ctx context.Context, poID int, companyCode string) (*PurchaseOrder, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM purchase_orders po
			JOIN companies c ON c.id = po.company_id
			WHERE po.id = $1 AND c.company_code = $2
		)`, poID, companyCode,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("purchase order ownership check: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
	}
	return s.GetPO(ctx, poID)
}

func (s *purchaseOrderService) GetPO(ctx context.Context, poID int) (*PurchaseOrder, error) {
	po := &PurchaseOrder{}
	if err := s.pool.QueryRow(ctx, `
		SELECT po.id, po.company_id, po.supplier_id, v.code, v.name,
		       po.po_number, po.external_ref, po.status, po.po_date::text, po.notes, po.total,
		       po.created_at, po.booked_at
		FROM purchase_orders po
		JOIN suppliers v ON v.id = po.supplier_id
		WHERE po.id = $1`,
		poID,
	).Scan(
		&po.ID, &po.CompanyID, &po.SupplierID, &po.SupplierCode, &po.SupplierName,
		&po.PONumber, &po.ExternalRef, &po.Status, &po.PODate, &po.Notes, &po.Total,
		&po.CreatedAt, &po.BookedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase order %d: %w", poID, ErrNotFound)
		}
		return nil, fmt.Errorf("get purchase order %d: %w", poID, err)
	}

	lines, err := s.fetchLines(ctx, poID)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	return po, nil
}

func (s *purchaseOrderService) GetPOs(ctx context.Context, companyID int, status string) ([]PurchaseOrder, error) {
	query := `
		SELECT po.id, po.company_id, po.supplier_id, v.code, v.name,
		       po.po_number, po.external_ref, po.status, po.po_date::text, po.notes, po.total,
		       po.created_at, po.booked_at
		FROM purchase_orders po
		JOIN suppliers v ON v.id = po.supplier_id
		WHERE po.company_id = $1`
	args := []any{companyID}

	if status != "" {
		query += " AND po.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY po.created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(
			&po.ID, &po.CompanyID, &po.SupplierID, &po.SupplierCode, &po.SupplierName,
			&po.PONumber, &po.ExternalRef, &po.Status, &po.PODate, &po.Notes, &po.Total,
			&po.CreatedAt, &po.BookedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func (s *purchaseOrderService) fetchLines(ctx context.Context, poID int) ([]PurchaseOrderLine, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, line_number, product_id, supplier_sku,
		       description, quantity, unit_cost, line_total
		FROM purchase_order_lines
		WHERE order_id = $1
		ORDER BY line_number`,
		poID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch PO lines for order %d: %w", poID, err)
	}
	defer rows.Close()

	var lines []PurchaseOrderLine
	for rows.Next() {
		var l PurchaseOrderLine
		if err := rows.Scan(
			&l.ID, &l.OrderID, &l.LineNumber, &l.ProductID, &l.SupplierSKU,
			&l.Description, &l.Quantity, &l.UnitCost, &l.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("scan PO line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
