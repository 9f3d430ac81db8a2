package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"stockroom/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type appService struct {
	pool      *pgxpool.Pool
	products  core.ProductService
	suppliers core.SupplierService
	orders    core.PurchaseOrderService
	receiving core.ReceivingService
	snapshot  core.SnapshotService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	products core.ProductService,
	suppliers core.SupplierService,
	orders core.PurchaseOrderService,
	receiving core.ReceivingService,
	snapshot core.SnapshotService,
) ApplicationService {
	return &appService{
		pool:      pool,
		products:  products,
		suppliers: suppliers,
		orders:    orders,
		receiving: receiving,
		snapshot:  snapshot,
	}
}

// resolveCompany maps a company code to its numeric ID.
func (s *appService) resolveCompany(ctx context.Context, companyCode string) (int, error) {
	var id int
	if err := s.pool.QueryRow(ctx,
		"SELECT id FROM companies WHERE company_code = $1", companyCode,
	).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("company %s: %w", companyCode, core.ErrNotFound)
		}
		return 0, fmt.Errorf("resolve company %s: %w", companyCode, err)
	}
	return id, nil
}

func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	query := "SELECT id, company_code, name, base_currency FROM companies ORDER BY id LIMIT 1"
	args := []any{}
	if code := os.Getenv("COMPANY_CODE"); code != "" {
		query = "SELECT id, company_code, name, base_currency FROM companies WHERE company_code = $1"
		args = append(args, code)
	}

	var c core.Company
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.BaseCurrency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no company configured: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("load default company: %w", err)
	}
	return &c, nil
}

func (s *appService) ListProducts(ctx context.Context, companyCode string) (*ProductListResult, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	products, err := s.products.GetProducts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products, CompanyCode: companyCode}, nil
}

func (s *appService) MatchProduct(ctx context.Context, companyCode, description string) (*MatchResult, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Match(ctx, companyID, description, "")
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return &MatchResult{}, nil
		}
		return nil, err
	}
	return &MatchResult{Product: product, Matched: true}, nil
}

func (s *appService) AddBarcode(ctx context.Context, companyCode string, productID int, barcode string) (*ProductResult, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	product, err := s.products.AddBarcode(ctx, companyID, productID, barcode)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: product}, nil
}

func (s *appService) DeleteProduct(ctx context.Context, companyCode string, productID int) error {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return err
	}
	return s.products.DeleteProduct(ctx, companyID, productID)
}

func (s *appService) ListSuppliers(ctx context.Context, companyCode string) (*SupplierListResult, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.suppliers.GetSuppliers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: suppliers}, nil
}

func (s *appService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*SupplierResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	companyID, err := s.resolveCompany(ctx, req.CompanyCode)
	if err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.CreateSupplier(ctx, companyID, core.SupplierInput{
		Code:             req.Code,
		Name:             req.Name,
		ContactPerson:    req.ContactPerson,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		PaymentTermsDays: req.PaymentTermsDays,
	})
	if err != nil {
		return nil, err
	}
	return &SupplierResult{Supplier: supplier}, nil
}

func (s *appService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	poDate := time.Now()
	if req.PODate != "" {
		parsed, err := time.Parse("2006-01-02", req.PODate)
		if err != nil {
			return nil, fmt.Errorf("invalid PO date %q: %w", req.PODate, core.ErrInvalidInput)
		}
		poDate = parsed
	}

	lines := make([]core.PurchaseOrderLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.PurchaseOrderLineInput{
			Description: l.Description,
			SupplierSKU: l.SupplierSKU,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
		}
	}

	order, err := s.orders.CreatePO(ctx, req.CompanyCode, req.SupplierCode, poDate, lines, req.Notes)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Order: order}, nil
}

func (s *appService) BookPurchaseOrder(ctx context.Context, companyCode string, poID int) (*BookingResult, error) {
	summary, err := s.orders.BookPO(ctx, companyCode, poID, s.products)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetPO(ctx, poID)
	if err != nil {
		return nil, err
	}
	return &BookingResult{Summary: summary, Order: order}, nil
}

func (s *appService) ListPurchaseOrders(ctx context.Context, companyCode, status string) (*PurchaseOrderListResult, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.GetPOs(ctx, companyID, status)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderListResult{Orders: orders, CompanyCode: companyCode}, nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, companyCode string, poID int) (*PurchaseOrderResult, error) {
	companyID, err := s.resolveCompany(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetPO(ctx, poID)
	if err != nil {
		return nil, err
	}
	if order.CompanyID != companyID {
		return nil, fmt.Errorf("purchase order %d: %w", poID, core.ErrNotFound)
	}
	return &PurchaseOrderResult{Order: order}, nil
}

func (s *appService) Receive(ctx context.Context, companyCode string, productID int, qty decimal.Decimal) (*ReceiveResult, error) {
	receipt, err := s.receiving.Receive(ctx, companyCode, productID, qty, nil)
	if err != nil {
		return nil, err
	}
	return &ReceiveResult{Receipt: receipt}, nil
}

func (s *appService) ReceivePurchaseOrder(ctx context.Context, req ReceivePORequest) (*POReceiptResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	lines := make([]core.ReceivedLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.ReceivedLine{POLineID: l.POLineID, QtyReceived: l.QtyReceived}
	}
	receipt, err := s.orders.ReceivePO(ctx, req.CompanyCode, req.POID, lines, s.receiving)
	if err != nil {
		return nil, err
	}
	return &POReceiptResult{Receipt: receipt}, nil
}

func (s *appService) GetStockLevels(ctx context.Context, companyCode string) (*StockResult, error) {
	levels, err := s.receiving.GetStockLevels(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &StockResult{Levels: levels, CompanyCode: companyCode}, nil
}

func (s *appService) GetSnapshot(ctx context.Context, companyCode string) (*SnapshotResult, error) {
	rows, err := s.snapshot.GetSnapshot(ctx, companyCode)
	if err != nil {
		return nil, err
	}

	result := &SnapshotResult{Rows: rows, CompanyCode: companyCode}
	for _, r := range rows {
		if r.Inventory != nil {
			result.TotalOnHand = result.TotalOnHand.Add(r.Inventory.QtyOnHand.Mul(r.Inventory.AvgUnitCost))
		}
		result.TotalInTransit = result.TotalInTransit.Add(r.QuantityInTransit.Mul(r.ExpectedUnitCost))
	}
	return result, nil
}
