package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const maxBarcodeLength = 128

// ProductService owns the product catalog: resolving free-text invoice lines
// to canonical products, barcode bookkeeping, and explicit admin deletes.
type ProductService interface {
	// MatchOrCreate resolves a raw invoice line description (plus optional
	// supplier SKU) to an existing product, or creates a new one when no
	// identifier or fuzzy match is found. created reports which branch ran.
	// On a match, the raw description is appended to the product's aliases
	// (idempotent) and a missing supplier reference is filled in; both are
	// best-effort and never fail the match.
	MatchOrCreate(ctx context.Context, companyID int, description, supplierSKU string, supplierID *int) (product *Product, created bool, err error)

	// Match is the read-only half of MatchOrCreate: it resolves without
	// creating or mutating anything. Returns ErrNotFound when nothing matches.
	Match(ctx context.Context, companyID int, description, supplierSKU string) (*Product, error)

	// AddBarcode attaches a barcode to a product. Fails with
	// DuplicateBarcodeError if another product already owns it.
	AddBarcode(ctx context.Context, companyID, productID int, barcode string) (*Product, error)

	GetProducts(ctx context.Context, companyID int) ([]Product, error)
	GetProduct(ctx context.Context, companyID, productID int) (*Product, error)

	// DeleteProduct is an explicit admin action; inventory and transit rows
	// for the product go with it (FK cascade).
	DeleteProduct(ctx context.Context, companyID, productID int) error
}

type productService struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewProductService constructs a ProductService backed by PostgreSQL.
func NewProductService(pool *pgxpool.Pool, log *logrus.Logger) ProductService {
	return &productService{pool: pool, log: log}
}

const productColumns = `id, company_id, name, sku, supplier_sku, barcodes, aliases,
       supplier_id, category, tags, is_active, created_at`

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.SKU, &p.SupplierSKU, &p.Barcodes, &p.Aliases,
		&p.SupplierID, &p.Category, &p.Tags, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) MatchOrCreate(ctx context.Context, companyID int, description, supplierSKU string, supplierID *int) (*Product, bool, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, false, fmt.Errorf("product description is empty: %w", ErrInvalidInput)
	}
	supplierSKU = strings.TrimSpace(supplierSKU)

	matched, err := s.resolve(ctx, companyID, description, supplierSKU)
	if err != nil {
		return nil, false, err
	}

	if matched != nil {
		s.recordAlias(ctx, matched, description, supplierID)
		return matched, false, nil
	}

	created, err := s.createFromLine(ctx, companyID, description, supplierSKU, supplierID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *productService) Match(ctx context.Context, companyID int, description, supplierSKU string) (*Product, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("product description is empty: %w", ErrInvalidInput)
	}
	p, err := s.resolve(ctx, companyID, description, strings.TrimSpace(supplierSKU))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("no product matches %q: %w", description, ErrNotFound)
	}
	return p, nil
}

// resolve runs the match algorithm: exact identifier match first, fuzzy
// token similarity second. Returns nil with no error when nothing matches.
func (s *productService) resolve(ctx context.Context, companyID int, description, supplierSKU string) (*Product, error) {
	if supplierSKU != "" {
		p, err := scanProduct(s.pool.QueryRow(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE company_id = $1 AND is_active = true
			  AND (LOWER(sku) = LOWER($2)
			       OR LOWER(supplier_sku) = LOWER($2)
			       OR EXISTS (SELECT 1 FROM unnest(barcodes) b WHERE LOWER(b) = LOWER($2)))
			ORDER BY id
			LIMIT 1`,
			companyID, supplierSKU,
		))
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("identifier lookup for %q: %w", supplierSKU, err)
		}
	}

	candidates, err := s.fetchCandidates(ctx, companyID)
	if err != nil {
		return nil, err
	}

	productID, _, ok := bestMatch(description, candidates)
	if !ok {
		return nil, nil
	}
	return s.GetProduct(ctx, companyID, productID)
}

// fetchCandidates loads the scoring slice of the whole catalog in id order,
// keeping tie-breaks deterministic.
func (s *productService) fetchCandidates(ctx context.Context, companyID int) ([]matchCandidate, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, aliases FROM products WHERE company_id = $1 AND is_active = true ORDER BY id",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch match candidates: %w", err)
	}
	defer rows.Close()

	var candidates []matchCandidate
	for rows.Next() {
		var c matchCandidate
		if err := rows.Scan(&c.ProductID, &c.Name, &c.Aliases); err != nil {
			return nil, fmt.Errorf("scan match candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// recordAlias appends the matched description to the product's alias list
// (skipped when already present) and fills in a missing supplier reference.
// Best-effort: a failure here is logged and the match stands.
func (s *productService) recordAlias(ctx context.Context, p *Product, description string, supplierID *int) {
	err := s.pool.QueryRow(ctx, `
		UPDATE products
		SET aliases = CASE WHEN $1 = ANY(aliases) THEN aliases ELSE array_append(aliases, $1) END,
		    supplier_id = COALESCE(supplier_id, $2)
		WHERE id = $3
		RETURNING aliases, supplier_id`,
		description, supplierID, p.ID,
	).Scan(&p.Aliases, &p.SupplierID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"product_id": p.ID,
			"alias":      description,
		}).WithError(err).Warn("failed to record product alias")
	}
}

func (s *productService) createFromLine(ctx context.Context, companyID int, description, supplierSKU string, supplierID *int) (*Product, error) {
	var sku *string
	if supplierSKU != "" {
		sku = &supplierSKU
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (company_id, name, sku, supplier_sku, aliases, supplier_id)
		VALUES ($1, $2, $3, $3, ARRAY[$2::text], $4)
		RETURNING `+productColumns,
		companyID, description, sku, supplierID,
	))
	if err != nil {
		return nil, fmt.Errorf("create product %q: %w", description, err)
	}
	return p, nil
}

func (s *productService) AddBarcode(ctx context.Context, companyID, productID int, barcode string) (*Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("barcode is empty: %w", ErrInvalidInput)
	}
	if len(barcode) > maxBarcodeLength {
		return nil, fmt.Errorf("barcode exceeds %d characters: %w", maxBarcodeLength, ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID int
	var ownerName string
	err = tx.QueryRow(ctx,
		"SELECT id, name FROM products WHERE company_id = $1 AND id <> $2 AND $3 = ANY(barcodes)",
		companyID, productID, barcode,
	).Scan(&ownerID, &ownerName)
	if err == nil {
		return nil, &DuplicateBarcodeError{Barcode: barcode, ProductID: ownerID, ProductName: ownerName}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("barcode conflict check: %w", err)
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products
		SET barcodes = CASE WHEN $1 = ANY(barcodes) THEN barcodes ELSE array_append(barcodes, $1) END
		WHERE company_id = $2 AND id = $3
		RETURNING `+productColumns,
		barcode, companyID, productID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("attach barcode to product %d: %w", productID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit barcode attach: %w", err)
	}
	return p, nil
}

func (s *productService) GetProducts(ctx context.Context, companyID int) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE company_id = $1 AND is_active = true ORDER BY id",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.Name, &p.SKU, &p.SupplierSKU, &p.Barcodes, &p.Aliases,
			&p.SupplierID, &p.Category, &p.Tags, &p.IsActive, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *productService) GetProduct(ctx context.Context, companyID, productID int) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE company_id = $1 AND id = $2",
		companyID, productID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	return p, nil
}

func (s *productService) DeleteProduct(ctx context.Context, companyID, productID int) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM products WHERE company_id = $1 AND id = $2",
		companyID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	return nil
}
