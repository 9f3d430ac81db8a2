package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SupplierService interface {
	CreateSupplier(ctx context.Context, companyID int, input SupplierInput) (*Supplier, error)
	GetSuppliers(ctx context.Context, companyID int) ([]Supplier, error)
	GetSupplierByCode(ctx context.Context, companyID int, code string) (*Supplier, error)
}

type supplierService struct {
	pool *pgxpool.Pool
}

// NewSupplierService constructs a SupplierService backed by PostgreSQL.
func NewSupplierService(pool *pgxpool.Pool) SupplierService {
	return &supplierService{pool: pool}
}

func (s *supplierService) CreateSupplier(ctx context.Context, companyID int, input SupplierInput) (*Supplier, error) {
	if input.Code == "" || input.Name == "" {
		return nil, fmt.Errorf("supplier code and name are required: %w", ErrInvalidInput)
	}
	paymentTerms := input.PaymentTermsDays
	if paymentTerms == 0 {
		paymentTerms = 30
	}

	toPtr := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}

	v := &Supplier{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (company_id, code, name, contact_person, email, phone, address, payment_terms_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, company_id, code, name, contact_person, email, phone, address,
		          payment_terms_days, is_active, created_at`,
		companyID, input.Code, input.Name, toPtr(input.ContactPerson), toPtr(input.Email),
		toPtr(input.Phone), toPtr(input.Address), paymentTerms,
	).Scan(
		&v.ID, &v.CompanyID, &v.Code, &v.Name,
		&v.ContactPerson, &v.Email, &v.Phone, &v.Address,
		&v.PaymentTermsDays, &v.IsActive, &v.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create supplier %q: %w", input.Code, err)
	}
	return v, nil
}

func (s *supplierService) GetSuppliers(ctx context.Context, companyID int) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, code, name, contact_person, email, phone, address,
		       payment_terms_days, is_active, created_at
		FROM suppliers
		WHERE company_id = $1 AND is_active = true
		ORDER BY code`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("get suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var v Supplier
		if err := rows.Scan(
			&v.ID, &v.CompanyID, &v.Code, &v.Name,
			&v.ContactPerson, &v.Email, &v.Phone, &v.Address,
			&v.PaymentTermsDays, &v.IsActive, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, v)
	}
	return suppliers, rows.Err()
}

func (s *supplierService) GetSupplierByCode(ctx context.Context, companyID int, code string) (*Supplier, error) {
	v := &Supplier{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, company_id, code, name, contact_person, email, phone, address,
		       payment_terms_days, is_active, created_at
		FROM suppliers
		WHERE company_id = $1 AND code = $2`,
		companyID, code,
	).Scan(
		&v.ID, &v.CompanyID, &v.Code, &v.Name,
		&v.ContactPerson, &v.Email, &v.Phone, &v.Address,
		&v.PaymentTermsDays, &v.IsActive, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %q: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("get supplier %q: %w", code, err)
	}
	return v, nil
}
