package core

import "time"

type Company struct {
	ID           int    `json:"id"`
	CompanyCode  string `json:"company_code"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type Supplier struct {
	ID               int       `json:"id"`
	CompanyID        int       `json:"company_id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	ContactPerson    *string   `json:"contact_person,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Phone            *string   `json:"phone,omitempty"`
	Address          *string   `json:"address,omitempty"`
	PaymentTermsDays int       `json:"payment_terms_days"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// SupplierInput is the caller-facing shape for creating a supplier.
type SupplierInput struct {
	Code             string
	Name             string
	ContactPerson    string
	Email            string
	Phone            string
	Address          string
	PaymentTermsDays int
}

// Product is a canonical catalog entry. Aliases accumulate the raw invoice
// descriptions that were matched to it; barcodes are unique across the
// company's whole catalog.
type Product struct {
	ID          int       `json:"id"`
	CompanyID   int       `json:"company_id"`
	Name        string    `json:"name"`
	SKU         *string   `json:"sku,omitempty"`
	SupplierSKU *string   `json:"supplier_sku,omitempty"`
	Barcodes    []string  `json:"barcodes"`
	Aliases     []string  `json:"aliases"`
	SupplierID  *int      `json:"supplier_id,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        []string  `json:"tags"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
