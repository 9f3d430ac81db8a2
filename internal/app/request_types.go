package app

import (
	"fmt"

	"stockroom/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs struct tag validation and folds failures into the
// core invalid-input sentinel so adapters can classify them.
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), core.ErrInvalidInput)
	}
	return nil
}

// CreateSupplierRequest is the input for creating a new supplier.
type CreateSupplierRequest struct {
	CompanyCode      string `validate:"required"`
	Code             string `validate:"required,max=32"`
	Name             string `validate:"required,max=255"`
	ContactPerson    string
	Email            string `validate:"omitempty,email"`
	Phone            string
	Address          string
	PaymentTermsDays int    `validate:"gte=0"`
}

// CreatePurchaseOrderRequest is the input for creating a new purchase order.
type CreatePurchaseOrderRequest struct {
	CompanyCode  string        `validate:"required"`
	SupplierCode string        `validate:"required"`
	PODate       string        `validate:"omitempty,datetime=2006-01-02"`
	Notes        string
	Lines        []POLineInput `validate:"required,min=1,dive"`
}

// POLineInput is a single line within a CreatePurchaseOrderRequest. Lines
// with a non-positive quantity or blank description are accepted here and
// skipped at booking time.
type POLineInput struct {
	Description string
	SupplierSKU string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
}

// ReceivePORequest is the input for recording goods received against a
// booked purchase order.
type ReceivePORequest struct {
	CompanyCode string              `validate:"required"`
	POID        int                 `validate:"required,gt=0"`
	Lines       []ReceivedLineInput `validate:"required,min=1,dive"`
}

// ReceivedLineInput is a single line in a ReceivePORequest.
type ReceivedLineInput struct {
	POLineID    int             `validate:"required,gt=0"`
	QtyReceived decimal.Decimal
}
