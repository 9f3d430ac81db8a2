package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed caller input (non-positive quantity,
	// blank description, missing identifier). No mutation has occurred.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing referenced row (product, supplier, PO).
	ErrNotFound = errors.New("not found")

	// ErrInsufficientTransit is returned by Receive when no transit record
	// with remaining quantity exists for the product at all.
	ErrInsufficientTransit = errors.New("no transit quantity available")

	// ErrNothingReceived is returned when eligible transit records existed
	// but zero quantity could be consumed.
	ErrNothingReceived = errors.New("no quantity received")
)

// DuplicateBarcodeError reports a barcode already owned by a different
// product, naming the conflict so the caller can resolve it manually.
type DuplicateBarcodeError struct {
	Barcode     string
	ProductID   int
	ProductName string
}

func (e *DuplicateBarcodeError) Error() string {
	return fmt.Sprintf("barcode %q already belongs to product %d (%s)", e.Barcode, e.ProductID, e.ProductName)
}
