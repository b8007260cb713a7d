package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one recorded sale of a vendor product.
type Sale struct {
	ID           int64
	VendorID     int64
	ProductID    int64
	PublicID     string // uuid used as the ledger reference
	Quantity     int64
	SellingPrice decimal.Decimal
	UnitCost     decimal.Decimal
	Profit       decimal.Decimal
	CreatedAt    time.Time
}

// RecordInput describes a sale to record.
type RecordInput struct {
	VendorID     int64
	ProductID    int64
	Quantity     int64
	SellingPrice decimal.Decimal
	ActorID      int64
}

var (
	// ErrOversell indicates the sale exceeds the quantity on hand.
	ErrOversell = errors.New("sales: quantity exceeds stock on hand")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("sales: quantity must be positive")
	// ErrInvalidPrice indicates a negative selling price.
	ErrInvalidPrice = errors.New("sales: selling price must be >= 0")
)
