package products

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/valuation"
)

// Product is one stock line owned or held by a vendor.
type Product struct {
	ID             int64
	VendorID       int64
	PublicID       string // uuid used as the ledger reference
	Name           string
	SourceType     valuation.SourceType
	UnitCost       decimal.Decimal
	QuantityOnHand int64
	QuantitySold   int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// PurchaseValue is the capital consumed when the product was bought.
func (p Product) PurchaseValue() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(p.QuantityOnHand + p.QuantitySold))
}

// OnHandValue is unitCost × quantityOnHand.
func (p Product) OnHandValue() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(p.QuantityOnHand))
}

// CreateInput describes a new product entry.
type CreateInput struct {
	VendorID   int64
	Name       string
	SourceType valuation.SourceType
	UnitCost   decimal.Decimal
	Quantity   int64
	ActorID    int64
}

var (
	// ErrNotFound indicates the product does not exist or was deleted.
	ErrNotFound = errors.New("products: not found")
	// ErrInvalidSource indicates an unknown source type.
	ErrInvalidSource = errors.New("products: source type must be OWNED or CONSIGNMENT")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("products: quantity must be positive")
	// ErrInvalidUnitCost indicates a negative unit cost.
	ErrInvalidUnitCost = errors.New("products: unit cost must be >= 0")
)
