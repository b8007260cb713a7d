package vouchers

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
)

// Voucher is one money movement between a vendor and a supplier.
type Voucher struct {
	ID        int64
	VendorID  int64
	PublicID  string // uuid used as the ledger reference
	Kind      capital.EntryKind
	Amount    decimal.Decimal
	Note      string
	CreatedAt time.Time
}

// Allocation settles part of a voucher against the consignment payable of
// one product.
type Allocation struct {
	VoucherID int64
	ProductID int64
	Amount    decimal.Decimal
}

// AllocationInput is one settlement line of a PostInput.
type AllocationInput struct {
	ProductID int64
	Amount    decimal.Decimal
}

// PostInput describes a voucher to post.
type PostInput struct {
	VendorID    int64
	Kind        capital.EntryKind
	Amount      decimal.Decimal
	Note        string
	Allocations []AllocationInput
	ActorID     int64
}

var (
	// ErrInvalidKind indicates a kind other than the two supplier kinds.
	ErrInvalidKind = errors.New("vouchers: kind must be RECEIPT_FROM_SUPPLIER or PAYMENT_TO_SUPPLIER")
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("vouchers: amount must be positive")
	// ErrInvalidAllocation indicates a bad settlement line.
	ErrInvalidAllocation = errors.New("vouchers: allocation must name a product and a positive amount")
	// ErrAllocationExceedsAmount indicates payment settlement lines above the voucher amount.
	ErrAllocationExceedsAmount = errors.New("vouchers: allocations exceed the payment amount")
)
