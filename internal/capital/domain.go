package capital

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind enumerates the balance-affecting event kinds.
type EntryKind string

const (
	// KindPurchase debits capital when a vendor buys owned stock.
	KindPurchase EntryKind = "PURCHASE"
	// KindRefund credits back the unsold value of a deleted owned product.
	KindRefund EntryKind = "REFUND"
	// KindSaleProfit credits the realized margin of an owned-stock sale.
	KindSaleProfit EntryKind = "SALE_PROFIT"
	// KindConsignmentProfit credits a consignment margin. Flows never post it
	// at sale time; it exists for manual corrections and legacy entries.
	KindConsignmentProfit EntryKind = "CONSIGNMENT_PROFIT"
	// KindReceiptFromSupplier credits a settlement received from a supplier.
	KindReceiptFromSupplier EntryKind = "RECEIPT_FROM_SUPPLIER"
	// KindPaymentToSupplier debits a settlement paid to a supplier.
	KindPaymentToSupplier EntryKind = "PAYMENT_TO_SUPPLIER"
)

// Valid reports whether the kind is one of the supported entry kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindPurchase, KindRefund, KindSaleProfit, KindConsignmentProfit,
		KindReceiptFromSupplier, KindPaymentToSupplier:
		return true
	}
	return false
}

// Debit reports whether the kind reduces the balance.
func (k EntryKind) Debit() bool {
	return k == KindPurchase || k == KindPaymentToSupplier
}

// SignedAmount applies the kind's sign to a non-negative magnitude.
// Callers never supply signs; the engine owns the convention.
func SignedAmount(kind EntryKind, magnitude decimal.Decimal) decimal.Decimal {
	if kind.Debit() {
		return magnitude.Neg()
	}
	return magnitude
}

// Account is the materialized capital state of one vendor.
type Account struct {
	VendorID       int64
	InitialCapital decimal.Decimal
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LedgerEntry is one immutable record of a capital-affecting event.
// Entries are append-only; nothing in the system updates or deletes them.
type LedgerEntry struct {
	ID            int64
	VendorID      int64
	Kind          EntryKind
	Amount        decimal.Decimal // stored as the non-negative magnitude
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	ReferenceType string
	ReferenceID   string
	CreatedAt     time.Time
}

// Signed returns the entry amount with the kind's sign applied.
func (e LedgerEntry) Signed() decimal.Decimal {
	return SignedAmount(e.Kind, e.Amount)
}

// Reference types accepted on ledger entries.
const (
	ReferenceProduct = "PRODUCT"
	ReferenceOrder   = "ORDER"
	ReferenceVoucher = "VOUCHER"
)

// ApplyInput describes one posting request to the transaction engine.
type ApplyInput struct {
	VendorID      int64
	Kind          EntryKind
	Amount        decimal.Decimal // non-negative magnitude
	Description   string
	ReferenceType string
	ReferenceID   string
	ActorID       int64
}

// Warning is a non-fatal condition surfaced alongside a successful posting.
type Warning struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Balance decimal.Decimal `json:"balance"`
}

// WarningInsufficientCapital flags a debit that left the balance negative.
// The posting still commits; reacting to it is the caller's choice.
const WarningInsufficientCapital = "INSUFFICIENT_CAPITAL"

// ApplyResult is the outcome of a committed posting.
type ApplyResult struct {
	Entry   LedgerEntry
	Warning *Warning
}

var (
	// ErrAccountNotFound means the vendor has no capital account yet.
	ErrAccountNotFound = errors.New("capital: account not found")
	// ErrAccountExists means onboarding already created the account.
	ErrAccountExists = errors.New("capital: account already exists")
	// ErrDuplicateReference means the reference already has an entry of the
	// same kind; blind retries must not double-post.
	ErrDuplicateReference = errors.New("capital: reference already posted")
	// ErrInvalidKind means the entry kind is not one of the supported set.
	ErrInvalidKind = errors.New("capital: invalid entry kind")
	// ErrNegativeAmount means the caller supplied a signed magnitude.
	ErrNegativeAmount = errors.New("capital: amount must be a non-negative magnitude")
)
