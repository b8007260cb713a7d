package capital

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/shared"
)

// AuditPort records who posted what.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator is notified after every committed posting so cached
// reconciliation reports go stale immediately.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Engine is the only component allowed to mutate a vendor capital account.
// Every posting writes one ledger entry and the new balance in a single
// transaction; partial application is structurally impossible.
type Engine struct {
	repo        Repository
	audit       AuditPort
	invalidator Invalidator
}

// NewEngine builds the transaction engine.
func NewEngine(repo Repository, audit AuditPort, invalidator Invalidator) *Engine {
	return &Engine{repo: repo, audit: audit, invalidator: invalidator}
}

// CreateAccount provisions the capital account at vendor onboarding.
// InitialCapital is immutable after this call.
func (e *Engine) CreateAccount(ctx context.Context, vendorID int64, initialCapital decimal.Decimal) (Account, error) {
	if vendorID == 0 {
		return Account{}, errors.New("capital: vendor id required")
	}
	if initialCapital.IsNegative() {
		return Account{}, ErrNegativeAmount
	}
	var account Account
	err := e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created, err := tx.CreateAccount(ctx, vendorID, initialCapital)
		if err != nil {
			return err
		}
		account = created
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// GetAccount returns the materialized account state. Callers that need
// certainty about the vendor's true position must reconcile instead.
func (e *Engine) GetAccount(ctx context.Context, vendorID int64) (Account, error) {
	return e.repo.GetAccount(ctx, vendorID)
}

// ListEntries returns the vendor's ledger in ascending creation order.
func (e *Engine) ListEntries(ctx context.Context, vendorID int64, limit int) ([]LedgerEntry, error) {
	return e.repo.ListEntries(ctx, vendorID, limit)
}

// Apply posts one capital transaction. The sign is derived from the kind;
// callers supply non-negative magnitudes only. A debit that drives the
// balance negative commits anyway and comes back with a warning.
func (e *Engine) Apply(ctx context.Context, input ApplyInput) (ApplyResult, error) {
	if input.VendorID == 0 {
		return ApplyResult{}, errors.New("capital: vendor id required")
	}
	if !input.Kind.Valid() {
		return ApplyResult{}, ErrInvalidKind
	}
	if input.Amount.IsNegative() {
		return ApplyResult{}, ErrNegativeAmount
	}

	var entry LedgerEntry
	err := e.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, input.VendorID)
		if err != nil {
			return err
		}
		if input.ReferenceID != "" {
			posted, err := tx.ReferencePosted(ctx, input.VendorID, input.Kind, input.ReferenceID)
			if err != nil {
				return err
			}
			if posted {
				return ErrDuplicateReference
			}
		}
		before := account.CurrentBalance
		after := before.Add(SignedAmount(input.Kind, input.Amount))
		inserted, err := tx.InsertEntry(ctx, LedgerEntry{
			VendorID:      input.VendorID,
			Kind:          input.Kind,
			Amount:        input.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			Description:   input.Description,
			ReferenceType: input.ReferenceType,
			ReferenceID:   input.ReferenceID,
		})
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, input.VendorID, after); err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}

	if e.invalidator != nil {
		_ = e.invalidator.Bump(ctx)
	}
	if e.audit != nil {
		_ = e.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("capital.%s", input.Kind),
			Entity:   "capital_ledger_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"vendor_id":      input.VendorID,
				"amount":         input.Amount.String(),
				"balance_after":  entry.BalanceAfter.String(),
				"reference_type": input.ReferenceType,
				"reference_id":   input.ReferenceID,
			},
		})
	}

	result := ApplyResult{Entry: entry}
	if input.Kind.Debit() && entry.BalanceAfter.IsNegative() {
		result.Warning = &Warning{
			Code:    WarningInsufficientCapital,
			Message: fmt.Sprintf("vendor %d capital is negative after %s", input.VendorID, input.Kind),
			Balance: entry.BalanceAfter,
		}
	}
	return result, nil
}
