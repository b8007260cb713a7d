package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/valuation"
)

// AccountSource is the slice of the capital store the engine reads.
type AccountSource interface {
	GetAccount(ctx context.Context, vendorID int64) (capital.Account, error)
	ListEntries(ctx context.Context, vendorID int64, limit int) ([]capital.LedgerEntry, error)
}

// ValuationSource provides the inventory snapshot.
type ValuationSource interface {
	Snapshot(ctx context.Context, vendorID int64) (valuation.Valuation, error)
}

// Engine recomputes the expected balance from first principles and diagnoses
// drift. It is the single canonical formula: reporting surfaces depend on
// this call and never re-derive the number themselves.
type Engine struct {
	accounts   AccountSource
	valuations ValuationSource
	repo       Repository
	now        func() time.Time
}

// NewEngine builds the reconciliation engine.
func NewEngine(accounts AccountSource, valuations ValuationSource, repo Repository) *Engine {
	return &Engine{accounts: accounts, valuations: valuations, repo: repo, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Reconcile computes expected vs actual for one vendor.
//
//	expected = initialCapital
//	         − ownedStockValue              (capital sitting in the warehouse)
//	         − ownedSoldCost                (capital that left with sold goods)
//	         + realizedOwnedProfit          (margins credited on owned sales)
//	         − consignmentSoldUnsettled     (pending supplier payable)
//	         + netSupplierVoucherBalance    (receipts − payments)
//
// Drift comes back as explanations on the report, never as an error.
func (e *Engine) Reconcile(ctx context.Context, vendorID int64) (Report, error) {
	account, err := e.accounts.GetAccount(ctx, vendorID)
	if err != nil {
		return Report{}, err
	}
	entries, err := e.accounts.ListEntries(ctx, vendorID, 0)
	if err != nil {
		return Report{}, err
	}
	val, err := e.valuations.Snapshot(ctx, vendorID)
	if err != nil {
		return Report{}, err
	}
	sources := map[string]valuation.SourceType{}
	if e.repo != nil {
		sources, err = e.repo.SourceByReference(ctx, vendorID)
		if err != nil {
			return Report{}, err
		}
	}

	netVouchers := decimal.Zero
	realizedOwnedProfit := decimal.Zero
	erroneousConsignmentProfit := decimal.Zero
	for _, entry := range entries {
		switch entry.Kind {
		case capital.KindReceiptFromSupplier:
			netVouchers = netVouchers.Add(entry.Amount)
		case capital.KindPaymentToSupplier:
			netVouchers = netVouchers.Sub(entry.Amount)
		case capital.KindSaleProfit, capital.KindConsignmentProfit:
			// Profits reference a product or a sale; either id resolves to
			// the product's source type.
			if sources[entry.ReferenceID] == valuation.SourceConsignment {
				erroneousConsignmentProfit = erroneousConsignmentProfit.Add(entry.Amount)
			} else {
				realizedOwnedProfit = realizedOwnedProfit.Add(entry.Amount)
			}
		}
	}

	expected := account.InitialCapital.
		Sub(val.OwnedStockValue).
		Sub(val.OwnedSoldCost).
		Add(realizedOwnedProfit).
		Sub(val.ConsignmentSoldUnsettledValue).
		Add(netVouchers)

	report := Report{
		VendorID:  vendorID,
		Expected:  expected,
		Actual:    account.CurrentBalance,
		Delta:     account.CurrentBalance.Sub(expected),
		CheckedAt: e.now().UTC(),
	}

	// Replay the ledger against the materialized balance. A corrupted entry
	// can leave the delta at zero while the chain is broken, so this check
	// runs even for clean deltas.
	divergence, broken := replayDivergence(account, entries)
	if broken {
		report.Explanations = append(report.Explanations, Explanation{
			Code:   CauseLedgerDivergence,
			Detail: "ledger/account divergence: stored balance disagrees with replayed entries",
			Amount: divergence,
		})
	}
	if report.Clean() {
		return report, nil
	}

	remainder := report.Delta
	if broken {
		remainder = remainder.Sub(divergence)
	}

	// Historic bug class: profit posted against consignment stock inflates
	// the actual balance one-for-one.
	if erroneousConsignmentProfit.IsPositive() {
		report.Explanations = append(report.Explanations, Explanation{
			Code:   CauseConsignmentProfit,
			Detail: fmt.Sprintf("erroneous consignment profit postings: amount %s", erroneousConsignmentProfit),
			Amount: erroneousConsignmentProfit,
		})
		remainder = remainder.Sub(erroneousConsignmentProfit)
	}

	if remainder.Abs().Cmp(Epsilon) <= 0 {
		return report, nil
	}

	// Expected subtracts the pending payable while the cash has not left yet,
	// so an outstanding settlement shows up as a positive remainder.
	if remainder.Equal(val.ConsignmentSoldUnsettledValue) {
		report.Explanations = append(report.Explanations, Explanation{
			Code:   CausePendingSettlement,
			Detail: fmt.Sprintf("consignment sales of %s await supplier settlement", remainder),
			Amount: remainder,
		})
		return report, nil
	}

	report.Explanations = append(report.Explanations, Explanation{
		Code:   CauseUnexplained,
		Detail: fmt.Sprintf("unexplained delta of %s", remainder),
		Amount: remainder,
	})
	return report, nil
}

// replayDivergence re-runs every entry from initial capital. It checks the
// per-entry invariant (balanceAfter == balanceBefore + signed), the chain
// continuity between entries, and the final materialized balance.
func replayDivergence(account capital.Account, entries []capital.LedgerEntry) (decimal.Decimal, bool) {
	running := account.InitialCapital
	broken := false
	for _, entry := range entries {
		if !entry.BalanceBefore.Equal(running) {
			broken = true
		}
		if !entry.BalanceAfter.Equal(entry.BalanceBefore.Add(entry.Signed())) {
			broken = true
		}
		running = running.Add(entry.Signed())
	}
	divergence := account.CurrentBalance.Sub(running)
	if !divergence.IsZero() {
		broken = true
	}
	return divergence, broken
}
