package reconcile

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/valuation"
)

type stubAccounts struct {
	account capital.Account
	entries []capital.LedgerEntry
}

func (s *stubAccounts) GetAccount(ctx context.Context, vendorID int64) (capital.Account, error) {
	return s.account, nil
}

func (s *stubAccounts) ListEntries(ctx context.Context, vendorID int64, limit int) ([]capital.LedgerEntry, error) {
	return s.entries, nil
}

// stubPositions feeds the real valuation service, so every aggregate the
// engine consumes is derived from position rows the same way production is.
type stubPositions struct {
	positions []valuation.Position
}

func (s *stubPositions) ListPositions(ctx context.Context, vendorID int64) ([]valuation.Position, error) {
	return s.positions, nil
}

type stubSources map[string]valuation.SourceType

func (s stubSources) SourceByReference(ctx context.Context, vendorID int64) (map[string]valuation.SourceType, error) {
	return s, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

const (
	refOwned           = "11111111-1111-4111-8111-111111111111"
	refConsignment     = "22222222-2222-4222-8222-222222222222"
	refVoucher         = "33333333-3333-4333-8333-333333333333"
	refConsignmentSale = "44444444-4444-4444-8444-444444444444"
)

// entry builds a chained ledger entry and advances the running balance.
func entry(running *decimal.Decimal, kind capital.EntryKind, amount, refType, refID string) capital.LedgerEntry {
	a := dec(amount)
	before := *running
	after := before.Add(capital.SignedAmount(kind, a))
	*running = after
	return capital.LedgerEntry{
		VendorID:      1,
		Kind:          kind,
		Amount:        a,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceType: refType,
		ReferenceID:   refID,
	}
}

// marketplaceHistory reproduces the canonical purchase/sale/consignment/
// deletion sequence: buy 10 owned @100, sell 5 @180, take 5 consignment
// @150, sell 3 @250, receive the 300 margin (its allocation settles the 450
// sold cost), delete the owned leftovers.
func marketplaceHistory() (*stubAccounts, *valuation.Service, stubSources) {
	running := dec("7500")
	entries := []capital.LedgerEntry{
		entry(&running, capital.KindPurchase, "1000", capital.ReferenceProduct, refOwned),
		entry(&running, capital.KindSaleProfit, "400", capital.ReferenceProduct, refOwned),
		entry(&running, capital.KindReceiptFromSupplier, "300", capital.ReferenceVoucher, refVoucher),
		entry(&running, capital.KindRefund, "500", capital.ReferenceProduct, refOwned),
	}
	accounts := &stubAccounts{
		account: capital.Account{VendorID: 1, InitialCapital: dec("7500"), CurrentBalance: running},
		entries: entries,
	}
	positions := &stubPositions{positions: []valuation.Position{
		{
			// Owned product, deleted after the refund; sold history survives.
			ProductID: 1, SourceType: valuation.SourceOwned,
			UnitCost: dec("100"), QuantityOnHand: 0, QuantitySold: 5, Deleted: true,
		},
		{
			// Consignment product: 3 of 5 sold, payable of 450 settled by the
			// receipt voucher's allocation row.
			ProductID: 2, SourceType: valuation.SourceConsignment,
			UnitCost: dec("150"), QuantityOnHand: 2, QuantitySold: 3,
			SettledValue: dec("450"),
		},
	}}
	sources := stubSources{
		refOwned:           valuation.SourceOwned,
		refConsignment:     valuation.SourceConsignment,
		refConsignmentSale: valuation.SourceConsignment,
	}
	return accounts, valuation.NewService(positions), sources
}

func TestReconcileCleanBooks(t *testing.T) {
	accounts, valuations, sources := marketplaceHistory()
	engine := NewEngine(accounts, valuations, sources)

	report, err := engine.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, report.Actual.Equal(dec("7700")))
	require.True(t, report.Expected.Equal(dec("7700")))
	require.True(t, report.Clean(), "delta %s", report.Delta)
	require.Empty(t, report.Explanations)
}

func TestReconcileDetectsCorruptedEntry(t *testing.T) {
	accounts, valuations, sources := marketplaceHistory()
	// Corrupt one entry's balanceAfter without touching amounts: the delta
	// stays zero but the chain no longer replays.
	accounts.entries[1].BalanceAfter = accounts.entries[1].BalanceAfter.Add(dec("50"))
	engine := NewEngine(accounts, valuations, sources)

	report, err := engine.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, report.Explanations, 1)
	require.Equal(t, CauseLedgerDivergence, report.Explanations[0].Code)
}

func TestReconcileDetectsNonAtomicWrite(t *testing.T) {
	accounts, valuations, sources := marketplaceHistory()
	// Balance mutated without a ledger entry.
	accounts.account.CurrentBalance = accounts.account.CurrentBalance.Add(dec("250"))
	engine := NewEngine(accounts, valuations, sources)

	report, err := engine.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, report.Delta.Equal(dec("250")))
	require.Len(t, report.Explanations, 1)
	require.Equal(t, CauseLedgerDivergence, report.Explanations[0].Code)
	require.True(t, report.Explanations[0].Amount.Equal(dec("250")))
}

func TestReconcileAttributesConsignmentProfitBug(t *testing.T) {
	accounts, valuations, sources := marketplaceHistory()
	running := accounts.account.CurrentBalance
	accounts.entries = append(accounts.entries,
		entry(&running, capital.KindSaleProfit, "300", capital.ReferenceProduct, refConsignment))
	accounts.account.CurrentBalance = running
	engine := NewEngine(accounts, valuations, sources)

	report, err := engine.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, report.Delta.Equal(dec("300")))
	require.Len(t, report.Explanations, 1)
	require.Equal(t, CauseConsignmentProfit, report.Explanations[0].Code)
	require.True(t, report.Explanations[0].Amount.Equal(dec("300")))
}

func TestReconcileAttributesConsignmentProfitViaSaleReference(t *testing.T) {
	// The sales flow references the sale, not the product; the posting must
	// still resolve to consignment stock instead of passing as owned profit.
	accounts, valuations, sources := marketplaceHistory()
	running := accounts.account.CurrentBalance
	accounts.entries = append(accounts.entries,
		entry(&running, capital.KindSaleProfit, "300", capital.ReferenceOrder, refConsignmentSale))
	accounts.account.CurrentBalance = running
	engine := NewEngine(accounts, valuations, sources)

	report, err := engine.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, report.Delta.Equal(dec("300")))
	require.Len(t, report.Explanations, 1)
	require.Equal(t, CauseConsignmentProfit, report.Explanations[0].Code)
	require.True(t, report.Explanations[0].Amount.Equal(dec("300")))
}

func TestReconcileFlagsPendingSettlement(t *testing.T) {
	// Consignment goods sold, voucher not yet posted: no allocation rows, so
	// the payable stays open.
	accounts := &stubAccounts{
		account: capital.Account{VendorID: 1, InitialCapital: dec("7500"), CurrentBalance: dec("7500")},
	}
	positions := &stubPositions{positions: []valuation.Position{
		{
			ProductID: 2, SourceType: valuation.SourceConsignment,
			UnitCost: dec("150"), QuantityOnHand: 2, QuantitySold: 3,
		},
	}}
	engine := NewEngine(accounts, valuation.NewService(positions), stubSources{})

	report, err := engine.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, report.Delta.Equal(dec("450")))
	require.Len(t, report.Explanations, 1)
	require.Equal(t, CausePendingSettlement, report.Explanations[0].Code)
}

func TestReconcileUnexplainedDelta(t *testing.T) {
	accounts := &stubAccounts{
		account: capital.Account{VendorID: 1, InitialCapital: dec("1000"), CurrentBalance: dec("1000")},
	}
	// Inventory shows stock the ledger never paid for: nothing attributes it.
	positions := &stubPositions{positions: []valuation.Position{
		{
			ProductID: 1, SourceType: valuation.SourceOwned,
			UnitCost: dec("100"), QuantityOnHand: 1,
		},
	}}
	engine := NewEngine(accounts, valuation.NewService(positions), stubSources{})

	report, err := engine.Reconcile(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, report.Delta.Equal(dec("100")))
	require.Len(t, report.Explanations, 1)
	require.Equal(t, CauseUnexplained, report.Explanations[0].Code)
}
