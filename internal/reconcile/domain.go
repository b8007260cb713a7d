package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

// Epsilon is the smallest currency unit; deltas at or under it are noise.
var Epsilon = decimal.New(1, -2)

// Explanation codes, ordered by how the engine attributes a delta.
const (
	// CauseConsignmentProfit: profit entries posted against consignment
	// products. The historically recurring bug class.
	CauseConsignmentProfit = "ERRONEOUS_CONSIGNMENT_PROFIT"
	// CauseLedgerDivergence: the account balance disagrees with the replayed
	// ledger, meaning a non-atomic write happened at some point.
	CauseLedgerDivergence = "LEDGER_ACCOUNT_DIVERGENCE"
	// CausePendingSettlement: consignment goods sold but not yet settled by
	// a supplier voucher; resolves itself once the voucher posts.
	CausePendingSettlement = "PENDING_CONSIGNMENT_SETTLEMENT"
	// CauseUnexplained: no known failure class accounts for the remainder.
	CauseUnexplained = "UNEXPLAINED_DELTA"
)

// Explanation attributes part of a delta to a known cause.
type Explanation struct {
	Code   string          `json:"code"`
	Detail string          `json:"detail"`
	Amount decimal.Decimal `json:"amount"`
}

// Report is the outcome of one reconciliation run. Drift is a result value,
// never an error; nothing here mutates state.
type Report struct {
	VendorID     int64           `json:"vendor_id"`
	Expected     decimal.Decimal `json:"expected"`
	Actual       decimal.Decimal `json:"actual"`
	Delta        decimal.Decimal `json:"delta"`
	Explanations []Explanation   `json:"explanations"`
	CheckedAt    time.Time       `json:"checked_at"`
}

// Clean reports whether the delta is within the currency epsilon.
func (r Report) Clean() bool {
	return r.Delta.Abs().Cmp(Epsilon) <= 0
}
