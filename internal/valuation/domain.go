package valuation

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType says who financed the stock.
type SourceType string

const (
	// SourceOwned stock was paid from vendor capital at purchase time.
	SourceOwned SourceType = "OWNED"
	// SourceConsignment stock is held on behalf of a supplier; its cost
	// never touched vendor capital.
	SourceConsignment SourceType = "CONSIGNMENT"
)

// Position is the derived capital view of one product.
type Position struct {
	ProductID      int64
	SourceType     SourceType
	UnitCost       decimal.Decimal
	QuantityOnHand int64
	QuantitySold   int64
	SettledValue   decimal.Decimal // voucher allocations against this product
	Deleted        bool
}

// OnHandValue returns unitCost × quantityOnHand.
func (p Position) OnHandValue() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(p.QuantityOnHand))
}

// SoldCost returns unitCost × quantitySold.
func (p Position) SoldCost() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(p.QuantitySold))
}

// UnsettledPayable is the consignment sold-cost not yet covered by supplier
// vouchers, clamped at zero so over-allocation cannot turn it into a credit.
func (p Position) UnsettledPayable() decimal.Decimal {
	if p.SourceType != SourceConsignment {
		return decimal.Zero
	}
	payable := p.SoldCost().Sub(p.SettledValue)
	if payable.IsNegative() {
		return decimal.Zero
	}
	return payable
}

// Valuation summarises the capital locked in a vendor's inventory as of one
// consistent snapshot.
type Valuation struct {
	VendorID int64
	AsOf     time.Time

	// OwnedStockValue is capital sitting in the warehouse: already deducted
	// at purchase, subtracted when recomputing the expected balance.
	OwnedStockValue decimal.Decimal
	// OwnedSoldCost is the cost of owned goods already sold. That capital
	// neither sits in stock nor returned to the account (sales credit margin
	// only), so reconciliation subtracts it too. Soft-deleted products keep
	// contributing their sold history here.
	OwnedSoldCost decimal.Decimal
	// ConsignmentStockValue is informational: never paid from capital.
	ConsignmentStockValue decimal.Decimal
	// ConsignmentSoldUnsettledValue is the pending supplier payable.
	ConsignmentSoldUnsettledValue decimal.Decimal

	Positions []Position
}
