package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Service computes the capital value locked in a vendor's inventory.
// Pure read side: no mutation, safe to call concurrently with postings.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Snapshot returns the vendor's valuation from one consistent read.
func (s *Service) Snapshot(ctx context.Context, vendorID int64) (Valuation, error) {
	if vendorID == 0 {
		return Valuation{}, errors.New("valuation: vendor id required")
	}
	positions, err := s.repo.ListPositions(ctx, vendorID)
	if err != nil {
		return Valuation{}, err
	}

	v := Valuation{
		VendorID:                      vendorID,
		AsOf:                          s.now().UTC(),
		OwnedStockValue:               decimal.Zero,
		OwnedSoldCost:                 decimal.Zero,
		ConsignmentStockValue:         decimal.Zero,
		ConsignmentSoldUnsettledValue: decimal.Zero,
		Positions:                     positions,
	}
	for _, p := range positions {
		switch p.SourceType {
		case SourceOwned:
			if !p.Deleted {
				v.OwnedStockValue = v.OwnedStockValue.Add(p.OnHandValue())
			}
			v.OwnedSoldCost = v.OwnedSoldCost.Add(p.SoldCost())
		case SourceConsignment:
			if !p.Deleted {
				v.ConsignmentStockValue = v.ConsignmentStockValue.Add(p.OnHandValue())
			}
			v.ConsignmentSoldUnsettledValue = v.ConsignmentSoldUnsettledValue.Add(p.UnsettledPayable())
		}
	}
	return v, nil
}
