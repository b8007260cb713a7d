package vouchers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
)

// CapitalEngine is the slice of the transaction engine this flow needs.
type CapitalEngine interface {
	Apply(ctx context.Context, input capital.ApplyInput) (capital.ApplyResult, error)
}

// Service posts supplier vouchers. A receipt credits the vendor's capital, a
// payment debits it, and either kind may carry allocations that settle
// consignment payables product by product.
type Service struct {
	repo    Repository
	engine  CapitalEngine
	newUUID func() string
}

// NewService builds Service.
func NewService(repo Repository, engine CapitalEngine) *Service {
	return &Service{repo: repo, engine: engine, newUUID: func() string { return uuid.NewString() }}
}

// PostResult carries the stored voucher plus any capital warning.
type PostResult struct {
	Voucher Voucher
	Warning *capital.Warning
}

// Post stores the voucher with its allocations and applies the matching
// ledger entry. If the posting fails the voucher is removed again.
func (s *Service) Post(ctx context.Context, input PostInput) (PostResult, error) {
	if input.Kind != capital.KindReceiptFromSupplier && input.Kind != capital.KindPaymentToSupplier {
		return PostResult{}, ErrInvalidKind
	}
	if !input.Amount.IsPositive() {
		return PostResult{}, ErrInvalidAmount
	}
	allocations, err := buildAllocations(input)
	if err != nil {
		return PostResult{}, err
	}

	voucher, err := s.repo.Insert(ctx, Voucher{
		VendorID: input.VendorID,
		PublicID: s.newUUID(),
		Kind:     input.Kind,
		Amount:   input.Amount,
		Note:     input.Note,
	}, allocations)
	if err != nil {
		return PostResult{}, err
	}

	result, err := s.engine.Apply(ctx, capital.ApplyInput{
		VendorID:      input.VendorID,
		Kind:          input.Kind,
		Amount:        input.Amount,
		Description:   fmt.Sprintf("supplier voucher %s", voucher.PublicID),
		ReferenceType: capital.ReferenceVoucher,
		ReferenceID:   voucher.PublicID,
		ActorID:       input.ActorID,
	})
	if err != nil {
		_ = s.repo.Remove(ctx, voucher.ID)
		return PostResult{}, err
	}
	return PostResult{Voucher: voucher, Warning: result.Warning}, nil
}

// List returns the vendor's vouchers ascending by creation.
func (s *Service) List(ctx context.Context, vendorID int64) ([]Voucher, error) {
	return s.repo.List(ctx, vendorID)
}

// buildAllocations validates the settlement lines. Allocations record sold
// consignment COST settled with the supplier, while the voucher amount is
// cash: a payment settles out of the cash it moves, so its lines are capped
// at the amount, but a receipt remits the vendor's margin and routinely
// settles a cost larger than that margin, so no cap applies.
func buildAllocations(input PostInput) ([]Allocation, error) {
	if len(input.Allocations) == 0 {
		return nil, nil
	}
	total := decimal.Zero
	out := make([]Allocation, 0, len(input.Allocations))
	for _, a := range input.Allocations {
		if a.ProductID <= 0 || !a.Amount.IsPositive() {
			return nil, ErrInvalidAllocation
		}
		total = total.Add(a.Amount)
		out = append(out, Allocation{ProductID: a.ProductID, Amount: a.Amount})
	}
	if input.Kind == capital.KindPaymentToSupplier && total.GreaterThan(input.Amount) {
		return nil, ErrAllocationExceedsAmount
	}
	return out, nil
}
