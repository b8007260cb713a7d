package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/valuation"
)

// CapitalEngine is the slice of the transaction engine this flow needs.
type CapitalEngine interface {
	Apply(ctx context.Context, input capital.ApplyInput) (capital.ApplyResult, error)
}

// Service coordinates the purchase-recording and product-deletion flows.
// Capital semantics live entirely in the engine; this service only decides
// when to call it.
type Service struct {
	repo    Repository
	engine  CapitalEngine
	newUUID func() string
}

// NewService builds Service.
func NewService(repo Repository, engine CapitalEngine) *Service {
	return &Service{repo: repo, engine: engine, newUUID: func() string { return uuid.NewString() }}
}

// CreateResult carries the stored product plus any capital warning.
type CreateResult struct {
	Product Product
	Warning *capital.Warning
}

// Create stores the product and, for OWNED stock, posts the purchase debit.
// Insufficient capital never blocks the purchase; the warning rides along
// for the caller to display. Consignment stock never touches capital.
func (s *Service) Create(ctx context.Context, input CreateInput) (CreateResult, error) {
	if input.VendorID == 0 || input.Name == "" {
		return CreateResult{}, errors.New("products: vendor and name required")
	}
	if input.SourceType != valuation.SourceOwned && input.SourceType != valuation.SourceConsignment {
		return CreateResult{}, ErrInvalidSource
	}
	if input.Quantity <= 0 {
		return CreateResult{}, ErrInvalidQuantity
	}
	if input.UnitCost.IsNegative() {
		return CreateResult{}, ErrInvalidUnitCost
	}

	product, err := s.repo.Insert(ctx, Product{
		VendorID:       input.VendorID,
		PublicID:       s.newUUID(),
		Name:           input.Name,
		SourceType:     input.SourceType,
		UnitCost:       input.UnitCost,
		QuantityOnHand: input.Quantity,
	})
	if err != nil {
		return CreateResult{}, err
	}

	if input.SourceType == valuation.SourceConsignment {
		return CreateResult{Product: product}, nil
	}

	cost := input.UnitCost.Mul(decimal.NewFromInt(input.Quantity))
	result, err := s.engine.Apply(ctx, capital.ApplyInput{
		VendorID:      input.VendorID,
		Kind:          capital.KindPurchase,
		Amount:        cost,
		Description:   fmt.Sprintf("purchase %d x %s", input.Quantity, input.Name),
		ReferenceType: capital.ReferenceProduct,
		ReferenceID:   product.PublicID,
		ActorID:       input.ActorID,
	})
	if err != nil {
		// The purchase never reached the ledger; take the row back out.
		_ = s.repo.Remove(ctx, product.ID)
		return CreateResult{}, err
	}
	return CreateResult{Product: product, Warning: result.Warning}, nil
}

// Get returns one active product.
func (s *Service) Get(ctx context.Context, vendorID, productID int64) (Product, error) {
	return s.repo.Get(ctx, vendorID, productID)
}

// List returns the vendor's active products.
func (s *Service) List(ctx context.Context, vendorID int64) ([]Product, error) {
	return s.repo.List(ctx, vendorID)
}

// Delete refunds the unsold value of an OWNED product and soft-deletes the
// row. The refund posts first: the row only disappears after the ledger
// write commits. Returns the refunded amount.
func (s *Service) Delete(ctx context.Context, vendorID, productID, actorID int64) (decimal.Decimal, error) {
	product, err := s.repo.Get(ctx, vendorID, productID)
	if err != nil {
		return decimal.Zero, err
	}

	refund := decimal.Zero
	if product.SourceType == valuation.SourceOwned && product.QuantityOnHand > 0 {
		result, err := s.engine.Apply(ctx, capital.ApplyInput{
			VendorID:      vendorID,
			Kind:          capital.KindRefund,
			Amount:        product.OnHandValue(),
			Description:   fmt.Sprintf("refund on deletion of %s (%d unsold)", product.Name, product.QuantityOnHand),
			ReferenceType: capital.ReferenceProduct,
			ReferenceID:   product.PublicID,
			ActorID:       actorID,
		})
		switch {
		case err == nil:
			refund = result.Entry.Amount
		case errors.Is(err, capital.ErrDuplicateReference):
			// A prior attempt committed the refund but died before the soft
			// delete. The money is already back; finish the deletion.
			refund = product.OnHandValue()
		default:
			return decimal.Zero, err
		}
	}

	if err := s.repo.SoftDelete(ctx, vendorID, productID); err != nil {
		return decimal.Zero, err
	}
	return refund, nil
}
