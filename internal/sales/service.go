package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
	"github.com/tajirhub/tajir/internal/products"
	"github.com/tajirhub/tajir/internal/valuation"
)

// CapitalEngine is the slice of the transaction engine this flow needs.
type CapitalEngine interface {
	Apply(ctx context.Context, input capital.ApplyInput) (capital.ApplyResult, error)
}

// Service records sales: it moves stock from on-hand to sold and, for OWNED
// products, realizes the margin through the capital engine. Consignment sales
// move stock only; the supplier is settled later through vouchers.
type Service struct {
	repo     Repository
	products products.Repository
	engine   CapitalEngine
	newUUID  func() string
}

// NewService builds Service.
func NewService(repo Repository, productRepo products.Repository, engine CapitalEngine) *Service {
	return &Service{repo: repo, products: productRepo, engine: engine, newUUID: func() string { return uuid.NewString() }}
}

// RecordResult carries the stored sale plus any capital warning.
type RecordResult struct {
	Sale    Sale
	Warning *capital.Warning
}

// Record moves quantity from on-hand to sold inside one product transaction,
// stores the sale, and posts SALE_PROFIT for OWNED products. A sale at or
// below cost realizes no profit entry. If the posting fails the stock move
// and the sale row are reversed.
func (s *Service) Record(ctx context.Context, input RecordInput) (RecordResult, error) {
	if input.Quantity <= 0 {
		return RecordResult{}, ErrInvalidQuantity
	}
	if input.SellingPrice.IsNegative() {
		return RecordResult{}, ErrInvalidPrice
	}

	var product products.Product
	err := s.products.WithTx(ctx, func(ctx context.Context, tx products.TxRepository) error {
		p, err := tx.GetForUpdate(ctx, input.VendorID, input.ProductID)
		if err != nil {
			return err
		}
		if p.QuantityOnHand < input.Quantity {
			return ErrOversell
		}
		if err := tx.AdjustQuantities(ctx, p.ID, -input.Quantity, input.Quantity); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}

	qty := decimal.NewFromInt(input.Quantity)
	profit := input.SellingPrice.Sub(product.UnitCost).Mul(qty)

	sale, err := s.repo.Insert(ctx, Sale{
		VendorID:     input.VendorID,
		ProductID:    product.ID,
		PublicID:     s.newUUID(),
		Quantity:     input.Quantity,
		SellingPrice: input.SellingPrice,
		UnitCost:     product.UnitCost,
		Profit:       profit,
	})
	if err != nil {
		s.reverseStock(ctx, input)
		return RecordResult{}, err
	}

	if product.SourceType != valuation.SourceOwned || !profit.IsPositive() {
		return RecordResult{Sale: sale}, nil
	}

	result, err := s.engine.Apply(ctx, capital.ApplyInput{
		VendorID:      input.VendorID,
		Kind:          capital.KindSaleProfit,
		Amount:        profit,
		Description:   fmt.Sprintf("profit on sale of %d x %s", input.Quantity, product.Name),
		ReferenceType: capital.ReferenceOrder,
		ReferenceID:   sale.PublicID,
		ActorID:       input.ActorID,
	})
	if err != nil {
		_ = s.repo.Remove(ctx, sale.ID)
		s.reverseStock(ctx, input)
		return RecordResult{}, err
	}
	return RecordResult{Sale: sale, Warning: result.Warning}, nil
}

// List returns the vendor's sales ascending by creation.
func (s *Service) List(ctx context.Context, vendorID int64) ([]Sale, error) {
	return s.repo.List(ctx, vendorID)
}

func (s *Service) reverseStock(ctx context.Context, input RecordInput) {
	_ = s.products.WithTx(ctx, func(ctx context.Context, tx products.TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, input.VendorID, input.ProductID); err != nil {
			return err
		}
		return tx.AdjustQuantities(ctx, input.ProductID, input.Quantity, -input.Quantity)
	})
}
