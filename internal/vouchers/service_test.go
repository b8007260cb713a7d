package vouchers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tajirhub/tajir/internal/capital"
)

type memoryRepo struct {
	vouchers    map[int64]Voucher
	allocations map[int64][]Allocation
	nextID      int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{vouchers: make(map[int64]Voucher), allocations: make(map[int64][]Allocation)}
}

func (r *memoryRepo) Insert(ctx context.Context, v Voucher, allocations []Allocation) (Voucher, error) {
	r.nextID++
	v.ID = r.nextID
	r.vouchers[v.ID] = v
	r.allocations[v.ID] = allocations
	return v, nil
}

func (r *memoryRepo) List(ctx context.Context, vendorID int64) ([]Voucher, error) {
	var out []Voucher
	for _, v := range r.vouchers {
		if v.VendorID == vendorID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memoryRepo) Remove(ctx context.Context, voucherID int64) error {
	delete(r.vouchers, voucherID)
	delete(r.allocations, voucherID)
	return nil
}

type fakeEngine struct {
	applied []capital.ApplyInput
	warning *capital.Warning
	err     error
}

func (e *fakeEngine) Apply(ctx context.Context, input capital.ApplyInput) (capital.ApplyResult, error) {
	if e.err != nil {
		return capital.ApplyResult{}, e.err
	}
	e.applied = append(e.applied, input)
	return capital.ApplyResult{
		Entry:   capital.LedgerEntry{VendorID: input.VendorID, Kind: input.Kind, Amount: input.Amount},
		Warning: e.warning,
	}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPostReceiptCreditsCapital(t *testing.T) {
	repo := newMemoryRepo()
	engine := &fakeEngine{}
	svc := NewService(repo, engine)

	result, err := svc.Post(context.Background(), PostInput{
		VendorID: 1, Kind: capital.KindReceiptFromSupplier, Amount: dec("300"), Note: "rebate",
	})
	require.NoError(t, err)
	require.Len(t, engine.applied, 1)
	require.Equal(t, capital.KindReceiptFromSupplier, engine.applied[0].Kind)
	require.Equal(t, capital.ReferenceVoucher, engine.applied[0].ReferenceType)
	require.Equal(t, result.Voucher.PublicID, engine.applied[0].ReferenceID)
}

// A receipt remits the vendor's margin while its allocations settle the sold
// consignment cost, so the settled total legitimately exceeds the cash amount.
func TestPostReceiptSettlesCostAboveItsAmount(t *testing.T) {
	repo := newMemoryRepo()
	engine := &fakeEngine{}
	svc := NewService(repo, engine)

	result, err := svc.Post(context.Background(), PostInput{
		VendorID: 1, Kind: capital.KindReceiptFromSupplier, Amount: dec("300"),
		Allocations: []AllocationInput{{ProductID: 7, Amount: dec("450")}},
	})
	require.NoError(t, err)
	require.Len(t, repo.allocations[result.Voucher.ID], 1)
	require.True(t, repo.allocations[result.Voucher.ID][0].Amount.Equal(dec("450")))
	require.Len(t, engine.applied, 1)
	require.True(t, engine.applied[0].Amount.Equal(dec("300")))
}

func TestPostPaymentWithAllocations(t *testing.T) {
	repo := newMemoryRepo()
	engine := &fakeEngine{}
	svc := NewService(repo, engine)

	result, err := svc.Post(context.Background(), PostInput{
		VendorID: 1, Kind: capital.KindPaymentToSupplier, Amount: dec("500"),
		Allocations: []AllocationInput{
			{ProductID: 7, Amount: dec("300")},
			{ProductID: 8, Amount: dec("200")},
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.allocations[result.Voucher.ID], 2)
	require.Len(t, engine.applied, 1)
	require.Equal(t, capital.KindPaymentToSupplier, engine.applied[0].Kind)
}

func TestPostPaymentWarningPropagates(t *testing.T) {
	repo := newMemoryRepo()
	engine := &fakeEngine{warning: &capital.Warning{Code: capital.WarningInsufficientCapital}}
	svc := NewService(repo, engine)

	result, err := svc.Post(context.Background(), PostInput{
		VendorID: 1, Kind: capital.KindPaymentToSupplier, Amount: dec("9000"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Warning)
	require.Equal(t, capital.WarningInsufficientCapital, result.Warning.Code)
}

func TestPostRemovesVoucherWhenPostingFails(t *testing.T) {
	repo := newMemoryRepo()
	engine := &fakeEngine{err: capital.ErrDuplicateReference}
	svc := NewService(repo, engine)

	_, err := svc.Post(context.Background(), PostInput{
		VendorID: 1, Kind: capital.KindReceiptFromSupplier, Amount: dec("300"),
	})
	require.ErrorIs(t, err, capital.ErrDuplicateReference)
	require.Empty(t, repo.vouchers, "voucher must not survive a failed posting")
}

func TestPostInputGuards(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeEngine{})
	ctx := context.Background()

	_, err := svc.Post(ctx, PostInput{VendorID: 1, Kind: capital.KindPurchase, Amount: dec("10")})
	require.ErrorIs(t, err, ErrInvalidKind)

	_, err = svc.Post(ctx, PostInput{VendorID: 1, Kind: capital.KindReceiptFromSupplier, Amount: dec("0")})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Post(ctx, PostInput{
		VendorID: 1, Kind: capital.KindPaymentToSupplier, Amount: dec("100"),
		Allocations: []AllocationInput{{ProductID: 7, Amount: dec("150")}},
	})
	require.ErrorIs(t, err, ErrAllocationExceedsAmount)

	_, err = svc.Post(ctx, PostInput{
		VendorID: 1, Kind: capital.KindPaymentToSupplier, Amount: dec("100"),
		Allocations: []AllocationInput{{ProductID: 0, Amount: dec("50")}},
	})
	require.ErrorIs(t, err, ErrInvalidAllocation)
}
