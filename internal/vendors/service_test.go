package vendors

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tajirhub/tajir/internal/capital"
)

type memoryRepo struct {
	vendors map[int64]Vendor
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{vendors: make(map[int64]Vendor)}
}

func (r *memoryRepo) Insert(ctx context.Context, v Vendor) (Vendor, error) {
	for _, existing := range r.vendors {
		if existing.Email != "" && existing.Email == v.Email {
			return Vendor{}, ErrEmailTaken
		}
	}
	r.nextID++
	v.ID = r.nextID
	r.vendors[v.ID] = v
	return v, nil
}

func (r *memoryRepo) Get(ctx context.Context, vendorID int64) (Vendor, error) {
	v, ok := r.vendors[vendorID]
	if !ok {
		return Vendor{}, ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) ListIDs(ctx context.Context) ([]int64, error) {
	var out []int64
	for id := range r.vendors {
		out = append(out, id)
	}
	return out, nil
}

func (r *memoryRepo) Remove(ctx context.Context, vendorID int64) error {
	delete(r.vendors, vendorID)
	return nil
}

type fakeProvisioner struct {
	created map[int64]decimal.Decimal
	err     error
}

func (p *fakeProvisioner) CreateAccount(ctx context.Context, vendorID int64, initialCapital decimal.Decimal) (capital.Account, error) {
	if p.err != nil {
		return capital.Account{}, p.err
	}
	if p.created == nil {
		p.created = make(map[int64]decimal.Decimal)
	}
	p.created[vendorID] = initialCapital
	return capital.Account{VendorID: vendorID, InitialCapital: initialCapital, CurrentBalance: initialCapital}, nil
}

func TestOnboardProvisionsAccount(t *testing.T) {
	repo := newMemoryRepo()
	provisioner := &fakeProvisioner{}
	svc := NewService(repo, provisioner)

	result, err := svc.Onboard(context.Background(), OnboardInput{
		Name: "Amina Traders", Email: "amina@example.com",
		InitialCapital: decimal.RequireFromString("7500"),
	})
	require.NoError(t, err)
	require.NotZero(t, result.Vendor.ID)
	require.True(t, result.Account.CurrentBalance.Equal(decimal.RequireFromString("7500")))
	require.Contains(t, provisioner.created, result.Vendor.ID)
}

func TestOnboardRemovesVendorWhenProvisioningFails(t *testing.T) {
	repo := newMemoryRepo()
	provisioner := &fakeProvisioner{err: capital.ErrAccountExists}
	svc := NewService(repo, provisioner)

	_, err := svc.Onboard(context.Background(), OnboardInput{
		Name: "Amina Traders", InitialCapital: decimal.RequireFromString("7500"),
	})
	require.ErrorIs(t, err, capital.ErrAccountExists)
	require.Empty(t, repo.vendors, "vendor row must not survive failed provisioning")
}

func TestOnboardRejectsNegativeCapital(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeProvisioner{})

	_, err := svc.Onboard(context.Background(), OnboardInput{
		Name: "Amina Traders", InitialCapital: decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, capital.ErrNegativeAmount)
}

func TestOnboardDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeProvisioner{})
	ctx := context.Background()

	_, err := svc.Onboard(ctx, OnboardInput{Name: "A", Email: "a@example.com", InitialCapital: decimal.Zero})
	require.NoError(t, err)

	_, err = svc.Onboard(ctx, OnboardInput{Name: "B", Email: "a@example.com", InitialCapital: decimal.Zero})
	require.ErrorIs(t, err, ErrEmailTaken)
}
