package vendors

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tajirhub/tajir/internal/capital"
)

// AccountProvisioner is the slice of the capital engine onboarding needs.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, vendorID int64, initialCapital decimal.Decimal) (capital.Account, error)
}

// Service onboards vendors. A vendor without a capital account cannot trade,
// so the account is provisioned as part of onboarding and the vendor row is
// taken back out if provisioning fails.
type Service struct {
	repo     Repository
	accounts AccountProvisioner
}

// NewService builds Service.
func NewService(repo Repository, accounts AccountProvisioner) *Service {
	return &Service{repo: repo, accounts: accounts}
}

// OnboardResult carries the vendor and its freshly provisioned account.
type OnboardResult struct {
	Vendor  Vendor
	Account capital.Account
}

// Onboard creates the vendor row and its capital account.
func (s *Service) Onboard(ctx context.Context, input OnboardInput) (OnboardResult, error) {
	if input.Name == "" {
		return OnboardResult{}, errors.New("vendors: name required")
	}
	if input.InitialCapital.IsNegative() {
		return OnboardResult{}, capital.ErrNegativeAmount
	}

	vendor, err := s.repo.Insert(ctx, Vendor{Name: input.Name, Email: input.Email})
	if err != nil {
		return OnboardResult{}, err
	}

	account, err := s.accounts.CreateAccount(ctx, vendor.ID, input.InitialCapital)
	if err != nil {
		_ = s.repo.Remove(ctx, vendor.ID)
		return OnboardResult{}, err
	}
	return OnboardResult{Vendor: vendor, Account: account}, nil
}

// Get returns one vendor.
func (s *Service) Get(ctx context.Context, vendorID int64) (Vendor, error) {
	return s.repo.Get(ctx, vendorID)
}

// ListIDs returns every vendor id.
func (s *Service) ListIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListIDs(ctx)
}
