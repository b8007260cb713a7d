package capital

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu       sync.Mutex
	accounts map[int64]Account
	entries  []LedgerEntry
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64]Account)}
}

func (r *memoryRepo) seed(vendorID int64, initial string) {
	d := decimal.RequireFromString(initial)
	r.accounts[vendorID] = Account{VendorID: vendorID, InitialCapital: d, CurrentBalance: d}
}

func (r *memoryRepo) GetAccount(ctx context.Context, vendorID int64) (Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[vendorID]; ok {
		return a, nil
	}
	return Account{}, ErrAccountNotFound
}

func (r *memoryRepo) ListEntries(ctx context.Context, vendorID int64, limit int) ([]LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LedgerEntry
	for _, e := range r.entries {
		if e.VendorID == vendorID {
			out = append(out, e)
		}
	}
	return out, nil
}

// WithTx serializes the whole repo with one mutex; good enough to stand in
// for the per-vendor row lock in tests.
func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryTx{repo: r})
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) CreateAccount(ctx context.Context, vendorID int64, initialCapital decimal.Decimal) (Account, error) {
	if _, ok := tx.repo.accounts[vendorID]; ok {
		return Account{}, ErrAccountExists
	}
	a := Account{VendorID: vendorID, InitialCapital: initialCapital, CurrentBalance: initialCapital}
	tx.repo.accounts[vendorID] = a
	return a, nil
}

func (tx *memoryTx) GetAccountForUpdate(ctx context.Context, vendorID int64) (Account, error) {
	if a, ok := tx.repo.accounts[vendorID]; ok {
		return a, nil
	}
	return Account{}, ErrAccountNotFound
}

func (tx *memoryTx) UpdateBalance(ctx context.Context, vendorID int64, balance decimal.Decimal) error {
	a, ok := tx.repo.accounts[vendorID]
	if !ok {
		return ErrAccountNotFound
	}
	a.CurrentBalance = balance
	tx.repo.accounts[vendorID] = a
	return nil
}

func (tx *memoryTx) InsertEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error) {
	tx.repo.nextID++
	entry.ID = tx.repo.nextID
	tx.repo.entries = append(tx.repo.entries, entry)
	return entry, nil
}

func (tx *memoryTx) ReferencePosted(ctx context.Context, vendorID int64, kind EntryKind, referenceID string) (bool, error) {
	for _, e := range tx.repo.entries {
		if e.VendorID == vendorID && e.Kind == kind && e.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPurchaseThenSaleProfit(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "7500")
	engine := NewEngine(repo, nil, nil)
	ctx := context.Background()

	res, err := engine.Apply(ctx, ApplyInput{VendorID: 1, Kind: KindPurchase, Amount: dec("1000")})
	require.NoError(t, err)
	require.Nil(t, res.Warning)
	require.True(t, res.Entry.BalanceBefore.Equal(dec("7500")))
	require.True(t, res.Entry.BalanceAfter.Equal(dec("6500")))

	res, err = engine.Apply(ctx, ApplyInput{VendorID: 1, Kind: KindSaleProfit, Amount: dec("400")})
	require.NoError(t, err)
	require.True(t, res.Entry.BalanceAfter.Equal(dec("6900")))

	account, err := engine.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.True(t, account.CurrentBalance.Equal(dec("6900")))
}

func TestEntryInvariantHolds(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "7500")
	engine := NewEngine(repo, nil, nil)
	ctx := context.Background()

	postings := []ApplyInput{
		{VendorID: 1, Kind: KindPurchase, Amount: dec("1000")},
		{VendorID: 1, Kind: KindSaleProfit, Amount: dec("400")},
		{VendorID: 1, Kind: KindReceiptFromSupplier, Amount: dec("300")},
		{VendorID: 1, Kind: KindRefund, Amount: dec("500")},
		{VendorID: 1, Kind: KindPaymentToSupplier, Amount: dec("150")},
	}
	for _, p := range postings {
		_, err := engine.Apply(ctx, p)
		require.NoError(t, err)
	}

	entries, err := engine.ListEntries(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, len(postings))

	running := dec("7500")
	for _, e := range entries {
		require.True(t, e.BalanceBefore.Equal(running), "entry %d chain", e.ID)
		require.True(t, e.BalanceAfter.Equal(e.BalanceBefore.Add(e.Signed())), "entry %d invariant", e.ID)
		running = e.BalanceAfter
	}

	account, err := engine.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.True(t, account.CurrentBalance.Equal(running))
	require.True(t, account.CurrentBalance.Equal(dec("7050")))
}

func TestInsufficientCapitalIsWarningNotError(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "200")
	engine := NewEngine(repo, nil, nil)

	res, err := engine.Apply(context.Background(), ApplyInput{VendorID: 1, Kind: KindPurchase, Amount: dec("500")})
	require.NoError(t, err)
	require.NotNil(t, res.Warning)
	require.Equal(t, WarningInsufficientCapital, res.Warning.Code)
	require.True(t, res.Entry.BalanceAfter.Equal(dec("-300")))

	// The posting committed despite the warning.
	account, err := engine.GetAccount(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, account.CurrentBalance.Equal(dec("-300")))
}

func TestCreditNeverWarns(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "-50")
	engine := NewEngine(repo, nil, nil)

	res, err := engine.Apply(context.Background(), ApplyInput{VendorID: 1, Kind: KindSaleProfit, Amount: dec("10")})
	require.NoError(t, err)
	require.Nil(t, res.Warning)
}

func TestDuplicateReferenceRejected(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "1000")
	engine := NewEngine(repo, nil, nil)
	ctx := context.Background()

	input := ApplyInput{
		VendorID:      1,
		Kind:          KindPurchase,
		Amount:        dec("100"),
		ReferenceType: ReferenceProduct,
		ReferenceID:   "2f0c9a1e-5b52-4a4d-9f07-61a2a47fd001",
	}
	_, err := engine.Apply(ctx, input)
	require.NoError(t, err)

	_, err = engine.Apply(ctx, input)
	require.ErrorIs(t, err, ErrDuplicateReference)

	entries, err := engine.ListEntries(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Same reference under a different kind is a distinct event.
	input.Kind = KindRefund
	_, err = engine.Apply(ctx, input)
	require.NoError(t, err)
}

func TestAccountNotFound(t *testing.T) {
	engine := NewEngine(newMemoryRepo(), nil, nil)
	_, err := engine.Apply(context.Background(), ApplyInput{VendorID: 9, Kind: KindPurchase, Amount: dec("1")})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestInputGuards(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "100")
	engine := NewEngine(repo, nil, nil)
	ctx := context.Background()

	_, err := engine.Apply(ctx, ApplyInput{VendorID: 1, Kind: "BONUS", Amount: dec("1")})
	require.ErrorIs(t, err, ErrInvalidKind)

	_, err = engine.Apply(ctx, ApplyInput{VendorID: 1, Kind: KindPurchase, Amount: dec("-5")})
	require.ErrorIs(t, err, ErrNegativeAmount)

	_, err = engine.CreateAccount(ctx, 2, dec("-1"))
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestConcurrentAppliesSameVendor(t *testing.T) {
	repo := newMemoryRepo()
	repo.seed(1, "0")
	engine := NewEngine(repo, nil, nil)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.Apply(ctx, ApplyInput{VendorID: 1, Kind: KindSaleProfit, Amount: dec("1")})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	account, err := engine.GetAccount(ctx, 1)
	require.NoError(t, err)
	require.True(t, account.CurrentBalance.Equal(decimal.NewFromInt(n)), "lost update: %s", account.CurrentBalance)

	entries, err := engine.ListEntries(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, n)
	for _, e := range entries {
		require.True(t, e.BalanceAfter.Equal(e.BalanceBefore.Add(e.Signed())))
	}
}

func TestCreateAccountOnce(t *testing.T) {
	repo := newMemoryRepo()
	engine := NewEngine(repo, nil, nil)
	ctx := context.Background()

	account, err := engine.CreateAccount(ctx, 7, dec("7500"))
	require.NoError(t, err)
	require.True(t, account.InitialCapital.Equal(dec("7500")))
	require.True(t, account.CurrentBalance.Equal(dec("7500")))

	_, err = engine.CreateAccount(ctx, 7, dec("100"))
	require.ErrorIs(t, err, ErrAccountExists)
}
