package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

func TestInTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, domain.Protocol{Authority: "auth", FeeBps: 500}))
	require.NoError(t, s.Ledger().Mint(ctx, domain.AssetSBYL, "alice", 100, domain.MintAuthority))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(ctx context.Context) error {
		p, err := s.Get(ctx)
		require.NoError(t, err)
		p.MarketCount = 99
		require.NoError(t, s.Update(ctx, p))

		require.NoError(t, s.Markets().Create(ctx, domain.Market{ID: 7, Status: domain.StatusOpen}))
		require.NoError(t, s.Ledger().Transfer(ctx, domain.AssetSBYL, "alice", "bob", 40))
		require.NoError(t, s.Audit().Log(ctx, "test.event", nil))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Every mutation inside the failed transaction is gone.
	p, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.MarketCount)

	_, err = s.Markets().Get(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	bal, err := s.Ledger().Balance(ctx, domain.AssetSBYL, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal)

	entries, err := s.Audit().List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInTx_CommitsOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context) error {
		return s.Markets().Create(ctx, domain.Market{ID: 1, Status: domain.StatusOpen})
	})
	require.NoError(t, err)

	_, err = s.Markets().Get(ctx, 1)
	assert.NoError(t, err)
}

func TestProtocolStore_CreateOnce(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, domain.Protocol{Authority: "auth"}))
	assert.ErrorIs(t, s.Create(ctx, domain.Protocol{Authority: "other"}), domain.ErrAlreadyExists)

	p, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "auth", p.Authority)
}

func TestMarketStore_UpdateMissing(t *testing.T) {
	s := New()
	err := s.Markets().Update(context.Background(), domain.Market{ID: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPositionStore_CompositeAddress(t *testing.T) {
	s := New()
	ctx := context.Background()
	positions := s.Positions()

	require.NoError(t, positions.Create(ctx, domain.Position{MarketID: 1, Owner: "alice", Side: domain.OutcomeYes, Amount: 10}))
	require.NoError(t, positions.Create(ctx, domain.Position{MarketID: 1, Owner: "alice", Side: domain.OutcomeNo, Amount: 20}))

	// Same market and owner on the same side collides.
	err := positions.Create(ctx, domain.Position{MarketID: 1, Owner: "alice", Side: domain.OutcomeYes, Amount: 5})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	byOwner, err := positions.ListByOwner(ctx, "alice", domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
	assert.Equal(t, domain.OutcomeNo, byOwner[0].Side)
	assert.Equal(t, domain.OutcomeYes, byOwner[1].Side)
}

func TestLedger_InsufficientFunds(t *testing.T) {
	s := New()
	ctx := context.Background()
	ledger := s.Ledger()

	require.NoError(t, ledger.Mint(ctx, domain.AssetSBYL, "alice", 50, domain.MintAuthority))

	err := ledger.Transfer(ctx, domain.AssetSBYL, "alice", "bob", 51)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	bal, err := ledger.Balance(ctx, domain.AssetSBYL, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), bal)
}

func TestLedger_MintRequiresAuthority(t *testing.T) {
	s := New()
	err := s.Ledger().Mint(context.Background(), domain.AssetSBYL, "alice", 100, "mallory")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLedger_AssetsAreSeparate(t *testing.T) {
	s := New()
	ctx := context.Background()
	ledger := s.Ledger()

	require.NoError(t, ledger.Mint(ctx, domain.AssetSOL, "alice", 100, domain.MintAuthority))

	// SOL balance does not back SBYL transfers.
	err := ledger.Transfer(ctx, domain.AssetSBYL, "alice", "bob", 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestAuditStore_DeleteBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	audit := s.Audit()

	require.NoError(t, audit.Log(ctx, "first", nil))
	require.NoError(t, audit.Log(ctx, "second", nil))

	cutoff := time.Now().UTC().Add(time.Minute)
	old, err := audit.ListBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Len(t, old, 2)

	deleted, err := audit.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := audit.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, paginate(items, domain.ListOpts{Limit: 2, Offset: 2}))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, paginate(items, domain.ListOpts{}))
	assert.Equal(t, []int{}, paginate(items, domain.ListOpts{Offset: 10}))
	assert.Equal(t, []int{5}, paginate(items, domain.ListOpts{Offset: 4, Limit: 3}))
}
