package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

func TestPlaceBet(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 500)

	pos, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 200)
	require.NoError(t, err)

	assert.Equal(t, "alice", pos.Owner)
	assert.Equal(t, domain.OutcomeYes, pos.Side)
	assert.Equal(t, uint64(200), pos.Amount)
	assert.False(t, pos.Claimed)

	// The stake moved into the market vault and the yes pool grew by it.
	assert.Equal(t, uint64(300), f.balance(t, domain.AssetSBYL, "alice"))
	assert.Equal(t, uint64(200), f.balance(t, domain.AssetSBYL, domain.VaultAccount(m.ID)))

	stored, err := f.engine.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), stored.YesPool)
	assert.Equal(t, uint64(0), stored.NoPool)
}

func TestPlaceBet_TopUpSameSide(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 500)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeNo, 100)
	require.NoError(t, err)
	pos, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeNo, 150)
	require.NoError(t, err)

	// The second bet tops up the same position instead of creating another.
	assert.Equal(t, uint64(250), pos.Amount)

	positions, err := f.engine.ListPositions(context.Background(), "alice", domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, uint64(250), positions[0].Amount)
}

func TestPlaceBet_BothSides(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 500)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 100)
	require.NoError(t, err)
	_, err = f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeNo, 50)
	require.NoError(t, err)

	// Yes and no stakes live at distinct addresses.
	positions, err := f.engine.ListPositions(context.Background(), "alice", domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, positions, 2)

	stored, err := f.engine.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), stored.YesPool)
	assert.Equal(t, uint64(50), stored.NoPool)
}

func TestPlaceBet_ZeroAmount(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 0)
	assert.ErrorIs(t, err, domain.ErrZeroAmount)
}

func TestPlaceBet_InvalidSide(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeInvalid, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidBetSide)

	_, err = f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.Outcome("maybe"), 100)
	assert.ErrorIs(t, err, domain.ErrInvalidBetSide)
}

func TestPlaceBet_AtDeadline(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	// The deadline instant itself is past betting time.
	f.clock.now = m.Deadline
	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 100)
	assert.ErrorIs(t, err, domain.ErrMarketExpired)
}

func TestPlaceBet_JustBeforeDeadline(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	f.clock.now = m.Deadline.Add(-time.Second)
	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 100)
	assert.NoError(t, err)
}

func TestPlaceBet_MarketResolved(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 100)
	f.resolve(t, m, domain.OutcomeYes)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 100)
	assert.ErrorIs(t, err, domain.ErrMarketNotOpen)
}

func TestPlaceBet_InsufficientFundsRollsBack(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 50)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing moved and nothing was recorded.
	assert.Equal(t, uint64(50), f.balance(t, domain.AssetSBYL, "alice"))
	assert.Equal(t, uint64(0), f.balance(t, domain.AssetSBYL, domain.VaultAccount(m.ID)))

	stored, err := f.engine.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stored.YesPool)

	positions, err := f.engine.ListPositions(context.Background(), "alice", domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPlaceBet_PoolMatchesVault(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 300)
	f.fund(t, "bob", 300)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 120)
	require.NoError(t, err)
	_, err = f.engine.PlaceBet(context.Background(), "bob", m.ID, domain.OutcomeNo, 80)
	require.NoError(t, err)
	_, err = f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeNo, 30)
	require.NoError(t, err)

	stored, err := f.engine.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)

	// The vault custodies exactly the sum of both pools.
	vault := f.balance(t, domain.AssetSBYL, domain.VaultAccount(m.ID))
	assert.Equal(t, stored.YesPool+stored.NoPool, vault)
	assert.Equal(t, uint64(230), vault)
}
