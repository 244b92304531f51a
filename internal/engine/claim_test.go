package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// settle drives a market from open to resolved with alice staking yes and
// bob staking no.
func settle(t *testing.T, f *fixture, yesStake, noStake uint64, outcome domain.Outcome) domain.Market {
	t.Helper()
	m := f.openMarket(t)
	f.fund(t, "alice", yesStake)
	f.fund(t, "bob", noStake)

	if yesStake > 0 {
		_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, yesStake)
		require.NoError(t, err)
	}
	if noStake > 0 {
		_, err := f.engine.PlaceBet(context.Background(), "bob", m.ID, domain.OutcomeNo, noStake)
		require.NoError(t, err)
	}
	return f.resolve(t, m, outcome)
}

func TestClaim_WinnerTakesPoolMinusFee(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	receipt, err := f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, treasury)
	require.NoError(t, err)

	// Sole winner: gross 100*150/100 = 150, fee floor(150*500/10000) = 7.
	assert.Equal(t, uint64(143), receipt.Payout)
	assert.Equal(t, uint64(7), receipt.Fee)

	assert.Equal(t, uint64(143), f.balance(t, domain.AssetSBYL, "alice"))
	assert.Equal(t, uint64(7), f.balance(t, domain.AssetSBYL, treasury))
	// The vault is fully drained.
	assert.Equal(t, uint64(0), f.balance(t, domain.AssetSBYL, domain.VaultAccount(m.ID)))
}

func TestClaim_SplitWinners(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 0, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 100)
	f.fund(t, "carol", 300)
	f.fund(t, "bob", 200)

	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 100)
	require.NoError(t, err)
	_, err = f.engine.PlaceBet(context.Background(), "carol", m.ID, domain.OutcomeYes, 300)
	require.NoError(t, err)
	_, err = f.engine.PlaceBet(context.Background(), "bob", m.ID, domain.OutcomeNo, 200)
	require.NoError(t, err)
	f.resolve(t, m, domain.OutcomeYes)

	// Total 600, yes pool 400: alice gets 100*600/400 = 150,
	// carol gets 300*600/400 = 450. Together they drain the vault.
	ra, err := f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, treasury)
	require.NoError(t, err)
	rc, err := f.engine.Claim(context.Background(), "carol", m.ID, "carol", domain.OutcomeYes, treasury)
	require.NoError(t, err)

	assert.Equal(t, uint64(150), ra.Payout)
	assert.Equal(t, uint64(450), rc.Payout)
	assert.Equal(t, uint64(0), f.balance(t, domain.AssetSBYL, domain.VaultAccount(m.ID)))
}

func TestClaim_LoserCannotClaim(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	_, err := f.engine.Claim(context.Background(), "bob", m.ID, "bob", domain.OutcomeNo, treasury)
	assert.ErrorIs(t, err, domain.ErrNotWinner)
	assert.Equal(t, uint64(0), f.balance(t, domain.AssetSBYL, "bob"))
}

func TestClaim_Twice(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	_, err := f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, treasury)
	require.NoError(t, err)

	_, err = f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, treasury)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	// The double claim paid nothing extra.
	assert.Equal(t, uint64(143), f.balance(t, domain.AssetSBYL, "alice"))
}

func TestClaim_InvalidOutcome_AmplifiedRefund(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeInvalid)

	// The refund formula divides by the side pool, not the total, so the
	// sole yes staker is refunded 100*150/100 = 150 with no fee. Both sides
	// can claim it; the vault only covers the first.
	receipt, err := f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, treasury)
	require.NoError(t, err)

	assert.Equal(t, uint64(150), receipt.Payout)
	assert.Equal(t, uint64(0), receipt.Fee)
	assert.Equal(t, uint64(150), f.balance(t, domain.AssetSBYL, "alice"))
	assert.Equal(t, uint64(0), f.balance(t, domain.AssetSBYL, domain.VaultAccount(m.ID)))

	// Bob's refund would be 50*150/50 = 150 but the vault is empty, so the
	// transfer fails and the whole claim rolls back.
	_, err = f.engine.Claim(context.Background(), "bob", m.ID, "bob", domain.OutcomeNo, treasury)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, uint64(0), f.balance(t, domain.AssetSBYL, "bob"))
}

func TestClaim_TreasuryMismatch(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	_, err := f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, "attacker-treasury")
	assert.ErrorIs(t, err, domain.ErrTreasuryMismatch)
}

func TestClaim_NotPositionOwner(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	_, err := f.engine.Claim(context.Background(), "mallory", m.ID, "alice", domain.OutcomeYes, treasury)
	assert.ErrorIs(t, err, domain.ErrNotPositionOwner)
}

func TestClaim_MarketNotResolved(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.fund(t, "alice", 100)
	_, err := f.engine.PlaceBet(context.Background(), "alice", m.ID, domain.OutcomeYes, 100)
	require.NoError(t, err)

	_, err = f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, treasury)
	assert.ErrorIs(t, err, domain.ErrMarketNotResolved)
}

func TestClaim_NoPosition(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	_, err := f.engine.Claim(context.Background(), "carol", m.ID, "carol", domain.OutcomeYes, treasury)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClaim_ConfiscatoryFeeLeavesNothing(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 10_000, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	// A 100% fee consumes the whole gross payout; zero payouts are rejected.
	_, err := f.engine.Claim(context.Background(), "alice", m.ID, "alice", domain.OutcomeYes, treasury)
	assert.ErrorIs(t, err, domain.ErrNoPayout)
}

func TestClaim_OwnerDefaultsToCaller(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := settle(t, f, 100, 50, domain.OutcomeYes)

	receipt, err := f.engine.Claim(context.Background(), "alice", m.ID, "", domain.OutcomeYes, treasury)
	require.NoError(t, err)
	assert.Equal(t, "alice", receipt.Owner)
}
