package engine_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

func TestCreateMarket(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	deadline := f.clock.now.Add(48 * time.Hour)
	m, err := f.engine.CreateMarket(context.Background(), authority,
		"Will BTC close above 100k?", "Settles on the daily close.", deadline)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), m.ID)
	assert.Equal(t, authority, m.Creator)
	assert.Equal(t, domain.StatusOpen, m.Status)
	assert.Equal(t, uint64(0), m.YesPool)
	assert.Equal(t, uint64(0), m.NoPool)
	assert.Nil(t, m.Outcome)
	assert.True(t, m.Deadline.Equal(deadline))

	p, err := f.engine.GetProtocol(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.MarketCount)
}

func TestCreateMarket_IDsAreSequential(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	first := f.openMarket(t)
	second := f.openMarket(t)
	third := f.openMarket(t)

	assert.Equal(t, uint64(0), first.ID)
	assert.Equal(t, uint64(1), second.ID)
	assert.Equal(t, uint64(2), third.ID)
}

func TestCreateMarket_NotAuthority(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	_, err := f.engine.CreateMarket(context.Background(), "random-wallet",
		"Unauthorized market", "", f.clock.now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// The counter did not move.
	p, err := f.engine.GetProtocol(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), p.MarketCount)
}

func TestCreateMarket_DeadlineNotInFuture(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	// A deadline exactly equal to now is already too late.
	_, err := f.engine.CreateMarket(context.Background(), authority,
		"Too late", "", f.clock.now)
	assert.ErrorIs(t, err, domain.ErrDeadlineInPast)

	_, err = f.engine.CreateMarket(context.Background(), authority,
		"Way too late", "", f.clock.now.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrDeadlineInPast)
}

func TestCreateMarket_TitleTooLong(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	_, err := f.engine.CreateMarket(context.Background(), authority,
		strings.Repeat("x", domain.MaxTitleLen+1), "", f.clock.now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrTitleTooLong)
}

func TestCreateMarket_DescriptionTooLong(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	_, err := f.engine.CreateMarket(context.Background(), authority,
		"ok", strings.Repeat("x", domain.MaxDescriptionLen+1), f.clock.now.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrDescriptionTooLong)
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)

	f.clock.now = m.Deadline
	resolved, err := f.engine.Resolve(context.Background(), oracle, m.ID, domain.OutcomeYes, 85)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.Outcome)
	assert.Equal(t, domain.OutcomeYes, *resolved.Outcome)
	assert.Equal(t, uint8(85), resolved.Confidence)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, resolved.ResolvedAt.Equal(m.Deadline))
}

func TestResolve_AtExactDeadline(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)

	// now == deadline is the first instant resolution is allowed.
	f.clock.now = m.Deadline
	_, err := f.engine.Resolve(context.Background(), oracle, m.ID, domain.OutcomeNo, 50)
	assert.NoError(t, err)
}

func TestResolve_BeforeDeadline(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)

	f.clock.now = m.Deadline.Add(-time.Second)
	_, err := f.engine.Resolve(context.Background(), oracle, m.ID, domain.OutcomeYes, 90)
	assert.ErrorIs(t, err, domain.ErrDeadlineNotReached)
}

func TestResolve_NotOracle(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)

	f.clock.now = m.Deadline
	_, err := f.engine.Resolve(context.Background(), authority, m.ID, domain.OutcomeYes, 90)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolve_InvalidConfidence(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)

	f.clock.now = m.Deadline
	_, err := f.engine.Resolve(context.Background(), oracle, m.ID, domain.OutcomeYes, 101)
	assert.ErrorIs(t, err, domain.ErrInvalidConfidence)
}

func TestResolve_AlreadyResolved(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	m := f.openMarket(t)
	f.resolve(t, m, domain.OutcomeYes)

	_, err := f.engine.Resolve(context.Background(), oracle, m.ID, domain.OutcomeNo, 90)
	assert.ErrorIs(t, err, domain.ErrMarketNotResolvable)

	// The first resolution stands.
	stored, err := f.engine.GetMarket(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Outcome)
	assert.Equal(t, domain.OutcomeYes, *stored.Outcome)
}

func TestResolve_UnknownMarket(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	_, err := f.engine.Resolve(context.Background(), oracle, 42, domain.OutcomeYes, 90)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMarkets(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)
	f.openMarket(t)
	f.openMarket(t)
	f.openMarket(t)

	markets, err := f.engine.ListMarkets(context.Background(), domain.ListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, uint64(1), markets[0].ID)
	assert.Equal(t, uint64(2), markets[1].ID)

	count, err := f.engine.CountMarkets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
