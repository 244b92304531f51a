package engine_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sibyl-protocol/sibyl/internal/domain"
	"github.com/sibyl-protocol/sibyl/internal/engine"
	"github.com/sibyl-protocol/sibyl/internal/store/memory"
)

const (
	authority = "authority-wallet"
	oracle    = "oracle-wallet"
	treasury  = "treasury-wallet"
)

// fakeClock pins the engine's notion of now so deadline checks are exact.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	engine *engine.Engine
	store  *memory.Store
	clock  *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	eng := engine.New(engine.Deps{
		Tx:        store,
		Protocols: store,
		Markets:   store.Markets(),
		Positions: store.Positions(),
		Ledger:    store.Ledger(),
		Audit:     store.Audit(),
		Locks:     memory.NewLockManager(),
		Clock:     clock.Now,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	return &fixture{engine: eng, store: store, clock: clock}
}

// initialize sets up the protocol singleton with the given fee.
func (f *fixture) initialize(t *testing.T, feeBps uint16, swapCap uint64) {
	t.Helper()
	_, err := f.engine.Initialize(context.Background(), engine.InitializeParams{
		Caller:   authority,
		Oracle:   oracle,
		Treasury: treasury,
		FeeBps:   feeBps,
		SwapCap:  swapCap,
	})
	require.NoError(t, err)
}

// fund mints bet currency directly into an account.
func (f *fixture) fund(t *testing.T, account string, amount uint64) {
	t.Helper()
	err := f.store.Ledger().Mint(context.Background(), domain.AssetSBYL, account, amount, domain.MintAuthority)
	require.NoError(t, err)
}

// fundSOL mints base currency directly into an account.
func (f *fixture) fundSOL(t *testing.T, account string, amount uint64) {
	t.Helper()
	err := f.store.Ledger().Mint(context.Background(), domain.AssetSOL, account, amount, domain.MintAuthority)
	require.NoError(t, err)
}

// openMarket creates a market whose deadline is a day out.
func (f *fixture) openMarket(t *testing.T) domain.Market {
	t.Helper()
	m, err := f.engine.CreateMarket(context.Background(), authority,
		"Will it rain tomorrow?", "Settles yes on any measurable rainfall.",
		f.clock.now.Add(24*time.Hour))
	require.NoError(t, err)
	return m
}

// resolve passes the market deadline and resolves it as the oracle.
func (f *fixture) resolve(t *testing.T, m domain.Market, outcome domain.Outcome) domain.Market {
	t.Helper()
	if f.clock.now.Before(m.Deadline) {
		f.clock.now = m.Deadline
	}
	resolved, err := f.engine.Resolve(context.Background(), oracle, m.ID, outcome, 90)
	require.NoError(t, err)
	return resolved
}

func (f *fixture) balance(t *testing.T, asset domain.Asset, account string) uint64 {
	t.Helper()
	bal, err := f.store.Ledger().Balance(context.Background(), asset, account)
	require.NoError(t, err)
	return bal
}
