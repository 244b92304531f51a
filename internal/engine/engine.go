// Package engine implements the boundary operations of the settlement
// protocol: initialize, createMarket, placeBet, resolve, claim, and swap.
// Each operation acquires the lock that serializes its market's history, runs
// inside one storage transaction, and either completes entirely or leaves all
// state unchanged.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sibyl-protocol/sibyl/internal/domain"
	"github.com/sibyl-protocol/sibyl/internal/notify"
)

// lockTTL bounds how long a crashed holder can block a market.
const lockTTL = 10 * time.Second

// protocolLockKey serializes operations that touch the protocol singleton.
const protocolLockKey = "protocol"

// Bus channels events are published on.
const (
	ChannelMarkets     = "markets"
	ChannelBets        = "bets"
	ChannelResolutions = "resolutions"
	ChannelClaims      = "claims"
	ChannelSwaps       = "swaps"
)

// Deps bundles everything the engine needs. Tx, the stores, the ledger, and
// Locks are required; Bus and Notifier are optional event sinks; Clock
// defaults to time.Now and exists so tests can pin the current time.
type Deps struct {
	Tx        domain.Tx
	Protocols domain.ProtocolStore
	Markets   domain.MarketStore
	Positions domain.PositionStore
	Ledger    domain.TokenLedger
	Audit     domain.AuditStore
	Locks     domain.LockManager
	Bus       domain.SignalBus
	Notifier  *notify.Notifier
	Clock     func() time.Time
}

// Engine executes settlement operations against the stores and the custody
// ledger.
type Engine struct {
	tx        domain.Tx
	protocols domain.ProtocolStore
	markets   domain.MarketStore
	positions domain.PositionStore
	ledger    domain.TokenLedger
	audit     domain.AuditStore
	locks     domain.LockManager
	bus       domain.SignalBus
	notifier  *notify.Notifier
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an Engine from its dependencies.
func New(deps Deps, logger *slog.Logger) *Engine {
	now := deps.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		tx:        deps.Tx,
		protocols: deps.Protocols,
		markets:   deps.Markets,
		positions: deps.Positions,
		ledger:    deps.Ledger,
		audit:     deps.Audit,
		locks:     deps.Locks,
		bus:       deps.Bus,
		notifier:  deps.Notifier,
		now:       now,
		logger:    logger.With(slog.String("component", "engine")),
	}
}

// GetProtocol returns the protocol singleton.
func (e *Engine) GetProtocol(ctx context.Context) (domain.Protocol, error) {
	return e.protocols.Get(ctx)
}

// GetMarket returns a market by id.
func (e *Engine) GetMarket(ctx context.Context, id uint64) (domain.Market, error) {
	return e.markets.Get(ctx, id)
}

// ListMarkets returns markets ordered by id.
func (e *Engine) ListMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	return e.markets.List(ctx, opts)
}

// CountMarkets returns the total number of markets.
func (e *Engine) CountMarkets(ctx context.Context) (int64, error) {
	return e.markets.Count(ctx)
}

// ListPositions returns an owner's positions across all markets.
func (e *Engine) ListPositions(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Position, error) {
	return e.positions.ListByOwner(ctx, owner, opts)
}

// withMarketLock serializes fn against all other operations on the same key.
func (e *Engine) withMarketLock(ctx context.Context, key string, fn func() error) error {
	unlock, err := e.locks.Acquire(ctx, key, lockTTL)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// publish sends an event payload to the signal bus. Publishing is best-effort
// delivery of already-committed state, so failures are logged, not returned.
func (e *Engine) publish(ctx context.Context, channel string, payload any) {
	if e.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := e.bus.Publish(ctx, channel, data); err != nil {
		e.logger.WarnContext(ctx, "engine: publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// notifyEvent dispatches an operator notification, logging delivery failures.
func (e *Engine) notifyEvent(ctx context.Context, event, title, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event, title, message); err != nil {
		e.logger.WarnContext(ctx, "engine: notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
