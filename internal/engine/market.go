package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// marketLockKey is the serialization key for a single market.
func marketLockKey(id uint64) string {
	return fmt.Sprintf("market:%d", id)
}

// CreateMarket creates a new market in the Open state, assigning it the next
// id from the protocol counter. Only the protocol authority may create
// markets, and the deadline must be strictly in the future.
func (e *Engine) CreateMarket(ctx context.Context, caller, title, description string, deadline time.Time) (domain.Market, error) {
	if len(title) > domain.MaxTitleLen {
		return domain.Market{}, domain.ErrTitleTooLong
	}
	if len(description) > domain.MaxDescriptionLen {
		return domain.Market{}, domain.ErrDescriptionTooLong
	}
	now := e.now()
	if !deadline.After(now) {
		return domain.Market{}, domain.ErrDeadlineInPast
	}

	var market domain.Market
	err := e.withMarketLock(ctx, protocolLockKey, func() error {
		return e.tx.InTx(ctx, func(ctx context.Context) error {
			p, err := e.protocols.Get(ctx)
			if err != nil {
				return fmt.Errorf("engine: load protocol: %w", err)
			}
			if caller != p.Authority {
				return domain.ErrUnauthorized
			}

			id := p.MarketCount
			p.MarketCount = id + 1
			if p.MarketCount == 0 {
				return domain.ErrAmountOverflow
			}
			if err := e.protocols.Update(ctx, p); err != nil {
				return fmt.Errorf("engine: advance market counter: %w", err)
			}

			market = domain.Market{
				ID:          id,
				Creator:     caller,
				Title:       title,
				Description: description,
				Deadline:    deadline,
				Status:      domain.StatusOpen,
				CreatedAt:   now,
			}
			if err := e.markets.Create(ctx, market); err != nil {
				return fmt.Errorf("engine: create market %d: %w", id, err)
			}

			return e.audit.Log(ctx, "market.created", map[string]any{
				"market_id": id,
				"creator":   caller,
				"deadline":  deadline.Format(time.RFC3339),
			})
		})
	})
	if err != nil {
		return domain.Market{}, err
	}

	e.logger.InfoContext(ctx, "engine: market created",
		slog.Uint64("market_id", market.ID),
		slog.Time("deadline", market.Deadline),
	)
	e.publish(ctx, ChannelMarkets, market)
	e.notifyEvent(ctx, "market_created", "Market created",
		fmt.Sprintf("Market %d: %s", market.ID, market.Title))
	return market, nil
}

// Resolve declares a market's outcome. Only the registered oracle may
// resolve, the deadline must have passed, and the market must still be Open
// or Locked. An Open market passes through Locked on its way to Resolved
// inside this single call; the intermediate state is never observable.
func (e *Engine) Resolve(ctx context.Context, caller string, marketID uint64, outcome domain.Outcome, confidence uint8) (domain.Market, error) {
	if confidence > 100 {
		return domain.Market{}, domain.ErrInvalidConfidence
	}

	var market domain.Market
	err := e.withMarketLock(ctx, marketLockKey(marketID), func() error {
		return e.tx.InTx(ctx, func(ctx context.Context) error {
			p, err := e.protocols.Get(ctx)
			if err != nil {
				return fmt.Errorf("engine: load protocol: %w", err)
			}
			if caller != p.Oracle {
				return domain.ErrUnauthorized
			}

			m, err := e.markets.Get(ctx, marketID)
			if err != nil {
				return fmt.Errorf("engine: load market %d: %w", marketID, err)
			}
			if !m.Resolvable() {
				return domain.ErrMarketNotResolvable
			}
			now := e.now()
			if now.Before(m.Deadline) {
				return domain.ErrDeadlineNotReached
			}

			// Open markets conceptually lock first, but the combined
			// transition commits as one write.
			m.Status = domain.StatusResolved
			out := outcome
			m.Outcome = &out
			m.Confidence = confidence
			m.ResolvedAt = &now
			if err := e.markets.Update(ctx, m); err != nil {
				return fmt.Errorf("engine: resolve market %d: %w", marketID, err)
			}
			market = m

			return e.audit.Log(ctx, "market.resolved", map[string]any{
				"market_id":  marketID,
				"outcome":    string(outcome),
				"confidence": confidence,
			})
		})
	})
	if err != nil {
		return domain.Market{}, err
	}

	e.logger.InfoContext(ctx, "engine: market resolved",
		slog.Uint64("market_id", market.ID),
		slog.String("outcome", string(outcome)),
		slog.Int("confidence", int(confidence)),
	)
	e.publish(ctx, ChannelResolutions, market)
	e.notifyEvent(ctx, "market_resolved", "Market resolved",
		fmt.Sprintf("Market %d resolved %s (confidence %d%%)", market.ID, outcome, confidence))
	return market, nil
}
