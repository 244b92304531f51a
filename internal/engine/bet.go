package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// betEvent is the payload published for every accepted bet.
type betEvent struct {
	MarketID uint64         `json:"market_id"`
	Owner    string         `json:"owner"`
	Side     domain.Outcome `json:"side"`
	Amount   uint64         `json:"amount"`
	YesPool  uint64         `json:"yes_pool"`
	NoPool   uint64         `json:"no_pool"`
}

// PlaceBet stakes amount of SBYL on one side of an open market. As one atomic
// unit it escrows the stake in the market vault, grows the side pool, and
// creates or tops up the position at the (market, owner, side) address.
func (e *Engine) PlaceBet(ctx context.Context, caller string, marketID uint64, side domain.Outcome, amount uint64) (domain.Position, error) {
	if amount == 0 {
		return domain.Position{}, domain.ErrZeroAmount
	}
	if !side.ValidSide() {
		return domain.Position{}, domain.ErrInvalidBetSide
	}

	var (
		position domain.Position
		market   domain.Market
	)
	err := e.withMarketLock(ctx, marketLockKey(marketID), func() error {
		return e.tx.InTx(ctx, func(ctx context.Context) error {
			m, err := e.markets.Get(ctx, marketID)
			if err != nil {
				return fmt.Errorf("engine: load market %d: %w", marketID, err)
			}
			if m.Status != domain.StatusOpen {
				return domain.ErrMarketNotOpen
			}
			now := e.now()
			if m.Expired(now) {
				return domain.ErrMarketExpired
			}

			// Escrow the stake before any accounting; a failed transfer
			// aborts with nothing recorded.
			vault := domain.VaultAccount(marketID)
			if err := e.ledger.Transfer(ctx, domain.AssetSBYL, caller, vault, amount); err != nil {
				return fmt.Errorf("engine: escrow bet: %w", err)
			}

			switch side {
			case domain.OutcomeYes:
				if m.YesPool+amount < m.YesPool {
					return domain.ErrAmountOverflow
				}
				m.YesPool += amount
			case domain.OutcomeNo:
				if m.NoPool+amount < m.NoPool {
					return domain.ErrAmountOverflow
				}
				m.NoPool += amount
			}
			if err := e.markets.Update(ctx, m); err != nil {
				return fmt.Errorf("engine: update pools: %w", err)
			}

			pos, err := e.positions.Get(ctx, marketID, caller, side)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				pos = domain.Position{
					MarketID:  marketID,
					Owner:     caller,
					Side:      side,
					Amount:    amount,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := e.positions.Create(ctx, pos); err != nil {
					return fmt.Errorf("engine: create position: %w", err)
				}
			case err != nil:
				return fmt.Errorf("engine: load position: %w", err)
			default:
				// The address includes the side, so a mismatch here means a
				// corrupted record, not a user error.
				if pos.Side != side {
					return domain.ErrSideMismatch
				}
				if pos.Amount+amount < pos.Amount {
					return domain.ErrAmountOverflow
				}
				pos.Amount += amount
				pos.UpdatedAt = now
				if err := e.positions.Update(ctx, pos); err != nil {
					return fmt.Errorf("engine: update position: %w", err)
				}
			}

			position = pos
			market = m
			return e.audit.Log(ctx, "bet.placed", map[string]any{
				"market_id": marketID,
				"owner":     caller,
				"side":      string(side),
				"amount":    amount,
			})
		})
	})
	if err != nil {
		return domain.Position{}, err
	}

	e.logger.InfoContext(ctx, "engine: bet placed",
		slog.Uint64("market_id", marketID),
		slog.String("owner", caller),
		slog.String("side", string(side)),
		slog.Uint64("amount", amount),
	)
	e.publish(ctx, ChannelBets, betEvent{
		MarketID: marketID,
		Owner:    caller,
		Side:     side,
		Amount:   amount,
		YesPool:  market.YesPool,
		NoPool:   market.NoPool,
	})
	return position, nil
}
