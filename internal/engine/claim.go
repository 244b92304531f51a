package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sibyl-protocol/sibyl/internal/domain"
	"github.com/sibyl-protocol/sibyl/internal/settlement"
)

// ClaimReceipt reports the realized amounts of a successful claim.
type ClaimReceipt struct {
	MarketID uint64         `json:"market_id"`
	Owner    string         `json:"owner"`
	Side     domain.Outcome `json:"side"`
	Payout   uint64         `json:"payout"`
	Fee      uint64         `json:"fee"`
}

// Claim settles one position of a resolved market. On a Yes/No outcome only
// the winning side can claim: the payout is the position's proportional share
// of the combined pool minus the protocol fee, paid from the market vault,
// with the fee credited to the treasury. On an Invalid outcome every position
// is refunded by the stake-times-total-over-side-pool formula and no fee is
// taken. The position's claimed flag flips exactly once; a second claim
// always fails.
func (e *Engine) Claim(ctx context.Context, caller string, marketID uint64, owner string, side domain.Outcome, treasury string) (ClaimReceipt, error) {
	if !side.ValidSide() {
		return ClaimReceipt{}, domain.ErrInvalidBetSide
	}
	if owner == "" {
		owner = caller
	}

	var receipt ClaimReceipt
	err := e.withMarketLock(ctx, marketLockKey(marketID), func() error {
		return e.tx.InTx(ctx, func(ctx context.Context) error {
			p, err := e.protocols.Get(ctx)
			if err != nil {
				return fmt.Errorf("engine: load protocol: %w", err)
			}
			if treasury != p.Treasury {
				return domain.ErrTreasuryMismatch
			}

			m, err := e.markets.Get(ctx, marketID)
			if err != nil {
				return fmt.Errorf("engine: load market %d: %w", marketID, err)
			}
			if m.Status != domain.StatusResolved || m.Outcome == nil {
				return domain.ErrMarketNotResolved
			}

			pos, err := e.positions.Get(ctx, marketID, owner, side)
			if err != nil {
				return fmt.Errorf("engine: load position: %w", err)
			}
			if caller != pos.Owner {
				return domain.ErrNotPositionOwner
			}
			if pos.Claimed {
				return domain.ErrAlreadyClaimed
			}

			total, err := settlement.AddPools(m.YesPool, m.NoPool)
			if err != nil {
				return err
			}

			var payout, fee uint64
			if *m.Outcome == domain.OutcomeInvalid {
				payout = settlement.Refund(pos.Amount, m.Pool(pos.Side), total)
			} else {
				if pos.Side != *m.Outcome {
					return domain.ErrNotWinner
				}
				payout, fee = settlement.Winner(pos.Amount, m.Pool(*m.Outcome), total, p.FeeBps)
			}
			if payout == 0 {
				return domain.ErrNoPayout
			}

			vault := domain.VaultAccount(marketID)
			if err := e.ledger.Transfer(ctx, domain.AssetSBYL, vault, pos.Owner, payout); err != nil {
				return fmt.Errorf("engine: pay out claim: %w", err)
			}
			if fee > 0 {
				if err := e.ledger.Transfer(ctx, domain.AssetSBYL, vault, treasury, fee); err != nil {
					return fmt.Errorf("engine: pay fee: %w", err)
				}
			}

			pos.Claimed = true
			pos.UpdatedAt = e.now()
			if err := e.positions.Update(ctx, pos); err != nil {
				return fmt.Errorf("engine: mark claimed: %w", err)
			}

			receipt = ClaimReceipt{
				MarketID: marketID,
				Owner:    pos.Owner,
				Side:     pos.Side,
				Payout:   payout,
				Fee:      fee,
			}
			return e.audit.Log(ctx, "claim.paid", map[string]any{
				"market_id": marketID,
				"owner":     pos.Owner,
				"side":      string(pos.Side),
				"payout":    payout,
				"fee":       fee,
			})
		})
	})
	if err != nil {
		return ClaimReceipt{}, err
	}

	e.logger.InfoContext(ctx, "engine: claim paid",
		slog.Uint64("market_id", marketID),
		slog.String("owner", receipt.Owner),
		slog.Uint64("payout", receipt.Payout),
		slog.Uint64("fee", receipt.Fee),
	)
	e.publish(ctx, ChannelClaims, receipt)
	e.notifyEvent(ctx, "claim_paid", "Claim paid",
		fmt.Sprintf("Market %d: %s claimed %d SBYL (fee %d)", marketID, receipt.Owner, receipt.Payout, receipt.Fee))
	return receipt, nil
}
