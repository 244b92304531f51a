package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// swapEvent is the payload published for every completed swap.
type swapEvent struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

// SwapToSBYL converts base currency into bet currency at a fixed 1:1 rate:
// the SOL moves to the treasury and the same amount of SBYL is minted to the
// caller. The only throttle is the protocol's per-call swap cap; this is a
// faucet with a ceiling, not a pricing mechanism, and it stays that way.
func (e *Engine) SwapToSBYL(ctx context.Context, caller string, solAmount uint64) error {
	if solAmount == 0 {
		return domain.ErrZeroAmount
	}

	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := e.protocols.Get(ctx)
		if err != nil {
			return fmt.Errorf("engine: load protocol: %w", err)
		}
		if solAmount > p.SwapCap {
			return domain.ErrSwapCapExceeded
		}

		if err := e.ledger.Transfer(ctx, domain.AssetSOL, caller, p.Treasury, solAmount); err != nil {
			return fmt.Errorf("engine: collect swap payment: %w", err)
		}
		if err := e.ledger.Mint(ctx, domain.AssetSBYL, caller, solAmount, domain.MintAuthority); err != nil {
			return fmt.Errorf("engine: mint sbyl: %w", err)
		}

		return e.audit.Log(ctx, "swap.executed", map[string]any{
			"caller": caller,
			"amount": solAmount,
		})
	})
	if err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "engine: swap executed",
		slog.String("caller", caller),
		slog.Uint64("amount", solAmount),
	)
	e.publish(ctx, ChannelSwaps, swapEvent{Caller: caller, Amount: solAmount})
	return nil
}
