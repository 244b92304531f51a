package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// InitializeParams carries the configuration for the protocol singleton. The
// caller becomes the protocol authority.
type InitializeParams struct {
	Caller   string
	Oracle   string
	Treasury string
	FeeBps   uint16
	SwapCap  uint64
}

// Initialize creates the protocol singleton with a zero market counter. It
// fails with domain.ErrAlreadyExists if the protocol was initialized before;
// the initialize-once guarantee comes from the store's create semantics.
func (e *Engine) Initialize(ctx context.Context, params InitializeParams) (domain.Protocol, error) {
	if params.FeeBps > domain.MaxFeeBps {
		return domain.Protocol{}, domain.ErrInvalidFeeBps
	}
	if params.SwapCap == 0 {
		return domain.Protocol{}, domain.ErrZeroAmount
	}

	p := domain.Protocol{
		Authority:   params.Caller,
		Oracle:      params.Oracle,
		Treasury:    params.Treasury,
		FeeBps:      params.FeeBps,
		SwapCap:     params.SwapCap,
		MarketCount: 0,
	}

	err := e.withMarketLock(ctx, protocolLockKey, func() error {
		return e.tx.InTx(ctx, func(ctx context.Context) error {
			if err := e.protocols.Create(ctx, p); err != nil {
				return fmt.Errorf("engine: create protocol: %w", err)
			}
			return e.audit.Log(ctx, "protocol.initialized", map[string]any{
				"authority": p.Authority,
				"oracle":    p.Oracle,
				"treasury":  p.Treasury,
				"fee_bps":   p.FeeBps,
				"swap_cap":  p.SwapCap,
			})
		})
	})
	if err != nil {
		return domain.Protocol{}, err
	}

	e.logger.InfoContext(ctx, "engine: protocol initialized",
		slog.String("authority", p.Authority),
		slog.String("oracle", p.Oracle),
		slog.Int("fee_bps", int(p.FeeBps)),
	)
	return p, nil
}
