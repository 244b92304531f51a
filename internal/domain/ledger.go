package domain

import (
	"context"
	"fmt"
)

// Asset identifies a fungible balance class in the custody ledger.
type Asset string

const (
	// AssetSOL is the base currency users pay into the swap.
	AssetSOL Asset = "SOL"
	// AssetSBYL is the bet currency all pools and payouts are denominated in.
	AssetSBYL Asset = "SBYL"
)

// VaultAccount returns the deterministic escrow account for a market. All
// stakes for the market are custodied here and only settlement moves them out.
func VaultAccount(marketID uint64) string {
	return fmt.Sprintf("market_vault:%d", marketID)
}

// TokenLedger is the custody interface the engine settles through. The engine
// never inspects balances; it issues transfers and mints and treats any
// failure as aborting the enclosing operation. Implementations must honor the
// transaction carried in ctx (see Tx).
type TokenLedger interface {
	// Transfer moves amount of asset from one account to another. It fails
	// with ErrInsufficientFunds when the source balance is too small.
	Transfer(ctx context.Context, asset Asset, from, to string, amount uint64) error

	// Mint creates amount of asset in the target account. The authority must
	// equal MintAuthority or the mint is rejected with ErrUnauthorized.
	Mint(ctx context.Context, asset Asset, to string, amount uint64, authority string) error

	// Balance reports an account's balance; absent accounts are zero. Read
	// side only — the engine does not call it, but handlers and tests do.
	Balance(ctx context.Context, asset Asset, account string) (uint64, error)
}
