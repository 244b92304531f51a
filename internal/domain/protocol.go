package domain

// MaxFeeBps is the upper bound for the protocol fee rate (100%).
const MaxFeeBps = 10_000

// MintAuthority is the identity the custody ledger accepts for SBYL mints.
// Only the protocol itself may mint; users acquire SBYL through the swap.
const MintAuthority = "protocol"

// Protocol is the singleton configuration record. It is created exactly once
// by initialize and afterwards mutated only by incrementing MarketCount.
type Protocol struct {
	Authority   string // admin allowed to create markets
	Oracle      string // identity allowed to resolve markets
	Treasury    string // account credited with fees and swap proceeds
	FeeBps      uint16 // settlement fee in basis points, <= MaxFeeBps
	SwapCap     uint64 // max SBYL mintable per swap call, > 0
	MarketCount uint64 // next market id; incremented per market, never reused
}
