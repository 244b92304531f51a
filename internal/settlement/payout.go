// Package settlement holds the pure pari-mutuel payout arithmetic. Every
// function here is a deterministic computation over pool totals and a single
// position; realizing the amounts through the custody ledger is the engine's
// job.
//
// All multiply-before-divide steps promote to a 128-bit intermediate so that
// realistic pool sizes cannot overflow, divisions floor, and a division that
// cannot produce a representable result clamps to zero rather than erroring.
package settlement

import (
	"math/bits"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// mulDiv computes floor(a * b / div) with a 128-bit intermediate. It returns
// 0 when div is zero or when the quotient does not fit in 64 bits.
func mulDiv(a, b, div uint64) uint64 {
	if div == 0 {
		return 0
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		// Quotient would overflow uint64; bits.Div64 panics in this case.
		return 0
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}

// AddPools sums the two side pools, failing on overflow rather than wrapping.
func AddPools(yesPool, noPool uint64) (uint64, error) {
	total := yesPool + noPool
	if total < yesPool {
		return 0, domain.ErrAmountOverflow
	}
	return total, nil
}

// Winner computes the payout and protocol fee for a position on the winning
// side of a Yes/No resolution:
//
//	gross  = floor(stake * totalPool / winningPool)
//	fee    = floor(gross * feeBps / 10000)
//	payout = gross - fee
func Winner(stake, winningPool, totalPool uint64, feeBps uint16) (payout, fee uint64) {
	gross := mulDiv(stake, totalPool, winningPool)
	fee = mulDiv(gross, uint64(feeBps), domain.MaxFeeBps)
	if fee > gross {
		fee = gross
	}
	return gross - fee, fee
}

// Refund computes the invalid-outcome refund for a position:
//
//	refund = floor(stake * totalPool / sidePool)
//
// The divisor is the bettor's own side pool, not the total pool, so a bettor
// on a lightly subscribed side receives more back than staked. That is the
// protocol's observed behavior and is kept as is; no fee is charged.
func Refund(stake, sidePool, totalPool uint64) uint64 {
	return mulDiv(stake, totalPool, sidePool)
}
