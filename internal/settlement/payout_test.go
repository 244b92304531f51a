package settlement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

func TestWinner_DocumentedScenario(t *testing.T) {
	// yesPool=100, noPool=50, feeBps=500, stake=100 on the winning Yes side:
	// gross = floor(100*150/100) = 150, fee = floor(150*500/10000) = 7.
	payout, fee := Winner(100, 100, 150, 500)
	assert.Equal(t, uint64(143), payout)
	assert.Equal(t, uint64(7), fee)
}

func TestWinner_ZeroFee(t *testing.T) {
	payout, fee := Winner(100, 100, 150, 0)
	assert.Equal(t, uint64(150), payout)
	assert.Equal(t, uint64(0), fee)
}

func TestWinner_FullFee(t *testing.T) {
	payout, fee := Winner(100, 100, 150, 10_000)
	assert.Equal(t, uint64(0), payout)
	assert.Equal(t, uint64(150), fee)
}

func TestWinner_FeeRounding(t *testing.T) {
	// gross = floor(3*10/5) = 6, fee = floor(6*1/10000) = 0.
	payout, fee := Winner(3, 5, 10, 1)
	assert.Equal(t, uint64(6), payout)
	assert.Equal(t, uint64(0), fee)
}

func TestWinner_SoleWinnerTakesAll(t *testing.T) {
	payout, fee := Winner(10, 10, 1_000_010, 0)
	assert.Equal(t, uint64(1_000_010), payout)
	assert.Equal(t, uint64(0), fee)
}

func TestWinner_ZeroWinningPoolClampsToZero(t *testing.T) {
	payout, fee := Winner(100, 0, 150, 500)
	assert.Equal(t, uint64(0), payout)
	assert.Equal(t, uint64(0), fee)
}

func TestWinner_LargePoolsNoOverflow(t *testing.T) {
	// stake * totalPool overflows uint64; the 128-bit intermediate must not.
	stake := uint64(1) << 40
	winning := uint64(1) << 41
	total := uint64(1) << 42
	payout, fee := Winner(stake, winning, total, 500)

	gross := uint64(1) << 41 // stake * total / winning
	wantFee := gross * 500 / 10_000
	assert.Equal(t, gross-wantFee, payout)
	assert.Equal(t, wantFee, fee)
}

func TestWinner_QuotientOverflowClampsToZero(t *testing.T) {
	// stake*totalPool/winningPool exceeds uint64; the clamp yields zero
	// rather than a panic or a wrapped value.
	payout, fee := Winner(math.MaxUint64, 1, math.MaxUint64, 500)
	assert.Equal(t, uint64(0), payout)
	assert.Equal(t, uint64(0), fee)
}

func TestRefund_DocumentedAmplifiedScenario(t *testing.T) {
	// yesPool=100, noPool=50, stake=100 on Yes: refund = floor(100*150/100).
	// The bettor staked 100 and gets 150 back; the divisor is the bettor's
	// own side pool, and this amplification is deliberate (see spec).
	assert.Equal(t, uint64(150), Refund(100, 100, 150))
}

func TestRefund_LightSideAmplifiesMore(t *testing.T) {
	// Same pools, bettor holds the entire 50-unit No side: 50*150/50 = 150.
	assert.Equal(t, uint64(150), Refund(50, 50, 150))
}

func TestRefund_ZeroSidePoolClampsToZero(t *testing.T) {
	assert.Equal(t, uint64(0), Refund(100, 0, 150))
}

func TestAddPools(t *testing.T) {
	total, err := AddPools(100, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), total)
}

func TestAddPools_Overflow(t *testing.T) {
	_, err := AddPools(math.MaxUint64, 1)
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
}

func TestMulDiv_Floors(t *testing.T) {
	assert.Equal(t, uint64(2), mulDiv(7, 1, 3))
	assert.Equal(t, uint64(0), mulDiv(1, 1, 3))
}

func TestMulDiv_ZeroDivisor(t *testing.T) {
	assert.Equal(t, uint64(0), mulDiv(10, 10, 0))
}
