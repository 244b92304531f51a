package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sibyl-protocol/sibyl/internal/domain"
	"github.com/sibyl-protocol/sibyl/internal/engine"
)

func TestInitialize(t *testing.T) {
	f := newFixture(t)

	p, err := f.engine.Initialize(context.Background(), engine.InitializeParams{
		Caller:   authority,
		Oracle:   oracle,
		Treasury: treasury,
		FeeBps:   500,
		SwapCap:  1_000,
	})
	require.NoError(t, err)

	assert.Equal(t, authority, p.Authority)
	assert.Equal(t, oracle, p.Oracle)
	assert.Equal(t, treasury, p.Treasury)
	assert.Equal(t, uint16(500), p.FeeBps)
	assert.Equal(t, uint64(1_000), p.SwapCap)
	assert.Equal(t, uint64(0), p.MarketCount)

	stored, err := f.engine.GetProtocol(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p, stored)
}

func TestInitialize_Twice(t *testing.T) {
	f := newFixture(t)
	f.initialize(t, 500, 1_000)

	_, err := f.engine.Initialize(context.Background(), engine.InitializeParams{
		Caller:   "someone-else",
		Oracle:   oracle,
		Treasury: treasury,
		FeeBps:   100,
		SwapCap:  1,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// The original configuration survives the failed re-initialize.
	p, err := f.engine.GetProtocol(context.Background())
	require.NoError(t, err)
	assert.Equal(t, authority, p.Authority)
	assert.Equal(t, uint16(500), p.FeeBps)
}

func TestInitialize_FeeBpsAboveMax(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Initialize(context.Background(), engine.InitializeParams{
		Caller:   authority,
		Oracle:   oracle,
		Treasury: treasury,
		FeeBps:   10_001,
		SwapCap:  1_000,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFeeBps)
}

func TestInitialize_FeeBpsAtMax(t *testing.T) {
	f := newFixture(t)

	// 10000 bps is a legal, if confiscatory, fee.
	p, err := f.engine.Initialize(context.Background(), engine.InitializeParams{
		Caller:   authority,
		Oracle:   oracle,
		Treasury: treasury,
		FeeBps:   10_000,
		SwapCap:  1_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint16(10_000), p.FeeBps)
}

func TestInitialize_ZeroSwapCap(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Initialize(context.Background(), engine.InitializeParams{
		Caller:   authority,
		Oracle:   oracle,
		Treasury: treasury,
		FeeBps:   500,
		SwapCap:  0,
	})
	assert.ErrorIs(t, err, domain.ErrZeroAmount)
}

func TestGetProtocol_Uninitialized(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.GetProtocol(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
