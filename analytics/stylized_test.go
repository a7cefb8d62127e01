package analytics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minex/domain/orderbook"
)

func TestStylizedFactsTooFewReturns(t *testing.T) {
	m := ComputeStylizedFacts([]orderbook.Price{100, 101, 102}, nil, nil)
	assert.Empty(t, m.FactChecks)
	assert.Zero(t, m.ReturnKurtosis)
}

func TestStylizedFactsOnClusteredSeries(t *testing.T) {
	// Two-regime volatility: calm stretches alternating with bursts.
	// This must show excess kurtosis and |r| autocorrelation.
	rng := rand.New(rand.NewSource(42))
	mids := []orderbook.Price{10000}

	for block := 0; block < 40; block++ {
		scale := 1.0
		if block%2 == 1 {
			scale = 12.0
		}
		for i := 0; i < 50; i++ {
			step := orderbook.Price(math.Round(rng.NormFloat64() * scale))
			next := mids[len(mids)-1] + step
			if next < 1 {
				next = 1
			}
			mids = append(mids, next)
		}
	}

	m := ComputeStylizedFacts(mids, nil, nil)

	assert.Greater(t, m.ReturnKurtosis, 0.0, "regime mixing fattens the tails")
	assert.Greater(t, m.AbsReturnACLag1, 0.1, "bursts cluster volatility")
	assert.Greater(t, m.JarqueBeraStat, 0.0)
	require.Len(t, m.FactChecks, 3)
	assert.True(t, m.FactChecks[0].Reproduced)
	assert.True(t, m.FactChecks[1].Reproduced)
}

func TestStylizedFactsSpreadCorrelation(t *testing.T) {
	// Spread tracks volatility by construction.
	rng := rand.New(rand.NewSource(7))
	mids := []orderbook.Price{10000}
	var spreads []orderbook.Price

	for block := 0; block < 40; block++ {
		scale := 1.0
		spread := orderbook.Price(2)
		if block%2 == 1 {
			scale = 12.0
			spread = 10
		}
		for i := 0; i < 50; i++ {
			step := orderbook.Price(math.Round(rng.NormFloat64() * scale))
			mids = append(mids, mids[len(mids)-1]+step)
			spreads = append(spreads, spread)
		}
	}

	m := ComputeStylizedFacts(mids, nil, spreads)
	assert.Greater(t, m.SpreadVolCorr, 0.0)
	require.Len(t, m.FactChecks, 4)
	assert.Equal(t, "Spread widens with volatility", m.FactChecks[3].Name)
}

func TestAutocorrelationHelpers(t *testing.T) {
	constant := []float64{5, 5, 5, 5, 5}
	assert.Zero(t, autocorrelation(constant, 1))

	alternating := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	assert.Less(t, autocorrelation(alternating, 1), 0.0)

	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	assert.InDelta(t, 1.0, correlation(x, y), 1e-9)

	inverse := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, correlation(x, inverse), 1e-9)
}
