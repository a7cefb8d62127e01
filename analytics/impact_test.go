package analytics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minex/domain/orderbook"
)

// Build a market where every 100 shares of net flow move the mid by
// 2 ticks, plus up to ±1 tick of noise per step; the regression must
// recover lambda = 0.02.
func TestEstimateKyleLambdaLinearMarket(t *testing.T) {
	const lambda = 0.02

	rng := rand.New(rand.NewSource(42))
	var trades []ImpactTradeInput
	var mids []TimedMid

	mid := orderbook.Price(10000)
	mids = append(mids, TimedMid{Timestamp: 0, Mid: mid})

	for i := 0; i < 200; i++ {
		ts := float64(i)*5.0 + 2.5
		vol := orderbook.Quantity((rng.Intn(10) + 1) * 100)
		side := orderbook.Buy
		signed := float64(vol)
		if rng.Intn(2) == 1 {
			side = orderbook.Sell
			signed = -signed
		}

		trades = append(trades, ImpactTradeInput{
			Timestamp: ts,
			Price:     mid,
			Volume:    vol,
			Aggressor: side,
		})

		noise := orderbook.Price(rng.Intn(3) - 1)
		mid += orderbook.Price(lambda*signed) + noise
		mids = append(mids, TimedMid{Timestamp: float64(i+1) * 5.0, Mid: mid})
	}

	result := EstimateKyleLambda(trades, mids, 5.0)

	require.Greater(t, result.NumIntervals, 100)
	assert.InDelta(t, lambda, result.Lambda, 0.005)
	assert.Greater(t, result.RSquared, 0.9, "a linear market should fit almost perfectly")
	assert.Greater(t, result.TStatistic, 10.0)
}

func TestEstimateKyleLambdaEmpty(t *testing.T) {
	result := EstimateKyleLambda(nil, nil, 5.0)
	assert.Zero(t, result.Lambda)
	assert.Zero(t, result.NumIntervals)
}

func TestComputeImpactCurveMonotoneMarket(t *testing.T) {
	// Impact proportional to size: larger-size quantiles must show
	// larger average impact.
	var trades []ImpactTradeInput
	var before, after []orderbook.Price

	for i := 1; i <= 100; i++ {
		trades = append(trades, ImpactTradeInput{Volume: orderbook.Quantity(i * 100)})
		before = append(before, 10000)
		after = append(after, 10000+orderbook.Price(i))
	}

	curve := ComputeImpactCurve(trades, before, after, 10)
	require.Len(t, curve, 10)
	for i := 1; i < len(curve); i++ {
		assert.Greater(t, curve[i].AvgImpact, curve[i-1].AvgImpact)
	}
}

func TestFindNearestMid(t *testing.T) {
	mids := []TimedMid{
		{Timestamp: 0, Mid: 100},
		{Timestamp: 10, Mid: 200},
		{Timestamp: 20, Mid: 300},
	}
	assert.Equal(t, orderbook.Price(100), findNearestMid(mids, 2))
	assert.Equal(t, orderbook.Price(200), findNearestMid(mids, 9))
	assert.Equal(t, orderbook.Price(300), findNearestMid(mids, 50))
}
