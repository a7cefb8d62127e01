package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"minex/domain/orderbook"
)

func TestComputeSpreadBasics(t *testing.T) {
	// One buy at 2 ticks over mid, one sell at 2 ticks under: both have
	// effective spread 4; the mid never moves, so impact is zero and
	// realized equals effective.
	trades := []SpreadTradeInput{
		{TradePrice: 10002, MidBefore: 10000, MidAfter: 10000, Volume: 100, Aggressor: orderbook.Buy},
		{TradePrice: 9998, MidBefore: 10000, MidAfter: 10000, Volume: 300, Aggressor: orderbook.Sell},
	}
	quoted := []orderbook.Price{4, 4, 4, 4}

	m := ComputeSpread(trades, quoted)

	assert.Equal(t, 2, m.NumTrades)
	assert.InDelta(t, 4.0, m.AvgQuotedSpread, 1e-9)
	assert.InDelta(t, 4.0, m.AvgEffectiveSpread, 1e-9)
	assert.InDelta(t, 4.0, m.AvgRealizedSpread, 1e-9)
	assert.InDelta(t, 0.0, m.AvgPriceImpact, 1e-9)
	assert.InDelta(t, 0.0, m.AdverseSelectionPct, 1e-9)
	assert.InDelta(t, 4.0, m.VWAPEffectiveSpread, 1e-9)
}

func TestComputeSpreadAdverseSelection(t *testing.T) {
	// The mid moves fully to the trade price: the whole effective
	// spread is price impact.
	trades := []SpreadTradeInput{
		{TradePrice: 10002, MidBefore: 10000, MidAfter: 10002, Volume: 100, Aggressor: orderbook.Buy},
	}

	m := ComputeSpread(trades, nil)

	assert.InDelta(t, 4.0, m.AvgEffectiveSpread, 1e-9)
	assert.InDelta(t, 0.0, m.AvgRealizedSpread, 1e-9)
	assert.InDelta(t, 4.0, m.AvgPriceImpact, 1e-9)
	assert.InDelta(t, 100.0, m.AdverseSelectionPct, 1e-9)
}

func TestComputeSpreadEmpty(t *testing.T) {
	m := ComputeSpread(nil, nil)
	assert.Zero(t, m.NumTrades)
	assert.Zero(t, m.AvgEffectiveSpread)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.0, percentile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 1.0, percentile(sorted, 0.0), 1e-9)
	assert.InDelta(t, 5.0, percentile(sorted, 1.0), 1e-9)
	assert.Zero(t, percentile(nil, 0.5))
}
