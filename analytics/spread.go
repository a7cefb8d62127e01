// Package analytics consumes the simulator's trade and quote series
// and computes the standard microstructure measurements: Huang–Stoll
// spread decomposition, Kyle's lambda, order-flow imbalance, and the
// stylized-fact checks. Everything here is plain OLS and moment math
// on the recorded series.
package analytics

import (
	"math"
	"sort"

	"minex/domain/orderbook"
)

// SpreadTradeInput is one trade with the midpoints around it.
type SpreadTradeInput struct {
	TradePrice orderbook.Price
	MidBefore  orderbook.Price
	MidAfter   orderbook.Price
	Volume     orderbook.Quantity
	Aggressor  orderbook.Side
}

// SpreadMetrics is the Huang–Stoll decomposition: effective spread
// splits into the realized spread (market-maker revenue) and price
// impact (information content); adverse selection is their ratio.
type SpreadMetrics struct {
	AvgQuotedSpread     float64
	AvgEffectiveSpread  float64
	AvgRealizedSpread   float64
	AvgPriceImpact      float64
	AdverseSelectionPct float64

	MedianEffectiveSpread float64
	P95EffectiveSpread    float64

	VWAPEffectiveSpread float64
	VWAPRealizedSpread  float64

	NumTrades int
}

// ComputeSpread decomposes spreads over the trade stream.
//
//	effective = 2·d·(P − M_t)     realized = 2·d·(P − M_{t+Δ})
//	impact = effective − realized = 2·d·(M_{t+Δ} − M_t)
func ComputeSpread(trades []SpreadTradeInput, quotedSpreads []orderbook.Price) SpreadMetrics {
	var result SpreadMetrics
	if len(trades) == 0 {
		return result
	}
	result.NumTrades = len(trades)

	if len(quotedSpreads) > 0 {
		var sum float64
		for _, s := range quotedSpreads {
			sum += float64(s)
		}
		result.AvgQuotedSpread = sum / float64(len(quotedSpreads))
	}

	effectiveSpreads := make([]float64, 0, len(trades))

	var sumEffective, sumRealized, sumImpact float64
	var vwEffective, vwRealized float64
	var totalVolume orderbook.Quantity

	for _, t := range trades {
		d := 1.0
		if t.Aggressor == orderbook.Sell {
			d = -1.0
		}

		eff := 2.0 * d * float64(t.TradePrice-t.MidBefore)
		real := 2.0 * d * float64(t.TradePrice-t.MidAfter)
		impact := eff - real

		sumEffective += math.Abs(eff)
		sumRealized += real // negative when the maker loses
		sumImpact += math.Abs(impact)

		effectiveSpreads = append(effectiveSpreads, math.Abs(eff))

		vwEffective += math.Abs(eff) * float64(t.Volume)
		vwRealized += real * float64(t.Volume)
		totalVolume += t.Volume
	}

	n := float64(len(trades))
	result.AvgEffectiveSpread = sumEffective / n
	result.AvgRealizedSpread = sumRealized / n
	result.AvgPriceImpact = sumImpact / n

	if result.AvgEffectiveSpread > 0 {
		result.AdverseSelectionPct = result.AvgPriceImpact / result.AvgEffectiveSpread * 100.0
	}

	if totalVolume > 0 {
		result.VWAPEffectiveSpread = vwEffective / float64(totalVolume)
		result.VWAPRealizedSpread = vwRealized / float64(totalVolume)
	}

	sort.Float64s(effectiveSpreads)
	result.MedianEffectiveSpread = percentile(effectiveSpreads, 0.5)
	result.P95EffectiveSpread = percentile(effectiveSpreads, 0.95)

	return result
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi > len(sorted)-1 {
		hi = len(sorted) - 1
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
