package analytics

import (
	"math"

	"minex/domain/orderbook"
)

// BBOSnapshot is the top of book at one instant.
type BBOSnapshot struct {
	Timestamp float64
	BidPrice  orderbook.Price
	BidSize   orderbook.Quantity
	AskPrice  orderbook.Price
	AskSize   orderbook.Quantity
}

// ImbalanceTradeInput is one trade for the flow aggregation.
type ImbalanceTradeInput struct {
	Timestamp float64
	Volume    orderbook.Quantity
	Aggressor orderbook.Side
}

// ImbalanceMetrics hold the OFI→return regression (Cont, Kukanov &
// Stoikov) and summary imbalance statistics.
type ImbalanceMetrics struct {
	OFIBeta     float64
	OFIRSquared float64
	OFITStat    float64

	AvgVolumeImbalance float64
	MaxVolumeImbalance float64

	OFISeries    []float64
	ReturnSeries []float64
}

// ComputeImbalance derives per-interval OFI from BBO changes and
// regresses next-interval returns on it.
func ComputeImbalance(bbos []BBOSnapshot, trades []ImbalanceTradeInput, intervalSec float64) ImbalanceMetrics {
	var result ImbalanceMetrics
	if len(bbos) < 2 {
		return result
	}

	maxTime := bbos[len(bbos)-1].Timestamp
	numIntervals := int(maxTime/intervalSec) + 1

	ofi := make([]float64, numIntervals)
	returns := make([]float64, numIntervals)
	buyVol := make([]orderbook.Quantity, numIntervals)
	sellVol := make([]orderbook.Quantity, numIntervals)

	for _, t := range trades {
		bucket := int(t.Timestamp / intervalSec)
		if bucket >= numIntervals {
			bucket = numIntervals - 1
		}
		if t.Aggressor == orderbook.Buy {
			buyVol[bucket] += t.Volume
		} else {
			sellVol[bucket] += t.Volume
		}
	}

	// OFI from BBO transitions: a bid improvement adds its full size,
	// a bid retreat removes the prior size; asks mirror with opposite
	// sign.
	for i := 1; i < len(bbos); i++ {
		prev, curr := bbos[i-1], bbos[i]

		bucket := int(curr.Timestamp / intervalSec)
		if bucket >= numIntervals {
			bucket = numIntervals - 1
		}

		var deltaBid, deltaAsk float64
		switch {
		case curr.BidPrice == prev.BidPrice:
			deltaBid = float64(curr.BidSize) - float64(prev.BidSize)
		case curr.BidPrice > prev.BidPrice:
			deltaBid = float64(curr.BidSize)
		default:
			deltaBid = -float64(prev.BidSize)
		}
		switch {
		case curr.AskPrice == prev.AskPrice:
			deltaAsk = float64(curr.AskSize) - float64(prev.AskSize)
		case curr.AskPrice < prev.AskPrice:
			deltaAsk = float64(curr.AskSize)
		default:
			deltaAsk = -float64(prev.AskSize)
		}

		ofi[bucket] += deltaBid - deltaAsk
	}

	var sumImb, maxImb float64
	imbCount := 0
	for i := 0; i < numIntervals; i++ {
		midStart := midAt(bbos, float64(i)*intervalSec)
		midEnd := midAt(bbos, float64(i+1)*intervalSec)
		if midStart > 0 {
			returns[i] = float64(midEnd-midStart) / float64(midStart) * 10000.0 // bps
		}

		total := float64(buyVol[i] + sellVol[i])
		if total > 0 {
			imb := (float64(buyVol[i]) - float64(sellVol[i])) / total
			sumImb += imb
			imbCount++
			if math.Abs(imb) > maxImb {
				maxImb = math.Abs(imb)
			}
		}
	}
	if imbCount > 0 {
		result.AvgVolumeImbalance = sumImb / float64(imbCount)
	}
	result.MaxVolumeImbalance = maxImb

	// OFI in interval i predicts the return over interval i+1.
	var x, y []float64
	for i := 0; i+1 < numIntervals; i++ {
		if ofi[i] != 0 || returns[i+1] != 0 {
			x = append(x, ofi[i])
			y = append(y, returns[i+1])
		}
	}
	if len(x) >= 3 {
		fit := olsRegression(x, y)
		result.OFIBeta = fit.Lambda
		result.OFIRSquared = fit.RSquared
		result.OFITStat = fit.TStatistic
	}

	result.OFISeries = ofi
	result.ReturnSeries = returns
	return result
}

func midAt(bbos []BBOSnapshot, t float64) orderbook.Price {
	// Last snapshot at or before t, found by a linear scan from the
	// first snapshot; series are dense enough that this is acceptable.
	best := bbos[0]
	for _, b := range bbos {
		if b.Timestamp > t {
			break
		}
		best = b
	}
	return (best.BidPrice + best.AskPrice) / 2
}
