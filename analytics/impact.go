package analytics

import (
	"math"
	"sort"

	"minex/domain/orderbook"
)

// ImpactTradeInput is one trade positioned in event time.
type ImpactTradeInput struct {
	Timestamp float64
	Price     orderbook.Price
	Volume    orderbook.Quantity
	Aggressor orderbook.Side
}

// TimedMid pairs a timestamp with the midpoint observed there.
type TimedMid struct {
	Timestamp float64
	Mid       orderbook.Price
}

// KyleLambdaResult is the OLS fit of ΔP = α + λ·ΔX + ε over
// aggregation intervals, where ΔX is net signed order flow.
type KyleLambdaResult struct {
	Lambda       float64
	Alpha        float64
	RSquared     float64
	TStatistic   float64
	StdError     float64
	NumIntervals int
}

// EstimateKyleLambda aggregates signed flow and mid changes into
// intervalSec buckets and regresses price change on flow.
func EstimateKyleLambda(trades []ImpactTradeInput, mids []TimedMid, intervalSec float64) KyleLambdaResult {
	if len(trades) == 0 || len(mids) == 0 {
		return KyleLambdaResult{}
	}

	maxTime := trades[len(trades)-1].Timestamp
	numIntervals := int(maxTime/intervalSec) + 1

	deltaX := make([]float64, numIntervals)
	deltaP := make([]float64, numIntervals)

	for _, t := range trades {
		bucket := int(t.Timestamp / intervalSec)
		if bucket >= numIntervals {
			bucket = numIntervals - 1
		}
		signed := float64(t.Volume)
		if t.Aggressor == orderbook.Sell {
			signed = -signed
		}
		deltaX[bucket] += signed
	}

	for i := 0; i < numIntervals; i++ {
		pStart := findNearestMid(mids, float64(i)*intervalSec)
		pEnd := findNearestMid(mids, float64(i+1)*intervalSec)
		deltaP[i] = float64(pEnd - pStart)
	}

	// Empty intervals carry no flow information; drop them before the
	// fit.
	var x, y []float64
	for i := 0; i < numIntervals; i++ {
		if deltaX[i] != 0 {
			x = append(x, deltaX[i])
			y = append(y, deltaP[i])
		}
	}

	return olsRegression(x, y)
}

// ImpactCurvePoint is the average absolute impact within one trade
// size quantile.
type ImpactCurvePoint struct {
	VolumeQuantile float64
	AvgImpact      float64
}

// ComputeImpactCurve buckets trades by size and averages the absolute
// midpoint move each bucket caused.
func ComputeImpactCurve(trades []ImpactTradeInput, midsBefore, midsAfter []orderbook.Price, numQuantiles int) []ImpactCurvePoint {
	n := len(trades)
	if n == 0 || len(midsBefore) < n || len(midsAfter) < n {
		return nil
	}

	type tradeImpact struct {
		volume orderbook.Quantity
		impact float64
	}

	impacts := make([]tradeImpact, n)
	for i := range trades {
		impacts[i] = tradeImpact{
			volume: trades[i].Volume,
			impact: math.Abs(float64(midsAfter[i] - midsBefore[i])),
		}
	}

	sort.Slice(impacts, func(i, j int) bool { return impacts[i].volume < impacts[j].volume })

	perBin := n / numQuantiles
	if perBin == 0 {
		perBin = 1
	}

	var curve []ImpactCurvePoint
	for q := 0; q < numQuantiles; q++ {
		start := q * perBin
		if start >= n {
			break
		}
		end := start + perBin
		if end > n {
			end = n
		}

		var sum float64
		for i := start; i < end; i++ {
			sum += impacts[i].impact
		}
		curve = append(curve, ImpactCurvePoint{
			VolumeQuantile: (float64(q) + 0.5) * 100.0 / float64(numQuantiles),
			AvgImpact:      sum / float64(end-start),
		})
	}

	return curve
}

func findNearestMid(mids []TimedMid, t float64) orderbook.Price {
	i := sort.Search(len(mids), func(i int) bool { return mids[i].Timestamp >= t })
	if i == len(mids) {
		return mids[len(mids)-1].Mid
	}
	if i == 0 {
		return mids[0].Mid
	}
	if t-mids[i-1].Timestamp < mids[i].Timestamp-t {
		return mids[i-1].Mid
	}
	return mids[i].Mid
}

func olsRegression(x, y []float64) KyleLambdaResult {
	var result KyleLambdaResult
	n := len(x)
	if n < 3 {
		return result
	}
	result.NumIntervals = n

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var ssXY, ssXX, ssYY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		ssXY += dx * dy
		ssXX += dx * dx
		ssYY += dy * dy
	}
	if ssXX == 0 {
		return result
	}

	result.Lambda = ssXY / ssXX
	result.Alpha = meanY - result.Lambda*meanX

	if ssYY > 0 {
		result.RSquared = ssXY * ssXY / (ssXX * ssYY)
	}

	var sse float64
	for i := range x {
		residual := y[i] - result.Alpha - result.Lambda*x[i]
		sse += residual * residual
	}
	mse := sse / float64(n-2)
	result.StdError = math.Sqrt(mse / ssXX)

	if result.StdError > 0 {
		result.TStatistic = result.Lambda / result.StdError
	}

	return result
}
