package analytics

import (
	"math"

	"minex/domain/orderbook"
)

// FactCheck compares one computed stylized-fact statistic against its
// empirical benchmark.
type FactCheck struct {
	Name       string
	Reproduced bool
	Value      float64
	Benchmark  string
}

// FactMetrics are the Cont (2001) stylized-fact statistics computed
// from the simulated midprice series.
type FactMetrics struct {
	ReturnKurtosis float64 // excess; Normal = 0
	ReturnSkewness float64
	JarqueBeraStat float64

	AbsReturnACLag1  float64
	AbsReturnACLag5  float64
	AbsReturnACLag10 float64
	SqReturnACLag1   float64

	VolumeVolatilityCorr float64
	SpreadVolCorr        float64

	FactChecks []FactCheck
}

// ComputeStylizedFacts derives returns from the midprice series and
// checks fat tails, volatility clustering, and the volume and spread
// correlations. Volumes and spreads may be empty.
func ComputeStylizedFacts(midprices []orderbook.Price, volumes []orderbook.Quantity, spreads []orderbook.Price) FactMetrics {
	var result FactMetrics

	var returns []float64
	for i := 1; i < len(midprices); i++ {
		if midprices[i-1] > 0 {
			returns = append(returns, float64(midprices[i]-midprices[i-1])/float64(midprices[i-1]))
		}
	}
	if len(returns) < 20 {
		return result
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance, m3, m4 float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	n := float64(len(returns))
	variance /= n
	m3 /= n
	m4 /= n

	stdDev := math.Sqrt(variance)
	if stdDev > 0 {
		result.ReturnSkewness = m3 / (stdDev * stdDev * stdDev)
		result.ReturnKurtosis = m4/(variance*variance) - 3.0
	}

	result.JarqueBeraStat = n / 6.0 *
		(result.ReturnSkewness*result.ReturnSkewness + 0.25*result.ReturnKurtosis*result.ReturnKurtosis)

	absReturns := make([]float64, len(returns))
	sqReturns := make([]float64, len(returns))
	for i, r := range returns {
		absReturns[i] = math.Abs(r)
		sqReturns[i] = r * r
	}

	result.AbsReturnACLag1 = autocorrelation(absReturns, 1)
	result.AbsReturnACLag5 = autocorrelation(absReturns, 5)
	result.AbsReturnACLag10 = autocorrelation(absReturns, 10)
	result.SqReturnACLag1 = autocorrelation(sqReturns, 1)

	if len(volumes) >= len(returns) {
		vols := make([]float64, len(absReturns))
		for i := range vols {
			vols[i] = float64(volumes[i])
		}
		result.VolumeVolatilityCorr = correlation(vols, absReturns)
	}

	if len(spreads) >= len(returns) {
		sprds := make([]float64, len(absReturns))
		for i := range sprds {
			sprds[i] = float64(spreads[i])
		}
		result.SpreadVolCorr = correlation(sprds, absReturns)
	}

	result.FactChecks = []FactCheck{
		{"Fat tails (excess kurtosis > 0)", result.ReturnKurtosis > 0,
			result.ReturnKurtosis, "> 0"},
		{"Volatility clustering (AC|r| lag1 > 0.1)", result.AbsReturnACLag1 > 0.1,
			result.AbsReturnACLag1, "0.15-0.40"},
		{"Slow AC decay (lag10 > 0)", result.AbsReturnACLag10 > 0,
			result.AbsReturnACLag10, "> 0"},
	}
	if len(volumes) > 0 {
		result.FactChecks = append(result.FactChecks, FactCheck{
			"Volume-volatility correlation > 0.1", result.VolumeVolatilityCorr > 0.1,
			result.VolumeVolatilityCorr, "> 0.3 typical"})
	}
	if len(spreads) > 0 {
		result.FactChecks = append(result.FactChecks, FactCheck{
			"Spread widens with volatility", result.SpreadVolCorr > 0,
			result.SpreadVolCorr, "> 0"})
	}

	return result
}

func autocorrelation(x []float64, lag int) float64 {
	if len(x) <= lag {
		return 0
	}
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))

	var numerator, denominator float64
	for i := range x {
		denominator += (x[i] - mean) * (x[i] - mean)
		if i >= lag {
			numerator += (x[i] - mean) * (x[i-lag] - mean)
		}
	}
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func correlation(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 3 {
		return 0
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var ssXY, ssXX, ssYY float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		ssXY += dx * dy
		ssXX += dx * dx
		ssYY += dy * dy
	}

	denom := math.Sqrt(ssXX * ssYY)
	if denom == 0 {
		return 0
	}
	return ssXY / denom
}
