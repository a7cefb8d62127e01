// Package sim drives the exchange with a realistic synthetic order
// flow: a self-exciting Hawkes process supplies arrival times, and
// zero-intelligence agents turn each arrival into an order against the
// book. Every source of randomness is a seeded generator owned by
// exactly one component, so a seed fully determines a run.
package sim

import (
	"math"
	"math/rand"
)

// HawkesParams configure the intensity λ(t) = μ + Σ α·exp(−β·(t−tᵢ)).
// The branching ratio α/β controls clustering; it must stay below one
// for the process to be stationary.
type HawkesParams struct {
	Mu    float64
	Alpha float64
	Beta  float64
}

func (p HawkesParams) BranchingRatio() float64 { return p.Alpha / p.Beta }
func (p HawkesParams) IsStationary() bool      { return p.Alpha < p.Beta }

// Hawkes generates self-exciting event times via Ogata thinning.
type Hawkes struct {
	params HawkesParams
	rng    *rand.Rand
}

// NewHawkes clamps α to 0.95·β when the parameters are non-stationary
// rather than rejecting them.
func NewHawkes(params HawkesParams, seed int64) *Hawkes {
	if !params.IsStationary() {
		params.Alpha = params.Beta * 0.95
	}
	return &Hawkes{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (h *Hawkes) Params() HawkesParams { return h.params }

// Generate returns event timestamps in [0, duration) seconds.
//
// Between jumps the intensity only decays, so the running intensity is
// a valid thinning upper bound for the next candidate.
func (h *Hawkes) Generate(duration float64) []float64 {
	events := make([]float64, 0, int(duration*h.params.Mu*2))

	t := 0.0
	intensity := h.params.Mu

	for t < duration {
		lambdaBar := intensity

		dt := h.rng.ExpFloat64() / lambdaBar
		t += dt
		if t >= duration {
			break
		}

		intensity = h.computeIntensity(t, events)

		if h.rng.Float64() <= intensity/lambdaBar {
			events = append(events, t)
			intensity += h.params.Alpha
		}
	}

	return events
}

// computeIntensity recomputes λ(t) exactly over a bounded look-back of
// 5/β, which captures ≈99.3% of the remaining excitation and keeps
// per-event work bounded.
func (h *Hawkes) computeIntensity(t float64, events []float64) float64 {
	intensity := h.params.Mu
	lookback := 5.0 / h.params.Beta

	for i := len(events) - 1; i >= 0; i-- {
		dt := t - events[i]
		if dt > lookback {
			break
		}
		intensity += h.params.Alpha * math.Exp(-h.params.Beta*dt)
	}

	return intensity
}

// SidedEvent is an arrival with an assigned direction.
type SidedEvent struct {
	Timestamp float64
	IsBuy     bool
}

// GenerateSided assigns each arrival a direction through a persistent
// first-order process: with probability 0.6 copy the previous
// direction, otherwise draw Bernoulli(buyBias). This models the
// autocorrelation of informed flow.
func (h *Hawkes) GenerateSided(duration, buyBias float64) []SidedEvent {
	times := h.Generate(duration)
	events := make([]SidedEvent, 0, len(times))

	const persistence = 0.6
	lastSide := true

	for _, t := range times {
		var isBuy bool
		if h.rng.Float64() < persistence {
			isBuy = lastSide
		} else {
			isBuy = h.rng.Float64() < buyBias
		}
		events = append(events, SidedEvent{Timestamp: t, IsBuy: isBuy})
		lastSide = isBuy
	}

	return events
}
