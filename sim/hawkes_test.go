package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() HawkesParams {
	return HawkesParams{Mu: 50.0, Alpha: 35.0, Beta: 50.0}
}

func TestHawkesDeterminism(t *testing.T) {
	a := NewHawkes(testParams(), 999).Generate(30.0)
	b := NewHawkes(testParams(), 999).Generate(30.0)
	require.Equal(t, a, b, "same seed must reproduce the event stream")

	c := NewHawkes(testParams(), 1000).Generate(30.0)
	assert.NotEqual(t, a, c)
}

func TestHawkesEventTimesOrdered(t *testing.T) {
	events := NewHawkes(testParams(), 42).Generate(60.0)
	require.NotEmpty(t, events)

	prev := 0.0
	for _, ts := range events {
		assert.Greater(t, ts, prev)
		assert.Less(t, ts, 60.0)
		prev = ts
	}
}

func TestHawkesClustering(t *testing.T) {
	// A branching ratio of 0.7 should produce clearly more events than
	// the baseline Poisson rate alone.
	events := NewHawkes(testParams(), 42).Generate(120.0)
	baseline := 50.0 * 120.0
	assert.Greater(t, float64(len(events)), baseline*1.5,
		"self-excitation should amplify the baseline rate")
}

func TestHawkesStationarityClamp(t *testing.T) {
	h := NewHawkes(HawkesParams{Mu: 10, Alpha: 12, Beta: 8}, 42)
	assert.InDelta(t, 0.95*8, h.Params().Alpha, 1e-12, "alpha clamps to 0.95*beta")
	assert.True(t, h.Params().IsStationary())
}

func TestBranchingRatio(t *testing.T) {
	p := testParams()
	assert.InDelta(t, 0.7, p.BranchingRatio(), 1e-12)
	assert.True(t, p.IsStationary())
}

func TestGenerateSided(t *testing.T) {
	a := NewHawkes(testParams(), 7).GenerateSided(30.0, 0.5)
	b := NewHawkes(testParams(), 7).GenerateSided(30.0, 0.5)
	require.Equal(t, a, b)

	buys := 0
	for _, ev := range a {
		if ev.IsBuy {
			buys++
		}
	}
	// With persistence 0.6 and an unbiased coin both sides appear.
	assert.Greater(t, buys, 0)
	assert.Less(t, buys, len(a))

	// Direction runs should exceed what an independent coin gives;
	// count same-side follow-ups.
	same := 0
	for i := 1; i < len(a); i++ {
		if a[i].IsBuy == a[i-1].IsBuy {
			same++
		}
	}
	assert.Greater(t, float64(same)/float64(len(a)-1), 0.55,
		"persistence should induce direction autocorrelation")
}
