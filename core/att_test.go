package core

import (
	"testing"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEstimateATTRecoversKnownEffect tests that the estimator recovers
// the planted 60-point effect from the synthetic dataset.
func TestEstimateATTRecoversKnownEffect(t *testing.T) {
	cfg := testConfig()
	data := buildEffectDataset()
	universe := newMatchUniverse(cfg, data)

	cohort, skip := universe.matchItem("itm-causal")
	require.Empty(t, skip)

	cand, skip := estimateATT(cfg, data, cohort)
	require.Empty(t, skip)
	require.NotNil(t, cand)

	effect := cand.Effect
	assert.Equal(t, "itm-causal", effect.ItemID)
	assert.InDelta(t, 60, effect.ATTScore, 2)
	assert.Less(t, effect.PValue, 1e-6)
	assert.Greater(t, effect.EffectSize, 1.0)
	assert.InDelta(t, 0.6, effect.ProbabilityUplift, 0.05)
	assert.Equal(t, 30, effect.NTreated)
	assert.Equal(t, 60, effect.NControl)
	assert.Equal(t, cfg.OutcomeWindow, effect.OutcomeWindow)
}

// TestEstimateATTInsufficientSample tests the skip when an arm shrinks
// below the minimum after gain computation.
func TestEstimateATTInsufficientSample(t *testing.T) {
	cfg := testConfig()
	data := buildEffectDataset()

	cohort := &schema.Cohort{ItemID: "itm-causal"}
	cand, skip := estimateATT(cfg, data, cohort)
	assert.Nil(t, cand)
	assert.Equal(t, schema.SkipInsufficientSample, skip)
}

// TestFilterCandidate tests the run-level hard filters.
func TestFilterCandidate(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name     string
		att      float64
		pValue   float64
		alpha    float64
		expected string
	}{
		{
			name:     "plausible and significant",
			att:      60,
			pValue:   0.001,
			alpha:    0.05,
			expected: "",
		},
		{
			name:     "positive effect above sanity cap",
			att:      400,
			pValue:   0.001,
			alpha:    0.05,
			expected: schema.SkipImplausibleEffect,
		},
		{
			name:     "negative effect below sanity cap",
			att:      -400,
			pValue:   0.001,
			alpha:    0.05,
			expected: schema.SkipImplausibleEffect,
		},
		{
			name:     "not significant at corrected level",
			att:      60,
			pValue:   0.01,
			alpha:    0.005,
			expected: schema.SkipNotSignificant,
		},
		{
			name:     "p exactly at threshold is rejected",
			att:      60,
			pValue:   0.05,
			alpha:    0.05,
			expected: schema.SkipNotSignificant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := &attCandidate{Effect: schema.CausalEffect{ATTScore: tt.att, PValue: tt.pValue}}
			assert.Equal(t, tt.expected, filterCandidate(cfg, cand, tt.alpha))
		})
	}
}

// TestPositiveShare tests the probability uplift helper.
func TestPositiveShare(t *testing.T) {
	assert.Equal(t, 0.0, positiveShare(nil))
	assert.Equal(t, 0.5, positiveShare([]float64{1, -1, 2, 0}))
	assert.Equal(t, 1.0, positiveShare([]float64{3, 4}))
}

// TestRatingGains tests gain computation over the outcome window.
func TestRatingGains(t *testing.T) {
	cfg := testConfig()
	histories := map[string][]schema.EventRecord{
		"u": {
			testEvent("u", "a", 0, 1500),
			testEvent("u", "b", 1, 1510),
			testEvent("u", "c", 2, 1540),
			testEvent("u", "d", 3, 1560),
		},
	}
	data := datasetFrom(histories)

	obs := []schema.Observation{
		{UserID: "u", Index: 0, Event: histories["u"][0]},
		{UserID: "u", Index: 1, Event: histories["u"][1]},
		{UserID: "u", Index: 3, Event: histories["u"][3]}, // No future window
	}
	gains := ratingGains(cfg, data, obs)
	assert.Equal(t, []float64{40, 50}, gains)
}
