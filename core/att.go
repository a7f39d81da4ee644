package core

import (
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/core/stat"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// attCandidate is an item's effect estimate before the run-level
// filters (Bonferroni-corrected significance, sanity cap) are applied.
// Candidates are collected first so the correction can divide by the
// true number of tests performed.
type attCandidate struct {
	Effect       schema.CausalEffect
	TreatedGains []float64
	ControlGains []float64
}

// estimateATT quantifies the effect of attempting the cohort's item on
// Δrating over the outcome window. ATT is the difference of arm means;
// significance comes from Welch's unequal-variance t-test.
func estimateATT(cfg *contract.Config, data *schema.Dataset, cohort *schema.Cohort) (*attCandidate, string) {
	treatedGains := ratingGains(cfg, data, cohort.Treated)
	controlGains := ratingGains(cfg, data, cohort.Control)

	if len(treatedGains) < cfg.MinTreatedSamples || len(controlGains) < cfg.MinTreatedSamples {
		return nil, schema.SkipInsufficientSample
	}

	welch := stat.WelchTest(treatedGains, controlGains)

	return &attCandidate{
		Effect: schema.CausalEffect{
			ItemID:            cohort.ItemID,
			ATTScore:          welch.Shift,
			PValue:            welch.PValue,
			EffectSize:        stat.CohenD(treatedGains, controlGains),
			ProbabilityUplift: positiveShare(treatedGains) - positiveShare(controlGains),
			NTreated:          len(treatedGains),
			NControl:          len(controlGains),
			OutcomeWindow:     cfg.OutcomeWindow,
		},
		TreatedGains: treatedGains,
		ControlGains: controlGains,
	}, ""
}

// filterCandidate applies the per-item hard filters given the corrected
// significance threshold. Returns the skip reason when the candidate
// must be discarded.
func filterCandidate(cfg *contract.Config, cand *attCandidate, correctedAlpha float64) string {
	att := cand.Effect.ATTScore
	if att > cfg.EffectSanityCap || att < -cfg.EffectSanityCap {
		// An implausibly large effect signals residual confounding or
		// a degenerate control pool, not a genuinely huge effect.
		return schema.SkipImplausibleEffect
	}
	if cand.Effect.PValue >= correctedAlpha {
		return schema.SkipNotSignificant
	}
	return ""
}

// ratingGains computes Δrating over the outcome window for each
// observation. Eligibility filtering in the match universe guarantees
// the future rating exists for every observation passed here.
func ratingGains(cfg *contract.Config, data *schema.Dataset, obs []schema.Observation) []float64 {
	gains := make([]float64, 0, len(obs))
	for _, o := range obs {
		future, ok := data.FutureRating(o.UserID, o.Index, cfg.OutcomeWindow)
		if !ok {
			continue
		}
		gains = append(gains, future-o.Event.RatingBefore)
	}
	return gains
}

// positiveShare returns the fraction of gains that are strictly positive.
func positiveShare(gains []float64) float64 {
	if len(gains) == 0 {
		return 0
	}
	n := 0
	for _, g := range gains {
		if g > 0 {
			n++
		}
	}
	return float64(n) / float64(len(gains))
}
