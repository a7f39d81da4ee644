package core

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/core/stat"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// maxStandardizedDiff is the balance threshold: a standardized mean
// difference above this between matched arms means the coarsened bins
// are too wide and the item is re-matched with narrower widths.
const maxStandardizedDiff = 0.1

// placeboCheck runs the full matching and ATT machinery against a
// randomly selected decoy item. A well-behaved estimator should find
// nothing; a significant placebo result is a red flag for systematic
// confounding and is surfaced, never auto-remediated.
func placeboCheck(cfg *contract.Config, data *schema.Dataset, universe *matchUniverse) schema.ValidationReport {
	report := schema.ValidationReport{CheckName: schema.PlaceboCheck, Passed: true}

	items := universe.items()
	eligible := make([]string, 0, len(items))
	for _, itemID := range items {
		if len(universe.treatedByItem[itemID]) >= cfg.MinTreatedSamples {
			eligible = append(eligible, itemID)
		}
	}
	if len(eligible) == 0 {
		report.Detail = "no item has enough treated samples for a placebo run"
		return report
	}

	rng := rand.New(rand.NewSource(itemSeed(cfg.RandomSeed, "placebo-decoy")))
	decoy := eligible[rng.Intn(len(eligible))]
	report.ItemID = decoy

	cohort, skip := universe.matchItem(decoy)
	if skip != "" {
		report.Detail = fmt.Sprintf("decoy cohort skipped: %s", skip)
		return report
	}

	cand, skip := estimateATT(cfg, data, cohort)
	if skip != "" {
		report.Detail = fmt.Sprintf("decoy estimate skipped: %s", skip)
		return report
	}

	report.Statistic = cand.Effect.PValue
	report.Passed = cand.Effect.PValue >= cfg.PValueThreshold
	report.Detail = fmt.Sprintf("decoy ATT %.2f, p=%.4f", cand.Effect.ATTScore, cand.Effect.PValue)
	return report
}

// preTrendCheck compares treatment and control Δrating over the window
// strictly before the matched event. A significant difference means
// skilled users were already improving when they self-selected into the
// item, so the item's effect must not be reported as causal.
func preTrendCheck(cfg *contract.Config, data *schema.Dataset, cohort *schema.Cohort) schema.ValidationReport {
	report := schema.ValidationReport{CheckName: schema.PreTrendCheck, ItemID: cohort.ItemID, Passed: true}

	treatedPre := preWindowGains(cfg, data, cohort.Treated)
	controlPre := preWindowGains(cfg, data, cohort.Control)
	if len(treatedPre) < cfg.MinTreatedSamples || len(controlPre) < cfg.MinTreatedSamples {
		report.Detail = "insufficient pre-window history for a trend comparison"
		return report
	}

	welch := stat.WelchTest(treatedPre, controlPre)
	report.Statistic = welch.PValue
	report.Passed = welch.PValue >= cfg.PValueThreshold
	report.Detail = fmt.Sprintf("pre-trend gap %.2f, p=%.4f", welch.Shift, welch.PValue)
	return report
}

// balanceCheck compares confounder distributions between the matched
// arms. It looks at confounders only, never outcomes, so it cannot be
// fooled by the effect it is guarding.
func balanceCheck(cohort *schema.Cohort) schema.ValidationReport {
	report := schema.ValidationReport{CheckName: schema.BalanceCheck, ItemID: cohort.ItemID}

	worst := 0.0
	worstName := confounderAccessors()[0].name
	for _, c := range confounderAccessors() {
		smd := stat.StandardizedMeanDiff(confounderValues(cohort.Treated, c.pick), confounderValues(cohort.Control, c.pick))
		if math.Abs(smd) > math.Abs(worst) {
			worst = smd
			worstName = c.name
		}
	}

	report.Statistic = worst
	report.Passed = math.Abs(worst) <= maxStandardizedDiff
	report.Detail = fmt.Sprintf("max |SMD| %.4f on %s", math.Abs(worst), worstName)
	return report
}

// missingConfounderReport surfaces how many observations were routed to
// the sentinel bucket. They stay in the run but can only ever match
// each other, so a large count deserves attention upstream.
func missingConfounderReport(universe *matchUniverse) schema.ValidationReport {
	return schema.ValidationReport{
		CheckName: schema.SkipCheck,
		Passed:    universe.missingConfounders == 0,
		Statistic: float64(universe.missingConfounders),
		Detail:    fmt.Sprintf("%s: %d observations in sentinel bucket", schema.SkipMissingConfounder, universe.missingConfounders),
	}
}

// preWindowGains computes Δrating over the window strictly before each
// event. Observations without that much history are dropped from the
// diagnostic only, not from the run.
func preWindowGains(cfg *contract.Config, data *schema.Dataset, obs []schema.Observation) []float64 {
	gains := make([]float64, 0, len(obs))
	for _, o := range obs {
		past, ok := data.PastRating(o.UserID, o.Index, cfg.OutcomeWindow)
		if !ok {
			continue
		}
		gains = append(gains, o.Event.RatingBefore-past)
	}
	return gains
}

// confounderAccessor names one matched confounder with its extractor.
type confounderAccessor struct {
	name string
	pick func(schema.EventRecord) float64
}

// confounderAccessors lists the matched confounders in a fixed order so
// diagnostics are deterministic.
func confounderAccessors() []confounderAccessor {
	return []confounderAccessor{
		{"rating_before", func(e schema.EventRecord) float64 { return e.RatingBefore }},
		{"rolling_accuracy", func(e schema.EventRecord) float64 { return e.RollingAccuracy }},
		{"rolling_avg_difficulty", func(e schema.EventRecord) float64 { return e.RollingAvgDifficulty }},
	}
}

// confounderValues extracts one confounder across an arm, skipping
// sentinel-bucket observations whose values are not finite.
func confounderValues(obs []schema.Observation, pick func(schema.EventRecord) float64) []float64 {
	values := make([]float64, 0, len(obs))
	for _, o := range obs {
		v := pick(o.Event)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values = append(values, v)
	}
	return values
}
