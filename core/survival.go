package core

import (
	"math"
	"sort"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// maxHazardRatio caps the reported ratio when the control arm has no
// improvement events at all.
const maxHazardRatio = 100.0

// followUp is one subject's time-to-improvement observation. Time is
// measured in submissions after the matched event; Observed is false
// when the subject was censored before improving.
type followUp struct {
	Time     int
	Observed bool
}

// estimateSurvival computes when improvement happens for a matched
// cohort: Kaplan-Meier curves per arm, the treated median
// time-to-improvement, and a cumulative-hazard ratio.
func estimateSurvival(cfg *contract.Config, data *schema.Dataset, cohort *schema.Cohort) (*schema.SurvivalEffect, string) {
	treated := followUps(cfg, data, cohort.Treated)
	control := followUps(cfg, data, cohort.Control)

	if len(treated) < cfg.MinTreatedSamples || len(control) < cfg.MinTreatedSamples {
		return nil, schema.SkipInsufficientSample
	}

	treatedCurve := kaplanMeier(treated)
	controlCurve := kaplanMeier(control)

	median, censored := medianCrossing(treatedCurve, cfg.SurvivalHorizon)

	return &schema.SurvivalEffect{
		ItemID:              cohort.ItemID,
		MedianTimeToImprove: median,
		HazardRatio:         hazardRatio(treatedCurve, controlCurve, treated, control),
		HorizonCensored:     censored,
		TreatedCurve:        treatedCurve,
		ControlCurve:        controlCurve,
		NTreated:            len(treated),
		NControl:            len(control),
	}, ""
}

// followUps scans forward from each observation until the user's rating
// clears the improvement threshold, the horizon passes, or the history
// ends. The last two are censoring, not failures.
func followUps(cfg *contract.Config, data *schema.Dataset, obs []schema.Observation) []followUp {
	out := make([]followUp, 0, len(obs))
	for _, o := range obs {
		hist := data.Histories[o.UserID]
		target := o.Event.RatingBefore + cfg.ImprovementDelta
		limit := min(o.Index+cfg.SurvivalHorizon, len(hist)-1)

		fu := followUp{Time: limit - o.Index}
		for j := o.Index + 1; j <= limit; j++ {
			if hist[j].RatingBefore >= target {
				fu = followUp{Time: j - o.Index, Observed: true}
				break
			}
		}
		if fu.Time > 0 {
			out = append(out, fu)
		}
	}
	return out
}

// kaplanMeier builds the product-limit survival curve for one arm. At
// each distinct event time the survival probability is multiplied by
// (1 - deaths/atRisk), so the curve is non-increasing by construction.
func kaplanMeier(subjects []followUp) []schema.SurvivalPoint {
	deaths := make(map[int]int)
	times := make([]int, 0)
	for _, s := range subjects {
		if !s.Observed {
			continue
		}
		if deaths[s.Time] == 0 {
			times = append(times, s.Time)
		}
		deaths[s.Time]++
	}
	sort.Ints(times)

	curve := make([]schema.SurvivalPoint, 0, len(times)+1)
	curve = append(curve, schema.SurvivalPoint{Time: 0, Survival: 1})

	survival := 1.0
	for _, t := range times {
		atRisk := 0
		for _, s := range subjects {
			if s.Time >= t {
				atRisk++
			}
		}
		if atRisk == 0 {
			break
		}
		survival *= 1 - float64(deaths[t])/float64(atRisk)
		curve = append(curve, schema.SurvivalPoint{Time: t, Survival: survival})
	}
	return curve
}

// medianCrossing returns the earliest time the curve reaches survival
// 0.5. When the curve never crosses within the horizon, the horizon
// itself is reported as a right-censored estimate.
func medianCrossing(curve []schema.SurvivalPoint, horizon int) (int, bool) {
	for _, p := range curve {
		if p.Survival <= 0.5 {
			return p.Time, false
		}
	}
	return horizon, true
}

// hazardRatio approximates the treated/control instantaneous
// improvement rate via the ratio of cumulative hazards -ln(S) at the
// median follow-up time across both arms. Values above 1 mean faster
// improvement under treatment. When either cumulative hazard is zero
// the ratio degenerates, so the crude event-rate ratio is used instead.
func hazardRatio(treatedCurve, controlCurve []schema.SurvivalPoint, treated, control []followUp) float64 {
	tau := medianFollowUpTime(treated, control)

	ht := -math.Log(survivalAt(treatedCurve, tau))
	hc := -math.Log(survivalAt(controlCurve, tau))
	if ht > 0 && hc > 0 {
		return ht / hc
	}

	tr := eventRate(treated)
	cr := eventRate(control)
	switch {
	case tr == 0 && cr == 0:
		return 1
	case cr == 0:
		// A control arm with no improvement events cannot support a
		// finite ratio. Reporting the cap keeps a strictly faster
		// treated arm distinguishable from no difference.
		return maxHazardRatio
	}
	return tr / cr
}

// survivalAt evaluates the step curve at time t.
func survivalAt(curve []schema.SurvivalPoint, t int) float64 {
	s := 1.0
	for _, p := range curve {
		if p.Time > t {
			break
		}
		s = p.Survival
	}
	return s
}

// medianFollowUpTime returns the median of all follow-up times across
// both arms, observed and censored alike.
func medianFollowUpTime(treated, control []followUp) int {
	all := make([]int, 0, len(treated)+len(control))
	for _, s := range treated {
		all = append(all, s.Time)
	}
	for _, s := range control {
		all = append(all, s.Time)
	}
	sort.Ints(all)
	return all[len(all)/2]
}

// eventRate returns the share of subjects with an observed improvement.
func eventRate(subjects []followUp) float64 {
	if len(subjects) == 0 {
		return 0
	}
	n := 0
	for _, s := range subjects {
		if s.Observed {
			n++
		}
	}
	return float64(n) / float64(len(subjects))
}
