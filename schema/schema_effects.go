package schema

// CausalEffect is the estimated average treatment effect on the treated
// for one item. Produced once per item per run; a re-run supersedes the
// record rather than mutating it.
type CausalEffect struct {
	ItemID            string
	ATTScore          float64 // Mean treated gain minus mean control gain, rating points
	PValue            float64 // Two-sided Welch p-value
	EffectSize        float64 // Cohen's d against the pooled standard deviation
	ProbabilityUplift float64 // Treated minus control probability of any positive gain
	NTreated          int
	NControl          int
	OutcomeWindow     int // Submissions between treatment and outcome measurement
}

// SurvivalPoint is one step of a Kaplan-Meier curve: the survival
// probability immediately after the events at Time.
type SurvivalPoint struct {
	Time     int // Submissions since the matched event
	Survival float64
}

// SurvivalEffect captures when improvement happens for one item's
// matched cohort, not just whether it happens.
type SurvivalEffect struct {
	ItemID              string
	MedianTimeToImprove int     // Submissions until the treated curve crosses 0.5
	HazardRatio         float64 // Treated vs control cumulative hazard at median follow-up
	HorizonCensored     bool    // True when no 0.5 crossing occurred within the horizon
	TreatedCurve        []SurvivalPoint
	ControlCurve        []SurvivalPoint
	NTreated            int
	NControl            int
}

// ValidationReport is one advisory diagnostic outcome. It never blocks
// the pipeline; downstream consumers decide whether to exclude flagged
// effects.
type ValidationReport struct {
	CheckName string
	ItemID    string // Empty for run-level checks
	Passed    bool
	Statistic float64
	Detail    string
}

// CohortExample is a treated observation with a large positive gain,
// exported so a UI can show concrete success stories per item.
type CohortExample struct {
	ItemID       string
	UserID       string
	RatingBefore float64
	RatingAfter  float64
	RatingGain   float64
}

// RunOutput bundles every artifact produced by one estimation run.
// All slices are sorted by item id so identical inputs and seed yield
// byte-identical outputs regardless of worker scheduling.
type RunOutput struct {
	RunID           string
	Effects         []CausalEffect
	SurvivalEffects []SurvivalEffect
	Reports         []ValidationReport
	Examples        []CohortExample
	ItemsTested     int // Items that reached the significance test, for Bonferroni
	ItemsSkipped    int
}
