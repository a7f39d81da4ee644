package core

import (
	"fmt"
	"sort"
	"sync"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// maxExamplesPerItem caps the success stories exported per item.
const maxExamplesPerItem = 5

// runContext is the immutable state shared by all item workers:
// validated config, loaded dataset, and the match universes. It is
// constructed once per run and never mutated afterwards, so workers
// need no locking.
type runContext struct {
	cfg      *contract.Config
	data     *schema.Dataset
	universe *matchUniverse

	// narrowUniverse is built lazily the first time a balance check
	// fails, with halved bin widths shared by every re-binned item.
	narrowOnce     sync.Once
	narrowUniverse *matchUniverse
}

// newRunContext builds the shared state for one estimation run.
func newRunContext(cfg *contract.Config, data *schema.Dataset) *runContext {
	return &runContext{
		cfg:      cfg,
		data:     data,
		universe: newMatchUniverse(cfg, data),
	}
}

// narrowed returns the half-width match universe, building it on first use.
func (rc *runContext) narrowed() (*matchUniverse, *contract.Config) {
	rc.narrowOnce.Do(func() {
		narrowCfg := rc.cfg.CloneWithBinWidths(
			rc.cfg.RatingBinWidth/2,
			rc.cfg.AccuracyBinWidth/2,
			rc.cfg.DifficultyBinWidth/2,
		)
		rc.narrowUniverse = newMatchUniverse(narrowCfg, rc.data)
	})
	return rc.narrowUniverse, rc.narrowUniverse.cfg
}

// itemResult is everything one worker produces for one item. Every
// field is owned exclusively by the worker that wrote it.
type itemResult struct {
	ItemID     string
	Candidate  *attCandidate
	Survival   *schema.SurvivalEffect
	Examples   []schema.CohortExample
	Reports    []schema.ValidationReport
	SkipReason string
}

// RunEstimation executes the full cohort-to-effect pipeline for every
// item in the dataset. Per-item matching and estimation are independent,
// so items fan out across cfg.Workers goroutines; results are collected
// and sorted by item id so worker completion order never changes the
// output bytes.
func RunEstimation(cfg *contract.Config, data *schema.Dataset) *schema.RunOutput {
	rc := newRunContext(cfg, data)
	items := rc.universe.items()

	itemCh := make(chan string, len(items))
	resultCh := make(chan itemResult, len(items))
	var wg sync.WaitGroup

	// Start worker pool
	for range cfg.Workers {
		wg.Go(func() {
			for itemID := range itemCh {
				resultCh <- analyzeItem(rc, itemID)
			}
		})
	}

	// Send items to worker channel
	for _, itemID := range items {
		itemCh <- itemID
	}
	close(itemCh)

	wg.Wait()
	close(resultCh)

	results := make([]itemResult, 0, len(items))
	for r := range resultCh {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ItemID < results[j].ItemID })

	return assembleOutput(rc, results)
}

// analyzeItem runs matching, diagnostics, and both estimators for a
// single item. Any failure here is a per-item skip, never a batch abort.
func analyzeItem(rc *runContext, itemID string) itemResult {
	result := itemResult{ItemID: itemID}
	cfg := rc.cfg

	// --- 1. Coarsened exact matching ---
	cohort, skip := rc.universe.matchItem(itemID)
	if skip != "" {
		result.SkipReason = skip
		return result
	}

	// --- 2. Balance diagnostic, with one re-bin on failure ---
	balance := balanceCheck(cohort)
	if !balance.Passed {
		narrowUniverse, narrowCfg := rc.narrowed()
		if rebinned, rebinSkip := narrowUniverse.matchItem(itemID); rebinSkip == "" {
			cohort = rebinned
			cfg = narrowCfg
			// The verdict must describe the cohort the estimators see,
			// so the check runs again in full on the re-binned cohort.
			balance = balanceCheck(cohort)
			balance.Detail += "; re-binned with halved widths"
		} else {
			balance.Detail += fmt.Sprintf("; re-bin skipped: %s", rebinSkip)
		}
	}
	result.Reports = append(result.Reports, balance)

	// --- 3. Pre-trend diagnostic ---
	result.Reports = append(result.Reports, preTrendCheck(cfg, rc.data, cohort))

	// --- 4. ATT estimation ---
	candidate, skip := estimateATT(cfg, rc.data, cohort)
	if skip != "" {
		result.SkipReason = skip
		return result
	}
	result.Candidate = candidate
	result.Examples = cohortExamples(cfg, rc.data, cohort)

	// --- 5. Survival estimation ---
	survival, skip := estimateSurvival(cfg, rc.data, cohort)
	if skip == "" {
		result.Survival = survival
	}

	return result
}

// assembleOutput applies the run-level filters and folds worker results
// into the final artifact tables.
func assembleOutput(rc *runContext, results []itemResult) *schema.RunOutput {
	cfg := rc.cfg
	output := &schema.RunOutput{RunID: cfg.RunID}

	// Bonferroni correction: the target significance level is divided
	// by the number of items that actually reached a test this run.
	for _, r := range results {
		if r.Candidate != nil {
			output.ItemsTested++
		}
	}
	correctedAlpha := cfg.PValueThreshold / float64(max(1, output.ItemsTested))

	for _, r := range results {
		output.Reports = append(output.Reports, r.Reports...)

		skip := r.SkipReason
		if skip == "" && r.Candidate != nil {
			skip = filterCandidate(cfg, r.Candidate, correctedAlpha)
		}
		if skip != "" {
			output.ItemsSkipped++
			output.Reports = append(output.Reports, schema.ValidationReport{
				CheckName: schema.SkipCheck,
				ItemID:    r.ItemID,
				Passed:    false,
				Detail:    skip,
			})
			continue
		}

		output.Effects = append(output.Effects, r.Candidate.Effect)
		output.Examples = append(output.Examples, r.Examples...)
		if r.Survival != nil {
			output.SurvivalEffects = append(output.SurvivalEffects, *r.Survival)
		}
	}

	output.Reports = append(output.Reports, placeboCheck(cfg, rc.data, rc.universe))
	output.Reports = append(output.Reports, missingConfounderReport(rc.universe))

	return output
}

// cohortExamples picks the treated observations with the largest
// positive gains as concrete success stories for the item.
func cohortExamples(cfg *contract.Config, data *schema.Dataset, cohort *schema.Cohort) []schema.CohortExample {
	examples := make([]schema.CohortExample, 0, len(cohort.Treated))
	for _, o := range cohort.Treated {
		future, ok := data.FutureRating(o.UserID, o.Index, cfg.OutcomeWindow)
		if !ok || future <= o.Event.RatingBefore {
			continue
		}
		examples = append(examples, schema.CohortExample{
			ItemID:       cohort.ItemID,
			UserID:       o.UserID,
			RatingBefore: o.Event.RatingBefore,
			RatingAfter:  future,
			RatingGain:   future - o.Event.RatingBefore,
		})
	}

	sort.Slice(examples, func(i, j int) bool {
		if examples[i].RatingGain != examples[j].RatingGain {
			return examples[i].RatingGain > examples[j].RatingGain
		}
		return examples[i].UserID < examples[j].UserID
	})
	if len(examples) > maxExamplesPerItem {
		examples = examples[:maxExamplesPerItem]
	}
	return examples
}
