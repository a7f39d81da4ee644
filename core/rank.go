package core

import (
	"sort"
	"sync"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// RankEffects sorts effects by ATT in descending order and returns the
// top 'limit' entries. If limit exceeds the number of effects, all
// effects are returned in sorted order.
func RankEffects(effects []schema.CausalEffect, limit int) []schema.CausalEffect {
	ranked := make([]schema.CausalEffect, len(effects))
	copy(ranked, effects)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ATTScore != ranked[j].ATTScore {
			return ranked[i].ATTScore > ranked[j].ATTScore
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})
	if len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}

// RunValidation runs the diagnostic suite on its own: balance and
// pre-trend for every matchable item, plus the run-level placebo and
// sentinel-bucket checks. Items fan out across workers the same way
// estimation does.
func RunValidation(cfg *contract.Config, data *schema.Dataset) []schema.ValidationReport {
	rc := newRunContext(cfg, data)
	items := rc.universe.items()

	itemCh := make(chan string, len(items))
	reportCh := make(chan []schema.ValidationReport, len(items))
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Go(func() {
			for itemID := range itemCh {
				cohort, skip := rc.universe.matchItem(itemID)
				if skip != "" {
					continue
				}
				reportCh <- []schema.ValidationReport{
					balanceCheck(cohort),
					preTrendCheck(cfg, rc.data, cohort),
				}
			}
		})
	}

	for _, itemID := range items {
		itemCh <- itemID
	}
	close(itemCh)

	wg.Wait()
	close(reportCh)

	var reports []schema.ValidationReport
	for batch := range reportCh {
		reports = append(reports, batch...)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].ItemID != reports[j].ItemID {
			return reports[i].ItemID < reports[j].ItemID
		}
		return reports[i].CheckName < reports[j].CheckName
	})

	reports = append(reports, placeboCheck(cfg, data, rc.universe))
	reports = append(reports, missingConfounderReport(rc.universe))
	return reports
}
