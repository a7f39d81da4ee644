package core

import (
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// controlBalanceRatio caps the control pool at this multiple of the
// treated group. Larger pools add little power but slow the tests and
// skew the follow-up time distribution.
const controlBalanceRatio = 4

// matchUniverse is the per-run view of the dataset that the matcher
// operates on: eligible observations bucketed by coarsened confounder
// key. Built once, then shared read-only across item workers.
type matchUniverse struct {
	cfg  *contract.Config
	data *schema.Dataset

	observations  []schema.Observation
	byBucket      map[schema.BucketKey][]int
	treatedByItem map[string][]int

	missingConfounders int // Observations routed to the sentinel bucket
	noOutcomeWindow    int // Observations without a full future window
}

// newMatchUniverse applies the eligibility filters and computes a
// bucket key for every remaining user-event pair.
//
// Eligibility drops users with too few events and events with an
// implausible rating, both of which are account noise rather than
// practice signal. Events whose history ends before the outcome window
// closes are also dropped, since no Δrating exists for them. Missing
// confounders are NOT dropped: they land in the sentinel bucket and are
// counted for the validation suite.
func newMatchUniverse(cfg *contract.Config, data *schema.Dataset) *matchUniverse {
	u := &matchUniverse{
		cfg:           cfg,
		data:          data,
		byBucket:      make(map[schema.BucketKey][]int),
		treatedByItem: make(map[string][]int),
	}

	// Users iterate in sorted order so observation indices are stable
	// across runs.
	userIDs := make([]string, 0, len(data.Histories))
	for userID := range data.Histories {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		hist := data.Histories[userID]
		if len(hist) < cfg.MinUserEvents {
			continue
		}
		for idx := range hist {
			rec := hist[idx]
			if rec.RatingBefore < contract.MinPlausibleRating || rec.RatingBefore > contract.MaxPlausibleRating {
				continue
			}
			if _, ok := data.FutureRating(userID, idx, cfg.OutcomeWindow); !ok {
				u.noOutcomeWindow++
				continue
			}

			key := BucketFor(rec.Snapshot(), cfg)
			if key.Missing {
				u.missingConfounders++
			}

			obsIdx := len(u.observations)
			u.observations = append(u.observations, schema.Observation{
				UserID: userID,
				Index:  idx,
				Event:  rec,
				Key:    key,
			})
			u.byBucket[key] = append(u.byBucket[key], obsIdx)
			u.treatedByItem[rec.ItemID] = append(u.treatedByItem[rec.ItemID], obsIdx)
		}
	}

	return u
}

// items returns every item id with at least one eligible attempt,
// sorted for deterministic scheduling.
func (u *matchUniverse) items() []string {
	items := make([]string, 0, len(u.treatedByItem))
	for itemID := range u.treatedByItem {
		items = append(items, itemID)
	}
	sort.Strings(items)
	return items
}

// matchItem builds the treatment/control cohort for one item using
// coarsened exact matching. Matching is exact on bucket key, never
// nearest-neighbor: every matched pair can be explained by identical
// coarsened confounders.
//
// Returns a nil cohort with a skip reason when the treated group is
// below the configured minimum.
func (u *matchUniverse) matchItem(itemID string) (*schema.Cohort, string) {
	treatedIdx := u.treatedByItem[itemID]
	if len(treatedIdx) < u.cfg.MinTreatedSamples {
		return nil, schema.SkipInsufficientSample
	}

	treated := make([]schema.Observation, 0, len(treatedIdx))
	treatedBuckets := make(map[schema.BucketKey]struct{})
	for _, i := range treatedIdx {
		obs := u.observations[i]
		treated = append(treated, obs)
		treatedBuckets[obs.Key] = struct{}{}
	}

	// Control candidates: same bucket key as some treated observation,
	// and no attempt of the item anywhere in the outcome window.
	var control []schema.Observation
	for key := range treatedBuckets {
		for _, i := range u.byBucket[key] {
			obs := u.observations[i]
			if obs.Event.ItemID == itemID {
				continue
			}
			if u.data.AttemptedWithin(obs.UserID, itemID, obs.Index, u.cfg.OutcomeWindow) {
				continue
			}
			control = append(control, obs)
		}
	}

	sortObservations(treated)
	sortObservations(control)

	// Resample the control pool without replacement when it dwarfs the
	// treated group. The rng is seeded per (run seed, item) so worker
	// completion order never affects the draw.
	maxControl := controlBalanceRatio * len(treated)
	if len(control) > maxControl {
		rng := rand.New(rand.NewSource(itemSeed(u.cfg.RandomSeed, itemID)))
		rng.Shuffle(len(control), func(i, j int) {
			control[i], control[j] = control[j], control[i]
		})
		control = control[:maxControl]
		sortObservations(control)
	}

	return &schema.Cohort{
		ItemID:  itemID,
		Treated: treated,
		Control: control,
	}, ""
}

// sortObservations orders by timestamp first so resampling ties break
// toward the earliest event, then by user and index for a total order.
func sortObservations(obs []schema.Observation) {
	sort.Slice(obs, func(i, j int) bool {
		if !obs[i].Event.Timestamp.Equal(obs[j].Event.Timestamp) {
			return obs[i].Event.Timestamp.Before(obs[j].Event.Timestamp)
		}
		if obs[i].UserID != obs[j].UserID {
			return obs[i].UserID < obs[j].UserID
		}
		return obs[i].Index < obs[j].Index
	})
}

// itemSeed derives a per-item rng seed from the run seed. FNV keeps the
// derivation stable across platforms and Go versions.
func itemSeed(runSeed int64, itemID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(itemID))
	return runSeed ^ int64(h.Sum64())
}
