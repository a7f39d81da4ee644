// Package schema has configs, models and constants for all parts of uplift.
package schema

import (
	"fmt"
	"math"
	"time"
)

// EventRecord represents one observed attempt of a practice item.
// Records are immutable once loaded; confounder fields are strictly
// backward-looking relative to Timestamp.
type EventRecord struct {
	UserID               string    // Stable user identifier
	ItemID               string    // Identifier of the attempted item
	Timestamp            time.Time // When the attempt happened
	Solved               bool      // Binary outcome of the attempt
	RatingBefore         float64   // Skill rating just before the attempt
	RollingAccuracy      float64   // Rolling solve accuracy before the attempt
	RollingAvgDifficulty float64   // Rolling average solved difficulty before the attempt
	ItemDifficulty       float64   // Difficulty of the attempted item
}

// Snapshot returns the user's confounder state at this event. All three
// fields are computed from events strictly before Timestamp by the
// feature-engineering stage, so reading them here cannot leak outcomes.
func (e *EventRecord) Snapshot() UserSnapshot {
	return UserSnapshot{
		Timestamp:            e.Timestamp,
		RatingBefore:         e.RatingBefore,
		RollingAccuracy:      e.RollingAccuracy,
		RollingAvgDifficulty: e.RollingAvgDifficulty,
	}
}

// UserSnapshot is a user's confounder state evaluated strictly before
// a given event's timestamp.
type UserSnapshot struct {
	Timestamp            time.Time
	RatingBefore         float64
	RollingAccuracy      float64
	RollingAvgDifficulty float64
}

// BucketKey is a tuple of coarsened confounder values. Two observations
// are exchangeable iff their bucket keys are equal. Missing marks the
// sentinel bucket for NaN or infinite confounders; a sentinel key never
// equals any numeric key.
type BucketKey struct {
	Rating     int32
	Accuracy   int32
	Difficulty int32
	Missing    bool
}

// String renders the key for diagnostics and cache-style lookups.
func (k BucketKey) String() string {
	if k.Missing {
		return "missing"
	}
	return fmt.Sprintf("r%d/a%d/d%d", k.Rating, k.Accuracy, k.Difficulty)
}

// Observation is a user-event pair addressed by the user's submission
// index. Index is the position of the event within the user's
// timestamp-ordered history, which doubles as the survival time axis.
type Observation struct {
	UserID string
	Index  int
	Event  EventRecord
	Key    BucketKey
}

// Cohort holds the matched treatment and control groups for one item.
// Built fresh per item and discarded after estimation.
type Cohort struct {
	ItemID  string
	Treated []Observation
	Control []Observation
}

// Dataset is the in-memory form of the feature snapshot artifact:
// per-user event histories sorted by timestamp. It is loaded once per
// run and treated as immutable by all workers.
type Dataset struct {
	Histories map[string][]EventRecord
	Items     []string // distinct item ids, sorted
}

// FutureRating returns the rating observed `window` submissions after
// the event at idx for the given user, and whether the user's history
// extends that far.
func (d *Dataset) FutureRating(userID string, idx, window int) (float64, bool) {
	hist := d.Histories[userID]
	j := idx + window
	if j >= len(hist) {
		return 0, false
	}
	return hist[j].RatingBefore, true
}

// PastRating returns the rating observed `window` submissions before
// the event at idx, used by the pre-trend diagnostic.
func (d *Dataset) PastRating(userID string, idx, window int) (float64, bool) {
	j := idx - window
	if j < 0 {
		return 0, false
	}
	return d.Histories[userID][j].RatingBefore, true
}

// AttemptedWithin reports whether the user attempted itemID anywhere in
// the submission-index range [from, from+window].
func (d *Dataset) AttemptedWithin(userID, itemID string, from, window int) bool {
	hist := d.Histories[userID]
	end := min(from+window, len(hist)-1)
	for i := from; i <= end; i++ {
		if hist[i].ItemID == itemID {
			return true
		}
	}
	return false
}

// TotalEvents returns the number of events across all users.
func (d *Dataset) TotalEvents() int {
	n := 0
	for _, hist := range d.Histories {
		n += len(hist)
	}
	return n
}

// HasFiniteConfounders reports whether all confounder fields of the
// event are finite numbers.
func (e *EventRecord) HasFiniteConfounders() bool {
	for _, v := range []float64{e.RatingBefore, e.RollingAccuracy, e.RollingAvgDifficulty} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
