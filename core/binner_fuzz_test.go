package core

import (
	"math"
	"testing"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// FuzzBucketFor fuzzes the bucket function with arbitrary confounder
// values and checks totality and determinism.
func FuzzBucketFor(f *testing.F) {
	seeds := []struct {
		rating, accuracy, difficulty float64
	}{
		{1500, 0.5, 1200},
		{800, 0, 0},
		{4000, 1, 3500},
		{-100, -0.5, -1},
		{math.NaN(), 0.5, 1200},
		{1500, math.Inf(1), 1200},
		{1e308, 1e-308, -1e308},
	}
	for _, seed := range seeds {
		f.Add(seed.rating, seed.accuracy, seed.difficulty)
	}

	cfg := testConfig()
	f.Fuzz(func(t *testing.T, rating, accuracy, difficulty float64) {
		snap := schema.UserSnapshot{
			RatingBefore:         rating,
			RollingAccuracy:      accuracy,
			RollingAvgDifficulty: difficulty,
		}
		key := BucketFor(snap, cfg)
		if key != BucketFor(snap, cfg) {
			t.Fatal("bucket key must be deterministic")
		}

		finite := !math.IsNaN(rating) && !math.IsInf(rating, 0) &&
			!math.IsNaN(accuracy) && !math.IsInf(accuracy, 0) &&
			!math.IsNaN(difficulty) && !math.IsInf(difficulty, 0)
		if key.Missing == finite {
			t.Fatalf("sentinel bucket mismatch for (%g, %g, %g)", rating, accuracy, difficulty)
		}
	})
}
