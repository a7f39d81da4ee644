package core

import (
	"math"

	"github.com/RohanTewariIIITS/hack-the-winter-swastik/internal/contract"
	"github.com/RohanTewariIIITS/hack-the-winter-swastik/schema"
)

// BucketFor discretizes a confounder snapshot into a coarsened bucket
// key. The function is pure and total: every finite input maps to
// exactly one numeric key, and any NaN or infinite confounder maps to
// the sentinel bucket so it can never be matched against valid data.
func BucketFor(snap schema.UserSnapshot, cfg *contract.Config) schema.BucketKey {
	values := []float64{snap.RatingBefore, snap.RollingAccuracy, snap.RollingAvgDifficulty}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return schema.BucketKey{Missing: true}
		}
	}
	return schema.BucketKey{
		Rating:     binValue(snap.RatingBefore, cfg.RatingBinWidth),
		Accuracy:   binValue(snap.RollingAccuracy, cfg.AccuracyBinWidth),
		Difficulty: binValue(snap.RollingAvgDifficulty, cfg.DifficultyBinWidth),
	}
}

// binValue maps a finite value onto its bin ordinal via round-to-nearest,
// so a bin of width w is centered on multiples of w. Ordinals saturate
// at the int32 range: out-of-range float conversions are
// implementation-defined in Go, and the key must be identical across
// platforms.
func binValue(v, width float64) int32 {
	r := math.Round(v / width)
	if r >= math.MaxInt32 {
		return math.MaxInt32
	}
	if r <= math.MinInt32 {
		return math.MinInt32
	}
	return int32(r)
}
