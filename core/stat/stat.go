// Package stat has the numerical routines behind the causal estimators:
// two-sample Welch testing, effect sizes, and distribution helpers.
// The corpus carries no numerics library, so the Student-t tail is
// computed here via the regularized incomplete beta function.
package stat

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the unbiased sample variance of values. Fewer than
// two observations carry no spread information, so the result is 0.
func Variance(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(n-1)
}

// WelchResult holds the outcome of an unequal-variance two-sample test.
type WelchResult struct {
	T       float64 // Test statistic
	DF      float64 // Welch-Satterthwaite degrees of freedom
	PValue  float64 // Two-sided p-value
	MeanA   float64
	MeanB   float64
	Shift   float64 // MeanA - MeanB
}

// WelchTest runs Welch's t-test on two samples and reports a two-sided
// p-value. Degenerate inputs (tiny samples or zero variance in both
// arms with equal means) yield PValue 1, which downstream filters treat
// as non-significant rather than an error.
func WelchTest(a, b []float64) WelchResult {
	res := WelchResult{
		MeanA: Mean(a),
		MeanB: Mean(b),
	}
	res.Shift = res.MeanA - res.MeanB
	res.PValue = 1

	na, nb := float64(len(a)), float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return res
	}

	va, vb := Variance(a), Variance(b)
	se2 := va/na + vb/nb
	if se2 <= 0 {
		// Both arms constant. Identical means are trivially
		// non-significant; distinct means are trivially significant.
		if res.Shift != 0 {
			res.T = math.Inf(sign(res.Shift))
			res.PValue = 0
		}
		return res
	}

	res.T = res.Shift / math.Sqrt(se2)

	// Welch-Satterthwaite approximation for the degrees of freedom.
	num := se2 * se2
	den := (va*va)/(na*na*(na-1)) + (vb*vb)/(nb*nb*(nb-1))
	res.DF = num / den

	res.PValue = StudentTPValue(res.T, res.DF)
	return res
}

// StudentTPValue returns the two-sided p-value for a t statistic with
// df degrees of freedom: P(|T| >= |t|) = I_x(df/2, 1/2) where
// x = df / (df + t^2).
func StudentTPValue(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return 1
	}
	if math.IsInf(t, 0) {
		return 0
	}
	x := df / (df + t*t)
	p := RegularizedIncompleteBeta(df/2, 0.5, x)
	// Clamp against accumulated round-off in the continued fraction.
	return math.Min(1, math.Max(0, p))
}

// CohenD returns the standardized effect size between two samples using
// the pooled standard deviation. A zero pooled deviation yields 0.
func CohenD(a, b []float64) float64 {
	na, nb := float64(len(a)), float64(len(b))
	if na < 2 || nb < 2 {
		return 0
	}
	pooled := ((na-1)*Variance(a) + (nb-1)*Variance(b)) / (na + nb - 2)
	if pooled <= 0 {
		return 0
	}
	return (Mean(a) - Mean(b)) / math.Sqrt(pooled)
}

// StandardizedMeanDiff returns the balance diagnostic for one
// confounder: the difference of arm means divided by the pooled
// standard deviation. Zero spread in both arms means the samples are
// identical on this axis, so the difference is 0.
func StandardizedMeanDiff(a, b []float64) float64 {
	va, vb := Variance(a), Variance(b)
	pooled := math.Sqrt((va + vb) / 2)
	if pooled == 0 {
		return 0
	}
	return (Mean(a) - Mean(b)) / pooled
}

// RegularizedIncompleteBeta computes I_x(a, b) using the continued
// fraction expansion (Lentz's method). Accurate to roughly 1e-12 for
// the (a, b) ranges produced by t-tests.
func RegularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	front := math.Exp(lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x))

	// The continued fraction converges fastest for x < (a+1)/(a+b+2);
	// otherwise use the symmetry I_x(a,b) = 1 - I_{1-x}(b,a).
	if x >= (a+1)/(a+b+2) {
		return 1 - RegularizedIncompleteBeta(b, a, 1-x)
	}

	const (
		maxIterations = 200
		epsilon       = 1e-14
		tiny          = 1e-30
	)

	c := 1.0
	d := 1 - (a+b)*x/(a+1)
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	result := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)

		// Even step.
		numerator := fm * (b - fm) * x / ((a + 2*fm - 1) * (a + 2*fm))
		d = 1 + numerator*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		d = 1 / d
		c = 1 + numerator/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		result *= d * c

		// Odd step.
		numerator = -(a + fm) * (a + b + fm) * x / ((a + 2*fm) * (a + 2*fm + 1))
		d = 1 + numerator*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		d = 1 / d
		c = 1 + numerator/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		delta := d * c
		result *= delta

		if math.Abs(delta-1) < epsilon {
			break
		}
	}

	return front * result / a
}

// sign maps a float's sign onto the convention used by math.Inf.
func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
