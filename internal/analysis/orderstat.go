package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

func checkOrderStatArgs(n int, p, c float64, bound string) error {
	if n == 0 {
		return ErrEmptySample
	}
	if !(p > 0 && p < 1) {
		return fmt.Errorf("order statistic p=%v must be within (0, 1)", p)
	}
	if !(c > 0 && c < 1) {
		return fmt.Errorf("order statistic c=%v must be within (0, 1)", c)
	}
	switch bound {
	case Bound2Sided, Bound1SidedUpper, Bound1SidedLower:
		return nil
	default:
		return fmt.Errorf("unknown bound %q", bound)
	}
}

// OrderStatTIK returns the order statistic index k such that the interval built from the
// k-th smallest and k-th largest of n samples (or just one of them for a 1-sided bound)
// covers at least a fraction p of the population with confidence c. The largest such k is
// returned, giving the tightest interval.
func OrderStatTIK(n int, p, c float64, bound string) (int, error) {
	if err := checkOrderStatArgs(n, p, c, bound); err != nil {
		return 0, err
	}
	binom := distuv.Binomial{N: float64(n), P: p}

	// Coverage of [x(k), x(n-k+1)] is Beta(n-2k+1, 2k) distributed, so
	// P(coverage >= p) = P(Binom(n, p) <= n-2k). One-sided bounds drop one tail.
	tails := 2
	if bound != Bound2Sided {
		tails = 1
	}
	k := 0
	for cand := 1; tails*cand <= n; cand++ {
		if binom.CDF(float64(n-tails*cand)) < c {
			break
		}
		k = cand
	}
	if k == 0 {
		return 0, fmt.Errorf("tolerance interval p=%v c=%v with n=%d: %w", p, c, n, ErrTooFewPoints)
	}
	return k, nil
}

// OrderStatTI computes a distribution-free tolerance interval from the sorted sample.
// A 2-sided bound returns [low, high]; a 1-sided bound returns the single limit.
func OrderStatTI(vals []float64, p, c float64, bound string) ([]float64, error) {
	k, err := OrderStatTIK(len(vals), p, c, bound)
	if err != nil {
		return nil, err
	}
	sorted := sortedCopy(vals)
	n := len(sorted)

	switch bound {
	case Bound2Sided:
		return []float64{sorted[k-1], sorted[n-k]}, nil
	case Bound1SidedUpper:
		return []float64{sorted[n-k]}, nil
	default:
		return []float64{sorted[k-1]}, nil
	}
}

// OrderStatPBounds returns the 1-based order statistic ranks (l, u) bracketing the
// population p-quantile with confidence c. For 1-sided bounds the unused rank is 0.
func OrderStatPBounds(n int, p, c float64, bound string) (int, int, error) {
	if err := checkOrderStatArgs(n, p, c, bound); err != nil {
		return 0, 0, err
	}
	binom := distuv.Binomial{N: float64(n), P: p}
	tooFew := fmt.Errorf("percentile interval p=%v c=%v with n=%d: %w", p, c, n, ErrTooFewPoints)

	// x(l) <= xi_p < x(u) holds exactly when l <= B <= u-1 with B ~ Binom(n, p).
	switch bound {
	case Bound1SidedUpper:
		for u := 1; u <= n; u++ {
			if binom.CDF(float64(u-1)) >= c {
				return 0, u, nil
			}
		}
		return 0, 0, tooFew
	case Bound1SidedLower:
		for l := n; l >= 1; l-- {
			if 1-binom.CDF(float64(l-1)) >= c {
				return l, 0, nil
			}
		}
		return 0, 0, tooFew
	}

	m := int(math.Round(float64(n) * p))
	for k := 1; k <= n; k++ {
		l := max(1, m-k+1)
		u := min(n, m+k)
		if binom.CDF(float64(u-1))-binom.CDF(float64(l-1)) >= c {
			return l, u, nil
		}
		if l == 1 && u == n {
			break
		}
	}
	return 0, 0, tooFew
}

// OrderStatP computes a distribution-free confidence interval on the p-th percentile.
// With p=0.5 and a 2-sided bound this is the confidence interval of the median.
func OrderStatP(vals []float64, p, c float64, bound string) ([]float64, error) {
	l, u, err := OrderStatPBounds(len(vals), p, c, bound)
	if err != nil {
		return nil, err
	}
	sorted := sortedCopy(vals)

	switch bound {
	case Bound2Sided:
		return []float64{sorted[l-1], sorted[u-1]}, nil
	case Bound1SidedUpper:
		return []float64{sorted[u-1]}, nil
	default:
		return []float64{sorted[l-1]}, nil
	}
}
