package sampling

import (
	"fmt"
	"math/rand/v2"
)

// MedianPct is the percentile used for the median case.
const MedianPct = 0.5

// DeriveSeeds expands the simulation seed into one independent seed per input variable.
// The i-th seed only depends on seed and i, so adding a variable at the end never changes
// the samples of the variables before it.
func DeriveSeeds(seed uint64, n int) []uint64 {
	master := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}
	return seeds
}

// Draw samples ndraws random cases for the variable. When firstCaseIsMedian is set an extra
// case is prepended at percentile 0.5, so the variable ends up with ndraws+1 values.
// Drawing again replaces the previous samples.
func (v *InVar) Draw(ndraws int, firstCaseIsMedian bool) error {
	if ndraws < 0 {
		return fmt.Errorf("invar %q: ndraws must not be negative, got %d", v.Name, ndraws)
	}
	if v.Dist == nil {
		return fmt.Errorf("invar %q: no distribution set", v.Name)
	}

	ncases := ndraws
	if firstCaseIsMedian {
		ncases++
	}
	v.Pcts = make([]float64, 0, ncases)
	v.Vals = make([]float64, 0, ncases)

	if firstCaseIsMedian {
		v.Pcts = append(v.Pcts, MedianPct)
	}
	rng := rand.New(rand.NewPCG(v.Seed, 0))
	for i := 0; i < ndraws; i++ {
		v.Pcts = append(v.Pcts, rng.Float64())
	}

	for _, p := range v.Pcts {
		v.Vals = append(v.Vals, v.Dist.Quantile(p))
	}
	return nil
}
