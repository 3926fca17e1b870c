package analysis

import (
	"fmt"
	"math"
	"strconv"
)

// pctLabel renders a fraction as a percentage rounded to 4 decimals, 0.95 -> "95".
func pctLabel(x float64) string {
	return strconv.FormatFloat(math.Round(x*100*1e4)/1e4, 'f', -1, 64)
}

// ordinal turns 5 into "5th", 1 into "1st" and so on.
func ordinal(x float64) string {
	label := pctLabel(x)
	n, err := strconv.Atoi(label)
	if err != nil {
		return label + "th"
	}
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return label + "th"
	case n%10 == 1:
		return label + "st"
	case n%10 == 2:
		return label + "nd"
	case n%10 == 3:
		return label + "rd"
	default:
		return label + "th"
	}
}

// ComputeVarStat evaluates one named statistic over vals.
func ComputeVarStat(vals []float64, kind string, params StatParams) (VarStat, error) {
	vs := VarStat{Kind: kind, Params: params}
	if len(vals) == 0 {
		return vs, ErrEmptySample
	}

	switch kind {
	case StatMean:
		vs.Name = "Mean"
		m, err := Mean(vals)
		if err != nil {
			return vs, err
		}
		vs.Vals = []float64{m}
	case StatMedian:
		vs.Name = "Median"
		vs.Vals = []float64{percentileSorted(sortedCopy(vals), 0.5)}
	case StatStd:
		vs.Name = "Std Dev"
		s, err := Summarize(vals)
		if err != nil {
			return vs, err
		}
		vs.Vals = []float64{s.StdDev}
	case StatPercentile:
		vs.Name = fmt.Sprintf("%s Percentile", ordinal(params.P))
		v, err := Percentile(vals, params.P)
		if err != nil {
			return vs, err
		}
		vs.Vals = []float64{v}
	case StatOrderStatTI:
		vs.Name = fmt.Sprintf("%s P%s/%s%% Tolerance Interval", params.Bound, pctLabel(params.P), pctLabel(params.C))
		iv, err := OrderStatTI(vals, params.P, params.C, params.Bound)
		if err != nil {
			return vs, err
		}
		vs.Vals = iv
	case StatOrderStatP:
		vs.Name = fmt.Sprintf("%s P%s/%s%% Confidence Interval", params.Bound, pctLabel(params.P), pctLabel(params.C))
		iv, err := OrderStatP(vals, params.P, params.C, params.Bound)
		if err != nil {
			return vs, err
		}
		vs.Vals = iv
	default:
		return vs, fmt.Errorf("unknown stat kind: %s", kind)
	}
	return vs, nil
}
