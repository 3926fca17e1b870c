package sampling

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidParams is returned when distribution parameters are out of range.
var ErrInvalidParams = errors.New("invalid distribution parameters")

// Triangular is a triangular distribution parameterized by shape, location and scale:
// support [loc, loc+scale] with its mode at loc + c*scale.
type Triangular struct {
	C     float64
	Loc   float64
	Scale float64

	dist distuv.Triangle
}

// NewTriangular validates the shape/location/scale triple and builds the distribution.
func NewTriangular(c, loc, scale float64) (*Triangular, error) {
	if c < 0 || c > 1 {
		return nil, fmt.Errorf("%w: triang c=%v must be within [0, 1]", ErrInvalidParams, c)
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: triang scale=%v must be positive", ErrInvalidParams, scale)
	}
	lower, upper := loc, loc+scale
	mode := loc + c*scale
	return &Triangular{
		C:     c,
		Loc:   loc,
		Scale: scale,
		// Quantile never touches the source, sampling goes through InVar.Draw.
		dist: distuv.NewTriangle(lower, upper, mode, nil),
	}, nil
}

func (t *Triangular) Kind() string { return DistTriangular }

func (t *Triangular) Params() map[string]float64 {
	return map[string]float64{"c": t.C, "loc": t.Loc, "scale": t.Scale}
}

func (t *Triangular) Quantile(p float64) float64 { return t.dist.Quantile(p) }
func (t *Triangular) Mean() float64              { return t.dist.Mean() }
func (t *Triangular) Median() float64            { return t.dist.Quantile(0.5) }

// NewDistribution rebuilds a distribution from the kind and parameters reported by
// Distribution.Kind and Distribution.Params.
func NewDistribution(kind string, params map[string]float64) (Distribution, error) {
	switch kind {
	case DistTriangular:
		c, okC := params["c"]
		loc, okLoc := params["loc"]
		scale, okScale := params["scale"]
		if !okC || !okLoc || !okScale {
			return nil, fmt.Errorf("%w: triang needs c, loc and scale, got %v", ErrInvalidParams, params)
		}
		return NewTriangular(c, loc, scale)
	default:
		return nil, fmt.Errorf("unknown distribution kind: %s", kind)
	}
}
