// Package coord maps coordinates between linear domains.
//
// [Range.Lerp] is the unchecked mapping used when serializing positions for
// the renderer, where off-surface values are legitimate. [Map] is the checked
// variant for external input: a value outside the source domain is reported
// as an error and must not be applied.
package coord

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/veil/internal/vec"
)

var (
	// ErrOutOfRange indicates a value outside the declared source domain.
	ErrOutOfRange = errors.New("coord: value outside source range")

	// ErrEmptyRange indicates a source range with Min == Max.
	ErrEmptyRange = errors.New("coord: empty source range")

	// ErrNotFinite indicates a NaN or infinite input.
	ErrNotFinite = errors.New("coord: value is not finite")
)

// Range is a closed interval. Max may be below Min for inverted axes.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) Span() float64 { return r.Max - r.Min }

// Contains reports whether v lies inside r, in either orientation.
func (r Range) Contains(v float64) bool {
	lo, hi := math.Min(r.Min, r.Max), math.Max(r.Min, r.Max)
	return v >= lo && v <= hi
}

// Clamp limits v to r.
func (r Range) Clamp(v float64) float64 {
	lo, hi := math.Min(r.Min, r.Max), math.Max(r.Min, r.Max)
	return math.Max(lo, math.Min(hi, v))
}

// Lerp maps v from r onto to without any range checking.
func (r Range) Lerp(v float64, to Range) float64 {
	return (v-r.Min)/(r.Max-r.Min)*(to.Max-to.Min) + to.Min
}

// Map maps v from the from domain onto to. It fails when v is not finite,
// when from is empty, or when v falls outside from.
func Map(v float64, from, to Range) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNotFinite
	}
	if from.Span() == 0 {
		return 0, ErrEmptyRange
	}
	if !from.Contains(v) {
		return 0, fmt.Errorf("%w: %g not in [%g, %g]", ErrOutOfRange, v, from.Min, from.Max)
	}
	return from.Lerp(v, to), nil
}

// Bounds is an axis-aligned 2-D domain.
type Bounds struct {
	X Range `yaml:"x" json:"x"`
	Y Range `yaml:"y" json:"y"`
}

// Surface returns the pixel domain of a w×h surface.
func Surface(w, h float64) Bounds {
	return Bounds{X: Range{0, w}, Y: Range{0, h}}
}

// MapPoint maps p from b onto to with [Map] on each axis.
func (b Bounds) MapPoint(p vec.Vec2, to Bounds) (vec.Vec2, error) {
	x, err := Map(p.X, b.X, to.X)
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("x: %w", err)
	}
	y, err := Map(p.Y, b.Y, to.Y)
	if err != nil {
		return vec.Vec2{}, fmt.Errorf("y: %w", err)
	}
	return vec.New(x, y), nil
}

func (b Bounds) Contains(p vec.Vec2) bool {
	return b.X.Contains(p.X) && b.Y.Contains(p.Y)
}
