package coord

import (
	"math"

	"github.com/san-kum/veil/internal/vec"
)

// Calibrator records the extent of the coordinates a source actually
// produces, so its output can later be mapped onto a surface.
type Calibrator struct {
	minX, minY float64
	maxX, maxY float64
	samples    int
}

func NewCalibrator() *Calibrator {
	c := &Calibrator{}
	c.Reset()
	return c
}

// Reset discards all observations.
func (c *Calibrator) Reset() {
	c.minX, c.minY = math.Inf(1), math.Inf(1)
	c.maxX, c.maxY = math.Inf(-1), math.Inf(-1)
	c.samples = 0
}

// Observe widens the recorded extent to include p. Non-finite samples are ignored.
func (c *Calibrator) Observe(p vec.Vec2) {
	if !p.IsValid() {
		return
	}
	c.minX = math.Min(c.minX, p.X)
	c.minY = math.Min(c.minY, p.Y)
	c.maxX = math.Max(c.maxX, p.X)
	c.maxY = math.Max(c.maxY, p.Y)
	c.samples++
}

func (c *Calibrator) Samples() int { return c.samples }

// Bounds returns the observed extent. ok is false until the extent is
// non-degenerate on both axes.
func (c *Calibrator) Bounds() (b Bounds, ok bool) {
	if c.samples == 0 || c.maxX <= c.minX || c.maxY <= c.minY {
		return Bounds{}, false
	}
	return Bounds{X: Range{c.minX, c.maxX}, Y: Range{c.minY, c.maxY}}, true
}
