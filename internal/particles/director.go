package particles

import (
	"math"

	"github.com/san-kum/veil/internal/input"
)

// Director drives every system from the same pointer event each tick.
type Director struct {
	systems       []*System
	width, height float64
}

func NewDirector(width, height float64, systems ...*System) *Director {
	return &Director{systems: systems, width: width, height: height}
}

// TrimBudget is the number of trail evictions allowed for ev.
func TrimBudget(ev input.Event) int {
	if ev.Accelerated() {
		return 2
	}
	return 1
}

// Tick advances then snapshots each system in registration order.
func (d *Director) Tick(ev input.Event) []Payload {
	budget := TrimBudget(ev)
	out := make([]Payload, len(d.systems))
	for i, s := range d.systems {
		s.Advance(ev, budget)
		out[i] = s.Snapshot(d.width, d.height)
	}
	return out
}

// Snapshot serializes every system without advancing.
func (d *Director) Snapshot() []Payload {
	out := make([]Payload, len(d.systems))
	for i, s := range d.systems {
		out[i] = s.Snapshot(d.width, d.height)
	}
	return out
}

// SetSurface resizes the normalization surface. Empty or non-finite sizes,
// such as a minimized window reports, are ignored and keep the last size.
func (d *Director) SetSurface(w, h float64) bool {
	if !(w > 0 && h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return false
	}
	d.width, d.height = w, h
	return true
}

func (d *Director) Surface() (w, h float64) { return d.width, d.height }

func (d *Director) Systems() []*System { return d.systems }

func (d *Director) Reset() {
	for _, s := range d.systems {
		s.Reset()
	}
}
