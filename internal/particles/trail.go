package particles

import "github.com/san-kum/veil/internal/vec"

// MaxTrail is the trail length at which FIFO eviction starts.
const MaxTrail = 30

// Trail is a bounded FIFO of raw pointer samples, oldest first.
type Trail struct {
	points []vec.Vec2
	max    int
}

func NewTrail(max int) *Trail {
	return &Trail{points: make([]vec.Vec2, 0, max+1), max: max}
}

func (t *Trail) Push(p vec.Vec2) { t.points = append(t.points, p) }

func (t *Trail) Len() int { return len(t.points) }

func (t *Trail) Max() int { return t.max }

func (t *Trail) At(i int) vec.Vec2 { return t.points[i] }

// Points returns a copy of the samples, oldest first.
func (t *Trail) Points() []vec.Vec2 {
	out := make([]vec.Vec2, len(t.points))
	copy(out, t.points)
	return out
}

// DropOldest removes the oldest sample. It returns false on an empty trail.
func (t *Trail) DropOldest() bool {
	if len(t.points) == 0 {
		return false
	}
	copy(t.points, t.points[1:])
	t.points = t.points[:len(t.points)-1]
	return true
}

// Trim runs up to budget eviction passes. Each pass removes the oldest
// sample when force is set or the trail is over capacity. It returns the
// number of samples removed.
func (t *Trail) Trim(budget int, force bool) int {
	removed := 0
	for i := 0; i < budget; i++ {
		if len(t.points) == 0 {
			break
		}
		if force || len(t.points) > t.max {
			t.DropOldest()
			removed++
		}
	}
	return removed
}

func (t *Trail) Clear() { t.points = t.points[:0] }
