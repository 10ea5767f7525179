package particles

import (
	"github.com/san-kum/veil/internal/coord"
	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/vec"
)

// SpawnThreshold is the pointer displacement (px) above which a particle
// is launched.
const SpawnThreshold = 10.0

var (
	unitRange = coord.Range{Min: 0, Max: 1}
	flipRange = coord.Range{Min: 1, Max: 0}
)

// System is one trail plus the particles it sheds.
type System struct {
	trail     *Trail
	particles []Particle
	palette   Palette
	rng       Rand
	spawned   uint64
}

func NewSystem(palette Palette, rng Rand) (*System, error) {
	if palette.Len() == 0 {
		return nil, ErrEmptyPalette
	}
	return &System{
		trail:     NewTrail(MaxTrail),
		particles: make([]Particle, 0, MaxParticles),
		palette:   palette,
		rng:       rng,
	}, nil
}

// Advance applies one pointer event. trimBudget bounds how many trail
// samples may be evicted this tick.
func (s *System) Advance(ev input.Event, trimBudget int) {
	s.trail.Push(ev.Current)
	s.trail.Trim(trimBudget, ev.Pressed)

	if s.trail.Len() > 1 && len(s.particles) < MaxParticles {
		d := ev.Displacement()
		if d.Mag() > SpawnThreshold {
			s.particles = append(s.particles, NewParticle(s.rng, ev.Previous, d.Normalize(), s.palette.Len()))
			s.spawned++
		}
	}

	for i := len(s.particles) - 1; i >= 0; i-- {
		p := &s.particles[i]
		p.Advance()
		if !p.Alive() {
			s.particles = append(s.particles[:i], s.particles[i+1:]...)
		}
	}
}

// Snapshot serializes the current state for a w×h surface. It does not
// modify the system.
func (s *System) Snapshot(w, h float64) Payload {
	xr := coord.Range{Min: 0, Max: w}
	yr := coord.Range{Min: 0, Max: h}

	out := Payload{
		Trail:     make([]float64, 0, s.trail.Len()*2),
		Particles: make([]float64, 0, len(s.particles)*3),
		Colors:    make([]float64, 0, len(s.particles)*3),
	}
	for _, pt := range s.trail.points {
		out.Trail = append(out.Trail, xr.Lerp(pt.X, unitRange), yr.Lerp(pt.Y, flipRange))
	}
	for _, p := range s.particles {
		out.Particles = append(out.Particles, xr.Lerp(p.pos.X, unitRange), yr.Lerp(p.pos.Y, flipRange), p.Intensity())
		c := s.palette.At(p.colorIndex)
		out.Colors = append(out.Colors, float64(c.R), float64(c.G), float64(c.B))
	}
	return out
}

func (s *System) ParticleCount() int { return len(s.particles) }

func (s *System) TrailLen() int { return s.trail.Len() }

func (s *System) Palette() Palette { return s.palette }

// Spawned is the total number of particles launched since construction.
func (s *System) Spawned() uint64 { return s.spawned }

func (s *System) Particles() []Particle {
	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

func (s *System) TrailPoints() []vec.Vec2 { return s.trail.Points() }

// Reset clears the trail and all particles.
func (s *System) Reset() {
	s.trail.Clear()
	s.particles = s.particles[:0]
}
