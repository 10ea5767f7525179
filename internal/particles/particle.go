// Package particles implements the trail and force-particle simulation and
// its per-frame serialization into renderer payloads.
package particles

import (
	"github.com/san-kum/veil/internal/vec"
)

const (
	MaxLaunchSpeed = 10.0
	SpreadDegrees  = 25.0
	MassMin        = 1.0
	MassMax        = 20.0
	DragMin        = 0.92
	DragMax        = 0.98

	// DeathSpeed is the speed below which a particle is removed.
	DeathSpeed = 0.1
)

// Rand is the random source a System draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

func uniform(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Particle is a decaying moving point. Mass, drag and color are fixed at
// construction.
type Particle struct {
	pos        vec.Vec2
	vel        vec.Vec2
	mass       float64
	drag       float64
	colorIndex int
}

// NewParticle launches a particle from origin along dir. Random draws are
// made in a fixed order: speed, spread angle, mass, drag, color.
func NewParticle(rng Rand, origin, dir vec.Vec2, colors int) Particle {
	vel := dir.Scale(uniform(rng, 0, MaxLaunchSpeed))
	vel = vel.Rotate(vec.Radians(uniform(rng, -SpreadDegrees, SpreadDegrees)))
	p := Particle{
		pos:  origin,
		vel:  vel,
		mass: uniform(rng, MassMin, MassMax),
		drag: uniform(rng, DragMin, DragMax),
	}
	if colors > 0 {
		p.colorIndex = min(int(rng.Float64()*float64(colors)), colors-1)
	}
	return p
}

// Advance applies drag then moves by the damped velocity.
func (p *Particle) Advance() {
	p.vel = p.vel.Scale(p.drag)
	p.pos = p.pos.Add(p.vel)
}

func (p Particle) Position() vec.Vec2 { return p.pos }
func (p Particle) Velocity() vec.Vec2 { return p.vel }
func (p Particle) Speed() float64     { return p.vel.Mag() }
func (p Particle) Mass() float64      { return p.mass }
func (p Particle) Drag() float64      { return p.drag }
func (p Particle) ColorIndex() int    { return p.colorIndex }

// Intensity is the brightness weight handed to the renderer.
func (p Particle) Intensity() float64 {
	return p.mass * p.Speed() / 100
}

// Alive reports whether the particle is still above DeathSpeed.
func (p Particle) Alive() bool {
	return p.Speed() >= DeathSpeed
}
