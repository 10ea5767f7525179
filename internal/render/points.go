package render

import "github.com/san-kum/veil/internal/particles"

type Kind uint8

const (
	KindTrail Kind = iota
	KindParticle
)

var (
	TrailColor    = particles.RGB{R: 0, G: 255, B: 255}
	ParticleColor = particles.RGB{R: 255, G: 200, B: 0}
)

// Point is one raw-mode marker in surface pixels, y down.
type Point struct {
	X, Y      float64
	Kind      Kind
	Color     particles.RGB
	// Intensity is zero for trail points.
	Intensity float64
}

// Points lays out the trail and particle positions of every payload for a
// w×h surface. Trail points come before particles within each system.
func Points(payloads []particles.Payload, w, h float64) []Point {
	var out []Point
	for _, p := range payloads {
		for i := 0; i < p.TrailCount(); i++ {
			out = append(out, Point{
				X:     p.Trail[2*i] * w,
				Y:     (1 - p.Trail[2*i+1]) * h,
				Kind:  KindTrail,
				Color: TrailColor,
			})
		}
		for i := 0; i < p.ParticleCount(); i++ {
			out = append(out, Point{
				X:         p.Particles[3*i] * w,
				Y:         (1 - p.Particles[3*i+1]) * h,
				Kind:      KindParticle,
				Color:     ParticleColor,
				Intensity: p.Particles[3*i+2],
			})
		}
	}
	return out
}
