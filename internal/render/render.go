// Package render evaluates the distance-field blend on the CPU and lays
// out raw point mode. It mirrors the fragment shader used by the window
// renderer so terminal and image output match it.
package render

import (
	"math"

	"github.com/san-kum/veil/internal/particles"
)

const (
	TrailWeight    = 0.00015
	ParticleWeight = 0.00005

	minDistance = 1e-6
)

// Color is a linear RGB triple in [0,1].
type Color struct {
	R, G, B float64
}

func (c Color) clamp() Color {
	return Color{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

// RGB255 converts to 8-bit channels.
func (c Color) RGB255() (r, g, b uint8) {
	c = c.clamp()
	return uint8(c.R*255 + 0.5), uint8(c.G*255 + 0.5), uint8(c.B*255 + 0.5)
}

// Luma is the perceived brightness of c.
func (c Color) Luma() float64 {
	c = c.clamp()
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Shade returns the color at normalized coordinates (x, y) with y up.
// Systems are summed before clamping.
func Shade(payloads []particles.Payload, x, y float64) Color {
	var c Color
	for _, p := range payloads {
		for i := 0; i < p.TrailCount(); i++ {
			d := dist(x, y, p.Trail[2*i], p.Trail[2*i+1])
			v := float64(i) / d * TrailWeight
			c.G += v * 0.5
			c.B += v
		}
		for i := 0; i < p.ParticleCount(); i++ {
			d := dist(x, y, p.Particles[3*i], p.Particles[3*i+1])
			k := ParticleWeight * p.Particles[3*i+2] / d
			c.R += p.Colors[3*i] * k
			c.G += p.Colors[3*i+1] * k
			c.B += p.Colors[3*i+2] * k
		}
	}
	return c.clamp()
}

func dist(x0, y0, x1, y1 float64) float64 {
	return math.Max(math.Hypot(x1-x0, y1-y0), minDistance)
}

// Frame shades a w×h grid sampled at cell centers, row 0 at the top.
func Frame(payloads []particles.Payload, w, h int) [][]Color {
	rows := make([][]Color, h)
	parallelRows(h, func(start, end int) {
		for j := start; j < end; j++ {
			rows[j] = make([]Color, w)
			y := 1 - (float64(j)+0.5)/float64(h)
			for i := range rows[j] {
				x := (float64(i) + 0.5) / float64(w)
				rows[j][i] = Shade(payloads, x, y)
			}
		}
	})
	return rows
}
