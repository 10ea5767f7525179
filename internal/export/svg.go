// Package export writes single frames of the visualizer to image files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/render"
)

const (
	background    = "#000000"
	trailRadius   = 1.5
	particleScale = 4.0
)

func hex(c particles.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// particleRadius grows with intensity so heavy, fast particles read larger.
func particleRadius(intensity float64) float64 {
	r := 1 + intensity*particleScale
	if r > 12 {
		r = 12
	}
	return r
}

// PointsSVG renders the raw points of payloads on a w×h canvas.
func PointsSVG(payloads []particles.Payload, w, h int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)

	// trails as polylines, one per system
	for _, p := range payloads {
		if p.TrailCount() < 2 {
			continue
		}
		sb.WriteString(`<polyline fill="none" stroke="` + hex(render.TrailColor) + `" stroke-width="1" points="`)
		for i := 0; i < p.TrailCount(); i++ {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.1f,%.1f", p.Trail[2*i]*float64(w), (1-p.Trail[2*i+1])*float64(h))
		}
		sb.WriteString("\"/>\n")
	}

	for _, pt := range render.Points(payloads, float64(w), float64(h)) {
		r := trailRadius
		if pt.Kind == render.KindParticle {
			r = particleRadius(pt.Intensity)
		}
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", pt.X, pt.Y, r, hex(pt.Color))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// WriteSVG writes PointsSVG to w.
func WriteSVG(out io.Writer, payloads []particles.Payload, w, h int) error {
	_, err := io.WriteString(out, PointsSVG(payloads, w, h))
	return err
}
