package export

import (
	"io"

	"github.com/gogpu/gg"

	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/render"
)

// Mode picks the frame renderer.
type Mode uint8

const (
	Shaded Mode = iota
	Points
)

func ParseMode(s string) (Mode, bool) {
	switch s {
	case "shaded", "":
		return Shaded, true
	case "points":
		return Points, true
	}
	return Shaded, false
}

// Draw renders payloads onto a new w×h context.
func Draw(payloads []particles.Payload, w, h int, mode Mode) (*gg.Context, error) {
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(gg.RGB(0, 0, 0))

	if mode == Shaded {
		for j, row := range render.Frame(payloads, w, h) {
			for i, c := range row {
				dc.SetPixel(i, j, gg.RGB(c.R, c.G, c.B))
			}
		}
		return dc, nil
	}

	for _, pt := range render.Points(payloads, float64(w), float64(h)) {
		r := trailRadius
		if pt.Kind == render.KindParticle {
			r = particleRadius(pt.Intensity)
		}
		dc.SetRGB(float64(pt.Color.R)/255, float64(pt.Color.G)/255, float64(pt.Color.B)/255)
		dc.DrawCircle(pt.X, pt.Y, r)
		if err := dc.Fill(); err != nil {
			dc.Close()
			return nil, err
		}
	}
	return dc, nil
}

// WritePNG renders payloads and encodes them as PNG.
func WritePNG(out io.Writer, payloads []particles.Payload, w, h int, mode Mode) error {
	dc, err := Draw(payloads, w, h, mode)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(out)
}

// SavePNG is WritePNG to a file path.
func SavePNG(path string, payloads []particles.Payload, w, h int, mode Mode) error {
	dc, err := Draw(payloads, w, h, mode)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.SavePNG(path)
}
