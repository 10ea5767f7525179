package particles

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrEmptyPalette = errors.New("particles: palette has no colors")

// RGB is a color with channels in 0..255.
type RGB struct {
	R, G, B uint8
}

// Palette is an ordered, immutable list of particle colors.
type Palette struct {
	name   string
	colors []RGB
}

// ParsePalette builds a palette from hex strings such as "#E69F66".
func ParsePalette(name string, hex []string) (Palette, error) {
	if len(hex) == 0 {
		return Palette{}, fmt.Errorf("%w: %q", ErrEmptyPalette, name)
	}
	colors := make([]RGB, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return Palette{}, fmt.Errorf("particles: palette %q color %d: %w", name, i, err)
		}
		r, g, b := c.RGB255()
		colors[i] = RGB{r, g, b}
	}
	return Palette{name: name, colors: colors}, nil
}

func mustPalette(name string, hex ...string) Palette {
	p, err := ParsePalette(name, hex)
	if err != nil {
		panic(err)
	}
	return p
}

var (
	// Ember is the warm orange ramp.
	Ember = mustPalette("ember", "#E69F66", "#DF843A", "#D8690F", "#B1560D", "#8A430A")
	// Bloom runs from pink through yellow to green.
	Bloom = mustPalette("bloom", "#ff3377", "#ff5533", "#ffbb33", "#ddff33", "#77ff33")
)

// NamedPalettes lists the built-in palettes by name.
var NamedPalettes = map[string]Palette{
	"ember": Ember,
	"bloom": Bloom,
}

func (p Palette) Name() string { return p.name }

func (p Palette) Len() int { return len(p.colors) }

func (p Palette) At(i int) RGB { return p.colors[i] }

// Colors returns a copy of the palette entries.
func (p Palette) Colors() []RGB {
	out := make([]RGB, len(p.colors))
	copy(out, p.colors)
	return out
}

// Hex renders the palette back to "#rrggbb" strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p.colors))
	for i, c := range p.colors {
		out[i] = colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	}
	return out
}
