package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille dots per cell, 2 wide by 4 tall:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotMask = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille dot grid with one foreground color per cell.
type Canvas struct {
	Width, Height int
	dots          [][]rune
	colors        [][]lipgloss.Color
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h}
	c.dots = make([][]rune, h)
	c.colors = make([][]lipgloss.Color, h)
	for i := range c.dots {
		c.dots[i] = make([]rune, w)
		c.colors[i] = make([]lipgloss.Color, w)
	}
	c.Clear()
	return c
}

// DotSize is the canvas resolution in dots.
func (c *Canvas) DotSize() (w, h int) { return c.Width * 2, c.Height * 4 }

// Set lights the dot at (x, y) and colors its cell. Later calls win the
// cell color.
func (c *Canvas) Set(x, y int, col lipgloss.Color) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/2, y/4
	if cx >= c.Width || cy >= c.Height {
		return
	}
	c.dots[cy][cx] |= dotMask[y%4][x%2]
	c.colors[cy][cx] = col
}

func (c *Canvas) Clear() {
	for i := range c.dots {
		for j := range c.dots[i] {
			c.dots[i][j] = brailleBlank
			c.colors[i][j] = ""
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.dots {
		for j, r := range row {
			if r == brailleBlank || c.colors[i][j] == "" {
				b.WriteRune(r)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(c.colors[i][j]).Render(string(r)))
		}
		if i < len(c.dots)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Plain renders the dots without color.
func (c *Canvas) Plain() string {
	lines := make([]string, len(c.dots))
	for i, row := range c.dots {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}
