package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/veil/internal/render"
)

const upperHalf = "▀"

type styles struct {
	panel  lipgloss.Style
	header lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	ok     lipgloss.Style
	bad    lipgloss.Style
	help   lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 1),
		header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(11),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		bad:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		help:   lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
	}
}

func hexColor(c render.Color) lipgloss.Color {
	r, g, b := c.RGB255()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// halfBlocks renders pairs of sample rows as upper half blocks: the
// foreground carries the upper sample and the background the lower one.
func halfBlocks(rows [][]render.Color) string {
	var b strings.Builder
	for j := 0; j+1 < len(rows); j += 2 {
		top, bottom := rows[j], rows[j+1]
		for i := range top {
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top[i])).
				Background(hexColor(bottom[i])).
				Render(upperHalf))
		}
		if j+2 < len(rows) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (s styles) row(label, value string) string {
	return s.label.Render(label) + s.value.Render(value)
}
