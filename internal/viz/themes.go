package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the HUD panel. The simulation itself is always drawn in
// its own palette colors.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeNight = Theme{
		Name:    "night",
		Primary: lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#dddddd"),
		Muted:   lipgloss.Color("#666688"),
		Success: lipgloss.Color("#00ff88"),
		Error:   lipgloss.Color("#ff4444"),
	}

	ThemeEmber = Theme{
		Name:    "ember",
		Primary: lipgloss.Color("#E69F66"),
		Text:    lipgloss.Color("#f5e6d8"),
		Muted:   lipgloss.Color("#8A430A"),
		Success: lipgloss.Color("#ffbb33"),
		Error:   lipgloss.Color("#ff3377"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Text:    lipgloss.Color("#cccccc"),
		Muted:   lipgloss.Color("#777777"),
		Success: lipgloss.Color("#aaffaa"),
		Error:   lipgloss.Color("#ffaaaa"),
	}

	Themes = []Theme{ThemeNight, ThemeEmber, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to night.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeNight
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
