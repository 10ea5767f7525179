package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/render"
	"github.com/san-kum/veil/internal/session"
)

const (
	panelWidth      = 34
	historyCapacity = 120
	minCols         = 8
	minRows         = 4
)

type TickMsg time.Time

// Model drives a session from bubbletea ticks and mouse events.
type Model struct {
	sess       *session.Session
	interval   time.Duration
	cols, rows int
	payloads   []particles.Payload
	history    []float64
	theme      int
	styles     styles
	paused     bool
	showHelp   bool
}

func NewModel(sess *session.Session) Model {
	fps := sess.Config().FPS
	if fps <= 0 {
		fps = 30
	}
	return Model{
		sess:     sess,
		interval: time.Second / time.Duration(fps),
		cols:     80 - panelWidth,
		rows:     22,
		history:  make([]float64, 0, historyCapacity),
		styles:   newStyles(Themes[0]),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.sess.Reset()
			m.history = m.history[:0]
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		}

	case tea.WindowSizeMsg:
		m.cols = max(minCols, msg.Width-panelWidth-1)
		m.rows = max(minRows, msg.Height-1)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case TickMsg:
		if !m.paused {
			m.payloads = m.sess.Tick()
			m.record()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if msg.X >= m.cols || msg.Y >= m.rows {
		return
	}
	x, y := m.cellToSurface(msg.X, msg.Y)
	m.sess.MovePointer(x, y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.sess.Press(input.ButtonLeft)
		case tea.MouseButtonMiddle:
			m.sess.Press(input.ButtonCenter)
		case tea.MouseButtonRight:
			m.sess.Press(input.ButtonRight)
			m.sess.ToggleShaded()
		}
	case tea.MouseActionRelease:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.sess.ReleaseButton(input.ButtonLeft)
		case tea.MouseButtonMiddle:
			m.sess.ReleaseButton(input.ButtonCenter)
		case tea.MouseButtonRight:
			m.sess.ReleaseButton(input.ButtonRight)
		default:
			// terminals without SGR mouse mode do not say which button
			m.sess.Release()
		}
	}
}

// cellToSurface maps the center of a terminal cell to surface pixels.
func (m Model) cellToSurface(col, row int) (float64, float64) {
	w, h := m.sess.Director().Surface()
	return (float64(col) + 0.5) / float64(m.cols) * w, (float64(row) + 0.5) / float64(m.rows) * h
}

func (m *Model) record() {
	total := 0
	for _, p := range m.payloads {
		total += p.ParticleCount()
	}
	if len(m.history) >= historyCapacity {
		m.history = m.history[1:]
	}
	m.history = append(m.history, float64(total))
}

func (m Model) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top, m.viewCanvas(), m.viewPanel())
}

func (m Model) viewCanvas() string {
	if m.sess.Shaded() {
		return halfBlocks(render.Frame(m.payloads, m.cols, m.rows*2))
	}
	c := NewCanvas(m.cols, m.rows)
	dw, dh := c.DotSize()
	for _, pt := range render.Points(m.payloads, float64(dw), float64(dh)) {
		col := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", pt.Color.R, pt.Color.G, pt.Color.B))
		c.Set(int(pt.X), int(pt.Y), col)
	}
	return c.String()
}

func (m Model) viewPanel() string {
	s := m.styles
	st := m.sess.Stats()

	var b strings.Builder
	b.WriteString(s.header.Render("veil"))
	b.WriteString("\n")

	mode := "shaded"
	if !m.sess.Shaded() {
		mode = "points"
	}
	if m.paused {
		mode += " (paused)"
	}
	b.WriteString(s.row("mode", mode) + "\n")
	b.WriteString(s.row("tick", fmt.Sprintf("%d", st.Tick)) + "\n")
	for _, sys := range m.sess.Director().Systems() {
		b.WriteString(s.row(sys.Palette().Name(), fmt.Sprintf("%2d p  %2d t", sys.ParticleCount(), sys.TrailLen())) + "\n")
	}

	if st.Linked {
		link := s.bad.Render("offline")
		if st.Bridge.Connected {
			link = s.ok.Render("online")
		}
		b.WriteString(s.row("bridge", link) + "\n")
		b.WriteString(s.row("accepted", fmt.Sprintf("%d", st.Bridge.Accepted)) + "\n")
		b.WriteString(s.row("discarded", fmt.Sprintf("%d", st.Bridge.Discarded)) + "\n")
	}

	if len(m.history) > 1 {
		b.WriteString("\n")
		b.WriteString(asciigraph.Plot(m.history,
			asciigraph.Height(5),
			asciigraph.Width(panelWidth-8),
			asciigraph.Caption("particles")))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(s.help.Render("move: pointer  L/M: press\nR-click: mode  space: pause\nr: reset  t: theme  q: quit"))
	} else {
		b.WriteString(s.help.Render("? help"))
	}
	return s.panel.Height(m.rows).Render(b.String())
}

// WithTheme returns m using the named theme for its panel.
func (m Model) WithTheme(t Theme) Model {
	for i, th := range Themes {
		if th.Name == t.Name {
			m.theme = i
		}
	}
	m.styles = newStyles(t)
	return m
}

// Run starts the terminal renderer and blocks until it exits.
func Run(sess *session.Session, theme Theme) error {
	p := tea.NewProgram(NewModel(sess).WithTheme(theme), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}
