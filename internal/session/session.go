// Package session holds the state of one running visualizer: the particle
// systems, the shared pointer cell and an optional network bridge.
//
// A Session is driven from a single frame loop. Only the pointer cell is
// shared with other goroutines.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/veil/internal/bridge"
	"github.com/san-kum/veil/internal/config"
	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/logging"
	"github.com/san-kum/veil/internal/metrics"
	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/storage"
	"github.com/san-kum/veil/internal/vec"
)

type Session struct {
	cfg      *config.Config
	director *particles.Director
	pointer  *input.Pointer
	tracker  input.Tracker

	link *bridge.Bridge
	echo bool

	shaded  bool
	tick    uint64
	last    input.Event
	sample  metrics.Sample
	metrics []metrics.Metric
}

// New builds a session from cfg. The bridge is not dialed; see Connect.
func New(cfg *config.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	palettes, err := cfg.ResolvePalettes()
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	systems := make([]*particles.System, len(palettes))
	for i, p := range palettes {
		s, err := particles.NewSystem(p, rand.New(rand.NewSource(seed+int64(i))))
		if err != nil {
			return nil, err
		}
		systems[i] = s
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	return &Session{
		cfg:      cfg,
		director: particles.NewDirector(w, h, systems...),
		pointer:  input.NewPointer(vec.New(w/2, h/2)),
		shaded:   cfg.Shaded,
		metrics:  metrics.Default(),
	}, nil
}

// Connect dials the bridge when it is enabled in the config.
func (s *Session) Connect(ctx context.Context) error {
	if !s.cfg.Bridge.Enabled {
		return nil
	}
	b, err := bridge.Dial(ctx, s.cfg.BridgeSettings(), s.pointer)
	if err != nil {
		return err
	}
	s.Attach(b, s.cfg.Bridge.Echo)
	return nil
}

// Attach uses b as the session's network link. With echo set, local
// pointer moves are forwarded through it.
func (s *Session) Attach(b *bridge.Bridge, echo bool) {
	s.link = b
	s.echo = echo
	w, h := s.director.Surface()
	b.SetSurface(w, h)
}

// Tick reads the pointer once, advances every system and returns their
// payloads in registration order.
func (s *Session) Tick() []particles.Payload {
	ev := s.tracker.Next(s.pointer.Load())
	out := s.director.Tick(ev)
	s.tick++
	s.last = ev
	s.observe()
	return out
}

func (s *Session) observe() {
	systems := s.director.Systems()
	smp := metrics.Sample{Tick: s.tick, Systems: make([]metrics.SystemSample, len(systems))}
	for i, sys := range systems {
		ss := metrics.SystemSample{
			Particles: sys.ParticleCount(),
			Trail:     sys.TrailLen(),
			Spawned:   sys.Spawned(),
		}
		for _, p := range sys.Particles() {
			ss.Intensity += p.Intensity()
		}
		smp.Systems[i] = ss
	}
	s.sample = smp
	for _, m := range s.metrics {
		m.Observe(smp)
	}
}

// Snapshot returns payloads for the current state without advancing.
func (s *Session) Snapshot() []particles.Payload { return s.director.Snapshot() }

// MovePointer records a local device move, forwarding it when echo is on.
func (s *Session) MovePointer(x, y float64) {
	s.pointer.MoveTo(x, y)
	if s.echo && s.link != nil && s.link.Connected() {
		if err := s.link.SendPointer(x, y); err != nil {
			logging.Logger().Debug("session: echo dropped", "error", err)
		}
	}
}

func (s *Session) Press(b input.Button) { s.pointer.Press(b) }

func (s *Session) Release() { s.pointer.Release() }

// ReleaseButton releases b if it is the held button; held lists buttons
// still down.
func (s *Session) ReleaseButton(b input.Button, held ...input.Button) {
	s.pointer.ReleaseButton(b, held...)
}

func (s *Session) Pointer() *input.Pointer { return s.pointer }

func (s *Session) Director() *particles.Director { return s.director }

func (s *Session) Config() *config.Config { return s.cfg }

func (s *Session) SetSurface(w, h float64) {
	if !s.director.SetSurface(w, h) {
		logging.Logger().Debug("session: ignoring empty surface", "width", w, "height", h)
		return
	}
	if s.link != nil {
		s.link.SetSurface(w, h)
	}
}

// ToggleShaded flips between the distance-field and raw point renderers.
func (s *Session) ToggleShaded() bool {
	s.shaded = !s.shaded
	return s.shaded
}

func (s *Session) Shaded() bool { return s.shaded }

func (s *Session) Metrics() []metrics.Metric { return s.metrics }

func (s *Session) LastSample() metrics.Sample { return s.sample }

func (s *Session) LastEvent() input.Event { return s.last }

type Stats struct {
	Tick      uint64
	Particles []int
	Trail     []int
	Linked    bool
	Bridge    bridge.Stats
}

func (s *Session) Stats() Stats {
	st := Stats{Tick: s.tick}
	for _, sys := range s.sample.Systems {
		st.Particles = append(st.Particles, sys.Particles)
		st.Trail = append(st.Trail, sys.Trail)
	}
	if s.link != nil {
		st.Linked = true
		st.Bridge = s.link.Stats()
	}
	return st
}

func (st Stats) String() string {
	link := "offline"
	if st.Linked {
		link = "disconnected"
		if st.Bridge.Connected {
			link = "connected"
		}
	}
	return fmt.Sprintf("tick %d  particles %v  trail %v  bridge %s", st.Tick, st.Particles, st.Trail, link)
}

// Record describes the last tick for storage.
func (s *Session) Record() storage.Tick {
	st := s.Stats()
	return storage.Tick{
		Tick:      st.Tick,
		X:         s.last.Current.X,
		Y:         s.last.Current.Y,
		Pressed:   s.last.Pressed,
		Button:    s.last.Button.String(),
		Particles: st.Particles,
		Trail:     st.Trail,
	}
}

// MetricValues returns the current value of every metric by name.
func (s *Session) MetricValues() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Reset clears every system and the metrics, keeping the pointer.
func (s *Session) Reset() {
	s.director.Reset()
	s.tracker.Reset()
	s.tick = 0
	for _, m := range s.metrics {
		m.Reset()
	}
}

// Close releases the bridge. It does not block.
func (s *Session) Close() error {
	if s.link == nil {
		return nil
	}
	return s.link.Close()
}
