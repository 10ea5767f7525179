package particles

import (
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/vec"
)

type fixedRand struct {
	vals []float64
	i    int
}

func (r *fixedRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func half() *fixedRand { return &fixedRand{vals: []float64{0.5}} }

func newTestSystem(t *testing.T, rng Rand) *System {
	t.Helper()
	s, err := NewSystem(Ember, rng)
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	return s
}

func event(cx, cy, px, py float64, pressed bool, b input.Button) input.Event {
	return input.Event{Current: vec.New(cx, cy), Previous: vec.New(px, py), Pressed: pressed, Button: b}
}

func TestNewParticleDrawOrder(t *testing.T) {
	p := NewParticle(half(), vec.New(10, 20), vec.New(1, 0), 5)

	if got := p.Velocity(); math.Abs(got.X-5) > 1e-12 || math.Abs(got.Y) > 1e-12 {
		t.Errorf("velocity = %v, want (5,0)", got)
	}
	if p.Mass() != 10.5 {
		t.Errorf("mass = %v, want 10.5", p.Mass())
	}
	if math.Abs(p.Drag()-0.95) > 1e-12 {
		t.Errorf("drag = %v, want 0.95", p.Drag())
	}
	if p.ColorIndex() != 2 {
		t.Errorf("colorIndex = %d, want 2", p.ColorIndex())
	}
	if p.Position() != vec.New(10, 20) {
		t.Errorf("position = %v", p.Position())
	}
}

func TestNewParticleRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		p := NewParticle(rng, vec.Vec2{}, vec.New(0, 1), Bloom.Len())
		if p.Mass() < MassMin || p.Mass() >= MassMax {
			t.Fatalf("mass %v out of range", p.Mass())
		}
		if p.Drag() < DragMin || p.Drag() >= DragMax {
			t.Fatalf("drag %v out of range", p.Drag())
		}
		if p.Speed() >= MaxLaunchSpeed {
			t.Fatalf("speed %v out of range", p.Speed())
		}
		if p.ColorIndex() < 0 || p.ColorIndex() >= Bloom.Len() {
			t.Fatalf("color index %d out of range", p.ColorIndex())
		}
	}
}

func TestParticleSpeedNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		p := NewParticle(rng, vec.Vec2{}, vec.New(1, 1).Normalize(), 5)
		prev := p.Speed()
		for p.Alive() {
			p.Advance()
			if p.Speed() > prev {
				t.Fatalf("speed increased: %v -> %v", prev, p.Speed())
			}
			prev = p.Speed()
		}
	}
}

func TestParticleRemovedOnSameTick(t *testing.T) {
	s := newTestSystem(t, half())
	s.particles = append(s.particles, Particle{vel: vec.New(0.105, 0), mass: 5, drag: 0.95})
	s.trail.Push(vec.New(1, 1))

	s.Advance(event(1, 1, 1, 1, false, input.ButtonLeft), 1)
	if s.ParticleCount() != 0 {
		t.Errorf("particle below %v should be removed on the tick it drops", DeathSpeed)
	}
}

func TestRemovalPreservesOrder(t *testing.T) {
	s := newTestSystem(t, half())
	s.particles = append(s.particles,
		Particle{vel: vec.New(5, 0), mass: 1, drag: 0.95},
		Particle{vel: vec.New(0.1, 0), mass: 2, drag: 0.95},
		Particle{vel: vec.New(6, 0), mass: 3, drag: 0.95},
	)
	s.Advance(event(0, 0, 0, 0, false, input.ButtonLeft), 1)

	got := s.Particles()
	if len(got) != 2 || got[0].Mass() != 1 || got[1].Mass() != 3 {
		t.Errorf("unexpected survivors: %+v", got)
	}
}

func TestSpawnThreshold(t *testing.T) {
	tests := []struct {
		name  string
		cur   vec.Vec2
		spawn bool
	}{
		{"still", vec.New(100, 100), false},
		{"exactly threshold", vec.New(110, 100), false},
		{"small", vec.New(105, 105), false},
		{"over threshold", vec.New(111, 100), true},
		{"diagonal", vec.New(108, 108), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSystem(t, half())
			s.trail.Push(vec.New(100, 100))
			s.Advance(input.Event{Current: tt.cur, Previous: vec.New(100, 100)}, 1)
			if got := s.ParticleCount() == 1; got != tt.spawn {
				t.Errorf("spawned = %v, want %v", got, tt.spawn)
			}
		})
	}
}

func TestSpawnNeedsTrailHistory(t *testing.T) {
	s := newTestSystem(t, half())
	s.Advance(event(50, 0, 0, 0, false, input.ButtonLeft), 1)
	if s.ParticleCount() != 0 {
		t.Error("first sample must not spawn")
	}
	s.Advance(event(100, 0, 50, 0, false, input.ButtonLeft), 1)
	if s.ParticleCount() != 1 {
		t.Fatalf("expected spawn once trail has history, got %d", s.ParticleCount())
	}

	p := s.Particles()[0]
	// launched at previous with (5,0), then advanced once in the same tick.
	if math.Abs(p.Position().X-54.75) > 1e-9 || p.Position().Y != 0 {
		t.Errorf("position = %v, want (54.75,0)", p.Position())
	}
	if s.Spawned() != 1 {
		t.Errorf("Spawned = %d", s.Spawned())
	}
}

func TestSpawnSaturation(t *testing.T) {
	s := newTestSystem(t, half())
	for i := 0; i < MaxParticles; i++ {
		s.particles = append(s.particles, Particle{vel: vec.New(9, 0), mass: 1, drag: 0.97})
	}
	s.trail.Push(vec.New(0, 0))
	s.Advance(event(50, 0, 0, 0, false, input.ButtonLeft), 1)
	if s.ParticleCount() != MaxParticles {
		t.Errorf("count = %d, want %d", s.ParticleCount(), MaxParticles)
	}
	if s.Spawned() != 0 {
		t.Error("saturated system must not spawn")
	}
}

func TestTrailTrim(t *testing.T) {
	tests := []struct {
		name    string
		initial int
		ev      input.Event
		budget  int
		want    int
	}{
		{"grows while released", 5, event(0, 0, 0, 0, false, input.ButtonLeft), 1, 6},
		{"fifo at capacity", MaxTrail, event(0, 0, 0, 0, false, input.ButtonLeft), 1, MaxTrail},
		{"pressed left trims one", 10, event(0, 0, 0, 0, true, input.ButtonLeft), 1, 10},
		{"pressed center trims two", 10, event(0, 0, 0, 0, true, input.ButtonCenter), 2, 9},
		{"released center", 10, event(0, 0, 0, 0, false, input.ButtonCenter), 1, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSystem(t, half())
			for i := 0; i < tt.initial; i++ {
				s.trail.Push(vec.New(float64(i), 0))
			}
			if got := TrimBudget(tt.ev); got != tt.budget {
				t.Fatalf("TrimBudget = %d, want %d", got, tt.budget)
			}
			s.Advance(tt.ev, TrimBudget(tt.ev))
			if s.TrailLen() != tt.want {
				t.Errorf("TrailLen = %d, want %d", s.TrailLen(), tt.want)
			}
		})
	}
}

func TestTrailEvictsOldest(t *testing.T) {
	tr := NewTrail(3)
	for i := 0; i < 4; i++ {
		tr.Push(vec.New(float64(i), 0))
	}
	if n := tr.Trim(1, false); n != 1 {
		t.Fatalf("Trim removed %d", n)
	}
	pts := tr.Points()
	if len(pts) != 3 || pts[0].X != 1 || pts[2].X != 3 {
		t.Errorf("points = %v", pts)
	}
	empty := NewTrail(3)
	if n := empty.Trim(2, true); n != 0 {
		t.Errorf("empty trim removed %d", n)
	}
}

func TestBoundsUnderRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a, _ := NewSystem(Ember, rng)
	b, _ := NewSystem(Bloom, rng)
	d := NewDirector(800, 600, a, b)

	cur := vec.New(400, 300)
	for i := 0; i < 3000; i++ {
		prev := cur
		cur = vec.New(rng.Float64()*800, rng.Float64()*600)
		ev := input.Event{
			Current:  cur,
			Previous: prev,
			Pressed:  rng.Intn(3) == 0,
			Button:   input.Button(rng.Intn(3)),
		}
		for _, p := range d.Tick(ev) {
			if p.TrailCount() > MaxTrail {
				t.Fatalf("tick %d: trail %d", i, p.TrailCount())
			}
			if p.ParticleCount() > MaxParticles {
				t.Fatalf("tick %d: particles %d", i, p.ParticleCount())
			}
			if len(p.Colors) != len(p.Particles) {
				t.Fatalf("tick %d: colors/particles mismatch", i)
			}
		}
	}
}

func TestSnapshotNormalization(t *testing.T) {
	s := newTestSystem(t, half())
	s.trail.Push(vec.New(0, 0))
	s.trail.Push(vec.New(800, 600))
	s.trail.Push(vec.New(200, 150))
	s.particles = append(s.particles, Particle{pos: vec.New(400, 600), vel: vec.New(3, 4), mass: 10, drag: 0.95, colorIndex: 1})

	p := s.Snapshot(800, 600)
	want := []float64{0, 1, 1, 0, 0.25, 0.75}
	for i, v := range want {
		if math.Abs(p.Trail[i]-v) > 1e-12 {
			t.Errorf("Trail[%d] = %v, want %v", i, p.Trail[i], v)
		}
	}
	if p.Particles[0] != 0.5 || p.Particles[1] != 0 || p.Particles[2] != 0.5 {
		t.Errorf("Particles = %v, want [0.5 0 0.5]", p.Particles)
	}
	c := Ember.At(1)
	if p.Colors[0] != float64(c.R) || p.Colors[1] != float64(c.G) || p.Colors[2] != float64(c.B) {
		t.Errorf("Colors = %v, want %v", p.Colors, c)
	}

	again := s.Snapshot(800, 600)
	if len(again.Trail) != len(p.Trail) || s.TrailLen() != 3 || s.ParticleCount() != 1 {
		t.Error("Snapshot must not mutate the system")
	}
}

func TestDirectorOrder(t *testing.T) {
	a, _ := NewSystem(Ember, half())
	b, _ := NewSystem(Bloom, half())
	d := NewDirector(100, 100, a, b)

	d.Tick(event(10, 10, 10, 10, false, input.ButtonLeft))
	out := d.Tick(event(60, 10, 10, 10, false, input.ButtonLeft))
	if len(out) != 2 {
		t.Fatalf("payloads = %d", len(out))
	}
	if out[0].Colors[0] != float64(Ember.At(2).R) || out[1].Colors[0] != float64(Bloom.At(2).R) {
		t.Errorf("payload order does not follow registration order")
	}

	d.SetSurface(200, 50)
	if w, h := d.Surface(); w != 200 || h != 50 {
		t.Errorf("Surface = %v,%v", w, h)
	}
	d.Reset()
	if a.TrailLen() != 0 || b.ParticleCount() != 0 {
		t.Error("Reset did not clear systems")
	}
}

func TestDirectorIgnoresEmptySurface(t *testing.T) {
	a, _ := NewSystem(Ember, half())
	d := NewDirector(800, 600, a)
	d.Tick(event(400, 300, 400, 300, false, input.ButtonLeft))

	for _, size := range [][2]float64{{0, 0}, {0, 600}, {800, -1}, {math.NaN(), 600}, {math.Inf(1), 600}} {
		if d.SetSurface(size[0], size[1]) {
			t.Errorf("SetSurface(%v, %v) accepted", size[0], size[1])
		}
	}
	if w, h := d.Surface(); w != 800 || h != 600 {
		t.Fatalf("Surface = %v,%v, want 800,600", w, h)
	}
	for _, p := range d.Snapshot() {
		for _, v := range p.Trail {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite trail value %v", v)
			}
		}
	}
}

func TestUniformsLayout(t *testing.T) {
	p := Payload{
		Trail:     []float64{0.1, 0.2, 0.3, 0.4},
		Particles: []float64{0.5, 0.5, 0.25},
		Colors:    []float64{230, 159, 102},
	}
	u := p.Uniforms()
	if u.TrailCount != 2 || u.ParticleCount != 1 {
		t.Fatalf("counts = %d/%d", u.TrailCount, u.ParticleCount)
	}
	if u.Trail[3] != 0.4 || u.Trail[4] != 0 {
		t.Errorf("Trail buffer = %v", u.Trail[:6])
	}
	if u.Colors[0] != 230 || u.Colors[3] != 0 {
		t.Errorf("Colors buffer = %v", u.Colors[:6])
	}
	if len(u.Particles) != MaxParticles*3 || len(u.Trail) != MaxTrail*2 {
		t.Error("unexpected buffer capacity")
	}
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette("test", []string{"#ff0000", "#00ff80"})
	if err != nil {
		t.Fatalf("ParsePalette: %v", err)
	}
	if p.At(0) != (RGB{255, 0, 0}) || p.At(1) != (RGB{0, 255, 128}) {
		t.Errorf("colors = %v", p.Colors())
	}
	if got := p.Hex(); got[0] != "#ff0000" {
		t.Errorf("Hex = %v", got)
	}

	if _, err := ParsePalette("bad", []string{"#zzzzzz"}); err == nil {
		t.Error("expected error for bad hex")
	}
	if _, err := ParsePalette("empty", nil); err == nil {
		t.Error("expected error for empty palette")
	}
	if _, err := NewSystem(Palette{}, half()); err != ErrEmptyPalette {
		t.Errorf("NewSystem(empty) err = %v", err)
	}
}
