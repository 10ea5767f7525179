package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/aquilax/go-perlin"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/logging"
	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/session"
	"github.com/san-kum/veil/internal/vec"
)

var ErrUnknownPath = errors.New("automation: unknown path")

// Scenario is a scripted pointer gesture sequence.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Seed        int64  `yaml:"seed"`
	Steps       []Step `yaml:"steps"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) vec() vec.Vec2 { return vec.New(p.X, p.Y) }

// Step moves the pointer along one path for Ticks frames.
type Step struct {
	Path    string  `yaml:"path"`
	Ticks   int     `yaml:"ticks"`
	From    Point   `yaml:"from"`
	To      Point   `yaml:"to"`
	Center  Point   `yaml:"center"`
	Radius  float64 `yaml:"radius"`
	Pressed bool    `yaml:"pressed"`
	Button  string  `yaml:"button"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		if _, err := step.Positions(scenario.Seed); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if _, err := input.ParseButton(step.Button); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &scenario, nil
}

// Positions returns one pointer position per tick of the step.
func (s Step) Positions(seed int64) ([]vec.Vec2, error) {
	if s.Ticks <= 0 {
		return nil, fmt.Errorf("automation: step needs positive ticks, got %d", s.Ticks)
	}
	out := make([]vec.Vec2, s.Ticks)
	from, to, c := s.From.vec(), s.To.vec(), s.Center.vec()

	frac := func(i int) float64 {
		if s.Ticks == 1 {
			return 1
		}
		return float64(i) / float64(s.Ticks-1)
	}
	angle := func(i int) float64 { return 2 * math.Pi * float64(i) / float64(s.Ticks) }

	switch s.Path {
	case "hold", "":
		for i := range out {
			out[i] = from
		}
	case "line":
		for i := range out {
			out[i] = from.Add(to.Sub(from).Scale(frac(i)))
		}
	case "circle":
		for i := range out {
			out[i] = c.Add(vec.New(math.Cos(angle(i)), math.Sin(angle(i))).Scale(s.Radius))
		}
	case "zigzag":
		dir := to.Sub(from)
		normal := vec.New(-dir.Y, dir.X).Normalize()
		for i := range out {
			// triangle wave with an 8 tick period
			phase := math.Mod(float64(i), 8) / 8
			tri := 4*math.Abs(phase-0.5) - 1
			out[i] = from.Add(dir.Scale(frac(i))).Add(normal.Scale(tri * s.Radius))
		}
	case "lissajous":
		for i := range out {
			a := angle(i)
			out[i] = c.Add(vec.New(math.Sin(3*a), math.Sin(2*a)).Scale(s.Radius))
		}
	case "wander":
		noise := perlin.NewPerlin(2, 2, 3, seed)
		for i := range out {
			t := float64(i) * 0.03
			d := vec.New(noise.Noise2D(t, 0), noise.Noise2D(t, 17.3)).Scale(2)
			if d.Mag() > 1 {
				d = d.Normalize()
			}
			out[i] = c.Add(d.Scale(s.Radius))
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownPath, s.Path)
	}
	return out, nil
}

// Observer is called after every tick with that tick's payloads.
type Observer func(step int, payloads []particles.Payload)

type Result struct {
	Ticks   int
	Metrics map[string]float64
}

// Run drives sess through every step of scenario, one tick per position.
func Run(ctx context.Context, scenario *Scenario, sess *session.Session, observe Observer) (*Result, error) {
	log := logging.Logger()
	res := &Result{}
	for i, step := range scenario.Steps {
		positions, err := step.Positions(scenario.Seed + int64(i))
		if err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		button, err := input.ParseButton(step.Button)
		if err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Debug("scenario step", "scenario", scenario.Name, "step", i+1, "path", step.Path, "ticks", step.Ticks)

		if step.Pressed {
			sess.Press(button)
		} else {
			sess.Release()
		}
		for _, p := range positions {
			select {
			case <-ctx.Done():
				res.Metrics = sess.MetricValues()
				return res, ctx.Err()
			default:
			}
			sess.MovePointer(p.X, p.Y)
			payloads := sess.Tick()
			res.Ticks++
			if observe != nil {
				observe(i, payloads)
			}
		}
	}
	sess.Release()
	res.Metrics = sess.MetricValues()
	return res, nil
}
