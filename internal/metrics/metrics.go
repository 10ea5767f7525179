// Package metrics accumulates per-tick observations of a running session.
package metrics

// SystemSample is one particle system's state after a tick.
type SystemSample struct {
	Particles int
	Trail     int
	Intensity float64 // sum over particles
	Spawned   uint64  // running total
}

// Sample is everything a metric may observe for one tick.
type Sample struct {
	Tick    uint64
	Systems []SystemSample
}

func (s Sample) Particles() int {
	n := 0
	for _, sys := range s.Systems {
		n += sys.Particles
	}
	return n
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Default returns a fresh instance of every built-in metric.
func Default() []Metric {
	return []Metric{
		NewPeakParticles(),
		NewMeanIntensity(),
		NewSpawns(),
		NewTrailOccupancy(30),
	}
}
