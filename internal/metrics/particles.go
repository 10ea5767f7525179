package metrics

type PeakParticles struct {
	name string
	peak int
}

func NewPeakParticles() *PeakParticles {
	return &PeakParticles{name: "peak_particles"}
}

func (p *PeakParticles) Name() string { return p.name }

func (p *PeakParticles) Observe(s Sample) {
	p.peak = max(p.peak, s.Particles())
}

func (p *PeakParticles) Value() float64 { return float64(p.peak) }

func (p *PeakParticles) Reset() { p.peak = 0 }

// MeanIntensity averages particle intensity over every particle observed.
type MeanIntensity struct {
	name    string
	total   float64
	samples int
}

func NewMeanIntensity() *MeanIntensity {
	return &MeanIntensity{name: "mean_intensity"}
}

func (m *MeanIntensity) Name() string { return m.name }

func (m *MeanIntensity) Observe(s Sample) {
	for _, sys := range s.Systems {
		m.total += sys.Intensity
		m.samples += sys.Particles
	}
}

func (m *MeanIntensity) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanIntensity) Reset() {
	m.total = 0
	m.samples = 0
}

// Spawns counts particles launched since the first observation.
type Spawns struct {
	name  string
	base  []uint64
	count uint64
}

func NewSpawns() *Spawns {
	return &Spawns{name: "spawns"}
}

func (sp *Spawns) Name() string { return sp.name }

func (sp *Spawns) Observe(s Sample) {
	if sp.base == nil {
		sp.base = make([]uint64, len(s.Systems))
		for i, sys := range s.Systems {
			sp.base[i] = sys.Spawned
		}
	}
	var total uint64
	for i, sys := range s.Systems {
		if i < len(sp.base) && sys.Spawned >= sp.base[i] {
			total += sys.Spawned - sp.base[i]
		}
	}
	sp.count = total
}

func (sp *Spawns) Value() float64 { return float64(sp.count) }

func (sp *Spawns) Reset() {
	sp.base = nil
	sp.count = 0
}

// TrailOccupancy is the mean trail fill ratio against capacity.
type TrailOccupancy struct {
	name     string
	capacity int
	total    float64
	samples  int
}

func NewTrailOccupancy(capacity int) *TrailOccupancy {
	return &TrailOccupancy{name: "trail_occupancy", capacity: capacity}
}

func (t *TrailOccupancy) Name() string { return t.name }

func (t *TrailOccupancy) Observe(s Sample) {
	if t.capacity <= 0 {
		return
	}
	for _, sys := range s.Systems {
		t.total += float64(sys.Trail) / float64(t.capacity)
		t.samples++
	}
}

func (t *TrailOccupancy) Value() float64 {
	if t.samples == 0 {
		return 0
	}
	return t.total / float64(t.samples)
}

func (t *TrailOccupancy) Reset() {
	t.total = 0
	t.samples = 0
}
