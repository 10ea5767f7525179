package particles

// MaxParticles caps the particles a single system holds.
const MaxParticles = 70

// Payload is one system's frame as handed to a renderer. Trail holds x,y
// pairs and Particles holds x,y,intensity triples, both in normalized
// surface space with y pointing up. Colors holds one r,g,b triple (0..255)
// per particle.
type Payload struct {
	Trail     []float64
	Particles []float64
	Colors    []float64
}

func (p Payload) TrailCount() int { return len(p.Trail) / 2 }

func (p Payload) ParticleCount() int { return len(p.Particles) / 3 }

// Uniforms is a Payload laid out in the fixed-size buffers the shader
// declares. Unused slots are zero.
type Uniforms struct {
	TrailCount    int32
	Trail         [MaxTrail * 2]float32
	ParticleCount int32
	Particles     [MaxParticles * 3]float32
	Colors        [MaxParticles * 3]float32
}

func (p Payload) Uniforms() Uniforms {
	var u Uniforms
	n := copyFloats(u.Trail[:], p.Trail)
	u.TrailCount = int32(n / 2)
	n = copyFloats(u.Particles[:], p.Particles)
	u.ParticleCount = int32(n / 3)
	copyFloats(u.Colors[:u.ParticleCount*3], p.Colors)
	return u
}

func copyFloats(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i])
	}
	return n
}
