package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/veil/internal/particles"
)

// veilFragment is the distance-field blend. Counts are floats because
// raylib uploads uniform scalars as float.
const veilFragment = `#version 330

in vec2 fragTexCoord;
in vec4 fragColor;
out vec4 finalColor;

uniform vec2 resolution;
uniform float trailCount;
uniform vec2 trails[30];
uniform float particleCount;
uniform vec3 particles[70];
uniform vec3 colors[70];

void main() {
    vec2 st = gl_FragCoord.xy / resolution;
    float r = 0.0;
    float g = 0.0;
    float b = 0.0;

    for (int i = 0; i < 30; i++) {
        if (float(i) >= trailCount) break;
        float value = float(i) / distance(st, trails[i]) * 0.00015;
        g += value * 0.5;
        b += value;
    }

    for (int i = 0; i < 70; i++) {
        if (float(i) >= particleCount) break;
        float m = 0.00005 * particles[i].z / distance(st, particles[i].xy);
        r += colors[i].r * m;
        g += colors[i].g * m;
        b += colors[i].b * m;
    }

    finalColor = vec4(r, g, b, 1.0);
}
`

type veilShader struct {
	shader rl.Shader

	resolution    int32
	trailCount    int32
	trails        int32
	particleCount int32
	particles     int32
	colors        int32
}

func loadVeilShader() *veilShader {
	sh := rl.LoadShaderFromMemory("", veilFragment)
	return &veilShader{
		shader:        sh,
		resolution:    rl.GetShaderLocation(sh, "resolution"),
		trailCount:    rl.GetShaderLocation(sh, "trailCount"),
		trails:        rl.GetShaderLocation(sh, "trails"),
		particleCount: rl.GetShaderLocation(sh, "particleCount"),
		particles:     rl.GetShaderLocation(sh, "particles"),
		colors:        rl.GetShaderLocation(sh, "colors"),
	}
}

// upload copies one system's payload into the shader uniforms.
func (v *veilShader) upload(p particles.Payload, w, h float32) {
	u := p.Uniforms()
	rl.SetShaderValue(v.shader, v.resolution, []float32{w, h}, rl.ShaderUniformVec2)
	rl.SetShaderValue(v.shader, v.trailCount, []float32{float32(u.TrailCount)}, rl.ShaderUniformFloat)
	rl.SetShaderValueV(v.shader, v.trails, u.Trail[:], rl.ShaderUniformVec2, particles.MaxTrail)
	rl.SetShaderValue(v.shader, v.particleCount, []float32{float32(u.ParticleCount)}, rl.ShaderUniformFloat)
	rl.SetShaderValueV(v.shader, v.particles, u.Particles[:], rl.ShaderUniformVec3, particles.MaxParticles)
	rl.SetShaderValueV(v.shader, v.colors, u.Colors[:], rl.ShaderUniformVec3, particles.MaxParticles)
}

// draw renders every payload as a full-screen pass, summing the passes.
func (v *veilShader) draw(payloads []particles.Payload, w, h int32) {
	rl.BeginBlendMode(rl.BlendAdditive)
	for _, p := range payloads {
		v.upload(p, float32(w), float32(h))
		rl.BeginShaderMode(v.shader)
		rl.DrawRectangle(0, 0, w, h, rl.White)
		rl.EndShaderMode()
	}
	rl.EndBlendMode()
}

func (v *veilShader) unload() {
	rl.UnloadShader(v.shader)
}
