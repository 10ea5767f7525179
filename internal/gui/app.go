// Package gui is the raylib window renderer.
package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/render"
	"github.com/san-kum/veil/internal/session"
)

var (
	ColBg      = rl.NewColor(0, 0, 0, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColOnline  = rl.NewColor(80, 200, 120, 255)
	ColOffline = rl.NewColor(200, 80, 80, 255)
)

const maxTelemetry = 200

type App struct {
	sess      *session.Session
	shader    *veilShader
	payloads  []particles.Payload
	lastMouse rl.Vector2
	showHUD   bool
	telemetry []float64
}

var mouseButtons = []struct {
	raylib rl.MouseButton
	button input.Button
}{
	{rl.MouseLeftButton, input.ButtonLeft},
	{rl.MouseMiddleButton, input.ButtonCenter},
	{rl.MouseRightButton, input.ButtonRight},
}

// heldButtons lists the mouse buttons still down this frame.
func heldButtons() []input.Button {
	var held []input.Button
	for _, mb := range mouseButtons {
		if rl.IsMouseButtonDown(mb.raylib) {
			held = append(held, mb.button)
		}
	}
	return held
}

func initWindow(w, h, fps int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(w), int32(h), "veil")
	rl.SetTargetFPS(int32(fps))
	rl.SetExitKey(rl.KeyEscape)
}

// Run opens the window and drives sess until the window is closed.
func Run(sess *session.Session) {
	cfg := sess.Config()
	initWindow(cfg.Width, cfg.Height, cfg.FPS)
	defer rl.CloseWindow()

	app := &App{
		sess:      sess,
		shader:    loadVeilShader(),
		lastMouse: rl.GetMousePosition(),
		showHUD:   true,
		telemetry: make([]float64, 0, maxTelemetry),
	}
	defer app.shader.unload()
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()
	}
}

func (a *App) Update() {
	if rl.IsWindowResized() {
		a.sess.SetSurface(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
	}

	mouse := rl.GetMousePosition()
	if mouse != a.lastMouse {
		a.sess.MovePointer(float64(mouse.X), float64(mouse.Y))
		a.lastMouse = mouse
	}

	for _, mb := range mouseButtons {
		if rl.IsMouseButtonPressed(mb.raylib) {
			a.sess.Press(mb.button)
			if mb.button == input.ButtonRight {
				a.sess.ToggleShaded()
			}
		}
		if rl.IsMouseButtonReleased(mb.raylib) {
			a.sess.ReleaseButton(mb.button, heldButtons()...)
		}
	}

	if rl.IsKeyPressed(rl.KeyH) {
		a.showHUD = !a.showHUD
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.sess.Reset()
	}

	a.payloads = a.sess.Tick()

	total := 0
	for _, p := range a.payloads {
		total += p.ParticleCount()
	}
	if len(a.telemetry) >= maxTelemetry {
		a.telemetry = a.telemetry[1:]
	}
	a.telemetry = append(a.telemetry, float64(total))
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if a.sess.Shaded() {
		a.shader.draw(a.payloads, w, h)
	} else {
		a.drawPoints(float64(w), float64(h))
	}
	if a.showHUD {
		a.DrawHUD(w, h)
	}

	rl.EndDrawing()
}

func (a *App) drawPoints(w, h float64) {
	for _, pt := range render.Points(a.payloads, w, h) {
		c := rl.NewColor(pt.Color.R, pt.Color.G, pt.Color.B, 255)
		radius := float32(2)
		if pt.Kind == render.KindParticle {
			radius = 3
		}
		rl.DrawCircleV(rl.NewVector2(float32(pt.X), float32(pt.Y)), radius, c)
	}
}

func (a *App) DrawHUD(w, h int32) {
	st := a.sess.Stats()
	rl.DrawText("veil", 20, 16, 20, ColAccent)

	mode := "shaded"
	if !a.sess.Shaded() {
		mode = "points"
	}
	rl.DrawText(fmt.Sprintf("particles %v  trail %v  %s", st.Particles, st.Trail, mode), 80, 20, 14, ColText)

	if st.Linked {
		col, label := ColOffline, "bridge offline"
		if st.Bridge.Connected {
			col, label = ColOnline, "bridge online"
		}
		rl.DrawText(fmt.Sprintf("%s  accepted %d  discarded %d", label, st.Bridge.Accepted, st.Bridge.Discarded), 20, 40, 14, col)
	}

	rl.DrawText(fmt.Sprintf("%d FPS", rl.GetFPS()), 20, h-24, 14, ColTextDim)
	rl.DrawText("[RMB] MODE  [MMB] DRAIN  [R] RESET  [H] HUD  [ESC] QUIT", w-440, h-24, 14, ColTextDim)
	a.DrawTelemetry(20, h-90, 300, 50)
}

func (a *App) DrawTelemetry(x, y, width, height int32) {
	if len(a.telemetry) < 2 {
		return
	}
	maxVal := float64(particles.MaxParticles * len(a.payloads))
	if maxVal == 0 {
		return
	}
	points := make([]rl.Vector2, len(a.telemetry))
	for i, val := range a.telemetry {
		px := float32(x) + float32(i)/float32(maxTelemetry)*float32(width)
		py := float32(y+height) - float32(val/maxVal)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColAccent)
}
