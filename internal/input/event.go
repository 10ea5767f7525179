// Package input turns pointer samples from any source into the per-tick
// events the simulation consumes.
//
// A [Pointer] is the shared cell between writers (the local device and the
// network bridge) and the single frame loop that reads it. A [Tracker]
// converts successive reads into [Event] values carrying both the current
// and the previous tick's position.
package input

import "github.com/san-kum/veil/internal/vec"

// Event is the single per-tick description of pointer motion and press state.
type Event struct {
	Current  vec.Vec2
	Previous vec.Vec2
	Pressed  bool
	Button   Button
}

// Displacement is Current minus Previous.
func (e Event) Displacement() vec.Vec2 {
	return e.Current.Sub(e.Previous)
}

// Accelerated reports whether the center button is held, which doubles the
// trail trim rate.
func (e Event) Accelerated() bool {
	return e.Pressed && e.Button == ButtonCenter
}
