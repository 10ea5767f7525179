package input

import "github.com/san-kum/veil/internal/vec"

// Tracker remembers the position seen on the previous tick.
// It is owned by the frame loop and is not safe for concurrent use.
type Tracker struct {
	prev    vec.Vec2
	started bool
}

// Next builds the event for this tick from a pointer state. On the first
// call previous equals current, so no displacement is reported.
func (t *Tracker) Next(s State) Event {
	if !t.started {
		t.prev = s.Pos
		t.started = true
	}
	ev := Event{
		Current:  s.Pos,
		Previous: t.prev,
		Pressed:  s.Pressed,
		Button:   s.Button,
	}
	t.prev = s.Pos
	return ev
}

// Reset forgets the previous position.
func (t *Tracker) Reset() {
	t.started = false
}
