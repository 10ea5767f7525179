package input

import (
	"sync/atomic"

	"github.com/san-kum/veil/internal/vec"
)

// State is one immutable snapshot of the pointer cell.
type State struct {
	Pos     vec.Vec2
	Pressed bool
	Button  Button
	// Seq increments on every write; readers use it to detect fresh data.
	Seq uint64
}

// Pointer holds the latest pointer state. Writes from several goroutines
// are serialized with compare-and-swap; the most recent write wins.
type Pointer struct {
	cur atomic.Pointer[State]
}

func NewPointer(start vec.Vec2) *Pointer {
	p := &Pointer{}
	p.cur.Store(&State{Pos: start})
	return p
}

// Load returns the current state without blocking.
func (p *Pointer) Load() State {
	return *p.cur.Load()
}

func (p *Pointer) update(fn func(s *State)) {
	for {
		old := p.cur.Load()
		next := *old
		fn(&next)
		next.Seq = old.Seq + 1
		if p.cur.CompareAndSwap(old, &next) {
			return
		}
	}
}

// MoveTo sets the position, keeping press state.
func (p *Pointer) MoveTo(x, y float64) {
	p.update(func(s *State) { s.Pos = vec.New(x, y) })
}

// Press marks button b as held.
func (p *Pointer) Press(b Button) {
	p.update(func(s *State) {
		s.Pressed = true
		s.Button = b
	})
}

// Release clears the pressed flag. The button identity is kept, matching
// how most windowing toolkits report the last button.
func (p *Pointer) Release() {
	p.update(func(s *State) { s.Pressed = false })
}

// ReleaseButton ends the press of button b. Releasing a button other than
// the one held is ignored. When other buttons are still down, held names
// them and the first becomes the held button.
func (p *Pointer) ReleaseButton(b Button, held ...Button) {
	p.update(func(s *State) {
		if !s.Pressed || s.Button != b {
			return
		}
		if len(held) > 0 {
			s.Button = held[0]
			return
		}
		s.Pressed = false
	})
}

// Set replaces the whole state except the sequence number.
func (p *Pointer) Set(pos vec.Vec2, pressed bool, b Button) {
	p.update(func(s *State) {
		s.Pos = pos
		s.Pressed = pressed
		s.Button = b
	})
}
