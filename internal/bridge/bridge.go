// Package bridge relays coordinate messages from a websocket OSC relay
// into the shared pointer cell.
//
// On connect the bridge sends a single config handshake naming the OSC
// port pair the relay should bind. Every later message frame is decoded
// into a [Command] or a [Bundle] before anything is dispatched. Commands
// addressed to the configured address with two float arguments move the
// pointer; everything else is counted and dropped.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/veil/internal/coord"
	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/logging"
	"github.com/san-kum/veil/internal/vec"
)

// PointerTypeTag is the only argument signature accepted as a pointer update.
const PointerTypeTag = "ff"

type Config struct {
	URL       string
	Address   string
	Handshake Handshake

	// InputBounds, when set, is the domain incoming coordinates are
	// mapped from onto the surface. Values outside it are discarded.
	InputBounds *coord.Bounds

	SendQueue    int
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:     "ws://127.0.0.1:8081/",
		Address: "/kuatro/processing/mediated",
		Handshake: Handshake{
			Server: Endpoint{Port: 13000, Host: "127.0.0.1"},
			Client: Endpoint{Port: 57111, Host: "127.0.0.1"},
		},
		SendQueue:    64,
		WriteTimeout: time.Second,
	}
}

// Stats is a point-in-time view of the bridge counters.
type Stats struct {
	Connected bool
	Accepted  uint64
	Discarded uint64
	Rejected  uint64
	Sent      uint64
}

type Bridge struct {
	cfg     Config
	conn    *websocket.Conn
	pointer *input.Pointer
	surface atomic.Pointer[coord.Bounds]

	connected atomic.Bool
	accepted  atomic.Uint64
	discarded atomic.Uint64
	rejected  atomic.Uint64
	sent      atomic.Uint64

	send      chan []byte
	done      chan struct{}
	readDone  chan struct{}
	closeOnce sync.Once
}

// Dial connects to the relay, sends the handshake and starts the read and
// write loops. Accepted coordinates are written to pointer.
func Dial(ctx context.Context, cfg Config, pointer *input.Pointer) (*Bridge, error) {
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = time.Second
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge: dial %s: %w", cfg.URL, err)
	}

	hs, err := EncodeEnvelope(EventConfig, cfg.Handshake)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, hs); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bridge: handshake: %w", err)
	}

	b := &Bridge{
		cfg:      cfg,
		conn:     conn,
		pointer:  pointer,
		send:     make(chan []byte, cfg.SendQueue),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	b.connected.Store(true)

	logging.Logger().Info("bridge connected", "url", cfg.URL,
		"inbound", cfg.Handshake.Server.String(), "outbound", cfg.Handshake.Client.String())

	go b.readLoop()
	go b.writeLoop()
	return b, nil
}

// SetSurface sets the pixel domain coordinates are mapped onto when
// InputBounds is configured.
func (b *Bridge) SetSurface(w, h float64) {
	s := coord.Surface(w, h)
	b.surface.Store(&s)
}

func (b *Bridge) Connected() bool { return b.connected.Load() }

func (b *Bridge) Stats() Stats {
	return Stats{
		Connected: b.connected.Load(),
		Accepted:  b.accepted.Load(),
		Discarded: b.discarded.Load(),
		Rejected:  b.rejected.Load(),
		Sent:      b.sent.Load(),
	}
}

// Done is closed once the read loop has exited.
func (b *Bridge) Done() <-chan struct{} { return b.readDone }

func (b *Bridge) readLoop() {
	defer close(b.readDone)
	defer b.connected.Store(false)

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			select {
			case <-b.done:
			default:
				logging.Logger().Warn("bridge disconnected", "error", err)
			}
			return
		}
		b.handle(data)
	}
}

func (b *Bridge) handle(data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		b.rejected.Add(1)
		logging.Logger().Warn("bridge: dropping envelope", "error", err)
		return
	}
	if env.Event != EventMessage {
		logging.Logger().Debug("bridge: ignoring event", "event", env.Event)
		return
	}
	frame, err := DecodeFrame(env.Data)
	if err != nil {
		b.rejected.Add(1)
		logging.Logger().Warn("bridge: dropping frame", "error", err)
		return
	}
	if bundle, ok := frame.(Bundle); ok {
		for _, err := range bundle.Skipped {
			b.discarded.Add(1)
			logging.Logger().Warn("bridge: skipping bundle entry", "error", err)
		}
	}
	for _, cmd := range Commands(frame) {
		b.Dispatch(cmd)
	}
}

// Dispatch applies one command. It returns true when the pointer was updated.
func (b *Bridge) Dispatch(cmd Command) bool {
	p, ok := b.accept(cmd)
	if !ok {
		b.discarded.Add(1)
		return false
	}
	b.pointer.MoveTo(p.X, p.Y)
	b.accepted.Add(1)
	return true
}

func (b *Bridge) accept(cmd Command) (vec.Vec2, bool) {
	log := logging.Logger()
	if cmd.Address != b.cfg.Address {
		log.Debug("bridge: unknown address", "address", cmd.Address)
		return vec.Vec2{}, false
	}
	if tag := cmd.TypeTag(); tag != PointerTypeTag {
		log.Warn("bridge: unexpected arguments", "address", cmd.Address, "typetag", tag)
		return vec.Vec2{}, false
	}
	p := vec.New(cmd.Args[0].Float, cmd.Args[1].Float)
	if !p.IsValid() {
		log.Warn("bridge: non-finite coordinates", "x", p.X, "y", p.Y)
		return vec.Vec2{}, false
	}
	if b.cfg.InputBounds == nil {
		return p, true
	}
	surface := b.surface.Load()
	if surface == nil {
		log.Warn("bridge: input bounds set but surface unknown")
		return vec.Vec2{}, false
	}
	mapped, err := b.cfg.InputBounds.MapPoint(p, *surface)
	if err != nil {
		log.Debug("bridge: coordinates out of range", "x", p.X, "y", p.Y, "error", err)
		return vec.Vec2{}, false
	}
	return mapped, true
}

// Send queues a frame for the relay to forward as OSC. It never blocks.
func (b *Bridge) Send(f Frame) error {
	if !b.connected.Load() {
		return ErrNotConnected
	}
	msg, err := EncodeMessage(f)
	if err != nil {
		return err
	}
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	select {
	case b.send <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// SendPointer forwards a local pointer position to the configured address.
func (b *Bridge) SendPointer(x, y float64) error {
	return b.Send(NewCommand(b.cfg.Address, Float(x), Float(y)))
}

func (b *Bridge) writeLoop() {
	defer b.conn.Close()
	for {
		select {
		case msg := <-b.send:
			b.conn.SetWriteDeadline(time.Now().Add(b.cfg.WriteTimeout))
			if err := b.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logging.Logger().Warn("bridge: write failed", "error", err)
				b.connected.Store(false)
				return
			}
			b.sent.Add(1)
		case <-b.readDone:
			return
		case <-b.done:
			b.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(b.cfg.WriteTimeout))
			return
		}
	}
}

// Close stops the bridge. It does not wait for the connection to drain.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.connected.Store(false)
		close(b.done)
	})
	return nil
}
