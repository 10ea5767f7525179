// Package relay bridges OSC over UDP to websocket clients.
//
// A websocket client announces, with a config event, the UDP endpoint the
// relay should listen on and the endpoint it should forward to. Inbound OSC
// packets are pushed to the client as message frames; message frames from
// the client are sent out as OSC.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hypebeast/go-osc/osc"
	"github.com/san-kum/veil/internal/bridge"
	"github.com/san-kum/veil/internal/logging"
)

const maxPacket = 65535

type Config struct {
	Addr         string
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{Addr: "127.0.0.1:8081", WriteTimeout: time.Second}
}

type Stats struct {
	Clients  int64
	Inbound  uint64
	Outbound uint64
	Dropped  uint64
}

type Server struct {
	cfg      Config
	upgrader websocket.Upgrader

	clients  atomic.Int64
	inbound  atomic.Uint64
	outbound atomic.Uint64
	dropped  atomic.Uint64
}

func New(cfg Config) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = time.Second
	}
	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Stats() Stats {
	return Stats{
		Clients:  s.clients.Load(),
		Inbound:  s.inbound.Load(),
		Outbound: s.outbound.Load(),
		Dropped:  s.dropped.Load(),
	}
}

// Handler upgrades every request to a relay websocket.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Logger().Warn("relay: upgrade failed", "error", err)
			return
		}
		c := &client{srv: s, ws: ws}
		s.clients.Add(1)
		defer s.clients.Add(-1)
		c.run()
	})
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	hs := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	logging.Logger().Info("relay listening", "addr", s.cfg.Addr)
	select {
	case err := <-errc:
		return fmt.Errorf("relay: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("relay: shutdown: %w", err)
		}
		return nil
	}
}

// client is one websocket connection and the UDP endpoints it configured.
type client struct {
	srv *Server
	ws  *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	listener net.PacketConn
	out      *osc.Client
}

func (c *client) run() {
	defer c.close()
	log := logging.Logger()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			log.Debug("relay: client gone", "error", err)
			return
		}
		env, err := bridge.DecodeEnvelope(data)
		if err != nil {
			c.srv.dropped.Add(1)
			log.Warn("relay: bad envelope", "error", err)
			continue
		}
		switch env.Event {
		case bridge.EventConfig:
			if err := c.configure(env); err != nil {
				log.Warn("relay: config failed", "error", err)
			}
		case bridge.EventMessage:
			c.forward(env)
		}
	}
}

func (c *client) configure(env bridge.Envelope) error {
	var hs bridge.Handshake
	if err := json.Unmarshal(env.Data, &hs); err != nil {
		return fmt.Errorf("relay: decode handshake: %w", err)
	}
	pc, err := net.ListenPacket("udp", hs.Server.String())
	if err != nil {
		return fmt.Errorf("relay: listen %s: %w", hs.Server, err)
	}

	c.mu.Lock()
	if c.listener != nil {
		c.listener.Close()
	}
	c.listener = pc
	c.out = osc.NewClient(hs.Client.Host, hs.Client.Port)
	c.mu.Unlock()

	logging.Logger().Info("relay configured", "inbound", hs.Server.String(), "outbound", hs.Client.String())
	go c.receive(pc)
	return nil
}

func (c *client) forward(env bridge.Envelope) {
	log := logging.Logger()
	frame, err := bridge.DecodeFrame(env.Data)
	if err != nil {
		c.srv.dropped.Add(1)
		log.Warn("relay: bad frame", "error", err)
		return
	}
	c.mu.Lock()
	out := c.out
	c.mu.Unlock()
	if out == nil {
		c.srv.dropped.Add(1)
		log.Warn("relay: message before config")
		return
	}
	pkt, err := ToOSC(frame)
	if err != nil {
		c.srv.dropped.Add(1)
		log.Warn("relay: convert frame", "error", err)
		return
	}
	if err := out.Send(pkt); err != nil {
		c.srv.dropped.Add(1)
		log.Warn("relay: send osc", "error", err)
		return
	}
	c.srv.outbound.Add(1)
}

func (c *client) receive(pc net.PacketConn) {
	log := logging.Logger()
	buf := make([]byte, maxPacket)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Warn("relay: udp read", "error", err)
			}
			return
		}
		pkt, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			c.srv.dropped.Add(1)
			log.Warn("relay: bad osc packet", "from", from.String(), "error", err)
			continue
		}
		frame, err := FromOSC(pkt)
		if err != nil {
			c.srv.dropped.Add(1)
			log.Warn("relay: convert packet", "error", err)
			continue
		}
		if b, ok := frame.(bridge.Bundle); ok {
			for _, err := range b.Skipped {
				c.srv.dropped.Add(1)
				log.Warn("relay: skipping bundled message", "error", err)
			}
			if len(b.Commands) == 0 {
				continue
			}
		}
		msg, err := bridge.EncodeMessage(frame)
		if err != nil {
			c.srv.dropped.Add(1)
			log.Warn("relay: encode frame", "error", err)
			continue
		}
		if err := c.write(msg); err != nil {
			log.Debug("relay: websocket write", "error", err)
			return
		}
		c.srv.inbound.Add(1)
	}
}

func (c *client) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.srv.cfg.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

func (c *client) close() {
	c.mu.Lock()
	if c.listener != nil {
		c.listener.Close()
		c.listener = nil
	}
	c.mu.Unlock()
	c.ws.Close()
}
