package bridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/veil/internal/coord"
	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/vec"
)

type fakeRelay struct {
	srv      *httptest.Server
	received chan []byte
	conns    chan *websocket.Conn
}

func newFakeRelay() *fakeRelay {
	r := &fakeRelay{received: make(chan []byte, 16), conns: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		c, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		r.conns <- c
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			r.received <- msg
		}
	}))
	return r
}

func (r *fakeRelay) url() string { return "ws" + strings.TrimPrefix(r.srv.URL, "http") }

func newDispatcher(cfg Config) (*Bridge, *input.Pointer) {
	p := input.NewPointer(vec.New(5, 5))
	return &Bridge{cfg: cfg, pointer: p}, p
}

var _ = Describe("Dispatch", func() {
	It("moves the pointer for an accepted command", func() {
		b, p := newDispatcher(DefaultConfig())
		Expect(b.Dispatch(NewCommand(addr, Float(10), Float(20)))).To(BeTrue())
		Expect(p.Load().Pos).To(Equal(vec.New(10, 20)))
		Expect(b.Stats().Accepted).To(BeEquivalentTo(1))
	})

	DescribeTable("leaves state untouched",
		func(cmd Command) {
			b, p := newDispatcher(DefaultConfig())
			before := p.Load()
			Expect(b.Dispatch(cmd)).To(BeFalse())
			Expect(p.Load()).To(Equal(before))
			Expect(b.Stats().Discarded).To(BeEquivalentTo(1))
		},
		Entry("wrong address", NewCommand("/other", Float(1), Float(2))),
		Entry("one argument", NewCommand(addr, Float(1))),
		Entry("three arguments", NewCommand(addr, Float(1), Float(2), Float(3))),
		Entry("integer arguments", NewCommand(addr, Int(1), Int(2))),
		Entry("string argument", NewCommand(addr, Float(1), String("2"))),
	)

	It("applies bundle entries in order", func() {
		b, p := newDispatcher(DefaultConfig())
		var seen []vec.Vec2
		f, err := DecodeFrame([]byte(`["#bundle", 0, ["/kuatro/processing/mediated", 1.0, 2.0], ["/kuatro/processing/mediated", 3.0, 4.0]]`))
		Expect(err).NotTo(HaveOccurred())
		for _, cmd := range Commands(f) {
			Expect(b.Dispatch(cmd)).To(BeTrue())
			seen = append(seen, p.Load().Pos)
		}
		Expect(seen).To(Equal([]vec.Vec2{vec.New(1, 2), vec.New(3, 4)}))
		Expect(b.Stats().Accepted).To(BeEquivalentTo(2))
	})

	It("keeps the valid entries when a bundle carries a bad one", func() {
		b, p := newDispatcher(DefaultConfig())
		b.handle([]byte(`{"event":"message","data":["#bundle",0,["/kuatro/processing/mediated",1.0,2.0],["/status",true]]}`))
		Expect(p.Load().Pos).To(Equal(vec.New(1, 2)))
		st := b.Stats()
		Expect(st.Accepted).To(BeEquivalentTo(1))
		Expect(st.Discarded).To(BeEquivalentTo(1))
		Expect(st.Rejected).To(BeZero())
	})

	Context("with input bounds", func() {
		var (
			b *Bridge
			p *input.Pointer
		)

		BeforeEach(func() {
			cfg := DefaultConfig()
			cfg.InputBounds = &coord.Bounds{X: coord.Range{Min: 0, Max: 1000}, Y: coord.Range{Min: 0, Max: 1000}}
			b, p = newDispatcher(cfg)
		})

		It("drops commands until the surface is known", func() {
			Expect(b.Dispatch(NewCommand(addr, Float(500), Float(500)))).To(BeFalse())
		})

		It("maps into the surface", func() {
			b.SetSurface(800, 600)
			Expect(b.Dispatch(NewCommand(addr, Float(500), Float(250)))).To(BeTrue())
			Expect(p.Load().Pos).To(Equal(vec.New(400, 150)))
		})

		It("discards out-of-range coordinates", func() {
			b.SetSurface(800, 600)
			before := p.Load()
			Expect(b.Dispatch(NewCommand(addr, Float(1001), Float(10)))).To(BeFalse())
			Expect(p.Load()).To(Equal(before))
		})
	})
})

var _ = Describe("Bridge", func() {
	var (
		relay *fakeRelay
		cfg   Config
		p     *input.Pointer
	)

	BeforeEach(func() {
		relay = newFakeRelay()
		DeferCleanup(relay.srv.Close)
		cfg = DefaultConfig()
		cfg.URL = relay.url()
		p = input.NewPointer(vec.Vec2{})
	})

	dial := func() (*Bridge, *websocket.Conn) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		b, err := Dial(ctx, cfg, p)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(b.Close)
		var conn *websocket.Conn
		Eventually(relay.conns).Should(Receive(&conn))
		return b, conn
	}

	It("sends the config handshake first", func() {
		b, _ := dial()
		Expect(b.SendPointer(1, 2)).To(Succeed())

		var first, second []byte
		Eventually(relay.received).Should(Receive(&first))
		Expect(string(first)).To(HavePrefix(`{"event":"config"`))
		Expect(string(first)).To(ContainSubstring(`"port":13000`))

		Eventually(relay.received).Should(Receive(&second))
		Expect(string(second)).To(Equal(`{"event":"message","data":["/kuatro/processing/mediated",1.0,2.0]}`))
	})

	It("writes relayed coordinates into the pointer", func() {
		b, conn := dial()
		msg := `{"event":"message","data":["#bundle",0,["/kuatro/processing/mediated",1.0,2.0],["/kuatro/processing/mediated",3.0,4.0]]}`
		Expect(conn.WriteMessage(websocket.TextMessage, []byte(msg))).To(Succeed())

		Eventually(func() vec.Vec2 { return p.Load().Pos }).Should(Equal(vec.New(3, 4)))
		Expect(b.Stats().Accepted).To(BeEquivalentTo(2))
	})

	It("applies the valid entries of a mixed bundle", func() {
		b, conn := dial()
		msg := `{"event":"message","data":["#bundle",0,["/kuatro/processing/mediated",1.0,2.0],["/status",true]]}`
		Expect(conn.WriteMessage(websocket.TextMessage, []byte(msg))).To(Succeed())

		Eventually(func() vec.Vec2 { return p.Load().Pos }).Should(Equal(vec.New(1, 2)))
		Eventually(func() uint64 { return b.Stats().Discarded }).Should(BeEquivalentTo(1))
		st := b.Stats()
		Expect(st.Accepted).To(BeEquivalentTo(1))
		Expect(st.Rejected).To(BeZero())
	})

	It("counts malformed frames without dropping the connection", func() {
		b, conn := dial()
		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"message","data":{"x":1}}`))).To(Succeed())
		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`not json`))).To(Succeed())
		Eventually(func() uint64 { return b.Stats().Rejected }).Should(BeEquivalentTo(2))
		Expect(b.Connected()).To(BeTrue())
	})

	It("reports disconnection", func() {
		b, conn := dial()
		Expect(b.Connected()).To(BeTrue())
		conn.Close()
		Eventually(b.Connected).Should(BeFalse())
		Eventually(b.Done()).Should(BeClosed())
		Expect(b.SendPointer(1, 1)).To(MatchError(ErrNotConnected))
	})

	It("closes without blocking", func() {
		b, _ := dial()
		done := make(chan struct{})
		go func() {
			b.Close()
			b.Close()
			close(done)
		}()
		Eventually(done).WithTimeout(100 * time.Millisecond).Should(BeClosed())
		Expect(b.Connected()).To(BeFalse())
		Eventually(b.Done()).Should(BeClosed())
	})

	It("fails to dial a missing relay", func() {
		cfg.URL = "ws://127.0.0.1:1/"
		_, err := Dial(context.Background(), cfg, p)
		Expect(err).To(HaveOccurred())
	})
})
