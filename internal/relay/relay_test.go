package relay

import (
	"net"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hypebeast/go-osc/osc"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/veil/internal/bridge"
)

func freeUDPPort() int {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer pc.Close()
	return pc.LocalAddr().(*net.UDPAddr).Port
}

var _ = Describe("Server", func() {
	var (
		srv    *Server
		ws     *websocket.Conn
		sink   net.PacketConn
		inPort int
		frames chan []byte
	)

	BeforeEach(func() {
		srv = New(DefaultConfig())
		hs := httptest.NewServer(srv.Handler())
		DeferCleanup(hs.Close)

		var err error
		ws, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http"), nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(ws.Close)

		sink, err = net.ListenPacket("udp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sink.Close)

		inPort = freeUDPPort()
		cfg, err := bridge.EncodeEnvelope(bridge.EventConfig, bridge.Handshake{
			Server: bridge.Endpoint{Host: "127.0.0.1", Port: inPort},
			Client: bridge.Endpoint{Host: "127.0.0.1", Port: sink.LocalAddr().(*net.UDPAddr).Port},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ws.WriteMessage(websocket.TextMessage, cfg)).To(Succeed())

		frames = make(chan []byte, 16)
		go func() {
			defer GinkgoRecover()
			for {
				_, msg, err := ws.ReadMessage()
				if err != nil {
					return
				}
				frames <- msg
			}
		}()
	})

	It("relays inbound OSC to the websocket", func() {
		out := osc.NewClient("127.0.0.1", inPort)
		var got []byte
		Eventually(func() bool {
			// the relay binds asynchronously; early packets may be lost.
			_ = out.Send(osc.NewMessage("/kuatro/processing/mediated", float32(10), float32(20)))
			select {
			case got = <-frames:
				return true
			case <-time.After(50 * time.Millisecond):
				return false
			}
		}).WithTimeout(2 * time.Second).Should(BeTrue())

		env, err := bridge.DecodeEnvelope(got)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Event).To(Equal(bridge.EventMessage))
		Expect(string(env.Data)).To(Equal(`["/kuatro/processing/mediated",10.0,20.0]`))
		Expect(srv.Stats().Inbound).To(BeNumerically(">=", 1))
	})

	It("forwards the convertible part of a mixed OSC bundle", func() {
		out := osc.NewClient("127.0.0.1", inPort)
		bundle := osc.NewBundle(time.Now())
		Expect(bundle.Append(osc.NewMessage("/kuatro/processing/mediated", float32(1), float32(2)))).To(Succeed())
		Expect(bundle.Append(osc.NewMessage("/status", true))).To(Succeed())

		var got []byte
		Eventually(func() bool {
			_ = out.Send(bundle)
			select {
			case got = <-frames:
				return true
			case <-time.After(50 * time.Millisecond):
				return false
			}
		}).WithTimeout(2 * time.Second).Should(BeTrue())

		env, err := bridge.DecodeEnvelope(got)
		Expect(err).NotTo(HaveOccurred())
		f, err := bridge.DecodeFrame(env.Data)
		Expect(err).NotTo(HaveOccurred())
		cmds := bridge.Commands(f)
		Expect(cmds).To(HaveLen(1))
		Expect(cmds[0].TypeTag()).To(Equal("ff"))
		Expect(srv.Stats().Dropped).To(BeNumerically(">=", 1))
	})

	It("sends websocket messages out as OSC", func() {
		msg, err := bridge.EncodeMessage(bridge.NewCommand("/echo", bridge.Float(1.5), bridge.Float(2.5)))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, maxPacket)
		Eventually(func() bool {
			Expect(ws.WriteMessage(websocket.TextMessage, msg)).To(Succeed())
			sink.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
			n, _, err := sink.ReadFrom(buf)
			if err != nil {
				return false
			}
			pkt, err := osc.ParsePacket(string(buf[:n]))
			Expect(err).NotTo(HaveOccurred())
			m := pkt.(*osc.Message)
			Expect(m.Address).To(Equal("/echo"))
			Expect(m.Arguments).To(Equal([]interface{}{float32(1.5), float32(2.5)}))
			return true
		}).WithTimeout(2 * time.Second).Should(BeTrue())
	})

	It("survives malformed input", func() {
		Expect(ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"message","data":"nope"}`))).To(Succeed())
		Eventually(func() uint64 { return srv.Stats().Dropped }).Should(BeNumerically(">=", 1))
		Expect(srv.Stats().Clients).To(BeEquivalentTo(1))
	})
})
