package relay

import (
	"time"

	"github.com/hypebeast/go-osc/osc"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/veil/internal/bridge"
)

const addr = "/kuatro/processing/mediated"

var _ = Describe("FromOSC", func() {
	It("converts a float message to an ff command", func() {
		f, err := FromOSC(osc.NewMessage(addr, float32(0.5), float32(12)))
		Expect(err).NotTo(HaveOccurred())
		cmd := f.(bridge.Command)
		Expect(cmd.TypeTag()).To(Equal("ff"))
		Expect(cmd.Args[1].Float).To(Equal(12.0))
	})

	It("keeps floats typed across the json hop", func() {
		f, err := FromOSC(osc.NewMessage(addr, float32(3), float32(4)))
		Expect(err).NotTo(HaveOccurred())
		raw, err := bridge.EncodeFrame(f)
		Expect(err).NotTo(HaveOccurred())

		back, err := bridge.DecodeFrame(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(back.(bridge.Command).TypeTag()).To(Equal("ff"))
	})

	It("flattens nested bundles", func() {
		inner := osc.NewBundle(time.Now())
		Expect(inner.Append(osc.NewMessage(addr, float32(3), float32(4)))).To(Succeed())
		outer := osc.NewBundle(time.Now())
		Expect(outer.Append(osc.NewMessage(addr, float32(1), float32(2)))).To(Succeed())
		Expect(outer.Append(inner)).To(Succeed())

		f, err := FromOSC(outer)
		Expect(err).NotTo(HaveOccurred())
		cmds := bridge.Commands(f)
		Expect(cmds).To(HaveLen(2))
		Expect(cmds[0].Args[0].Float).To(Equal(1.0))
		Expect(cmds[1].Args[0].Float).To(Equal(3.0))
	})

	It("maps integer and string arguments", func() {
		f, err := FromOSC(osc.NewMessage("/a", int32(7), "x"))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.(bridge.Command).Args).To(Equal([]bridge.Arg{bridge.Int(7), bridge.String("x")}))
	})

	It("keeps convertible messages of a mixed bundle", func() {
		b := osc.NewBundle(time.Now())
		Expect(b.Append(osc.NewMessage(addr, float32(1), float32(2)))).To(Succeed())
		Expect(b.Append(osc.NewMessage("/status", true))).To(Succeed())
		Expect(b.Append(osc.NewMessage(addr, float32(3), float32(4)))).To(Succeed())

		f, err := FromOSC(b)
		Expect(err).NotTo(HaveOccurred())
		bundle := f.(bridge.Bundle)
		Expect(bundle.Commands).To(HaveLen(2))
		Expect(bundle.Commands[0].Args[0].Float).To(Equal(1.0))
		Expect(bundle.Commands[1].Args[0].Float).To(Equal(3.0))
		Expect(bundle.Skipped).To(HaveLen(1))
		Expect(bundle.Skipped[0]).To(MatchError(ErrUnsupportedArg))
	})

	It("rejects unsupported arguments", func() {
		_, err := FromOSC(osc.NewMessage("/a", true))
		Expect(err).To(MatchError(ErrUnsupportedArg))
	})
})

var _ = Describe("ToOSC", func() {
	It("sends floats as 32-bit values", func() {
		p, err := ToOSC(bridge.NewCommand(addr, bridge.Float(1.5), bridge.Int(2), bridge.String("s")))
		Expect(err).NotTo(HaveOccurred())
		m := p.(*osc.Message)
		Expect(m.Address).To(Equal(addr))
		Expect(m.Arguments).To(Equal([]interface{}{float32(1.5), int32(2), "s"}))
	})

	It("builds a bundle of messages", func() {
		p, err := ToOSC(bridge.Bundle{Commands: []bridge.Command{
			bridge.NewCommand(addr, bridge.Float(1), bridge.Float(2)),
			bridge.NewCommand(addr, bridge.Float(3), bridge.Float(4)),
		}})
		Expect(err).NotTo(HaveOccurred())
		b := p.(*osc.Bundle)
		Expect(b.Messages).To(HaveLen(2))
		Expect(b.Messages[1].Arguments).To(Equal([]interface{}{float32(3), float32(4)}))
	})
})
