package bridge

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const addr = "/kuatro/processing/mediated"

var _ = Describe("DecodeFrame", func() {
	It("decodes a single command", func() {
		f, err := DecodeFrame([]byte(`["/kuatro/processing/mediated", 120.5, 80.0]`))
		Expect(err).NotTo(HaveOccurred())
		cmd, ok := f.(Command)
		Expect(ok).To(BeTrue())
		Expect(cmd.Address).To(Equal(addr))
		Expect(cmd.TypeTag()).To(Equal("ff"))
		Expect(cmd.Args[0].Float).To(Equal(120.5))
	})

	It("unwraps bundle entries in order", func() {
		f, err := DecodeFrame([]byte(`["#bundle", 0, ["/kuatro/processing/mediated", 1.0, 2.0], ["/kuatro/processing/mediated", 3.0, 4.0]]`))
		Expect(err).NotTo(HaveOccurred())
		b, ok := f.(Bundle)
		Expect(ok).To(BeTrue())
		Expect(b.Commands).To(HaveLen(2))
		Expect(b.Commands[0].Args).To(Equal([]Arg{Float(1), Float(2)}))
		Expect(b.Commands[1].Args).To(Equal([]Arg{Float(3), Float(4)}))
	})

	DescribeTable("skips bad bundle entries and keeps the rest",
		func(bad string, want error) {
			raw := `["#bundle", 0, ["/kuatro/processing/mediated", 1.0, 2.0], ` + bad + `, ["/kuatro/processing/mediated", 3.0, 4.0]]`
			f, err := DecodeFrame([]byte(raw))
			Expect(err).NotTo(HaveOccurred())
			b, ok := f.(Bundle)
			Expect(ok).To(BeTrue())
			Expect(b.Commands).To(HaveLen(2))
			Expect(b.Commands[0].Args[0].Float).To(Equal(1.0))
			Expect(b.Commands[1].Args[0].Float).To(Equal(3.0))
			Expect(b.Skipped).To(HaveLen(1))
			var de *DecodeError
			Expect(errors.As(b.Skipped[0], &de)).To(BeTrue())
			Expect(b.Skipped[0]).To(MatchError(want))
		},
		Entry("nested bundle", `["#bundle", 0, ["/a", 1.0]]`, ErrNestedBundle),
		Entry("entry not array", `"/a"`, ErrNotArray),
		Entry("boolean arg", `["/status", true]`, ErrBadArg),
		Entry("empty entry", `[]`, ErrEmptyFrame),
	)

	It("accepts an empty bundle", func() {
		f, err := DecodeFrame([]byte(`["#bundle", [0, 1]]`))
		Expect(err).NotTo(HaveOccurred())
		Expect(Commands(f)).To(BeEmpty())
	})

	DescribeTable("argument typing",
		func(raw string, want Arg) {
			f, err := DecodeFrame([]byte(`["/a", ` + raw + `]`))
			Expect(err).NotTo(HaveOccurred())
			Expect(f.(Command).Args).To(Equal([]Arg{want}))
		},
		Entry("decimal float", `2.5`, Float(2.5)),
		Entry("float with zero fraction", `3.0`, Float(3)),
		Entry("exponent", `1e2`, Float(100)),
		Entry("integer", `7`, Int(7)),
		Entry("negative integer", `-4`, Int(-4)),
		Entry("string", `"hi"`, String("hi")),
		Entry("typed float", `{"type":"f","value":1}`, Float(1)),
		Entry("typed int", `{"type":"i","value":9}`, Int(9)),
		Entry("typed string", `{"type":"s","value":"x"}`, String("x")),
	)

	DescribeTable("rejects malformed frames",
		func(raw string, want error) {
			_, err := DecodeFrame([]byte(raw))
			var de *DecodeError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(err).To(MatchError(want))
		},
		Entry("object", `{"address":"/a"}`, ErrNotArray),
		Entry("empty array", `[]`, ErrEmptyFrame),
		Entry("numeric address", `[1, 2.0]`, ErrBadAddress),
		Entry("empty address", `["", 2.0]`, ErrBadAddress),
		Entry("bundle without timestamp", `["#bundle"]`, ErrShortBundle),
		Entry("boolean arg", `["/a", true]`, ErrBadArg),
		Entry("array arg", `["/a", [1]]`, ErrBadArg),
		Entry("unknown typed arg", `["/a", {"type":"b","value":1}]`, ErrBadArg),
		Entry("fractional typed int", `["/a", {"type":"i","value":1.5}]`, ErrBadArg),
	)
})

var _ = Describe("EncodeFrame", func() {
	It("keeps a decimal point on whole floats", func() {
		b, err := EncodeFrame(NewCommand(addr, Float(1), Int(2), String("s")))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal(`["/kuatro/processing/mediated",1.0,2,"s"]`))
	})

	It("round trips a bundle", func() {
		in := Bundle{Commands: []Command{NewCommand(addr, Float(0.25), Float(-3))}}
		b, err := EncodeFrame(in)
		Expect(err).NotTo(HaveOccurred())

		out, err := DecodeFrame(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(Commands(out)).To(Equal(in.Commands))
	})

	It("refuses non-finite floats", func() {
		_, err := EncodeFrame(NewCommand(addr, Float(0), Float(zero()/zero())))
		Expect(err).To(MatchError(ErrBadArg))
	})

	It("refuses a bundle tag as command address", func() {
		_, err := EncodeFrame(NewCommand(BundleTag))
		Expect(err).To(MatchError(ErrBadAddress))
	})
})

var _ = Describe("Envelope", func() {
	It("round trips the handshake", func() {
		hs := Handshake{Server: Endpoint{Port: 13000, Host: "127.0.0.1"}, Client: Endpoint{Port: 57111, Host: "127.0.0.1"}}
		b, err := EncodeEnvelope(EventConfig, hs)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(b)).To(Equal(`{"event":"config","data":{"server":{"port":13000,"host":"127.0.0.1"},"client":{"port":57111,"host":"127.0.0.1"}}}`))

		env, err := DecodeEnvelope(b)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Event).To(Equal(EventConfig))
	})

	It("rejects unknown events", func() {
		_, err := DecodeEnvelope([]byte(`{"event":"ping","data":null}`))
		Expect(err).To(MatchError(ErrUnknownEvent))
	})
})

func zero() float64 { return 0 }
