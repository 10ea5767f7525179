package relay

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/san-kum/veil/internal/bridge"
)

var ErrUnsupportedArg = errors.New("relay: unsupported OSC argument")

// FromOSC converts a decoded OSC packet to a bridge frame. Nested bundles
// are flattened into a single bundle, depth first. A bundled message that
// cannot be converted is recorded in Bundle.Skipped and its siblings are
// kept.
func FromOSC(p osc.Packet) (bridge.Frame, error) {
	switch v := p.(type) {
	case *osc.Message:
		return commandFromOSC(v)
	case *osc.Bundle:
		b := bridge.Bundle{Timestamp: []byte(strconv.FormatInt(time.Now().UnixMilli(), 10))}
		flatten(v, &b)
		return b, nil
	}
	return nil, fmt.Errorf("relay: unknown packet %T", p)
}

func flatten(src *osc.Bundle, dst *bridge.Bundle) {
	for _, m := range src.Messages {
		cmd, err := commandFromOSC(m)
		if err != nil {
			dst.Skipped = append(dst.Skipped, err)
			continue
		}
		dst.Commands = append(dst.Commands, cmd)
	}
	for _, inner := range src.Bundles {
		flatten(inner, dst)
	}
}

func commandFromOSC(m *osc.Message) (bridge.Command, error) {
	cmd := bridge.Command{Address: m.Address, Args: make([]bridge.Arg, 0, len(m.Arguments))}
	for i, a := range m.Arguments {
		var arg bridge.Arg
		switch v := a.(type) {
		case float32:
			arg = bridge.Float(float64(v))
		case float64:
			arg = bridge.Float(v)
		case int32:
			arg = bridge.Int(int64(v))
		case int64:
			arg = bridge.Int(v)
		case string:
			arg = bridge.String(v)
		default:
			return bridge.Command{}, fmt.Errorf("%w: %s arg %d is %T", ErrUnsupportedArg, m.Address, i, a)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// ToOSC converts a bridge frame to an OSC packet. Floats are sent as
// 32-bit 'f' arguments and integers as 32-bit 'i'.
func ToOSC(f bridge.Frame) (osc.Packet, error) {
	switch v := f.(type) {
	case bridge.Command:
		return messageToOSC(v), nil
	case bridge.Bundle:
		b := osc.NewBundle(time.Now())
		for _, cmd := range v.Commands {
			if err := b.Append(messageToOSC(cmd)); err != nil {
				return nil, fmt.Errorf("relay: bundle: %w", err)
			}
		}
		return b, nil
	}
	return nil, fmt.Errorf("relay: unknown frame %T", f)
}

func messageToOSC(cmd bridge.Command) *osc.Message {
	m := osc.NewMessage(cmd.Address)
	for _, a := range cmd.Args {
		switch a.Type {
		case bridge.TypeFloat:
			m.Append(float32(a.Float))
		case bridge.TypeInt:
			m.Append(int32(a.Int))
		case bridge.TypeString:
			m.Append(a.Str)
		}
	}
	return m
}
