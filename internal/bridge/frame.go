package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BundleTag is the leading element of a bundle frame.
const BundleTag = "#bundle"

// Type tags, one per argument.
const (
	TypeFloat  byte = 'f'
	TypeInt    byte = 'i'
	TypeString byte = 's'
)

// Arg is one typed command argument.
type Arg struct {
	Type  byte
	Float float64
	Int   int64
	Str   string
}

func Float(v float64) Arg { return Arg{Type: TypeFloat, Float: v} }
func Int(v int64) Arg     { return Arg{Type: TypeInt, Int: v} }
func String(v string) Arg { return Arg{Type: TypeString, Str: v} }

// Number returns the argument as a float for numeric types.
func (a Arg) Number() (float64, bool) {
	switch a.Type {
	case TypeFloat:
		return a.Float, true
	case TypeInt:
		return float64(a.Int), true
	}
	return 0, false
}

func (a Arg) String() string {
	switch a.Type {
	case TypeFloat:
		return strconv.FormatFloat(a.Float, 'g', -1, 64)
	case TypeInt:
		return strconv.FormatInt(a.Int, 10)
	case TypeString:
		return strconv.Quote(a.Str)
	}
	return "?"
}

// Frame is either a Command or a Bundle.
type Frame interface {
	isFrame()
}

// Command is a single addressed message.
type Command struct {
	Address string
	Args    []Arg
}

// Bundle groups commands under one timestamp. Bundles do not nest.
type Bundle struct {
	Timestamp json.RawMessage
	Commands  []Command
	// Skipped holds one error per entry that could not be decoded. Those
	// entries are dropped without affecting the rest of the bundle.
	Skipped []error
}

func (Command) isFrame() {}
func (Bundle) isFrame()  {}

// NewCommand builds a command from address and args.
func NewCommand(address string, args ...Arg) Command {
	return Command{Address: address, Args: args}
}

// TypeTag is the concatenated type of every argument, e.g. "ff".
func (c Command) TypeTag() string {
	var b strings.Builder
	for _, a := range c.Args {
		b.WriteByte(a.Type)
	}
	return b.String()
}

func (c Command) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Address + " " + strings.Join(parts, " ")
}

// Commands flattens a frame to the commands it carries, in order.
func Commands(f Frame) []Command {
	switch v := f.(type) {
	case Command:
		return []Command{v}
	case Bundle:
		return v.Commands
	}
	return nil
}

// DecodeFrame classifies raw message data as a Command or a Bundle.
// Anything else is returned as a *DecodeError. A bad bundle entry,
// including a nested bundle, is recorded in Bundle.Skipped and the other
// entries are kept.
func DecodeFrame(raw []byte) (Frame, error) {
	elems, head, err := splitFrame(raw)
	if err != nil {
		return nil, decodeErr(raw, err)
	}
	if head != BundleTag {
		cmd, err := decodeCommand(head, elems[1:])
		if err != nil {
			return nil, decodeErr(raw, err)
		}
		return cmd, nil
	}

	if len(elems) < 2 {
		return nil, decodeErr(raw, ErrShortBundle)
	}
	b := Bundle{Timestamp: elems[1], Commands: make([]Command, 0, len(elems)-2)}
	for i, entry := range elems[2:] {
		cmd, err := decodeEntry(entry)
		if err != nil {
			b.Skipped = append(b.Skipped, decodeErr(entry, fmt.Errorf("entry %d: %w", i, err)))
			continue
		}
		b.Commands = append(b.Commands, cmd)
	}
	return b, nil
}

func decodeEntry(raw json.RawMessage) (Command, error) {
	inner, addr, err := splitFrame(raw)
	if err != nil {
		return Command{}, err
	}
	if addr == BundleTag {
		return Command{}, ErrNestedBundle
	}
	return decodeCommand(addr, inner[1:])
}

func splitFrame(raw []byte) ([]json.RawMessage, string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, "", ErrNotArray
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	if len(elems) == 0 {
		return nil, "", ErrEmptyFrame
	}
	var head string
	if err := json.Unmarshal(elems[0], &head); err != nil || head == "" {
		return nil, "", ErrBadAddress
	}
	return elems, head, nil
}

func decodeCommand(address string, rawArgs []json.RawMessage) (Command, error) {
	cmd := Command{Address: address, Args: make([]Arg, 0, len(rawArgs))}
	for i, r := range rawArgs {
		a, err := decodeArg(r)
		if err != nil {
			return Command{}, fmt.Errorf("arg %d: %w", i, err)
		}
		cmd.Args = append(cmd.Args, a)
	}
	return cmd, nil
}

type typedArg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func decodeArg(raw json.RawMessage) (Arg, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Arg{}, ErrBadArg
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Arg{}, fmt.Errorf("%w: %v", ErrBadArg, err)
		}
		return String(s), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return decodeNumber(string(raw))
	case c == '{':
		var t typedArg
		if err := json.Unmarshal(raw, &t); err != nil {
			return Arg{}, fmt.Errorf("%w: %v", ErrBadArg, err)
		}
		return decodeTyped(t)
	}
	return Arg{}, fmt.Errorf("%w: %s", ErrBadArg, raw)
}

func decodeNumber(s string) (Arg, error) {
	if !strings.ContainsAny(s, ".eE") {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(v), nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Arg{}, fmt.Errorf("%w: %v", ErrBadArg, err)
	}
	return Float(v), nil
}

func decodeTyped(t typedArg) (Arg, error) {
	switch t.Type {
	case "f", "d":
		var v float64
		if err := json.Unmarshal(t.Value, &v); err != nil {
			return Arg{}, fmt.Errorf("%w: %v", ErrBadArg, err)
		}
		return Float(v), nil
	case "i", "h":
		var v float64
		if err := json.Unmarshal(t.Value, &v); err != nil || v != math.Trunc(v) {
			return Arg{}, fmt.Errorf("%w: integer value %s", ErrBadArg, t.Value)
		}
		return Int(int64(v)), nil
	case "s":
		var v string
		if err := json.Unmarshal(t.Value, &v); err != nil {
			return Arg{}, fmt.Errorf("%w: %v", ErrBadArg, err)
		}
		return String(v), nil
	}
	return Arg{}, fmt.Errorf("%w: type %q", ErrBadArg, t.Type)
}

// EncodeFrame renders a frame as a JSON array. Floats always carry a
// decimal point so their type survives decoding.
func EncodeFrame(f Frame) ([]byte, error) {
	switch v := f.(type) {
	case Command:
		return encodeCommand(v)
	case Bundle:
		ts := v.Timestamp
		if len(ts) == 0 {
			ts = json.RawMessage("0")
		}
		elems := []json.RawMessage{json.RawMessage(strconv.Quote(BundleTag)), ts}
		for _, c := range v.Commands {
			b, err := encodeCommand(c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, b)
		}
		return json.Marshal(elems)
	}
	return nil, fmt.Errorf("bridge: cannot encode %T", f)
}

func encodeCommand(c Command) ([]byte, error) {
	if c.Address == "" || c.Address == BundleTag {
		return nil, ErrBadAddress
	}
	addr, _ := json.Marshal(c.Address)
	elems := make([]json.RawMessage, 0, len(c.Args)+1)
	elems = append(elems, addr)
	for _, a := range c.Args {
		b, err := encodeArg(a)
		if err != nil {
			return nil, err
		}
		elems = append(elems, b)
	}
	return json.Marshal(elems)
}

func encodeArg(a Arg) (json.RawMessage, error) {
	switch a.Type {
	case TypeFloat:
		if math.IsNaN(a.Float) || math.IsInf(a.Float, 0) {
			return nil, fmt.Errorf("%w: non-finite float", ErrBadArg)
		}
		s := strconv.FormatFloat(a.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return json.RawMessage(s), nil
	case TypeInt:
		return json.RawMessage(strconv.FormatInt(a.Int, 10)), nil
	case TypeString:
		b, err := json.Marshal(a.Str)
		return b, err
	}
	return nil, fmt.Errorf("%w: type %q", ErrBadArg, a.Type)
}
