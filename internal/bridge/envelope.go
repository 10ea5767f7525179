package bridge

import (
	"encoding/json"
	"fmt"
)

// Event names carried in the envelope.
const (
	EventConfig  = "config"
	EventMessage = "message"
)

// Envelope is one websocket text message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Endpoint is a host/port pair for one side of the OSC relay.
type Endpoint struct {
	Port int    `json:"port" yaml:"port"`
	Host string `json:"host" yaml:"host"`
}

func (e Endpoint) String() string { return fmt.Sprintf("%s:%d", e.Host, e.Port) }

// Handshake is the config payload sent once per connection. Server is
// where the relay listens for inbound OSC; Client is where it sends
// outbound OSC.
type Handshake struct {
	Server Endpoint `json:"server"`
	Client Endpoint `json:"client"`
}

func EncodeEnvelope(event string, data any) ([]byte, error) {
	var raw json.RawMessage
	switch v := data.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("bridge: encode %s: %w", event, err)
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("bridge: decode envelope: %w", err)
	}
	switch env.Event {
	case EventConfig, EventMessage:
		return env, nil
	}
	return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
}

// EncodeMessage wraps a frame in a message envelope.
func EncodeMessage(f Frame) ([]byte, error) {
	b, err := EncodeFrame(f)
	if err != nil {
		return nil, err
	}
	return EncodeEnvelope(EventMessage, json.RawMessage(b))
}
