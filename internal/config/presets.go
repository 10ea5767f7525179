package config

import (
	"sort"

	"github.com/san-kum/veil/internal/bridge"
	"github.com/san-kum/veil/internal/coord"
)

func localhost(port int) bridge.Endpoint {
	return bridge.Endpoint{Port: port, Host: "127.0.0.1"}
}

var Presets = map[string]*Config{
	"veil": {
		Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS,
		Palettes: []string{"ember"}, Shaded: true,
		Bridge: BridgeConfig{
			Enabled: true, URL: DefaultRelayURL, Address: DefaultAddress,
			Inbound: localhost(13000), Outbound: localhost(57111), SendQueue: 64,
		},
	},
	"unified": {
		Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS,
		Palettes: []string{"ember", "bloom"}, Shaded: true,
		Bridge: BridgeConfig{
			Enabled: true, URL: DefaultRelayURL, Address: DefaultAddress,
			Inbound: localhost(57111), Outbound: localhost(57110), SendQueue: 64,
		},
	},
	"kinect": {
		Width: 1024, Height: 768, FPS: DefaultFPS,
		Palettes: []string{"bloom"}, Shaded: true,
		Bridge: BridgeConfig{
			Enabled: true, URL: DefaultRelayURL, Address: DefaultAddress,
			Inbound: localhost(57111), Outbound: localhost(57110), SendQueue: 64,
			InputBounds: &coord.Bounds{
				X: coord.Range{Min: 0, Max: 1000},
				Y: coord.Range{Min: 0, Max: 1000},
			},
		},
	},
	"offline": {
		Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS,
		Palettes: []string{"ember", "bloom"}, Shaded: true,
	},
}

// GetPreset returns a copy of the named preset with defaults filled in,
// or nil when the preset does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Preset = name
	cfg.Palettes = append([]string(nil), p.Palettes...)
	if p.Bridge.InputBounds != nil {
		b := *p.Bridge.InputBounds
		cfg.Bridge.InputBounds = &b
	}
	def := DefaultConfig()
	if cfg.Relay.Addr == "" {
		cfg.Relay = def.Relay
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.Bridge.URL == "" {
		cfg.Bridge.URL = def.Bridge.URL
		cfg.Bridge.Address = def.Bridge.Address
		cfg.Bridge.Inbound = def.Bridge.Inbound
		cfg.Bridge.Outbound = def.Bridge.Outbound
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
