package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/veil/internal/bridge"
	"github.com/san-kum/veil/internal/coord"
	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/relay"
)

const (
	DefaultWidth    = 800
	DefaultHeight   = 600
	DefaultFPS      = 60
	DefaultRelayURL = "ws://127.0.0.1:8081/"
	DefaultAddress  = "/kuatro/processing/mediated"
	DefaultDataDir  = ".veil"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Preset   string              `yaml:"preset,omitempty"`
	Width    int                 `yaml:"width"`
	Height   int                 `yaml:"height"`
	FPS      int                 `yaml:"fps"`
	Seed     int64               `yaml:"seed"`
	Palettes []string            `yaml:"palettes"`
	Custom   map[string][]string `yaml:"custom_palettes,omitempty"`
	Shaded   bool                `yaml:"shaded"`
	Bridge   BridgeConfig        `yaml:"bridge"`
	Relay    RelayConfig         `yaml:"relay"`
	DataDir  string              `yaml:"data_dir"`
	LogLevel string              `yaml:"log_level"`
}

type BridgeConfig struct {
	Enabled     bool            `yaml:"enabled"`
	URL         string          `yaml:"url"`
	Address     string          `yaml:"address"`
	Inbound     bridge.Endpoint `yaml:"inbound"`
	Outbound    bridge.Endpoint `yaml:"outbound"`
	Echo        bool            `yaml:"echo"`
	InputBounds *coord.Bounds   `yaml:"input_bounds,omitempty"`
	SendQueue   int             `yaml:"send_queue"`
}

type RelayConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		FPS:      DefaultFPS,
		Palettes: []string{"ember"},
		Shaded:   true,
		Bridge: BridgeConfig{
			Enabled:   true,
			URL:       DefaultRelayURL,
			Address:   DefaultAddress,
			Inbound:   bridge.Endpoint{Port: 13000, Host: "127.0.0.1"},
			Outbound:  bridge.Endpoint{Port: 57111, Host: "127.0.0.1"},
			SendQueue: 64,
		},
		Relay:    RelayConfig{Addr: "127.0.0.1:8081"},
		DataDir:  DefaultDataDir,
		LogLevel: "warn",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Preset != "" {
		base := GetPreset(cfg.Preset)
		if base == nil {
			return nil, fmt.Errorf("%w: unknown preset %q", ErrInvalid, cfg.Preset)
		}
		// file values win over the preset
		if err := yaml.Unmarshal(data, base); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		cfg = base
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("surface %dx%d must be positive", c.Width, c.Height))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps %d must be positive", c.FPS))
	}
	if _, err := c.ResolvePalettes(); err != nil {
		errs = append(errs, err)
	}
	if c.Bridge.Enabled {
		if !strings.HasPrefix(c.Bridge.Address, "/") {
			errs = append(errs, fmt.Errorf("bridge address %q must start with /", c.Bridge.Address))
		}
		for _, ep := range []bridge.Endpoint{c.Bridge.Inbound, c.Bridge.Outbound} {
			if ep.Port <= 0 || ep.Port > 65535 {
				errs = append(errs, fmt.Errorf("port %d out of range", ep.Port))
			}
		}
		if b := c.Bridge.InputBounds; b != nil && (b.X.Span() == 0 || b.Y.Span() == 0) {
			errs = append(errs, fmt.Errorf("input bounds: %w", coord.ErrEmptyRange))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// ResolvePalettes looks up every configured palette name, custom palettes
// first, then the built-ins.
func (c *Config) ResolvePalettes() ([]particles.Palette, error) {
	if len(c.Palettes) == 0 {
		return nil, particles.ErrEmptyPalette
	}
	out := make([]particles.Palette, 0, len(c.Palettes))
	for _, name := range c.Palettes {
		if hex, ok := c.Custom[name]; ok {
			p, err := particles.ParsePalette(name, hex)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
			continue
		}
		p, ok := particles.NamedPalettes[name]
		if !ok {
			return nil, fmt.Errorf("unknown palette %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}

// BridgeSettings converts the bridge section for bridge.Dial.
func (c *Config) BridgeSettings() bridge.Config {
	bc := bridge.DefaultConfig()
	bc.URL = c.Bridge.URL
	bc.Address = c.Bridge.Address
	bc.Handshake = bridge.Handshake{Server: c.Bridge.Inbound, Client: c.Bridge.Outbound}
	bc.InputBounds = c.Bridge.InputBounds
	if c.Bridge.SendQueue > 0 {
		bc.SendQueue = c.Bridge.SendQueue
	}
	return bc
}

func (c *Config) RelaySettings() relay.Config {
	rc := relay.DefaultConfig()
	if c.Relay.Addr != "" {
		rc.Addr = c.Relay.Addr
	}
	return rc
}
