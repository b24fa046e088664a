// Package config loads canopy tool settings from TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/canopy"
)

// Defaults.
const (
	DefaultWidth      = 960
	DefaultHeight     = 540
	DefaultScale      = 1.0
	DefaultFrames     = 60
	DefaultClearColor = "black"
	DefaultOutput     = "canopy.png"
)

// ErrUnsupportedFormat is returned by Load for a file extension other than
// .toml, .yaml or .yml.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Config holds the settings shared by the canopy commands. Zero values are
// filled in by Default before a file or flags override them.
type Config struct {
	// Backend names a registered backend; empty selects the default.
	Backend string `toml:"backend" yaml:"backend"`

	Width  int     `toml:"width" yaml:"width"`
	Height int     `toml:"height" yaml:"height"`
	Scale  float64 `toml:"scale" yaml:"scale"`

	// Frames is how many frames the render command draws.
	Frames int `toml:"frames" yaml:"frames"`

	// ClearColor is a CSS color name.
	ClearColor string `toml:"clear_color" yaml:"clear_color"`

	Debug  bool   `toml:"debug" yaml:"debug"`
	Output string `toml:"output" yaml:"output"`

	// Cache enables offscreen caching of the static panels in the demo scene.
	Cache bool `toml:"cache" yaml:"cache"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Scale:      DefaultScale,
		Frames:     DefaultFrames,
		ClearColor: DefaultClearColor,
		Output:     DefaultOutput,
		Cache:      true,
	}
}

// Load reads path over the defaults. The format is chosen by extension.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(&cfg, data, filepath.Ext(path)); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals data in the format named by ext into cfg. Keys missing
// from data keep their current values.
func Decode(cfg *Config, data []byte, ext string) error {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case "yaml", "yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: size %dx%d must be positive", c.Width, c.Height)
	case c.Scale <= 0:
		return fmt.Errorf("config: scale %v must be positive", c.Scale)
	case c.Frames < 0:
		return fmt.Errorf("config: frames %d must not be negative", c.Frames)
	}
	if _, err := c.Color(); err != nil {
		return err
	}
	return nil
}

// Color resolves ClearColor. An empty name is transparent.
func (c Config) Color() (canopy.Color, error) {
	if c.ClearColor == "" {
		return canopy.ColorTransparent, nil
	}
	col, ok := canopy.ColorFromName(c.ClearColor)
	if !ok {
		return canopy.Color{}, fmt.Errorf("config: unknown color %q", c.ClearColor)
	}
	return col, nil
}
