// Package config loads the board's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"InkBoard/internal/curve"
	"InkBoard/internal/logging"
	"InkBoard/internal/tool"
)

var ErrInvalidColor = errors.New("invalid color")

type Config struct {
	Canvas CanvasConfig `yaml:"canvas"`
	Brush  ToolConfig   `yaml:"brush"`
	Eraser EraserConfig `yaml:"eraser"`
	Curve  CurveConfig  `yaml:"curve"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type CanvasConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`
}

type ToolConfig struct {
	Color  string `yaml:"color"`
	Radius int    `yaml:"radius"`
}

type EraserConfig struct {
	ToolConfig  `yaml:",inline"`
	Granularity string `yaml:"granularity"`
}

type CurveConfig struct {
	Method string  `yaml:"method"`
	Depth  int     `yaml:"depth"`
	Step   float64 `yaml:"step"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	MDNS bool   `yaml:"mdns"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Canvas: CanvasConfig{Width: 1024, Height: 768, Background: "#ffffff00"},
		Brush:  ToolConfig{Color: "#000000ff", Radius: 10},
		Eraser: EraserConfig{
			ToolConfig:  ToolConfig{Color: "#00000000", Radius: 30},
			Granularity: "line",
		},
		Curve:  CurveConfig{Method: "casteljau", Depth: curve.DefaultDepth, Step: curve.DefaultStep},
		Server: ServerConfig{Addr: ":8888", MDNS: true},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if _, err := ParseColor(c.Canvas.Background); err != nil {
		return fmt.Errorf("canvas background: %w", err)
	}
	if _, err := c.BrushTool(); err != nil {
		return err
	}
	if _, err := c.EraserTool(); err != nil {
		return err
	}
	if _, err := c.Granularity(); err != nil {
		return err
	}
	if err := curve.CheckStep(c.Curve.Step); err != nil {
		return fmt.Errorf("curve.step: %w", err)
	}
	if _, err := c.Interpolator(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c Config) Background() color.NRGBA {
	bg, _ := ParseColor(c.Canvas.Background)
	return bg
}

func (c Config) BrushTool() (tool.Tool, error) {
	return c.Brush.tool(tool.Brush)
}

func (c Config) EraserTool() (tool.Tool, error) {
	return c.Eraser.tool(tool.Eraser)
}

func (c Config) Granularity() (tool.Granularity, error) {
	return tool.ParseGranularity(c.Eraser.Granularity)
}

func (c Config) Interpolator() (curve.Interpolator, error) {
	return curve.New(c.Curve.Method, c.Curve.Depth, c.Curve.Step)
}

// Selector builds a tool selector from the brush and eraser settings.
func (c Config) Selector() (*tool.Selector, error) {
	brush, err := c.BrushTool()
	if err != nil {
		return nil, err
	}
	eraser, err := c.EraserTool()
	if err != nil {
		return nil, err
	}
	g, err := c.Granularity()
	if err != nil {
		return nil, err
	}
	return tool.NewSelector(brush, eraser, g)
}

func (tc ToolConfig) tool(kind tool.Kind) (tool.Tool, error) {
	col, err := ParseColor(tc.Color)
	if err != nil {
		return tool.Tool{}, fmt.Errorf("%s color: %w", kind, err)
	}
	t := tool.Tool{Kind: kind, Color: col, Radius: tc.Radius}
	if err := t.Validate(); err != nil {
		return tool.Tool{}, err
	}
	return t, nil
}

// ParseColor parses "#rrggbb" or "#rrggbbaa" into a straight-alpha colour.
// Alpha defaults to opaque.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
