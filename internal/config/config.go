// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads the vertexdemo command configuration from YAML and
// merges command-line flags over it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/vertexdemo"
	"github.com/gogpu/vertexdemo/internal/imageout"
	"github.com/gogpu/vertexdemo/vertex"
)

// ErrInvalid is returned by Validate for an unusable configuration.
var ErrInvalid = errors.New("config: invalid configuration")

// Defaults applied by Resolve.
const (
	DefaultBackend = "vulkan"
	DefaultStage   = "mesh"
	DefaultKind    = "PositionNormalColorUV"
	DefaultSize    = 512
	DefaultOutput  = "vertexdemo.png"
)

// Config holds every setting of the vertexdemo command.
type Config struct {
	// Shaders
	BasePath        string `yaml:"base_path"`
	ValidateShaders bool   `yaml:"validate"`

	// Device and frame
	Backend    string    `yaml:"backend"`
	Stage      string    `yaml:"stage"`
	Kind       string    `yaml:"kind"`
	Mesh       string    `yaml:"mesh"`
	ClearColor []float64 `yaml:"clear_color"`

	// Output
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	Supersample int    `yaml:"supersample"`
	Output      string `yaml:"output"`
	Format      string `yaml:"format"`

	Window bool `yaml:"window"`
}

// Flags holds command-line values that override the file. Zero values
// leave the file setting alone.
type Flags struct {
	BasePath    string
	Validate    bool
	Backend     string
	Stage       string
	Kind        string
	Mesh        string
	ClearColor  string
	Width       int
	Height      int
	Supersample int
	Output      string
	Format      string
	Window      bool
}

// Load reads a YAML config file. Unknown keys are rejected; an empty file
// yields a zero Config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve merges flags over c and fills remaining empty fields with
// defaults.
func (c *Config) Resolve(flags Flags) error {
	if flags.BasePath != "" {
		c.BasePath = flags.BasePath
	}
	if flags.Validate {
		c.ValidateShaders = true
	}
	if flags.Backend != "" {
		c.Backend = flags.Backend
	}
	if flags.Stage != "" {
		c.Stage = flags.Stage
	}
	if flags.Kind != "" {
		c.Kind = flags.Kind
	}
	if flags.Mesh != "" {
		c.Mesh = flags.Mesh
	}
	if flags.ClearColor != "" {
		rgba, err := ParseColor(flags.ClearColor)
		if err != nil {
			return err
		}
		c.ClearColor = rgba
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Window {
		c.Window = true
	}

	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.Stage == "" {
		c.Stage = DefaultStage
	}
	if c.Kind == "" {
		c.Kind = DefaultKind
	}
	if c.Width <= 0 {
		c.Width = DefaultSize
	}
	if c.Height <= 0 {
		c.Height = DefaultSize
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if len(c.ClearColor) == 0 {
		d := vertexdemo.DefaultClearColor
		c.ClearColor = []float64{d.R, d.G, d.B, d.A}
	}
	return nil
}

// Settings is the typed form of a validated Config.
type Settings struct {
	Stage vertexdemo.Stage
	Kind  vertex.Kind
	Clear [4]float64
}

// Validate checks a resolved Config and returns its typed settings.
func (c *Config) Validate() (Settings, error) {
	var s Settings
	stage, err := vertexdemo.ParseStage(c.Stage)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	kind, err := vertex.ParseKind(c.Kind)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(c.ClearColor) != 4 {
		return s, fmt.Errorf("%w: clear_color needs 4 components, got %d", ErrInvalid, len(c.ClearColor))
	}
	for i, v := range c.ClearColor {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return s, fmt.Errorf("%w: clear_color[%d] = %v outside 0..1", ErrInvalid, i, v)
		}
		s.Clear[i] = v
	}
	if c.Supersample > 8 {
		return s, fmt.Errorf("%w: supersample %d exceeds 8", ErrInvalid, c.Supersample)
	}
	if !c.Window {
		if _, err := imageout.FormatFor(c.Output, c.Format); err != nil {
			return s, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	s.Stage = stage
	s.Kind = kind
	return s, nil
}

// ParseColor parses "r,g,b" or "r,g,b,a" with components in 0..1. Alpha
// defaults to 1.
func ParseColor(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return nil, fmt.Errorf("%w: colour %q needs 3 or 4 components", ErrInvalid, s)
	}
	rgba := []float64{0, 0, 0, 1}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: colour %q: %w", ErrInvalid, s, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: colour %q: component %d is not a number", ErrInvalid, s, i)
		}
		rgba[i] = v
	}
	return rgba, nil
}
