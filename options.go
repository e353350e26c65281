// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertexdemo

import (
	"log/slog"

	"github.com/gogpu/gputypes"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := vertexdemo.New(
//	    vertexdemo.WithBackend("vulkan"),
//	    vertexdemo.WithBasePath("assets"),
//	    vertexdemo.WithClearColor(0, 0, 0, 1),
//	)
type Option func(*options)

// options holds optional Renderer configuration.
type options struct {
	backend     string
	basePath    string
	clear       gputypes.Color
	colorFormat gputypes.TextureFormat
	validate    bool
	logger      *slog.Logger
}

// DefaultClearColor is the dark blue the demo clears to.
var DefaultClearColor = gputypes.Color{R: 0.1, G: 0.1, B: 0.2, A: 1}

func defaultOptions() options {
	return options{
		backend:     "vulkan",
		clear:       DefaultClearColor,
		colorFormat: gputypes.TextureFormatRGBA8Unorm,
	}
}

// WithBackend selects the HAL backend New opens: "vulkan" (default) or
// "noop". It has no effect on NewWithProvider.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithBasePath sets the directory searched for <name>.wgsl shader
// overrides. An empty path uses only the built-in shaders.
//
// Example:
//
//	// assets/triangle.wgsl replaces the built-in triangle shader.
//	r, err := vertexdemo.New(vertexdemo.WithBasePath("assets"))
func WithBasePath(dir string) Option {
	return func(o *options) {
		o.basePath = dir
	}
}

// WithClearColor sets the colour every frame is cleared to. Components are
// in the 0..1 range.
func WithClearColor(r, g, b, a float64) Option {
	return func(o *options) {
		o.clear = gputypes.Color{R: r, G: g, B: b, A: a}
	}
}

// WithColorFormat sets the colour format of image targets. Only
// RGBA8Unorm and BGRA8Unorm can be read back.
func WithColorFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.colorFormat = f
	}
}

// WithShaderValidation compiles every shader through naga before creating
// its pipeline, so WGSL errors surface with source positions instead of as
// driver failures.
func WithShaderValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithLogger sets a logger for this Renderer only. Without it the Renderer
// uses the package logger from Logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
