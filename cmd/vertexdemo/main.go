// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command vertexdemo renders the vertex layout demo headless into image
// files, or live into a gogpu window.
//
// Usage:
//
//	vertexdemo [flags]
//
// Examples:
//
//	vertexdemo -stage triangle -output triangle.png
//	vertexdemo -stage mesh -kind PositionNormalUV -supersample 2 -output cube.webp
//	vertexdemo -all -output renders/ -format tga
//	vertexdemo -describe
//	vertexdemo -window
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/vertexdemo"
	"github.com/gogpu/vertexdemo/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "vertexdemo: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and dispatches to one mode.
func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("vertexdemo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile = fs.String("config", "", "YAML config file")
		verbose    = fs.Bool("v", false, "debug logging")
		describe   = fs.Bool("describe", false, "print vertex layouts and exit")
		all        = fs.Bool("all", false, "render the mesh stage for every vertex kind into -output as a directory")

		flags config.Flags
	)
	fs.StringVar(&flags.BasePath, "base", "", "directory with <name>.wgsl shader overrides")
	fs.BoolVar(&flags.Validate, "validate", false, "validate shaders with naga before pipeline creation")
	fs.StringVar(&flags.Backend, "backend", "", "GPU backend: vulkan or noop (default vulkan)")
	fs.StringVar(&flags.Stage, "stage", "", "stage: clear, triangle or mesh (default mesh)")
	fs.StringVar(&flags.Kind, "kind", "", "vertex kind, e.g. PositionColor (default PositionNormalColorUV)")
	fs.StringVar(&flags.Mesh, "mesh", "", "mesh: cube, quad, triangle or a .gltf/.glb file (default cube)")
	fs.StringVar(&flags.ClearColor, "clear", "", "clear colour r,g,b[,a] in 0..1")
	fs.IntVar(&flags.Width, "width", 0, "image width (default 512)")
	fs.IntVar(&flags.Height, "height", 0, "image height (default 512)")
	fs.IntVar(&flags.Supersample, "supersample", 0, "render at N times the size and downscale (default 1)")
	fs.StringVar(&flags.Output, "output", "", "output file, or directory with -all (default vertexdemo.png)")
	fs.StringVar(&flags.Format, "format", "", "image format: png, webp or tga (default from extension)")
	fs.BoolVar(&flags.Window, "window", false, "open a window instead of writing a file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	vertexdemo.SetLogger(log)

	if *describe {
		return describeKinds(stdout, flags.Kind)
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return err
		}
	}
	if *all {
		if flags.Output == "" && cfg.Output == "" {
			flags.Output = "renders"
		}
		if flags.Format == "" && cfg.Format == "" {
			flags.Format = "png"
		}
	}
	if err := cfg.Resolve(flags); err != nil {
		return err
	}
	settings, err := cfg.Validate()
	if err != nil {
		return err
	}

	opts := []vertexdemo.Option{
		vertexdemo.WithBasePath(cfg.BasePath),
		vertexdemo.WithShaderValidation(cfg.ValidateShaders),
		vertexdemo.WithClearColor(settings.Clear[0], settings.Clear[1], settings.Clear[2], settings.Clear[3]),
		vertexdemo.WithLogger(log),
	}

	switch {
	case cfg.Window:
		return runWindow(cfg, settings, opts, log)
	case *all:
		return renderAll(cfg, opts, stderr, log)
	default:
		return renderOne(cfg, settings, opts, log)
	}
}
