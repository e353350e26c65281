// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package imageout downsamples rendered frames and writes them as PNG, WebP
// or TGA files.
package imageout

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// ErrUnknownFormat is returned for an output format other than png, webp or
// tga.
var ErrUnknownFormat = errors.New("imageout: unknown image format")

// Format is an output file format.
type Format string

// Supported formats.
const (
	PNG  Format = "png"
	WebP Format = "webp"
	TGA  Format = "tga"
)

// Formats returns every supported format.
func Formats() []Format { return []Format{PNG, WebP, TGA} }

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ParseFormat parses a format name or extension, with or without the dot.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case PNG, WebP, TGA:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFor picks the format for path: explicit wins, otherwise the file
// extension decides.
func FormatFor(path, explicit string) (Format, error) {
	if explicit != "" {
		return ParseFormat(explicit)
	}
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	case TGA:
		err = tga.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	if err != nil {
		return fmt.Errorf("imageout: %s encode: %w", f, err)
	}
	return nil
}

// Save writes img to path, creating parent directories. The format comes
// from explicit or the path extension.
func Save(path string, img image.Image, explicit string) error {
	f, err := FormatFor(path, explicit)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("imageout: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageout: %w", err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
