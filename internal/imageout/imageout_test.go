// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imageout

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"png", PNG, false},
		{".WEBP", WebP, false},
		{" tga ", TGA, false},
		{"jpg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatFor(t *testing.T) {
	if f, err := FormatFor("out/cube.webp", ""); err != nil || f != WebP {
		t.Errorf("FormatFor(.webp) = %q, %v", f, err)
	}
	if f, err := FormatFor("out/cube.png", "tga"); err != nil || f != TGA {
		t.Errorf("explicit format should win, got %q, %v", f, err)
	}
	if _, err := FormatFor("out/cube", ""); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("FormatFor(no ext) error = %v, want ErrUnknownFormat", err)
	}
}

func TestEncodeFormats(t *testing.T) {
	img := solid(8, 4, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, img, f); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if buf.Len() == 0 {
				t.Fatal("Encode wrote nothing")
			}
		})
	}
	if err := Encode(&bytes.Buffer{}, img, "bmp"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Encode(bmp) error = %v, want ErrUnknownFormat", err)
	}
}

func TestEncodeRoundTripsPixels(t *testing.T) {
	img := solid(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		PNG: func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		TGA: func(b *bytes.Buffer) (image.Image, error) { return tga.Decode(b) },
	}
	for f, decode := range decoders {
		var buf bytes.Buffer
		if err := Encode(&buf, img, f); err != nil {
			t.Fatal(err)
		}
		got, err := decode(&buf)
		if err != nil {
			t.Fatalf("%s decode failed: %v", f, err)
		}
		r, g, b, a := got.At(1, 1).RGBA()
		if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 || a>>8 != 255 {
			t.Errorf("%s pixel = %d,%d,%d,%d; want 10,20,30,255", f, r>>8, g>>8, b>>8, a>>8)
		}
	}
}

func TestSaveCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "frame.png")
	if err := Save(path, solid(2, 2, color.NRGBA{A: 255}), ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("saved file is not a PNG: %v", err)
	}
}

func TestDownsample(t *testing.T) {
	src := solid(8, 8, color.NRGBA{R: 255, G: 128, B: 0, A: 255})

	if got := Downsample(src, 8, 8); got != src {
		t.Error("Downsample to the same size should return the input")
	}

	got := Downsample(src, 2, 2)
	if b := got.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 2x2", b)
	}
	c := got.NRGBAAt(1, 1)
	if c.R != 255 || c.G < 126 || c.G > 130 || c.B != 0 || c.A != 255 {
		t.Errorf("solid colour changed: %+v", c)
	}
}

func TestDownsampleTransparentEdges(t *testing.T) {
	// Left half opaque red, right half fully transparent black.
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	got := Downsample(src, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := got.NRGBAAt(x, y)
			if c.A > 16 && c.R < 240 {
				t.Errorf("pixel (%d,%d) = %+v darkened at the alpha edge", x, y, c)
			}
		}
	}
}
