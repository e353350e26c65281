// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Target errors.
var (
	// ErrInvalidTargetSize is returned for a zero-sized target.
	ErrInvalidTargetSize = errors.New("gpu: invalid target size")

	// ErrTargetReleased is returned when rendering to a released target.
	ErrTargetReleased = errors.New("gpu: target has been released")

	// ErrUnsupportedFormat is returned for colour formats without readback.
	ErrUnsupportedFormat = errors.New("gpu: unsupported colour format")

	// ErrOffscreenView is returned by SetView on an offscreen target.
	ErrOffscreenView = errors.New("gpu: offscreen target owns its colour view")
)

// copyPitchAlignment is the required BytesPerRow alignment of texture copies.
const copyPitchAlignment = 256

// Target is a colour attachment plus a depth attachment of the same size.
//
// An offscreen target owns its colour texture and reads every rendered frame
// back into an *image.NRGBA. A surface target borrows the colour view from a
// window host and owns only its depth texture.
type Target struct {
	mu     sync.Mutex
	dev    *Device
	width  uint32
	height uint32
	format gputypes.TextureFormat

	color     hal.Texture // nil for surface targets
	colorView hal.TextureView
	depth     hal.Texture
	depthView hal.TextureView

	staging    hal.Buffer
	alignedRow uint32
	pixels     *image.NRGBA

	released bool
}

// NewOffscreenTarget creates a w x h colour texture with CPU readback.
// format must be RGBA8Unorm or BGRA8Unorm.
func NewOffscreenTarget(dev *Device, w, h uint32, format gputypes.TextureFormat) (*Target, error) {
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTargetSize, w, h)
	}
	if format != gputypes.TextureFormatRGBA8Unorm && format != gputypes.TextureFormatBGRA8Unorm {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	device, _, err := dev.handles()
	if err != nil {
		return nil, err
	}

	t := &Target{dev: dev, width: w, height: h, format: format}
	t.color, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "offscreen_color",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create offscreen texture: %w", err)
	}
	t.colorView, err = device.CreateTextureView(t.color, &hal.TextureViewDescriptor{
		Label:         "offscreen_color_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("create offscreen view: %w", err)
	}

	t.alignedRow = (w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	t.staging, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "offscreen_staging",
		Size:  uint64(t.alignedRow) * uint64(h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		t.destroy(device)
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}

	if err := t.createDepth(device); err != nil {
		t.destroy(device)
		return nil, err
	}
	t.pixels = image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
	return t, nil
}

// NewSurfaceTarget wraps a swapchain view provided by a window host. The
// view stays owned by the host.
func NewSurfaceTarget(dev *Device, view hal.TextureView, w, h uint32, format gputypes.TextureFormat) (*Target, error) {
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTargetSize, w, h)
	}
	device, _, err := dev.handles()
	if err != nil {
		return nil, err
	}
	t := &Target{dev: dev, width: w, height: h, format: format, colorView: view}
	if err := t.createDepth(device); err != nil {
		t.destroy(device)
		return nil, err
	}
	return t, nil
}

func (t *Target) createDepth(device hal.Device) error {
	var err error
	t.depth, err = device.CreateTexture(&hal.TextureDescriptor{
		Label:         "target_depth",
		Size:          hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	t.depthView, err = device.CreateTextureView(t.depth, &hal.TextureViewDescriptor{
		Label: "target_depth_view",
	})
	if err != nil {
		return fmt.Errorf("create depth view: %w", err)
	}
	return nil
}

// Size returns the target dimensions in pixels.
func (t *Target) Size() (w, h uint32) { return t.width, t.height }

// Format returns the colour format.
func (t *Target) Format() gputypes.TextureFormat { return t.format }

// Offscreen reports whether the target reads frames back to the CPU.
func (t *Target) Offscreen() bool { return t.color != nil }

// SetView swaps the borrowed colour view of a surface target, typically once
// per presented frame. The depth attachment is kept.
func (t *Target) SetView(view hal.TextureView) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrTargetReleased
	}
	if t.color != nil {
		return ErrOffscreenView
	}
	t.colorView = view
	return nil
}

// Image returns a copy of the last frame read back from an offscreen target,
// or nil for a surface target.
func (t *Target) Image() *image.NRGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pixels == nil {
		return nil
	}
	img := image.NewNRGBA(t.pixels.Rect)
	copy(img.Pix, t.pixels.Pix)
	return img
}

// Release destroys the textures and buffers the target owns. It is safe to
// call more than once.
func (t *Target) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	if device, _, err := t.dev.handles(); err == nil {
		t.destroy(device)
	}
}

func (t *Target) destroy(device hal.Device) {
	if t.staging != nil {
		device.DestroyBuffer(t.staging)
		t.staging = nil
	}
	if t.depthView != nil {
		device.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depth != nil {
		device.DestroyTexture(t.depth)
		t.depth = nil
	}
	if t.color != nil {
		if t.colorView != nil {
			device.DestroyTextureView(t.colorView)
		}
		device.DestroyTexture(t.color)
		t.color = nil
	}
	t.colorView = nil
}

// recordReadback copies the colour texture into the staging buffer.
func (t *Target) recordReadback(encoder hal.CommandEncoder) {
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.color, t.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: t.alignedRow, RowsPerImage: t.height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.color, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
}

// readback moves the staging buffer into pixels, dropping row padding and
// swizzling BGRA to RGBA.
func (t *Target) readback(queue hal.Queue) error {
	raw := make([]byte, uint64(t.alignedRow)*uint64(t.height))
	if err := queue.ReadBuffer(t.staging, 0, raw); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpadRows(t.pixels.Pix, raw, int(t.width)*4, int(t.alignedRow), int(t.height))
	if t.format == gputypes.TextureFormatBGRA8Unorm {
		swapRedBlue(t.pixels.Pix)
	}
	return nil
}

// unpadRows copies rows rows of rowBytes from src, whose rows are pitch
// bytes apart, into the tightly packed dst.
func unpadRows(dst, src []byte, rowBytes, pitch, rows int) {
	if rowBytes == pitch {
		copy(dst, src[:rowBytes*rows])
		return
	}
	for y := 0; y < rows; y++ {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*pitch:y*pitch+rowBytes])
	}
}

// swapRedBlue converts BGRA pixels to RGBA in place.
func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
