// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vertexdemo/vertex"
)

// Frame errors.
var (
	// ErrMixedDepth is returned when a frame mixes depth-tested and untested
	// pipelines in one pass.
	ErrMixedDepth = errors.New("gpu: frame mixes depth-tested and untested pipelines")

	// ErrNilPipeline is returned for a draw without a live pipeline.
	ErrNilPipeline = errors.New("gpu: draw has no pipeline")
)

// Draw is one draw call inside a frame.
type Draw struct {
	Pipeline *Pipeline

	// Buffer is bound at vertex slot 0; nil for pipelines without vertex
	// input.
	Buffer *VertexBuffer

	// VertexCount defaults to Buffer.Count() when zero.
	VertexCount uint32
}

// Frame is one render pass: a clear followed by zero or more draws.
type Frame struct {
	Clear gputypes.Color
	Draws []Draw
}

// Render encodes f into a single render pass on t, submits it and waits for
// the GPU. Offscreen targets are read back before Render returns.
func (d *Device) Render(t *Target, f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return ErrTargetReleased
	}

	depthTest, err := frameDepth(f)
	if err != nil {
		return err
	}

	encoder, err := d.beginEncoding("frame")
	if err != nil {
		return err
	}

	rpDesc := &hal.RenderPassDescriptor{
		Label: "frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.colorView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: f.Clear,
		}},
	}
	if depthTest {
		rpDesc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              t.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		}
	}

	rp := encoder.BeginRenderPass(rpDesc)
	for i, draw := range f.Draws {
		if err := recordDraw(rp, draw); err != nil {
			rp.End()
			encoder.DiscardEncoding()
			return fmt.Errorf("draw %d: %w", i, err)
		}
	}
	rp.End()

	if t.Offscreen() {
		t.recordReadback(encoder)
	}

	if err := d.submit(encoder); err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	if t.Offscreen() {
		_, queue, err := d.handles()
		if err != nil {
			return err
		}
		if err := t.readback(queue); err != nil {
			return err
		}
	}
	slogger().Debug("gpu: frame rendered", "draws", len(f.Draws), "offscreen", t.Offscreen())
	return nil
}

func frameDepth(f Frame) (bool, error) {
	if len(f.Draws) == 0 {
		return false, nil
	}
	depth := f.Draws[0].Pipeline != nil && f.Draws[0].Pipeline.DepthTest
	for _, draw := range f.Draws[1:] {
		if (draw.Pipeline != nil && draw.Pipeline.DepthTest) != depth {
			return false, ErrMixedDepth
		}
	}
	return depth, nil
}

func recordDraw(rp hal.RenderPassEncoder, draw Draw) error {
	if draw.Pipeline == nil || draw.Pipeline.raw == nil {
		return ErrNilPipeline
	}
	count := draw.VertexCount
	rp.SetPipeline(draw.Pipeline.raw)
	if draw.Buffer != nil {
		buf, err := draw.Buffer.handle()
		if err != nil {
			return err
		}
		rp.SetVertexBuffer(vertex.BufferSlot, buf, 0)
		if count == 0 {
			count = draw.Buffer.Count()
		}
	}
	if count == 0 {
		return nil
	}
	rp.Draw(count, 1, 0, 0)
	return nil
}
