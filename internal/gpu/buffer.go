// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrBufferReleased is returned when operating on a released buffer.
	ErrBufferReleased = errors.New("gpu: buffer has been released")

	// ErrInvalidBufferSize is returned for a zero-sized buffer.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrSizeMismatch is returned when upload data, transfer buffer and
	// vertex buffer sizes disagree.
	ErrSizeMismatch = errors.New("gpu: buffer size mismatch")
)

// buffer is the shared lifetime of VertexBuffer and TransferBuffer.
type buffer struct {
	mu       sync.Mutex
	dev      *Device
	raw      hal.Buffer
	size     uint64
	label    string
	released bool
}

func newBuffer(dev *Device, label string, size uint64, usage gputypes.BufferUsage) (*buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: %s has size 0", ErrInvalidBufferSize, label)
	}
	device, _, err := dev.handles()
	if err != nil {
		return nil, err
	}
	b, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return &buffer{dev: dev, raw: b, size: size, label: label}, nil
}

// Size returns the buffer size in bytes.
func (b *buffer) Size() uint64 { return b.size }

// Released reports whether Release has been called.
func (b *buffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Release destroys the GPU buffer. It is safe to call more than once.
func (b *buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	if device, _, err := b.dev.handles(); err == nil && b.raw != nil {
		device.DestroyBuffer(b.raw)
	}
	b.raw = nil
}

// handle returns the HAL buffer or ErrBufferReleased.
func (b *buffer) handle() (hal.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, fmt.Errorf("%w: %s", ErrBufferReleased, b.label)
	}
	return b.raw, nil
}

// VertexBuffer is a GPU-resident buffer bound as vertex input.
type VertexBuffer struct {
	*buffer
	count uint32
}

// NewVertexBuffer allocates a vertex buffer of size bytes. Its contents are
// filled through a TransferBuffer.
func NewVertexBuffer(dev *Device, size uint64) (*VertexBuffer, error) {
	b, err := newBuffer(dev, "vertex_buffer", size, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	return &VertexBuffer{buffer: b}, nil
}

// Count returns the number of vertices last uploaded.
func (v *VertexBuffer) Count() uint32 { return v.count }

// SetCount records how many vertices the buffer holds.
func (v *VertexBuffer) SetCount(n uint32) { v.count = n }

// TransferBuffer is a CPU-writable staging buffer used to fill vertex
// buffers through a copy pass.
type TransferBuffer struct {
	*buffer
}

// NewTransferBuffer allocates a staging buffer of size bytes.
func NewTransferBuffer(dev *Device, size uint64) (*TransferBuffer, error) {
	b, err := newBuffer(dev, "transfer_buffer", size, gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	return &TransferBuffer{buffer: b}, nil
}

// Upload writes data into the transfer buffer, copies it into dst and waits
// for the copy to finish. data, the transfer buffer and dst must all be the
// same size.
func (t *TransferBuffer) Upload(dst *VertexBuffer, data []byte) error {
	if uint64(len(data)) != t.size || dst.size != t.size {
		return fmt.Errorf("%w: data %d, transfer %d, vertex %d bytes",
			ErrSizeMismatch, len(data), t.size, dst.size)
	}
	src, err := t.handle()
	if err != nil {
		return err
	}
	dstBuf, err := dst.handle()
	if err != nil {
		return err
	}
	_, queue, err := t.dev.handles()
	if err != nil {
		return err
	}

	queue.WriteBuffer(src, 0, data)

	encoder, err := t.dev.beginEncoding("vertex_upload")
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(src, dstBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: t.size},
	})
	if err := t.dev.submit(encoder); err != nil {
		return fmt.Errorf("upload vertex data: %w", err)
	}
	slogger().Debug("gpu: vertex data uploaded", "bytes", t.size)
	return nil
}

// UploadVertices allocates a vertex buffer sized for data, fills it through
// a temporary transfer buffer and records count. The transfer buffer is
// released before returning.
func UploadVertices(dev *Device, data []byte, count uint32) (*VertexBuffer, error) {
	size := uint64(len(data))
	vb, err := NewVertexBuffer(dev, size)
	if err != nil {
		return nil, err
	}
	tb, err := NewTransferBuffer(dev, size)
	if err != nil {
		vb.Release()
		return nil, err
	}
	defer tb.Release()

	if err := tb.Upload(vb, data); err != nil {
		vb.Release()
		return nil, err
	}
	vb.SetCount(count)
	return vb, nil
}
