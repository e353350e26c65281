// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"testing"
)

func TestNewBufferZeroSize(t *testing.T) {
	dev := openNoopDevice(t)
	if _, err := NewVertexBuffer(dev, 0); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("NewVertexBuffer(0) error = %v, want ErrInvalidBufferSize", err)
	}
	if _, err := NewTransferBuffer(dev, 0); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("NewTransferBuffer(0) error = %v, want ErrInvalidBufferSize", err)
	}
}

func TestTransferUpload(t *testing.T) {
	dev := openNoopDevice(t)
	data := make([]byte, 84)

	vb, err := NewVertexBuffer(dev, 84)
	if err != nil {
		t.Fatal(err)
	}
	defer vb.Release()
	tb, err := NewTransferBuffer(dev, 84)
	if err != nil {
		t.Fatal(err)
	}
	defer tb.Release()

	if err := tb.Upload(vb, data); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
}

func TestTransferUploadSizeMismatch(t *testing.T) {
	dev := openNoopDevice(t)
	vb, err := NewVertexBuffer(dev, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer vb.Release()
	tb, err := NewTransferBuffer(dev, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer tb.Release()

	tests := []struct {
		name string
		data []byte
	}{
		{"buffers differ", make([]byte, 32)},
		{"data differs", make([]byte, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tb.Upload(vb, tt.data); !errors.Is(err, ErrSizeMismatch) {
				t.Errorf("Upload error = %v, want ErrSizeMismatch", err)
			}
		})
	}
}

func TestBufferReleaseIdempotent(t *testing.T) {
	dev := openNoopDevice(t)
	vb, err := NewVertexBuffer(dev, 16)
	if err != nil {
		t.Fatal(err)
	}
	tb, err := NewTransferBuffer(dev, 16)
	if err != nil {
		t.Fatal(err)
	}
	vb.Release()
	vb.Release()
	if !vb.Released() {
		t.Error("Released() = false after Release")
	}
	if err := tb.Upload(vb, make([]byte, 16)); !errors.Is(err, ErrBufferReleased) {
		t.Errorf("Upload into released buffer error = %v, want ErrBufferReleased", err)
	}
	tb.Release()
	if err := tb.Upload(vb, make([]byte, 16)); !errors.Is(err, ErrBufferReleased) {
		t.Errorf("Upload from released buffer error = %v, want ErrBufferReleased", err)
	}
}

func TestUploadVertices(t *testing.T) {
	dev := openNoopDevice(t)
	vb, err := UploadVertices(dev, make([]byte, 3*28), 3)
	if err != nil {
		t.Fatalf("UploadVertices failed: %v", err)
	}
	defer vb.Release()
	if vb.Count() != 3 {
		t.Errorf("Count() = %d, want 3", vb.Count())
	}
	if vb.Size() != 84 {
		t.Errorf("Size() = %d, want 84", vb.Size())
	}
}

func TestReleaseAfterDeviceClose(t *testing.T) {
	dev, err := OpenDevice(BackendNoop)
	if err != nil {
		t.Fatal(err)
	}
	vb, err := NewVertexBuffer(dev, 16)
	if err != nil {
		t.Fatal(err)
	}
	dev.Close()
	vb.Release() // must not touch the destroyed device
	if !vb.Released() {
		t.Error("Released() = false after Release")
	}
}
