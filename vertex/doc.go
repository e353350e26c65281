// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package vertex describes how interleaved vertex records are laid out in a
// GPU vertex buffer.
//
// Every [Kind] names a composite vertex shape built from a fixed set of
// attribute slots, always in the order Position, Normal, Color, TexCoord.
// [Describe] folds the slots of a kind into a [Layout]: one attribute per
// slot with packed byte offsets, shader locations 0..n-1 and the total
// stride. The layout converts directly into the vertex input state of a
// render pipeline:
//
//	layout, err := vertex.Describe(vertex.PositionColor)
//	if err != nil {
//	    return err
//	}
//	desc.Vertex.Buffers = layout.BufferLayouts()
//
// # Color representation
//
// Color is always four 32-bit floats (Float32x4, 16 bytes). Normalized
// 8-bit colour is not supported, so the byte layout of a kind never
// depends on anything but its slots.
//
// [Encode] and [Decode] convert between [Vertex] records and the packed
// little-endian bytes a layout describes.
package vertex
