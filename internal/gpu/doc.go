// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu drives the wgpu HAL for the vertex demo.
//
// It owns the handful of GPU objects the demo needs and pairs every create
// with a release:
//
//   - Device: an opened (or borrowed) hal.Device and hal.Queue
//   - VertexBuffer and TransferBuffer: the staging upload path
//   - ShaderLibrary: WGSL lookup from a base path or the built-in sources
//   - PipelineCache: render pipelines keyed by shader and vertex layout
//   - Target: an offscreen texture with CPU readback, or a borrowed surface
//
// A frame is a single render pass: clear the target, then optionally bind a
// pipeline and a vertex buffer and draw. Submission waits on a fence, so
// every call returns with the GPU idle.
package gpu
