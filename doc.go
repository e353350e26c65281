// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package vertexdemo is a small GPU rendering demo built around a registry
// of vertex layouts.
//
// # Overview
//
// The vertex package describes eight composite vertex shapes, from a bare
// position up to position, normal, colour and texture coordinate. Each
// [vertex.Kind] maps to a fixed [vertex.Layout]: attribute locations,
// formats, byte offsets and stride. vertexdemo turns those layouts into
// render pipelines and draws three stages with them:
//
//   - [StageClear] clears the target
//   - [StageTriangle] draws an RGB triangle generated in the vertex shader
//   - [StageMesh] draws a [mesh.Mesh] encoded with the layout of a kind
//
// # Quick Start
//
//	r, err := vertexdemo.New(vertexdemo.WithBackend("vulkan"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	img, err := r.RenderImage(512, 512, vertexdemo.StageMesh, mesh.Cube(), vertex.PositionNormalColor)
//
// # Targets
//
// An image target ([Renderer.NewImageTarget]) reads every frame back into an
// *image.NRGBA. A surface target ([Renderer.NewSurfaceTarget]) draws onto a
// swapchain view owned by a window host; see cmd/vertexdemo for a gogpu
// window driving one.
//
// # Shaders
//
// The triangle shader is embedded and the mesh shader of every kind is
// generated from its layout. A file <base>/<name>.wgsl in the directory set
// by [WithBasePath] replaces either; the names are "triangle" and
// "mesh_<kind>", e.g. "mesh_positioncolor".
//
// # Logging
//
// Nothing is logged by default. [SetLogger] installs a slog.Logger for the
// package and its GPU layer.
package vertexdemo
