// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Triangle returns the demo triangle in clip space with a red, green and
// blue corner.
func Triangle() *Mesh {
	return &Mesh{
		Positions: []vec3.T{
			{-0.5, -0.5, 0},
			{0.5, -0.5, 0},
			{0, 0.5, 0},
		},
		Normals: []vec3.T{
			{0, 0, 1},
			{0, 0, 1},
			{0, 0, 1},
		},
		Colors: [][4]float32{
			{1, 0, 0, 1},
			{0, 1, 0, 1},
			{0, 0, 1, 1},
		},
		UVs: []vec2.T{
			{0, 1},
			{1, 1},
			{0.5, 0},
		},
	}
}

// Quad returns a square of half-size 0.5 made of two triangles.
func Quad() *Mesh {
	return &Mesh{
		Positions: []vec3.T{
			{-0.5, -0.5, 0},
			{0.5, -0.5, 0},
			{0.5, 0.5, 0},
			{-0.5, 0.5, 0},
		},
		Normals: []vec3.T{
			{0, 0, 1},
			{0, 0, 1},
			{0, 0, 1},
			{0, 0, 1},
		},
		Colors: [][4]float32{
			{1, 0, 0, 1},
			{0, 1, 0, 1},
			{0, 0, 1, 1},
			{1, 1, 1, 1},
		},
		UVs: []vec2.T{
			{0, 1},
			{1, 1},
			{1, 0},
			{0, 0},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
}

// cubeFaces lists the outward normal and the two tangent axes of each face.
var cubeFaces = [6]struct{ n, u, v vec3.T }{
	{vec3.T{0, 0, 1}, vec3.T{1, 0, 0}, vec3.T{0, 1, 0}},
	{vec3.T{0, 0, -1}, vec3.T{-1, 0, 0}, vec3.T{0, 1, 0}},
	{vec3.T{1, 0, 0}, vec3.T{0, 0, -1}, vec3.T{0, 1, 0}},
	{vec3.T{-1, 0, 0}, vec3.T{0, 0, 1}, vec3.T{0, 1, 0}},
	{vec3.T{0, 1, 0}, vec3.T{1, 0, 0}, vec3.T{0, 0, -1}},
	{vec3.T{0, -1, 0}, vec3.T{1, 0, 0}, vec3.T{0, 0, 1}},
}

// Cube returns an axis-aligned cube of half-size 0.5 with per-face
// normals, per-face colours and a full UV square on every face.
func Cube() *Mesh {
	m := &Mesh{}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range cubeFaces {
		base := uint32(len(m.Positions)) //nolint:gosec // 24 vertices
		color := [4]float32{
			0.5 + 0.5*f.n[0] + 0.25*abs32(f.n[1]),
			0.5 + 0.5*f.n[1] + 0.25*abs32(f.n[2]),
			0.5 + 0.5*f.n[2] + 0.25*abs32(f.n[0]),
			1,
		}
		for _, c := range corners {
			var p vec3.T
			for j := 0; j < 3; j++ {
				p[j] = 0.5 * (f.n[j] + c[0]*f.u[j] + c[1]*f.v[j])
			}
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, f.n)
			m.Colors = append(m.Colors, color)
			m.UVs = append(m.UVs, vec2.T{(c[0] + 1) / 2, (1 - c[1]) / 2})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return m
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
