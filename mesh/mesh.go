// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package mesh holds indexed triangle geometry and flattens it into vertex
// records for any vertex.Kind.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/gogpu/vertexdemo/vertex"
)

// Mesh errors.
var (
	// ErrNoPositions is returned for a mesh without vertices.
	ErrNoPositions = errors.New("mesh: mesh has no positions")

	// ErrIndexOutOfRange is returned when an index refers past the last vertex.
	ErrIndexOutOfRange = errors.New("mesh: index out of range")

	// ErrAttributeCount is returned when an attribute stream does not match
	// the number of positions.
	ErrAttributeCount = errors.New("mesh: attribute count does not match positions")
)

// Defaults used for attributes a mesh does not carry.
var (
	DefaultNormal = vec3.T{0, 0, 1}
	DefaultColor  = [4]float32{1, 1, 1, 1}
)

// Mesh is an indexed triangle list. Normals, Colors and UVs are optional;
// when present they hold one entry per position.
type Mesh struct {
	Positions []vec3.T
	Normals   []vec3.T
	Colors    [][4]float32
	UVs       []vec2.T

	// Indices lists triangle corners. An empty slice means the positions
	// themselves form a triangle list.
	Indices []uint32
}

// Validate checks that attribute streams and indices are consistent.
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	if n == 0 {
		return ErrNoPositions
	}
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d positions", ErrAttributeCount, len(m.Normals), n)
	}
	if len(m.Colors) != 0 && len(m.Colors) != n {
		return fmt.Errorf("%w: %d colors for %d positions", ErrAttributeCount, len(m.Colors), n)
	}
	if len(m.UVs) != 0 && len(m.UVs) != n {
		return fmt.Errorf("%w: %d uvs for %d positions", ErrAttributeCount, len(m.UVs), n)
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: indices[%d] = %d, %d positions", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

// VertexCount returns the number of vertices the flattened triangle list has.
func (m *Mesh) VertexCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices)
	}
	return len(m.Positions)
}

// corners returns the position index of every triangle-list vertex.
func (m *Mesh) corners() []uint32 {
	if len(m.Indices) > 0 {
		return m.Indices
	}
	idx := make([]uint32, len(m.Positions))
	for i := range idx {
		idx[i] = uint32(i) //nolint:gosec // mesh sizes fit uint32
	}
	return idx
}

// GenerateNormals replaces Normals with area-weighted vertex normals.
// Degenerate triangles and triangles with an index past the last position
// contribute nothing; vertices without any contribution get DefaultNormal.
func (m *Mesh) GenerateNormals() {
	n := uint32(len(m.Positions)) //nolint:gosec // mesh sizes fit uint32
	normals := make([]vec3.T, n)
	c := m.corners()
	for i := 0; i+2 < len(c); i += 3 {
		if c[i] >= n || c[i+1] >= n || c[i+2] >= n {
			continue
		}
		p0, p1, p2 := m.Positions[c[i]], m.Positions[c[i+1]], m.Positions[c[i+2]]
		e1 := vec3.Sub(&p1, &p0)
		e2 := vec3.Sub(&p2, &p0)
		face := vec3.Cross(&e1, &e2)
		if face.Length() == 0 {
			continue
		}
		normals[c[i]].Add(&face)
		normals[c[i+1]].Add(&face)
		normals[c[i+2]].Add(&face)
	}
	for i := range normals {
		if normals[i].Length() == 0 {
			normals[i] = DefaultNormal
			continue
		}
		normals[i].Normalize()
	}
	m.Normals = normals
}

// Bounds returns the axis-aligned bounding box of the positions.
func (m *Mesh) Bounds() (lo, hi vec3.T) {
	if len(m.Positions) == 0 {
		return lo, hi
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for j := 0; j < 3; j++ {
			lo[j] = float32(math.Min(float64(lo[j]), float64(p[j])))
			hi[j] = float32(math.Max(float64(hi[j]), float64(p[j])))
		}
	}
	return lo, hi
}

// FitUnit recentres the mesh on the origin and scales it uniformly so its
// largest extent spans [-extent, extent].
func (m *Mesh) FitUnit(extent float32) {
	lo, hi := m.Bounds()
	center := vec3.T{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2, (lo[2] + hi[2]) / 2}
	size := float32(0)
	for j := 0; j < 3; j++ {
		if d := hi[j] - lo[j]; d > size {
			size = d
		}
	}
	if size == 0 {
		return
	}
	scale := 2 * extent / size
	for i := range m.Positions {
		p := vec3.Sub(&m.Positions[i], &center)
		m.Positions[i] = *p.Scale(scale)
	}
}

// Vertices flattens the mesh into a triangle list of vertex records.
// Slots of kind k the mesh does not carry are filled with DefaultNormal,
// DefaultColor and a zero UV.
func (m *Mesh) Vertices(k vertex.Kind) ([]vertex.Vertex, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %s", vertex.ErrUnsupportedKind, k)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c := m.corners()
	out := make([]vertex.Vertex, len(c))
	for i, idx := range c {
		v := &out[i]
		v.Position = m.Positions[idx]
		v.Normal = DefaultNormal
		v.Color = DefaultColor
		if k.Has(vertex.SlotNormal) && len(m.Normals) > 0 {
			v.Normal = m.Normals[idx]
		}
		if k.Has(vertex.SlotColor) && len(m.Colors) > 0 {
			v.Color = m.Colors[idx]
		}
		if k.Has(vertex.SlotTexCoord) && len(m.UVs) > 0 {
			v.UV = m.UVs[idx]
		}
	}
	return out, nil
}

// Encode flattens the mesh and packs it with the layout of kind k.
// It returns the vertex bytes and the vertex count.
func (m *Mesh) Encode(k vertex.Kind) ([]byte, uint32, error) {
	vs, err := m.Vertices(k)
	if err != nil {
		return nil, 0, err
	}
	data, err := vertex.Encode(k, vs)
	if err != nil {
		return nil, 0, err
	}
	return data, uint32(len(vs)), nil //nolint:gosec // mesh sizes fit uint32
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([]vec3.T(nil), m.Positions...),
		Normals:   append([]vec3.T(nil), m.Normals...),
		Colors:    append([][4]float32(nil), m.Colors...),
		UVs:       append([]vec2.T(nil), m.UVs...),
		Indices:   append([]uint32(nil), m.Indices...),
	}
}
