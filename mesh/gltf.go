// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mesh

import (
	"errors"
	"fmt"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// glTF errors.
var (
	// ErrNoMesh is returned when a glTF document contains no triangle mesh.
	ErrNoMesh = errors.New("mesh: document has no triangle mesh")

	// ErrBadAccessor is returned when a primitive refers to an accessor the
	// document does not define.
	ErrBadAccessor = errors.New("mesh: accessor index out of range")
)

// glTF attribute semantics read by FromDocument.
const (
	attrPosition = "POSITION"
	attrNormal   = "NORMAL"
	attrColor    = "COLOR_0"
	attrTexCoord = "TEXCOORD_0"
)

// LoadGLTF opens a .gltf or .glb file and returns its first mesh.
func LoadGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open %s: %w", path, err)
	}
	m, err := FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("mesh: %s: %w", path, err)
	}
	return m, nil
}

// FromDocument merges the triangle primitives of the first mesh in doc.
//
// Primitives that are not triangle lists are skipped. A stream that some
// primitives carry and others lack is filled with defaults so every
// stream stays aligned with Positions.
func FromDocument(doc *gltf.Document) (*Mesh, error) {
	if len(doc.Meshes) == 0 {
		return nil, ErrNoMesh
	}

	out := &Mesh{}
	var hasNormals, hasColors, hasUVs bool
	for _, p := range doc.Meshes[0].Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		part, err := readPrimitive(doc, p)
		if err != nil {
			return nil, err
		}
		hasNormals = hasNormals || len(part.Normals) > 0
		hasColors = hasColors || len(part.Colors) > 0
		hasUVs = hasUVs || len(part.UVs) > 0
		out.append(part)
	}
	if len(out.Positions) == 0 {
		return nil, ErrNoMesh
	}
	if !hasNormals {
		out.Normals = nil
	}
	if !hasColors {
		out.Colors = nil
	}
	if !hasUVs {
		out.UVs = nil
	}
	return out, nil
}

// append adds part to m, rebasing its indices and padding missing streams.
func (m *Mesh) append(part *Mesh) {
	base := uint32(len(m.Positions)) //nolint:gosec // mesh sizes fit uint32
	n := len(part.Positions)

	m.Positions = append(m.Positions, part.Positions...)
	if len(part.Normals) == n {
		m.Normals = append(m.Normals, part.Normals...)
	} else {
		for i := 0; i < n; i++ {
			m.Normals = append(m.Normals, DefaultNormal)
		}
	}
	if len(part.Colors) == n {
		m.Colors = append(m.Colors, part.Colors...)
	} else {
		for i := 0; i < n; i++ {
			m.Colors = append(m.Colors, DefaultColor)
		}
	}
	if len(part.UVs) == n {
		m.UVs = append(m.UVs, part.UVs...)
	} else {
		m.UVs = append(m.UVs, make([]vec2.T, n)...)
	}
	for _, idx := range part.corners() {
		m.Indices = append(m.Indices, base+idx)
	}
}

// accessor returns doc.Accessors[idx], or ErrBadAccessor for an index the
// decoder let through.
func accessor(doc *gltf.Document, name string, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("%w: %s refers to accessor %d, document has %d", ErrBadAccessor, name, idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

func readPrimitive(doc *gltf.Document, p *gltf.Primitive) (*Mesh, error) {
	posIdx, ok := p.Attributes[attrPosition]
	if !ok {
		return nil, ErrNoPositions
	}
	acc, err := accessor(doc, attrPosition, int(posIdx))
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", attrPosition, err)
	}

	part := &Mesh{Positions: make([]vec3.T, len(positions))}
	for i, v := range positions {
		part.Positions[i] = v
	}

	if idx, ok := p.Attributes[attrNormal]; ok {
		acc, err := accessor(doc, attrNormal, int(idx))
		if err != nil {
			return nil, err
		}
		normals, err := modeler.ReadNormal(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", attrNormal, err)
		}
		part.Normals = make([]vec3.T, len(normals))
		for i, v := range normals {
			part.Normals[i] = v
		}
	}

	if idx, ok := p.Attributes[attrColor]; ok {
		acc, err := accessor(doc, attrColor, int(idx))
		if err != nil {
			return nil, err
		}
		colors, err := modeler.ReadColor(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", attrColor, err)
		}
		part.Colors = make([][4]float32, len(colors))
		for i, c := range colors {
			part.Colors[i] = [4]float32{
				float32(c[0]) / 255,
				float32(c[1]) / 255,
				float32(c[2]) / 255,
				float32(c[3]) / 255,
			}
		}
	}

	if idx, ok := p.Attributes[attrTexCoord]; ok {
		acc, err := accessor(doc, attrTexCoord, int(idx))
		if err != nil {
			return nil, err
		}
		uvs, err := modeler.ReadTextureCoord(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", attrTexCoord, err)
		}
		part.UVs = make([]vec2.T, len(uvs))
		for i, v := range uvs {
			part.UVs[i] = v
		}
	}

	if p.Indices != nil {
		acc, err := accessor(doc, "indices", int(*p.Indices))
		if err != nil {
			return nil, err
		}
		indices, err := modeler.ReadIndices(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		part.Indices = indices
	}

	if err := part.Validate(); err != nil {
		return nil, err
	}
	return part, nil
}
