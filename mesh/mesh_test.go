// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/flywave/go3d/vec3"

	"github.com/gogpu/vertexdemo/vertex"
)

func nearlyEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mesh *Mesh
		want error
	}{
		{"empty", &Mesh{}, ErrNoPositions},
		{"ok", Triangle(), nil},
		{"short normals", &Mesh{Positions: make([]vec3.T, 3), Normals: make([]vec3.T, 2)}, ErrAttributeCount},
		{"short colors", &Mesh{Positions: make([]vec3.T, 3), Colors: make([][4]float32, 1)}, ErrAttributeCount},
		{"bad index", &Mesh{Positions: make([]vec3.T, 3), Indices: []uint32{0, 1, 3}}, ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerticesFillsMissingSlots(t *testing.T) {
	m := &Mesh{Positions: []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	vs, err := m.Vertices(vertex.PositionNormalColorUV)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vs {
		if v.Normal != [3]float32(DefaultNormal) {
			t.Errorf("vertex %d normal = %v, want default", i, v.Normal)
		}
		if v.Color != DefaultColor {
			t.Errorf("vertex %d color = %v, want default", i, v.Color)
		}
		if v.UV != [2]float32{} {
			t.Errorf("vertex %d uv = %v, want zero", i, v.UV)
		}
	}
}

func TestVerticesExpandsIndices(t *testing.T) {
	q := Quad()
	vs, err := q.Vertices(vertex.PositionColor)
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 6 {
		t.Fatalf("quad flattened to %d vertices, want 6", len(vs))
	}
	if vs[3].Position != vs[2].Position || vs[5].Position != vs[0].Position {
		t.Error("shared corners should repeat positions")
	}
	if q.VertexCount() != 6 {
		t.Errorf("VertexCount() = %d, want 6", q.VertexCount())
	}
}

func TestVerticesUnsupportedKind(t *testing.T) {
	if _, err := Triangle().Vertices(vertex.None); !errors.Is(err, vertex.ErrUnsupportedKind) {
		t.Errorf("Vertices(None) error = %v, want ErrUnsupportedKind", err)
	}
}

func TestEncodeMatchesStride(t *testing.T) {
	c := Cube()
	for _, k := range vertex.Kinds() {
		data, n, err := c.Encode(k)
		if err != nil {
			t.Fatalf("Encode(%v) failed: %v", k, err)
		}
		if n != 36 {
			t.Errorf("Encode(%v) count = %d, want 36", k, n)
		}
		if uint64(len(data)) != uint64(n)*k.Stride() {
			t.Errorf("Encode(%v) length = %d, want %d", k, len(data), uint64(n)*k.Stride())
		}
	}
}

func TestGenerateNormalsMatchesCubeFaces(t *testing.T) {
	c := Cube()
	want := append([]vec3.T(nil), c.Normals...)
	c.GenerateNormals()
	for i := range want {
		for j := 0; j < 3; j++ {
			if !nearlyEqual(c.Normals[i][j], want[i][j]) {
				t.Fatalf("normal %d = %v, want %v", i, c.Normals[i], want[i])
			}
		}
	}
}

func TestGenerateNormalsDegenerate(t *testing.T) {
	m := &Mesh{Positions: []vec3.T{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}}
	m.GenerateNormals()
	for i, n := range m.Normals {
		if n != DefaultNormal {
			t.Errorf("normal %d = %v, want DefaultNormal", i, n)
		}
	}
}

func TestGenerateNormalsSkipsOutOfRange(t *testing.T) {
	m := &Mesh{
		Positions: []vec3.T{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2, 0, 1, 9},
	}
	m.GenerateNormals()
	if len(m.Normals) != 3 {
		t.Fatalf("len(Normals) = %d, want 3", len(m.Normals))
	}
	for i, n := range m.Normals {
		if !nearlyEqual(n[2], 1) {
			t.Errorf("normal %d = %v, want +Z from the valid triangle", i, n)
		}
	}
}

func TestBoundsAndFitUnit(t *testing.T) {
	m := &Mesh{Positions: []vec3.T{{2, 2, 2}, {6, 4, 2}, {4, 6, 3}}}
	lo, hi := m.Bounds()
	if lo != (vec3.T{2, 2, 2}) || hi != (vec3.T{6, 6, 3}) {
		t.Fatalf("Bounds() = %v, %v", lo, hi)
	}

	m.FitUnit(0.5)
	lo, hi = m.Bounds()
	if !nearlyEqual(lo[0], -0.5) || !nearlyEqual(hi[0], 0.5) {
		t.Errorf("x range = [%v, %v], want [-0.5, 0.5]", lo[0], hi[0])
	}
	if !nearlyEqual(lo[1], -0.5) || !nearlyEqual(hi[1], 0.5) {
		t.Errorf("y range = [%v, %v], want [-0.5, 0.5]", lo[1], hi[1])
	}
	if !nearlyEqual(lo[2]+hi[2], 0) {
		t.Errorf("z not centred: [%v, %v]", lo[2], hi[2])
	}
}

func TestFitUnitPointIsNoop(t *testing.T) {
	m := &Mesh{Positions: []vec3.T{{3, 3, 3}}}
	m.FitUnit(1)
	if m.Positions[0] != (vec3.T{3, 3, 3}) {
		t.Errorf("FitUnit moved a zero-size mesh: %v", m.Positions[0])
	}
}

func TestClone(t *testing.T) {
	a := Quad()
	b := a.Clone()
	b.Positions[0][0] = 42
	b.Indices[0] = 3
	if a.Positions[0][0] == 42 || a.Indices[0] == 3 {
		t.Error("Clone shares storage with the original")
	}
}
