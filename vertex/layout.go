// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertex

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// ErrUnsupportedKind is returned for a Kind that has no layout.
var ErrUnsupportedKind = errors.New("vertex: unsupported vertex kind")

// BufferSlot is the vertex buffer binding every layout is described for.
const BufferSlot = 0

// Attribute is one attribute of a vertex layout.
type Attribute struct {
	// Slot is the attribute the bytes belong to.
	Slot Slot

	// Format is the element format of the attribute.
	Format gputypes.VertexFormat

	// Offset is the byte offset from the start of the record.
	Offset uint64

	// Location is the shader input location.
	Location uint32
}

// Layout is the memory layout of one vertex kind in a single vertex buffer.
type Layout struct {
	// Kind is the described kind.
	Kind Kind

	// Attributes are ordered by increasing Location.
	Attributes []Attribute

	// Stride is the byte size of one record.
	Stride uint64
}

// Describe returns the layout of kind k.
//
// Attributes follow the record order Position, Normal, Color, TexCoord
// restricted to the slots k includes. Offsets are packed without padding,
// locations are assigned 0..n-1 and Stride is the sum of the slot sizes.
// Kinds without a layout return ErrUnsupportedKind.
func Describe(k Kind) (Layout, error) {
	if !k.Valid() {
		return Layout{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}

	slots := kindSlots[k]
	layout := Layout{
		Kind:       k,
		Attributes: make([]Attribute, 0, len(slots)),
	}
	for i, s := range slots {
		layout.Attributes = append(layout.Attributes, Attribute{
			Slot:     s,
			Format:   s.Format(),
			Offset:   layout.Stride,
			Location: uint32(i), //nolint:gosec // at most four slots
		})
		layout.Stride += s.Size()
	}
	return layout, nil
}

// MustDescribe is like Describe but panics if k has no layout.
func MustDescribe(k Kind) Layout {
	l, err := Describe(k)
	if err != nil {
		panic(err)
	}
	return l
}

// Attribute returns the attribute for slot s, if the layout includes it.
func (l Layout) Attribute(s Slot) (Attribute, bool) {
	for _, a := range l.Attributes {
		if a.Slot == s {
			return a, true
		}
	}
	return Attribute{}, false
}

// BufferLayouts returns the vertex input configuration for a render
// pipeline: a single per-vertex buffer at BufferSlot.
func (l Layout) BufferLayouts() []gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Attributes))
	for i, a := range l.Attributes {
		attrs[i] = gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: l.Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		},
	}
}

// String formats the layout as "Kind{Slot@offset:location ...} stride N".
func (l Layout) String() string {
	s := l.Kind.String() + "{"
	for i, a := range l.Attributes {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s@%d:%d", a.Slot, a.Offset, a.Location)
	}
	return s + fmt.Sprintf("} stride %d", l.Stride)
}
