// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortData is returned by Decode when the data length is not a whole
// number of records.
var ErrShortData = errors.New("vertex: data is not a multiple of the stride")

// Vertex is a full vertex record. Encode writes only the fields the
// requested kind includes.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]float32
	UV       [2]float32
}

// components returns the float32 fields of slot s.
func (v *Vertex) components(s Slot) []float32 {
	switch s {
	case SlotPosition:
		return v.Position[:]
	case SlotNormal:
		return v.Normal[:]
	case SlotColor:
		return v.Color[:]
	case SlotTexCoord:
		return v.UV[:]
	default:
		return nil
	}
}

// Encode packs vs into little-endian bytes using the layout of kind k.
// The result is len(vs) * stride bytes long.
func Encode(k Kind, vs []Vertex) ([]byte, error) {
	layout, err := Describe(k)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, uint64(len(vs))*layout.Stride)
	base := uint64(0)
	for i := range vs {
		v := &vs[i]
		for _, a := range layout.Attributes {
			off := base + a.Offset
			for _, f := range v.components(a.Slot) {
				binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
				off += 4
			}
		}
		base += layout.Stride
	}
	return buf, nil
}

// Decode unpacks records of kind k. Slots the kind does not include are
// left zero.
func Decode(k Kind, data []byte) ([]Vertex, error) {
	layout, err := Describe(k)
	if err != nil {
		return nil, err
	}
	if uint64(len(data))%layout.Stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes, stride %d", ErrShortData, len(data), layout.Stride)
	}
	vs := make([]Vertex, uint64(len(data))/layout.Stride)
	base := uint64(0)
	for i := range vs {
		v := &vs[i]
		for _, a := range layout.Attributes {
			off := base + a.Offset
			dst := v.components(a.Slot)
			for j := range dst {
				dst[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
				off += 4
			}
		}
		base += layout.Stride
	}
	return vs, nil
}
