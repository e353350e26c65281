// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertex

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Slot is one attribute of a vertex record.
type Slot uint8

// Attribute slots in their fixed record order.
const (
	SlotPosition Slot = iota
	SlotNormal
	SlotColor
	SlotTexCoord

	slotCount
)

// slotFormat holds the element format and packed byte size of a slot.
type slotFormat struct {
	name   string
	format gputypes.VertexFormat
	size   uint64
}

var slotFormats = [slotCount]slotFormat{
	SlotPosition: {name: "Position", format: gputypes.VertexFormatFloat32x3, size: 12},
	SlotNormal:   {name: "Normal", format: gputypes.VertexFormatFloat32x3, size: 12},
	SlotColor:    {name: "Color", format: gputypes.VertexFormatFloat32x4, size: 16},
	SlotTexCoord: {name: "TexCoord", format: gputypes.VertexFormatFloat32x2, size: 8},
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	return s < slotCount
}

// Format returns the vertex format of the slot.
func (s Slot) Format() gputypes.VertexFormat {
	if !s.Valid() {
		return 0
	}
	return slotFormats[s].format
}

// Size returns the packed byte size of the slot.
func (s Slot) Size() uint64 {
	if !s.Valid() {
		return 0
	}
	return slotFormats[s].size
}

// Components returns the number of float32 components stored for the slot.
func (s Slot) Components() int {
	return int(s.Size() / 4)
}

// String returns the slot name.
func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Slot(%d)", uint8(s))
	}
	return slotFormats[s].name
}
