// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertex

import (
	"fmt"
	"strings"
)

// Kind identifies a composite vertex shape.
//
// The numeric values are stable and match the vertex type tags used by
// existing asset files, so a Kind can be stored as a single byte.
type Kind uint8

// Vertex kinds. None is the zero value and describes no layout.
const (
	None Kind = iota
	Position
	PositionColor
	PositionUV
	PositionColorUV
	PositionNormal
	PositionNormalUV
	PositionNormalColor
	PositionNormalColorUV

	kindCount
)

// kindSlots lists the slots of every kind in record order.
var kindSlots = [kindCount][]Slot{
	Position:              {SlotPosition},
	PositionColor:         {SlotPosition, SlotColor},
	PositionUV:            {SlotPosition, SlotTexCoord},
	PositionColorUV:       {SlotPosition, SlotColor, SlotTexCoord},
	PositionNormal:        {SlotPosition, SlotNormal},
	PositionNormalUV:      {SlotPosition, SlotNormal, SlotTexCoord},
	PositionNormalColor:   {SlotPosition, SlotNormal, SlotColor},
	PositionNormalColorUV: {SlotPosition, SlotNormal, SlotColor, SlotTexCoord},
}

var kindNames = [kindCount]string{
	None:                  "None",
	Position:              "Position",
	PositionColor:         "PositionColor",
	PositionUV:            "PositionUV",
	PositionColorUV:       "PositionColorUV",
	PositionNormal:        "PositionNormal",
	PositionNormalUV:      "PositionNormalUV",
	PositionNormalColor:   "PositionNormalColor",
	PositionNormalColorUV: "PositionNormalColorUV",
}

// Kinds returns every describable kind in tag order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := Position; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k has a layout.
func (k Kind) Valid() bool {
	return k > None && k < kindCount
}

// Slots returns a copy of the slots of k in record order.
// It returns nil for kinds without a layout.
func (k Kind) Slots() []Slot {
	if !k.Valid() {
		return nil
	}
	return append([]Slot(nil), kindSlots[k]...)
}

// Has reports whether k includes slot s.
func (k Kind) Has(s Slot) bool {
	if !k.Valid() {
		return false
	}
	for _, ks := range kindSlots[k] {
		if ks == s {
			return true
		}
	}
	return false
}

// Stride returns the byte size of one record of kind k, or 0 for kinds
// without a layout.
func (k Kind) Stride() uint64 {
	if !k.Valid() {
		return 0
	}
	var stride uint64
	for _, s := range kindSlots[k] {
		stride += s.Size()
	}
	return stride
}

// String returns the canonical name of k.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind name.
//
// Matching ignores case and the separators '_', '-' and ' ', so
// "position_color_uv" and "PositionColorUV" are equivalent. The
// "Texture" spelling of the texture coordinate slot is accepted as an
// alias of "UV" ("PositionNormalTexture" parses as PositionNormalUV).
func ParseKind(name string) (Kind, error) {
	key := normalizeKindName(name)
	for k := Position; k < kindCount; k++ {
		if normalizeKindName(kindNames[k]) == key {
			return k, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

func normalizeKindName(name string) string {
	s := strings.ToLower(name)
	s = strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
	s = strings.TrimPrefix(s, "vertextype")
	s = strings.TrimPrefix(s, "vertex")
	if strings.HasSuffix(s, "texture") {
		s = strings.TrimSuffix(s, "texture") + "uv"
	}
	return s
}
