// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertexdemo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStage is returned by ParseStage for an unrecognised name.
var ErrUnknownStage = errors.New("vertexdemo: unknown stage")

// Stage selects what a frame draws.
type Stage uint8

const (
	// StageClear only clears the target.
	StageClear Stage = iota

	// StageTriangle draws the built-in RGB triangle without vertex input.
	StageTriangle

	// StageMesh draws a mesh through the pipeline of a vertex kind.
	StageMesh
)

var stageNames = [...]string{
	StageClear:    "clear",
	StageTriangle: "triangle",
	StageMesh:     "mesh",
}

// Stages returns every stage in order.
func Stages() []Stage {
	return []Stage{StageClear, StageTriangle, StageMesh}
}

// String returns the lower-case stage name.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// ParseStage parses a stage name case-insensitively.
func ParseStage(name string) (Stage, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return StageClear, fmt.Errorf("%w: %q", ErrUnknownStage, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	if int(s) >= len(stageNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStage, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	v, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
