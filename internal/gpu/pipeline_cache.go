// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNilPipelineDescriptor is returned by GetOrCreate for a nil descriptor.
var ErrNilPipelineDescriptor = errors.New("gpu: pipeline descriptor is nil")

// DepthFormat is the depth attachment format used by depth-tested pipelines.
const DepthFormat = gputypes.TextureFormatDepth24PlusStencil8

// PipelineDescriptor describes a render pipeline with a single colour target.
type PipelineDescriptor struct {
	Label  string
	Shader Shader

	// VertexEntryPoint and FragmentEntryPoint default to vs_main and fs_main.
	VertexEntryPoint   string
	FragmentEntryPoint string

	// Buffers is the vertex input; empty for pipelines without vertex buffers.
	Buffers []gputypes.VertexBufferLayout

	Topology    gputypes.PrimitiveTopology
	CullMode    gputypes.CullMode
	ColorFormat gputypes.TextureFormat

	// DepthTest enables a DepthFormat attachment with less-than testing.
	DepthTest bool
}

// Pipeline is a cached render pipeline and the objects it was built from.
type Pipeline struct {
	Label     string
	Hash      uint64
	DepthTest bool

	raw    hal.RenderPipeline
	layout hal.PipelineLayout
	module hal.ShaderModule
}

// Raw returns the HAL pipeline.
func (p *Pipeline) Raw() hal.RenderPipeline { return p.raw }

func (p *Pipeline) destroy(device hal.Device) {
	if p.raw != nil {
		device.DestroyRenderPipeline(p.raw)
		p.raw = nil
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// PipelineCache creates render pipelines once per distinct descriptor.
//
// PipelineCache is safe for concurrent use. Lookups take a read lock;
// creation re-checks under the write lock.
type PipelineCache struct {
	dev *Device

	mu        sync.RWMutex
	pipelines map[uint64]*Pipeline

	hits   uint64
	misses uint64
}

// NewPipelineCache creates an empty cache for dev.
func NewPipelineCache(dev *Device) *PipelineCache {
	return &PipelineCache{
		dev:       dev,
		pipelines: make(map[uint64]*Pipeline),
	}
}

// GetOrCreate returns the pipeline for desc, creating it on first use.
func (c *PipelineCache) GetOrCreate(desc *PipelineDescriptor) (*Pipeline, error) {
	if desc == nil {
		return nil, ErrNilPipelineDescriptor
	}
	key := HashPipelineDescriptor(desc)

	c.mu.RLock()
	if p, ok := c.pipelines[key]; ok {
		c.mu.RUnlock()
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[key]; ok {
		atomic.AddUint64(&c.hits, 1)
		return p, nil
	}

	p, err := c.create(desc)
	if err != nil {
		return nil, err
	}
	p.Hash = key
	c.pipelines[key] = p
	atomic.AddUint64(&c.misses, 1)
	slogger().Debug("gpu: pipeline created", "label", desc.Label, "hash", key)
	return p, nil
}

func (c *PipelineCache) create(desc *PipelineDescriptor) (*Pipeline, error) {
	device, _, err := c.dev.handles()
	if err != nil {
		return nil, err
	}

	vsEntry := desc.VertexEntryPoint
	if vsEntry == "" {
		vsEntry = "vs_main"
	}
	fsEntry := desc.FragmentEntryPoint
	if fsEntry == "" {
		fsEntry = "fs_main"
	}

	p := &Pipeline{Label: desc.Label, DepthTest: desc.DepthTest}
	p.module, err = createShaderModule(device, desc.Shader)
	if err != nil {
		return nil, err
	}

	p.layout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.Label + "_layout",
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create %s pipeline layout: %w", desc.Label, err)
	}

	var depth *hal.DepthStencilState
	if desc.DepthTest {
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		depth = &hal.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront:      keep,
			StencilBack:       keep,
		}
	}

	p.raw, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: vsEntry,
			Buffers:    desc.Buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: fsEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    desc.ColorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: desc.Topology,
			CullMode: desc.CullMode,
		},
		DepthStencil: depth,
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create %s pipeline: %w", desc.Label, err)
	}
	return p, nil
}

// Stats returns the number of cache hits and misses.
func (c *PipelineCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (c *PipelineCache) HitRate() float64 {
	hits, misses := c.Stats()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Size returns the number of cached pipelines.
func (c *PipelineCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// DestroyAll destroys every cached pipeline and resets the statistics.
func (c *PipelineCache) DestroyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if device, _, err := c.dev.handles(); err == nil {
		for _, p := range c.pipelines {
			p.destroy(device)
		}
	}
	c.pipelines = make(map[uint64]*Pipeline)
	atomic.StoreUint64(&c.hits, 0)
	atomic.StoreUint64(&c.misses, 0)
}

// HashPipelineDescriptor computes an FNV-1a hash over every field that
// changes the created pipeline. Labels are ignored.
func HashPipelineDescriptor(desc *PipelineDescriptor) uint64 {
	h := fnv.New64a()
	hashWriteUint64(h, desc.Shader.Hash)
	hashWriteString(h, desc.VertexEntryPoint)
	hashWriteString(h, desc.FragmentEntryPoint)

	hashWriteUint32(h, uint32(len(desc.Buffers))) //nolint:gosec // one buffer per pipeline
	for i := range desc.Buffers {
		layout := &desc.Buffers[i]
		hashWriteUint64(h, layout.ArrayStride)
		hashWriteUint32(h, uint32(layout.StepMode))
		hashWriteUint32(h, uint32(len(layout.Attributes))) //nolint:gosec // at most four attributes
		for j := range layout.Attributes {
			attr := &layout.Attributes[j]
			hashWriteUint32(h, attr.ShaderLocation)
			hashWriteUint32(h, uint32(attr.Format))
			hashWriteUint64(h, attr.Offset)
		}
	}

	hashWriteUint32(h, uint32(desc.Topology))
	hashWriteUint32(h, uint32(desc.CullMode))
	hashWriteUint32(h, uint32(desc.ColorFormat))
	hashWriteBool(h, desc.DepthTest)
	return h.Sum64()
}

func hashBytes(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

//nolint:gosec // entry point names are short
func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}

func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
