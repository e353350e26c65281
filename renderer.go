// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertexdemo

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vertexdemo/internal/gpu"
	"github.com/gogpu/vertexdemo/mesh"
	"github.com/gogpu/vertexdemo/vertex"
)

// Renderer errors.
var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("vertexdemo: renderer is closed")

	// ErrNilMesh is returned when a mesh draw has no geometry.
	ErrNilMesh = errors.New("vertexdemo: mesh is nil")

	// ErrInvalidSize is returned for a target with a non-positive side.
	ErrInvalidSize = errors.New("vertexdemo: invalid target size")

	// ErrInvalidSurface is returned when a surface view is not a HAL
	// texture view.
	ErrInvalidSurface = errors.New("vertexdemo: surface view is not a texture view")

	// ErrForeignBuffer is returned when a MeshBuffer is drawn by a Renderer
	// other than the one that uploaded it.
	ErrForeignBuffer = errors.New("vertexdemo: mesh buffer belongs to another renderer")

	// ErrNilTarget is returned when drawing without a target.
	ErrNilTarget = errors.New("vertexdemo: target is nil")
)

// Renderer draws the demo stages onto image or window targets.
//
// Pipelines are created lazily, one per stage, vertex kind and colour
// format, and cached until Close. A Renderer is safe for concurrent use;
// GPU work is serialized.
type Renderer struct {
	dev       *gpu.Device
	opts      options
	log       *slog.Logger
	shaders   *gpu.ShaderLibrary
	pipelines *gpu.PipelineCache

	frameMu sync.Mutex // serializes GPU submissions

	mu      sync.Mutex
	buffers map[*MeshBuffer]struct{}
	targets map[*Target]struct{}
	closed  bool
}

// New opens a GPU device on the configured backend and returns a Renderer
// owning it.
func New(opts ...Option) (*Renderer, error) {
	o := buildOptions(opts)
	backend, err := gpu.ParseBackend(o.backend)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: %w", err)
	}
	dev, err := gpu.OpenDevice(backend)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: %w", err)
	}
	return newRenderer(dev, o), nil
}

// NewWithProvider returns a Renderer on the device of a window host that
// exposes HalDevice() and HalQueue(), such as the gogpu app context. The
// device stays owned by the host.
func NewWithProvider(provider any, opts ...Option) (*Renderer, error) {
	dev, err := gpu.FromProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: %w", err)
	}
	return newRenderer(dev, buildOptions(opts)), nil
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newRenderer(dev *gpu.Device, o options) *Renderer {
	log := o.logger
	if log == nil {
		log = Logger()
	}
	r := &Renderer{
		dev:       dev,
		opts:      o,
		log:       log,
		shaders:   gpu.NewShaderLibrary(o.basePath, o.validate),
		pipelines: gpu.NewPipelineCache(dev),
		buffers:   make(map[*MeshBuffer]struct{}),
		targets:   make(map[*Target]struct{}),
	}
	log.Info("vertexdemo: renderer created",
		"device", dev.Name(),
		"basePath", o.basePath,
		"validate", o.validate)
	return r
}

// DeviceName returns the adapter name, or "external" for a host device.
func (r *Renderer) DeviceName() string { return r.dev.Name() }

// BasePath returns the shader override directory.
func (r *Renderer) BasePath() string { return r.shaders.BasePath() }

// PipelineStats reports pipeline cache hits and misses.
func (r *Renderer) PipelineStats() (hits, misses uint64) { return r.pipelines.Stats() }

func (r *Renderer) checkOpen() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// Close releases every target, mesh buffer and pipeline created through r,
// then the device if r owns it. It is safe to call more than once.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	buffers := r.buffers
	targets := r.targets
	r.buffers = nil
	r.targets = nil
	r.mu.Unlock()

	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	for b := range buffers {
		b.vb.Release()
	}
	for t := range targets {
		t.raw.Release()
	}
	r.pipelines.DestroyAll()
	r.dev.Close()
	r.log.Info("vertexdemo: renderer closed",
		"buffers", len(buffers),
		"targets", len(targets))
}

// Prepare creates the triangle pipeline and the mesh pipeline of every
// vertex kind for format up front, so the first frame does not stall.
func (r *Renderer) Prepare(format gputypes.TextureFormat) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if _, err := r.trianglePipeline(format); err != nil {
		return err
	}
	for _, k := range vertex.Kinds() {
		if _, err := r.meshPipeline(k, format); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) trianglePipeline(format gputypes.TextureFormat) (*gpu.Pipeline, error) {
	shader, err := r.shaders.Load(gpu.TriangleShader)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: triangle shader: %w", err)
	}
	p, err := r.pipelines.GetOrCreate(&gpu.PipelineDescriptor{
		Label:       "triangle",
		Shader:      shader,
		Topology:    gputypes.PrimitiveTopologyTriangleList,
		CullMode:    gputypes.CullModeNone,
		ColorFormat: format,
	})
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: triangle pipeline: %w", err)
	}
	return p, nil
}

func (r *Renderer) meshPipeline(k vertex.Kind, format gputypes.TextureFormat) (*gpu.Pipeline, error) {
	layout, err := vertex.Describe(k)
	if err != nil {
		return nil, err
	}
	shader, err := r.shaders.Mesh(layout)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: %s shader: %w", k, err)
	}
	p, err := r.pipelines.GetOrCreate(&gpu.PipelineDescriptor{
		Label:       gpu.MeshShaderName(k),
		Shader:      shader,
		Buffers:     layout.BufferLayouts(),
		Topology:    gputypes.PrimitiveTopologyTriangleList,
		CullMode:    gputypes.CullModeNone,
		ColorFormat: format,
		DepthTest:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: %s pipeline: %w", k, err)
	}
	return p, nil
}

// Clear clears t to the configured colour.
func (r *Renderer) Clear(t *Target) error {
	return r.render(t, nil)
}

// DrawTriangle clears t and draws the built-in RGB triangle.
func (r *Renderer) DrawTriangle(t *Target) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if t == nil {
		return ErrNilTarget
	}
	p, err := r.trianglePipeline(t.Format())
	if err != nil {
		return err
	}
	return r.render(t, []gpu.Draw{{Pipeline: p, VertexCount: 3}})
}

// DrawMesh clears t and draws m with the layout of kind. The mesh is
// uploaded for this frame only; use Upload and DrawBuffer to draw the same
// geometry repeatedly.
func (r *Renderer) DrawMesh(t *Target, m *mesh.Mesh, kind vertex.Kind) error {
	b, err := r.Upload(m, kind)
	if err != nil {
		return err
	}
	defer b.Release()
	return r.DrawBuffer(t, b)
}

// DrawBuffer clears t and draws an uploaded mesh.
func (r *Renderer) DrawBuffer(t *Target, b *MeshBuffer) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if t == nil {
		return ErrNilTarget
	}
	if b == nil {
		return ErrNilMesh
	}
	if b.r != r {
		return ErrForeignBuffer
	}
	p, err := r.meshPipeline(b.kind, t.Format())
	if err != nil {
		return err
	}
	return r.render(t, []gpu.Draw{{Pipeline: p, Buffer: b.vb}})
}

// Draw renders one stage onto t. m and kind are used only by StageMesh.
func (r *Renderer) Draw(t *Target, stage Stage, m *mesh.Mesh, kind vertex.Kind) error {
	switch stage {
	case StageClear:
		return r.Clear(t)
	case StageTriangle:
		return r.DrawTriangle(t)
	case StageMesh:
		return r.DrawMesh(t, m, kind)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStage, uint8(stage))
	}
}

// RenderImage renders one stage into a new w x h image. For StageMesh a nil
// m draws the unit cube.
func (r *Renderer) RenderImage(w, h int, stage Stage, m *mesh.Mesh, kind vertex.Kind) (*image.NRGBA, error) {
	if stage == StageMesh {
		if _, err := vertex.Describe(kind); err != nil {
			return nil, err
		}
		if m == nil {
			m = mesh.Cube()
		}
	}
	t, err := r.NewImageTarget(w, h)
	if err != nil {
		return nil, err
	}
	defer t.Release()
	if err := r.Draw(t, stage, m, kind); err != nil {
		return nil, err
	}
	return t.Image(), nil
}

func (r *Renderer) render(t *Target, draws []gpu.Draw) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if t == nil {
		return ErrNilTarget
	}

	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	start := time.Now()
	if err := r.dev.Render(t.raw, gpu.Frame{Clear: r.opts.clear, Draws: draws}); err != nil {
		return fmt.Errorf("vertexdemo: render: %w", err)
	}
	r.log.Debug("vertexdemo: frame rendered",
		"draws", len(draws),
		"offscreen", t.raw.Offscreen(),
		"elapsed", time.Since(start))
	return nil
}

// Upload encodes m with the layout of kind and copies it into a GPU vertex
// buffer. An unsupported kind fails before any GPU work.
func (r *Renderer) Upload(m *mesh.Mesh, kind vertex.Kind) (*MeshBuffer, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := vertex.Describe(kind); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNilMesh
	}
	data, count, err := m.Encode(kind)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: encode %s: %w", kind, err)
	}

	r.frameMu.Lock()
	vb, err := gpu.UploadVertices(r.dev, data, count)
	r.frameMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: upload %s: %w", kind, err)
	}

	b := &MeshBuffer{r: r, kind: kind, vb: vb}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		vb.Release()
		return nil, ErrClosed
	}
	r.buffers[b] = struct{}{}
	r.log.Debug("vertexdemo: mesh uploaded", "kind", kind, "vertices", count, "bytes", len(data))
	return b, nil
}

// MeshBuffer is mesh geometry resident on the GPU in one vertex layout.
type MeshBuffer struct {
	r    *Renderer
	kind vertex.Kind
	vb   *gpu.VertexBuffer
}

// Kind returns the vertex layout of the buffer.
func (b *MeshBuffer) Kind() vertex.Kind { return b.kind }

// Count returns the number of vertices drawn.
func (b *MeshBuffer) Count() uint32 { return b.vb.Count() }

// Size returns the buffer size in bytes.
func (b *MeshBuffer) Size() uint64 { return b.vb.Size() }

// Release frees the GPU buffer. It is safe to call more than once.
func (b *MeshBuffer) Release() {
	b.r.mu.Lock()
	if b.r.buffers != nil {
		delete(b.r.buffers, b)
	}
	b.r.mu.Unlock()
	b.vb.Release()
}

// Target is a surface the Renderer draws onto: either an offscreen image
// or a window swapchain.
type Target struct {
	r   *Renderer
	raw *gpu.Target
}

// NewImageTarget creates a w x h offscreen target in the configured colour
// format. Every frame drawn onto it is read back and available from Image.
func (r *Renderer) NewImageTarget(w, h int) (*Target, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	raw, err := gpu.NewOffscreenTarget(r.dev, uint32(w), uint32(h), r.opts.colorFormat)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: image target: %w", err)
	}
	return r.track(raw), nil
}

// NewSurfaceTarget wraps a swapchain texture view owned by a window host.
// view must be a hal.TextureView; format is the swapchain format.
func (r *Renderer) NewSurfaceTarget(view any, w, h int, format gputypes.TextureFormat) (*Target, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	tv, ok := view.(hal.TextureView)
	if !ok || tv == nil {
		return nil, ErrInvalidSurface
	}
	raw, err := gpu.NewSurfaceTarget(r.dev, tv, uint32(w), uint32(h), format)
	if err != nil {
		return nil, fmt.Errorf("vertexdemo: surface target: %w", err)
	}
	return r.track(raw), nil
}

func (r *Renderer) track(raw *gpu.Target) *Target {
	t := &Target{r: r, raw: raw}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.targets != nil {
		r.targets[t] = struct{}{}
	}
	return t
}

// SetView points a surface target at the next swapchain view.
func (t *Target) SetView(view any) error {
	tv, ok := view.(hal.TextureView)
	if !ok || tv == nil {
		return ErrInvalidSurface
	}
	return t.raw.SetView(tv)
}

// Size returns the target dimensions in pixels.
func (t *Target) Size() (w, h int) {
	tw, th := t.raw.Size()
	return int(tw), int(th)
}

// Format returns the colour format.
func (t *Target) Format() gputypes.TextureFormat { return t.raw.Format() }

// Image returns a copy of the last frame of an image target, or nil for a
// surface target. Before the first frame the image is transparent black.
func (t *Target) Image() *image.NRGBA { return t.raw.Image() }

// Release frees the target's GPU resources. It is safe to call more than
// once.
func (t *Target) Release() {
	t.r.mu.Lock()
	if t.r.targets != nil {
		delete(t.r.targets, t)
	}
	t.r.mu.Unlock()
	t.raw.Release()
}
