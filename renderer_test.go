// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vertexdemo

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/vertexdemo/mesh"
	"github.com/gogpu/vertexdemo/vertex"
)

// newNoopRenderer returns a Renderer on the noop backend, closed at cleanup.
func newNoopRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	r, err := New(append([]Option{WithBackend("noop")}, opts...)...)
	if err != nil {
		t.Fatalf("New(noop) failed: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(WithBackend("dx12")); err == nil {
		t.Fatal("New(dx12) should fail")
	}
}

func TestRenderImageStages(t *testing.T) {
	r := newNoopRenderer(t)
	for _, stage := range Stages() {
		t.Run(stage.String(), func(t *testing.T) {
			img, err := r.RenderImage(40, 24, stage, nil, vertex.PositionColor)
			if err != nil {
				t.Fatalf("RenderImage failed: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 24 {
				t.Errorf("bounds = %v, want 40x24", b)
			}
		})
	}
}

func TestRenderImageEveryKind(t *testing.T) {
	r := newNoopRenderer(t)
	cube := mesh.Cube()
	for _, k := range vertex.Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			if _, err := r.RenderImage(16, 16, StageMesh, cube, k); err != nil {
				t.Fatalf("RenderImage(%v) failed: %v", k, err)
			}
		})
	}
	_, misses := r.PipelineStats()
	if misses != uint64(len(vertex.Kinds())) {
		t.Errorf("pipeline misses = %d, want one per kind (%d)", misses, len(vertex.Kinds()))
	}
}

func TestUnsupportedKindFailsBeforeGPU(t *testing.T) {
	r := newNoopRenderer(t)
	for _, k := range []vertex.Kind{vertex.None, vertex.Kind(200)} {
		if _, err := r.RenderImage(8, 8, StageMesh, nil, k); !errors.Is(err, vertex.ErrUnsupportedKind) {
			t.Errorf("RenderImage(%d) error = %v, want ErrUnsupportedKind", k, err)
		}
		if _, err := r.Upload(mesh.Triangle(), k); !errors.Is(err, vertex.ErrUnsupportedKind) {
			t.Errorf("Upload(%d) error = %v, want ErrUnsupportedKind", k, err)
		}
	}
	if _, misses := r.PipelineStats(); misses != 0 {
		t.Errorf("unsupported kinds created %d pipelines", misses)
	}
}

func TestPipelinesCachedAcrossFrames(t *testing.T) {
	r := newNoopRenderer(t)
	target, err := r.NewImageTarget(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	for range 3 {
		if err := r.DrawTriangle(target); err != nil {
			t.Fatal(err)
		}
	}
	hits, misses := r.PipelineStats()
	if hits != 2 || misses != 1 {
		t.Errorf("PipelineStats() = %d hits, %d misses; want 2, 1", hits, misses)
	}
}

func TestPrepare(t *testing.T) {
	r := newNoopRenderer(t)
	if err := r.Prepare(gputypes.TextureFormatBGRA8Unorm); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	_, misses := r.PipelineStats()
	if want := uint64(len(vertex.Kinds()) + 1); misses != want {
		t.Errorf("misses = %d, want %d", misses, want)
	}
}

func TestUploadAndDrawBuffer(t *testing.T) {
	r := newNoopRenderer(t)
	target, err := r.NewImageTarget(32, 32)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	b, err := r.Upload(mesh.Quad(), vertex.PositionUV)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	defer b.Release()
	if b.Kind() != vertex.PositionUV {
		t.Errorf("Kind() = %v", b.Kind())
	}
	if b.Count() != 6 {
		t.Errorf("Count() = %d, want 6", b.Count())
	}
	if b.Size() != 6*vertex.PositionUV.Stride() {
		t.Errorf("Size() = %d, want %d", b.Size(), 6*vertex.PositionUV.Stride())
	}
	for range 2 {
		if err := r.DrawBuffer(target, b); err != nil {
			t.Fatalf("DrawBuffer failed: %v", err)
		}
	}
	if target.Image() == nil {
		t.Error("image target should hold the last frame")
	}
}

func TestDrawErrors(t *testing.T) {
	r := newNoopRenderer(t)
	other := newNoopRenderer(t)

	target, err := r.NewImageTarget(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()

	if err := r.DrawMesh(target, nil, vertex.Position); !errors.Is(err, ErrNilMesh) {
		t.Errorf("DrawMesh(nil) error = %v, want ErrNilMesh", err)
	}
	if err := r.Clear(nil); !errors.Is(err, ErrNilTarget) {
		t.Errorf("Clear(nil) error = %v, want ErrNilTarget", err)
	}
	if err := r.Draw(target, Stage(9), nil, vertex.Position); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("Draw(stage 9) error = %v, want ErrUnknownStage", err)
	}

	foreign, err := other.Upload(mesh.Triangle(), vertex.Position)
	if err != nil {
		t.Fatal(err)
	}
	defer foreign.Release()
	if err := r.DrawBuffer(target, foreign); !errors.Is(err, ErrForeignBuffer) {
		t.Errorf("DrawBuffer(foreign) error = %v, want ErrForeignBuffer", err)
	}
}

func TestImageTargetSize(t *testing.T) {
	r := newNoopRenderer(t)
	tests := []struct {
		w, h int
	}{
		{0, 10},
		{10, -1},
	}
	for _, tt := range tests {
		if _, err := r.NewImageTarget(tt.w, tt.h); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("NewImageTarget(%d, %d) error = %v, want ErrInvalidSize", tt.w, tt.h, err)
		}
	}

	target, err := r.NewImageTarget(12, 7)
	if err != nil {
		t.Fatal(err)
	}
	defer target.Release()
	if w, h := target.Size(); w != 12 || h != 7 {
		t.Errorf("Size() = %dx%d, want 12x7", w, h)
	}
	if target.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format() = %v, want RGBA8Unorm", target.Format())
	}
	img := target.Image()
	if img == nil {
		t.Fatal("Image() should not be nil for an image target")
	}
	if img.Pix[3] != 0 {
		t.Error("Image() should be transparent before the first frame")
	}
}

func TestSurfaceTargetRejectsNonView(t *testing.T) {
	r := newNoopRenderer(t)
	if _, err := r.NewSurfaceTarget("not a view", 8, 8, gputypes.TextureFormatBGRA8Unorm); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("NewSurfaceTarget(string) error = %v, want ErrInvalidSurface", err)
	}
	if _, err := r.NewSurfaceTarget(nil, 8, 8, gputypes.TextureFormatBGRA8Unorm); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("NewSurfaceTarget(nil) error = %v, want ErrInvalidSurface", err)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	r, err := New(WithBackend("noop"))
	if err != nil {
		t.Fatal(err)
	}
	target, err := r.NewImageTarget(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Upload(mesh.Cube(), vertex.PositionNormal)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.DrawBuffer(target, b); err != nil {
		t.Fatal(err)
	}

	r.Close()
	r.Close()

	// Releasing after Close is a no-op.
	b.Release()
	target.Release()

	if err := r.Clear(target); !errors.Is(err, ErrClosed) {
		t.Errorf("Clear after Close error = %v, want ErrClosed", err)
	}
	if _, err := r.Upload(mesh.Cube(), vertex.Position); !errors.Is(err, ErrClosed) {
		t.Errorf("Upload after Close error = %v, want ErrClosed", err)
	}
	if _, err := r.NewImageTarget(8, 8); !errors.Is(err, ErrClosed) {
		t.Errorf("NewImageTarget after Close error = %v, want ErrClosed", err)
	}
}

func TestBasePathOverride(t *testing.T) {
	dir := t.TempDir()
	src := `@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.5, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`
	if err := os.WriteFile(filepath.Join(dir, "triangle.wgsl"), []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	r := newNoopRenderer(t, WithBasePath(dir))
	if r.BasePath() != dir {
		t.Errorf("BasePath() = %q, want %q", r.BasePath(), dir)
	}
	if _, err := r.RenderImage(8, 8, StageTriangle, nil, vertex.None); err != nil {
		t.Fatalf("RenderImage with override failed: %v", err)
	}
}

func TestConcurrentRenderImage(t *testing.T) {
	r := newNoopRenderer(t)
	kinds := vertex.Kinds()

	var wg sync.WaitGroup
	for _, k := range kinds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.RenderImage(8, 8, StageMesh, mesh.Cube(), k); err != nil {
				t.Errorf("RenderImage(%v) failed: %v", k, err)
			}
		}()
	}
	wg.Wait()
}
