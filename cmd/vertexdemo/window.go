// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"sync"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/vertexdemo"
	"github.com/gogpu/vertexdemo/internal/config"
	"github.com/gogpu/vertexdemo/mesh"
	"github.com/gogpu/vertexdemo/vertex"
)

// runWindow draws the configured stage into a gogpu window until it is
// closed. Space steps through clear, triangle and the mesh of every kind.
func runWindow(cfg config.Config, s config.Settings, opts []vertexdemo.Option, log *slog.Logger) error {
	m, err := loadMesh(cfg.Mesh)
	if err != nil {
		return err
	}

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("vertexdemo").
		WithSize(cfg.Width, cfg.Height).
		WithContinuousRender(true))

	v := &viewer{
		opts:    opts,
		log:     log,
		mesh:    m,
		stage:   s.Stage,
		kind:    s.Kind,
		buffers: make(map[vertex.Kind]*vertexdemo.MeshBuffer),
	}

	app.OnDraw(func(dc *gogpu.Context) {
		if dc.Width() <= 0 || dc.Height() <= 0 {
			return
		}
		if !v.ensureRenderer(app.GPUContextProvider()) {
			return
		}
		sw, sh := dc.SurfaceSize()
		v.report(v.draw(dc.SurfaceView(), int(sw), int(sh)))
	})

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key == gpucontext.KeySpace {
			v.advance()
		}
	})

	app.OnClose(v.close)

	log.Info("window opened", "stage", s.Stage, "kind", s.Kind, "size", [2]int{cfg.Width, cfg.Height})
	return app.Run()
}

// viewer holds the renderer state of the window. Draw callbacks and key
// events may arrive on different goroutines.
type viewer struct {
	opts []vertexdemo.Option
	log  *slog.Logger
	mesh *mesh.Mesh

	mu      sync.Mutex
	stage   vertexdemo.Stage
	kind    vertex.Kind
	failed  bool
	lastErr string

	r       *vertexdemo.Renderer
	format  gputypes.TextureFormat
	target  *vertexdemo.Target
	buffers map[vertex.Kind]*vertexdemo.MeshBuffer
}

// ensureRenderer adopts the window's device on the first frame.
func (v *viewer) ensureRenderer(provider gpucontext.DeviceProvider) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.r != nil {
		return true
	}
	if v.failed || provider == nil {
		return false
	}
	r, err := vertexdemo.NewWithProvider(provider, v.opts...)
	if err != nil {
		v.failed = true
		v.log.Error("window device unavailable", "err", err)
		return false
	}
	v.format = provider.SurfaceFormat()
	if err := r.Prepare(v.format); err != nil {
		v.log.Warn("pipeline warm-up failed", "err", err)
	}
	v.r = r
	return true
}

func (v *viewer) draw(view any, w, h int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.target != nil {
		if tw, th := v.target.Size(); tw != w || th != h {
			v.target.Release()
			v.target = nil
		}
	}
	if v.target == nil {
		t, err := v.r.NewSurfaceTarget(view, w, h, v.format)
		if err != nil {
			return err
		}
		v.target = t
	} else if err := v.target.SetView(view); err != nil {
		return err
	}

	switch v.stage {
	case vertexdemo.StageTriangle:
		return v.r.DrawTriangle(v.target)
	case vertexdemo.StageMesh:
		b, err := v.buffer(v.kind)
		if err != nil {
			return err
		}
		return v.r.DrawBuffer(v.target, b)
	default:
		return v.r.Clear(v.target)
	}
}

// buffer returns the uploaded mesh for kind, uploading it once.
func (v *viewer) buffer(kind vertex.Kind) (*vertexdemo.MeshBuffer, error) {
	if b, ok := v.buffers[kind]; ok {
		return b, nil
	}
	b, err := v.r.Upload(v.mesh, kind)
	if err != nil {
		return nil, err
	}
	v.buffers[kind] = b
	return b, nil
}

// advance steps to the next kind, wrapping from the last kind back to the
// clear stage.
func (v *viewer) advance() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stage, v.kind = nextView(v.stage, v.kind)
	v.log.Info("view", "stage", v.stage, "kind", v.kind)
}

// nextView returns the view after stage and kind in the cycle
// clear, triangle, mesh of each kind in tag order.
func nextView(stage vertexdemo.Stage, kind vertex.Kind) (vertexdemo.Stage, vertex.Kind) {
	kinds := vertex.Kinds()
	switch stage {
	case vertexdemo.StageClear:
		return vertexdemo.StageTriangle, kind
	case vertexdemo.StageTriangle:
		return vertexdemo.StageMesh, kinds[0]
	}
	for i, k := range kinds {
		if k == kind && i+1 < len(kinds) {
			return vertexdemo.StageMesh, kinds[i+1]
		}
	}
	return vertexdemo.StageClear, kind
}

// report logs a draw error once until it changes.
func (v *viewer) report(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg != v.lastErr && err != nil {
		v.log.Error("draw failed", "stage", v.stage, "kind", v.kind, "err", err)
	}
	v.lastErr = msg
}

func (v *viewer) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.r == nil {
		return
	}
	for k, b := range v.buffers {
		b.Release()
		delete(v.buffers, k)
	}
	if v.target != nil {
		v.target.Release()
		v.target = nil
	}
	v.r.Close()
	v.r = nil
}
