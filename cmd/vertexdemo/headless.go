// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/gogpu/vertexdemo"
	"github.com/gogpu/vertexdemo/internal/config"
	"github.com/gogpu/vertexdemo/internal/imageout"
	"github.com/gogpu/vertexdemo/internal/parallel"
	"github.com/gogpu/vertexdemo/mesh"
	"github.com/gogpu/vertexdemo/vertex"
)

// meshExtent is the half-size loaded models are scaled to in clip space.
const meshExtent = 0.8

// loadMesh resolves a built-in mesh name or a glTF file path.
func loadMesh(name string) (*mesh.Mesh, error) {
	switch strings.ToLower(name) {
	case "", "cube":
		return mesh.Cube(), nil
	case "quad":
		return mesh.Quad(), nil
	case "triangle":
		return mesh.Triangle(), nil
	}
	m, err := mesh.LoadGLTF(name)
	if err != nil {
		return nil, err
	}
	if m.Normals == nil {
		m.GenerateNormals()
	}
	m.FitUnit(meshExtent)
	return m, nil
}

// renderImage renders one stage at cfg size times the supersample factor and
// scales the result back down.
func renderImage(r *vertexdemo.Renderer, cfg config.Config, stage vertexdemo.Stage, m *mesh.Mesh, kind vertex.Kind) (*image.NRGBA, error) {
	ss := cfg.Supersample
	img, err := r.RenderImage(cfg.Width*ss, cfg.Height*ss, stage, m, kind)
	if err != nil {
		return nil, err
	}
	if ss > 1 {
		img = imageout.Downsample(img, cfg.Width, cfg.Height)
	}
	return img, nil
}

func renderOne(cfg config.Config, s config.Settings, opts []vertexdemo.Option, log *slog.Logger) error {
	var m *mesh.Mesh
	if s.Stage == vertexdemo.StageMesh {
		var err error
		if m, err = loadMesh(cfg.Mesh); err != nil {
			return err
		}
	}

	r, err := vertexdemo.New(append(opts, vertexdemo.WithBackend(cfg.Backend))...)
	if err != nil {
		return err
	}
	defer r.Close()

	start := time.Now()
	img, err := renderImage(r, cfg, s.Stage, m, s.Kind)
	if err != nil {
		return err
	}
	if err := imageout.Save(cfg.Output, img, cfg.Format); err != nil {
		return err
	}
	log.Info("rendered",
		"stage", s.Stage,
		"kind", s.Kind,
		"device", r.DeviceName(),
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"supersample", cfg.Supersample,
		"output", cfg.Output,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// renderAll writes the mesh stage of every kind into cfg.Output as a
// directory, one <kind>.<format> file each.
func renderAll(cfg config.Config, opts []vertexdemo.Option, progress io.Writer, log *slog.Logger) error {
	format, err := imageout.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	m, err := loadMesh(cfg.Mesh)
	if err != nil {
		return err
	}
	r, err := vertexdemo.New(append(opts, vertexdemo.WithBackend(cfg.Backend))...)
	if err != nil {
		return err
	}
	defer r.Close()

	kinds := vertex.Kinds()
	bar := newProgressBar(len(kinds), progress)
	start := time.Now()

	// The GPU renders one frame at a time; downsampling and encoding run on
	// the pool while the next kind renders.
	pool := parallel.NewWorkerPool(0)
	for _, k := range kinds {
		img, err := r.RenderImage(cfg.Width*cfg.Supersample, cfg.Height*cfg.Supersample, vertexdemo.StageMesh, m, k)
		if err != nil {
			_ = pool.Wait()
			return fmt.Errorf("%s: %w", k, err)
		}
		path := filepath.Join(cfg.Output, k.String()+format.Ext())
		err = pool.Submit(func() error {
			if cfg.Supersample > 1 {
				img = imageout.Downsample(img, cfg.Width, cfg.Height)
			}
			if err := imageout.Save(path, img, string(format)); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			log.Debug("kind rendered", "kind", k, "output", path)
			_ = bar.Add(1)
			return nil
		})
		if err != nil {
			return err
		}
	}
	if err := pool.Wait(); err != nil {
		return err
	}
	_ = bar.Finish()

	hits, misses := r.PipelineStats()
	log.Info("rendered all kinds",
		"count", len(kinds),
		"dir", cfg.Output,
		"pipelines", misses,
		"cacheHits", hits,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// newProgressBar draws a bar on w when it is a terminal and stays silent
// otherwise.
func newProgressBar(n int, w io.Writer) *progressbar.ProgressBar {
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("rendering kinds"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// describeKinds prints the layout table of every kind, or of one kind when
// name is set.
func describeKinds(w io.Writer, name string) error {
	kinds := vertex.Kinds()
	if name != "" {
		k, err := vertex.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = []vertex.Kind{k}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTAG\tSTRIDE\tLOCATION\tSLOT\tFORMAT\tOFFSET")
	for _, k := range kinds {
		layout, err := vertex.Describe(k)
		if err != nil {
			return err
		}
		for i, a := range layout.Attributes {
			kindCol, tagCol, strideCol := "", "", ""
			if i == 0 {
				kindCol = k.String()
				tagCol = fmt.Sprint(uint8(k))
				strideCol = fmt.Sprint(layout.Stride)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\tfloat32x%d\t%d\n",
				kindCol, tagCol, strideCol, a.Location, a.Slot, a.Slot.Components(), a.Offset)
		}
	}
	return tw.Flush()
}
