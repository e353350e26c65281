// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/vertexdemo/vertex"
)

//go:embed shaders/triangle.wgsl
var triangleShaderSource string

//go:embed shaders/mesh.wgsl.tmpl
var meshShaderTemplate string

var meshTemplate = template.Must(template.New("mesh").Parse(meshShaderTemplate))

// Shader errors.
var (
	// ErrShaderNotFound is returned when neither the base path nor the
	// built-in set provides a shader.
	ErrShaderNotFound = errors.New("gpu: shader not found")

	// ErrShaderInvalid is returned when WGSL validation fails.
	ErrShaderInvalid = errors.New("gpu: shader failed validation")
)

// Shader origins.
const (
	OriginFile      = "file"
	OriginBuiltin   = "builtin"
	OriginGenerated = "generated"
)

// TriangleShader is the name of the built-in triangle shader.
const TriangleShader = "triangle"

var builtinShaders = map[string]string{
	TriangleShader: triangleShaderSource,
}

// Shader is a resolved WGSL source.
type Shader struct {
	Name   string
	Source string
	Origin string
	Path   string // set for OriginFile
	Hash   uint64
}

// ShaderLibrary resolves WGSL sources by name.
//
// A file <basePath>/<name>.wgsl takes precedence over the built-in source of
// the same name. Resolved shaders are cached for the lifetime of the library.
type ShaderLibrary struct {
	basePath string
	validate bool

	mu    sync.Mutex
	cache map[string]Shader
}

// NewShaderLibrary creates a library that looks in basePath first. An empty
// basePath uses only the built-in sources. When validate is set every
// source is compiled with naga before it is returned.
func NewShaderLibrary(basePath string, validate bool) *ShaderLibrary {
	return &ShaderLibrary{
		basePath: basePath,
		validate: validate,
		cache:    make(map[string]Shader),
	}
}

// BasePath returns the directory searched for shader files.
func (l *ShaderLibrary) BasePath() string { return l.basePath }

// Load resolves the named shader from the base path or the built-in set.
func (l *ShaderLibrary) Load(name string) (Shader, error) {
	return l.resolve(name, func() (string, bool, error) {
		src, ok := builtinShaders[name]
		return src, ok, nil
	}, OriginBuiltin)
}

// MeshShaderName returns the lookup name of the mesh shader for kind k.
func MeshShaderName(k vertex.Kind) string {
	return "mesh_" + strings.ToLower(k.String())
}

// Mesh resolves the mesh shader for layout. A file named after
// MeshShaderName overrides the generated source.
func (l *ShaderLibrary) Mesh(layout vertex.Layout) (Shader, error) {
	return l.resolve(MeshShaderName(layout.Kind), func() (string, bool, error) {
		src, err := GenerateMeshShader(layout)
		return src, err == nil, err
	}, OriginGenerated)
}

func (l *ShaderLibrary) resolve(name string, fallback func() (string, bool, error), origin string) (Shader, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.cache[name]; ok {
		return s, nil
	}

	s := Shader{Name: name}
	src, path, err := l.readFile(name)
	switch {
	case err != nil:
		return Shader{}, err
	case path != "":
		s.Source, s.Origin, s.Path = src, OriginFile, path
	default:
		src, ok, err := fallback()
		if err != nil {
			return Shader{}, fmt.Errorf("gpu: shader %q: %w", name, err)
		}
		if !ok {
			return Shader{}, fmt.Errorf("%w: %q", ErrShaderNotFound, name)
		}
		s.Source, s.Origin = src, origin
	}

	if l.validate {
		if _, err := naga.Compile(s.Source); err != nil {
			return Shader{}, fmt.Errorf("%w: %s (%s): %v", ErrShaderInvalid, name, s.Origin, err)
		}
	}
	s.Hash = hashBytes([]byte(s.Source))
	l.cache[name] = s
	slogger().Debug("gpu: shader resolved", "name", name, "origin", s.Origin, "path", s.Path)
	return s, nil
}

// readFile returns the shader file contents and its path, or an empty path
// when the file does not exist.
func (l *ShaderLibrary) readFile(name string) (string, string, error) {
	if l.basePath == "" {
		return "", "", nil
	}
	path := filepath.Join(l.basePath, name+".wgsl")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("gpu: read shader %s: %w", path, err)
	}
	return string(data), path, nil
}

// meshInput is one VertexInput member of the generated mesh shader.
type meshInput struct {
	Location uint32
	Name     string
	Type     string
}

var slotWGSL = map[vertex.Slot]struct{ name, typ string }{
	vertex.SlotPosition: {"position", "vec3<f32>"},
	vertex.SlotNormal:   {"normal", "vec3<f32>"},
	vertex.SlotColor:    {"color", "vec4<f32>"},
	vertex.SlotTexCoord: {"uv", "vec2<f32>"},
}

// GenerateMeshShader writes a WGSL program whose vertex inputs match layout
// attribute for attribute.
func GenerateMeshShader(layout vertex.Layout) (string, error) {
	if !layout.Kind.Valid() || len(layout.Attributes) == 0 {
		return "", fmt.Errorf("%w: %s", vertex.ErrUnsupportedKind, layout.Kind)
	}
	data := struct {
		Kind      string
		Inputs    []meshInput
		HasNormal bool
		HasColor  bool
		HasUV     bool
	}{Kind: layout.Kind.String()}

	for _, a := range layout.Attributes {
		w := slotWGSL[a.Slot]
		data.Inputs = append(data.Inputs, meshInput{Location: a.Location, Name: w.name, Type: w.typ})
		switch a.Slot {
		case vertex.SlotNormal:
			data.HasNormal = true
		case vertex.SlotColor:
			data.HasColor = true
		case vertex.SlotTexCoord:
			data.HasUV = true
		}
	}

	var buf bytes.Buffer
	if err := meshTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mesh shader: %w", err)
	}
	return buf.String(), nil
}

// createShaderModule compiles s on device.
func createShaderModule(device hal.Device, s Shader) (hal.ShaderModule, error) {
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  s.Name,
		Source: hal.ShaderSource{WGSL: s.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", s.Name, err)
	}
	return module, nil
}
