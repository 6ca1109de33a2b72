package domain

import (
	"fmt"
	"strings"
)

// Engine identifies the renderer that should process the scene
type Engine string

const (
	EnginePathTraced Engine = "PATH_TRACED"
	EngineRealtime   Engine = "REALTIME"
	EngineWorkbench  Engine = "WORKBENCH"
)

// SampleBased reports whether the engine's sample count drives render cost
func (e Engine) SampleBased() bool {
	return e == EnginePathTraced
}

// Valid reports whether e is one of the supported engines
func (e Engine) Valid() bool {
	switch e {
	case EnginePathTraced, EngineRealtime, EngineWorkbench:
		return true
	}
	return false
}

// OutputFormat is the image format of the rendered frames
type OutputFormat string

const (
	FormatPNG  OutputFormat = "PNG"  // raster, lossless
	FormatJPEG OutputFormat = "JPEG" // raster, lossy
	FormatEXR  OutputFormat = "EXR"  // HDR
	FormatTIFF OutputFormat = "TIFF" // tagged image
)

// Valid reports whether f is one of the supported output formats
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatEXR, FormatTIFF:
		return true
	}
	return false
}

// Resolution is the output frame size in pixels
type Resolution struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// SceneObject is an entry of the scene inventory, used for validation only
type SceneObject struct {
	Name          string `json:"name" yaml:"name"`
	Kind          string `json:"kind" yaml:"kind"`
	MaterialCount int    `json:"material_count" yaml:"material_count"`
}

// IsMesh reports whether the object carries geometry that needs materials
func (o SceneObject) IsMesh() bool {
	return strings.EqualFold(o.Kind, "mesh")
}

// AssetRef is an external file referenced by the scene
type AssetRef struct {
	Path     string `json:"path" yaml:"path"`
	Embedded bool   `json:"embedded" yaml:"embedded"`
}

// RenderTaskSpec describes what to render. It is owned by the caller and never mutated here.
type RenderTaskSpec struct {
	Engine       Engine        `json:"engine" yaml:"engine"`
	OutputFormat OutputFormat  `json:"output_format" yaml:"output_format"`
	Resolution   Resolution    `json:"resolution" yaml:"resolution"`
	Samples      int           `json:"samples" yaml:"samples"`
	Objects      []SceneObject `json:"objects" yaml:"objects"`
	Assets       []AssetRef    `json:"assets" yaml:"assets"`
}

// ValidationReport is the outcome of validating a RenderTaskSpec.
// Issues block submission, warnings are advisory.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// FormatSize renders a byte count in human readable form, e.g. 1.5MB
func FormatSize(size int64) string {
	if size <= 0 {
		return "0B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(size)
	i := 0
	for value >= 1024.0 && i < len(units)-1 {
		value /= 1024.0
		i++
	}
	return fmt.Sprintf("%.1f%s", value, units[i])
}
