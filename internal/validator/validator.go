// Package validator inspects a render task before it is submitted.
package validator

import (
	"fmt"
	"strings"

	"github.com/cuongbtq/render-jobs/internal/domain"
)

// Default thresholds
const (
	DefaultMaxResolution    = 4096
	DefaultMaxSamples       = 1000
	DefaultMaxObjects       = 1000
	DefaultMaxListedObjects = 5
)

// Config holds the thresholds above which a warning is produced
type Config struct {
	MaxResolution    int
	MaxSamples       int
	MaxObjects       int
	MaxListedObjects int
}

// Validator checks render tasks for conditions that would fail remotely or cost more than expected
type Validator struct {
	cfg Config
}

// New creates a Validator, zero thresholds fall back to the defaults
func New(cfg Config) *Validator {
	if cfg.MaxResolution <= 0 {
		cfg.MaxResolution = DefaultMaxResolution
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}
	if cfg.MaxObjects <= 0 {
		cfg.MaxObjects = DefaultMaxObjects
	}
	if cfg.MaxListedObjects <= 0 {
		cfg.MaxListedObjects = DefaultMaxListedObjects
	}
	return &Validator{cfg: cfg}
}

// Validate returns the report for spec. It does not mutate spec and is deterministic.
func (v *Validator) Validate(spec domain.RenderTaskSpec) domain.ValidationReport {
	issues := v.checkShape(spec)
	warnings := make([]string, 0)

	if n := countExternal(spec.Assets); n > 0 {
		warnings = append(warnings, fmt.Sprintf("Found %d external asset(s). They will be packed automatically.", n))
	}

	if spec.Resolution.Width > v.cfg.MaxResolution || spec.Resolution.Height > v.cfg.MaxResolution {
		warnings = append(warnings, fmt.Sprintf(
			"High resolution detected (%dx%d, limit %d). This may increase rendering time and cost.",
			spec.Resolution.Width, spec.Resolution.Height, v.cfg.MaxResolution,
		))
	}

	if spec.Engine.SampleBased() && spec.Samples > v.cfg.MaxSamples {
		warnings = append(warnings, fmt.Sprintf(
			"High sample count detected (%d, limit %d). This may increase rendering time significantly.",
			spec.Samples, v.cfg.MaxSamples,
		))
	}

	if missing := meshesWithoutMaterial(spec.Objects); len(missing) > 0 {
		warnings = append(warnings, v.missingMaterialWarning(missing))
	}

	if len(spec.Objects) > v.cfg.MaxObjects {
		warnings = append(warnings, fmt.Sprintf(
			"Scene contains %d objects (limit %d). Upload and render may be slow.",
			len(spec.Objects), v.cfg.MaxObjects,
		))
	}

	return domain.ValidationReport{
		Valid:    len(issues) == 0,
		Issues:   issues,
		Warnings: warnings,
	}
}

// checkShape reports input that no renderer can accept.
// Scene policy rules never land here, they are warnings.
func (v *Validator) checkShape(spec domain.RenderTaskSpec) []string {
	issues := make([]string, 0)
	if !spec.Engine.Valid() {
		issues = append(issues, fmt.Sprintf("Unsupported render engine %q", spec.Engine))
	}
	if !spec.OutputFormat.Valid() {
		issues = append(issues, fmt.Sprintf("Unsupported output format %q", spec.OutputFormat))
	}
	if spec.Resolution.Width <= 0 || spec.Resolution.Height <= 0 {
		issues = append(issues, fmt.Sprintf("Resolution must be positive, got %dx%d", spec.Resolution.Width, spec.Resolution.Height))
	}
	if spec.Samples < 0 {
		issues = append(issues, fmt.Sprintf("Sample count must not be negative, got %d", spec.Samples))
	}
	return issues
}

func (v *Validator) missingMaterialWarning(names []string) string {
	listed := names
	if len(listed) > v.cfg.MaxListedObjects {
		listed = listed[:v.cfg.MaxListedObjects]
	}
	msg := "Objects without materials: " + strings.Join(listed, ", ")
	if rest := len(names) - len(listed); rest > 0 {
		msg += fmt.Sprintf(" and %d more", rest)
	}
	return msg
}

func countExternal(assets []domain.AssetRef) int {
	n := 0
	for _, a := range assets {
		if a.Path != "" && !a.Embedded {
			n++
		}
	}
	return n
}

func meshesWithoutMaterial(objects []domain.SceneObject) []string {
	var names []string
	for _, o := range objects {
		if o.IsMesh() && o.MaterialCount == 0 {
			names = append(names, o.Name)
		}
	}
	return names
}
