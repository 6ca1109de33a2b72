package validator

import "github.com/cuongbtq/render-jobs/internal/domain"

const (
	baseRenderMinutes = 1.0
	referencePixels   = 1920 * 1080
	referenceSamples  = 128
	busySceneObjects  = 100
)

// EstimateRenderMinutes gives a rough render time for one frame of spec.
// It is a heuristic for display only and never below one minute.
func EstimateRenderMinutes(spec domain.RenderTaskSpec) int {
	width, height := spec.Resolution.Width, spec.Resolution.Height
	if width <= 0 {
		width = 1920
	}
	if height <= 0 {
		height = 1080
	}
	samples := spec.Samples
	if samples <= 0 || !spec.Engine.SampleBased() {
		samples = referenceSamples
	}

	estimate := baseRenderMinutes *
		(float64(width*height) / referencePixels) *
		(float64(samples) / referenceSamples)

	if len(spec.Objects) > busySceneObjects {
		estimate *= 1.2
	}

	if estimate < 1 {
		return 1
	}
	return int(estimate)
}
