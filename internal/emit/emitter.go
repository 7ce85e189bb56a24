package emit

import (
	"fmt"
	"image"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/claimhawk/desktopgen/internal/scene"
	"github.com/claimhawk/desktopgen/pkg/models"
)

// Task type names understood by Emit.
const (
	TaskClickIcon   = "click-icon"
	TaskGrounding   = "grounding"
	TaskWaitLoading = "wait-loading"
)

// Mode selects the emitted image window.
type Mode int

const (
	// ModeFullFrame emits the rendered scene unchanged.
	ModeFullFrame Mode = iota
	// ModeCropToRegion emits the scene cropped to the configured region,
	// with all coordinates re-based to the region's origin.
	ModeCropToRegion
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "full_frame":
		return ModeFullFrame, nil
	case "crop_to_region":
		return ModeCropToRegion, nil
	}
	return 0, fmt.Errorf("unknown emit mode %q", s)
}

// WaitPolicy selects how wait samples are worded.
type WaitPolicy int

const (
	// WaitPromptPolicy emits one sample per configured wait prompt,
	// independent of icon identity.
	WaitPromptPolicy WaitPolicy = iota
	// WaitClickStylePolicy reuses the click prompt templates with a wait
	// action, so the label signal comes from the loading overlay rather
	// than the prompt wording.
	WaitClickStylePolicy
)

// ParseWaitPolicy maps a config string to a WaitPolicy.
func ParseWaitPolicy(s string) (WaitPolicy, error) {
	switch s {
	case "", "prompts":
		return WaitPromptPolicy, nil
	case "click_style":
		return WaitClickStylePolicy, nil
	}
	return 0, fmt.Errorf("unknown wait policy %q", s)
}

const (
	defaultToleranceX = 30
	defaultToleranceY = 30
	defaultWaitSecs   = 3.0
	groundingTol      = 50
)

var groundingPrompts = []string{
	"Locate the %s",
	"Find the bounding box of the %s",
	"Where is the %s?",
	"Identify the %s region",
}

// Options configures emission behavior.
type Options struct {
	Mode       Mode
	CropRegion string // region label for ModeCropToRegion
	WaitPolicy WaitPolicy
	// PerIconTolerance derives tolerance from the icon's own footprint
	// instead of the region's configured tolerance.
	PerIconTolerance bool
}

// Emission is the result of emitting one scene: the (possibly cropped)
// image and the samples that reference it. Sample image paths are filled in
// by whoever persists the image.
type Emission struct {
	Image   *image.RGBA
	Samples []models.Sample
}

// Emitter derives labeled samples from rendered scenes. It consumes the
// scene's ground truth, never the logical state, so a sample can only ever
// point at pixels that were actually drawn.
type Emitter struct {
	ann    *models.AnnotationConfig
	opts   Options
	logger *zap.Logger
}

// New creates an emitter. Configuration errors surface here or in Validate,
// before any rendering work.
func New(ann *models.AnnotationConfig, opts Options, logger *zap.Logger) (*Emitter, error) {
	if opts.Mode == ModeCropToRegion {
		if opts.CropRegion == "" {
			opts.CropRegion = models.RegionDesktop
		}
		if _, ok := ann.RegionByLabel(opts.CropRegion); !ok {
			return nil, fmt.Errorf("crop region %q not found in annotation", opts.CropRegion)
		}
	}
	return &Emitter{ann: ann, opts: opts, logger: logger}, nil
}

// Validate fails fast when a requested task type has no matching templates
// or catalog entries.
func (e *Emitter) Validate(taskTypes []string) error {
	for _, task := range taskTypes {
		switch task {
		case TaskClickIcon:
			if len(e.ann.Tasks) == 0 {
				return fmt.Errorf("task %s: no click templates in annotation", task)
			}
		case TaskGrounding:
			if len(e.groundableIn(e.frame())) == 0 {
				return fmt.Errorf("task %s: no groundable elements within the emitted frame", task)
			}
		case TaskWaitLoading:
			// Wait labels depend on a visible loading indicator.
			if e.ann.LoadingPanel.Region == "" || e.ann.LoadingPanel.Asset == "" {
				return fmt.Errorf("task %s: no loading panel configured in annotation", task)
			}
			switch e.opts.WaitPolicy {
			case WaitPromptPolicy:
				if len(e.ann.Wait.Prompts) == 0 {
					return fmt.Errorf("task %s: no wait prompts configured", task)
				}
			case WaitClickStylePolicy:
				if len(e.ann.Tasks) == 0 {
					return fmt.Errorf("task %s: click-style wait needs click templates", task)
				}
			}
		default:
			return fmt.Errorf("unknown task type %q", task)
		}
	}
	return nil
}

// Emit derives the samples for one scene and task type. baseID seeds the
// deterministic sample ids, typically "<task>_<index>".
func (e *Emitter) Emit(sc *scene.RenderedScene, rng *rand.Rand, taskType, baseID string) (*Emission, error) {
	switch taskType {
	case TaskClickIcon:
		return e.emitClicks(sc, baseID)
	case TaskGrounding:
		return e.emitGrounding(sc, rng, baseID)
	case TaskWaitLoading:
		return e.emitWait(sc, baseID)
	}
	return nil, fmt.Errorf("unknown task type %q", taskType)
}

// frame returns the coordinate frame for the configured mode.
func (e *Emitter) frame() Frame {
	if e.opts.Mode == ModeCropToRegion {
		if region, ok := e.ann.RegionByLabel(e.opts.CropRegion); ok {
			return RegionFrame(region.Bbox)
		}
	}
	return FullFrame(e.ann.Screen.Width, e.ann.Screen.Height)
}

// regionIcons returns the drawn icons for a template's target region.
func regionIcons(gt models.GroundTruth, region string) []models.GroundTruthIcon {
	switch region {
	case models.RegionDesktop:
		return gt.DesktopIcons
	case models.RegionTaskbar:
		return gt.TaskbarIcons
	}
	return nil
}

// tolerance resolves the click tolerance for one icon.
func (e *Emitter) tolerance(region models.Region, icon models.GroundTruthIcon) [2]int {
	if e.opts.PerIconTolerance {
		return [2]int{icon.Bounds.Width / 2, icon.Bounds.Height / 2}
	}
	if region.ToleranceX > 0 || region.ToleranceY > 0 {
		return [2]int{region.ToleranceX, region.ToleranceY}
	}
	return [2]int{defaultToleranceX, defaultToleranceY}
}

// emitClicks expands every (template, icon) pair in the template's region
// into one click sample. Never valid for a scene showing the loading overlay.
func (e *Emitter) emitClicks(sc *scene.RenderedScene, baseID string) (*Emission, error) {
	if sc.GroundTruth.LoadingVisible {
		return nil, fmt.Errorf("click samples are not emitted while the loading overlay is visible")
	}

	frame := e.frame()
	emission := &Emission{Image: frame.Crop(sc.Image)}

	for _, tmpl := range e.ann.Tasks {
		if e.opts.Mode == ModeCropToRegion && tmpl.TargetRegion != e.opts.CropRegion {
			e.logger.Debug("Skipping template outside crop region",
				zap.String("task_type", tmpl.TaskType),
				zap.String("target_region", tmpl.TargetRegion))
			continue
		}
		region, _ := e.ann.RegionByLabel(tmpl.TargetRegion)

		for _, icon := range regionIcons(sc.GroundTruth, tmpl.TargetRegion) {
			label := icon.Label
			if label == "" {
				label = icon.ID
			}
			relX, relY := frame.Rel(icon.Center[0], icon.Center[1])
			ruX, ruY := frame.ToRU(icon.Center[0], icon.Center[1])

			emission.Samples = append(emission.Samples, models.Sample{
				ID:               fmt.Sprintf("%s_%s_%s", baseID, tmpl.TaskType, icon.ID),
				TaskType:         tmpl.TaskType,
				Prompt:           strings.ReplaceAll(tmpl.Prompt, "[label]", label),
				Action:           models.ClickAction(tmpl.Action, ruX, ruY),
				PixelCoordinates: [2]int{relX, relY},
				Tolerance:        e.tolerance(region, icon),
				Metadata: map[string]any{
					"icon_id":     icon.ID,
					"icon_label":  label,
					"icon_bounds": icon.Bounds,
					"region":      tmpl.TargetRegion,
					"crop_region": e.cropRegionMeta(),
					"image_size":  [2]int{frame.Width, frame.Height},
				},
			})
		}
	}
	return emission, nil
}

// groundableIn returns the groundable landmarks fully inside the frame.
func (e *Emitter) groundableIn(frame Frame) []models.Region {
	var out []models.Region
	for _, r := range e.ann.Groundable() {
		b := r.Bbox
		if b.X >= frame.OffsetX && b.Y >= frame.OffsetY &&
			b.X+b.Width <= frame.OffsetX+frame.Width &&
			b.Y+b.Height <= frame.OffsetY+frame.Height {
			out = append(out, r)
		}
	}
	return out
}

// emitGrounding picks one groundable landmark uniformly and emits a single
// bounding-box assertion through the same crop/normalize pipeline as clicks.
func (e *Emitter) emitGrounding(sc *scene.RenderedScene, rng *rand.Rand, baseID string) (*Emission, error) {
	frame := e.frame()
	eligible := e.groundableIn(frame)
	if len(eligible) == 0 {
		return nil, fmt.Errorf("no groundable elements within the emitted frame")
	}

	element := eligible[rng.Intn(len(eligible))]
	prompt := fmt.Sprintf(groundingPrompts[rng.Intn(len(groundingPrompts))], element.Label)

	bboxRU := frame.BboxToRU(element.Bbox)
	cx, cy := element.Bbox.Center()
	relX, relY := frame.Rel(cx, cy)

	return &Emission{
		Image: frame.Crop(sc.Image),
		Samples: []models.Sample{{
			ID:               fmt.Sprintf("%s_%s", baseID, strings.ReplaceAll(element.Label, " ", "-")),
			TaskType:         TaskGrounding,
			Prompt:           prompt,
			Action:           models.BboxAction(element.Label, bboxRU),
			PixelCoordinates: [2]int{relX, relY},
			Tolerance:        [2]int{groundingTol, groundingTol},
			Metadata: map[string]any{
				"element_label": element.Label,
				"bbox_pixels":   element.Bbox,
				"bbox_ru":       bboxRU[:],
				"crop_region":   e.cropRegionMeta(),
				"image_size":    [2]int{frame.Width, frame.Height},
			},
		}},
	}, nil
}

// emitWait emits wait samples for a loading scene under the configured
// policy. Coordinate tolerance is always zero for wait actions.
func (e *Emitter) emitWait(sc *scene.RenderedScene, baseID string) (*Emission, error) {
	if !sc.GroundTruth.LoadingVisible {
		return nil, fmt.Errorf("wait samples require a scene with the loading overlay visible")
	}

	seconds := e.ann.Wait.Seconds
	if seconds <= 0 {
		seconds = defaultWaitSecs
	}

	frame := e.frame()
	emission := &Emission{Image: frame.Crop(sc.Image)}

	switch e.opts.WaitPolicy {
	case WaitClickStylePolicy:
		for _, tmpl := range e.ann.Tasks {
			if e.opts.Mode == ModeCropToRegion && tmpl.TargetRegion != e.opts.CropRegion {
				continue
			}
			for _, icon := range regionIcons(sc.GroundTruth, tmpl.TargetRegion) {
				label := icon.Label
				if label == "" {
					label = icon.ID
				}
				emission.Samples = append(emission.Samples, models.Sample{
					ID:               fmt.Sprintf("%s_%s_%s", baseID, tmpl.TaskType, icon.ID),
					TaskType:         TaskWaitLoading,
					Prompt:           strings.ReplaceAll(tmpl.Prompt, "[label]", label),
					Action:           models.WaitAction(seconds),
					PixelCoordinates: [2]int{0, 0},
					Tolerance:        [2]int{0, 0},
					Metadata: map[string]any{
						"wait_seconds": seconds,
						"icon_id":      icon.ID,
						"crop_region":  e.cropRegionMeta(),
						"image_size":   [2]int{frame.Width, frame.Height},
					},
				})
			}
		}
	default:
		if len(e.ann.Wait.Prompts) == 0 {
			return nil, fmt.Errorf("no wait prompts configured")
		}
		for i, prompt := range e.ann.Wait.Prompts {
			emission.Samples = append(emission.Samples, models.Sample{
				ID:               fmt.Sprintf("%s_wait_%d", baseID, i),
				TaskType:         TaskWaitLoading,
				Prompt:           prompt,
				Action:           models.WaitAction(seconds),
				PixelCoordinates: [2]int{0, 0},
				Tolerance:        [2]int{0, 0},
				Metadata: map[string]any{
					"wait_seconds": seconds,
					"crop_region":  e.cropRegionMeta(),
					"image_size":   [2]int{frame.Width, frame.Height},
				},
			})
		}
	}
	return emission, nil
}

func (e *Emitter) cropRegionMeta() string {
	if e.opts.Mode == ModeCropToRegion {
		return e.opts.CropRegion
	}
	return ""
}
