package scene

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/claimhawk/desktopgen/pkg/models"
)

// RenderedScene pairs the raster image with the pixel-exact ground truth of
// everything drawn into it.
type RenderedScene struct {
	Image       *image.RGBA
	GroundTruth models.GroundTruth
}

// Compositor turns a DesktopState into a RenderedScene using a shared
// read-only AssetSet. Render is a pure function of its input.
type Compositor struct {
	assets *AssetSet
	width  int
	height int
	logger *zap.Logger

	// font.Face rasterization is not safe for concurrent use; text draws
	// across workers are serialized here.
	textMu sync.Mutex
}

// NewCompositor creates a compositor for the annotated screen size.
func NewCompositor(assets *AssetSet, ann *models.AnnotationConfig, logger *zap.Logger) *Compositor {
	return &Compositor{
		assets: assets,
		width:  ann.Screen.Width,
		height: ann.Screen.Height,
		logger: logger,
	}
}

// Render composites the scene in draw order: background, desktop icons with
// labels, taskbar icons, clock, loading overlay. An icon whose bitmap cannot
// be resolved is skipped and excluded from the ground truth, keeping the
// record consistent with the pixels.
func (c *Compositor) Render(state models.DesktopState) *RenderedScene {
	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(img, img.Bounds(), c.assets.Background, c.assets.Background.Bounds().Min, draw.Src)

	gt := models.GroundTruth{
		ClockText:      state.ClockText,
		ClockPosition:  [2]int{state.ClockX, state.ClockY},
		LoadingVisible: state.LoadingVisible,
	}

	for _, p := range state.DesktopIcons {
		bitmap, ok := c.assets.Icon(models.RegionDesktop, p.IconID)
		if !ok {
			c.logger.Warn("Icon bitmap unresolved, omitting from scene and ground truth",
				zap.String("region", models.RegionDesktop),
				zap.String("icon_id", p.IconID))
			continue
		}
		c.pasteIcon(img, bitmap, p)
		if p.Label != "" {
			c.drawLabel(img, p)
		}
		gt.DesktopIcons = append(gt.DesktopIcons, models.NewGroundTruthIcon(p))
	}

	for _, p := range state.TaskbarIcons {
		bitmap, ok := c.assets.Icon(models.RegionTaskbar, p.IconID)
		if !ok {
			c.logger.Warn("Icon bitmap unresolved, omitting from scene and ground truth",
				zap.String("region", models.RegionTaskbar),
				zap.String("icon_id", p.IconID))
			continue
		}
		c.pasteIcon(img, bitmap, p)
		gt.TaskbarIcons = append(gt.TaskbarIcons, models.NewGroundTruthIcon(p))
	}

	c.drawClock(img, state)

	if state.LoadingVisible && c.assets.LoadingPanel != nil {
		panel := c.assets.LoadingPanel
		rect := image.Rectangle{
			Min: c.assets.LoadingPos,
			Max: c.assets.LoadingPos.Add(panel.Bounds().Size()),
		}
		draw.Draw(img, rect, panel, panel.Bounds().Min, draw.Over)
	}

	return &RenderedScene{Image: img, GroundTruth: gt}
}

// pasteIcon alpha-composites an icon bitmap at its placement's top-left.
func (c *Compositor) pasteIcon(dst *image.RGBA, bitmap image.Image, p models.IconPlacement) {
	rect := image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
	draw.Draw(dst, rect, bitmap, bitmap.Bounds().Min, draw.Over)
}

// drawLabel centers the icon's label beneath it, drawn twice: a dark pass
// offset one pixel down-right, then a light pass on top, for legibility on
// arbitrary backgrounds.
func (c *Compositor) drawLabel(dst *image.RGBA, p models.IconPlacement) {
	c.textMu.Lock()
	defer c.textMu.Unlock()

	face := c.assets.LabelFace
	width := font.MeasureString(face, p.Label).Ceil()
	x := p.X + (p.Width-width)/2
	baseline := p.Y + p.Height + 2 + face.Metrics().Ascent.Ceil()

	drawString(dst, face, p.Label, x+1, baseline+1, color.Black)
	drawString(dst, face, p.Label, x, baseline, color.White)
}

// drawClock draws each clock line horizontally centered on the anchor x.
func (c *Compositor) drawClock(dst *image.RGBA, state models.DesktopState) {
	if state.ClockText == "" {
		return
	}

	c.textMu.Lock()
	defer c.textMu.Unlock()

	face := c.assets.ClockFace
	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range strings.Split(state.ClockText, "\n") {
		width := font.MeasureString(face, line).Ceil()
		x := state.ClockX - width/2
		y := state.ClockY + i*(clockFontSize+2) + ascent
		drawString(dst, face, line, x, y, color.Black)
	}
}

func drawString(dst *image.RGBA, face font.Face, s string, x, y int, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
