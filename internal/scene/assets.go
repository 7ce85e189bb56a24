package scene

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"github.com/claimhawk/desktopgen/pkg/models"
)

const (
	labelFontSize = 11
	clockFontSize = 9
)

// AssetSet is the preloaded, read-only collection of bitmaps and fonts the
// compositor draws from. Loaded once at process start and shared across
// workers; only the font faces require serialized access (see Compositor).
type AssetSet struct {
	Background   image.Image
	LoadingPanel image.Image
	LoadingPos   image.Point

	LabelFace font.Face
	ClockFace font.Face

	icons   map[string]image.Image // keyed "region:icon_id"
	aliases map[string]string
	logger  *zap.Logger
}

// LoadAssets reads the background, icon bitmaps, loading panel, and font
// referenced by the annotation config. Icon bitmaps are normalized to the
// region's icon footprint at load time. A missing icon bitmap is logged and
// left unresolved rather than failing the load; use Validate to fail fast.
func LoadAssets(dir string, ann *models.AnnotationConfig, logger *zap.Logger) (*AssetSet, error) {
	a := &AssetSet{
		icons:   make(map[string]image.Image),
		aliases: ann.Aliases,
		logger:  logger,
	}

	bg, err := loadPNG(filepath.Join(dir, ann.Screen.Background))
	if err != nil {
		return nil, fmt.Errorf("failed to load background: %w", err)
	}
	a.Background = bg

	if err := a.loadFonts(dir, ann.Screen.Font); err != nil {
		return nil, err
	}

	a.loadIcons(dir, models.RegionDesktop, ann.DesktopCatalog(), ann.Layout.DesktopIconSize)
	a.loadIcons(dir, models.RegionTaskbar, ann.TaskbarCatalog(), ann.Layout.TaskbarIconSize)

	if ann.LoadingPanel.Asset != "" {
		panel, err := loadPNG(filepath.Join(dir, ann.LoadingPanel.Asset))
		if err != nil {
			return nil, fmt.Errorf("failed to load loading panel: %w", err)
		}
		a.LoadingPanel = panel
		if region, ok := ann.RegionByLabel(ann.LoadingPanel.Region); ok {
			a.LoadingPos = image.Pt(region.Bbox.X, region.Bbox.Y)
		}
	}

	logger.Info("Assets loaded",
		zap.Int("icons", len(a.icons)),
		zap.Bool("loading_panel", a.LoadingPanel != nil))

	return a, nil
}

// loadFonts parses the configured TTF and builds the two face sizes. When no
// font is configured or the file is unreadable, the fixed basicfont is used
// as an explicit, logged fallback.
func (a *AssetSet) loadFonts(dir, fontPath string) error {
	if fontPath == "" {
		a.logger.Warn("No font configured, using built-in fallback face")
		a.LabelFace = basicfont.Face7x13
		a.ClockFace = basicfont.Face7x13
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, fontPath))
	if err != nil {
		a.logger.Warn("Font file unreadable, using built-in fallback face",
			zap.String("font", fontPath), zap.Error(err))
		a.LabelFace = basicfont.Face7x13
		a.ClockFace = basicfont.Face7x13
		return nil
	}

	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse font %s: %w", fontPath, err)
	}

	a.LabelFace, err = opentype.NewFace(parsed, &opentype.FaceOptions{
		Size: labelFontSize, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to build label face: %w", err)
	}
	a.ClockFace, err = opentype.NewFace(parsed, &opentype.FaceOptions{
		Size: clockFontSize, DPI: 72, Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("failed to build clock face: %w", err)
	}
	return nil
}

// loadIcons reads every catalog entry's bitmap and normalizes it to the
// region's icon footprint.
func (a *AssetSet) loadIcons(dir, region string, cat *models.IconCatalog, size models.Size) {
	for _, entry := range cat.Entries() {
		img, err := loadPNG(filepath.Join(dir, entry.AssetKey))
		if err != nil {
			a.logger.Warn("Icon bitmap not loadable",
				zap.String("region", region),
				zap.String("icon_id", entry.ID),
				zap.String("asset", entry.AssetKey),
				zap.Error(err))
			continue
		}
		if b := img.Bounds(); b.Dx() != size.Width || b.Dy() != size.Height {
			img = resize.Resize(uint(size.Width), uint(size.Height), img, resize.Lanczos3)
		}
		a.icons[iconKey(region, entry.ID)] = img
	}
}

// Icon resolves the bitmap for an icon: direct "region:id" key first, then
// the alias table. The alias hop is logged so no fallback is silent.
func (a *AssetSet) Icon(region, id string) (image.Image, bool) {
	key := iconKey(region, id)
	if img, ok := a.icons[key]; ok {
		return img, true
	}
	if alias, ok := a.aliases[key]; ok {
		if img, ok := a.icons[alias]; ok {
			a.logger.Debug("Resolved icon via alias",
				zap.String("key", key), zap.String("alias", alias))
			return img, true
		}
	}
	return nil, false
}

// Validate reports every catalog entry with no resolvable bitmap. Callers
// that prefer fail-fast over render-time degradation run this at startup.
func (a *AssetSet) Validate(ann *models.AnnotationConfig) error {
	var missing []string
	for _, region := range []string{models.RegionDesktop, models.RegionTaskbar} {
		cat, _ := ann.Catalog(region)
		for _, entry := range cat.Entries() {
			if _, ok := a.Icon(region, entry.ID); !ok {
				missing = append(missing, iconKey(region, entry.ID))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unresolvable icon bitmaps: %s", strings.Join(missing, ", "))
	}
	return nil
}

func iconKey(region, id string) string {
	return region + ":" + id
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
