package layout

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/claimhawk/desktopgen/pkg/models"
	"go.uber.org/zap"
)

// Strategy selects how desktop icons are positioned.
type Strategy string

const (
	// StrategyAny picks one of the concrete strategies per invocation.
	StrategyAny     Strategy = "any"
	StrategyStacked Strategy = "stacked"
	StrategySparse  Strategy = "sparse"
	StrategyRandom  Strategy = "random"
)

// ParseStrategy maps a config string to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAny, StrategyStacked, StrategySparse, StrategyRandom:
		return Strategy(s), nil
	case "":
		return StrategyAny, nil
	}
	return "", fmt.Errorf("unknown layout strategy %q", s)
}

const (
	// Subset fractions for vary-subset mode, per region.
	desktopMinFraction = 0.6
	taskbarMinFraction = 0.4

	// Candidate grid for the sparse strategy.
	sparseColumns = 6

	// Rejection sampling budget for the random strategy.
	maxPlacementAttempts = 50
)

// Options controls selection and placement behavior.
type Options struct {
	// VarySubset draws a random fraction of optional icons instead of a
	// fixed count from the hint.
	VarySubset bool
	// RandomOrder shuffles the selected icons so required icons are not
	// guaranteed to render first.
	RandomOrder bool
	// Strategy pins the desktop placement strategy; StrategyAny randomizes.
	Strategy Strategy
}

// Generator produces DesktopStates from an icon catalog and an injected
// random source. It holds no mutable state between invocations.
type Generator struct {
	ann    *models.AnnotationConfig
	opts   Options
	logger *zap.Logger
}

// New creates a generator bound to an annotation config.
func New(ann *models.AnnotationConfig, opts Options, logger *zap.Logger) *Generator {
	if opts.Strategy == "" {
		opts.Strategy = StrategyAny
	}
	return &Generator{ann: ann, opts: opts, logger: logger}
}

// Generate builds a DesktopState. The result is fully determined by the
// RNG's consumed sequence: the same seed yields a byte-identical state.
func (g *Generator) Generate(rng *rand.Rand, desktopHint, taskbarHint int, loadingVisible bool) models.DesktopState {
	strategy := g.opts.Strategy
	if strategy == StrategyAny {
		strategy = []Strategy{StrategyStacked, StrategySparse, StrategyRandom}[rng.Intn(3)]
	}

	desktopSel := g.selectIcons(rng, g.ann.DesktopCatalog(), desktopHint, desktopMinFraction)
	desktop := g.placeDesktop(rng, strategy, desktopSel)

	taskbarSel := g.selectIcons(rng, g.ann.TaskbarCatalog(), taskbarHint, taskbarMinFraction)
	taskbar := g.placeTaskbar(taskbarSel)

	clockText := g.clockText(rng)
	clockX, clockY := g.clockAnchor()

	g.logger.Debug("Generated desktop state",
		zap.String("strategy", string(strategy)),
		zap.Int("desktop_icons", len(desktop)),
		zap.Int("taskbar_icons", len(taskbar)),
		zap.Bool("loading_visible", loadingVisible))

	return models.DesktopState{
		DesktopIcons:   desktop,
		TaskbarIcons:   taskbar,
		ClockText:      clockText,
		ClockX:         clockX,
		ClockY:         clockY,
		LoadingVisible: loadingVisible,
	}
}

// selectIcons picks the subset of catalog entries for one region. Required
// entries are always included exactly once.
func (g *Generator) selectIcons(rng *rand.Rand, cat *models.IconCatalog, hint int, minFraction float64) []models.IconEntry {
	required := cat.Required()
	optional := cat.Optional()

	var chosen []models.IconEntry
	if g.opts.VarySubset {
		fraction := minFraction + rng.Float64()*(1.0-minFraction)
		n := int(fraction * float64(len(optional)))
		if n > len(optional) {
			n = len(optional)
		}
		// Sampling without replacement via a permutation prefix.
		perm := rng.Perm(len(optional))
		for _, idx := range perm[:n] {
			chosen = append(chosen, optional[idx])
		}
	} else {
		n := hint - len(required)
		if n < 0 {
			n = 0
		}
		if n > len(optional) {
			n = len(optional)
		}
		chosen = append(chosen, optional[:n]...)
	}

	selected := make([]models.IconEntry, 0, len(required)+len(chosen))
	selected = append(selected, required...)
	selected = append(selected, chosen...)

	if g.opts.RandomOrder {
		rng.Shuffle(len(selected), func(i, j int) {
			selected[i], selected[j] = selected[j], selected[i]
		})
	}
	return selected
}

// desktopArea returns the icon-bearing desktop region, falling back to the
// full screen minus the taskbar strip.
func (g *Generator) desktopArea() models.Rect {
	if r, ok := g.ann.RegionByLabel(models.RegionDesktop); ok {
		return r.Bbox
	}
	return models.Rect{
		X:      0,
		Y:      0,
		Width:  g.ann.Screen.Width,
		Height: g.ann.Layout.TaskbarYOffset,
	}
}

func (g *Generator) placeDesktop(rng *rand.Rand, strategy Strategy, icons []models.IconEntry) []models.IconPlacement {
	if len(icons) == 0 {
		return nil
	}
	switch strategy {
	case StrategySparse:
		return g.placeSparse(rng, icons)
	case StrategyRandom:
		return g.placeRandom(rng, icons)
	default:
		return g.placeStacked(icons)
	}
}

// placeStacked lays icons in a column-major dense grid with fixed cell
// pitch, wrapping to the next column after the row budget.
func (g *Generator) placeStacked(icons []models.IconEntry) []models.IconPlacement {
	hints := g.ann.Layout
	area := g.desktopArea()
	cell := hints.DesktopCellSize()
	rows := area.Height / cell.Height
	if rows < 1 {
		rows = 1
	}

	placements := make([]models.IconPlacement, 0, len(icons))
	for i, entry := range icons {
		col := i / rows
		row := i % rows
		placements = append(placements, models.IconPlacement{
			IconID: entry.ID,
			X:      area.X + hints.DesktopIconPadding/2 + col*cell.Width,
			Y:      area.Y + hints.DesktopIconPadding/2 + row*cell.Height,
			Width:  hints.DesktopIconSize.Width,
			Height: hints.DesktopIconSize.Height,
			Label:  entry.Label,
		})
	}
	return placements
}

// placeSparse shuffles a fixed candidate grid, keeps the first N cells, and
// re-sorts them column-major. Horizontal pitch is widened by half a cell to
// spread icons out. The candidate grid caps out at sparseColumns x rows; a
// selection larger than that falls back to stacked so every icon still gets
// a spot.
func (g *Generator) placeSparse(rng *rand.Rand, icons []models.IconEntry) []models.IconPlacement {
	hints := g.ann.Layout
	area := g.desktopArea()
	cell := hints.DesktopCellSize()
	pitchX := cell.Width * 3 / 2
	rows := area.Height / cell.Height
	if rows < 1 {
		rows = 1
	}

	total := sparseColumns * rows
	if len(icons) > total {
		g.logger.Warn("Selection exceeds sparse grid capacity, placing stacked",
			zap.Int("icons", len(icons)),
			zap.Int("capacity", total))
		return g.placeStacked(icons)
	}
	perm := rng.Perm(total)
	cells := append([]int(nil), perm[:len(icons)]...)
	sort.Ints(cells) // cell index is col*rows+row, so ascending is column-major

	placements := make([]models.IconPlacement, 0, len(icons))
	for i, entry := range icons {
		col := cells[i] / rows
		row := cells[i] % rows
		placements = append(placements, models.IconPlacement{
			IconID: entry.ID,
			X:      area.X + hints.DesktopIconPadding/2 + col*pitchX,
			Y:      area.Y + hints.DesktopIconPadding/2 + row*cell.Height,
			Width:  hints.DesktopIconSize.Width,
			Height: hints.DesktopIconSize.Height,
			Label:  entry.Label,
		})
	}
	return placements
}

// placeRandom rejection-samples uniform positions, rejecting any candidate
// whose cell rectangle overlaps an already-placed icon. After the attempt
// budget the last candidate is accepted as-is: best effort, not a guarantee.
func (g *Generator) placeRandom(rng *rand.Rand, icons []models.IconEntry) []models.IconPlacement {
	hints := g.ann.Layout
	area := g.desktopArea()
	cell := hints.DesktopCellSize()

	maxX := area.Width - cell.Width
	maxY := area.Height - cell.Height
	if maxX < 1 {
		maxX = 1
	}
	if maxY < 1 {
		maxY = 1
	}

	placements := make([]models.IconPlacement, 0, len(icons))
	for _, entry := range icons {
		var x, y int
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			x = area.X + rng.Intn(maxX)
			y = area.Y + rng.Intn(maxY)
			if !overlapsAny(placements, x, y, cell) {
				break
			}
		}
		placements = append(placements, models.IconPlacement{
			IconID: entry.ID,
			X:      x,
			Y:      y,
			Width:  hints.DesktopIconSize.Width,
			Height: hints.DesktopIconSize.Height,
			Label:  entry.Label,
		})
	}
	return placements
}

// overlapsAny applies the Chebyshev-style cell overlap test against every
// placed icon: |dx| < cellW and |dy| < cellH.
func overlapsAny(placed []models.IconPlacement, x, y int, cell models.Size) bool {
	for _, p := range placed {
		dx := x - p.X
		if dx < 0 {
			dx = -dx
		}
		dy := y - p.Y
		if dy < 0 {
			dy = -dy
		}
		if dx < cell.Width && dy < cell.Height {
			return true
		}
	}
	return false
}

// placeTaskbar lays icons left-to-right with constant gap in selection order.
func (g *Generator) placeTaskbar(icons []models.IconEntry) []models.IconPlacement {
	hints := g.ann.Layout
	placements := make([]models.IconPlacement, 0, len(icons))
	x := hints.TaskbarLeftMargin
	for _, entry := range icons {
		placements = append(placements, models.IconPlacement{
			IconID: entry.ID,
			X:      x,
			Y:      hints.TaskbarYOffset,
			Width:  hints.TaskbarIconSize.Width,
			Height: hints.TaskbarIconSize.Height,
			Label:  entry.Label,
		})
		x += hints.TaskbarIconSize.Width + hints.TaskbarGap
	}
	return placements
}
