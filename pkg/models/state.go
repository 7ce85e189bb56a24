package models

// IconPlacement is one icon positioned by the layout generator. Placements
// are immutable after generation and belong to the DesktopState that
// produced them.
type IconPlacement struct {
	IconID string `json:"icon_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Label  string `json:"label"`
}

// Center returns the placement's center using truncating integer division.
func (p IconPlacement) Center() (int, int) {
	return p.X + p.Width/2, p.Y + p.Height/2
}

// Bounds returns the placement's bounding rectangle.
func (p IconPlacement) Bounds() Rect {
	return Rect{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// DesktopState is the logical scene: which icons are where, the clock text,
// and whether the loading overlay is up. Constructed once by the layout
// generator and read-only afterwards.
type DesktopState struct {
	DesktopIcons   []IconPlacement `json:"desktop_icons"`
	TaskbarIcons   []IconPlacement `json:"taskbar_icons"`
	ClockText      string          `json:"clock_text"`
	ClockX         int             `json:"clock_x"`
	ClockY         int             `json:"clock_y"`
	LoadingVisible bool            `json:"loading_visible"`
}

// DesktopIconByID finds a desktop placement by icon id.
func (s *DesktopState) DesktopIconByID(id string) (IconPlacement, bool) {
	for _, p := range s.DesktopIcons {
		if p.IconID == id {
			return p, true
		}
	}
	return IconPlacement{}, false
}

// TaskbarIconByID finds a taskbar placement by icon id.
func (s *DesktopState) TaskbarIconByID(id string) (IconPlacement, bool) {
	for _, p := range s.TaskbarIcons {
		if p.IconID == id {
			return p, true
		}
	}
	return IconPlacement{}, false
}

// GroundTruthIcon is the pixel-exact record of one drawn icon.
type GroundTruthIcon struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Bounds Rect   `json:"bounds"`
	Center [2]int `json:"center"`
}

// GroundTruth mirrors everything actually drawn into a rendered scene.
// Icons whose bitmap could not be resolved are absent: the record describes
// the image, not the pre-render intent.
type GroundTruth struct {
	DesktopIcons   []GroundTruthIcon `json:"desktop_icons"`
	TaskbarIcons   []GroundTruthIcon `json:"taskbar_icons"`
	ClockText      string            `json:"clock_text"`
	ClockPosition  [2]int            `json:"clock_position"`
	LoadingVisible bool              `json:"loading_visible"`
}

// NewGroundTruthIcon projects a placement into its ground-truth record.
func NewGroundTruthIcon(p IconPlacement) GroundTruthIcon {
	cx, cy := p.Center()
	return GroundTruthIcon{
		ID:     p.IconID,
		Label:  p.Label,
		Bounds: p.Bounds(),
		Center: [2]int{cx, cy},
	}
}
