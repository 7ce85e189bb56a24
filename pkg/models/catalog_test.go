package models

import (
	"os"
	"path/filepath"
	"testing"
)

const testAnnotationYAML = `screen:
  width: 1920
  height: 1080
  background: blanks/desktop-blank.png
  font: fonts/segoeui.ttf
regions:
  - label: desktop
    bbox: [0, 0, 1914, 1032]
    groundable: true
    tolerance_x: 30
    tolerance_y: 30
  - label: taskbar
    bbox: [0, 1032, 1920, 48]
  - label: clock
    bbox: [1840, 1050, 80, 30]
  - label: loading panel
    bbox: [708, 365, 502, 304]
    groundable: true
desktop_icons:
  - id: od
    label: Open Dental
    required: true
    asset: desktop/icon-od.png
  - id: chrome
    label: Chrome
    asset: desktop/icon-chrome.png
taskbar_icons:
  - id: od
    required: true
    asset: taskbar/icon-tb-od.png
  - id: explorer
    asset: taskbar/icon-tb-explorer.png
tasks:
  - task_type: click-desktop-icon
    target_region: desktop
    action: double_click
    prompt: "Double-click on the [label] icon on the desktop."
  - task_type: click-taskbar-icon
    target_region: taskbar
    action: left_click
    prompt: "Click on [label] in the taskbar."
wait:
  seconds: 3
  prompts:
    - "A loading screen is visible. What action should you take?"
loading_panel:
  region: loading panel
  asset: panels/od-loading.png
aliases:
  desktop:pms: desktop:od
`

func writeTestAnnotation(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "annotation.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write annotation: %v", err)
	}
	return path
}

func TestLoadAnnotation_Valid(t *testing.T) {
	cfg, err := LoadAnnotation(writeTestAnnotation(t, testAnnotationYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Screen.Width != 1920 || cfg.Screen.Height != 1080 {
		t.Errorf("screen = %dx%d, want 1920x1080", cfg.Screen.Width, cfg.Screen.Height)
	}

	desktop := cfg.DesktopCatalog()
	if desktop.Len() != 2 {
		t.Fatalf("desktop catalog len = %d, want 2", desktop.Len())
	}
	od, ok := desktop.Get("od")
	if !ok {
		t.Fatal("desktop catalog missing od")
	}
	if od.Label != "Open Dental" || !od.Required {
		t.Errorf("od entry = %+v, want required Open Dental", od)
	}
	if got := len(desktop.Required()); got != 1 {
		t.Errorf("required count = %d, want 1", got)
	}
	if got := len(desktop.Optional()); got != 1 {
		t.Errorf("optional count = %d, want 1", got)
	}

	region, ok := cfg.RegionByLabel("desktop")
	if !ok {
		t.Fatal("desktop region not found")
	}
	if region.Bbox != (Rect{X: 0, Y: 0, Width: 1914, Height: 1032}) {
		t.Errorf("desktop bbox = %+v", region.Bbox)
	}
	if region.ToleranceX != 30 || region.ToleranceY != 30 {
		t.Errorf("tolerance = (%d, %d), want (30, 30)", region.ToleranceX, region.ToleranceY)
	}

	if got := len(cfg.Groundable()); got != 2 {
		t.Errorf("groundable count = %d, want 2", got)
	}
	if got := len(cfg.TasksFor("desktop")); got != 1 {
		t.Errorf("desktop tasks = %d, want 1", got)
	}

	alias, ok := cfg.Alias("desktop:pms")
	if !ok || alias != "desktop:od" {
		t.Errorf("alias = %q, %v; want desktop:od", alias, ok)
	}
}

func TestLoadAnnotation_MissingFile(t *testing.T) {
	_, err := LoadAnnotation(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing annotation file")
	}
}

func TestLoadAnnotation_InvalidYAML(t *testing.T) {
	_, err := LoadAnnotation(writeTestAnnotation(t, ": : bad yaml [[["))
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadAnnotation_DuplicateIconID(t *testing.T) {
	content := `screen:
  width: 100
  height: 100
desktop_icons:
  - id: od
    asset: a.png
  - id: od
    asset: b.png
`
	_, err := LoadAnnotation(writeTestAnnotation(t, content))
	if err == nil {
		t.Error("expected error for duplicate icon id")
	}
}

func TestLoadAnnotation_UnknownTaskRegion(t *testing.T) {
	content := `screen:
  width: 100
  height: 100
tasks:
  - task_type: click
    target_region: nowhere
    action: left_click
    prompt: "Click [label]."
`
	_, err := LoadAnnotation(writeTestAnnotation(t, content))
	if err == nil {
		t.Error("expected error for unknown task region")
	}
}

func TestLoadAnnotation_RegionOutsideScreen(t *testing.T) {
	cases := []struct {
		name string
		bbox string
	}{
		{"overhangs right and bottom", "[1000, 800, 1200, 600]"},
		{"negative origin", "[-10, 0, 100, 100]"},
		{"zero size", "[0, 0, 0, 0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := `screen:
  width: 1920
  height: 1080
regions:
  - label: desktop
    bbox: ` + tc.bbox + `
`
			_, err := LoadAnnotation(writeTestAnnotation(t, content))
			if err == nil {
				t.Error("expected error for region bbox outside screen")
			}
		})
	}
}

func TestLoadAnnotation_DuplicateTaskType(t *testing.T) {
	content := `screen:
  width: 100
  height: 100
regions:
  - label: desktop
    bbox: [0, 0, 100, 100]
tasks:
  - task_type: click
    target_region: desktop
    action: left_click
    prompt: "Click [label]."
  - task_type: click
    target_region: desktop
    action: double_click
    prompt: "Double-click [label]."
`
	_, err := LoadAnnotation(writeTestAnnotation(t, content))
	if err == nil {
		t.Error("expected error for duplicate task type")
	}
}

func TestLoadAnnotation_UnsupportedAction(t *testing.T) {
	content := `screen:
  width: 100
  height: 100
regions:
  - label: desktop
    bbox: [0, 0, 100, 100]
tasks:
  - task_type: click
    target_region: desktop
    action: teleport
    prompt: "Click [label]."
`
	_, err := LoadAnnotation(writeTestAnnotation(t, content))
	if err == nil {
		t.Error("expected error for unsupported action")
	}
}

func TestLayoutHints_Normalize(t *testing.T) {
	var h LayoutHints
	h.Normalize()

	if h.DesktopIconSize != (Size{Width: 54, Height: 54}) {
		t.Errorf("desktop icon size = %+v", h.DesktopIconSize)
	}
	cell := h.DesktopCellSize()
	if cell.Width != 74 || cell.Height != 94 {
		t.Errorf("desktop cell = %+v, want 74x94", cell)
	}
	if h.TaskbarIconSize != (Size{Width: 27, Height: 28}) {
		t.Errorf("taskbar icon size = %+v", h.TaskbarIconSize)
	}
}

func TestIconPlacement_Center(t *testing.T) {
	p := IconPlacement{IconID: "od", X: 10, Y: 20, Width: 54, Height: 54}
	cx, cy := p.Center()
	if cx != 37 || cy != 47 {
		t.Errorf("center = (%d, %d), want (37, 47)", cx, cy)
	}

	// Truncating division, not rounding.
	p = IconPlacement{X: 0, Y: 0, Width: 27, Height: 28}
	cx, cy = p.Center()
	if cx != 13 || cy != 14 {
		t.Errorf("center = (%d, %d), want (13, 14)", cx, cy)
	}
}

func TestRect_Intersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	c := Rect{X: 10, Y: 0, Width: 5, Height: 5}

	if !a.Intersects(b) {
		t.Error("a should intersect b")
	}
	if a.Intersects(c) {
		t.Error("touching edges should not count as intersection")
	}
}
