package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// IconEntry describes one icon in a region catalog.
type IconEntry struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Required bool   `yaml:"required" json:"required"`
	AssetKey string `yaml:"asset" json:"assetKey"`
}

// IconCatalog is an ordered, id-unique collection of icons for one region.
type IconCatalog struct {
	region  string
	entries []IconEntry
	byID    map[string]IconEntry
}

// NewIconCatalog builds a catalog for a region, rejecting duplicate ids.
func NewIconCatalog(region string, entries []IconEntry) (*IconCatalog, error) {
	byID := make(map[string]IconEntry, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%s catalog: entry with empty id", region)
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("%s catalog: duplicate icon id %q", region, e.ID)
		}
		byID[e.ID] = e
	}
	return &IconCatalog{region: region, entries: entries, byID: byID}, nil
}

// Region returns the region this catalog belongs to.
func (c *IconCatalog) Region() string { return c.region }

// Len returns the number of entries.
func (c *IconCatalog) Len() int { return len(c.entries) }

// Get looks up an entry by id.
func (c *IconCatalog) Get(id string) (IconEntry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Entries returns all entries in catalog order.
func (c *IconCatalog) Entries() []IconEntry {
	out := make([]IconEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Required returns the entries that must appear in every layout.
func (c *IconCatalog) Required() []IconEntry {
	var out []IconEntry
	for _, e := range c.entries {
		if e.Required {
			out = append(out, e)
		}
	}
	return out
}

// Optional returns the entries that may be omitted from a layout.
func (c *IconCatalog) Optional() []IconEntry {
	var out []IconEntry
	for _, e := range c.entries {
		if !e.Required {
			out = append(out, e)
		}
	}
	return out
}

// Region is a named rectangular area of the scene.
type Region struct {
	Label      string `yaml:"label" json:"label"`
	Bbox       Rect   `yaml:"bbox" json:"bbox"`
	Groundable bool   `yaml:"groundable" json:"groundable"`
	ToleranceX int    `yaml:"tolerance_x" json:"toleranceX"`
	ToleranceY int    `yaml:"tolerance_y" json:"toleranceY"`
}

// TaskTemplate describes one prompt/action template from the annotation file.
// Prompt text may contain a [label] placeholder interpolated per icon.
type TaskTemplate struct {
	TaskType     string `yaml:"task_type" json:"taskType"`
	TargetRegion string `yaml:"target_region" json:"targetRegion"`
	Action       string `yaml:"action" json:"action"`
	Prompt       string `yaml:"prompt" json:"prompt"`
}

// WaitTask describes the wait action emitted when the loading overlay is visible.
type WaitTask struct {
	Seconds float64  `yaml:"seconds" json:"seconds"`
	Prompts []string `yaml:"prompts" json:"prompts"`
}

// ScreenConfig describes the base frame and shared assets.
type ScreenConfig struct {
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
	Background string `yaml:"background" json:"background"`
	Font       string `yaml:"font" json:"font"`
}

// LayoutHints carries the pixel geometry the layout generator works with.
// Zero fields fall back to defaults via Normalize.
type LayoutHints struct {
	DesktopIconSize    Size `yaml:"desktop_icon_size" json:"desktopIconSize"`
	DesktopIconPadding int  `yaml:"desktop_icon_padding" json:"desktopIconPadding"`
	DesktopLabelHeight int  `yaml:"desktop_label_height" json:"desktopLabelHeight"`
	TaskbarIconSize    Size `yaml:"taskbar_icon_size" json:"taskbarIconSize"`
	TaskbarGap         int  `yaml:"taskbar_gap" json:"taskbarGap"`
	TaskbarLeftMargin  int  `yaml:"taskbar_left_margin" json:"taskbarLeftMargin"`
	TaskbarYOffset     int  `yaml:"taskbar_y_offset" json:"taskbarYOffset"`
}

// Normalize fills unset hint fields with the stock Windows 11 geometry.
func (h *LayoutHints) Normalize() {
	if h.DesktopIconSize.Width == 0 {
		h.DesktopIconSize = Size{Width: 54, Height: 54}
	}
	if h.DesktopIconPadding == 0 {
		h.DesktopIconPadding = 20
	}
	if h.DesktopLabelHeight == 0 {
		h.DesktopLabelHeight = 20
	}
	if h.TaskbarIconSize.Width == 0 {
		h.TaskbarIconSize = Size{Width: 27, Height: 28}
	}
	if h.TaskbarGap == 0 {
		h.TaskbarGap = 8
	}
	if h.TaskbarLeftMargin == 0 {
		h.TaskbarLeftMargin = 946
	}
	if h.TaskbarYOffset == 0 {
		h.TaskbarYOffset = 1042
	}
}

// DesktopCellSize returns the grid cell a desktop icon occupies, label included.
func (h LayoutHints) DesktopCellSize() Size {
	return Size{
		Width:  h.DesktopIconSize.Width + h.DesktopIconPadding,
		Height: h.DesktopIconSize.Height + h.DesktopLabelHeight + h.DesktopIconPadding,
	}
}

// LoadingPanelConfig points the loading overlay at its region and bitmap.
type LoadingPanelConfig struct {
	Region string `yaml:"region" json:"region"`
	Asset  string `yaml:"asset" json:"asset"`
}

// AnnotationConfig is the full declarative scene description: regions, icon
// catalogs, task templates, and the wait/loading descriptors.
type AnnotationConfig struct {
	Screen       ScreenConfig       `yaml:"screen"`
	Layout       LayoutHints        `yaml:"layout"`
	Regions      []Region           `yaml:"regions"`
	DesktopIcons []IconEntry        `yaml:"desktop_icons"`
	TaskbarIcons []IconEntry        `yaml:"taskbar_icons"`
	Tasks        []TaskTemplate     `yaml:"tasks"`
	Wait         WaitTask           `yaml:"wait"`
	LoadingPanel LoadingPanelConfig `yaml:"loading_panel"`
	Aliases      map[string]string  `yaml:"aliases"`

	desktop *IconCatalog
	taskbar *IconCatalog
	regions map[string]Region
}

// RegionDesktop and RegionTaskbar are the two icon-bearing region labels.
const (
	RegionDesktop = "desktop"
	RegionTaskbar = "taskbar"
)

// LoadAnnotation reads and validates an annotation YAML file.
func LoadAnnotation(path string) (*AnnotationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}

	var cfg AnnotationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse annotation file: %w", err)
	}

	if err := cfg.init(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// init builds the derived lookups and validates cross-references.
func (c *AnnotationConfig) init() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("screen dimensions must be positive, got %dx%d", c.Screen.Width, c.Screen.Height)
	}
	c.Layout.Normalize()

	c.regions = make(map[string]Region, len(c.Regions))
	for _, r := range c.Regions {
		if _, dup := c.regions[r.Label]; dup {
			return fmt.Errorf("duplicate region label %q", r.Label)
		}
		b := r.Bbox
		if b.X < 0 || b.Y < 0 || b.Width <= 0 || b.Height <= 0 ||
			b.X+b.Width > c.Screen.Width || b.Y+b.Height > c.Screen.Height {
			return fmt.Errorf("region %q bbox %v exceeds the %dx%d screen",
				r.Label, b, c.Screen.Width, c.Screen.Height)
		}
		c.regions[r.Label] = r
	}

	var err error
	if c.desktop, err = NewIconCatalog(RegionDesktop, c.DesktopIcons); err != nil {
		return err
	}
	if c.taskbar, err = NewIconCatalog(RegionTaskbar, c.TaskbarIcons); err != nil {
		return err
	}

	// Task types key sample ids, so they must be unique.
	taskTypes := make(map[string]bool, len(c.Tasks))
	for _, t := range c.Tasks {
		if taskTypes[t.TaskType] {
			return fmt.Errorf("duplicate task type %q", t.TaskType)
		}
		taskTypes[t.TaskType] = true
		if _, ok := c.regions[t.TargetRegion]; !ok {
			return fmt.Errorf("task %q targets unknown region %q", t.TaskType, t.TargetRegion)
		}
		switch t.Action {
		case "left_click", "double_click", "right_click":
		default:
			return fmt.Errorf("task %q has unsupported action %q", t.TaskType, t.Action)
		}
	}

	if c.LoadingPanel.Region != "" {
		if _, ok := c.regions[c.LoadingPanel.Region]; !ok {
			return fmt.Errorf("loading panel references unknown region %q", c.LoadingPanel.Region)
		}
	}
	return nil
}

// DesktopCatalog returns the desktop icon catalog.
func (c *AnnotationConfig) DesktopCatalog() *IconCatalog { return c.desktop }

// TaskbarCatalog returns the taskbar icon catalog.
func (c *AnnotationConfig) TaskbarCatalog() *IconCatalog { return c.taskbar }

// Catalog returns the catalog for a region label.
func (c *AnnotationConfig) Catalog(region string) (*IconCatalog, bool) {
	switch region {
	case RegionDesktop:
		return c.desktop, true
	case RegionTaskbar:
		return c.taskbar, true
	}
	return nil, false
}

// RegionByLabel looks up a region by its label.
func (c *AnnotationConfig) RegionByLabel(label string) (Region, bool) {
	r, ok := c.regions[label]
	return r, ok
}

// Groundable returns all regions flagged as grounding landmarks, in file order.
func (c *AnnotationConfig) Groundable() []Region {
	var out []Region
	for _, r := range c.Regions {
		if r.Groundable {
			out = append(out, r)
		}
	}
	return out
}

// TasksFor returns the click task templates targeting the given region.
func (c *AnnotationConfig) TasksFor(region string) []TaskTemplate {
	var out []TaskTemplate
	for _, t := range c.Tasks {
		if t.TargetRegion == region {
			out = append(out, t)
		}
	}
	return out
}

// Alias resolves the asset alias for a "region:id" key, if one is configured.
func (c *AnnotationConfig) Alias(key string) (string, bool) {
	a, ok := c.Aliases[key]
	return a, ok
}
