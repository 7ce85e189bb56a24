package models

// Action verb names understood by the downstream tooling.
const (
	ActionLeftClick   = "left_click"
	ActionDoubleClick = "double_click"
	ActionRightClick  = "right_click"
	ActionWait        = "wait"
)

// ActionArguments carries the structured payload of a tool call. Coordinate
// and Bbox2D values are in normalized units [0, 1000) of the emitted image.
type ActionArguments struct {
	Action     string  `json:"action,omitempty"`
	Coordinate []int   `json:"coordinate,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Element    string  `json:"element,omitempty"`
	Bbox2D     []int   `json:"bbox_2d,omitempty"`
}

// Action is a tagged tool call: a click variant, a wait, or a bbox assertion.
type Action struct {
	Name      string          `json:"name"`
	Arguments ActionArguments `json:"arguments"`
}

// ClickAction builds a computer_use click with the given verb.
func ClickAction(verb string, ruX, ruY int) Action {
	return Action{
		Name: "computer_use",
		Arguments: ActionArguments{
			Action:     verb,
			Coordinate: []int{ruX, ruY},
		},
	}
}

// WaitAction builds a computer_use wait for the given duration.
func WaitAction(seconds float64) Action {
	return Action{
		Name: "computer_use",
		Arguments: ActionArguments{
			Action:   ActionWait,
			Duration: seconds,
		},
	}
}

// BboxAction builds a get_bbox assertion for a named element.
func BboxAction(element string, bbox [4]int) Action {
	return Action{
		Name: "get_bbox",
		Arguments: ActionArguments{
			Element: element,
			Bbox2D:  bbox[:],
		},
	}
}

// Sample is one labeled training or evaluation example. Write-once; many
// samples may reference the same rendered image.
type Sample struct {
	ID               string         `json:"id"`
	Image            string         `json:"image"`
	TaskType         string         `json:"task_type"`
	Prompt           string         `json:"prompt"`
	Action           Action         `json:"action"`
	PixelCoordinates [2]int         `json:"pixel_coordinates"`
	Tolerance        [2]int         `json:"tolerance"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}
