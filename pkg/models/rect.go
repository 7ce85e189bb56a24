package models

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Rect is a pixel rectangle in full-frame coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the rectangle's center point using truncating integer division.
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects reports whether two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// UnmarshalYAML decodes a rectangle from a [x, y, width, height] sequence.
func (r *Rect) UnmarshalYAML(value *yaml.Node) error {
	var v [4]int
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("bbox must be [x, y, width, height]: %w", err)
	}
	r.X, r.Y, r.Width, r.Height = v[0], v[1], v[2], v[3]
	return nil
}

// MarshalJSON encodes the rectangle as a [x, y, width, height] array.
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{r.X, r.Y, r.Width, r.Height})
}

// UnmarshalJSON decodes a rectangle from a [x, y, width, height] array.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bounds must be [x, y, width, height]: %w", err)
	}
	r.X, r.Y, r.Width, r.Height = v[0], v[1], v[2], v[3]
	return nil
}

// Size is a pixel width/height pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UnmarshalYAML decodes a size from a [width, height] sequence.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	var v [2]int
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("size must be [width, height]: %w", err)
	}
	s.Width, s.Height = v[0], v[1]
	return nil
}
