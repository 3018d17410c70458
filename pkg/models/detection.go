package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Task selects which model head runs over an image
type Task string

const (
	// TaskDetection produces bounding boxes only
	TaskDetection Task = "detection"
	// TaskSegmentation produces bounding boxes plus per-instance masks
	TaskSegmentation Task = "segmentation"
)

// ParseTask accepts the UI labels ("Detection", "Segmentation") as well as the lowercase names
func ParseTask(s string) (Task, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "detection", "detect":
		return TaskDetection, nil
	case "segmentation", "segment":
		return TaskSegmentation, nil
	default:
		return "", fmt.Errorf("unknown task %q", s)
	}
}

// Box is one detected instance in pixel coordinates of the source image.
//
// On the wire a box is either an object or the compact array form
// [x1, y1, x2, y2, class, confidence]. The array form needs at least the
// four coordinates; class and confidence default to zero.
type Box struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Class      int     `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Area returns (x2-x1)*(y2-y1) without normalizing the corners
func (b Box) Area() float64 {
	return (b.X2 - b.X1) * (b.Y2 - b.Y1)
}

// UnmarshalJSON implements json.Unmarshaler
func (b *Box) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var fields []float64
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return fmt.Errorf("box array: %w", err)
		}
		if len(fields) < 4 {
			return fmt.Errorf("box array needs at least 4 fields, got %d", len(fields))
		}
		*b = Box{X1: fields[0], Y1: fields[1], X2: fields[2], Y2: fields[3]}
		if len(fields) > 4 {
			b.Class = int(fields[4])
		}
		if len(fields) > 5 {
			b.Confidence = fields[5]
		}
		return nil
	}

	type plain Box
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*b = Box(p)
	return nil
}

// Mask is a row-major per-pixel segmentation map aligned to the image grid
type Mask [][]float32

// OnPixels counts the pixels whose integer truncation is non-zero. Each such
// pixel contributes exactly one regardless of its stored value.
func (m Mask) OnPixels() int64 {
	var n int64
	for _, row := range m {
		for _, v := range row {
			if int64(v) != 0 {
				n++
			}
		}
	}
	return n
}

// Size returns the mask width and height. Width is taken from the first row.
func (m Mask) Size() (int, int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m[0]), len(m)
}

// At reports whether (x, y) is on. Out-of-range coordinates are off.
func (m Mask) At(x, y int) bool {
	if y < 0 || y >= len(m) || x < 0 || x >= len(m[y]) {
		return false
	}
	return int64(m[y][x]) != 0
}

// InferenceOutput is the backend result for one image. Masks[i] belongs to
// Boxes[i]; detection-only outputs carry no masks.
type InferenceOutput struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Boxes  []Box  `json:"boxes"`
	Masks  []Mask `json:"masks,omitempty"`
}

// ImageResult pairs an image identifier with the backend outputs produced for it
type ImageResult struct {
	ImageID string            `json:"image_id"`
	Outputs []InferenceOutput `json:"outputs"`
}
