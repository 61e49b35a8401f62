// Package geometry remaps detection boxes from the model's native pixel
// space into the pixel space of a resized rendering.
package geometry

import (
	"fmt"
	"math"

	"inference-gateway/models"
)

const (
	// DisplayFill is the share of the display the scaled image may occupy.
	DisplayFill = 0.8
	// Margin is removed from every box side, in native pixels, before
	// scaling.
	Margin = 10.0
)

// Scale returns the uniform factor mapping native pixels to display pixels.
func Scale(native, display models.Size) (float64, error) {
	if native.Width <= 0 || native.Height <= 0 {
		return 0, fmt.Errorf("native size must be positive, got %dx%d", native.Width, native.Height)
	}
	if display.Width <= 0 || display.Height <= 0 {
		return 0, fmt.Errorf("display size must be positive, got %dx%d", display.Width, display.Height)
	}
	sx := DisplayFill * float64(display.Width) / float64(native.Width)
	sy := DisplayFill * float64(display.Height) / float64(native.Height)
	return math.Min(sx, sy), nil
}

// Project returns one new ProjectedBox per object. The objects are not
// modified.
func Project(objects []models.DetectedObject, native, display models.Size) ([]models.ProjectedBox, float64, error) {
	s, err := Scale(native, display)
	if err != nil {
		return nil, 0, err
	}
	projected := make([]models.ProjectedBox, 0, len(objects))
	for _, obj := range objects {
		left, right := shrink(obj.Box.XMin, obj.Box.XMax)
		top, bottom := shrink(obj.Box.YMin, obj.Box.YMax)
		projected = append(projected, models.ProjectedBox{
			Label:  obj.Label,
			Score:  obj.Score,
			Left:   left * s,
			Top:    top * s,
			Right:  right * s,
			Bottom: bottom * s,
		})
	}
	return projected, s, nil
}

// shrink moves both edges inward by Margin. A span too small to shrink
// collapses to its center. Results are never negative.
func shrink(lo, hi float64) (float64, float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	lo, hi = lo+Margin, hi-Margin
	if lo > hi {
		mid := (lo + hi) / 2
		lo, hi = mid, mid
	}
	return math.Max(lo, 0), math.Max(hi, 0)
}
