// Package geom provides page-relative geometry for extraction records.
//
// All bounding boxes that leave this package use unit coordinates: every
// field lies in [0,1] relative to the page width and height. Converting
// from the absolute pixel or point units reported by collaborators happens
// here, in one place, so the rest of the pipeline never sees raw units.
package geom

import (
	"errors"
	"fmt"
)

// ErrInvalidPageDimension is returned when a page reports a zero or
// negative width or height, which would make normalization divide by zero.
var ErrInvalidPageDimension = errors.New("invalid page dimension")

// BoundingBox is an axis-aligned box in unit coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a single coordinate pair in unit coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Area returns the box area in unit-square terms.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// NormalizeRect converts an absolute (x0,y0,x1,y1) rectangle into a unit
// BoundingBox relative to the given page dimensions. Coordinates are
// clamped to [0,1] after division to absorb rounding from upstream
// detectors.
func NormalizeRect(x0, y0, x1, y1, pageWidth, pageHeight float64) (BoundingBox, error) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return BoundingBox{}, fmt.Errorf("%w: %gx%g", ErrInvalidPageDimension, pageWidth, pageHeight)
	}
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	x := clamp01(x0 / pageWidth)
	y := clamp01(y0 / pageHeight)
	return BoundingBox{
		X:      x,
		Y:      y,
		Width:  clamp01(x1/pageWidth) - x,
		Height: clamp01(y1/pageHeight) - y,
	}, nil
}

// NormalizeXYWH converts an absolute (x,y,width,height) rectangle into a
// unit BoundingBox relative to the given page dimensions.
func NormalizeXYWH(x, y, w, h, pageWidth, pageHeight float64) (BoundingBox, error) {
	return NormalizeRect(x, y, x+w, y+h, pageWidth, pageHeight)
}

// NormalizePoint converts an absolute point into unit coordinates.
func NormalizePoint(x, y, pageWidth, pageHeight float64) (Point, error) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return Point{}, fmt.Errorf("%w: %gx%g", ErrInvalidPageDimension, pageWidth, pageHeight)
	}
	return Point{X: clamp01(x / pageWidth), Y: clamp01(y / pageHeight)}, nil
}

// IoU returns the intersection-over-union of two unit boxes. Boxes that do
// not overlap have IoU 0; a non-degenerate box against itself has IoU 1.
func IoU(a, b BoundingBox) float64 {
	x0 := max(a.X, b.X)
	y0 := max(a.Y, b.Y)
	x1 := min(a.X+a.Width, b.X+b.Width)
	y1 := min(a.Y+a.Height, b.Y+b.Height)

	if x1 <= x0 || y1 <= y0 {
		return 0
	}

	intersection := (x1 - x0) * (y1 - y0)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
