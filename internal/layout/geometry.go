package layout

import (
	"math"
)

// Point is a marker position in percent of the canvas, or a pointer position
// in client pixels before conversion.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the canvas bounding box in client pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Percent converts a pointer position to canvas percentages clamped to
// [0,100]. It reports false for a canvas with no area.
func (r Rect) Percent(clientX, clientY float64) (Point, bool) {
	if !(r.Width > 0) || !(r.Height > 0) {
		return Point{}, false
	}
	return Clamp(Point{
		X: (clientX - r.Left) / r.Width * 100,
		Y: (clientY - r.Top) / r.Height * 100,
	}), true
}

func Clamp(p Point) Point {
	return Point{X: clampPercent(p.X), Y: clampPercent(p.Y)}
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// Position is a placement or move target as sent by a client: either
// percentages, or a pointer gesture with the canvas it happened on. The
// gesture wins when both are present.
type Position struct {
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Pointer *Point   `json:"pointer"`
	Canvas  *Rect    `json:"canvas"`
}

func (p Position) Resolve() (Point, error) {
	if p.Pointer != nil && p.Canvas != nil {
		pt, ok := p.Canvas.Percent(p.Pointer.X, p.Pointer.Y)
		if !ok {
			return Point{}, ErrBadPosition
		}
		return pt, nil
	}
	if p.X == nil || p.Y == nil {
		return Point{}, ErrBadPosition
	}
	return Clamp(Point{X: *p.X, Y: *p.Y}), nil
}

func normalizeDegrees(d int) int {
	return ((d % 360) + 360) % 360
}
