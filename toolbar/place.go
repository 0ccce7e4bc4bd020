package toolbar

import "github.com/hazyhaar/copymd/dom"

const (
	// Gap separates the toolbar from the selected element.
	Gap = 8
	// ViewportMargin keeps the toolbar off the viewport edges.
	ViewportMargin = 10
)

// Point is a viewport-relative position in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Place computes the toolbar's top-left corner for a target rectangle.
// The toolbar is centred below the target; when that overflows the bottom
// margin it flips above, and when the flip overflows the top it is clamped
// to the top margin. The horizontal position is clamped independently.
func Place(target dom.Rect, size Size, viewport Size) Point {
	x := target.X + target.Width/2 - size.Width/2
	y := target.Bottom() + Gap

	if y+size.Height > viewport.Height-ViewportMargin {
		y = target.Y - size.Height - Gap
		if y < ViewportMargin {
			y = ViewportMargin
		}
	}

	if x+size.Width > viewport.Width-ViewportMargin {
		x = viewport.Width - ViewportMargin - size.Width
	}
	if x < ViewportMargin {
		x = ViewportMargin
	}
	return Point{X: x, Y: y}
}
