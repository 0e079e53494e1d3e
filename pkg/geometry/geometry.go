// Package geometry provides the point and quadrilateral types used to describe
// where a marking was detected, plus the conversions between normalized
// detection space and a display surface.
//
// Detection space is normalized to [0,1]×[0,1] with the origin at the
// bottom-left corner and y increasing upward. Surface space is measured in
// pixels with the origin at the top-left corner.
package geometry

// Point is a 2D point with floating-point coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is the four-corner region of a detected marking.
type Quad struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
}

// Midpoint returns the center of the quad, taking the horizontal extent from
// the bottom edge and the vertical extent from the left edge.
func (q Quad) Midpoint() Point {
	return Point{
		X: q.BottomLeft.X + (q.BottomRight.X-q.BottomLeft.X)/2,
		Y: q.TopLeft.Y + (q.BottomLeft.Y-q.TopLeft.Y)/2,
	}
}

// MiddleBottom returns the point on the bottom edge below the midpoint.
func (q Quad) MiddleBottom() Point {
	return Point{X: q.Midpoint().X, Y: q.BottomLeft.Y}
}

// MiddleTop returns the point on the top edge above the midpoint.
func (q Quad) MiddleTop() Point {
	return Point{X: q.Midpoint().X, Y: q.TopLeft.Y}
}

// Corners returns the corners in drawing order: top-left, top-right,
// bottom-right, bottom-left.
func (q Quad) Corners() [4]Point {
	return [4]Point{q.TopLeft, q.TopRight, q.BottomRight, q.BottomLeft}
}

// SquaredDistance returns the squared Euclidean distance between p and q.
// Only relative ordering is ever needed, so the square root is never taken.
func SquaredDistance(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// ToSurface translates a detection-space point to a surface of the given
// pixel dimensions, flipping the vertical axis.
func ToSurface(p Point, width, height float64) Point {
	return Point{
		X: p.X * width,
		Y: (1 - p.Y) * height,
	}
}

// QuadToSurface translates every corner of q with ToSurface.
func QuadToSurface(q Quad, width, height float64) Quad {
	return Quad{
		TopLeft:     ToSurface(q.TopLeft, width, height),
		TopRight:    ToSurface(q.TopRight, width, height),
		BottomLeft:  ToSurface(q.BottomLeft, width, height),
		BottomRight: ToSurface(q.BottomRight, width, height),
	}
}
