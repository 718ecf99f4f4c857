// Package geom provides the integer coordinate type shared by sheets and
// boards. Coordinates are stored in nanometres so that positions coming from
// different primitives compare exactly.
package geom

import (
	"fmt"
	"math"
)

// Coordinate conversion constants
const (
	NanometersPerMM = 1e6
	MMPerNanometer  = 1e-6
)

// Point is a 2D position in nanometres
type Point struct {
	X int64
	Y int64
}

// FromMM converts millimetre coordinates (as found in KiCad files) to a Point,
// rounding to the nearest nanometre.
func FromMM(x, y float64) Point {
	return Point{
		X: int64(math.Round(x * NanometersPerMM)),
		Y: int64(math.Round(y * NanometersPerMM)),
	}
}

// MM returns the point in millimetres
func (p Point) MM() (float64, float64) {
	return float64(p.X) * MMPerNanometer, float64(p.Y) * MMPerNanometer
}

// Add returns p+q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rotate rotates p counter-clockwise around the origin by deg degrees.
// Multiples of 90 are exact; anything else is rounded to the nearest nanometre.
func (p Point) Rotate(deg float64) Point {
	switch d := math.Mod(math.Mod(deg, 360)+360, 360); d {
	case 0:
		return p
	case 90:
		return Point{X: -p.Y, Y: p.X}
	case 180:
		return Point{X: -p.X, Y: -p.Y}
	case 270:
		return Point{X: p.Y, Y: -p.X}
	default:
		rad := d * math.Pi / 180
		s, c := math.Sin(rad), math.Cos(rad)
		x, y := float64(p.X), float64(p.Y)
		return Point{
			X: int64(math.Round(x*c - y*s)),
			Y: int64(math.Round(x*s + y*c)),
		}
	}
}

// MirrorX mirrors p across the X axis (negates Y)
func (p Point) MirrorX() Point {
	return Point{X: p.X, Y: -p.Y}
}

// MirrorY mirrors p across the Y axis (negates X)
func (p Point) MirrorY() Point {
	return Point{X: -p.X, Y: p.Y}
}

// Dist returns the euclidean distance between p and q in nanometres
func (p Point) Dist(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Hypot(dx, dy)
}

// Less orders points by X, then Y
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

func (p Point) String() string {
	x, y := p.MM()
	return fmt.Sprintf("(%.4f, %.4f)", x, y)
}
