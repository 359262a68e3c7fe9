// Package collision resolves movement of round bodies against axis-aligned obstacles.
//
// Movement is tested one axis at a time so a body pressed against a wall keeps
// sliding along it. There is no tunneling guard: obstacles must be larger than
// the distance a body covers in a single tick.
package collision

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrMalformedObstacle is returned for obstacles with inverted or NaN bounds.
var ErrMalformedObstacle = errors.New("malformed obstacle")

// Body is a circle in the X/Z plane, or a cylinder standing on it when Height is set.
// Center.Y holds the world Z coordinate.
type Body struct {
	Center r2.Vec
	Radius float64
	Height float64
}

// At returns a copy of the body translated to p.
func (b Body) At(p r2.Vec) Body {
	b.Center = p
	return b
}

// Obstacle is a static axis-aligned box.
type Obstacle struct {
	Bounds r2.Box
}

// NewObstacle builds an obstacle from its min corner and size.
func NewObstacle(x, z, w, d float64) Obstacle {
	return Obstacle{Bounds: r2.Box{
		Min: r2.Vec{X: x, Y: z},
		Max: r2.Vec{X: x + w, Y: z + d},
	}}
}

// Validate reports whether the obstacle bounds are usable.
func (o Obstacle) Validate() error {
	b := o.Bounds
	if math.IsNaN(b.Min.X) || math.IsNaN(b.Min.Y) || math.IsNaN(b.Max.X) || math.IsNaN(b.Max.Y) {
		return fmt.Errorf("%w: NaN bound", ErrMalformedObstacle)
	}
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y {
		return fmt.Errorf("%w: min %v exceeds max %v", ErrMalformedObstacle, b.Min, b.Max)
	}
	return nil
}

// Intersects reports whether the body overlaps the box.
// A body exactly touching an edge does not overlap it.
func Intersects(b Body, box r2.Box) bool {
	closest := r2.Vec{
		X: clamp(b.Center.X, box.Min.X, box.Max.X),
		Y: clamp(b.Center.Y, box.Min.Y, box.Max.Y),
	}
	return r2.Norm2(r2.Sub(b.Center, closest)) < b.Radius*b.Radius
}

// Overlap reports whether two bodies overlap.
func Overlap(a, b Body) bool {
	r := a.Radius + b.Radius
	return r2.Norm2(r2.Sub(a.Center, b.Center)) < r*r
}

// ResolveAxisMove reports whether moving the body to proposed is blocked by any obstacle.
// Malformed obstacles never block.
func ResolveAxisMove(body Body, proposed r2.Vec, obstacles []Obstacle) bool {
	candidate := body.At(proposed)
	for _, o := range obstacles {
		if o.Validate() != nil {
			continue
		}
		if Intersects(candidate, o.Bounds) {
			return true
		}
	}
	return false
}

// WallQuery finds the static obstacle a candidate body would collide with.
// A nil obstacle means the position is free.
type WallQuery interface {
	WallCollisionAt(b Body) (*Obstacle, error)
}

// Obstacles is a flat WallQuery over a list of boxes.
type Obstacles []Obstacle

// WallCollisionAt returns the first well-formed obstacle overlapping b.
// Malformed obstacles are skipped and reported in the error.
func (os Obstacles) WallCollisionAt(b Body) (*Obstacle, error) {
	var errs []error
	for i := range os {
		if err := os[i].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("obstacle %d: %w", i, err))
			continue
		}
		if Intersects(b, os[i].Bounds) {
			return &os[i], errors.Join(errs...)
		}
	}
	return nil, errors.Join(errs...)
}

// Result describes the outcome of a per-axis slide.
type Result struct {
	Position r2.Vec
	BlockedX bool
	BlockedZ bool

	// Err carries query failures. Failed axes were treated as unblocked.
	Err error
}

// Slide moves the body by delta, testing the X and Z translations independently
// from the starting position and applying only the unblocked ones.
func Slide(q WallQuery, b Body, delta r2.Vec) Result {
	res := Result{Position: b.Center}
	var errs []error

	if delta.X != 0 {
		blocked, err := axisBlocked(q, b.At(r2.Vec{X: b.Center.X + delta.X, Y: b.Center.Y}))
		if err != nil {
			errs = append(errs, fmt.Errorf("x axis: %w", err))
		}
		if blocked {
			res.BlockedX = true
		} else {
			res.Position.X += delta.X
		}
	}

	if delta.Y != 0 {
		blocked, err := axisBlocked(q, b.At(r2.Vec{X: b.Center.X, Y: b.Center.Y + delta.Y}))
		if err != nil {
			errs = append(errs, fmt.Errorf("z axis: %w", err))
		}
		if blocked {
			res.BlockedZ = true
		} else {
			res.Position.Y += delta.Y
		}
	}

	res.Err = errors.Join(errs...)
	return res
}

func axisBlocked(q WallQuery, candidate Body) (bool, error) {
	// A failed query without a hit fails open.
	hit, err := q.WallCollisionAt(candidate)
	return hit != nil, err
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
