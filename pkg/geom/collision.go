package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Circle represents a circular (or, with Z, spherical) collision shape.
type Circle struct {
	Center mgl32.Vec3
	Radius float32
}

// CollisionResult contains information about an overlap between two shapes.
type CollisionResult struct {
	Collided    bool
	Normal      mgl32.Vec3
	Penetration float32
}

// CheckCollision tests two circles in the XY plane, or as spheres when
// threeD is set. Touching shapes do not collide.
func CheckCollision(a, b Circle, threeD bool) CollisionResult {
	delta := b.Center.Sub(a.Center)
	if !threeD {
		delta[2] = 0
	}
	radii := a.Radius + b.Radius
	distSqr := delta.LenSqr()
	if distSqr >= radii*radii {
		return CollisionResult{Collided: false}
	}

	distance := delta.Len()
	normal := mgl32.Vec3{}
	if distance > 0 {
		normal = delta.Mul(1 / distance)
	}
	return CollisionResult{
		Collided:    true,
		Normal:      normal,
		Penetration: radii - distance,
	}
}

// Rect represents an axis-aligned rectangular area.
type Rect struct {
	Center mgl32.Vec2
	Width  float32
	Height float32
}

// Contains reports whether point lies inside r (right and top edges excluded).
func (r Rect) Contains(point mgl32.Vec2) bool {
	return point.X() >= r.Center.X()-r.Width/2 &&
		point.X() < r.Center.X()+r.Width/2 &&
		point.Y() >= r.Center.Y()-r.Height/2 &&
		point.Y() < r.Center.Y()+r.Height/2
}

func (r Rect) intersects(other Rect) bool {
	return !(other.Center.X()-other.Width/2 > r.Center.X()+r.Width/2 ||
		other.Center.X()+other.Width/2 < r.Center.X()-r.Width/2 ||
		other.Center.Y()-other.Height/2 > r.Center.Y()+r.Height/2 ||
		other.Center.Y()+other.Height/2 < r.Center.Y()-r.Height/2)
}

// QuadTree is a point quad tree used as the collision broadphase.
type QuadTree[T any] struct {
	Boundary  Rect
	Capacity  int
	Points    []mgl32.Vec2
	Objects   []T
	Divided   bool
	NorthWest *QuadTree[T]
	NorthEast *QuadTree[T]
	SouthWest *QuadTree[T]
	SouthEast *QuadTree[T]
}

// NewQuadTree creates a new quad tree with the given boundary and capacity.
func NewQuadTree[T any](boundary Rect, capacity int) *QuadTree[T] {
	return &QuadTree[T]{
		Boundary: boundary,
		Capacity: capacity,
		Points:   make([]mgl32.Vec2, 0, capacity),
		Objects:  make([]T, 0, capacity),
	}
}

// Insert adds object at point. It returns false when point is outside the tree.
func (qt *QuadTree[T]) Insert(point mgl32.Vec2, object T) bool {
	if !qt.Boundary.Contains(point) {
		return false
	}

	if len(qt.Points) < qt.Capacity && !qt.Divided {
		qt.Points = append(qt.Points, point)
		qt.Objects = append(qt.Objects, object)
		return true
	}

	if !qt.Divided {
		qt.Subdivide()
	}

	return qt.NorthWest.Insert(point, object) ||
		qt.NorthEast.Insert(point, object) ||
		qt.SouthWest.Insert(point, object) ||
		qt.SouthEast.Insert(point, object)
}

// Subdivide splits the quadtree into four quadrants.
func (qt *QuadTree[T]) Subdivide() {
	x := qt.Boundary.Center.X()
	y := qt.Boundary.Center.Y()
	w := qt.Boundary.Width / 2
	h := qt.Boundary.Height / 2

	qt.NorthWest = NewQuadTree[T](Rect{Center: mgl32.Vec2{x - w/2, y + h/2}, Width: w, Height: h}, qt.Capacity)
	qt.NorthEast = NewQuadTree[T](Rect{Center: mgl32.Vec2{x + w/2, y + h/2}, Width: w, Height: h}, qt.Capacity)
	qt.SouthWest = NewQuadTree[T](Rect{Center: mgl32.Vec2{x - w/2, y - h/2}, Width: w, Height: h}, qt.Capacity)
	qt.SouthEast = NewQuadTree[T](Rect{Center: mgl32.Vec2{x + w/2, y - h/2}, Width: w, Height: h}, qt.Capacity)
	qt.Divided = true
}

// Query returns all objects whose points fall inside area.
func (qt *QuadTree[T]) Query(area Rect) []T {
	found := make([]T, 0)
	if !qt.Boundary.intersects(area) {
		return found
	}

	for i, point := range qt.Points {
		if area.Contains(point) {
			found = append(found, qt.Objects[i])
		}
	}

	if !qt.Divided {
		return found
	}

	found = append(found, qt.NorthWest.Query(area)...)
	found = append(found, qt.NorthEast.Query(area)...)
	found = append(found, qt.SouthWest.Query(area)...)
	found = append(found, qt.SouthEast.Query(area)...)

	return found
}
