package engine

import "github.com/golang/geo/r3"

// ShapeKind enumerates the supported collision shapes.
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeCylinder
	ShapeSphere
	ShapePlane
)

// Shape is a collision shape description. Boxes use HalfExtents,
// cylinders use Radius and Height, spheres use Radius, planes are the
// infinite z=0 ground.
type Shape struct {
	Kind        ShapeKind
	HalfExtents r3.Vector
	Radius      float64
	Height      float64
}

// Box returns a box shape with the given half extents.
func Box(halfExtents r3.Vector) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: halfExtents}
}

// Cylinder returns an upright cylinder shape.
func Cylinder(radius, height float64) Shape {
	return Shape{Kind: ShapeCylinder, Radius: radius, Height: height}
}

// Sphere returns a sphere shape.
func Sphere(radius float64) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// Plane returns the infinite ground plane at z=0.
func Plane() Shape {
	return Shape{Kind: ShapePlane}
}

// halfHeight is the distance from a body's center to its lowest point.
func (s Shape) halfHeight() float64 {
	switch s.Kind {
	case ShapeBox:
		return s.HalfExtents.Z
	case ShapeCylinder:
		return s.Height / 2
	case ShapeSphere:
		return s.Radius
	default:
		return 0
	}
}

func (s Shape) valid() bool {
	switch s.Kind {
	case ShapeBox:
		return s.HalfExtents.X > 0 && s.HalfExtents.Y > 0 && s.HalfExtents.Z > 0
	case ShapeCylinder:
		return s.Radius > 0 && s.Height > 0
	case ShapeSphere:
		return s.Radius > 0
	case ShapePlane:
		return true
	default:
		return false
	}
}
