package main

import (
	"github.com/rudransh61/Physix-go/pkg/polygon"
	"github.com/rudransh61/Physix-go/pkg/rigidbody"
	"github.com/rudransh61/Physix-go/pkg/vector"
)

// MakeRectangleRigidBody creates a rectangle rigidbody centered at (cx,cy),
// used by LoadStaticWorld to turn the flat collision-rect JSON into static
// pitch-wall/obstacle colliders.
func MakeRectangleRigidBody(cx, cy, width, height float64) *rigidbody.RigidBody {
	return &rigidbody.RigidBody{
		Position:  vector.Vector{X: cx, Y: cy},
		Velocity:  vector.Vector{X: 0, Y: 0},
		Mass:      0,
		Shape:     "rectangle",
		Width:     width,
		Height:    height,
		IsMovable: false,
	}
}

// MakePolygonRigidBodyFromPoints creates a polygon rigidbody from absolute
// world-space points, used for non-rectangular obstacle colliders such as
// corner-flag posts; registered as a bounding-box collider like every other
// static collider, since StepBallRect/StepSpectatorWalls only do AABB checks.
func MakePolygonRigidBodyFromPoints(points []vector.Vector) (*rigidbody.RigidBody, []vector.Vector) {
	if len(points) == 0 {
		return nil, nil
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	width := maxX - minX
	height := maxY - minY
	centerX := minX + width/2.0
	centerY := minY + height/2.0

	poly := polygon.NewPolygon(points, 0, false)
	poly.RigidBody.Position = vector.Vector{X: centerX, Y: centerY}
	poly.RigidBody.Width = width
	poly.RigidBody.Height = height
	poly.RigidBody.IsMovable = false
	poly.RigidBody.Shape = "polygon"

	return &poly.RigidBody, points
}
