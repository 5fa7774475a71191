package component

import "github.com/jakecoffman/cp"

// PhysicsBody stores Chipmunk2D runtime data and collider configuration.
// Chipmunk simulates the XY plane; the physics system carries Z alongside.
type PhysicsBody struct {
	Body  *cp.Body
	Shape *cp.Shape

	Width  float64
	Height float64
	// Depth is the Z extent used by ray queries. Zero means unbounded.
	Depth      float64
	Mass       float64
	Friction   float64
	Elasticity float64
	Static     bool

	// VZ is the depth-lane velocity, integrated by the physics system.
	VZ float64
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()

// TerrainTag marks static level geometry.
type TerrainTag struct{}

var TerrainTagComponent = NewComponent[TerrainTag]()
