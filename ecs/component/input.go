package component

import "github.com/milk9111/grapplehook/common"

// Input stores per-frame input state for an entity.
type Input struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool

	Jump        bool
	JumpPressed bool

	GrappleHeld     bool
	GrapplePressed  bool
	GrappleReleased bool

	// Aim is the world-space aim direction; it need not be normalized.
	Aim common.Vec3
	// Kill is a debug request to zero the entity's health.
	Kill bool
}

var InputComponent = NewComponent[Input]()
