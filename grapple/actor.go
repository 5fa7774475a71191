package grapple

import "github.com/milk9111/grapplehook/common"

// ActorID identifies a controlled actor. Ids carry a generation so a removed
// actor's id never aliases a later one.
type ActorID uint64

// Body is an actor's root physics body.
type Body interface {
	Position() common.Vec3
	Velocity() common.Vec3
	SetVelocity(v common.Vec3)
	// Mass is the total mass of the actor assembly.
	Mass() float64
	// Facing is the body's current look direction.
	Facing() common.Vec3
	AttachAnchor() (Anchor, error)
}

// Anchor is an attachment point on a body that actuators hang off.
type Anchor interface {
	NewVelocityActuator(maxForce float64) VelocityActuator
	NewForceActuator(force common.Vec3) Actuator
	Destroy()
}

type Actuator interface {
	Destroy()
}

// VelocityActuator imposes a world-space velocity on its body, limited by
// its force cap.
type VelocityActuator interface {
	Actuator
	SetVelocity(v common.Vec3)
	SetMaxForce(f float64)
}

// LocomotionFlag is a native locomotion state that can interrupt an override.
type LocomotionFlag int

const (
	FlagFallingDown LocomotionFlag = iota
	FlagRagdoll
	FlagGettingUp
)

func (f LocomotionFlag) String() string {
	switch f {
	case FlagFallingDown:
		return "falling_down"
	case FlagRagdoll:
		return "ragdoll"
	case FlagGettingUp:
		return "getting_up"
	}
	return "unknown"
}

// LocomotionMode is the high level mode requested of the native controller.
type LocomotionMode int

const (
	ModeNative LocomotionMode = iota
	ModeExternalPhysics
	ModeFreefall
)

func (m LocomotionMode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeExternalPhysics:
		return "external_physics"
	case ModeFreefall:
		return "freefall"
	}
	return "unknown"
}

// LocomotionController is the actor's native locomotion controller.
type LocomotionController interface {
	StateEnabled(f LocomotionFlag) (bool, error)
	SetStateEnabled(f LocomotionFlag, enabled bool) error
	ChangeMode(m LocomotionMode)
	Health() float64
	// Falling is the controller's own falling signal.
	Falling() bool
}

// Pose receives the orientation offset composed with the actor's rest pose.
type Pose interface {
	SetOffset(lean, pitch float64)
}

// Actor resolves an actor's parts. Either may disappear at any time.
type Actor interface {
	Body() (Body, bool)
	Controller() (LocomotionController, bool)
	Pose() Pose
}

// Viewer is the camera the actor aims and steers with.
type Viewer interface {
	AimOrigin() common.Vec3
	AimDirection() common.Vec3
	Look() common.Vec3
	Right() common.Vec3
}

// MoveInput is the held state of the planar movement keys.
type MoveInput struct {
	Forward, Back, Left, Right bool
}

type InputSource interface {
	Move() MoveInput
}

// RayHit is the first surface hit by a ray. Owner is the actor the surface
// belongs to, if any.
type RayHit struct {
	Point    common.Vec3
	Owner    ActorID
	HasOwner bool
}

type Raycaster interface {
	Raycast(origin, dir common.Vec3, maxDist float64, exclude []ActorID) (RayHit, bool)
}

// ActorSet lists live actors for target exclusion.
type ActorSet interface {
	Actors() []ActorID
	IsActor(id ActorID) bool
}

// Track is a named animation track.
type Track interface {
	Play(fade float64)
	Stop(fade float64)
	SetLooped(looped bool)
	// Length is the clip duration in seconds.
	Length() float64
	Playing() bool
}

type Animator interface {
	Track(name string) (Track, bool)
}
