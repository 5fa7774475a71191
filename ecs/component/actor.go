package component

import (
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/grapple"
)

// Actor marks a living character. Facing is the planar forward vector.
type Actor struct {
	Name   string
	Facing common.Vec3
	// EyeHeight offsets the aim origin above the transform.
	EyeHeight float64
}

var ActorComponent = NewComponent[Actor]()

// PlayerTag marks the locally controlled actor.
type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()

type Health struct {
	Current float64
	Max     float64
	// Dead latches once the died event has been raised.
	Dead bool
}

var HealthComponent = NewComponent[Health]()

// Locomotion is the native character controller state.
type Locomotion struct {
	State string
	Mode  grapple.LocomotionMode
	// Enabled holds the interrupt-state switches. A missing entry means enabled.
	Enabled map[grapple.LocomotionFlag]bool

	MoveSpeed          float64
	DepthSpeed         float64
	JumpSpeed          float64
	RagdollImpactSpeed float64
	RagdollFrames      int
	GetUpFrames        int

	Grounded   bool
	Falling    bool
	StateTimer int
	// PrevVY is the vertical velocity sampled on the previous frame.
	PrevVY float64
}

// FlagEnabled reports whether flag is enabled. Unset flags are enabled.
func (l *Locomotion) FlagEnabled(flag grapple.LocomotionFlag) bool {
	if l.Enabled == nil {
		return true
	}
	v, ok := l.Enabled[flag]
	return !ok || v
}

func (l *Locomotion) SetFlag(flag grapple.LocomotionFlag, enabled bool) {
	if l.Enabled == nil {
		l.Enabled = make(map[grapple.LocomotionFlag]bool)
	}
	l.Enabled[flag] = enabled
}

var LocomotionComponent = NewComponent[Locomotion]()

// Pose is the additive body orientation offset in radians.
type Pose struct {
	Lean  float64
	Pitch float64
}

var PoseComponent = NewComponent[Pose]()
