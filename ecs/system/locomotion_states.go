package system

import (
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
)

// locoState is one state of the native character controller.
type locoState interface {
	Name() string
	Enter(ctx *locoContext)
	Update(ctx *locoContext)
}

// locoContext gives a state controlled access to the actor. States never
// touch the world directly.
type locoContext struct {
	loco     *component.Locomotion
	input    *component.Input
	actor    *component.Actor
	body     *BodyHandle
	grounded bool
	dead     bool

	changeState     func(state locoState)
	changeAnimation func(name string)
}

// State singletons (avoid allocations on transitions).
var (
	locoStateIdle    locoState = &locoIdleState{}
	locoStateRun     locoState = &locoRunState{}
	locoStateJump    locoState = &locoJumpState{}
	locoStateFall    locoState = &locoFallState{}
	locoStateRagdoll locoState = &locoRagdollState{}
	locoStateGetUp   locoState = &locoGettingUpState{}
	locoStatePhysics locoState = &locoPhysicsState{}
)

var locoStates = map[string]locoState{
	"idle":       locoStateIdle,
	"run":        locoStateRun,
	"jump":       locoStateJump,
	"fall":       locoStateFall,
	"ragdoll":    locoStateRagdoll,
	"getting_up": locoStateGetUp,
	"physics":    locoStatePhysics,
}

type locoIdleState struct{}
type locoRunState struct{}
type locoJumpState struct{}
type locoFallState struct{}
type locoRagdollState struct{}
type locoGettingUpState struct{}
type locoPhysicsState struct{}

func moveAxes(in *component.Input) (x, z float64) {
	if in == nil {
		return 0, 0
	}
	if in.Right {
		x++
	}
	if in.Left {
		x--
	}
	if in.Forward {
		z++
	}
	if in.Back {
		z--
	}
	return x, z
}

func (ctx *locoContext) face(x, z float64) {
	if ctx.actor == nil || (x == 0 && z == 0) {
		return
	}
	ctx.actor.Facing = common.V3(x, 0, z).Normalize()
}

// leaveGround picks the airborne state. With falling-down suspended the
// actor keeps its current state.
func (ctx *locoContext) leaveGround() bool {
	if ctx.grounded {
		return false
	}
	if !ctx.loco.FlagEnabled(grapple.FlagFallingDown) {
		return false
	}
	ctx.changeState(locoStateFall)
	return true
}

func (ctx *locoContext) wantsJump() bool {
	return ctx.input != nil && ctx.input.JumpPressed && ctx.grounded
}

func (locoIdleState) Name() string { return "idle" }
func (locoIdleState) Enter(ctx *locoContext) {
	ctx.changeAnimation("idle")
}
func (locoIdleState) Update(ctx *locoContext) {
	v := ctx.body.Velocity()
	ctx.body.SetVelocity(common.V3(0, v.Y, 0))
	if ctx.leaveGround() {
		return
	}
	if ctx.wantsJump() {
		ctx.changeState(locoStateJump)
		return
	}
	if x, z := moveAxes(ctx.input); x != 0 || z != 0 {
		ctx.changeState(locoStateRun)
	}
}

func (locoRunState) Name() string { return "run" }
func (locoRunState) Enter(ctx *locoContext) {
	ctx.changeAnimation("run")
}
func (locoRunState) Update(ctx *locoContext) {
	x, z := moveAxes(ctx.input)
	v := ctx.body.Velocity()
	ctx.body.SetVelocity(common.V3(x*ctx.loco.MoveSpeed, v.Y, z*ctx.loco.DepthSpeed))
	ctx.face(x, z)
	if ctx.leaveGround() {
		return
	}
	if ctx.wantsJump() {
		ctx.changeState(locoStateJump)
		return
	}
	if x == 0 && z == 0 {
		ctx.changeState(locoStateIdle)
	}
}

func (locoJumpState) Name() string { return "jump" }
func (locoJumpState) Enter(ctx *locoContext) {
	ctx.changeAnimation("jump")
	v := ctx.body.Velocity()
	v.Y = ctx.loco.JumpSpeed
	ctx.body.SetVelocity(v)
	ctx.grounded = false
}
func (locoJumpState) Update(ctx *locoContext) {
	airControl(ctx)
	if ctx.body.Velocity().Y > 0 {
		return
	}
	if ctx.grounded {
		ctx.changeState(locoStateIdle)
		return
	}
	ctx.leaveGround()
}

func (locoFallState) Name() string { return "fall" }
func (locoFallState) Enter(ctx *locoContext) {}
func (locoFallState) Update(ctx *locoContext) {
	airControl(ctx)
	if !ctx.grounded {
		return
	}
	landing := -ctx.loco.PrevVY
	ctx.loco.Mode = grapple.ModeNative
	if ctx.loco.RagdollImpactSpeed > 0 && landing > ctx.loco.RagdollImpactSpeed && ctx.loco.FlagEnabled(grapple.FlagRagdoll) {
		ctx.changeState(locoStateRagdoll)
		return
	}
	if x, z := moveAxes(ctx.input); x != 0 || z != 0 {
		ctx.changeState(locoStateRun)
		return
	}
	ctx.changeState(locoStateIdle)
}

// airControl steers only while keys are held, so launch momentum survives.
func airControl(ctx *locoContext) {
	x, z := moveAxes(ctx.input)
	if x == 0 && z == 0 {
		return
	}
	const blend = 0.1
	v := ctx.body.Velocity()
	v.X = common.Lerp(v.X, x*ctx.loco.MoveSpeed, blend)
	v.Z = common.Lerp(v.Z, z*ctx.loco.DepthSpeed, blend)
	ctx.body.SetVelocity(v)
	ctx.face(x, z)
}

func (locoRagdollState) Name() string { return "ragdoll" }
func (locoRagdollState) Enter(ctx *locoContext) {
	ctx.changeAnimation("ragdoll")
	ctx.loco.StateTimer = ctx.loco.RagdollFrames
	v := ctx.body.Velocity()
	ctx.body.SetVelocity(common.V3(0, v.Y, 0))
}
func (locoRagdollState) Update(ctx *locoContext) {
	if ctx.dead {
		return
	}
	if ctx.loco.StateTimer > 0 {
		ctx.loco.StateTimer--
		return
	}
	if ctx.loco.FlagEnabled(grapple.FlagGettingUp) {
		ctx.changeState(locoStateGetUp)
		return
	}
	ctx.changeState(locoStateIdle)
}

func (locoGettingUpState) Name() string { return "getting_up" }
func (locoGettingUpState) Enter(ctx *locoContext) {
	ctx.changeAnimation("getting_up")
	ctx.loco.StateTimer = ctx.loco.GetUpFrames
}
func (locoGettingUpState) Update(ctx *locoContext) {
	if ctx.loco.StateTimer > 0 {
		ctx.loco.StateTimer--
		return
	}
	ctx.changeState(locoStateIdle)
}

// locoPhysicsState hands the body to an external driver. It writes nothing.
func (locoPhysicsState) Name() string { return "physics" }
func (locoPhysicsState) Enter(ctx *locoContext) {
	ctx.changeAnimation("")
}
func (locoPhysicsState) Update(ctx *locoContext) {
	if ctx.loco.Mode == grapple.ModeExternalPhysics {
		return
	}
	if ctx.grounded {
		ctx.loco.Mode = grapple.ModeNative
		ctx.changeState(locoStateIdle)
		return
	}
	// freefall is native airborne control regardless of the falling-down flag
	ctx.changeState(locoStateFall)
}
