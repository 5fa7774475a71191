package system

import (
	"log/slog"

	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/logger"
)

const groundProbe = 0.5

// nativeClips are the clips the locomotion states own.
var nativeClips = []string{"idle", "run", "jump", "ragdoll", "getting_up"}

// LocomotionSystem runs the native character controller for every actor
// with a Locomotion component.
type LocomotionSystem struct {
	physics *PhysicsSystem
	log     *slog.Logger
}

func NewLocomotionSystem(ps *PhysicsSystem, lg *slog.Logger) *LocomotionSystem {
	if lg == nil {
		lg = logger.L()
	}
	return &LocomotionSystem{physics: ps, log: lg.With("system", "locomotion")}
}

func (ls *LocomotionSystem) Stage() ecs.Stage { return ecs.StageLocomotion }

func (ls *LocomotionSystem) Update(w *ecs.World) {
	if ls == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.LocomotionComponent.Kind(), func(e ecs.Entity, loco *component.Locomotion) {
		body, ok := ls.physics.Body(e)
		if !ok {
			return
		}
		input, _ := ecs.Get(w, e, component.InputComponent.Kind())
		actor, _ := ecs.Get(w, e, component.ActorComponent.Kind())
		anim, _ := ecs.Get(w, e, component.AnimationComponent.Kind())

		ctx := &locoContext{
			loco:     loco,
			input:    input,
			actor:    actor,
			body:     body,
			grounded: ls.physics.Grounded(e, groundProbe),
		}
		if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok {
			ctx.dead = h.Current <= 0
		}
		ctx.changeAnimation = func(name string) { playNativeClip(anim, name) }
		ctx.changeState = func(next locoState) {
			if next.Name() != loco.State {
				ls.log.Debug("locomotion transition", "entity", e, "from", loco.State, "to", next.Name())
			}
			loco.State = next.Name()
			next.Enter(ctx)
		}

		current, ok := locoStates[loco.State]
		if !ok {
			ctx.changeState(locoStateIdle)
			current = locoStateIdle
		}

		switch {
		case loco.Mode == grapple.ModeExternalPhysics && current != locoStatePhysics:
			ctx.changeState(locoStatePhysics)
		case ctx.dead && current != locoStateRagdoll && loco.Mode != grapple.ModeExternalPhysics:
			ctx.changeState(locoStateRagdoll)
		default:
			current.Update(ctx)
		}

		loco.Grounded = ctx.grounded
		loco.Falling = loco.State == locoStateFall.Name()
		loco.PrevVY = body.Velocity().Y
	})
}

func playNativeClip(anim *component.Animation, name string) {
	if anim == nil {
		return
	}
	for _, clip := range nativeClips {
		if clip == name {
			continue
		}
		if t, ok := anim.Tracks[clip]; ok && t.Playing {
			t.Playing = false
			t.Target = 0
		}
	}
	if name == "" {
		return
	}
	if t, ok := anim.Track(name); ok {
		t.Time = 0
		t.Playing = true
		t.Target = 1
	}
}
