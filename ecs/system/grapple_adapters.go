package system

import (
	"errors"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
)

var errLocomotionGone = errors.New("locomotion component missing")

// ActorID converts an entity handle to the grapple-side weak reference.
func ActorID(e ecs.Entity) grapple.ActorID { return grapple.ActorID(e) }

// ecsActor resolves an actor's parts from the world on every call, so a
// removed entity simply reports them missing.
type ecsActor struct {
	w       *ecs.World
	e       ecs.Entity
	physics *PhysicsSystem
}

func (a *ecsActor) Body() (grapple.Body, bool) {
	if !ecs.IsAlive(a.w, a.e) {
		return nil, false
	}
	b, ok := a.physics.Body(a.e)
	if !ok {
		return nil, false
	}
	return b, true
}

func (a *ecsActor) Controller() (grapple.LocomotionController, bool) {
	if !ecs.Has(a.w, a.e, component.LocomotionComponent.Kind()) {
		return nil, false
	}
	return &locomotionController{w: a.w, e: a.e}, true
}

func (a *ecsActor) Pose() grapple.Pose {
	p, ok := ecs.Get(a.w, a.e, component.PoseComponent.Kind())
	if !ok {
		return nil
	}
	return posePose{p}
}

type posePose struct {
	p *component.Pose
}

func (p posePose) SetOffset(lean, pitch float64) {
	p.p.Lean, p.p.Pitch = lean, pitch
}

// locomotionController exposes the native controller's switches.
type locomotionController struct {
	w *ecs.World
	e ecs.Entity
}

func (c *locomotionController) loco() (*component.Locomotion, error) {
	l, ok := ecs.Get(c.w, c.e, component.LocomotionComponent.Kind())
	if !ok {
		return nil, errLocomotionGone
	}
	return l, nil
}

func (c *locomotionController) StateEnabled(flag grapple.LocomotionFlag) (bool, error) {
	l, err := c.loco()
	if err != nil {
		return false, err
	}
	return l.FlagEnabled(flag), nil
}

func (c *locomotionController) SetStateEnabled(flag grapple.LocomotionFlag, enabled bool) error {
	l, err := c.loco()
	if err != nil {
		return err
	}
	l.SetFlag(flag, enabled)
	return nil
}

func (c *locomotionController) ChangeMode(mode grapple.LocomotionMode) {
	if l, err := c.loco(); err == nil {
		l.Mode = mode
	}
}

func (c *locomotionController) Health() float64 {
	h, ok := ecs.Get(c.w, c.e, component.HealthComponent.Kind())
	if !ok {
		// actors without health cannot die
		return 1
	}
	return h.Current
}

func (c *locomotionController) Falling() bool {
	l, err := c.loco()
	return err == nil && l.Falling
}

// ecsViewer aims from the actor's eye along its input aim, with the camera
// basis for lateral input.
type ecsViewer struct {
	w *ecs.World
	e ecs.Entity
}

func (v *ecsViewer) AimOrigin() common.Vec3 {
	t, ok := ecs.Get(v.w, v.e, component.TransformComponent.Kind())
	if !ok {
		return common.Zero3
	}
	origin := t.Vec()
	if a, ok := ecs.Get(v.w, v.e, component.ActorComponent.Kind()); ok {
		origin.Y += a.EyeHeight
	}
	return origin
}

func (v *ecsViewer) AimDirection() common.Vec3 {
	in, ok := ecs.Get(v.w, v.e, component.InputComponent.Kind())
	if !ok {
		return common.Zero3
	}
	return in.Aim
}

func (v *ecsViewer) camera() *component.Camera {
	if e, ok := ecs.First(v.w, component.CameraComponent.Kind()); ok {
		if c, ok := ecs.Get(v.w, e, component.CameraComponent.Kind()); ok {
			return c
		}
	}
	return nil
}

func (v *ecsViewer) Look() common.Vec3 {
	if c := v.camera(); c != nil && !c.Look.IsZero() {
		return c.Look
	}
	return common.V3(0, 0, 1)
}

func (v *ecsViewer) Right() common.Vec3 {
	if c := v.camera(); c != nil && !c.Right.IsZero() {
		return c.Right
	}
	return common.V3(1, 0, 0)
}

type ecsInput struct {
	w *ecs.World
	e ecs.Entity
}

func (i *ecsInput) Move() grapple.MoveInput {
	in, ok := ecs.Get(i.w, i.e, component.InputComponent.Kind())
	if !ok {
		return grapple.MoveInput{}
	}
	return grapple.MoveInput{Forward: in.Forward, Back: in.Back, Left: in.Left, Right: in.Right}
}

// actorSet lists every live actor; grapple rays ignore them.
type actorSet struct {
	w *ecs.World
}

func (s *actorSet) Actors() []grapple.ActorID {
	ents := ecs.Query(s.w, component.ActorComponent.Kind().ID())
	out := make([]grapple.ActorID, 0, len(ents))
	for _, e := range ents {
		out = append(out, ActorID(e))
	}
	return out
}

func (s *actorSet) IsActor(id grapple.ActorID) bool {
	return ecs.Has(s.w, ecs.Entity(id), component.ActorComponent.Kind())
}

type ecsAnimator struct {
	w *ecs.World
	e ecs.Entity
}

func (a *ecsAnimator) Track(name string) (grapple.Track, bool) {
	anim, ok := ecs.Get(a.w, a.e, component.AnimationComponent.Kind())
	if !ok {
		return nil, false
	}
	tr, ok := anim.Track(name)
	if !ok {
		return nil, false
	}
	return &animTrack{track: tr, def: anim.Defs[name]}, true
}
