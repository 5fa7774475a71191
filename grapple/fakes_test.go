package grapple

import (
	"errors"

	"github.com/milk9111/grapplehook/common"
)

type fakeController struct {
	flags     map[LocomotionFlag]bool
	readErr   map[LocomotionFlag]bool
	writeErr  map[LocomotionFlag]bool
	panicRead bool
	modes     []LocomotionMode
	health    float64
	falling   bool
}

func newFakeController() *fakeController {
	return &fakeController{
		flags: map[LocomotionFlag]bool{
			FlagFallingDown: true,
			FlagRagdoll:     true,
			FlagGettingUp:   true,
		},
		readErr:  map[LocomotionFlag]bool{},
		writeErr: map[LocomotionFlag]bool{},
		health:   100,
	}
}

func (c *fakeController) StateEnabled(f LocomotionFlag) (bool, error) {
	if c.panicRead {
		panic("controller gone")
	}
	if c.readErr[f] {
		return false, errors.New("read failed")
	}
	return c.flags[f], nil
}

func (c *fakeController) SetStateEnabled(f LocomotionFlag, enabled bool) error {
	if c.writeErr[f] {
		return errors.New("write failed")
	}
	c.flags[f] = enabled
	return nil
}

func (c *fakeController) ChangeMode(m LocomotionMode) { c.modes = append(c.modes, m) }
func (c *fakeController) Health() float64            { return c.health }
func (c *fakeController) Falling() bool              { return c.falling }

type fakeActuator struct {
	velocity  common.Vec3
	maxForce  float64
	force     common.Vec3
	destroyed int
	sets      int
}

func (a *fakeActuator) SetVelocity(v common.Vec3) { a.velocity = v; a.sets++ }
func (a *fakeActuator) SetMaxForce(f float64)     { a.maxForce = f }
func (a *fakeActuator) Destroy()                  { a.destroyed++ }

type fakeAnchor struct {
	velocity  *fakeActuator
	counter   *fakeActuator
	destroyed int
}

func (a *fakeAnchor) NewVelocityActuator(maxForce float64) VelocityActuator {
	a.velocity = &fakeActuator{maxForce: maxForce}
	return a.velocity
}

func (a *fakeAnchor) NewForceActuator(force common.Vec3) Actuator {
	a.counter = &fakeActuator{force: force}
	return a.counter
}

func (a *fakeAnchor) Destroy() { a.destroyed++ }

type fakeBody struct {
	pos       common.Vec3
	vel       common.Vec3
	mass      float64
	facing    common.Vec3
	anchors   []*fakeAnchor
	attachErr error
	velWrites []common.Vec3
}

func newFakeBody(pos common.Vec3) *fakeBody {
	return &fakeBody{pos: pos, mass: 2, facing: common.V3(0, 0, 1)}
}

func (b *fakeBody) Position() common.Vec3 { return b.pos }
func (b *fakeBody) Velocity() common.Vec3 { return b.vel }
func (b *fakeBody) SetVelocity(v common.Vec3) {
	b.vel = v
	b.velWrites = append(b.velWrites, v)
}
func (b *fakeBody) Mass() float64         { return b.mass }
func (b *fakeBody) Facing() common.Vec3   { return b.facing }
func (b *fakeBody) AttachAnchor() (Anchor, error) {
	if b.attachErr != nil {
		return nil, b.attachErr
	}
	a := &fakeAnchor{}
	b.anchors = append(b.anchors, a)
	return a, nil
}

func (b *fakeBody) lastAnchor() *fakeAnchor {
	if len(b.anchors) == 0 {
		return nil
	}
	return b.anchors[len(b.anchors)-1]
}

type fakePose struct {
	lean, pitch float64
	calls       int
}

func (p *fakePose) SetOffset(lean, pitch float64) {
	p.lean, p.pitch = lean, pitch
	p.calls++
}

type fakeActor struct {
	body *fakeBody
	ctl  *fakeController
	pose *fakePose
}

func (a *fakeActor) Body() (Body, bool) {
	if a.body == nil {
		return nil, false
	}
	return a.body, true
}

func (a *fakeActor) Controller() (LocomotionController, bool) {
	if a.ctl == nil {
		return nil, false
	}
	return a.ctl, true
}

func (a *fakeActor) Pose() Pose {
	if a.pose == nil {
		return nil
	}
	return a.pose
}

type fakeViewer struct {
	origin, dir, look, right common.Vec3
}

func (v *fakeViewer) AimOrigin() common.Vec3    { return v.origin }
func (v *fakeViewer) AimDirection() common.Vec3 { return v.dir }
func (v *fakeViewer) Look() common.Vec3         { return v.look }
func (v *fakeViewer) Right() common.Vec3        { return v.right }

type fakeInput struct {
	move MoveInput
}

func (i *fakeInput) Move() MoveInput { return i.move }

type fakeRaycaster struct {
	hit      RayHit
	ok       bool
	calls    int
	excluded []ActorID
	maxDist  float64
}

func (r *fakeRaycaster) Raycast(origin, dir common.Vec3, maxDist float64, exclude []ActorID) (RayHit, bool) {
	r.calls++
	r.excluded = exclude
	r.maxDist = maxDist
	return r.hit, r.ok
}

type fakeActorSet struct {
	ids []ActorID
}

func (s *fakeActorSet) Actors() []ActorID { return s.ids }
func (s *fakeActorSet) IsActor(id ActorID) bool {
	for _, a := range s.ids {
		if a == id {
			return true
		}
	}
	return false
}

type fakeTrack struct {
	length  float64
	playing bool
	looped  bool
	plays   int
	stops   int
	fade    float64
}

func (t *fakeTrack) Play(fade float64) { t.playing = true; t.plays++; t.fade = fade }
func (t *fakeTrack) Stop(fade float64) { t.playing = false; t.stops++; t.fade = fade }
func (t *fakeTrack) SetLooped(l bool)  { t.looped = l }
func (t *fakeTrack) Length() float64   { return t.length }
func (t *fakeTrack) Playing() bool     { return t.playing }

type fakeAnimator struct {
	tracks map[string]*fakeTrack
}

func newFakeAnimator(names ...string) *fakeAnimator {
	a := &fakeAnimator{tracks: map[string]*fakeTrack{}}
	for _, n := range names {
		a.tracks[n] = &fakeTrack{length: 0.5}
	}
	return a
}

func (a *fakeAnimator) Track(name string) (Track, bool) {
	t, ok := a.tracks[name]
	if !ok {
		return nil, false
	}
	return t, true
}
