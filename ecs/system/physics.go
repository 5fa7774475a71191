package system

import (
	"errors"
	"log/slog"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/logger"
)

const (
	collisionTypeActor cp.CollisionType = iota + 1
	collisionTypeSolid
)

// ErrBodyRemoved is returned when attaching to a body that left the space.
var ErrBodyRemoved = errors.New("physics: body removed")

type PhysicsSystem struct {
	space *cp.Space
	dt    float64

	entities map[ecs.Entity]*bodyInfo
	shapes   map[*cp.Shape]ecs.Entity
	world    *ecs.World

	log *slog.Logger
}

type bodyInfo struct {
	entity ecs.Entity
	body   *cp.Body
	shape  *cp.Shape
	static bool

	// static bodies share the space's static body, so their box is kept here
	center cp.Vector
	halfW  float64
	halfH  float64
	depth  float64

	z  float64
	vz float64

	forces  []*forceActuator
	drive   *velocityDrive
	removed bool
}

func NewPhysicsSystem(lg *slog.Logger) *PhysicsSystem {
	if lg == nil {
		lg = logger.L()
	}
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: -common.Gravity})
	return &PhysicsSystem{
		space:    space,
		dt:       1.0 / common.TickRate,
		entities: make(map[ecs.Entity]*bodyInfo),
		shapes:   make(map[*cp.Shape]ecs.Entity),
		log:      lg.With("system", "physics"),
	}
}

func (ps *PhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

// SetGravity overrides the downward acceleration.
func (ps *PhysicsSystem) SetGravity(g float64) {
	ps.space.SetGravity(cp.Vector{X: 0, Y: -g})
}

func (ps *PhysicsSystem) Stage() ecs.Stage { return ecs.StagePhysics }

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.world = w
	ps.Sync(w)

	ps.space.Step(ps.dt)
	ps.stepDepth()

	ps.syncTransforms(w)
}

// Sync creates bodies for new physics entities and drops bodies whose
// entity is gone.
func (ps *PhysicsSystem) Sync(w *ecs.World) {
	ps.world = w
	ps.cleanupEntities(w)

	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, pb *component.PhysicsBody, t *component.Transform) {
		if _, ok := ps.entities[e]; ok {
			return
		}
		info := ps.createBodyInfo(e, *t, pb)
		ps.entities[e] = info
		ps.shapes[info.shape] = e
		if !info.static {
			pb.Body = info.body
		}
		pb.Shape = info.shape
	})
}

func (ps *PhysicsSystem) createBodyInfo(e ecs.Entity, t component.Transform, pb *component.PhysicsBody) *bodyInfo {
	width := pb.Width
	height := pb.Height
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	info := &bodyInfo{
		entity: e,
		static: pb.Static,
		center: cp.Vector{X: t.X, Y: t.Y},
		halfW:  width / 2,
		halfH:  height / 2,
		depth:  pb.Depth,
		z:      t.Z,
		vz:     pb.VZ,
	}

	if pb.Static {
		bb := cp.BB{L: t.X - width/2, B: t.Y - height/2, R: t.X + width/2, T: t.Y + height/2}
		shape := cp.NewBox2(ps.space.StaticBody, bb, 0)
		shape.SetFriction(pb.Friction)
		shape.SetElasticity(pb.Elasticity)
		shape.SetCollisionType(collisionTypeSolid)
		ps.space.AddShape(shape)

		info.body = ps.space.StaticBody
		info.shape = shape
		return info
	}

	mass := pb.Mass
	if mass <= 0 {
		mass = 1
	}
	// actors never tip over
	body := cp.NewBody(mass, math.Inf(1))
	body.SetPosition(cp.Vector{X: t.X, Y: t.Y})
	body.SetAngle(0)
	body.SetVelocityUpdateFunc(func(b *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		ps.updateVelocity(info, b, gravity, damping, dt)
	})

	shape := cp.NewBox(body, width, height, 0)
	shape.SetFriction(pb.Friction)
	shape.SetElasticity(pb.Elasticity)
	shape.SetCollisionType(collisionTypeActor)

	ps.space.AddBody(body)
	ps.space.AddShape(shape)

	info.body = body
	info.shape = shape
	return info
}

// updateVelocity integrates gravity plus attached forces, then lets an active
// velocity drive pull the body toward its target within its force budget.
func (ps *PhysicsSystem) updateVelocity(info *bodyInfo, b *cp.Body, gravity cp.Vector, damping, dt float64) {
	g := gravity
	if m := b.Mass(); m > 0 {
		for _, f := range info.forces {
			g.X += f.force.X / m
			g.Y += f.force.Y / m
		}
	}
	cp.BodyUpdateVelocity(b, g, damping, dt)

	d := info.drive
	if d == nil || !d.engaged || d.maxForce <= 0 {
		return
	}
	v := b.Velocity()
	maxDV := d.maxForce / b.Mass() * dt
	dv := common.ClampMagnitude(common.V3(d.target.X-v.X, d.target.Y-v.Y, 0), maxDV)
	b.SetVelocity(v.X+dv.X, v.Y+dv.Y)
}

// stepDepth integrates the Z lane that chipmunk does not simulate.
func (ps *PhysicsSystem) stepDepth() {
	for _, info := range ps.entities {
		if info.static || info.removed {
			continue
		}
		if m := info.body.Mass(); m > 0 {
			for _, f := range info.forces {
				info.vz += f.force.Z / m * ps.dt
			}
		}
		if d := info.drive; d != nil && d.engaged && d.maxForce > 0 {
			maxDV := d.maxForce / info.body.Mass() * ps.dt
			info.vz += common.Clamp(d.target.Z-info.vz, -maxDV, maxDV)
		}
		info.z += info.vz * ps.dt
	}
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	for e, info := range ps.entities {
		if info.static || info.removed {
			continue
		}
		t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		pos := info.body.Position()
		t.X, t.Y, t.Z = pos.X, pos.Y, info.z
		if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok {
			pb.VZ = info.vz
		}
	}
}

func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	for e, info := range ps.entities {
		if ecs.IsAlive(w, e) && ecs.Has(w, e, component.PhysicsBodyComponent.Kind()) {
			continue
		}
		ps.removeInfo(info)
		delete(ps.entities, e)
	}
}

func (ps *PhysicsSystem) removeInfo(info *bodyInfo) {
	if info.removed {
		return
	}
	info.removed = true
	if info.shape != nil {
		ps.space.RemoveShape(info.shape)
		delete(ps.shapes, info.shape)
	}
	if !info.static && info.body != nil {
		ps.space.RemoveBody(info.body)
	}
	info.forces = nil
	info.drive = nil
	ps.log.Debug("body removed", "entity", info.entity)
}

// Body returns the grapple-facing handle for e's dynamic body.
func (ps *PhysicsSystem) Body(e ecs.Entity) (*BodyHandle, bool) {
	info, ok := ps.entities[e]
	if !ok || info.static || info.removed {
		return nil, false
	}
	return &BodyHandle{ps: ps, info: info}, true
}

// BodyHandle adapts a chipmunk body plus its depth lane to grapple.Body.
type BodyHandle struct {
	ps   *PhysicsSystem
	info *bodyInfo
}

func (h *BodyHandle) Position() common.Vec3 {
	p := h.info.body.Position()
	return common.V3(p.X, p.Y, h.info.z)
}

func (h *BodyHandle) Velocity() common.Vec3 {
	v := h.info.body.Velocity()
	return common.V3(v.X, v.Y, h.info.vz)
}

func (h *BodyHandle) SetVelocity(v common.Vec3) {
	if h.info.removed {
		return
	}
	h.info.body.SetVelocity(v.X, v.Y)
	h.info.vz = v.Z
}

func (h *BodyHandle) Mass() float64 {
	return h.info.body.Mass()
}

func (h *BodyHandle) Facing() common.Vec3 {
	if h.ps.world != nil {
		if a, ok := ecs.Get(h.ps.world, h.info.entity, component.ActorComponent.Kind()); ok && !a.Facing.IsZero() {
			return a.Facing
		}
	}
	return common.V3(1, 0, 0)
}

func (h *BodyHandle) AttachAnchor() (grapple.Anchor, error) {
	if h.info.removed {
		return nil, ErrBodyRemoved
	}
	return &bodyAnchor{info: h.info}, nil
}

// bodyAnchor is the attachment point actuators hang off. Chipmunk bodies
// accept forces anywhere, so it only tracks liveness.
type bodyAnchor struct {
	info     *bodyInfo
	detached bool
}

func (a *bodyAnchor) NewVelocityActuator(maxForce float64) grapple.VelocityActuator {
	d := &velocityDrive{info: a.info, maxForce: maxForce}
	if !a.info.removed {
		a.info.drive = d
	}
	return d
}

func (a *bodyAnchor) NewForceActuator(force common.Vec3) grapple.Actuator {
	f := &forceActuator{info: a.info, force: force}
	if !a.info.removed {
		a.info.forces = append(a.info.forces, f)
	}
	return f
}

func (a *bodyAnchor) Destroy() {
	a.detached = true
}

// velocityDrive steers the body toward a target velocity with bounded force.
// It stays disengaged until the first SetVelocity.
type velocityDrive struct {
	info     *bodyInfo
	target   common.Vec3
	maxForce float64
	engaged  bool
}

func (d *velocityDrive) SetVelocity(v common.Vec3) {
	d.target = v
	d.engaged = true
}

func (d *velocityDrive) SetMaxForce(f float64) {
	d.maxForce = f
}

func (d *velocityDrive) Destroy() {
	if d.info.drive == d {
		d.info.drive = nil
	}
}

type forceActuator struct {
	info  *bodyInfo
	force common.Vec3
}

func (f *forceActuator) Destroy() {
	forces := f.info.forces[:0]
	for _, other := range f.info.forces {
		if other != f {
			forces = append(forces, other)
		}
	}
	f.info.forces = forces
}

// Teleport moves e's body to p and zeroes its velocity.
func (ps *PhysicsSystem) Teleport(e ecs.Entity, p common.Vec3) bool {
	info, ok := ps.entities[e]
	if !ok || info.static || info.removed {
		return false
	}
	info.body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
	info.body.SetVelocityVector(cp.Vector{})
	info.z = p.Z
	info.vz = 0
	return true
}
