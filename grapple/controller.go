// Package grapple implements a locomotion override that reels an actor toward
// a targeted point and hands control back with a momentum launch.
package grapple

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/logger"
)

// Session is the live state of one grapple attempt.
type Session struct {
	ID         uuid.UUID
	Generation uint64
	Active     bool
	Target     common.Vec3
	// Speed is the reel speed; it never decreases while the session is active.
	Speed     float64
	StartTime float64

	lock      *LockToken
	actuators *ActuatorHandle
}

// Snapshot is the observable state handed to cosmetic consumers.
type Snapshot struct {
	Actor     ActorID
	SessionID uuid.UUID
	Active    bool
	Target    common.Vec3
	HasTarget bool
	Speed     float64
	Anim      AnimState
}

// Deps are the collaborators a Controller drives. Locks and Actuators are
// shared registries owned by whoever owns every controller.
type Deps struct {
	Actor     Actor
	Viewer    Viewer
	Input     InputSource
	Raycaster Raycaster
	Actors    ActorSet
	Animator  Animator
	Locks     *LockGuard
	Actuators *Actuators
	Logger    *slog.Logger
}

// Controller is the per-actor grapple state machine: Idle → Active → Idle.
type Controller struct {
	id  ActorID
	cfg Config

	actor     Actor
	viewer    Viewer
	input     InputSource
	raycaster Raycaster
	actors    ActorSet

	locks     *LockGuard
	actuators *Actuators
	tasks     *TaskQueue
	seq       *Sequencer
	fall      *FallMonitor
	filter    OrientationFilter

	session  *Session
	gen      uint64
	now      float64
	lastEnd  float64
	hasEnded bool

	subs    map[int]func(Snapshot)
	nextSub int

	log *slog.Logger
}

func NewController(id ActorID, cfg Config, deps Deps) (*Controller, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if deps.Actor == nil {
		return nil, fmt.Errorf("grapple: new controller: %w", ErrNoActor)
	}
	lg := deps.Logger
	if lg == nil {
		lg = logger.L()
	}
	lg = lg.With("actor", uint64(id))
	if deps.Locks == nil {
		deps.Locks = NewLockGuard(lg)
	}
	if deps.Actuators == nil {
		deps.Actuators = NewActuators(lg)
	}

	c := &Controller{
		id:        id,
		cfg:       cfg,
		actor:     deps.Actor,
		viewer:    deps.Viewer,
		input:     deps.Input,
		raycaster: deps.Raycaster,
		actors:    deps.Actors,
		locks:     deps.Locks,
		actuators: deps.Actuators,
		tasks:     NewTaskQueue(),
		subs:      make(map[int]func(Snapshot)),
		log:       lg,
	}
	c.seq = NewSequencer(deps.Animator, cfg, c.tasks, lg)
	c.seq.active = c.Active
	c.seq.generation = func() uint64 { return c.gen }
	c.seq.onHandoff = func() {
		// End notifies on its own; only the delayed arrival handoff needs it.
		if c.session == nil {
			c.notify()
		}
	}
	c.fall = NewFallMonitor(deps.Animator, cfg)
	return c, nil
}

// SetConfig swaps tuning. It is ignored while a session is active.
func (c *Controller) SetConfig(cfg Config) error {
	if c.Active() {
		return ErrActive
	}
	cfg, err := cfg.Validate()
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.seq.cfg = cfg
	c.fall.clip = cfg.Clips.Fall
	c.fall.threshold = cfg.FallVelocityThreshold
	c.fall.fade = cfg.StopFade
	return nil
}

func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) ID() ActorID { return c.id }

func (c *Controller) Active() bool {
	return c.session != nil && c.session.Active
}

// Target returns the current target point, if a session is active.
func (c *Controller) Target() (common.Vec3, bool) {
	if !c.Active() {
		return common.Zero3, false
	}
	return c.session.Target, true
}

// Session returns a copy of the active session.
func (c *Controller) Session() (Session, bool) {
	if !c.Active() {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Controller) AnimState() AnimState { return c.seq.State() }

// Now is the controller clock in seconds, advanced by Tick.
func (c *Controller) Now() float64 { return c.now }

func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{Actor: c.id, Anim: c.seq.State()}
	if c.Active() {
		snap.SessionID = c.session.ID
		snap.Active = true
		snap.Target = c.session.Target
		snap.HasTarget = true
		snap.Speed = c.session.Speed
	}
	return snap
}

// Subscribe registers fn for every observable change. The returned func
// removes it.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() { delete(c.subs, id) }
}

func (c *Controller) notify() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range c.subs {
		fn(snap)
	}
}

// Begin tries to start a session. A rejected Begin has no side effects.
func (c *Controller) Begin() error {
	if c.Active() {
		return ErrActive
	}
	if c.hasEnded && c.now-c.lastEnd < c.cfg.Cooldown {
		return ErrCooldown
	}
	body, ok := c.actor.Body()
	if !ok {
		return ErrNoActor
	}
	ctl, ok := c.actor.Controller()
	if !ok {
		return ErrNoActor
	}
	if ctl.Health() <= 0 {
		return ErrDead
	}
	target, ok := c.acquireTarget()
	if !ok {
		return ErrNoTarget
	}

	handle, err := c.actuators.Acquire(c.id, body, c.cfg.VelocityMaxForce, c.cfg.Gravity)
	if err != nil {
		return err
	}

	c.gen++
	s := &Session{
		ID:         uuid.New(),
		Generation: c.gen,
		Active:     true,
		Target:     target,
		Speed:      c.cfg.MinReelSpeed,
		StartTime:  c.now,
		actuators:  handle,
	}
	s.lock = c.locks.Acquire(c.id, ctl)
	c.session = s

	c.fall.Suppress()
	c.seq.Begin()
	ctl.ChangeMode(ModeExternalPhysics)

	c.log.Info("grapple begin", "session", s.ID.String(), "target", target, "distance", common.Distance(target, body.Position()))
	c.notify()
	return nil
}

func (c *Controller) acquireTarget() (common.Vec3, bool) {
	if c.viewer == nil || c.raycaster == nil {
		return common.Zero3, false
	}
	dir := c.viewer.AimDirection().Normalize()
	if dir.IsZero() {
		return common.Zero3, false
	}
	var exclude []ActorID
	if c.actors != nil {
		exclude = c.actors.Actors()
	}
	hit, ok := c.raycaster.Raycast(c.viewer.AimOrigin(), dir, c.cfg.MaxDistance, exclude)
	if !ok {
		return common.Zero3, false
	}
	if hit.HasOwner && c.actors != nil && c.actors.IsActor(hit.Owner) {
		return common.Zero3, false
	}
	return hit.Point, true
}

// End closes the active session. Calling it while idle is a no-op.
func (c *Controller) End(arrived bool) {
	s := c.session
	if s == nil || !s.Active {
		return
	}
	s.Active = false

	body, hasBody := c.actor.Body()
	var in MomentumInput
	if hasBody {
		in = MomentumInput{
			Arrived:   arrived,
			Speed:     s.Speed,
			Direction: directionTo(body.Position(), s.Target),
			Facing:    body.Facing(),
		}
	} else {
		body = nil
	}

	c.actuators.Teardown(s.actuators, body, c.tasks, c.cfg.SafetyVelocityCeiling)
	s.lock.Release()

	if hasBody {
		gen := s.Generation
		cfg := c.cfg
		c.tasks.Next(gen, func() {
			if b, ok := c.actor.Body(); ok {
				b.SetVelocity(ResolveMomentum(in, cfg))
			}
		})
	}

	if arrived {
		c.seq.Arrive()
	} else {
		c.seq.Release()
	}

	c.session = nil
	c.lastEnd = c.now
	c.hasEnded = true
	c.filter.Reset()
	if pose := c.actor.Pose(); pose != nil {
		pose.SetOffset(0, 0)
	}
	if ctl, ok := c.actor.Controller(); ok {
		ctl.ChangeMode(ModeFreefall)
	}

	c.log.Info("grapple end", "session", s.ID.String(), "arrived", arrived, "speed", s.Speed, "duration", c.now-s.StartTime)
	c.notify()
}

// Release is the key-up path: an early release.
func (c *Controller) Release() {
	c.End(false)
}

// HandleDeath ends any session when the actor dies.
func (c *Controller) HandleDeath() {
	c.End(false)
}

// HandleRemoval ends any session and force-releases the actor's lock and
// actuators when the actor leaves the world.
func (c *Controller) HandleRemoval() {
	c.End(false)
	c.locks.ForceRelease(c.id)
	c.actuators.Destroy(c.id)
}

// TrackFinished forwards the playback service's "finished" notification.
func (c *Controller) TrackFinished(name string) {
	c.seq.TrackFinished(name)
}

// Tick advances the controller by dt seconds: deferred work first, then the
// flight loop, then the fall monitor. Call it once per frame, after any
// Begin, Release or lifecycle handling for that frame; work those queue runs
// on the following Tick.
func (c *Controller) Tick(dt float64) {
	if dt < 0 {
		dt = 0
	}
	c.now += dt
	c.tasks.Run(c.now, c.gen)

	if c.Active() {
		c.step(dt)
	}

	suppressed := c.Active() || c.seq.State() != AnimIdle
	var vy float64
	var nativeFalling bool
	if body, ok := c.actor.Body(); ok {
		vy = body.Velocity().Y
	}
	if ctl, ok := c.actor.Controller(); ok {
		nativeFalling = ctl.Falling()
	}
	c.fall.Update(vy, nativeFalling, suppressed)
	c.tasks.EndTick()
}
