package grapple

import (
	"errors"
	"math"
	"testing"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/logger"
)

const frame = 1.0 / 60.0

type rig struct {
	c      *Controller
	actor  *fakeActor
	body   *fakeBody
	ctl    *fakeController
	pose   *fakePose
	ray    *fakeRaycaster
	anim   *fakeAnimator
	viewer *fakeViewer
	input  *fakeInput
	actors *fakeActorSet
	locks  *LockGuard
	acts   *Actuators
}

func newRig(t *testing.T, mutate func(*Config)) *rig {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	r := &rig{
		body:   newFakeBody(common.Zero3),
		ctl:    newFakeController(),
		pose:   &fakePose{},
		ray:    &fakeRaycaster{hit: RayHit{Point: common.V3(0, 0, 100)}, ok: true},
		anim:   newFakeAnimator("grapple_start", "grapple_loop", "grapple_arrive", "fall"),
		viewer: &fakeViewer{dir: common.V3(0, 0, 1), look: common.V3(0, 0, 1), right: common.V3(1, 0, 0)},
		input:  &fakeInput{},
		actors: &fakeActorSet{ids: []ActorID{1, 2}},
		locks:  NewLockGuard(logger.Discard()),
		acts:   NewActuators(logger.Discard()),
	}
	r.actor = &fakeActor{body: r.body, ctl: r.ctl, pose: r.pose}
	c, err := NewController(1, cfg, Deps{
		Actor:     r.actor,
		Viewer:    r.viewer,
		Input:     r.input,
		Raycaster: r.ray,
		Actors:    r.actors,
		Animator:  r.anim,
		Locks:     r.locks,
		Actuators: r.acts,
		Logger:    logger.Discard(),
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	r.c = c
	return r
}

func (r *rig) velocityActuator() *fakeActuator {
	if a := r.body.lastAnchor(); a != nil {
		return a.velocity
	}
	return nil
}

func TestBeginSuccess(t *testing.T) {
	r := newRig(t, nil)
	var snaps []Snapshot
	r.c.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !r.c.Active() {
		t.Fatal("controller should be active")
	}
	if target, ok := r.c.Target(); !ok || target != common.V3(0, 0, 100) {
		t.Fatalf("Target() = %v, %v", target, ok)
	}
	s, _ := r.c.Session()
	if s.Speed != r.c.Config().MinReelSpeed {
		t.Fatalf("initial speed = %v, want min reel speed", s.Speed)
	}
	if !r.acts.Live(1) || r.locks.RefCount(1) != 1 {
		t.Fatal("actuators and lock should be held")
	}
	if r.ctl.flags[FlagRagdoll] || r.ctl.flags[FlagFallingDown] || r.ctl.flags[FlagGettingUp] {
		t.Fatal("interrupt flags should be suspended")
	}
	if len(r.ctl.modes) != 1 || r.ctl.modes[0] != ModeExternalPhysics {
		t.Fatalf("modes = %v, want external physics", r.ctl.modes)
	}
	if r.c.AnimState() != AnimStarting || !r.anim.tracks["grapple_start"].playing {
		t.Fatalf("anim state = %v", r.c.AnimState())
	}
	if len(snaps) != 1 || !snaps[0].Active || !snaps[0].HasTarget {
		t.Fatalf("subscriber snapshots = %+v", snaps)
	}
	if r.ray.maxDist != r.c.Config().MaxDistance || len(r.ray.excluded) != 2 {
		t.Fatalf("raycast should exclude live actors, got %v within %v", r.ray.excluded, r.ray.maxDist)
	}
}

func TestBeginRejections(t *testing.T) {
	cases := []struct {
		name  string
		setup func(r *rig)
		want  error
	}{
		{"no_target", func(r *rig) { r.ray.ok = false }, ErrNoTarget},
		{"hit_actor", func(r *rig) { r.ray.hit.HasOwner, r.ray.hit.Owner = true, 2 }, ErrNoTarget},
		{"dead", func(r *rig) { r.ctl.health = 0 }, ErrDead},
		{"no_body", func(r *rig) { r.actor.body = nil }, ErrNoActor},
		{"no_controller", func(r *rig) { r.actor.ctl = nil }, ErrNoActor},
		{"zero_aim", func(r *rig) { r.viewer.dir = common.Zero3 }, ErrNoTarget},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := newRig(t, nil)
			c.setup(r)
			err := r.c.Begin()
			if !errors.Is(err, c.want) {
				t.Fatalf("Begin() = %v, want %v", err, c.want)
			}
			if r.c.Active() || r.acts.Live(1) || r.locks.RefCount(1) != 0 {
				t.Fatal("rejected Begin mutated state")
			}
			if len(r.body.anchors) != 0 || len(r.ctl.modes) != 0 {
				t.Fatal("rejected Begin touched the actor")
			}
			if r.c.AnimState() != AnimIdle {
				t.Fatal("rejected Begin started animation")
			}
		})
	}
}

func TestBeginWhileActive(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := r.c.Begin(); !errors.Is(err, ErrActive) {
		t.Fatalf("second Begin = %v, want ErrActive", err)
	}
	if r.locks.RefCount(1) != 1 || len(r.body.anchors) != 1 {
		t.Fatal("second Begin acquired resources")
	}
}

func TestBeginCooldown(t *testing.T) {
	r := newRig(t, func(c *Config) { c.Cooldown = 0.5 })
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.c.End(false)

	r.c.Tick(0.4)
	if err := r.c.Begin(); !errors.Is(err, ErrCooldown) {
		t.Fatalf("Begin inside cooldown = %v, want ErrCooldown", err)
	}
	r.c.Tick(0.1)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin after cooldown: %v", err)
	}
}

func TestReelSpeedRamp(t *testing.T) {
	r := newRig(t, func(c *Config) { c.Cooldown = 0.1 })
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	cfg := r.c.Config()

	prev := cfg.MinReelSpeed
	for i := 0; i < 200; i++ {
		r.c.Tick(frame)
		s, ok := r.c.Session()
		if !ok {
			t.Fatal("session ended unexpectedly")
		}
		if s.Speed < prev {
			t.Fatalf("speed decreased: %v -> %v", prev, s.Speed)
		}
		if s.Speed > cfg.MaxReelSpeed {
			t.Fatalf("speed %v exceeds max %v", s.Speed, cfg.MaxReelSpeed)
		}
		prev = s.Speed
	}
	if prev != cfg.MaxReelSpeed {
		t.Fatalf("speed should saturate at max, got %v", prev)
	}

	r.c.End(false)
	r.c.Tick(0.2)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s, _ := r.c.Session(); s.Speed != cfg.MinReelSpeed {
		t.Fatalf("speed should reset to min, got %v", s.Speed)
	}
}

func TestReelSpeedFrameRateIndependent(t *testing.T) {
	speedAfter := func(dt float64, steps int) float64 {
		r := newRig(t, func(c *Config) { c.MaxReelSpeed = 1e6 })
		if err := r.c.Begin(); err != nil {
			t.Fatalf("Begin: %v", err)
		}
		for i := 0; i < steps; i++ {
			r.c.Tick(dt)
		}
		s, _ := r.c.Session()
		return s.Speed
	}
	at60 := speedAfter(1.0/60.0, 60)
	at120 := speedAfter(1.0/120.0, 120)
	if !common.ApproxEqual(at60, at120, 1e-6) {
		t.Fatalf("speed after 1s differs by frame rate: %v vs %v", at60, at120)
	}
}

func TestArrivalDetection(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.body.pos = common.V3(0, 0, 93.99)
	r.c.Tick(frame)
	if !r.c.Active() {
		t.Fatal("session ended before reaching arrival distance")
	}

	r.body.pos = common.V3(0, 0, 94)
	r.c.Tick(frame)
	if r.c.Active() {
		t.Fatal("session should end at arrival distance")
	}
	if r.c.AnimState() != AnimArriving {
		t.Fatalf("anim state = %v, want arriving", r.c.AnimState())
	}
}

func TestFlightVelocityAndLean(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	cfg := r.c.Config()
	r.input.move = MoveInput{Right: true}

	r.c.Tick(frame)
	s, _ := r.c.Session()
	want := common.V3(cfg.StrafeSpeed, 0, s.Speed)
	if got := r.velocityActuator().velocity; common.Distance(got, want) > 1e-9 {
		t.Fatalf("actuator velocity = %v, want %v", got, want)
	}
	if r.pose.lean >= 0 {
		t.Fatalf("strafing right should lean negative, got %v", r.pose.lean)
	}

	// a large step saturates the filter
	r.c.Tick(1)
	if !common.ApproxEqual(r.pose.lean, -cfg.MaxLeanAngle, 1e-9) {
		t.Fatalf("lean = %v, want %v", r.pose.lean, -cfg.MaxLeanAngle)
	}
}

func TestFlightInputDeadzone(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.input.move = MoveInput{Left: true, Right: true}
	r.c.Tick(frame)
	s, _ := r.c.Session()
	if got := r.velocityActuator().velocity; common.Distance(got, common.V3(0, 0, s.Speed)) > 1e-9 {
		t.Fatalf("opposing keys should cancel, velocity = %v", got)
	}
}

func TestFlightPitchFollowsTarget(t *testing.T) {
	r := newRig(t, nil)
	r.ray.hit.Point = common.V3(0, 100, 100)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.c.Tick(0.5)
	want := math.Asin(math.Sqrt2 / 2)
	if !common.ApproxEqual(r.pose.pitch, want, 1e-9) {
		t.Fatalf("pitch = %v, want %v", r.pose.pitch, want)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	r := newRig(t, nil)
	notified := 0
	r.c.Subscribe(func(Snapshot) { notified++ })
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	anchor := r.body.lastAnchor()

	r.c.End(false)
	r.c.End(false)
	r.c.End(true)
	r.c.Tick(frame)
	r.c.Tick(frame)

	if anchor.destroyed != 1 || anchor.counter.destroyed != 1 || anchor.velocity.destroyed != 1 {
		t.Fatalf("duplicate teardown: anchor=%d counter=%d velocity=%d",
			anchor.destroyed, anchor.counter.destroyed, anchor.velocity.destroyed)
	}
	if len(r.ctl.modes) != 2 || r.ctl.modes[1] != ModeFreefall {
		t.Fatalf("modes = %v", r.ctl.modes)
	}
	if notified != 2 {
		t.Fatalf("notifications = %d, want begin + end", notified)
	}
	if !r.ctl.flags[FlagRagdoll] || r.locks.RefCount(1) != 0 {
		t.Fatal("lock not released")
	}
	if r.pose.lean != 0 || r.pose.pitch != 0 {
		t.Fatal("orientation offset not reset")
	}
}

func TestMomentumAppliedNextTick(t *testing.T) {
	cases := []struct {
		name    string
		arrived bool
		want    func(cfg Config) common.Vec3
	}{
		{"arrived", true, func(cfg Config) common.Vec3 {
			return common.V3(0, cfg.LaunchUpwardForce, cfg.MinReelSpeed*cfg.ForwardMultiplier)
		}},
		{"released", false, func(cfg Config) common.Vec3 {
			return common.V3(0, 0, cfg.MinReelSpeed*cfg.ReleaseMultiplier)
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := newRig(t, nil)
			if err := r.c.Begin(); err != nil {
				t.Fatalf("Begin: %v", err)
			}
			anchor := r.body.lastAnchor()
			r.c.End(c.arrived)
			r.c.Tick(frame)
			if len(r.body.velWrites) != 0 {
				t.Fatalf("momentum written in the ending tick: %v", r.body.velWrites)
			}
			if v := anchor.velocity; v.destroyed != 0 || v.maxForce != 0 {
				t.Fatalf("velocity actuator should outlive the ending tick zeroed, got %+v", v)
			}
			r.c.Tick(frame)
			if anchor.velocity.destroyed != 1 {
				t.Fatal("velocity actuator should be destroyed on the following tick")
			}
			want := c.want(r.c.Config())
			if common.Distance(r.body.vel, want) > 1e-9 {
				t.Fatalf("velocity = %v, want %v", r.body.vel, want)
			}
		})
	}
}

func TestEndWithoutBodySkipsMomentum(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.actor.body = nil
	r.c.Tick(frame)
	if r.c.Active() {
		t.Fatal("losing the body should end the session")
	}
	if r.c.AnimState() != AnimIdle {
		t.Fatalf("body loss is an early release, anim = %v", r.c.AnimState())
	}
	if r.locks.RefCount(1) != 0 {
		t.Fatal("lock not released")
	}
	r.c.Tick(frame)
	if len(r.body.velWrites) != 0 {
		t.Fatal("momentum written to a missing body")
	}
}

func TestEndWhenControllerLost(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.actor.ctl = nil
	r.c.Tick(frame)
	if r.c.Active() {
		t.Fatal("losing the controller should end the session")
	}
}

func TestHandleRemovalForceReleases(t *testing.T) {
	r := newRig(t, nil)
	outer := r.locks.Acquire(1, r.ctl)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.c.HandleRemoval()
	r.c.HandleRemoval()

	if r.c.Active() || r.acts.Live(1) {
		t.Fatal("removal should end the session and drop actuators")
	}
	if r.locks.RefCount(1) != 0 || !r.ctl.flags[FlagRagdoll] {
		t.Fatal("removal should force-release the lock despite an outer holder")
	}
	outer.Release()
	if r.locks.RefCount(1) != 0 {
		t.Fatal("stale outer token resurrected the record")
	}
}

func TestHandleDeath(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	r.ctl.health = 0
	r.c.HandleDeath()
	if r.c.Active() {
		t.Fatal("death should end the session")
	}
	if err := r.c.Begin(); !errors.Is(err, ErrCooldown) && !errors.Is(err, ErrDead) {
		t.Fatalf("Begin after death = %v", err)
	}
}

func TestSetConfigRejectedWhileActive(t *testing.T) {
	r := newRig(t, nil)
	if err := r.c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxReelSpeed = 999
	if err := r.c.SetConfig(cfg); !errors.Is(err, ErrActive) {
		t.Fatalf("SetConfig while active = %v", err)
	}
	r.c.End(false)
	if err := r.c.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if r.c.Config().MaxReelSpeed != 999 {
		t.Fatal("config not applied")
	}
}

func TestNewControllerRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinReelSpeed = 500
	cfg.MaxReelSpeed = 100
	if _, err := NewController(1, cfg, Deps{Actor: &fakeActor{}, Logger: logger.Discard()}); err == nil {
		t.Fatal("expected invalid config error")
	}
}
