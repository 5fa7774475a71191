package system

import (
	"errors"
	"image/color"
	"log/slog"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/logger"
	"golang.org/x/image/colornames"
)

// GrappleSystem owns one grapple controller per grappler entity along with
// the lock and actuator registries they share.
type GrappleSystem struct {
	physics   *PhysicsSystem
	raycaster *Raycaster
	dt        float64

	cfg         grapple.Config
	locks       *grapple.LockGuard
	actuators   *grapple.Actuators
	controllers map[ecs.Entity]*grapple.Controller

	log *slog.Logger
}

func NewGrappleSystem(ps *PhysicsSystem, cfg grapple.Config, lg *slog.Logger) (*GrappleSystem, error) {
	if lg == nil {
		lg = logger.L()
	}
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	lg = lg.With("system", "grapple")
	return &GrappleSystem{
		physics:     ps,
		raycaster:   NewRaycaster(ps),
		dt:          1.0 / common.TickRate,
		cfg:         cfg,
		locks:       grapple.NewLockGuard(lg),
		actuators:   grapple.NewActuators(lg),
		controllers: make(map[ecs.Entity]*grapple.Controller),
		log:         lg,
	}, nil
}

// SetConfig replaces the tuning. Idle controllers pick it up on the next
// frame; active ones once their session ends.
func (gs *GrappleSystem) SetConfig(cfg grapple.Config) error {
	cfg, err := cfg.Validate()
	if err != nil {
		return err
	}
	gs.cfg = cfg
	return nil
}

func (gs *GrappleSystem) Config() grapple.Config { return gs.cfg }

// Controller returns the controller driving e, if any.
func (gs *GrappleSystem) Controller(e ecs.Entity) (*grapple.Controller, bool) {
	c, ok := gs.controllers[e]
	return c, ok
}

// Locks exposes the shared lock registry.
func (gs *GrappleSystem) Locks() *grapple.LockGuard { return gs.locks }

func (gs *GrappleSystem) Stage() ecs.Stage { return ecs.StageGrapple }

func (gs *GrappleSystem) Update(w *ecs.World) {
	if gs == nil || w == nil {
		return
	}

	events := w.Events()
	events.Each(ecs.EventEntityRemoved, func(evt ecs.Event) {
		c, ok := gs.controllers[evt.Entity]
		if !ok {
			// non-grappler actors can still hold locks
			gs.locks.ForceRelease(ActorID(evt.Entity))
			gs.actuators.Destroy(ActorID(evt.Entity))
			return
		}
		c.HandleRemoval()
		delete(gs.controllers, evt.Entity)
		gs.log.Debug("controller removed", "entity", evt.Entity)
	})
	events.Each(ecs.EventActorSpawned, func(evt ecs.Event) {
		gs.ensureController(w, evt.Entity)
	})
	events.Each(ecs.EventActorDied, func(evt ecs.Event) {
		if c, ok := gs.controllers[evt.Entity]; ok {
			c.HandleDeath()
		}
	})
	events.Each(ecs.EventTrackFinished, func(evt ecs.Event) {
		name, _ := evt.Data.(string)
		if c, ok := gs.controllers[evt.Entity]; ok && name != "" {
			c.TrackFinished(name)
		}
	})

	ecs.ForEach(w, component.GrapplerComponent.Kind(), func(e ecs.Entity, g *component.Grappler) {
		c, ok := gs.ensureController(w, e)
		if !ok {
			return
		}
		if !c.Active() && c.Config() != gs.cfg {
			if err := c.SetConfig(gs.cfg); err != nil {
				gs.log.Warn("config not applied", "entity", e, "err", err)
			}
		}

		if in, ok := ecs.Get(w, e, component.InputComponent.Kind()); ok {
			gs.handleInput(e, c, g, in)
		}
		c.Tick(gs.dt)

		g.State = c.Snapshot()
		gs.syncRope(w, e, c)
	})

	// controllers whose entity vanished without an event
	for e, c := range gs.controllers {
		if ecs.IsAlive(w, e) && ecs.Has(w, e, component.GrapplerComponent.Kind()) {
			continue
		}
		c.HandleRemoval()
		delete(gs.controllers, e)
	}
	if n := gs.locks.Sweep(func(id grapple.ActorID) bool { return ecs.IsAlive(w, ecs.Entity(id)) }); n > 0 {
		gs.log.Debug("swept stale locks", "count", n)
	}
}

func (gs *GrappleSystem) handleInput(e ecs.Entity, c *grapple.Controller, g *component.Grappler, in *component.Input) {
	if in.GrapplePressed {
		if err := c.Begin(); err != nil {
			g.LastError = err.Error()
			if !errors.Is(err, grapple.ErrNoTarget) {
				gs.log.Debug("grapple rejected", "entity", e, "err", err)
			}
		} else {
			g.LastError = ""
		}
	}
	// a release edge can be lost while unfocused, so a session also ends once
	// the button reads up
	if c.Active() && (in.GrappleReleased || !in.GrappleHeld) {
		c.Release()
	}
}

func (gs *GrappleSystem) ensureController(w *ecs.World, e ecs.Entity) (*grapple.Controller, bool) {
	if c, ok := gs.controllers[e]; ok {
		return c, true
	}
	if !ecs.IsAlive(w, e) || !ecs.Has(w, e, component.GrapplerComponent.Kind()) {
		return nil, false
	}
	c, err := grapple.NewController(ActorID(e), gs.cfg, grapple.Deps{
		Actor:     &ecsActor{w: w, e: e, physics: gs.physics},
		Viewer:    &ecsViewer{w: w, e: e},
		Input:     &ecsInput{w: w, e: e},
		Raycaster: gs.raycaster,
		Actors:    &actorSet{w: w},
		Animator:  &ecsAnimator{w: w, e: e},
		Locks:     gs.locks,
		Actuators: gs.actuators,
		Logger:    gs.log,
	})
	if err != nil {
		gs.log.Error("controller create failed", "entity", e, "components", ecs.ComponentNames(w, e), "err", err)
		return nil, false
	}
	gs.controllers[e] = c
	gs.log.Debug("controller created", "entity", e)
	return c, true
}

var ropeColor color.Color = colornames.Burlywood

// syncRope mirrors the session into the entity's rope line.
func (gs *GrappleSystem) syncRope(w *ecs.World, e ecs.Entity, c *grapple.Controller) {
	line, ok := ecs.Get(w, e, component.LineRenderComponent.Kind())
	if !ok {
		return
	}
	target, active := c.Target()
	if !active {
		line.Visible = false
		return
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		line.Start = t.Vec()
	}
	line.End = target
	if line.Color == nil {
		line.Color = ropeColor
	}
	if line.Width <= 0 {
		line.Width = 1
	}
	line.Visible = true
}
