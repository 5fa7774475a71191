package grapple

import (
	"fmt"
	"log/slog"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/logger"
)

// ActuatorHandle owns the velocity and counter-gravity actuators attached to
// one actor's root body, plus the anchor they hang off.
type ActuatorHandle struct {
	actor    ActorID
	anchor   Anchor
	velocity VelocityActuator
	counter  Actuator
	torn     bool
}

// SetVelocity writes the world-space velocity the body is driven at.
func (h *ActuatorHandle) SetVelocity(v common.Vec3) {
	if h == nil || h.torn || h.velocity == nil {
		return
	}
	h.velocity.SetVelocity(v)
}

// Live reports whether the handle has not been torn down.
func (h *ActuatorHandle) Live() bool {
	return h != nil && !h.torn
}

func (h *ActuatorHandle) destroyNow() {
	if h == nil || h.torn {
		return
	}
	h.torn = true
	if h.velocity != nil {
		h.velocity.Destroy()
	}
	if h.counter != nil {
		h.counter.Destroy()
	}
	if h.anchor != nil {
		h.anchor.Destroy()
	}
}

// Actuators tracks the single live ActuatorHandle per actor.
type Actuators struct {
	handles map[ActorID]*ActuatorHandle
	log     *slog.Logger
}

func NewActuators(lg *slog.Logger) *Actuators {
	if lg == nil {
		lg = logger.L()
	}
	return &Actuators{
		handles: make(map[ActorID]*ActuatorHandle),
		log:     lg,
	}
}

// Acquire attaches a fresh actuator set to body. Any stale set found for the
// same actor is destroyed first.
func (a *Actuators) Acquire(actor ActorID, body Body, authority, gravity float64) (*ActuatorHandle, error) {
	if body == nil {
		return nil, fmt.Errorf("grapple: acquire actuators: %w", ErrNoActor)
	}
	if stale := a.handles[actor]; stale != nil {
		a.log.Debug("actuators: destroying stale set", "actor", uint64(actor))
		stale.destroyNow()
		delete(a.handles, actor)
	}

	anchor, err := body.AttachAnchor()
	if err != nil {
		return nil, fmt.Errorf("grapple: attach anchor: %w", err)
	}
	h := &ActuatorHandle{
		actor:    actor,
		anchor:   anchor,
		velocity: anchor.NewVelocityActuator(authority),
		counter:  anchor.NewForceActuator(common.Up.Scale(body.Mass() * gravity)),
	}
	a.handles[actor] = h
	return h, nil
}

// Teardown releases h in an order that leaves no residual velocity: the
// velocity actuator is zeroed now and destroyed on the next tick, the
// counter-gravity actuator and anchor go immediately, then the body's
// velocity is clamped to ceiling. body may be nil if the actor is gone.
func (a *Actuators) Teardown(h *ActuatorHandle, body Body, tasks *TaskQueue, ceiling float64) {
	if h == nil || h.torn {
		return
	}
	h.torn = true
	if a.handles[h.actor] == h {
		delete(a.handles, h.actor)
	}

	if vel := h.velocity; vel != nil {
		vel.SetVelocity(common.Zero3)
		vel.SetMaxForce(0)
		if tasks != nil {
			tasks.Cleanup(vel.Destroy)
		} else {
			vel.Destroy()
		}
	}
	if h.counter != nil {
		h.counter.Destroy()
	}
	if h.anchor != nil {
		h.anchor.Destroy()
	}

	if body != nil {
		v := body.Velocity()
		if clamped := common.ClampMagnitude(v, ceiling); clamped != v {
			body.SetVelocity(clamped)
		}
	}
}

// Destroy immediately destroys any live set for actor.
func (a *Actuators) Destroy(actor ActorID) {
	if h := a.handles[actor]; h != nil {
		h.destroyNow()
		delete(a.handles, actor)
	}
}

// Live reports whether actor currently has a live actuator set.
func (a *Actuators) Live(actor ActorID) bool {
	return a.handles[actor].Live()
}
