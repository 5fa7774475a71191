package grapple

import (
	"errors"
	"testing"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/logger"
)

func TestActuatorsAcquireCreatesCounterGravity(t *testing.T) {
	a := NewActuators(logger.Discard())
	body := newFakeBody(common.Zero3)
	body.mass = 3

	h, err := a.Acquire(1, body, 5000, 10)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	anchor := body.lastAnchor()
	if anchor.counter == nil || anchor.counter.force != common.V3(0, 30, 0) {
		t.Fatalf("counter-gravity force = %+v, want mass*gravity upward", anchor.counter)
	}
	if anchor.velocity.maxForce != 5000 {
		t.Fatalf("velocity authority = %v", anchor.velocity.maxForce)
	}
	h.SetVelocity(common.V3(1, 2, 3))
	if anchor.velocity.velocity != common.V3(1, 2, 3) {
		t.Fatal("velocity write not forwarded")
	}
	if !a.Live(1) {
		t.Fatal("handle should be live")
	}
}

func TestActuatorsAcquireDestroysStaleSet(t *testing.T) {
	a := NewActuators(logger.Discard())
	body := newFakeBody(common.Zero3)
	first, _ := a.Acquire(1, body, 1, 1)
	stale := body.lastAnchor()

	if _, err := a.Acquire(1, body, 1, 1); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if stale.destroyed != 1 || stale.velocity.destroyed != 1 || stale.counter.destroyed != 1 {
		t.Fatal("stale actuator set not destroyed")
	}
	if first.Live() {
		t.Fatal("stale handle still live")
	}
	if len(body.anchors) != 2 {
		t.Fatalf("expected a second anchor, got %d", len(body.anchors))
	}
}

func TestActuatorsAcquireAttachFailure(t *testing.T) {
	a := NewActuators(logger.Discard())
	body := newFakeBody(common.Zero3)
	body.attachErr = errors.New("no root part")
	if _, err := a.Acquire(1, body, 1, 1); err == nil {
		t.Fatal("expected error")
	}
	if a.Live(1) {
		t.Fatal("failed acquire left a live handle")
	}
}

func TestActuatorsTeardownOrdering(t *testing.T) {
	a := NewActuators(logger.Discard())
	q := NewTaskQueue()
	body := newFakeBody(common.Zero3)
	h, _ := a.Acquire(1, body, 1e6, 10)
	anchor := body.lastAnchor()
	h.SetVelocity(common.V3(50, 0, 0))
	body.vel = common.V3(400, 0, 300)

	a.Teardown(h, body, q, 250)

	vel := anchor.velocity
	if vel.velocity != common.Zero3 || vel.maxForce != 0 {
		t.Fatalf("velocity actuator not zeroed: %+v", vel)
	}
	if vel.destroyed != 0 {
		t.Fatal("velocity actuator destroyed in the same tick")
	}
	if anchor.counter.destroyed != 1 || anchor.destroyed != 1 {
		t.Fatal("counter-gravity and anchor should be destroyed immediately")
	}
	if got := body.vel.Len(); !common.ApproxEqual(got, 250, 1e-9) {
		t.Fatalf("body velocity magnitude = %v, want clamped to 250", got)
	}

	q.Run(1, 0)
	if vel.destroyed != 0 {
		t.Fatal("velocity actuator destroyed before the tick closed")
	}
	q.EndTick()
	q.Run(1.1, 0)
	if vel.destroyed != 1 {
		t.Fatal("velocity actuator should be destroyed on the next tick")
	}

	a.Teardown(h, body, q, 250)
	q.EndTick()
	q.Run(2, 0)
	if vel.destroyed != 1 || anchor.destroyed != 1 {
		t.Fatal("second teardown must be a no-op")
	}
}

func TestActuatorsTeardownWithoutBody(t *testing.T) {
	a := NewActuators(logger.Discard())
	body := newFakeBody(common.Zero3)
	h, _ := a.Acquire(1, body, 1, 1)
	a.Teardown(h, nil, nil, 10)
	if body.lastAnchor().velocity.destroyed != 1 {
		t.Fatal("without a queue the velocity actuator is destroyed immediately")
	}
}
