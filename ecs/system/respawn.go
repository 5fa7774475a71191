package system

import (
	"log/slog"

	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/logger"
)

// LifecycleSystem raises the died event once per death and respawns actors
// that carry a Respawn component.
type LifecycleSystem struct {
	physics *PhysicsSystem
	log     *slog.Logger
}

func NewLifecycleSystem(ps *PhysicsSystem, lg *slog.Logger) *LifecycleSystem {
	if lg == nil {
		lg = logger.L()
	}
	return &LifecycleSystem{physics: ps, log: lg.With("system", "lifecycle")}
}

func (s *LifecycleSystem) Stage() ecs.Stage { return ecs.StageLifecycle }

func (s *LifecycleSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.HealthComponent.Kind(), func(e ecs.Entity, h *component.Health) {
		if in, ok := ecs.Get(w, e, component.InputComponent.Kind()); ok && in.Kill {
			h.Current = 0
		}
		if h.Current > 0 || h.Dead {
			return
		}
		h.Dead = true
		w.Events().Push(ecs.Event{Type: ecs.EventActorDied, Entity: e})
		s.log.Info("actor died", "entity", e)
		if r, ok := ecs.Get(w, e, component.RespawnComponent.Kind()); ok {
			r.Timer = r.Delay
		}
	})

	ecs.ForEach2(w, component.RespawnComponent.Kind(), component.HealthComponent.Kind(), func(e ecs.Entity, r *component.Respawn, h *component.Health) {
		if !h.Dead {
			return
		}
		if r.Timer > 0 {
			r.Timer--
			return
		}
		s.respawn(w, e, r, h)
	})
}

func (s *LifecycleSystem) respawn(w *ecs.World, e ecs.Entity, r *component.Respawn, h *component.Health) {
	if s.physics != nil && !s.physics.Teleport(e, r.Point) {
		return
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		t.SetVec(r.Point)
	}
	h.Current = h.Max
	h.Dead = false
	if loco, ok := ecs.Get(w, e, component.LocomotionComponent.Kind()); ok {
		loco.Mode = grapple.ModeNative
		loco.State = ""
		loco.StateTimer = 0
	}
	if pose, ok := ecs.Get(w, e, component.PoseComponent.Kind()); ok {
		*pose = component.Pose{}
	}
	w.Events().Push(ecs.Event{Type: ecs.EventActorSpawned, Entity: e})
	s.log.Info("actor respawned", "entity", e)
}
