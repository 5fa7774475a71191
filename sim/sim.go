// Package sim assembles a world, its systems and a level into a steppable
// simulation shared by the demo game and the headless harness.
package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/ecs/entity"
	"github.com/milk9111/grapplehook/ecs/system"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/logger"
	"github.com/milk9111/grapplehook/prefabs"
)

var ErrNoPlayer = errors.New("sim: level has no player")

type Options struct {
	Level  string
	Tuning string
	// Input runs first each frame. Nil leaves Input components untouched.
	Input      ecs.System
	Projection *system.Projection
	Logger     *slog.Logger
}

type Sim struct {
	World   *ecs.World
	Physics *system.PhysicsSystem
	Grapple *system.GrappleSystem
	Camera  *system.CameraSystem
	Player  ecs.Entity
	Level   prefabs.LevelSpec

	tuning string
	log    *slog.Logger
}

func New(opts Options) (*Sim, error) {
	lg := opts.Logger
	if lg == nil {
		lg = logger.L()
	}
	if opts.Level == "" {
		opts.Level = "arena.yaml"
	}
	if opts.Tuning == "" {
		opts.Tuning = "grapple.yaml"
	}

	cfg, err := prefabs.LoadGrappleConfig(opts.Tuning)
	if err != nil {
		return nil, err
	}
	lvl, err := prefabs.LoadLevelSpec(opts.Level)
	if err != nil {
		return nil, err
	}

	physics := system.NewPhysicsSystem(lg)
	if lvl.Gravity > 0 {
		physics.SetGravity(lvl.Gravity)
		cfg.Gravity = lvl.Gravity
	}
	grappleSys, err := system.NewGrappleSystem(physics, cfg, lg)
	if err != nil {
		return nil, err
	}

	s := &Sim{
		World:   ecs.NewWorld(),
		Physics: physics,
		Grapple: grappleSys,
		Camera:  system.NewCameraSystem(opts.Projection),
		Level:   lvl,
		tuning:  opts.Tuning,
		log:     lg.With("level", lvl.Name),
	}

	if opts.Input != nil {
		s.World.AddSystem(opts.Input)
	}
	s.World.AddSystem(system.NewLifecycleSystem(physics, lg))
	s.World.AddSystem(system.NewLocomotionSystem(physics, lg))
	s.World.AddSystem(physics)
	s.World.AddSystem(grappleSys)
	s.World.AddSystem(system.NewAnimationSystem())
	s.World.AddSystem(s.Camera)

	if err := entity.LoadLevelToWorld(s.World, lvl); err != nil {
		return nil, err
	}
	player, ok := ecs.First(s.World, component.PlayerTagComponent.Kind())
	if !ok {
		return nil, ErrNoPlayer
	}
	s.Player = player
	s.log.Info("level loaded", "blocks", len(lvl.Blocks), "entities", len(lvl.Entities))
	return s, nil
}

// Step advances one fixed frame.
func (s *Sim) Step() {
	s.World.Update()
}

// Reload re-reads a changed prefab file. Only tuning is hot swappable.
func (s *Sim) Reload(name string) error {
	if name != s.tuning {
		s.log.Debug("ignoring change", "file", name)
		return nil
	}
	cfg, err := prefabs.LoadGrappleConfig(name)
	if err != nil {
		return fmt.Errorf("sim: reload %s: %w", name, err)
	}
	if s.Level.Gravity > 0 {
		cfg.Gravity = s.Level.Gravity
	}
	if err := s.Grapple.SetConfig(cfg); err != nil {
		return fmt.Errorf("sim: reload %s: %w", name, err)
	}
	s.log.Info("tuning reloaded", "file", name)
	return nil
}

// FrameTrace is the observable state of the player after one frame.
type FrameTrace struct {
	Frame     uint64
	Position  common.Vec3
	Velocity  common.Vec3
	State     string
	Mode      grapple.LocomotionMode
	Grappling bool
	Anim      grapple.AnimState
	Speed     float64
	Health    float64
}

func (t FrameTrace) String() string {
	return fmt.Sprintf("%5d pos=(%7.2f %7.2f %6.2f) vel=(%7.2f %7.2f %6.2f) state=%-10s mode=%-16s grapple=%-5v anim=%-8s speed=%6.2f hp=%.0f",
		t.Frame, t.Position.X, t.Position.Y, t.Position.Z, t.Velocity.X, t.Velocity.Y, t.Velocity.Z,
		t.State, t.Mode, t.Grappling, t.Anim, t.Speed, t.Health)
}

func (s *Sim) Trace() FrameTrace {
	tr := FrameTrace{Frame: s.World.Frame()}
	w, e := s.World, s.Player
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		tr.Position = t.Vec()
	}
	if b, ok := s.Physics.Body(e); ok {
		tr.Velocity = b.Velocity()
	}
	if l, ok := ecs.Get(w, e, component.LocomotionComponent.Kind()); ok {
		tr.State = l.State
		tr.Mode = l.Mode
	}
	if g, ok := ecs.Get(w, e, component.GrapplerComponent.Kind()); ok {
		tr.Grappling = g.State.Active
		tr.Anim = g.State.Anim
		tr.Speed = g.State.Speed
	}
	if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok {
		tr.Health = h.Current
	}
	return tr
}
