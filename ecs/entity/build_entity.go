package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/prefabs"
	"golang.org/x/image/colornames"
)

type entityPrefabSpec = prefabs.EntityBuildSpec

type buildContext struct {
	PrefabPath string
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"player_tag":   addPlayerTag,
	"camera_tag":   addCameraTag,
	"terrain_tag":  addTerrainTag,
	"input":        addInput,
	"transform":    addTransform,
	"physics_body": addPhysicsBody,
	"actor":        addActor,
	"health":       addHealth,
	"respawn":      addRespawn,
	"locomotion":   addLocomotion,
	"pose":         addPose,
	"animation":    addAnimation,
	"grappler":     addGrappler,
	"camera":       addCamera,
	"line_render":  addLineRender,
}

// componentBuildOrder lists builders that read components added before them.
var componentBuildOrder = []string{
	"player_tag",
	"camera_tag",
	"terrain_tag",
	"input",
	"transform",
	"physics_body",
	"actor",
	"health",
	"respawn",
	"locomotion",
	"pose",
	"animation",
	"grappler",
	"camera",
	"line_render",
}

func BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}

	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	return BuildEntityFromSpec(w, spec, prefabPath)
}

// BuildEntityFromSpec assembles an entity from an already decoded prefab. A
// finished actor raises the spawned event.
func BuildEntityFromSpec(w *ecs.World, spec entityPrefabSpec, prefabPath string) (ecs.Entity, error) {
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", prefabPath)
	}

	e := ecs.CreateEntity(w)
	ctx := &buildContext{PrefabPath: prefabPath}

	remaining := make(map[string]any, len(spec.Components))
	for k, v := range spec.Components {
		remaining[k] = v
	}

	for _, name := range componentBuildOrder {
		raw, ok := remaining[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](w, e, raw, ctx); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("build entity: %q: add %q: %w", prefabPath, name, err)
		}
		delete(remaining, name)
	}

	if len(remaining) > 0 {
		names := make([]string, 0, len(remaining))
		for name := range remaining {
			names = append(names, name)
		}
		sort.Strings(names)
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("build entity: %q: no builder for component %q", prefabPath, names[0])
	}

	if ecs.Has(w, e, component.ActorComponent.Kind()) {
		w.Events().Push(ecs.Event{Type: ecs.EventActorSpawned, Entity: e})
	}
	return e, nil
}

func SetEntityTransform(w *ecs.World, e ecs.Entity, p common.Vec3) error {
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: p.X, Y: p.Y, Z: p.Z})
	}
	t.SetVec(p)
	if r, ok := ecs.Get(w, e, component.RespawnComponent.Kind()); ok {
		r.Point = p
	}
	return nil
}

func addPlayerTag(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{})
}

func addCameraTag(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.CameraTagComponent.Kind(), &component.CameraTag{})
}

func addTerrainTag(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.TerrainTagComponent.Kind(), &component.TerrainTag{})
}

func addInput(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{})
}

func addPose(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.PoseComponent.Kind(), &component.Pose{})
}

func addGrappler(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.GrapplerComponent.Kind(), &component.Grappler{})
}

type transformSpec = prefabs.TransformComponentSpec

func addTransform(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[transformSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	return ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: spec.X, Y: spec.Y, Z: spec.Z})
}

type physicsBodySpec = prefabs.PhysicsBodyComponentSpec

func addPhysicsBody(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[physicsBodySpec](raw)
	if err != nil {
		return fmt.Errorf("decode physics body spec: %w", err)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("physics body needs a positive width and height")
	}
	if !spec.Static && spec.Mass == 0 {
		spec.Mass = 1
	}
	return ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:      spec.Width,
		Height:     spec.Height,
		Depth:      spec.Depth,
		Mass:       spec.Mass,
		Friction:   spec.Friction,
		Elasticity: spec.Elasticity,
		Static:     spec.Static,
	})
}

type actorSpec = prefabs.ActorComponentSpec

func addActor(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[actorSpec](raw)
	if err != nil {
		return fmt.Errorf("decode actor spec: %w", err)
	}
	facing := common.V3(1, 0, 0)
	if len(spec.Facing) == 3 {
		if f := common.V3(spec.Facing[0], spec.Facing[1], spec.Facing[2]).Flatten().Normalize(); !f.IsZero() {
			facing = f
		}
	}
	name := spec.Name
	if name == "" {
		name = strings.TrimSuffix(ctx.PrefabPath, ".yaml")
	}
	return ecs.Add(w, e, component.ActorComponent.Kind(), &component.Actor{
		Name:      name,
		Facing:    facing,
		EyeHeight: spec.EyeHeight,
	})
}

type healthSpec = prefabs.HealthComponentSpec

func addHealth(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[healthSpec](raw)
	if err != nil {
		return fmt.Errorf("decode health spec: %w", err)
	}
	if spec.Max <= 0 {
		spec.Max = 1
	}
	if spec.Current == 0 {
		spec.Current = spec.Max
	}
	return ecs.Add(w, e, component.HealthComponent.Kind(), &component.Health{Max: spec.Max, Current: spec.Current})
}

type respawnSpec = prefabs.RespawnComponentSpec

func addRespawn(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[respawnSpec](raw)
	if err != nil {
		return fmt.Errorf("decode respawn spec: %w", err)
	}
	r := &component.Respawn{Delay: spec.Delay}
	switch {
	case len(spec.Point) == 3:
		r.Point = common.V3(spec.Point[0], spec.Point[1], spec.Point[2])
	default:
		if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			r.Point = t.Vec()
		}
	}
	return ecs.Add(w, e, component.RespawnComponent.Kind(), r)
}

type locomotionSpec = prefabs.LocomotionComponentSpec

var locomotionFlags = []grapple.LocomotionFlag{grapple.FlagFallingDown, grapple.FlagRagdoll, grapple.FlagGettingUp}

func addLocomotion(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[locomotionSpec](raw)
	if err != nil {
		return fmt.Errorf("decode locomotion spec: %w", err)
	}
	loco := &component.Locomotion{
		MoveSpeed:          spec.MoveSpeed,
		DepthSpeed:         spec.DepthSpeed,
		JumpSpeed:          spec.JumpSpeed,
		RagdollImpactSpeed: spec.RagdollImpactSpeed,
		RagdollFrames:      spec.RagdollFrames,
		GetUpFrames:        spec.GetUpFrames,
	}
	for _, name := range spec.Disabled {
		found := false
		for _, f := range locomotionFlags {
			if f.String() == name {
				loco.SetFlag(f, false)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("unknown locomotion state %q", name)
		}
	}
	return ecs.Add(w, e, component.LocomotionComponent.Kind(), loco)
}

type animationSpec = prefabs.AnimationComponentSpec

func addAnimation(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[animationSpec](raw)
	if err != nil {
		return fmt.Errorf("decode animation spec: %w", err)
	}

	defs := make(map[string]component.AnimationDef, len(spec.Defs))
	for name, def := range spec.Defs {
		defs[name] = component.AnimationDef{
			Name:       name,
			FrameCount: def.FrameCount,
			FPS:        def.FPS,
			Loop:       def.Loop,
		}
	}
	return ecs.Add(w, e, component.AnimationComponent.Kind(), &component.Animation{
		Defs:   defs,
		Tracks: map[string]*component.Track{},
	})
}

type cameraSpec = prefabs.CameraComponentSpec

func addCamera(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[cameraSpec](raw)
	if err != nil {
		return fmt.Errorf("decode camera spec: %w", err)
	}
	if spec.Zoom == 0 {
		spec.Zoom = 1
	}
	return ecs.Add(w, e, component.CameraComponent.Kind(), &component.Camera{
		TargetName: spec.TargetName,
		Zoom:       spec.Zoom,
		Smoothness: spec.Smoothness,
		Look:       common.V3(0, 0, 1),
		Right:      common.V3(1, 0, 0),
	})
}

type lineRenderSpec = prefabs.LineRenderComponentSpec

func addLineRender(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[lineRenderSpec](raw)
	if err != nil {
		return fmt.Errorf("decode line render spec: %w", err)
	}
	if spec.Width <= 0 {
		spec.Width = 1
	}
	line := &component.LineRender{
		Width:     spec.Width,
		Color:     colornames.White,
		AntiAlias: spec.AntiAlias,
	}
	if spec.Color != nil && spec.Color.Color != nil {
		line.Color = spec.Color.Color
	}
	return ecs.Add(w, e, component.LineRenderComponent.Kind(), line)
}
