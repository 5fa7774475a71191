package entity

import (
	"fmt"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/prefabs"
)

// LoadLevel reads a level spec and builds it into the world.
func LoadLevel(w *ecs.World, name string) (prefabs.LevelSpec, error) {
	spec, err := prefabs.LoadLevelSpec(name)
	if err != nil {
		return prefabs.LevelSpec{}, err
	}
	if err := LoadLevelToWorld(w, spec); err != nil {
		return prefabs.LevelSpec{}, err
	}
	return spec, nil
}

// LoadLevelToWorld creates one static terrain entity per block, then places
// each prefab. Placement coordinates override the prefab's transform.
func LoadLevelToWorld(w *ecs.World, lvl prefabs.LevelSpec) error {
	for i, b := range lvl.Blocks {
		e := ecs.CreateEntity(w)
		if err := ecs.Add(w, e, component.TerrainTagComponent.Kind(), &component.TerrainTag{}); err != nil {
			return fmt.Errorf("level %s: block %d: %w", lvl.Name, i, err)
		}
		if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: b.X, Y: b.Y, Z: b.Z}); err != nil {
			return fmt.Errorf("level %s: block %d: %w", lvl.Name, i, err)
		}
		friction := b.Friction
		if friction == 0 {
			friction = 0.9
		}
		if err := ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
			Width:    b.Width,
			Height:   b.Height,
			Depth:    b.Depth,
			Friction: friction,
			Static:   true,
		}); err != nil {
			return fmt.Errorf("level %s: block %d: %w", lvl.Name, i, err)
		}
	}

	for _, p := range lvl.Entities {
		if _, err := PlacePrefab(w, p); err != nil {
			return fmt.Errorf("level %s: %w", lvl.Name, err)
		}
	}
	return nil
}

// PlacePrefab builds p.Prefab and moves it to the set placement coordinates.
// Unset coordinates keep the prefab's own transform. Moving an actor also
// moves its respawn point.
func PlacePrefab(w *ecs.World, p prefabs.PlacementSpec) (ecs.Entity, error) {
	e, err := BuildEntity(w, p.Prefab)
	if err != nil {
		return 0, err
	}
	if p.X == nil && p.Y == nil && p.Z == nil {
		return e, nil
	}
	pos := common.Zero3
	if t, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		pos = t.Vec()
	}
	if p.X != nil {
		pos.X = *p.X
	}
	if p.Y != nil {
		pos.Y = *p.Y
	}
	if p.Z != nil {
		pos.Z = *p.Z
	}
	if err := SetEntityTransform(w, e, pos); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("place %s: %w", p.Prefab, err)
	}
	return e, nil
}
