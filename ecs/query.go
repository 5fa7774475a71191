package ecs

import (
	"sort"

	"github.com/milk9111/grapplehook/ecs/component"
)

// Query returns the live entities that carry every listed component, sorted
// by slot. The result is a copy, so callers may add or remove components
// while iterating it.
func Query(w *World, ids ...component.ComponentID) []Entity {
	if w == nil || len(ids) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(ids))
	for _, id := range ids {
		s := w.store(id, false)
		if s.Len() == 0 {
			return nil
		}
		sets = append(sets, s)
	}
	// iterate the smallest set
	sort.Slice(sets, func(i, j int) bool { return sets[i].Len() < sets[j].Len() })

	out := make([]Entity, 0, sets[0].Len())
outer:
	for _, e := range sets[0].Entities() {
		if !w.entities.isAlive(e) {
			continue
		}
		for _, s := range sets[1:] {
			if !s.Has(e) {
				continue outer
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id() < out[j].id() })
	return out
}
