package ecs

import (
	"sort"

	"github.com/milk9111/grapplehook/ecs/component"
)

// World owns entities, their component stores, the event queue and the
// system schedule.
type World struct {
	entities  entityStore
	stores    map[component.ComponentID]*SparseSet
	events    EventQueue
	scheduler *Scheduler
	frame     uint64
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{
		stores:    make(map[component.ComponentID]*SparseSet),
		scheduler: NewScheduler(),
	}
}

// CreateEntity allocates a new entity.
func CreateEntity(w *World) Entity {
	if w == nil {
		return 0
	}
	return w.entities.create()
}

// DestroyEntity removes every component of e, frees its slot and queues an
// EntityRemoved event. It returns false if e was not alive.
func DestroyEntity(w *World, e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(e)
	}
	w.entities.destroy(e)
	w.events.Push(Event{Type: EventEntityRemoved, Entity: e})
	return true
}

// IsAlive reports whether an entity handle still refers to a live entity.
func IsAlive(w *World, e Entity) bool {
	return w != nil && w.entities.isAlive(e)
}

// Entities returns every live entity in slot order.
func Entities(w *World) []Entity {
	if w == nil {
		return nil
	}
	out := make([]Entity, 0, w.entities.count)
	w.entities.each(func(e Entity) { out = append(out, e) })
	return out
}

func (w *World) store(id component.ComponentID, create bool) *SparseSet {
	s, ok := w.stores[id]
	if !ok && create {
		s = newSparseSet()
		w.stores[id] = s
	}
	return s
}

// AddSystem schedules a system after those already registered in its stage.
func (w *World) AddSystem(s System) {
	if w == nil {
		return
	}
	w.scheduler.Add(s)
}

// Update runs all systems once, then rotates the event queue so events raised
// this frame are visible to every system next frame.
func (w *World) Update() {
	if w == nil {
		return
	}
	w.scheduler.Update(w)
	w.events.flush()
	w.frame++
}

// Frame is the number of completed Update calls.
func (w *World) Frame() uint64 {
	if w == nil {
		return 0
	}
	return w.frame
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// ComponentNames lists the type names of e's components, sorted. It is meant
// for logs and debug overlays.
func ComponentNames(w *World, e Entity) []string {
	if !IsAlive(w, e) {
		return nil
	}
	var names []string
	for id, s := range w.stores {
		if s.Has(e) {
			names = append(names, id.Name())
		}
	}
	sort.Strings(names)
	return names
}
