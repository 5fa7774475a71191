package ecs

import "sort"

// System updates a world each frame.
type System interface {
	Update(w *World)
}

// Stage orders systems within a frame. Input is sampled before anything
// moves, the native controller writes velocities before the physics step,
// and the grapple override runs after it so its servo target applies to the
// following step.
type Stage int

const (
	StageInput Stage = iota
	StageLifecycle
	StageLocomotion
	StagePhysics
	StageGrapple
	StagePresentation
)

func (s Stage) String() string {
	switch s {
	case StageInput:
		return "input"
	case StageLifecycle:
		return "lifecycle"
	case StageLocomotion:
		return "locomotion"
	case StagePhysics:
		return "physics"
	case StageGrapple:
		return "grapple"
	case StagePresentation:
		return "presentation"
	}
	return "unknown"
}

// Staged systems declare where they run. Systems that do not implement it
// run in StagePresentation.
type Staged interface {
	Stage() Stage
}

func stageOf(s System) Stage {
	if st, ok := s.(Staged); ok {
		return st.Stage()
	}
	return StagePresentation
}

type scheduled struct {
	system System
	stage  Stage
}

// Scheduler runs systems by stage, then by registration order.
type Scheduler struct {
	systems []scheduled
}

func NewScheduler(systems ...System) *Scheduler {
	s := &Scheduler{}
	for _, sys := range systems {
		s.Add(sys)
	}
	return s
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	entry := scheduled{system: system, stage: stageOf(system)}
	i := sort.Search(len(s.systems), func(i int) bool { return s.systems[i].stage > entry.stage })
	s.systems = append(s.systems, scheduled{})
	copy(s.systems[i+1:], s.systems[i:])
	s.systems[i] = entry
}

func (s *Scheduler) Update(w *World) {
	for _, entry := range s.systems {
		entry.system.Update(w)
	}
}

// Systems returns the schedule in run order.
func (s *Scheduler) Systems() []System {
	out := make([]System, 0, len(s.systems))
	for _, entry := range s.systems {
		out = append(out, entry.system)
	}
	return out
}
