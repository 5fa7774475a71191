package grapple

import (
	"log/slog"

	"github.com/milk9111/grapplehook/logger"
)

type AnimState int

const (
	AnimIdle AnimState = iota
	AnimStarting
	AnimLooping
	AnimArriving
)

func (s AnimState) String() string {
	switch s {
	case AnimIdle:
		return "idle"
	case AnimStarting:
		return "starting"
	case AnimLooping:
		return "looping"
	case AnimArriving:
		return "arriving"
	}
	return "unknown"
}

type seqEvent int

const (
	seqBegin seqEvent = iota
	seqStartFinished
	seqArrive
	seqRelease
	seqHandoff
)

// Sequencer drives the grapple clips. Every transition goes through handle.
type Sequencer struct {
	animator Animator
	cfg      Config
	state    AnimState
	tasks    *TaskQueue

	// active reports whether the owning session is still live.
	active func() bool
	// generation returns the owning controller's current session generation.
	generation func() uint64
	// onHandoff fires when control passes back to the fall monitor.
	onHandoff func()

	log *slog.Logger
}

func NewSequencer(animator Animator, cfg Config, tasks *TaskQueue, lg *slog.Logger) *Sequencer {
	if lg == nil {
		lg = logger.L()
	}
	return &Sequencer{
		animator:   animator,
		cfg:        cfg,
		tasks:      tasks,
		active:     func() bool { return false },
		generation: func() uint64 { return 0 },
		log:        lg,
	}
}

func (s *Sequencer) State() AnimState {
	return s.state
}

func (s *Sequencer) Begin()   { s.handle(seqBegin) }
func (s *Sequencer) Arrive()  { s.handle(seqArrive) }
func (s *Sequencer) Release() { s.handle(seqRelease) }

// TrackFinished is the playback service's "finished" notification.
func (s *Sequencer) TrackFinished(name string) {
	if name == s.cfg.Clips.Start {
		s.handle(seqStartFinished)
	}
}

func (s *Sequencer) handle(ev seqEvent) {
	prev := s.state
	switch ev {
	case seqBegin:
		s.stopAll(s.cfg.StartFade)
		if s.play(s.cfg.Clips.Start, s.cfg.StartFade, false) {
			s.state = AnimStarting
		} else {
			s.play(s.cfg.Clips.Loop, s.cfg.StartFade, true)
			s.state = AnimLooping
		}

	case seqStartFinished:
		if s.state != AnimStarting || !s.active() {
			return
		}
		s.play(s.cfg.Clips.Loop, s.cfg.StartFade, true)
		s.state = AnimLooping

	case seqArrive:
		if s.state != AnimStarting && s.state != AnimLooping {
			return
		}
		s.stopAll(s.cfg.ArriveFade)
		delay := s.cfg.ArrivalFallbackDelay
		if s.play(s.cfg.Clips.Arrive, s.cfg.ArriveFade, false) {
			if t, ok := s.track(s.cfg.Clips.Arrive); ok && t.Length() > 0 {
				delay = t.Length()
			}
		}
		s.state = AnimArriving
		if s.tasks != nil {
			s.tasks.After(s.generation(), delay, func() { s.handle(seqHandoff) })
		}

	case seqRelease:
		if s.state == AnimIdle {
			return
		}
		s.stopAll(s.cfg.StopFade)
		s.state = AnimIdle
		s.handoff()

	case seqHandoff:
		if s.state != AnimArriving {
			return
		}
		s.state = AnimIdle
		s.handoff()
	}
	if prev != s.state {
		s.log.Debug("sequencer transition", "from", prev.String(), "to", s.state.String())
	}
}

func (s *Sequencer) handoff() {
	if s.onHandoff != nil {
		s.onHandoff()
	}
}

func (s *Sequencer) track(name string) (Track, bool) {
	if s.animator == nil || name == "" {
		return nil, false
	}
	return s.animator.Track(name)
}

func (s *Sequencer) play(name string, fade float64, looped bool) bool {
	t, ok := s.track(name)
	if !ok {
		return false
	}
	t.SetLooped(looped)
	t.Play(fade)
	return true
}

func (s *Sequencer) stopAll(fade float64) {
	for _, name := range []string{s.cfg.Clips.Start, s.cfg.Clips.Loop, s.cfg.Clips.Arrive} {
		if t, ok := s.track(name); ok && t.Playing() {
			t.Stop(fade)
		}
	}
}

// FallMonitor toggles the looping fall clip from vertical velocity. It runs
// outside grapple control and is suppressed while a session or any grapple
// clip is active.
type FallMonitor struct {
	animator  Animator
	clip      string
	threshold float64
	fade      float64
	playing   bool
}

func NewFallMonitor(animator Animator, cfg Config) *FallMonitor {
	return &FallMonitor{
		animator:  animator,
		clip:      cfg.Clips.Fall,
		threshold: cfg.FallVelocityThreshold,
		fade:      cfg.StopFade,
	}
}

// Update plays or stops the fall clip. verticalVelocity is the actor's Y
// velocity; nativeFalling is the controller's own falling signal.
func (m *FallMonitor) Update(verticalVelocity float64, nativeFalling, suppressed bool) {
	falling := !suppressed && (verticalVelocity < m.threshold || nativeFalling)
	if falling == m.playing {
		return
	}
	if m.animator == nil {
		return
	}
	t, ok := m.animator.Track(m.clip)
	if !ok {
		return
	}
	if falling {
		t.SetLooped(true)
		t.Play(m.fade)
	} else {
		t.Stop(m.fade)
	}
	m.playing = falling
}

// Suppress stops the fall clip immediately.
func (m *FallMonitor) Suppress() {
	m.Update(0, false, true)
}

func (m *FallMonitor) Playing() bool {
	return m.playing
}
