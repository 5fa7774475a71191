package system

import (
	"math"
	"sort"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
)

// AnimationSystem advances clip playback and raises EventTrackFinished when a
// non-looping clip reaches its end.
type AnimationSystem struct {
	dt float64
}

func NewAnimationSystem() *AnimationSystem {
	return &AnimationSystem{dt: 1.0 / common.TickRate}
}

func (a *AnimationSystem) Stage() ecs.Stage { return ecs.StagePresentation }

func (a *AnimationSystem) Update(w *ecs.World) {
	ecs.ForEach(w, component.AnimationComponent.Kind(), func(e ecs.Entity, anim *component.Animation) {
		names := make([]string, 0, len(anim.Tracks))
		for name := range anim.Tracks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			tr := anim.Tracks[name]
			a.fade(tr)
			if !tr.Playing {
				continue
			}
			length := anim.Defs[name].Length()
			tr.Time += a.dt
			if tr.Time < length {
				continue
			}
			if tr.Looped && length > 0 {
				tr.Time = math.Mod(tr.Time, length)
				continue
			}
			tr.Time = length
			tr.Playing = false
			w.Events().Push(ecs.Event{Type: ecs.EventTrackFinished, Entity: e, Data: name})
		}
	})
}

func (a *AnimationSystem) fade(tr *component.Track) {
	if tr.Fade <= 0 {
		tr.Weight = tr.Target
		return
	}
	step := a.dt / tr.Fade
	if tr.Weight < tr.Target {
		tr.Weight = math.Min(tr.Target, tr.Weight+step)
	} else {
		tr.Weight = math.Max(tr.Target, tr.Weight-step)
	}
}

// animTrack adapts one clip of an Animation component to grapple.Track.
type animTrack struct {
	track *component.Track
	def   component.AnimationDef
}

func (t *animTrack) Play(fade float64) {
	t.track.Time = 0
	t.track.Playing = true
	t.track.Target = 1
	t.track.Fade = fade
}

func (t *animTrack) Stop(fade float64) {
	t.track.Playing = false
	t.track.Target = 0
	t.track.Fade = fade
}

func (t *animTrack) SetLooped(looped bool) { t.track.Looped = looped }
func (t *animTrack) Length() float64      { return t.def.Length() }
func (t *animTrack) Playing() bool        { return t.track.Playing }
