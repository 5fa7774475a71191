package component

type AnimationDef struct {
	Name       string
	FrameCount int
	FPS        float64
	Loop       bool
}

// Length is the clip duration in seconds.
func (d AnimationDef) Length() float64 {
	if d.FPS <= 0 || d.FrameCount <= 0 {
		return 0
	}
	return float64(d.FrameCount) / d.FPS
}

// Track is the playback state of one clip.
type Track struct {
	Time    float64
	Playing bool
	Looped  bool
	// Weight fades toward Target at 1/Fade per second.
	Weight float64
	Target float64
	Fade   float64
}

type Animation struct {
	Defs   map[string]AnimationDef
	Tracks map[string]*Track
}

// Track returns the playback state for name, creating it if the clip exists.
func (a *Animation) Track(name string) (*Track, bool) {
	def, ok := a.Defs[name]
	if !ok {
		return nil, false
	}
	if a.Tracks == nil {
		a.Tracks = make(map[string]*Track)
	}
	t, ok := a.Tracks[name]
	if !ok {
		t = &Track{Looped: def.Loop}
		a.Tracks[name] = t
	}
	return t, true
}

var AnimationComponent = NewComponent[Animation]()
