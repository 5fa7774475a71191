package grapple

import (
	"fmt"

	"github.com/milk9111/grapplehook/common"
)

// ClipNames maps sequencer roles to animation track names.
type ClipNames struct {
	Start  string `yaml:"start"`
	Loop   string `yaml:"loop"`
	Arrive string `yaml:"arrive"`
	Fall   string `yaml:"fall"`
}

// Config holds grapple tuning. Distances are world units, times are seconds,
// angles are radians.
type Config struct {
	Cooldown        float64 `yaml:"cooldown"`
	MaxDistance     float64 `yaml:"max_distance"`
	ArrivalDistance float64 `yaml:"arrival_distance"`

	MinReelSpeed float64 `yaml:"min_reel_speed"`
	MaxReelSpeed float64 `yaml:"max_reel_speed"`
	// Acceleration is the per-frame speed increment at the 60 Hz reference rate.
	Acceleration float64 `yaml:"acceleration"`
	StrafeSpeed  float64 `yaml:"strafe_speed"`

	MaxLeanAngle  float64 `yaml:"max_lean_angle"`
	SmoothingRate float64 `yaml:"smoothing_rate"`

	LaunchUpwardForce float64 `yaml:"launch_upward_force"`
	ForwardMultiplier float64 `yaml:"forward_multiplier"`
	ReleaseMultiplier float64 `yaml:"release_multiplier"`
	MaxMomentum       float64 `yaml:"max_momentum"`

	SafetyVelocityCeiling float64 `yaml:"safety_velocity_ceiling"`
	VelocityMaxForce      float64 `yaml:"velocity_max_force"`
	Gravity               float64 `yaml:"gravity"`

	StartFade             float64   `yaml:"start_fade"`
	StopFade              float64   `yaml:"stop_fade"`
	ArriveFade            float64   `yaml:"arrive_fade"`
	ArrivalFallbackDelay  float64   `yaml:"arrival_fallback_delay"`
	FallVelocityThreshold float64   `yaml:"fall_velocity_threshold"`
	Clips                 ClipNames `yaml:"clips"`
}

func DefaultConfig() Config {
	return Config{
		Cooldown:        0.5,
		MaxDistance:     300,
		ArrivalDistance: 6,

		MinReelSpeed: 40,
		MaxReelSpeed: 150,
		Acceleration: 1.5,
		StrafeSpeed:  30,

		MaxLeanAngle:  0.35,
		SmoothingRate: 10,

		LaunchUpwardForce: 110,
		ForwardMultiplier: 0.8,
		ReleaseMultiplier: 0.8,
		MaxMomentum:       200,

		SafetyVelocityCeiling: 250,
		VelocityMaxForce:      1e7,
		Gravity:               common.Gravity,

		StartFade:             0.1,
		StopFade:              0.15,
		ArriveFade:            0.05,
		ArrivalFallbackDelay:  0.4,
		FallVelocityThreshold: -8,
		Clips: ClipNames{
			Start:  "grapple_start",
			Loop:   "grapple_loop",
			Arrive: "grapple_arrive",
			Fall:   "fall",
		},
	}
}

// Validate rejects inconsistent tuning. Fields where zero would disable the
// grapple outright fall back to DefaultConfig; every other zero is kept.
func (c Config) Validate() (Config, error) {
	def := DefaultConfig()
	fill := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	fill(&c.MaxDistance, def.MaxDistance)
	fill(&c.MaxReelSpeed, def.MaxReelSpeed)
	fill(&c.SmoothingRate, def.SmoothingRate)
	fill(&c.MaxMomentum, def.MaxMomentum)
	fill(&c.VelocityMaxForce, def.VelocityMaxForce)
	fill(&c.Gravity, def.Gravity)
	if c.Clips.Start == "" {
		c.Clips.Start = def.Clips.Start
	}
	if c.Clips.Loop == "" {
		c.Clips.Loop = def.Clips.Loop
	}
	if c.Clips.Arrive == "" {
		c.Clips.Arrive = def.Clips.Arrive
	}
	if c.Clips.Fall == "" {
		c.Clips.Fall = def.Clips.Fall
	}

	switch {
	case c.MinReelSpeed < 0 || c.MaxReelSpeed < c.MinReelSpeed:
		return c, fmt.Errorf("grapple: invalid config: reel speed range [%v, %v]", c.MinReelSpeed, c.MaxReelSpeed)
	case c.Cooldown < 0 || c.MaxDistance < 0 || c.ArrivalDistance < 0:
		return c, fmt.Errorf("grapple: invalid config: negative distance or cooldown")
	case c.MaxMomentum < 0 || c.SafetyVelocityCeiling < 0:
		return c, fmt.Errorf("grapple: invalid config: negative velocity cap")
	}
	return c, nil
}
