package grapple

import "github.com/milk9111/grapplehook/common"

// MomentumInput is what the resolver needs when a session ends.
type MomentumInput struct {
	Arrived bool
	Speed   float64
	// Direction is the unit direction to the target at the time of exit,
	// zero when degenerate.
	Direction common.Vec3
	// Facing is the actor's current look direction, used when Direction is
	// degenerate.
	Facing common.Vec3
}

// ResolveMomentum computes the exit velocity. Arrival launches the actor up
// and forward; an early release keeps a fraction of the reel speed along the
// rope.
func ResolveMomentum(in MomentumInput, cfg Config) common.Vec3 {
	dir := in.Direction
	if dir.IsZero() {
		dir = in.Facing.Normalize()
	}

	var momentum common.Vec3
	if in.Arrived {
		horizontal := dir.Flatten().Normalize()
		if horizontal.IsZero() {
			horizontal = in.Facing.Flatten().Normalize()
		}
		momentum = common.V3(0, cfg.LaunchUpwardForce, 0).
			Add(horizontal.Scale(in.Speed * cfg.ForwardMultiplier))
	} else {
		momentum = dir.Scale(in.Speed * cfg.ReleaseMultiplier)
	}
	return common.ClampMagnitude(momentum, cfg.MaxMomentum)
}
