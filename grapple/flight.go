package grapple

import (
	"math"

	"github.com/milk9111/grapplehook/common"
)

const (
	// degenerateDistance is the distance below which the direction to the
	// target is treated as undefined.
	degenerateDistance = 0.1
	inputDeadzone      = 0.1
)

// OrientationFilter smooths the lean and pitch offsets toward their targets.
type OrientationFilter struct {
	Lean  float64
	Pitch float64
}

// Update integrates toward the targets by min(1, dt·rate) so high frame rates
// cannot overshoot.
func (f *OrientationFilter) Update(dt, strafe float64, dir common.Vec3, maxLean, rate float64) {
	leanTarget := -common.Sign(strafe) * maxLean
	pitchTarget := math.Asin(common.Clamp(dir.Y, -1, 1))
	alpha := math.Min(1, dt*rate)
	f.Lean += (leanTarget - f.Lean) * alpha
	f.Pitch += (pitchTarget - f.Pitch) * alpha
}

func (f *OrientationFilter) Reset() {
	f.Lean = 0
	f.Pitch = 0
}

func directionTo(from, to common.Vec3) common.Vec3 {
	d := to.Sub(from)
	if d.Len() <= degenerateDistance {
		return common.Zero3
	}
	return d.Normalize()
}

// lateralInput maps the held movement keys onto the viewer's flattened look
// and right vectors. It returns the unit planar direction (zero inside the
// deadzone) and the strafe sign, +1 for right.
func lateralInput(in MoveInput, viewer Viewer) (common.Vec3, float64) {
	strafe := 0.0
	if in.Right {
		strafe++
	}
	if in.Left {
		strafe--
	}
	if viewer == nil {
		return common.Zero3, strafe
	}
	look := viewer.Look().Flatten().Normalize()
	right := viewer.Right().Flatten().Normalize()

	var sum common.Vec3
	if in.Forward {
		sum = sum.Add(look)
	}
	if in.Back {
		sum = sum.Sub(look)
	}
	if in.Right {
		sum = sum.Add(right)
	}
	if in.Left {
		sum = sum.Sub(right)
	}
	if sum.Len() < inputDeadzone {
		return common.Zero3, strafe
	}
	return sum.Normalize(), strafe
}

// step is one flight-control tick. It may end the session.
func (c *Controller) step(dt float64) {
	s := c.session
	body, ok := c.actor.Body()
	if !ok {
		c.End(false)
		return
	}
	if _, ok := c.actor.Controller(); !ok {
		c.End(false)
		return
	}

	pos := body.Position()
	if common.Distance(s.Target, pos) <= c.cfg.ArrivalDistance {
		c.End(true)
		return
	}

	s.Speed = math.Min(s.Speed+c.cfg.Acceleration*dt*common.TickRate, c.cfg.MaxReelSpeed)

	dir := directionTo(pos, s.Target)
	var move MoveInput
	if c.input != nil {
		move = c.input.Move()
	}
	lateral, strafe := lateralInput(move, c.viewer)

	s.actuators.SetVelocity(dir.Scale(s.Speed).Add(lateral.Scale(c.cfg.StrafeSpeed)))

	c.filter.Update(dt, strafe, dir, c.cfg.MaxLeanAngle, c.cfg.SmoothingRate)
	if pose := c.actor.Pose(); pose != nil {
		pose.SetOffset(c.filter.Lean, c.filter.Pitch)
	}
}
