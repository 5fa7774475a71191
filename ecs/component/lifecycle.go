package component

import "github.com/milk9111/grapplehook/common"

// Respawn returns a dead actor to Point after Delay frames.
type Respawn struct {
	Point common.Vec3
	Delay int
	Timer int
}

var RespawnComponent = NewComponent[Respawn]()
