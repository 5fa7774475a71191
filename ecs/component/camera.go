package component

import "github.com/milk9111/grapplehook/common"

// Camera is a side-on view. Look and Right are the planar basis lateral
// grapple input is mapped onto.
type Camera struct {
	TargetName string
	Zoom       float64
	Smoothness float64
	Look       common.Vec3
	Right      common.Vec3
}

var CameraComponent = NewComponent[Camera]()

type CameraTag struct{}

var CameraTagComponent = NewComponent[CameraTag]()
