package component

import "github.com/milk9111/grapplehook/common"

// Transform is a world-space position. Y is up; Z is the depth lane.
type Transform struct {
	X float64
	Y float64
	Z float64
}

func (t Transform) Vec() common.Vec3 {
	return common.V3(t.X, t.Y, t.Z)
}

func (t *Transform) SetVec(v common.Vec3) {
	t.X, t.Y, t.Z = v.X, v.Y, v.Z
}

var TransformComponent = NewComponent[Transform]()
