package system

import (
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
)

// Projection maps world XY (Y up) to screen pixels. Depth is drawn as an
// oblique offset so the Z lane stays readable on a flat screen.
type Projection struct {
	CamX, CamY float64
	Zoom       float64
	Width      float64
	Height     float64
	DepthSkew  float64
}

func NewProjection() *Projection {
	return &Projection{Zoom: 1, DepthSkew: 0.4}
}

func (p *Projection) zoom() float64 {
	if p.Zoom <= 0 {
		return 1
	}
	return p.Zoom
}

// ToScreen projects a world point.
func (p *Projection) ToScreen(v common.Vec3) (float64, float64) {
	z := p.zoom()
	x := (v.X-p.CamX+v.Z*p.DepthSkew)*z + p.Width/2
	y := -(v.Y-p.CamY+v.Z*p.DepthSkew)*z + p.Height/2
	return x, y
}

// ToWorld inverts ToScreen on the Z = 0 plane.
func (p *Projection) ToWorld(sx, sy float64) common.Vec3 {
	z := p.zoom()
	return common.V3((sx-p.Width/2)/z+p.CamX, -(sy-p.Height/2)/z+p.CamY, 0)
}

type CameraSystem struct {
	camEntity    ecs.Entity
	targetEntity ecs.Entity
	proj         *Projection
}

func NewCameraSystem(proj *Projection) *CameraSystem {
	if proj == nil {
		proj = NewProjection()
	}
	return &CameraSystem{proj: proj}
}

func (cs *CameraSystem) Projection() *Projection { return cs.proj }

// Update eases the camera toward its target and publishes the projection.
func (cs *CameraSystem) Update(w *ecs.World) {
	if !cs.camEntity.Valid() || !ecs.IsAlive(w, cs.camEntity) {
		camEntity, ok := ecs.First(w, component.CameraComponent.Kind())
		if !ok {
			return
		}
		cs.camEntity = camEntity
		cs.targetEntity = 0
	}
	cam, ok := ecs.Get(w, cs.camEntity, component.CameraComponent.Kind())
	if !ok {
		return
	}
	if cam.Look.IsZero() {
		cam.Look = common.V3(0, 0, 1)
	}
	if cam.Right.IsZero() {
		cam.Right = common.V3(1, 0, 0)
	}

	if !cs.targetEntity.Valid() || !ecs.IsAlive(w, cs.targetEntity) {
		cs.targetEntity = findEntityByNameOrTag(w, cam.TargetName)
	}

	camTransform, ok := ecs.Get(w, cs.camEntity, component.TransformComponent.Kind())
	if !ok {
		return
	}
	if target, ok := ecs.Get(w, cs.targetEntity, component.TransformComponent.Kind()); ok {
		smooth := common.Clamp(cam.Smoothness, 0, 0.99)
		camTransform.X = common.Lerp(target.X, camTransform.X, smooth)
		camTransform.Y = common.Lerp(target.Y, camTransform.Y, smooth)
	}

	cs.proj.CamX = camTransform.X
	cs.proj.CamY = camTransform.Y
	if cam.Zoom > 0 {
		cs.proj.Zoom = cam.Zoom
	}
}

func findEntityByNameOrTag(w *ecs.World, name string) ecs.Entity {
	if name == "" || name == "player" {
		if e, ok := ecs.First(w, component.PlayerTagComponent.Kind()); ok {
			return e
		}
	}
	var found ecs.Entity
	ecs.ForEach(w, component.ActorComponent.Kind(), func(e ecs.Entity, a *component.Actor) {
		if !found.Valid() && a.Name == name {
			found = e
		}
	})
	return found
}
