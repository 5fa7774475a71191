package system

import (
	"image/color"
	"math"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"golang.org/x/image/colornames"
)

// RenderSystem draws boxes for bodies and lines for ropes. It is a debug
// view, not an art pipeline.
type RenderSystem struct {
	proj *Projection
}

func NewRenderSystem(proj *Projection) *RenderSystem {
	if proj == nil {
		proj = NewProjection()
	}
	return &RenderSystem{proj: proj}
}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image) {
	if r == nil || w == nil || screen == nil {
		return
	}
	b := screen.Bounds()
	r.proj.Width, r.proj.Height = float64(b.Dx()), float64(b.Dy())

	screen.Fill(colornames.Midnightblue)

	entities := ecs.Query(w, component.TransformComponent.Kind().ID(), component.PhysicsBodyComponent.Kind().ID())
	// far lanes first
	sort.SliceStable(entities, func(i, j int) bool {
		ti, _ := ecs.Get(w, entities[i], component.TransformComponent.Kind())
		tj, _ := ecs.Get(w, entities[j], component.TransformComponent.Kind())
		return ti.Z > tj.Z
	})

	for _, e := range entities {
		t, _ := ecs.Get(w, e, component.TransformComponent.Kind())
		pb, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		r.drawBox(screen, t.Vec(), pb.Width, pb.Height, r.boxColor(w, e))

		if pose, ok := ecs.Get(w, e, component.PoseComponent.Kind()); ok && (pose.Lean != 0 || pose.Pitch != 0) {
			// a spine line shows the pose offset
			top := t.Vec().Add(common.V3(math.Sin(pose.Lean)*pb.Height/2, math.Cos(pose.Lean)*pb.Height/2, 0))
			r.line(screen, t.Vec(), top, 2, colornames.White)
		}
	}

	ecs.ForEach(w, component.LineRenderComponent.Kind(), func(e ecs.Entity, l *component.LineRender) {
		if !l.Visible {
			return
		}
		c := l.Color
		if c == nil {
			c = colornames.White
		}
		width := l.Width
		if width <= 0 {
			width = 1
		}
		r.lineAA(screen, l.Start, l.End, width, c, l.AntiAlias)
		x, y := r.proj.ToScreen(l.End)
		vector.FillCircle(screen, float32(x), float32(y), 3, colornames.Gold, true)
	})
}

func (r *RenderSystem) boxColor(w *ecs.World, e ecs.Entity) color.Color {
	switch {
	case ecs.Has(w, e, component.PlayerTagComponent.Kind()):
		if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok && h.Dead {
			return colornames.Darkred
		}
		return colornames.Crimson
	case ecs.Has(w, e, component.ActorComponent.Kind()):
		return colornames.Steelblue
	default:
		return colornames.Dimgray
	}
}

func (r *RenderSystem) drawBox(screen *ebiten.Image, center common.Vec3, width, height float64, c color.Color) {
	x0, y0 := r.proj.ToScreen(center.Add(common.V3(-width/2, height/2, 0)))
	x1, y1 := r.proj.ToScreen(center.Add(common.V3(width/2, -height/2, 0)))
	vector.FillRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), c, false)
	vector.StrokeRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), 1, colornames.Black, false)
}

func (r *RenderSystem) line(screen *ebiten.Image, a, b common.Vec3, width float32, c color.Color) {
	r.lineAA(screen, a, b, width, c, false)
}

func (r *RenderSystem) lineAA(screen *ebiten.Image, a, b common.Vec3, width float32, c color.Color, aa bool) {
	x0, y0 := r.proj.ToScreen(a)
	x1, y1 := r.proj.ToScreen(b)
	vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), width, c, aa)
}
