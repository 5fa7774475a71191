package system

import (
	"math"
	"testing"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/ecs/component"
	"github.com/milk9111/grapplehook/grapple"
	"github.com/milk9111/grapplehook/logger"
)

func mustAdd[T any](t *testing.T, w *ecs.World, e ecs.Entity, kind component.ComponentKind[T], v *T) {
	t.Helper()
	if err := ecs.Add(w, e, kind, v); err != nil {
		t.Fatalf("add %T: %v", v, err)
	}
}

func addBlock(t *testing.T, w *ecs.World, x, y, width, height float64) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	mustAdd(t, w, e, component.TerrainTagComponent.Kind(), &component.TerrainTag{})
	mustAdd(t, w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y})
	mustAdd(t, w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Width: width, Height: height, Friction: 0.9, Static: true})
	return e
}

func addBox(t *testing.T, w *ecs.World, x, y float64) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	mustAdd(t, w, e, component.TransformComponent.Kind(), &component.Transform{X: x, Y: y})
	mustAdd(t, w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{Width: 8, Height: 10, Depth: 8, Mass: 1, Friction: 0.8})
	return e
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestPhysicsBodyCreatedAndRemoved(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem(logger.Discard())
	box := addBox(t, w, 0, 50)

	if _, ok := ps.Body(box); ok {
		t.Fatal("body should not exist before the first sync")
	}
	ps.Update(w)
	body, ok := ps.Body(box)
	if !ok {
		t.Fatal("expected a body after update")
	}
	if body.Mass() != 1 {
		t.Fatalf("mass = %v, want 1", body.Mass())
	}
	pb, _ := ecs.Get(w, box, component.PhysicsBodyComponent.Kind())
	if pb.Body == nil || pb.Shape == nil {
		t.Fatal("component should carry the chipmunk body and shape")
	}

	ecs.DestroyEntity(w, box)
	ps.Update(w)
	if _, ok := ps.Body(box); ok {
		t.Fatal("body should be gone once its entity is destroyed")
	}
}

func TestPhysicsBoxSettlesOnFloor(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem(logger.Discard())
	addBlock(t, w, 0, -5, 400, 10)
	box := addBox(t, w, 0, 30)

	for i := 0; i < 180; i++ {
		ps.Update(w)
	}
	tr, _ := ecs.Get(w, box, component.TransformComponent.Kind())
	if !near(tr.Y, 5, 0.5) {
		t.Fatalf("box rests at y=%v, want about 5", tr.Y)
	}
	if !ps.Grounded(box, groundProbe) {
		t.Fatal("resting box should be grounded")
	}
}

func TestGrounded(t *testing.T) {
	cases := []struct {
		name string
		y    float64
		want bool
	}{
		{"resting", 5, true},
		{"just_above", 5.3, true},
		{"airborne", 40, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := ecs.NewWorld()
			ps := NewPhysicsSystem(logger.Discard())
			addBlock(t, w, 0, -5, 400, 10)
			box := addBox(t, w, 0, c.y)
			ps.Sync(w)
			if got := ps.Grounded(box, groundProbe); got != c.want {
				t.Fatalf("Grounded = %v, want %v", got, c.want)
			}
		})
	}
}

func TestTrace(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem(logger.Discard())
	block := addBlock(t, w, 0, 50, 20, 10)
	box := addBox(t, w, 0, 20)
	ps.Sync(w)

	cases := []struct {
		name       string
		origin     common.Vec3
		dir        common.Vec3
		maxDist    float64
		exclude    map[ecs.Entity]bool
		staticOnly bool
		wantHit    bool
		wantEntity ecs.Entity
		wantY      float64
	}{
		{"hits_box_first", common.V3(0, 0, 0), common.V3(0, 1, 0), 100, nil, false, true, box, 15},
		{"static_only_skips_box", common.V3(0, 0, 0), common.V3(0, 1, 0), 100, nil, true, true, block, 45},
		{"exclude_box", common.V3(0, 0, 0), common.V3(0, 1, 0), 100, map[ecs.Entity]bool{box: true}, false, true, block, 45},
		{"out_of_range", common.V3(0, 0, 0), common.V3(0, 1, 0), 10, nil, false, false, 0, 0},
		{"miss_sideways", common.V3(0, 0, 0), common.V3(1, 0, 0), 100, nil, false, false, 0, 0},
		{"box_depth_bounds", common.V3(0, 0, 20), common.V3(0, 1, 0), 100, nil, false, true, block, 45},
		{"zero_dir", common.V3(0, 0, 0), common.Zero3, 100, nil, false, false, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			hit, ok := ps.Trace(c.origin, c.dir, c.maxDist, c.exclude, c.staticOnly)
			if ok != c.wantHit {
				t.Fatalf("hit = %v, want %v", ok, c.wantHit)
			}
			if !ok {
				return
			}
			if hit.Entity != c.wantEntity {
				t.Fatalf("hit entity %v, want %v", hit.Entity, c.wantEntity)
			}
			if !near(hit.Point.Y, c.wantY, 1e-6) {
				t.Fatalf("hit y = %v, want %v", hit.Point.Y, c.wantY)
			}
		})
	}
}

func TestVelocityDriveTracksTarget(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem(logger.Discard())
	box := addBox(t, w, 0, 100)
	ps.Sync(w)

	body, _ := ps.Body(box)
	anchor, err := body.AttachAnchor()
	if err != nil {
		t.Fatalf("AttachAnchor: %v", err)
	}
	drive := anchor.NewVelocityActuator(1e7)

	ps.Update(w)
	if v := body.Velocity(); v.Y >= 0 {
		t.Fatalf("a disengaged drive should leave gravity alone, vy=%v", v.Y)
	}

	drive.SetVelocity(common.V3(30, 0, 10))
	ps.Update(w)
	v := body.Velocity()
	if !near(v.X, 30, 1e-6) || !near(v.Y, 0, 1e-6) || !near(v.Z, 10, 1e-6) {
		t.Fatalf("velocity = %+v, want (30, 0, 10)", v)
	}
	tr, _ := ecs.Get(w, box, component.TransformComponent.Kind())
	if !near(tr.Z, 10.0/common.TickRate, 1e-6) {
		t.Fatalf("depth lane z = %v, want %v", tr.Z, 10.0/common.TickRate)
	}

	drive.Destroy()
	ps.Update(w)
	if v := body.Velocity(); v.Y >= 0 {
		t.Fatalf("gravity should resume after the drive is destroyed, vy=%v", v.Y)
	}
}

func TestForceActuatorCancelsGravity(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem(logger.Discard())
	box := addBox(t, w, 0, 100)
	ps.Sync(w)

	body, _ := ps.Body(box)
	anchor, _ := body.AttachAnchor()
	f := anchor.NewForceActuator(common.V3(0, body.Mass()*common.Gravity, 0))

	for i := 0; i < 10; i++ {
		ps.Update(w)
	}
	if v := body.Velocity(); !near(v.Y, 0, 1e-6) {
		t.Fatalf("counter force should hold vy at 0, got %v", v.Y)
	}

	f.Destroy()
	ps.Update(w)
	if v := body.Velocity(); !near(v.Y, -common.Gravity/common.TickRate, 1e-6) {
		t.Fatalf("vy = %v after removing the force, want %v", v.Y, -common.Gravity/common.TickRate)
	}
}

func TestTeleport(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem(logger.Discard())
	box := addBox(t, w, 0, 100)
	block := addBlock(t, w, 0, -5, 100, 10)
	ps.Update(w)

	if !ps.Teleport(box, common.V3(10, 20, 3)) {
		t.Fatal("Teleport should succeed for a dynamic body")
	}
	body, _ := ps.Body(box)
	if p := body.Position(); p != common.V3(10, 20, 3) {
		t.Fatalf("position = %+v", p)
	}
	if v := body.Velocity(); !v.IsZero() {
		t.Fatalf("velocity = %+v, want zero", v)
	}
	if ps.Teleport(block, common.Zero3) {
		t.Fatal("static bodies cannot be teleported")
	}
}

func TestRaycasterReportsOwner(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem(logger.Discard())
	block := addBlock(t, w, 0, 50, 20, 10)
	box := addBox(t, w, 0, 20)
	ps.Sync(w)

	r := NewRaycaster(ps)
	hit, ok := r.Raycast(common.Zero3, common.V3(0, 1, 0), 100, nil)
	if !ok || hit.Owner != ActorID(box) || !hit.HasOwner {
		t.Fatalf("expected to hit the box, got %+v ok=%v", hit, ok)
	}
	hit, ok = r.Raycast(common.Zero3, common.V3(0, 1, 0), 100, []grapple.ActorID{ActorID(box)})
	if !ok || hit.Owner != ActorID(block) {
		t.Fatalf("expected to hit the block past the excluded box, got %+v ok=%v", hit, ok)
	}
}
