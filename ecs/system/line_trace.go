package system

import (
	"math"

	"github.com/milk9111/grapplehook/common"
	"github.com/milk9111/grapplehook/ecs"
	"github.com/milk9111/grapplehook/grapple"
)

// TraceHit is the nearest box a segment touches.
type TraceHit struct {
	Point  common.Vec3
	Entity ecs.Entity
	T      float64
}

// Trace walks every body box and returns the nearest hit along
// origin + dir*maxDist. Boxes of excluded entities are skipped; staticOnly
// limits the query to level geometry.
func (ps *PhysicsSystem) Trace(origin, dir common.Vec3, maxDist float64, exclude map[ecs.Entity]bool, staticOnly bool) (TraceHit, bool) {
	dir = dir.Normalize()
	if dir.IsZero() || maxDist <= 0 {
		return TraceHit{}, false
	}
	delta := dir.Scale(maxDist)

	best := TraceHit{T: math.Inf(1)}
	hasHit := false
	for e, info := range ps.entities {
		if info.removed || exclude[e] || (staticOnly && !info.static) {
			continue
		}
		lo, hi := info.bounds()
		hit, t := segmentBoxHit(origin, delta, lo, hi)
		if !hit {
			continue
		}
		// ties go to the lower slot so results do not depend on map order
		if t < best.T || (t == best.T && e < best.Entity) {
			best = TraceHit{T: t, Entity: e}
			hasHit = true
		}
	}
	if !hasHit {
		return TraceHit{}, false
	}
	best.Point = origin.Add(delta.Scale(best.T))
	return best, true
}

func (info *bodyInfo) bounds() (lo, hi common.Vec3) {
	c := info.center
	z := info.z
	if !info.static {
		c = info.body.Position()
	}
	halfD := info.depth / 2
	if info.depth <= 0 {
		halfD = math.Inf(1)
		z = 0
	}
	lo = common.V3(c.X-info.halfW, c.Y-info.halfH, z-halfD)
	hi = common.V3(c.X+info.halfW, c.Y+info.halfH, z+halfD)
	return lo, hi
}

// segmentBoxHit is the slab test for origin + delta*t, t in [0, 1].
func segmentBoxHit(origin, delta, lo, hi common.Vec3) (bool, float64) {
	tmin := 0.0
	tmax := 1.0
	axes := [3][4]float64{
		{origin.X, delta.X, lo.X, hi.X},
		{origin.Y, delta.Y, lo.Y, hi.Y},
		{origin.Z, delta.Z, lo.Z, hi.Z},
	}
	for _, a := range axes {
		o, d, minV, maxV := a[0], a[1], a[2], a[3]
		if d == 0 {
			if o < minV || o > maxV {
				return false, 0
			}
			continue
		}
		invD := 1.0 / d
		t1 := (minV - o) * invD
		t2 := (maxV - o) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}
	if tmax >= tmin {
		return true, tmin
	}
	return false, 0
}

// Grounded reports whether level geometry lies within probe below e's feet.
func (ps *PhysicsSystem) Grounded(e ecs.Entity, probe float64) bool {
	info, ok := ps.entities[e]
	if !ok || info.static || info.removed {
		return false
	}
	p := info.body.Position()
	feet := common.V3(p.X, p.Y-info.halfH+0.01, info.z)
	_, hit := ps.Trace(feet, common.V3(0, -1, 0), probe+0.01, nil, true)
	return hit
}

// Raycaster adapts Trace to grapple.Raycaster.
type Raycaster struct {
	ps *PhysicsSystem
}

func NewRaycaster(ps *PhysicsSystem) *Raycaster {
	return &Raycaster{ps: ps}
}

func (r *Raycaster) Raycast(origin, dir common.Vec3, maxDist float64, exclude []grapple.ActorID) (grapple.RayHit, bool) {
	skip := make(map[ecs.Entity]bool, len(exclude))
	for _, id := range exclude {
		skip[ecs.Entity(id)] = true
	}
	hit, ok := r.ps.Trace(origin, dir, maxDist, skip, false)
	if !ok {
		return grapple.RayHit{}, false
	}
	return grapple.RayHit{Point: hit.Point, Owner: grapple.ActorID(hit.Entity), HasOwner: true}, true
}
