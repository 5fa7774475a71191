package grapple

import (
	"fmt"
	"log/slog"

	"github.com/milk9111/grapplehook/logger"
)

// suspendedFlags are the native states that would fight a velocity override.
var suspendedFlags = []LocomotionFlag{FlagFallingDown, FlagRagdoll, FlagGettingUp}

// lockRecord is populated when refcount goes 0→1 and restored and cleared
// when it goes 1→0.
type lockRecord struct {
	refcount int
	saved    map[LocomotionFlag]bool
	ctl      LocomotionController
}

// LockGuard suspends an actor's interrupting locomotion states while one or
// more grapple sessions hold a token for it.
type LockGuard struct {
	records map[ActorID]*lockRecord
	log     *slog.Logger
}

// LockToken is the owning handle returned by Acquire.
type LockToken struct {
	guard    *LockGuard
	actor    ActorID
	record   *lockRecord
	released bool
}

func NewLockGuard(lg *slog.Logger) *LockGuard {
	if lg == nil {
		lg = logger.L()
	}
	return &LockGuard{
		records: make(map[ActorID]*lockRecord),
		log:     lg,
	}
}

// Acquire suspends the actor's interrupt states, snapshotting them on the
// first acquisition only.
func (g *LockGuard) Acquire(actor ActorID, ctl LocomotionController) *LockToken {
	rec := g.records[actor]
	if rec == nil {
		rec = &lockRecord{ctl: ctl}
		g.records[actor] = rec
	}
	if rec.refcount == 0 {
		rec.ctl = ctl
		rec.saved = make(map[LocomotionFlag]bool, len(suspendedFlags))
		for _, f := range suspendedFlags {
			r := readFlag(ctl, f)
			if r.err != nil {
				g.log.Debug("lock guard: read flag failed", "actor", uint64(actor), "flag", f.String(), "err", r.err)
			}
			rec.saved[f] = r.value
		}
		for _, f := range suspendedFlags {
			if r := writeFlag(ctl, f, false); r.err != nil {
				g.log.Debug("lock guard: disable flag failed", "actor", uint64(actor), "flag", f.String(), "err", r.err)
			}
		}
	}
	rec.refcount++
	return &LockToken{guard: g, actor: actor, record: rec}
}

// Release drops this token's hold. Only the last release restores state.
// Releasing twice is a no-op.
func (t *LockToken) Release() {
	if t == nil || t.released || t.guard == nil {
		return
	}
	t.released = true
	g := t.guard
	rec := g.records[t.actor]
	if rec == nil || rec != t.record {
		// force-released while this token was outstanding
		return
	}
	rec.refcount--
	if rec.refcount > 0 {
		return
	}
	g.restore(t.actor, rec)
	delete(g.records, t.actor)
}

// Released reports whether Release has been called on this token.
func (t *LockToken) Released() bool {
	return t == nil || t.released
}

// ForceRelease restores whatever snapshot exists regardless of refcount and
// clears the record. Used when an actor is torn down mid-session.
func (g *LockGuard) ForceRelease(actor ActorID) {
	rec := g.records[actor]
	if rec == nil {
		return
	}
	g.restore(actor, rec)
	delete(g.records, actor)
}

func (g *LockGuard) restore(actor ActorID, rec *lockRecord) {
	for _, f := range suspendedFlags {
		enabled, ok := rec.saved[f]
		if !ok {
			enabled = true
		}
		if r := writeFlag(rec.ctl, f, enabled); r.err != nil {
			g.log.Debug("lock guard: restore flag failed", "actor", uint64(actor), "flag", f.String(), "err", r.err)
		}
	}
	rec.saved = nil
	rec.refcount = 0
}

// RefCount returns the number of outstanding tokens for actor.
func (g *LockGuard) RefCount(actor ActorID) int {
	if rec := g.records[actor]; rec != nil {
		return rec.refcount
	}
	return 0
}

// Sweep drops records of actors that are no longer alive. It returns the
// number of records reclaimed.
func (g *LockGuard) Sweep(alive func(ActorID) bool) int {
	n := 0
	for id := range g.records {
		if alive(id) {
			continue
		}
		delete(g.records, id)
		n++
	}
	return n
}

// flagResult is the outcome of a best-effort flag access.
type flagResult struct {
	value bool
	err   error
}

// readFlag treats any failure as "was enabled".
func readFlag(ctl LocomotionController, f LocomotionFlag) (r flagResult) {
	r.value = true
	if ctl == nil {
		r.err = fmt.Errorf("no controller")
		return r
	}
	defer func() {
		if p := recover(); p != nil {
			r = flagResult{value: true, err: fmt.Errorf("panic: %v", p)}
		}
	}()
	v, err := ctl.StateEnabled(f)
	if err != nil {
		r.err = err
		return r
	}
	r.value = v
	return r
}

func writeFlag(ctl LocomotionController, f LocomotionFlag, enabled bool) (r flagResult) {
	r.value = enabled
	if ctl == nil {
		r.err = fmt.Errorf("no controller")
		return r
	}
	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("panic: %v", p)
		}
	}()
	r.err = ctl.SetStateEnabled(f, enabled)
	return r
}
