package ecs

import (
	"fmt"
	"log/slog"
)

// Entity is a weak actor reference. The low half is the slot and the high
// half the generation; a recycled slot bumps its generation, so holders of an
// old handle see it as dead instead of aliasing the new occupant.
type Entity uint64

type entityID uint32
type generation uint32

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID { return entityID(e) }

func (e Entity) generation() generation { return generation(e >> entityIDBits) }

// Slot is the storage index, shared by every generation of the entity.
func (e Entity) Slot() uint32 { return uint32(e.id()) }

// String renders slot and generation, e.g. "7#2".
func (e Entity) String() string {
	return fmt.Sprintf("%d#%d", e.id(), e.generation())
}

// LogValue lets loggers take an Entity directly.
func (e Entity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("slot", uint64(e.id())),
		slog.Uint64("gen", uint64(e.generation())),
	)
}

// Valid reports whether e was ever issued. Liveness is IsAlive's job.
func (e Entity) Valid() bool {
	return e.id() != 0
}
