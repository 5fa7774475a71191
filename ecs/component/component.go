package component

import (
	"errors"
	"reflect"
	"sync"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// ComponentID identifies one component store in a World. IDs are dense and
// start at 1 in registration order.
type ComponentID uint32

var registry struct {
	mu    sync.RWMutex
	names []string
}

// Name is the Go type name the ID was registered for.
func (id ComponentID) Name() string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if id == 0 || int(id) > len(registry.names) {
		return "invalid"
	}
	return registry.names[id-1]
}

// ComponentKind is the typed key of a component store. The zero value is
// invalid.
type ComponentKind[T any] struct {
	id ComponentID
}

func NewComponentKind[T any]() ComponentKind[T] {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.names = append(registry.names, reflect.TypeFor[T]().Name())
	return ComponentKind[T]{id: ComponentID(len(registry.names))}
}

func (k ComponentKind[T]) ID() ComponentID { return k.id }

func (k ComponentKind[T]) Valid() bool { return k.id != 0 }

// ComponentHandle is what component files export, one per type.
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] { return h.kind }
