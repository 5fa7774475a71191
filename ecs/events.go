package ecs

// EventType names an event kind.
type EventType string

const (
	// EventActorSpawned fires when an actor entity is fully assembled.
	EventActorSpawned EventType = "actor_spawned"
	// EventActorDied fires once when an actor's health reaches zero.
	EventActorDied EventType = "actor_died"
	// EventEntityRemoved fires for every destroyed entity.
	EventEntityRemoved EventType = "entity_removed"
	// EventTrackFinished fires when a non-looping animation track ends. Data
	// holds the track name.
	EventTrackFinished EventType = "track_finished"
)

// Event is an ECS event payload.
type Event struct {
	Type   EventType
	Entity Entity
	Data   any
}

// EventQueue is double buffered: events pushed during a frame become readable
// after the frame's flush and stay readable for exactly one frame.
type EventQueue struct {
	current []Event
	next    []Event
}

// Push queues an event for the next frame.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.next = append(q.next, evt)
}

// Items returns the events readable this frame. Callers must not modify it.
func (q *EventQueue) Items() []Event {
	if q == nil {
		return nil
	}
	return q.current
}

// Each calls fn for every readable event of type t.
func (q *EventQueue) Each(t EventType, fn func(Event)) {
	for _, evt := range q.Items() {
		if evt.Type == t {
			fn(evt)
		}
	}
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.current = q.next
	q.next = nil
}
