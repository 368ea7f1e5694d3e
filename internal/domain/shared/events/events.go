package events

import "time"

// DomainEvent is a fact recorded by an aggregate and relayed through the
// outbox after the unit of work commits.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects pending events; aggregates embed it.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// Drain returns the pending events and clears them.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

// Topic is the stream an event name belongs to: the part before the first dot.
func Topic(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			if i == 0 {
				return name
			}
			return name[:i]
		}
	}
	return name
}
