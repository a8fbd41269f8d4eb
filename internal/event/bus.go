package event

// Bus is an append-only queue of events owned by a single goroutine. Pull
// drains everything in firing order, Pop takes the most recently fired event.
// The sync engine relies on Pop to handle events produced while it is
// draining before older ones.
type Bus struct {
	events []Event
}

// Fire appends one event.
func (b *Bus) Fire(data Data, source, target Peer) {
	b.events = append(b.events, Event{Data: data, Source: source, Target: target})
}

// FireAll appends events keeping their relative order.
func (b *Bus) FireAll(events []Event) {
	b.events = append(b.events, events...)
}

// Pull removes and returns every queued event, oldest first.
func (b *Bus) Pull() []Event {
	events := b.events
	b.events = nil
	return events
}

// Pop removes and returns the most recently fired event.
func (b *Bus) Pop() (Event, bool) {
	n := len(b.events)
	if n == 0 {
		return Event{}, false
	}
	ev := b.events[n-1]
	b.events[n-1] = Event{}
	b.events = b.events[:n-1]
	return ev, true
}

// Len reports the number of queued events.
func (b *Bus) Len() int {
	return len(b.events)
}
