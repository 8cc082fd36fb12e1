package server

import "tickforge/core"

// EventBuffer is a fixed-capacity, cursor-addressed event log for one
// match. Push overwrites silently on wrap; GetFromCursor skips any slot
// whose stored sequence no longer matches the requested one (it was
// overwritten by a later push), which is how a reader detects loss: the
// returned cursor jumps ahead of what they asked for.
type EventBuffer[E any] struct {
	buffer       []serverEventSlot[E]
	capacity     int
	nextSequence core.EventSequence
}

type serverEventSlot[E any] struct {
	valid bool
	entry ServerEvent[E]
}

// NewEventBuffer constructs a ring of the given capacity. Capacity must
// be at least 1.
func NewEventBuffer[E any](capacity int) *EventBuffer[E] {
	if capacity < 1 {
		capacity = 1
	}
	return &EventBuffer[E]{
		buffer:   make([]serverEventSlot[E], capacity),
		capacity: capacity,
	}
}

// Push assigns the next sequence number, tags it with tick, and stores
// it at seq mod capacity, overwriting whatever was there.
func (b *EventBuffer[E]) Push(tick core.Tick, event E) core.EventSequence {
	seq := b.nextSequence
	b.nextSequence++

	slot := int(uint64(seq) % uint64(b.capacity))
	b.buffer[slot] = serverEventSlot[E]{
		valid: true,
		entry: ServerEvent[E]{Sequence: seq, Tick: tick, Event: event},
	}
	return seq
}

// GetFromCursor returns every still-available event with sequence in
// [max(cursor, oldestAvailable), nextSequence), in sequence order, along
// with the cursor to resume from (always nextSequence).
func (b *EventBuffer[E]) GetFromCursor(cursor core.EventCursor) ([]ServerEvent[E], core.EventCursor) {
	if b.nextSequence == 0 {
		return nil, 0
	}

	var oldestAvailable core.EventSequence
	if uint64(b.nextSequence) > uint64(b.capacity) {
		oldestAvailable = b.nextSequence - core.EventSequence(b.capacity)
	}

	effectiveStart := core.EventSequence(cursor)
	if effectiveStart < oldestAvailable {
		effectiveStart = oldestAvailable
	}

	var out []ServerEvent[E]
	for seq := effectiveStart; seq < b.nextSequence; seq++ {
		slot := b.buffer[int(uint64(seq)%uint64(b.capacity))]
		if slot.valid && slot.entry.Sequence == seq {
			out = append(out, slot.entry)
		}
	}
	return out, core.EventCursor(b.nextSequence)
}

// NextSequence returns the sequence that will be assigned to the next
// pushed event.
func (b *EventBuffer[E]) NextSequence() core.EventSequence { return b.nextSequence }

// OldestAvailable returns the lowest sequence still retrievable.
func (b *EventBuffer[E]) OldestAvailable() core.EventSequence {
	if uint64(b.nextSequence) > uint64(b.capacity) {
		return b.nextSequence - core.EventSequence(b.capacity)
	}
	return 0
}
