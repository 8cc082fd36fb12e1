package server

import (
	"testing"

	"tickforge/core"
)

func TestEventBufferPushAndRetrieve(t *testing.T) {
	b := NewEventBuffer[string](8)
	b.Push(1, "a")
	b.Push(2, "b")

	events, cursor := b.GetFromCursor(0)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Event != "a" || events[1].Event != "b" {
		t.Fatalf("got %v", events)
	}
	if cursor != 2 {
		t.Fatalf("cursor = %d, want 2", cursor)
	}
}

func TestEventBufferCursorContinuation(t *testing.T) {
	b := NewEventBuffer[string](8)
	b.Push(1, "a")
	events, cursor := b.GetFromCursor(0)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}

	b.Push(2, "b")
	b.Push(3, "c")
	events, cursor = b.GetFromCursor(cursor)
	if len(events) != 2 || events[0].Event != "b" || events[1].Event != "c" {
		t.Fatalf("got %v", events)
	}
	if cursor != 3 {
		t.Fatalf("cursor = %d, want 3", cursor)
	}
}

func TestEventBufferOverflowDropsOld(t *testing.T) {
	b := NewEventBuffer[string](3)
	b.Push(1, "a")
	b.Push(2, "b")
	b.Push(3, "c")
	b.Push(4, "d")

	events, _ := b.GetFromCursor(0)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Sequence != 1 {
		t.Fatalf("first surviving sequence = %d, want 1 (sequence 0 dropped)", events[0].Sequence)
	}
}

func TestEventBufferCursorPastAvailable(t *testing.T) {
	b := NewEventBuffer[int](3)
	for i := 0; i < 10; i++ {
		b.Push(core.Tick(i), i)
	}
	events, _ := b.GetFromCursor(0)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Sequence != 7 {
		t.Fatalf("first sequence = %d, want 7", events[0].Sequence)
	}
}

func TestEventBufferEmpty(t *testing.T) {
	b := NewEventBuffer[int](4)
	events, cursor := b.GetFromCursor(0)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
	if cursor != 0 {
		t.Fatalf("cursor = %d, want 0", cursor)
	}
}

func TestEventBufferCursorAtEnd(t *testing.T) {
	b := NewEventBuffer[int](4)
	b.Push(1, 1)
	b.Push(2, 2)
	events, cursor := b.GetFromCursor(core.EventCursor(2))
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
	if cursor != 2 {
		t.Fatalf("cursor = %d, want 2", cursor)
	}
}
