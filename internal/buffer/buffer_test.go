package buffer

import (
	"path/filepath"
	"testing"

	"github.com/cairnwatch/siemguard/internal/event"
)

func ev(n string) event.SecurityEvent {
	return event.SecurityEvent{Source: "syslog", RawLog: n, Timestamp: "2026-07-30T00:00:00Z"}
}

func TestAddEventStaysInMemoryUnderCapacity(t *testing.T) {
	b := New(10, filepath.Join(t.TempDir(), "spill.jsonl"))
	if err := b.AddEvent(ev("1")); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}
	if b.IsEmpty() {
		t.Fatalf("expected non-empty buffer")
	}
}

func TestAddEventSpillsOverCapacity(t *testing.T) {
	b := New(2, filepath.Join(t.TempDir(), "spill.jsonl"))
	for _, n := range []string{"1", "2", "3"} {
		if err := b.AddEvent(ev(n)); err != nil {
			t.Fatalf("AddEvent: %v", err)
		}
	}
	if b.Size() != 3 {
		t.Fatalf("expected size 3 (2 in memory + 1 spilled), got %d", b.Size())
	}
}

func TestGetBatchDrainsMemoryThenSpillInFIFOOrder(t *testing.T) {
	b := New(2, filepath.Join(t.TempDir(), "spill.jsonl"))
	for _, n := range []string{"1", "2", "3", "4"} {
		if err := b.AddEvent(ev(n)); err != nil {
			t.Fatalf("AddEvent: %v", err)
		}
	}
	batch, err := b.GetBatch(3)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("expected 3 events, got %d", len(batch))
	}
	for i, want := range []string{"1", "2", "3"} {
		if batch[i].RawLog != want {
			t.Fatalf("batch[%d] = %q, want %q", i, batch[i].RawLog, want)
		}
	}
	rest, err := b.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(rest) != 1 || rest[0].RawLog != "4" {
		t.Fatalf("expected remaining event 4, got %v", rest)
	}
}

func TestClearRemovesMemoryAndSpill(t *testing.T) {
	b := New(1, filepath.Join(t.TempDir(), "spill.jsonl"))
	for _, n := range []string{"1", "2"} {
		if err := b.AddEvent(ev(n)); err != nil {
			t.Fatalf("AddEvent: %v", err)
		}
	}
	if err := b.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !b.IsEmpty() {
		t.Fatalf("expected empty buffer after Clear")
	}
}

func TestRequeueAppendsToTail(t *testing.T) {
	b := New(5, filepath.Join(t.TempDir(), "spill.jsonl"))
	if err := b.AddEvent(ev("1")); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	batch, _ := b.GetBatch(1)
	if err := b.Requeue(batch); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if b.Size() != 1 {
		t.Fatalf("expected requeued event to reappear, got size %d", b.Size())
	}
}

func TestIsEmptyTrueWhenBothEmpty(t *testing.T) {
	b := New(5, filepath.Join(t.TempDir(), "spill.jsonl"))
	if !b.IsEmpty() {
		t.Fatalf("expected new buffer to be empty")
	}
}
