// Package buffer implements the agent's persistent spill buffer: a
// bounded in-memory FIFO that overflows to a JSON-lines file on disk once
// capacity is exceeded.
package buffer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cairnwatch/siemguard/internal/event"
)

// Buffer is a FIFO queue of events bounded in memory by capacity; once
// full, new events spill to a file on disk. All exported methods are safe
// for concurrent use, but never hold the lock across disk I/O longer than
// one bounded batch operation.
type Buffer struct {
	capacity  int
	spillPath string

	mu     sync.Mutex
	memory []event.SecurityEvent
}

// New returns a Buffer holding up to capacity events in memory before
// overflow events spill to spillPath.
func New(capacity int, spillPath string) *Buffer {
	return &Buffer{capacity: capacity, spillPath: spillPath}
}

// AddEvent appends e to the buffer: into memory while there is room and
// the spill file is empty, otherwise appended as one JSON line to the
// spill file.
func (b *Buffer) AddEvent(e event.SecurityEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.memory) < b.capacity {
		// Once events have spilled, later ones queue behind them on disk so
		// GetBatch (memory first, then spill) keeps FIFO order.
		if info, err := os.Stat(b.spillPath); err != nil || info.Size() == 0 {
			b.memory = append(b.memory, e)
			return nil
		}
	}
	return b.appendSpillLocked(e)
}

func (b *Buffer) appendSpillLocked(e event.SecurityEvent) error {
	f, err := os.OpenFile(b.spillPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("buffer: open spill file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(e.ToJSON() + "\n"); err != nil {
		return fmt.Errorf("buffer: write spill file: %w", err)
	}
	return nil
}

// GetBatch drains up to n events in FIFO order: memory first, then the
// spill file's head, truncating the consumed prefix from disk.
func (b *Buffer) GetBatch(n int) ([]event.SecurityEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var batch []event.SecurityEvent
	take := n
	if take > len(b.memory) {
		take = len(b.memory)
	}
	batch = append(batch, b.memory[:take]...)
	b.memory = b.memory[take:]
	remaining := n - take
	if remaining <= 0 {
		return batch, nil
	}

	fromSpill, err := b.drainSpillLocked(remaining)
	if err != nil {
		return batch, err
	}
	batch = append(batch, fromSpill...)
	return batch, nil
}

func (b *Buffer) drainSpillLocked(n int) ([]event.SecurityEvent, error) {
	data, err := os.ReadFile(b.spillPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("buffer: read spill file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	take := n
	if take > len(lines) {
		take = len(lines)
	}

	var out []event.SecurityEvent
	for _, line := range lines[:take] {
		e, err := event.FromJSON(line)
		if err != nil {
			continue
		}
		out = append(out, e)
	}

	remainder := lines[take:]
	if len(remainder) == 0 {
		if err := os.Remove(b.spillPath); err != nil && !os.IsNotExist(err) {
			return out, fmt.Errorf("buffer: remove drained spill file: %w", err)
		}
		return out, nil
	}
	if err := os.WriteFile(b.spillPath, []byte(strings.Join(remainder, "\n")+"\n"), 0644); err != nil {
		return out, fmt.Errorf("buffer: rewrite spill file: %w", err)
	}
	return out, nil
}

// Requeue appends events back onto the tail of the buffer, preserving
// at-least-once delivery when a send attempt fails.
func (b *Buffer) Requeue(events []event.SecurityEvent) error {
	for _, e := range events {
		if err := b.AddEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties both the in-memory queue and the spill file.
func (b *Buffer) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.memory = nil
	if err := os.Remove(b.spillPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("buffer: remove spill file: %w", err)
	}
	return nil
}

// IsEmpty reports whether both the in-memory queue and the spill file are
// empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.memory) > 0 {
		return false
	}
	info, err := os.Stat(b.spillPath)
	if err != nil {
		return true
	}
	return info.Size() == 0
}

// Size returns the total number of buffered events, in memory and spilled
// to disk combined. It is intended for status reporting, not the hot
// path, since it reads the spill file line by line.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := len(b.memory)
	f, err := os.Open(b.spillPath)
	if err != nil {
		return count
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		count++
	}
	return count
}
