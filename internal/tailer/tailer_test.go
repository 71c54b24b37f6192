package tailer

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestCollectReadsNewLinesOnly(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	writeFile(t, logPath, "line1\nline2\n")

	store, err := OpenPositionStore(filepath.Join(dir, "positions.json"))
	if err != nil {
		t.Fatalf("OpenPositionStore: %v", err)
	}
	tl := New(store, []Source{{Name: "app", Path: logPath}})

	lines := tl.Collect()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}

	if again := tl.Collect(); len(again) != 0 {
		t.Fatalf("expected no new lines on second collect, got %v", again)
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString("line3\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	more := tl.Collect()
	if len(more) != 1 || more[0].Line != "line3" {
		t.Fatalf("expected exactly line3, got %v", more)
	}
}

func TestCollectDetectsTruncation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	writeFile(t, logPath, "line1\nline2\nline3\n")

	store, _ := OpenPositionStore(filepath.Join(dir, "positions.json"))
	tl := New(store, []Source{{Name: "app", Path: logPath}})
	tl.Collect()

	writeFile(t, logPath, "short\n")
	lines := tl.Collect()
	if len(lines) != 1 || lines[0].Line != "short" {
		t.Fatalf("expected truncation to reset to start, got %v", lines)
	}
}

func TestCollectDetectsRotationByRecreatingFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	writeFile(t, logPath, "old1\nold2\n")

	store, _ := OpenPositionStore(filepath.Join(dir, "positions.json"))
	tl := New(store, []Source{{Name: "app", Path: logPath}})
	tl.Collect()

	if err := os.Remove(logPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	writeFile(t, logPath, "new1\n")

	lines := tl.Collect()
	if len(lines) != 1 || lines[0].Line != "new1" {
		t.Fatalf("expected rotation to reset to new file contents, got %v", lines)
	}
}

func TestCollectExpandsGlobSources(t *testing.T) {
	dir := t.TempDir()
	for _, user := range []string{"alice", "bob"} {
		home := filepath.Join(dir, user)
		if err := os.MkdirAll(home, 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		writeFile(t, filepath.Join(home, ".bash_history"), user+" cmd\n")
	}

	store, _ := OpenPositionStore(filepath.Join(dir, "positions.json"))
	tl := New(store, []Source{{Name: "bash_history", Path: filepath.Join(dir, "*", ".bash_history")}})

	lines := tl.Collect()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines across expanded paths, got %d: %v", len(lines), lines)
	}
}

func TestPositionStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	writeFile(t, logPath, "line1\nline2\n")

	storePath := filepath.Join(dir, "positions.json")
	store, _ := OpenPositionStore(storePath)
	tl := New(store, []Source{{Name: "app", Path: logPath}})
	tl.Collect()

	reopened, err := OpenPositionStore(storePath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	tl2 := New(reopened, []Source{{Name: "app", Path: logPath}})
	if lines := tl2.Collect(); len(lines) != 0 {
		t.Fatalf("expected persisted position to suppress re-read, got %v", lines)
	}
}
