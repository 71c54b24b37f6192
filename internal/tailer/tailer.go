// Package tailer implements the log tailer: per-source position tracking
// with rotation/truncation detection, glob expansion for home-directory
// style paths, and fsnotify-driven change signalling.
package tailer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/cairnwatch/siemguard/internal/jsondoc"
)

// RawLine is one unparsed log line read from a source, ready to be handed
// to the normalizer.
type RawLine struct {
	Source string
	Line   string
}

// Source is one configured log source: a name and a path that may contain
// a single "*" directory-glob segment (e.g. "/home/*/.bash_history").
type Source struct {
	Name string
	Path string
}

type position struct {
	Offset int64
	Inode  string
}

// PositionStore is the process-global, file-backed table of (offset,
// inode) pairs keyed by "<source>_<path>". It is written only by the
// tailer's single monitor task, so no internal locking is strictly
// required for correctness, but a mutex is kept to make concurrent reads
// (e.g. from a status/inspect command) safe.
type PositionStore struct {
	path string

	mu      sync.Mutex
	entries map[string]position
}

// OpenPositionStore loads (or creates, if absent) the position table at
// path.
func OpenPositionStore(path string) (*PositionStore, error) {
	s := &PositionStore{path: path, entries: make(map[string]position)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PositionStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("tailer: read position store: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	m, err := jsondoc.Parse(string(data))
	if err != nil {
		return fmt.Errorf("tailer: parse position store: %w", err)
	}
	for key, value := range m {
		if !strings.HasSuffix(key, ":pos") {
			continue
		}
		origKey := strings.TrimSuffix(key, ":pos")
		offsetStr, inode, _ := strings.Cut(value, ":")
		offset, err := strconv.ParseInt(offsetStr, 10, 64)
		if err != nil {
			offset = 0
		}
		s.entries[origKey] = position{Offset: offset, Inode: inode}
	}
	return nil
}

func (s *PositionStore) save() error {
	m := make(jsondoc.Map, len(s.entries))
	for key, pos := range s.entries {
		m[key+":pos"] = fmt.Sprintf("%d:%s", pos.Offset, pos.Inode)
	}
	return os.WriteFile(s.path, []byte(jsondoc.Serialize(m)), 0644)
}

func (s *PositionStore) get(key string) (position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[key]
	return p, ok
}

func (s *PositionStore) set(key string, p position) error {
	s.mu.Lock()
	s.entries[key] = p
	err := s.save()
	s.mu.Unlock()
	return err
}

// Tailer reads newly-appended lines across every configured Source,
// tracking per-path read position through a shared PositionStore.
type Tailer struct {
	store   *PositionStore
	sources []Source
}

// New returns a Tailer reading sources, persisting positions to store.
func New(store *PositionStore, sources []Source) *Tailer {
	return &Tailer{store: store, sources: sources}
}

// Collect returns every new line across all sources since the last call,
// expanding glob sources fresh on every pass.
func (t *Tailer) Collect() []RawLine {
	var out []RawLine
	for _, src := range t.sources {
		paths := t.expand(src.Path)
		for _, p := range paths {
			out = append(out, t.collectFromPath(src.Name, p)...)
		}
	}
	return out
}

// expand resolves a source path, enumerating immediate subdirectories of
// the glob's directory prefix when the path contains a single "*".
func (t *Tailer) expand(pattern string) []string {
	starIdx := strings.IndexByte(pattern, '*')
	if starIdx < 0 {
		return []string{pattern}
	}

	dirPrefix := pattern[:starIdx]
	suffix := pattern[starIdx+1:]
	if slash := strings.IndexByte(suffix, '/'); slash >= 0 {
		suffix = suffix[slash+1:]
	}

	entries, err := os.ReadDir(dirPrefix)
	if err != nil {
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(dirPrefix, entry.Name(), suffix)
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, candidate)
	}
	return paths
}

// collectFromPath reads every line appended to path since the last
// recorded position for (source, path), handling rotation and truncation.
func (t *Tailer) collectFromPath(source, path string) []RawLine {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	key := source + "_" + path
	pos, _ := t.store.get(key)
	currentInode := inodeOf(info)

	if pos.Inode != "" && pos.Inode != currentInode {
		pos.Offset = 0
	}
	if info.Size() < pos.Offset {
		pos.Offset = 0
	}
	if pos.Offset == info.Size() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	if _, err := f.Seek(pos.Offset, 0); err != nil {
		return nil
	}

	var lines []RawLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var read int64
	for scanner.Scan() {
		lines = append(lines, RawLine{Source: source, Line: scanner.Text()})
	}
	if cur, err := f.Seek(0, io.SeekCurrent); err == nil {
		read = cur
	} else {
		read = info.Size()
	}

	pos.Offset = read
	pos.Inode = currentInode
	_ = t.store.set(key, pos)

	return lines
}

// Watcher wraps fsnotify to signal when any non-glob source path changes,
// so a caller can trigger an out-of-cycle collection pass. The agent
// supervisor does not use it; its monitor loop collects on a fixed ticker.
type Watcher struct {
	inner *fsnotify.Watcher
}

// NewWatcher registers a watch on every source path that does not contain
// a glob segment. Paths that do not yet exist are skipped; creation of the
// parent is still caught by the belt-and-braces periodic poll.
func NewWatcher(sources []Source) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("tailer: create watcher: %w", err)
	}
	for _, src := range sources {
		if strings.ContainsRune(src.Path, '*') {
			continue
		}
		_ = fw.Add(src.Path)
	}
	return &Watcher{inner: fw}, nil
}

// Events exposes the underlying fsnotify event channel.
func (w *Watcher) Events() <-chan fsnotify.Event { return w.inner.Events }

// Errors exposes the underlying fsnotify error channel.
func (w *Watcher) Errors() <-chan error { return w.inner.Errors }

// Close releases the underlying watcher.
func (w *Watcher) Close() error { return w.inner.Close() }
