// Package database implements the database registry: a named set of
// collections, created lazily on first access and persisted as a directory
// of per-collection JSON files.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cairnwatch/siemguard/internal/collection"
)

// Database is a lazily-populated set of collections backed by a directory
// on disk. A database "exists" once at least one of its collections has
// been created.
type Database struct {
	name string
	dir  string

	mu          sync.Mutex
	collections map[string]*collection.Collection
}

func newDatabase(rootDir, name string) *Database {
	return &Database{
		name:        name,
		dir:         filepath.Join(rootDir, name),
		collections: make(map[string]*collection.Collection),
	}
}

// Collection returns the named collection, creating it (and the database's
// backing directory) on first access.
func (d *Database) Collection(name string) (*collection.Collection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.collections[name]; ok {
		return c, nil
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return nil, fmt.Errorf("database %s: create dir: %w", d.name, err)
	}
	c, err := collection.Open(d.dir, name)
	if err != nil {
		return nil, err
	}
	d.collections[name] = c
	return c, nil
}

// Registry is the top-level set of databases known to a running collector.
// Each database is created lazily the first time one of its collections is
// opened; a Registry never removes a database once created.
type Registry struct {
	rootDir string

	mu        sync.Mutex
	databases map[string]*Database
}

// NewRegistry returns a Registry rooted at rootDir, where each database
// becomes a subdirectory.
func NewRegistry(rootDir string) *Registry {
	return &Registry{
		rootDir:   rootDir,
		databases: make(map[string]*Database),
	}
}

// Exists reports whether name has already been created via Get.
func (r *Registry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.databases[name]
	return ok
}

// Get returns the named database, creating it if it does not yet exist.
func (r *Registry) Get(name string) *Database {
	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.databases[name]; ok {
		return db
	}
	db := newDatabase(r.rootDir, name)
	r.databases[name] = db
	return db
}

// Names returns the currently-known database names.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.databases))
	for name := range r.databases {
		names = append(names, name)
	}
	return names
}
