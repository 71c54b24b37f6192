package database

import "testing"

func TestRegistryGetCreatesLazily(t *testing.T) {
	r := NewRegistry(t.TempDir())
	if r.Exists("events") {
		t.Fatalf("expected events to not exist yet")
	}
	db := r.Get("events")
	if db == nil {
		t.Fatalf("expected non-nil database")
	}
	if !r.Exists("events") {
		t.Fatalf("expected events to exist after Get")
	}
}

func TestRegistryGetIsIdempotent(t *testing.T) {
	r := NewRegistry(t.TempDir())
	a := r.Get("events")
	b := r.Get("events")
	if a != b {
		t.Fatalf("expected same *Database instance across Get calls")
	}
}

func TestDatabaseCollectionCreatesLazily(t *testing.T) {
	r := NewRegistry(t.TempDir())
	db := r.Get("events")

	c, err := db.Collection("logins")
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if _, _, err := c.Insert(`{"user":"alice"}`); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	c2, err := db.Collection("logins")
	if err != nil {
		t.Fatalf("Collection (again): %v", err)
	}
	if c2.Size() != 1 {
		t.Fatalf("expected same backing collection, got size %d", c2.Size())
	}
}

func TestRegistryNamesReflectsCreated(t *testing.T) {
	r := NewRegistry(t.TempDir())
	r.Get("a")
	r.Get("b")
	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
}
