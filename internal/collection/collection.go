// Package collection implements the per-collection document store: an
// in-memory ordered map of document id to Document, persisted wholesale as
// a JSON array on every mutation.
package collection

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cairnwatch/siemguard/internal/jsondoc"
	"github.com/cairnwatch/siemguard/internal/query"
)

// Collection is a named, ordered document store backed by "<name>.json"
// under dir. All exported methods are safe for concurrent use.
type Collection struct {
	name string
	path string

	mu      sync.Mutex
	docs    map[string]jsondoc.Map
	order   []string // ids, in last-inserted order
	counter uint64   // monotonic tiebreaker for id generation
}

// Open loads (or creates, if absent) the collection named name rooted at
// dir. A missing file is equivalent to an empty collection.
func Open(dir, name string) (*Collection, error) {
	c := &Collection{
		name: name,
		path: filepath.Join(dir, name+".json"),
		docs: make(map[string]jsondoc.Map),
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collection) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("collection %s: read: %w", c.name, err)
	}
	if len(data) == 0 {
		return nil
	}
	docs, err := jsondoc.ParseArray(string(data))
	if err != nil {
		return fmt.Errorf("collection %s: parse: %w", c.name, err)
	}
	for _, d := range docs {
		id := d["_id"]
		if id == "" {
			id = c.nextID()
			d["_id"] = id
		}
		c.put(id, d)
	}
	return nil
}

// put inserts or replaces doc under id, moving it to the end of the
// insertion order if it already existed (last-write-wins ordering).
func (c *Collection) put(id string, doc jsondoc.Map) {
	if _, exists := c.docs[id]; exists {
		c.removeFromOrder(id)
	}
	c.docs[id] = doc
	c.order = append(c.order, id)
}

func (c *Collection) removeFromOrder(id string) {
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Collection) saveLocked() error {
	docs := make([]jsondoc.Map, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, c.docs[id])
	}
	data := []byte(jsondoc.SerializeArray(docs))
	return os.WriteFile(c.path, data, 0644)
}

func (c *Collection) nextID() string {
	c.counter++
	return fmt.Sprintf("doc_%d_%d_%d", time.Now().Unix(), rand.IntN(10000), c.counter)
}

// Insert parses jsonData as a flat document, assigns or reuses its _id, and
// persists the whole collection. It returns the assigned id and a human
// message containing "successfully".
func (c *Collection) Insert(jsonData string) (id string, message string, err error) {
	doc, err := jsondoc.Parse(jsonData)
	if err != nil {
		return "", "", fmt.Errorf("collection %s: invalid document: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id = doc["_id"]
	if id == "" {
		id = c.nextID()
	}
	doc["_id"] = id
	c.put(id, doc)

	if err := c.saveLocked(); err != nil {
		return "", "", fmt.Errorf("collection %s: save: %w", c.name, err)
	}
	return id, fmt.Sprintf("Document %s inserted successfully.", id), nil
}

// Find returns every document matching cond, in current insertion order.
func (c *Collection) Find(cond query.Condition) []jsondoc.Map {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []jsondoc.Map
	for _, id := range c.order {
		doc := c.docs[id]
		if query.Match(doc, cond) {
			out = append(out, cloneMap(doc))
		}
	}
	return out
}

// Remove deletes every document matching cond and persists the change. It
// returns the number removed and a human message.
func (c *Collection) Remove(cond query.Condition) (count int, message string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []string
	for _, id := range c.order {
		if query.Match(c.docs[id], cond) {
			toRemove = append(toRemove, id)
		}
	}
	if len(toRemove) == 0 {
		return 0, "No documents found matching the condition.", nil
	}
	for _, id := range toRemove {
		delete(c.docs, id)
		c.removeFromOrder(id)
	}
	if err := c.saveLocked(); err != nil {
		return 0, "", fmt.Errorf("collection %s: save: %w", c.name, err)
	}
	return len(toRemove), fmt.Sprintf("%d document(s) deleted successfully.", len(toRemove)), nil
}

// Size returns the number of documents currently stored.
func (c *Collection) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

func cloneMap(m jsondoc.Map) jsondoc.Map {
	out := make(jsondoc.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
