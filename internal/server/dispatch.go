package server

import (
	"fmt"

	"github.com/cairnwatch/siemguard/internal/jsondoc"
	"github.com/cairnwatch/siemguard/internal/query"
	"github.com/cairnwatch/siemguard/internal/wire"
)

// dispatch routes req to the handler for its operation and returns the
// response to send back to the client.
func (s *Server) dispatch(req wire.Request) wire.Response {
	switch req.Operation {
	case "insert":
		return s.handleInsert(req)
	case "find":
		return s.handleFind(req)
	case "delete":
		return s.handleDelete(req)
	default:
		return wire.Response{Status: "error", Message: "Unknown operation: " + req.Operation}
	}
}

func (s *Server) handleInsert(req wire.Request) wire.Response {
	mu, ok := s.locks.acquireWithTimeout(req.Database, s.lockTimeout)
	if !ok {
		s.log.Error("database_lock_timeout", map[string]interface{}{"database": req.Database, "operation": "insert"})
		return wire.Response{Status: "error", Message: "Database lock timeout for: " + req.Database}
	}
	defer mu.Unlock()

	db := s.registry.Get(req.Database)
	coll, err := db.Collection(req.Collection)
	if err != nil {
		return wire.Response{Status: "error", Message: err.Error()}
	}

	insertedCount := 0
	ids := make([]string, 0, len(req.Data))
	for _, data := range req.Data {
		if _, err := jsondoc.Parse(data); err != nil {
			s.log.Warn("invalid_insert_document", map[string]interface{}{"error": err.Error()})
			continue
		}
		id, _, err := coll.Insert(data)
		if err != nil {
			s.log.Warn("insert_failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		insertedCount++
		ids = append(ids, id)
	}

	if s.notifier != nil && insertedCount > 0 {
		s.notifier.Notify(req.Database, req.Collection, "insert", insertedCount)
	}

	resp := wire.Response{
		Status:  "success",
		Message: fmt.Sprintf("Inserted %d document(s)", insertedCount),
		Count:   insertedCount,
	}
	for _, id := range ids {
		resp.Data = append(resp.Data, fmt.Sprintf(`{"id":"%s"}`, id))
	}
	return resp
}

func (s *Server) handleFind(req wire.Request) wire.Response {
	if !s.registry.Exists(req.Database) {
		return wire.Response{Status: "error", Message: "Database not found: " + req.Database}
	}

	mu := s.locks.get(req.Database)
	mu.Lock()
	defer mu.Unlock()

	db := s.registry.Get(req.Database)
	coll, err := db.Collection(req.Collection)
	if err != nil {
		return wire.Response{Status: "error", Message: err.Error()}
	}

	cond := query.Parse(req.Query)
	results := coll.Find(cond)

	resp := wire.Response{
		Status:  "success",
		Message: fmt.Sprintf("Found %d document(s)", len(results)),
		Count:   len(results),
	}
	for _, doc := range results {
		resp.Data = append(resp.Data, jsondoc.Serialize(doc))
	}
	return resp
}

func (s *Server) handleDelete(req wire.Request) wire.Response {
	if !s.registry.Exists(req.Database) {
		return wire.Response{Status: "error", Message: "Database not found: " + req.Database}
	}

	mu, ok := s.locks.acquireWithTimeout(req.Database, s.lockTimeout)
	if !ok {
		s.log.Error("database_lock_timeout", map[string]interface{}{"database": req.Database, "operation": "delete"})
		return wire.Response{Status: "error", Message: "Database lock timeout for: " + req.Database}
	}
	defer mu.Unlock()

	db := s.registry.Get(req.Database)
	coll, err := db.Collection(req.Collection)
	if err != nil {
		return wire.Response{Status: "error", Message: err.Error()}
	}

	cond := query.Parse(req.Query)
	count, message, err := coll.Remove(cond)
	if err != nil {
		return wire.Response{Status: "error", Message: err.Error()}
	}

	if s.notifier != nil && count > 0 {
		s.notifier.Notify(req.Database, req.Collection, "delete", count)
	}

	return wire.Response{Status: "success", Message: message, Count: count}
}
