// Package server implements the collector's concurrency core: a bounded
// worker pool behind a TCP listener, a per-database lock registry, and
// request dispatch for insert/find/delete against the document store.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cairnwatch/siemguard/internal/config"
	"github.com/cairnwatch/siemguard/internal/database"
	"github.com/cairnwatch/siemguard/internal/logging"
	"github.com/cairnwatch/siemguard/internal/telemetry"
	"github.com/cairnwatch/siemguard/internal/wire"
	"golang.org/x/net/netutil"
)

// Notifier is notified after a successful insert or delete, typically
// fanning the event out over a message bus. Implementations must not
// block the caller for long; Notify is called while the per-database lock
// is still held.
type Notifier interface {
	Notify(database, collection, operation string, count int)
}

// job is one parsed request awaiting dispatch, paired with the connection
// its response must be written back to and the id of the connection it
// arrived on (for log correlation across a connection's requests).
type job struct {
	conn    net.Conn
	req     wire.Request
	connID  string
}

// Server is the collector's TCP front end: it accepts connections, reads
// one or more framed requests per connection, validates and enqueues them,
// and dispatches them from a fixed-size worker pool.
type Server struct {
	cfg      *config.CollectorConfig
	registry *database.Registry
	log      *logging.Logger
	tracer   *telemetry.Tracer
	notifier Notifier

	locks       *lockRegistry
	lockTimeout time.Duration

	listener net.Listener
	queue    chan job

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New builds a Server. notifier may be nil to disable fan-out notifications.
func New(cfg *config.CollectorConfig, registry *database.Registry, log *logging.Logger, notifier Notifier) *Server {
	return &Server{
		cfg:         cfg,
		registry:    registry,
		log:         log,
		tracer:      telemetry.GetTracer("server", cfg.Telemetry.Enabled),
		notifier:    notifier,
		locks:       newLockRegistry(),
		lockTimeout: time.Duration(cfg.DatabaseLockMillis) * time.Millisecond,
		queue:       make(chan job, cfg.WorkerCount*4),
	}
}

// Start binds the listener, launches the worker pool, and begins accepting
// connections in the background. It returns once the listener is bound.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server: already running")
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr(), err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	s.listener = ln
	s.running = true

	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}

	s.wg.Add(1)
	go s.acceptLoop()

	s.log.Info("server_started", map[string]interface{}{
		"addr":         s.cfg.Addr(),
		"worker_count": s.cfg.WorkerCount,
	})
	return nil
}

// Addr returns the listener's actual bound address, useful when the
// configured port is 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and drains in-flight work before returning.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	ln := s.listener
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	close(s.queue)
	s.wg.Wait()
	s.log.Info("server_stopped", nil)
}

func (s *Server) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isRunning() {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.log.Error("accept_failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn reads framed requests off conn one at a time, validating and
// enqueueing each for worker dispatch, until the client disconnects or a
// read error occurs. A connection may carry many sequential requests.
func (s *Server) handleConn(conn net.Conn) {
	connID := uuid.NewString()
	remoteAddr := conn.RemoteAddr().String()

	s.log.Info("connection_opened", map[string]interface{}{
		"conn_id":     connID,
		"remote_addr": remoteAddr,
	})
	defer func() {
		conn.Close()
		s.log.Info("connection_closed", map[string]interface{}{
			"conn_id":     connID,
			"remote_addr": remoteAddr,
		})
	}()

	r := bufio.NewReader(conn)

	for s.isRunning() {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		raw, err := wire.ReadFramedMessage(r)
		if err != nil {
			if err != io.EOF {
				s.log.Debug("connection_read_ended", map[string]interface{}{"conn_id": connID, "remote_addr": remoteAddr, "error": err.Error()})
			}
			return
		}

		if !isValidJSONRequest(raw) {
			s.log.Error("invalid_json_request", nil)
			resp := wire.Response{Status: "error", Message: "Invalid JSON request"}
			if _, err := conn.Write([]byte(resp.ToJSON())); err != nil {
				return
			}
			continue
		}

		req, err := wire.RequestFromJSON(raw)
		if err != nil {
			resp := wire.Response{Status: "error", Message: "Invalid JSON request"}
			conn.Write([]byte(resp.ToJSON()))
			continue
		}

		s.enqueue(job{conn: conn, req: req, connID: connID})
	}
}

func (s *Server) enqueue(j job) {
	defer func() {
		// The queue channel is closed during Stop; a late enqueue from an
		// in-flight connection goroutine must not panic.
		recover()
	}()
	s.queue <- j
}

func (s *Server) workerLoop() {
	defer s.wg.Done()
	for j := range s.queue {
		s.processJob(j)
	}
}

func (s *Server) processJob(j job) {
	ctx, span := s.tracer.StartSpan(context.Background(), "server.dispatch."+j.req.Operation)
	start := time.Now()

	resp := s.dispatch(j.req)

	connLog := s.log.WithTraceID(j.connID)
	connLog.RequestHandled(j.req.Operation, j.req.Database, j.req.Collection, resp.Status, time.Since(start).Milliseconds())
	if resp.Status == "error" {
		telemetry.EndErr(span, errors.New(resp.Message))
	} else {
		telemetry.EndOK(span)
	}
	_ = ctx

	if _, err := j.conn.Write([]byte(resp.ToJSON())); err != nil {
		s.log.Error("response_write_failed", map[string]interface{}{"error": err.Error()})
	}
}

// isValidJSONRequest reports whether s is structurally balanced JSON: every
// brace and bracket outside a quoted string closes, and no string is left
// open. It does not fully parse the document; it only rejects malformed
// input before it reaches the worker queue.
func isValidJSONRequest(s string) bool {
	braceCount := 0
	bracketCount := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if !inString {
			switch c {
			case '{':
				braceCount++
			case '}':
				braceCount--
			case '[':
				bracketCount++
			case ']':
				bracketCount--
			}
		}
		if braceCount < 0 || bracketCount < 0 {
			return false
		}
	}
	return braceCount == 0 && bracketCount == 0 && !inString
}
