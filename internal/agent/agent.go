// Package agent supervises the monitor and sender tasks that turn tailed
// log lines into security events and deliver them to a collector.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cairnwatch/siemguard/internal/buffer"
	"github.com/cairnwatch/siemguard/internal/config"
	"github.com/cairnwatch/siemguard/internal/event"
	"github.com/cairnwatch/siemguard/internal/logging"
	"github.com/cairnwatch/siemguard/internal/normalize"
	"github.com/cairnwatch/siemguard/internal/tailer"
	"github.com/cairnwatch/siemguard/internal/telemetry"
	"github.com/cairnwatch/siemguard/internal/wire"
)

// Agent ties together log tailing, normalization, buffering, and delivery
// to a collector over the wire protocol.
type Agent struct {
	cfg    *config.AgentConfig
	log    *logging.Logger
	tracer *telemetry.Tracer

	tailer *tailer.Tailer
	norm   *normalize.Normalizer
	buf    *buffer.Buffer
	client *wire.Client

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New builds an Agent from its fully-assembled dependencies. Callers
// (typically cmd/siem-agent) are responsible for constructing the
// position store, tailer sources, and buffer spill path from cfg.
func New(cfg *config.AgentConfig, log *logging.Logger, t *tailer.Tailer, buf *buffer.Buffer) *Agent {
	return &Agent{
		cfg:    cfg,
		log:    log,
		tracer: telemetry.GetTracer("agent", cfg.Telemetry.Enabled),
		tailer: t,
		norm:   normalize.New(cfg.ExcludePatterns),
		buf:    buf,
		client: wire.NewClient(cfg.Addr(), 10*time.Second),
	}
}

// Start launches the monitor, sender, and heartbeat goroutines. It is an error to call
// Start twice without an intervening Stop.
func (a *Agent) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return fmt.Errorf("agent: already running")
	}
	a.running = true
	a.stop = make(chan struct{})

	a.log.Info("agent_starting", map[string]interface{}{"agent_id": a.cfg.AgentID})

	a.wg.Add(3)
	go a.monitorLoop()
	go a.senderLoop()
	go a.heartbeatLoop()
	return nil
}

// Stop signals all three loops to exit, waits for them to finish, and makes one
// final best-effort attempt to flush whatever remains buffered.
func (a *Agent) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stop)
	a.mu.Unlock()

	a.wg.Wait()

	if !a.buf.IsEmpty() {
		remaining, err := a.buf.GetBatch(a.buf.Size())
		if err != nil {
			a.log.Error("agent_flush_read_failed", map[string]interface{}{"error": err.Error()})
		} else if len(remaining) > 0 {
			a.log.Info("agent_flushing_remaining", map[string]interface{}{"count": len(remaining)})
			a.sendEvents(remaining)
		}
	}

	a.log.Info("agent_stopped", nil)
}

// monitorLoop collects new log lines once a second, normalizes them into
// events, and enqueues the ones worth keeping.
func (a *Agent) monitorLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.collectOnce()
		}
	}
}

func (a *Agent) collectOnce() {
	ctx, span := a.tracer.StartSpan(context.Background(), "agent.collect")
	defer telemetry.EndOK(span)
	_ = ctx

	lines := a.tailer.Collect()
	if len(lines) == 0 {
		return
	}

	collected := 0
	for _, raw := range lines {
		e := a.norm.Process(raw.Source, raw.Line, a.cfg.AgentID, "")
		if e.Source == "" {
			continue
		}
		if e.Timestamp == "" {
			e.Timestamp = time.Now().UTC().Format(time.RFC3339)
		}
		if err := a.buf.AddEvent(e); err != nil {
			a.log.Error("agent_buffer_add_failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		collected++
	}
	if collected > 0 {
		a.log.Info("events_collected", map[string]interface{}{"count": collected})
	}
}

// heartbeatInterval is how often the agent logs its running state while
// otherwise idle, mirroring SIEMAgent::run()'s periodic status line.
const heartbeatInterval = 30 * time.Second

// heartbeatLoop logs buffer size and running state roughly every 30s so an
// operator tailing the log can see the agent is alive even when no events
// are flowing.
func (a *Agent) heartbeatLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.log.Info("agent_status", map[string]interface{}{
				"agent_id":    a.cfg.AgentID,
				"running":     true,
				"buffer_size": a.buf.Size(),
			})
		}
	}
}

// senderLoop wakes every 500ms and drains the buffer into the collector
// whenever the send interval has elapsed or the batch size threshold has
// been reached.
func (a *Agent) senderLoop() {
	defer a.wg.Done()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastSend := time.Now()
	interval := time.Duration(a.cfg.SendIntervalSeconds) * time.Second

	for {
		select {
		case <-a.stop:
			return
		case now := <-ticker.C:
			if now.Sub(lastSend) < interval && a.buf.Size() < a.cfg.BatchSize {
				continue
			}
			if a.buf.IsEmpty() {
				continue
			}

			n := a.cfg.BatchSize
			if n > a.buf.Size() {
				n = a.buf.Size()
			}
			batch, err := a.buf.GetBatch(n)
			if err != nil {
				a.log.Error("agent_batch_read_failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if len(batch) > 0 {
				a.sendEvents(batch)
				lastSend = now
			}
		}
	}
}

// sendEvents builds a single insert request for batch and delivers it to
// the collector, re-enqueuing the whole batch on any non-success response.
func (a *Agent) sendEvents(batch []event.SecurityEvent) {
	if len(batch) == 0 {
		return
	}

	ctx, span := a.tracer.StartSpan(context.Background(), "agent.send")
	defer func() { telemetry.EndOK(span) }()
	_ = ctx

	req := wire.Request{
		Database:   a.cfg.Database,
		Operation:  "insert",
		Collection: a.cfg.Collection,
		Data:       make([]string, 0, len(batch)),
	}
	for _, e := range batch {
		req.Data = append(req.Data, e.ToJSON())
	}

	resp, err := a.client.Send(req)
	if err != nil {
		a.log.Error("agent_send_failed", map[string]interface{}{"error": err.Error(), "count": len(batch)})
		if rqErr := a.buf.Requeue(batch); rqErr != nil {
			a.log.Error("agent_requeue_failed", map[string]interface{}{"error": rqErr.Error()})
		} else {
			a.log.EventsRequeued(len(batch), err.Error())
		}
		return
	}

	if resp.Status != "success" {
		a.log.Warn("agent_send_rejected", map[string]interface{}{"status": resp.Status, "message": resp.Message})
		if rqErr := a.buf.Requeue(batch); rqErr != nil {
			a.log.Error("agent_requeue_failed", map[string]interface{}{"error": rqErr.Error()})
		} else {
			a.log.EventsRequeued(len(batch), resp.Message)
		}
		return
	}

	a.log.EventsSent(len(batch), a.cfg.Database, a.cfg.Collection)
}
