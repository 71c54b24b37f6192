// Package notify publishes a best-effort NATS notification after a
// successful insert or delete, disabled unless a collector is configured
// with a notify URL. It is never required for the wire protocol to
// function: a disabled or unreachable notifier degrades to a no-op.
package notify

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cairnwatch/siemguard/internal/logging"
)

// Event is the JSON payload published to the configured subject.
type Event struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
	Operation  string `json:"operation"`
	Count      int    `json:"count"`
}

// Client publishes Events to NATS. A Client with enabled == false never
// dials a connection; its Notify calls are no-ops.
type Client struct {
	conn    *nats.Conn
	subject string
	log     *logging.Logger
	enabled bool
}

// New connects to url and returns a Client publishing to subject. If url is
// empty, or the connection attempt fails, the returned Client is disabled
// and its Notify method is a silent no-op; the error from a failed dial is
// logged but never returned, since notification is an optional feature.
func New(url, subject string, log *logging.Logger) *Client {
	if url == "" {
		return &Client{log: log, enabled: false}
	}

	conn, err := nats.Connect(url,
		nats.Name("siemguard-collector"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			if err != nil {
				log.Warn("notify_nats_error", map[string]interface{}{"error": err.Error()})
			}
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("notify_nats_disconnected", map[string]interface{}{"error": err.Error()})
			}
		}),
	)
	if err != nil {
		log.Warn("notify_disabled", map[string]interface{}{"reason": err.Error(), "url": url})
		return &Client{log: log, enabled: false}
	}

	log.Info("notify_connected", map[string]interface{}{"url": url, "subject": subject})
	return &Client{conn: conn, subject: subject, log: log, enabled: true}
}

// Notify publishes one Event. Marshal or publish errors are logged, never
// returned, matching the fire-and-forget contract notification callers
// expect (they call this after already committing the mutation).
func (c *Client) Notify(database, collection, operation string, count int) {
	if !c.enabled {
		return
	}
	data, err := json.Marshal(Event{Database: database, Collection: collection, Operation: operation, Count: count})
	if err != nil {
		c.log.Warn("notify_marshal_failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := c.conn.Publish(c.subject, data); err != nil {
		c.log.Warn("notify_publish_failed", map[string]interface{}{"error": err.Error()})
	}
}

// Close drains and closes the underlying NATS connection, if any.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Drain()
		c.conn.Close()
	}
}
