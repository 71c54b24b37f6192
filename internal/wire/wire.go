// Package wire implements the collector's request/response framing: the
// JSON encoding of Request and Response, and a thin client that sends one
// request and reads one response over a TCP connection.
package wire

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cairnwatch/siemguard/internal/jsondoc"
)

// Request is one operation sent to the collector: insert/find/delete
// against database.collection, with data (for insert) and/or a query
// predicate string (for find/delete).
type Request struct {
	Database   string
	Operation  string
	Collection string
	Data       []string
	Query      string
}

// Response is the collector's reply to a Request.
type Response struct {
	Status  string
	Message string
	Data    []string
	Count   int
}

// ToJSON encodes r using the wire's data-element convention: a data or
// query entry that looks like a JSON object/array literal is emitted
// verbatim, everything else is quoted and escaped.
func (r Request) ToJSON() string {
	var b strings.Builder
	b.WriteByte('{')
	fmt.Fprintf(&b, `"database":%s,`, quoteJSON(r.Database))
	fmt.Fprintf(&b, `"operation":%s,`, quoteJSON(r.Operation))
	fmt.Fprintf(&b, `"collection":%s,`, quoteJSON(r.Collection))
	if r.Query != "" {
		b.WriteString(`"query":`)
		b.WriteString(literalOrQuoted(r.Query))
		b.WriteByte(',')
	}
	b.WriteString(`"data":[`)
	for i, d := range r.Data {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(literalOrQuoted(d))
	}
	b.WriteString("]}")
	return b.String()
}

// literalOrQuoted returns s verbatim if it is a well-formed JSON object or
// array literal, otherwise a quoted, escaped JSON string.
func literalOrQuoted(s string) string {
	if jsondoc.IsJSONLiteral(s) {
		if s[0] == '{' {
			if _, err := jsondoc.Parse(s); err == nil {
				return s
			}
		} else {
			if _, err := jsondoc.ParseArray(s); err == nil {
				return s
			}
		}
	}
	return quoteJSON(s)
}

func quoteJSON(s string) string {
	m := jsondoc.Map{"v": s}
	full := jsondoc.Serialize(m)
	// full is `{"v":"<escaped>"}`; slice out the quoted value.
	return full[len(`{"v":`) : len(full)-1]
}

// RequestFromJSON decodes a Request from its wire JSON form.
func RequestFromJSON(s string) (Request, error) {
	m, err := jsondoc.Parse(s)
	if err != nil {
		return Request{}, fmt.Errorf("wire: invalid request: %w", err)
	}
	req := Request{
		Database:   m["database"],
		Operation:  m["operation"],
		Collection: m["collection"],
		Query:      m["query"],
	}
	if raw, ok := m["data"]; ok && raw != "" {
		items, err := jsondoc.ParseArray(raw)
		if err != nil {
			return Request{}, fmt.Errorf("wire: invalid request data: %w", err)
		}
		for _, item := range items {
			req.Data = append(req.Data, jsondoc.Serialize(item))
		}
	}
	return req, nil
}

// ToJSON encodes r as the wire response JSON form.
func (r Response) ToJSON() string {
	var b strings.Builder
	b.WriteByte('{')
	fmt.Fprintf(&b, `"status":%s,`, quoteJSON(r.Status))
	fmt.Fprintf(&b, `"message":%s,`, quoteJSON(r.Message))
	fmt.Fprintf(&b, `"count":%d,`, r.Count)
	b.WriteString(`"data":[`)
	for i, d := range r.Data {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(literalOrQuoted(d))
	}
	b.WriteString("]}")
	return b.String()
}

// ResponseFromJSON decodes a Response from its wire JSON form.
func ResponseFromJSON(s string) (Response, error) {
	m, err := jsondoc.Parse(s)
	if err != nil {
		return Response{}, fmt.Errorf("wire: invalid response: %w", err)
	}
	resp := Response{
		Status:  m["status"],
		Message: m["message"],
	}
	if countStr, ok := m["count"]; ok && countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Response{}, fmt.Errorf("wire: invalid count %q: %w", countStr, err)
		}
		resp.Count = n
	}
	if raw, ok := m["data"]; ok && raw != "" {
		items, err := jsondoc.ParseArray(raw)
		if err != nil {
			return Response{}, fmt.Errorf("wire: invalid response data: %w", err)
		}
		for _, item := range items {
			resp.Data = append(resp.Data, jsondoc.Serialize(item))
		}
	}
	return resp, nil
}

// Client is a thin, non-pooled TCP client for the collector's wire
// protocol: each Send opens a connection, writes one framed request, reads
// one framed response, and closes the connection.
type Client struct {
	Addr    string
	Timeout time.Duration
}

// NewClient returns a Client dialing addr, applying timeout to both
// connect and the request/response round trip.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{Addr: addr, Timeout: timeout}
}

// Send performs one request/response round trip against the collector.
func (c *Client) Send(req Request) (Response, error) {
	conn, err := net.DialTimeout("tcp", c.Addr, c.Timeout)
	if err != nil {
		return Response{}, fmt.Errorf("wire: dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.Timeout)
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(req.ToJSON())); err != nil {
		return Response{}, fmt.Errorf("wire: write request: %w", err)
	}

	raw, err := ReadFramedMessage(bufio.NewReader(conn))
	if err != nil {
		return Response{}, fmt.Errorf("wire: read response: %w", err)
	}
	return ResponseFromJSON(raw)
}

// ReadFramedMessage reads one balanced {...} or [...] JSON message from r,
// tolerant of strings containing unbalanced brace/bracket characters. It
// returns io.EOF-wrapped errors unchanged if the stream closes before a
// complete message is seen.
func ReadFramedMessage(r *bufio.Reader) (string, error) {
	var b strings.Builder

	// Skip leading whitespace to find the opening bracket.
	var open, close byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		switch c {
		case '{':
			open, close = '{', '}'
		case '[':
			open, close = '[', ']'
		default:
			return "", fmt.Errorf("wire: unexpected leading byte %q", c)
		}
		b.WriteByte(c)
		break
	}

	depth := 1
	inString := false
	escaped := false
	for depth > 0 {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		b.WriteByte(c)
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
		}
	}
	return b.String(), nil
}
