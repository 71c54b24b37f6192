package wire

import (
	"bufio"
	"strings"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Database:   "siem",
		Operation:  "insert",
		Collection: "events",
		Data:       []string{`{"user":"alice","note":"has \"quotes\""}`},
	}
	encoded := req.ToJSON()
	got, err := RequestFromJSON(encoded)
	if err != nil {
		t.Fatalf("RequestFromJSON: %v", err)
	}
	if got.Database != req.Database || got.Operation != req.Operation || got.Collection != req.Collection {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Data) != 1 {
		t.Fatalf("expected 1 data element, got %d", len(got.Data))
	}
}

func TestRequestQueryPlainString(t *testing.T) {
	req := Request{Database: "d", Operation: "find", Collection: "c", Query: "t != 2"}
	encoded := req.ToJSON()
	if !strings.Contains(encoded, `"query":"t != 2"`) {
		t.Fatalf("expected quoted query in %q", encoded)
	}
	got, err := RequestFromJSON(encoded)
	if err != nil {
		t.Fatalf("RequestFromJSON: %v", err)
	}
	if got.Query != "t != 2" {
		t.Fatalf("query = %q", got.Query)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Response{
		Status:  "success",
		Message: "Document doc_1 inserted successfully.",
		Data:    []string{`{"_id":"doc_1","user":"alice"}`},
		Count:   1,
	}
	encoded := resp.ToJSON()
	got, err := ResponseFromJSON(encoded)
	if err != nil {
		t.Fatalf("ResponseFromJSON: %v", err)
	}
	if got.Status != resp.Status || got.Message != resp.Message || got.Count != resp.Count {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Data) != 1 {
		t.Fatalf("expected 1 data element, got %d", len(got.Data))
	}
}

func TestReadFramedMessageStopsAtBalance(t *testing.T) {
	stream := `{"a":"b","nested":{"x":1}}garbage-after`
	r := bufio.NewReader(strings.NewReader(stream))
	msg, err := ReadFramedMessage(r)
	if err != nil {
		t.Fatalf("ReadFramedMessage: %v", err)
	}
	want := `{"a":"b","nested":{"x":1}}`
	if msg != want {
		t.Fatalf("got %q, want %q", msg, want)
	}
}

func TestReadFramedMessageIgnoresBracesInsideStrings(t *testing.T) {
	stream := `{"msg":"looks like a } brace"}`
	r := bufio.NewReader(strings.NewReader(stream))
	msg, err := ReadFramedMessage(r)
	if err != nil {
		t.Fatalf("ReadFramedMessage: %v", err)
	}
	if msg != stream {
		t.Fatalf("got %q, want %q", msg, stream)
	}
}

func TestReadFramedMessageArray(t *testing.T) {
	stream := `[{"a":"1"},{"a":"2"}]`
	r := bufio.NewReader(strings.NewReader(stream))
	msg, err := ReadFramedMessage(r)
	if err != nil {
		t.Fatalf("ReadFramedMessage: %v", err)
	}
	if msg != stream {
		t.Fatalf("got %q, want %q", msg, stream)
	}
}
