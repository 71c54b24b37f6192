package query

import (
	"testing"

	"github.com/cairnwatch/siemguard/internal/jsondoc"
)

func TestParseOperators(t *testing.T) {
	cases := []struct {
		in    string
		field string
		op    Op
		value string
	}{
		{"k = v", "k", OpEq, "v"},
		{"t != 2", "t", OpNeq, "2"},
		{"n < 5", "n", OpLt, "5"},
		{"n <= 5", "n", OpLte, "5"},
		{"n > 5", "n", OpGt, "5"},
		{"n >= 5", "n", OpGte, "5"},
	}
	for _, c := range cases {
		got := Parse(c.in)
		if got.Field != c.field || got.Op != c.op || got.Value != c.value {
			t.Errorf("Parse(%q) = %+v, want {%q %q %q}", c.in, got, c.field, c.op, c.value)
		}
	}
}

func TestMatchNumericVsLexical(t *testing.T) {
	doc := jsondoc.Map{"t": "10", "name": "bob"}
	if !Match(doc, Condition{Field: "t", Op: OpGt, Value: "2"}) {
		t.Fatalf("expected numeric 10 > 2")
	}
	if Match(doc, Condition{Field: "name", Op: OpGt, Value: "zeb"}) {
		t.Fatalf("lexical 'bob' should not be > 'zeb'")
	}
}

func TestMatchMissingFieldNeverMatches(t *testing.T) {
	doc := jsondoc.Map{"a": "1"}
	if Match(doc, Condition{Field: "missing", Op: OpEq, Value: "1"}) {
		t.Fatalf("missing field should not match =")
	}
	if Match(doc, Condition{Field: "missing", Op: OpNeq, Value: "1"}) {
		t.Fatalf("missing field should not match != either")
	}
}

func TestS2Scenario(t *testing.T) {
	docs := []jsondoc.Map{
		{"t": "1"}, {"t": "2"}, {"t": "3"},
	}
	cond := Parse("t != 2")
	var kept int
	for _, d := range docs {
		if Match(d, cond) {
			kept++
		}
	}
	if kept != 2 {
		t.Fatalf("expected 2 matches for t != 2, got %d", kept)
	}
}
