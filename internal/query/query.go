// Package query implements the single-predicate equality/comparison
// condition grammar used by the collector's find and delete operations.
package query

import (
	"strconv"
	"strings"

	"github.com/cairnwatch/siemguard/internal/jsondoc"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpNeq Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Condition is a parsed "<field> <op> <value>" predicate.
type Condition struct {
	Field string
	Op    Op
	Value string
}

// operators, longest first so "!=" and "<=" / ">=" are tried before their
// single-character prefixes.
var operators = []Op{OpNeq, OpLte, OpGte, OpEq, OpLt, OpGt}

// Parse parses a textual predicate of the form "<field> <op> <value>".
// An empty or unparseable string yields a Condition that matches nothing
// (an empty Field never matches a document, since every document's _id is
// non-empty and no field is ever stored under the empty name).
func Parse(s string) Condition {
	s = strings.TrimSpace(s)
	if s == "" {
		return Condition{}
	}
	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx < 0 {
			continue
		}
		// Guard against "!=" being matched as "=" at idx+1, and similar:
		// since operators is tried longest-match-first, the first hit here
		// for the shorter "=" would already have skipped over a "!=" or
		// "<=" at the same position because those are tried first.
		field := strings.TrimSpace(s[:idx])
		value := strings.TrimSpace(s[idx+len(op):])
		if field == "" {
			continue
		}
		return Condition{Field: field, Op: op, Value: value}
	}
	return Condition{}
}

// Match reports whether doc satisfies c. A missing field never matches any
// value, including for "!=" (missing ≠ any value, per the data model).
func Match(doc jsondoc.Map, c Condition) bool {
	if c.Field == "" {
		return false
	}
	actual, ok := doc[c.Field]
	if !ok {
		return false
	}
	return compare(actual, c.Op, c.Value)
}

func compare(actual string, op Op, value string) bool {
	af, aok := parseNumber(actual)
	vf, vok := parseNumber(value)
	if aok && vok {
		switch op {
		case OpEq:
			return af == vf
		case OpNeq:
			return af != vf
		case OpLt:
			return af < vf
		case OpLte:
			return af <= vf
		case OpGt:
			return af > vf
		case OpGte:
			return af >= vf
		}
		return false
	}
	switch op {
	case OpEq:
		return actual == value
	case OpNeq:
		return actual != value
	case OpLt:
		return actual < value
	case OpLte:
		return actual <= value
	case OpGt:
		return actual > value
	case OpGte:
		return actual >= value
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
