package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestStartSpanReturnsUsableSpan(t *testing.T) {
	tr := GetTracer("test", false)
	_, span := tr.StartSpan(context.Background(), "unit.test")
	if span == nil {
		t.Fatalf("expected non-nil span")
	}
	EndOK(span)
}

func TestEndErrRecordsError(t *testing.T) {
	tr := GetTracer("test", true)
	_, span := tr.StartSpan(context.Background(), "unit.test.err")
	EndErr(span, errors.New("boom"))
}

func TestDebugReflectsConstructorArg(t *testing.T) {
	if GetTracer("test", true).Debug() != true {
		t.Fatalf("expected debug true")
	}
	if GetTracer("test", false).Debug() != false {
		t.Fatalf("expected debug false")
	}
}
