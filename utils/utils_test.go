package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestIDSetNoDuplicates(t *testing.T) {
	s := NewIDSet()

	if !s.Add("toyota-harrier-2018") {
		t.Error("first Add should return true")
	}
	if s.Add("toyota-harrier-2018") {
		t.Error("second Add of same id should return false")
	}
	if !s.Contains("toyota-harrier-2018") {
		t.Error("Contains should report the added id")
	}
	if s.Contains("mazda-demio") {
		t.Error("Contains should not report an id never added")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := &RetryConfig{MaxAttempts: 3, Logger: NewWriterLogger(&buf)}

	calls := 0
	err := r.Do("ping", func() error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
	if !strings.Contains(buf.String(), "ping failed (attempt 1/3)") {
		t.Errorf("expected retry warning, got %q", buf.String())
	}
}

func TestRetryWrapsLastError(t *testing.T) {
	sentinel := errors.New("boom")
	r := &RetryConfig{MaxAttempts: 2}

	err := r.Do("ping", func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}
}

func TestLoggerDebugGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Debug("hidden %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output before SetLevel: %q", buf.String())
	}

	l.SetLevel("DEBUG")
	l.Debug("shown %d", 2)
	if !strings.Contains(buf.String(), "shown 2") {
		t.Errorf("debug output missing after SetLevel: %q", buf.String())
	}
}
