package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	l := slog.New(h)
	return NewSlogLogger(l), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		key   string
		val   string
	}{
		{"DEBUG", "dbg", "a", "1"},
		{"INFO", "inf", "b", "2"},
		{"WARN", "wrn", "c", "3"},
		{"ERROR", "err", "d", "4"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected line with level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, "msg="+tc.msg) {
			t.Fatalf("expected line with msg=%q in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.key+"="+tc.val) {
			t.Fatalf("expected attribute %s=%s in output:\n%s", tc.key, tc.val, out)
		}
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log2 := log.With("req_id", "123", "user", "alice")
	log2.Info(ctx, "hello", "k", "v")

	out := buf.String()
	wantSubs := []string{
		"level=INFO",
		"msg=hello",
		"req_id=123",
		"user=alice",
		"k=v",
	}
	for _, s := range wantSubs {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestSlogLogger_AppendsContextAttrs(t *testing.T) {
	log, buf := newTestLogger(t)

	ctx := WithAttrs(context.Background(), "request_id", "r-1")
	ctx = WithAttrs(ctx, "user_id", 7)
	log.With("module", "services").Warn(ctx, "slow query", "ms", 120)

	out := buf.String()
	for _, s := range []string{"module=services", "ms=120", "request_id=r-1", "user_id=7"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestWithAttrs_DoesNotLeakIntoParent(t *testing.T) {
	parent := WithAttrs(context.Background(), "a", 1)
	child := WithAttrs(parent, "b", 2)
	sibling := WithAttrs(parent, "c", 3)

	if got := len(AttrsFrom(parent)); got != 2 {
		t.Fatalf("parent attrs = %d, want 2", got)
	}
	if got := AttrsFrom(child); len(got) != 4 || got[2] != "b" {
		t.Fatalf("child attrs = %v", got)
	}
	if got := AttrsFrom(sibling); len(got) != 4 || got[2] != "c" {
		t.Fatalf("sibling attrs = %v", got)
	}
	if WithAttrs(parent) != parent {
		t.Fatalf("WithAttrs without pairs must return ctx unchanged")
	}
}

func TestSlogLogger_CallerArgsNotMutated(t *testing.T) {
	log, _ := newTestLogger(t)
	ctx := WithAttrs(context.Background(), "request_id", "r-2")

	args := make([]any, 2, 8)
	args[0], args[1] = "k", "v"
	log.Info(ctx, "first", args...)

	if extra := args[:cap(args)][2]; extra != nil {
		t.Fatalf("caller slice was written to: %v", extra)
	}
}

func TestSlogLogger_NilContext(t *testing.T) {
	log, buf := newTestLogger(t)

	log.Info(nil, "ctx-ok")
	if !strings.Contains(buf.String(), "msg=ctx-ok") {
		t.Fatalf("expected output, got:\n%s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "warn")
	ctx := context.Background()

	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown", "module", "api")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line must be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"module":"api"`) {
		t.Fatalf("expected JSON warn line, got:\n%s", out)
	}
}

func TestNopLogger_Discards(t *testing.T) {
	var l Logger = NewNopLogger()
	l.With("k", "v").Error(context.Background(), "nothing")
}
