package recintern

import (
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func testOptions(t testing.TB) Options {
	return Options{
		Logger: slog.New(slog.NewTextHandler(&logWriter{t: t}, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})),
		Verbose: true,
	}
}

type logWriter struct {
	t testing.TB

	mu  sync.Mutex
	buf strings.Builder
}

func (c *logWriter) Write(buf []byte) (int, error) {
	msg := string(buf)
	origLen := len(msg)
	c.mu.Lock()
	c.buf.WriteString(msg)
	c.mu.Unlock()
	c.t.Log(strings.TrimSuffix(msg, "\n"))
	return origLen, nil
}

func (c *logWriter) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

func assertPanics(t *testing.T, fn func()) any {
	t.Helper()
	var v any
	func() {
		defer func() {
			v = recover()
		}()
		fn()
	}()
	if v == nil {
		t.Fatalf("expected panic")
	}
	return v
}
