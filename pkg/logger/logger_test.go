package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestJSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.With(String("component", "test")).Info("fetched",
		String("symbol", "AAPL"),
		Int("bars", 30),
		Float64("close", 101.5),
		Error(errors.New("boom")),
	)

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	for _, want := range []string{`"symbol":"AAPL"`, `"bars":30`, `"close":101.5`, `"error":"boom"`, `"component":"test"`, `"message":"fetched"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestErrorFieldNil(t *testing.T) {
	k, v := Error(nil).GetKeyValue()
	if k != "error" || v != nil {
		t.Fatalf("unexpected key/value %q %v", k, v)
	}
}
