package telemetry

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestInfoWritesFields(t *testing.T) {
	var buf bytes.Buffer
	Configure("info", &buf)
	t.Cleanup(func() { Configure("info", os.Stdout) })

	Info("parse.status", map[string]any{"user_id": "u1", "progress": 70})
	out := buf.String()
	for _, want := range []string{"parse.status", `"user_id":"u1"`, `"progress":70`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Configure("warn", &buf)
	t.Cleanup(func() { Configure("info", os.Stdout) })

	Debug("ocr.exec", map[string]any{"cmd": "tesseract"})
	Info("request.complete", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %s", buf.String())
	}
	Warn("structuring.schema_drift", nil)
	if !strings.Contains(buf.String(), "structuring.schema_drift") {
		t.Fatalf("expected warn line, got %s", buf.String())
	}
}
