package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: FormatJSON}, "memecraft", buf)
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", buf.String(), err)
	}
	return rec
}

func TestJSONRecord(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithComponent("memes").Info("templates fetched", Fields("count", 100), Fields("source", "relay"))

	rec := lastRecord(t, &buf)
	want := map[string]any{
		"message":      "templates fetched",
		"level":        "info",
		FieldService:   "memecraft",
		FieldComponent: "memes",
		"count":        float64(100),
		"source":       "relay",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %v", k, rec[k], v)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Info("dropped")
	l.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info and debug to be filtered, got %q", buf.String())
	}
	l.Error("kept")
	if lastRecord(t, &buf)["level"] != "error" {
		t.Error("expected the error record")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"":      zerolog.InfoLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestWithContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	tests := []struct {
		name string
		ctx  context.Context
		want map[string]any
	}{
		{"empty", context.Background(), map[string]any{}},
		{"request id", ContextWithRequestID(context.Background(), "req-789"), map[string]any{FieldRequestID: "req-789"}},
		{"span", spanCtx, map[string]any{FieldTraceID: traceID.String(), FieldSpanID: spanID.String()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			jsonLogger(&buf, "info").WithContext(tc.ctx).Warn("slow upstream")

			rec := lastRecord(t, &buf)
			for _, k := range []string{FieldRequestID, FieldTraceID, FieldSpanID} {
				if rec[k] != tc.want[k] {
					t.Errorf("%s = %v, want %v", k, rec[k], tc.want[k])
				}
			}
		})
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "memecraft", &buf)
	l.Warn("primary attempt failed", Fields("transport", "direct"))

	out := buf.String()
	for _, want := range []string{"[memecraft][WRN]", "primary attempt failed", "transport:direct"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("NoColor output must not contain escape codes")
	}
}

func TestInitInstallsGlobal(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })

	cfg := &Config{ServiceName: "memecraft", Format: FormatJSON, Output: "stderr"}
	Init(cfg)

	if cfg.Level != "info" || !cfg.Timestamp {
		t.Errorf("Init should apply defaults, got %+v", cfg)
	}
	if Default() != global || global == nil {
		t.Error("Default should return the logger installed by Init")
	}
	if WithComponent("memes") == nil || WithContext(context.Background()) == nil {
		t.Error("package helpers should derive from the global logger")
	}
}

func TestDefaultWithoutInit(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })
	global = nil

	if Default() == nil {
		t.Fatal("expected a fallback logger")
	}
	Debug("package helpers")
	Info("do not panic")
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("discarded", Fields("k", "v"))
	l.WithComponent("memes").Error("also discarded")
}

func TestFields(t *testing.T) {
	got := Fields("a", 1, 2, "dropped", "b", true, "dangling")
	if len(got) != 2 || got["a"] != 1 || got["b"] != true {
		t.Errorf("Fields() = %v", got)
	}
}

func TestMergeWithError(t *testing.T) {
	got := MergeWithError(nil, errors.New("boom"))
	if got[FieldError] != "boom" {
		t.Errorf("nil map: %v", got)
	}
	got = MergeWithError(Fields("transport", "relay"), errors.New("refused"))
	if got["transport"] != "relay" || got[FieldError] != "refused" {
		t.Errorf("merged map: %v", got)
	}
}

func TestConfig(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != FormatConsole || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	for _, bad := range []Config{
		{Level: "loud", Format: FormatJSON, Output: "stdout"},
		{Level: "info", Format: "xml", Output: "stdout"},
		{Level: "info", Format: FormatJSON, Output: "syslog"},
	} {
		if err := bad.Validate(); err == nil {
			t.Errorf("expected %+v to be rejected", bad)
		}
	}
}
