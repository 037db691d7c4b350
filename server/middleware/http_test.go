package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/atul-1602/memecraft/errors"
	"github.com/atul-1602/memecraft/logger"
	"github.com/atul-1602/memecraft/observability"
	"github.com/atul-1602/memecraft/server/middleware"
)

func status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRecovery(t *testing.T) {
	log := logger.NewNop()

	rr := serve(middleware.Recovery(log)(status(http.StatusTeapot)), httptest.NewRequest("GET", "/", http.NoBody))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected the handler status without a panic, got %d", rr.Code)
	}

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rr = serve(middleware.Recovery(log)(panicking), httptest.NewRequest("GET", "/api/templates", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var body errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Error.Code != errors.ErrCodeInternal {
		t.Errorf("expected %s, got %s", errors.ErrCodeInternal, body.Error.Code)
	}
	if strings.Contains(rr.Body.String(), "boom") {
		t.Error("panic value must not leak into the response")
	}
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	h := middleware.Recovery(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to be re-raised, got %v", rec)
		}
	}()
	serve(h, httptest.NewRequest("GET", "/", http.NoBody))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"preserved", "custom-id-123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var onHeader, onContext string
			h := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				onHeader = r.Header.Get(middleware.HeaderRequestID)
				onContext = logger.RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set(middleware.HeaderRequestID, tt.incoming)
			}
			rr := serve(h, req)

			got := rr.Header().Get(middleware.HeaderRequestID)
			if got == "" {
				t.Fatal("expected a request id on the response")
			}
			if tt.incoming != "" && got != tt.incoming {
				t.Errorf("expected %q, got %q", tt.incoming, got)
			}
			if onHeader != got || onContext != got {
				t.Errorf("handler saw header %q and context %q, response has %q", onHeader, onContext, got)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantHandled bool
	}{
		{"allowed origin", "GET", "https://app.example.com", false, http.StatusOK, "https://app.example.com", true},
		{"other origin", "GET", "https://evil.example.com", false, http.StatusOK, "", true},
		{"no origin", "GET", "", false, http.StatusOK, "", true},
		{"preflight", "OPTIONS", "https://app.example.com", true, http.StatusNoContent, "https://app.example.com", false},
		{"plain options", "OPTIONS", "https://app.example.com", false, http.StatusOK, "https://app.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled := false
			h := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handled = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/templates", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", "GET")
			}
			rr := serve(h, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if handled != tt.wantHandled {
				t.Errorf("handler called = %v, want %v", handled, tt.wantHandled)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("expected allow origin %q, got %q", tt.wantOrigin, got)
			}
			if !slices.Contains(rr.Header().Values("Vary"), "Origin") {
				t.Error("expected Vary: Origin")
			}
			if tt.wantOrigin == "" {
				return
			}
			if got := rr.Header().Get("Access-Control-Expose-Headers"); got != "X-RateLimit-Remaining, Retry-After" {
				t.Errorf("unexpected expose headers %q", got)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
				t.Errorf("expected credentials to be allowed, got %q", got)
			}
			if tt.preflight {
				if got := rr.Header().Get("Access-Control-Max-Age"); got != "600" {
					t.Errorf("expected max age 600, got %q", got)
				}
				if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
					t.Errorf("unexpected allow methods %q", got)
				}
			}
		})
	}
}

func TestCORS_Wildcard(t *testing.T) {
	h := middleware.CORS(&middleware.CORSConfig{AllowedOrigins: []string{"*"}})(status(http.StatusOK))
	req := httptest.NewRequest("GET", "/", http.NoBody)
	req.Header.Set("Origin", "https://anywhere.example.com")

	rr := serve(h, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example.com" {
		t.Errorf("expected the origin to be echoed, got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("expected no credentials header, got %q", got)
	}
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(raw) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			t.Fatalf("invalid log line %q: %v", raw, err)
		}
		lines = append(lines, rec)
	}
	return lines
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		code  int
		level string
	}{
		{http.StatusOK, "debug"},
		{http.StatusTooManyRequests, "warn"},
		{http.StatusBadGateway, "error"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
			h := middleware.RequestLogger(log)(status(tt.code))

			serve(h, httptest.NewRequest("GET", "/api/templates", http.NoBody))

			lines := logLines(t, &buf)
			if len(lines) != 1 {
				t.Fatalf("expected one log line, got %d", len(lines))
			}
			if lines[0]["level"] != tt.level {
				t.Errorf("expected level %s, got %v", tt.level, lines[0]["level"])
			}
			if lines[0]["status"] != float64(tt.code) {
				t.Errorf("expected status %d, got %v", tt.code, lines[0]["status"])
			}
		})
	}
}

func TestRequestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)

	h := middleware.Chain(middleware.RequestLogger(log), middleware.RequestID())(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("hello"))
		}))

	req := httptest.NewRequest("GET", "/api/templates?limit=5", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "req-42")
	serve(h, req)

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(lines))
	}
	rec := lines[0]
	if rec["request_id"] != "req-42" {
		t.Errorf("expected request_id req-42, got %v", rec["request_id"])
	}
	if rec["query"] != "limit=5" {
		t.Errorf("expected query limit=5, got %v", rec["query"])
	}
	if rec["bytes"] != float64(5) {
		t.Errorf("expected 5 bytes, got %v", rec["bytes"])
	}
}

func TestRequestLogger_QuietPaths(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	h := middleware.RequestLogger(log)(status(http.StatusServiceUnavailable))

	for _, path := range []string{"/health", "/liveness", "/readiness", "/metrics"} {
		if rr := serve(h, httptest.NewRequest("GET", path, http.NoBody)); rr.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected the handler to run, got %d", path, rr.Code)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output for probe paths, got %q", buf.String())
	}
}

type flushRecorder struct {
	http.ResponseWriter
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestRequestLogger_PreservesFlusher(t *testing.T) {
	fr := &flushRecorder{ResponseWriter: httptest.NewRecorder()}
	h := middleware.RequestLogger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("flush: %v", err)
		}
	}))

	h.ServeHTTP(fr, httptest.NewRequest("GET", "/stream", http.NoBody))

	if !fr.flushed {
		t.Error("expected Flush to reach the underlying writer")
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+">")
				next.ServeHTTP(w, r)
				order = append(order, "<"+name)
			})
		}
	}

	h := middleware.Chain(mark("a"), mark("b"), mark("c"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	serve(h, httptest.NewRequest("GET", "/", http.NoBody))

	want := []string{"a>", "b>", "c>", "handler", "<c", "<b", "<a"}
	if !slices.Equal(order, want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
}

func TestChain_Empty(t *testing.T) {
	rr := serve(middleware.Chain()(status(http.StatusAccepted)), httptest.NewRequest("GET", "/", http.NoBody))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected the bare handler, got %d", rr.Code)
	}
}

func withTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestTelemetry_SpanPerRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := withTracer(t)

	var route string
	engine := gin.New()
	engine.Use(middleware.Telemetry("memecraft", nil))
	engine.GET("/api/templates/:id", func(c *gin.Context) {
		if op := observability.OperationFromContext(c.Request.Context()); op != nil {
			route = op.Route
		}
		c.Status(http.StatusNotFound)
	})

	serve(engine, httptest.NewRequest("GET", "/api/templates/42", http.NoBody))

	if route != "GET /api/templates/:id" {
		t.Errorf("expected the route template, got %q", route)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != observability.SpanHTTPRequest {
		t.Fatalf("expected one http.request span, got %v", spans)
	}
	attrs := attribute.NewSet(spans[0].Attributes...)
	if v, _ := attrs.Value(observability.AttrStatus); v.AsString() != "404" {
		t.Errorf("expected status attribute 404, got %q", v.AsString())
	}
}

func TestTelemetry_ServerErrorRecorded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := withTracer(t)

	engine := gin.New()
	engine.Use(middleware.Telemetry("memecraft", nil))
	engine.GET("/api/templates", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	serve(engine, httptest.NewRequest("GET", "/api/templates", http.NoBody))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected the 502 to be recorded as an error event")
	}
}

func TestTelemetry_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := withTracer(t)

	engine := gin.New()
	engine.Use(middleware.Telemetry("memecraft", nil))

	rr := serve(engine, httptest.NewRequest("GET", "/nope", http.NoBody))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	attrs := attribute.NewSet(spans[0].Attributes...)
	if v, _ := attrs.Value(observability.AttrRoute); v.AsString() != "GET unmatched" {
		t.Errorf("expected the unmatched route label, got %q", v.AsString())
	}
}
