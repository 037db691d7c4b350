package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/atul-1602/memecraft/component"
	"github.com/atul-1602/memecraft/config"
	"github.com/atul-1602/memecraft/logger"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: name, Version: version}}
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	m.record("start " + m.name)
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	m.record("stop " + m.name)
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) component.Health { return m.health }

func (m *mockComponent) record(e string) {
	if m.events != nil {
		*m.events = append(*m.events, e)
	}
}

func quietApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewNop()), WithSummaryOutput(io.Discard)}, opts...)
	app, err := NewApp(newTestConfig("memecraft", "1.0.0"), opts...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func hook(events *[]string, name string, err error) Hook {
	return func(context.Context) error {
		*events = append(*events, name)
		return err
	}
}

func TestNewApp_AppliesDefaults(t *testing.T) {
	app := quietApp(t)

	if app.Name != "memecraft" || app.Version != "1.0.0" {
		t.Errorf("got %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" || !app.Cfg.Debug {
		t.Errorf("defaults not applied: %+v", app.Cfg.ServiceConfig)
	}
	if app.Components == nil || app.Summary == nil || app.Logger == nil {
		t.Error("expected registry, summary and logger")
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("gracefulTimeout = %s", app.gracefulTimeout)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	_, err := NewApp(newTestConfig("", "1.0.0"))
	if err == nil || !strings.Contains(err.Error(), "config validation") {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestNewApp_Options(t *testing.T) {
	log := logger.NewNop()
	app := quietApp(t, WithLogger(log), WithGracefulTimeout(3*time.Second))
	if app.Logger != log {
		t.Error("WithLogger not applied")
	}
	if app.gracefulTimeout != 3*time.Second {
		t.Errorf("gracefulTimeout = %s", app.gracefulTimeout)
	}
}

func TestRegisterComponent(t *testing.T) {
	app := quietApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "memes"}); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterComponent(&mockComponent{name: "memes"}); err == nil {
		t.Error("duplicate component names must be rejected")
	}
	if app.Components.Get("memes") == nil {
		t.Error("component not registered")
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	var events []string
	app := quietApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "memes", events: &events})
	_ = app.RegisterComponent(&mockComponent{name: "http-server", events: &events})
	app.OnStart(hook(&events, "onStart", nil))
	app.OnReady(hook(&events, "onReady", nil))
	app.OnStop(hook(&events, "onStop", nil))

	err := app.RunTask(context.Background(), func(context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"start memes", "start http-server", "onStart", "onReady", "task",
		"onStop", "stop http-server", "stop memes",
	}
	if !slices.Equal(events, want) {
		t.Errorf("events = %v\nwant     %v", events, want)
	}
}

func TestRunTask_Errors(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(app *App[*testConfig], events *[]string)
		task    error
		wantErr string
		ranTask bool
	}{
		{
			name:    "task error",
			setup:   func(*App[*testConfig], *[]string) {},
			task:    errBoom,
			wantErr: "boom",
			ranTask: true,
		},
		{
			name: "component start error",
			setup: func(app *App[*testConfig], events *[]string) {
				_ = app.RegisterComponent(&mockComponent{name: "memes", startErr: errBoom, events: events})
			},
			wantErr: "start components: start memes: boom",
		},
		{
			name: "onStart error",
			setup: func(app *App[*testConfig], events *[]string) {
				app.OnStart(hook(events, "onStart", errBoom))
			},
			wantErr: "onStart: hook 0: boom",
		},
		{
			name: "onReady error",
			setup: func(app *App[*testConfig], events *[]string) {
				app.OnReady(hook(events, "onReady", errBoom))
			},
			wantErr: "onReady: hook 0: boom",
		},
		{
			name: "onStop error surfaces after a successful task",
			setup: func(app *App[*testConfig], events *[]string) {
				app.OnStop(hook(events, "onStop", errBoom))
			},
			wantErr: "hook 0: boom",
			ranTask: true,
		},
		{
			name: "task error wins over stop error",
			setup: func(app *App[*testConfig], events *[]string) {
				_ = app.RegisterComponent(&mockComponent{name: "memes", stopErr: errors.New("stuck"), events: events})
			},
			task:    errBoom,
			wantErr: "boom",
			ranTask: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var events []string
			app := quietApp(t)
			tc.setup(app, &events)

			ran := false
			err := app.RunTask(context.Background(), func(context.Context) error {
				ran = true
				return tc.task
			})
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("err = %v, want %q", err, tc.wantErr)
			}
			if ran != tc.ranTask {
				t.Errorf("task ran = %v, want %v", ran, tc.ranTask)
			}
		})
	}
}

func TestRunTask_HooksStopAtFirstFailure(t *testing.T) {
	var events []string
	app := quietApp(t)
	app.OnStart(hook(&events, "first", nil), hook(&events, "second", errors.New("x")), hook(&events, "third", nil))

	_ = app.RunTask(context.Background(), func(context.Context) error { return nil })
	if !slices.Equal(events, []string{"first", "second"}) {
		t.Errorf("events = %v", events)
	}
}

func TestRunTask_CanceledContextReachesTask(t *testing.T) {
	app := quietApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_ReturnsWhenContextDone(t *testing.T) {
	var events []string
	app := quietApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "http-server", events: &events})

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context was canceled")
	}
	if !slices.Equal(events, []string{"start http-server", "stop http-server"}) {
		t.Errorf("events = %v", events)
	}
}

func TestHealthIssues(t *testing.T) {
	app := quietApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "http-server",
		health: component.Health{Name: "http-server", Status: component.StatusHealthy}})
	_ = app.RegisterComponent(&mockComponent{name: "memes",
		health: component.Health{Name: "memes", Status: component.StatusDegraded, Message: "rate limit reached"}})
	_ = app.RegisterComponent(&mockComponent{name: "relay",
		health: component.Health{Name: "relay", Status: component.StatusUnhealthy}})

	got := app.HealthIssues(context.Background())
	want := []string{"memes=degraded(rate limit reached)", "relay=unhealthy"}
	if !slices.Equal(got, want) {
		t.Errorf("HealthIssues() = %v, want %v", got, want)
	}
}

// describedComponent implements Component, Describable and RouteProvider.
type describedComponent struct {
	mockComponent
	desc   component.Description
	routes []component.Route
}

func (d *describedComponent) Describe() component.Description { return d.desc }
func (d *describedComponent) Routes() []component.Route       { return d.routes }

func TestSummaryDisplay(t *testing.T) {
	registry := component.NewRegistry()
	_ = registry.Register(&describedComponent{
		mockComponent: mockComponent{
			name:   "http-server",
			health: component.Health{Name: "http-server", Status: component.StatusHealthy},
		},
		desc: component.Description{Name: "HTTP Server", Type: "server", Details: "0.0.0.0:8080", Port: 8080},
		routes: []component.Route{
			{Method: "GET", Path: "/api/templates", Handler: "Handler.ListTemplates"},
			{Method: "GET", Path: "/api/quota", Handler: "Handler.Quota"},
		},
	})
	_ = registry.Register(&describedComponent{
		mockComponent: mockComponent{
			name:   "memes",
			health: component.Health{Name: "memes", Status: component.StatusDegraded, Message: "rate limited"},
		},
		desc: component.Description{Type: "upstream", Details: "https://api.imgflip.com/get_memes"},
	})

	var out bytes.Buffer
	s := NewSummary("memecraft", "1.2.3")
	s.SetOutput(&out)
	s.SetStartupDuration(1500 * time.Millisecond)
	s.Display(context.Background(), registry)

	got := out.String()
	for _, want := range []string{
		"memecraft v1.2.3 started in 1.50s",
		"HTTP Server [server]: 0.0.0.0:8080 (:8080)",
		"memes [upstream]: https://api.imgflip.com/get_memes",
		"Routes (2)",
		"/api/templates → Handler.ListTemplates",
		"memes: degraded — rate limited",
		"Some components have issues (1/2 healthy)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSummaryDisplayAllHealthy(t *testing.T) {
	registry := component.NewRegistry()
	_ = registry.Register(&mockComponent{
		name:   "memes",
		health: component.Health{Name: "memes", Status: component.StatusHealthy},
	})

	var out bytes.Buffer
	s := NewSummary("memecraft", "dev")
	s.SetOutput(&out)
	s.Display(context.Background(), registry)

	if !strings.Contains(out.String(), "All components healthy (1/1)") {
		t.Errorf("unexpected summary:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Routes") {
		t.Errorf("expected no routes section:\n%s", out.String())
	}
}

func TestSummaryDisplayEmpty(t *testing.T) {
	for name, registry := range map[string]*component.Registry{
		"nil registry":   nil,
		"empty registry": component.NewRegistry(),
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			s := NewSummary("memecraft", "dev")
			s.SetOutput(&out)
			s.Display(context.Background(), registry)

			if !strings.Contains(out.String(), "No components registered") {
				t.Errorf("unexpected summary:\n%s", out.String())
			}
		})
	}
}

func TestRunTaskShowsSummary(t *testing.T) {
	var out bytes.Buffer
	app, err := NewApp(newTestConfig("memecraft", "1.0.0"), WithSummaryOutput(&out), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatal(err)
	}
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "memecraft v1.0.0 started") {
		t.Errorf("expected startup banner, got:\n%s", out.String())
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := map[component.HealthStatus]string{
		component.StatusHealthy:   "✅",
		component.StatusDegraded:  "⚠️",
		component.StatusUnhealthy: "❌",
		"unknown":                 "❓",
	}
	for status, want := range tests {
		if got := healthStatusIcon(status); got != want {
			t.Errorf("healthStatusIcon(%s) = %s, want %s", status, got, want)
		}
	}
}
