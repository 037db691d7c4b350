package server

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atul-1602/memecraft/component"
)

const componentName = "http-server"

// systemPaths are the routes mounted by RegisterDefaultEndpoints.
var systemPaths = map[string]bool{
	"/health":    true,
	"/liveness":  true,
	"/readiness": true,
	"/info":      true,
	"/version":   true,
	"/metrics":   true,
}

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component runs a Server under the bootstrap lifecycle.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string                    { return componentName }
func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }
func (c *Component) Stop(ctx context.Context) error  { return c.server.Stop(ctx) }

// Health is unhealthy until the listener is bound.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if !c.server.Listening() {
		h.Status = component.StatusUnhealthy
		h.Message = "HTTP server not listening"
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr(),
		Port:    c.server.cfg.Port,
	}
}

// Routes lists API routes before system routes, by path then method.
func (c *Component) Routes() []component.Route {
	infos := c.server.engine.Routes()
	slices.SortFunc(infos, func(a, b gin.RouteInfo) int {
		if sa, sb := systemPaths[a.Path], systemPaths[b.Path]; sa != sb {
			if sa {
				return 1
			}
			return -1
		}
		if n := strings.Compare(a.Path, b.Path); n != 0 {
			return n
		}
		return methodRank(a.Method) - methodRank(b.Method)
	})

	routes := make([]component.Route, len(infos))
	for i, r := range infos {
		name := handlerName(r.Handler)
		if systemPaths[r.Path] {
			name += " ⚙️"
		}
		routes[i] = component.Route{Method: r.Method, Path: r.Path, Handler: name}
	}
	return routes
}

// handlerName shortens Gin's handler symbol for display:
// "github.com/atul-1602/memecraft/api.(*Handler).ListTemplates-fm" becomes
// "Handler.ListTemplates" and the closure "endpoint.Health.func1" becomes
// "health".
func handlerName(symbol string) string {
	name := strings.TrimSuffix(symbol, "-fm")
	name = name[strings.LastIndex(name, "/")+1:]
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	if len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}
	if len(parts) > 1 && parts[0] == strings.ToLower(parts[0]) {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func methodRank(method string) int {
	if i := slices.Index([]string{"GET", "HEAD", "OPTIONS"}, method); i >= 0 {
		return i
	}
	return 3
}
