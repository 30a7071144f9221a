package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/transcribot/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// systemPaths are listed after the API routes in the summary.
var systemPaths = map[string]bool{
	"/health": true,
	"/info":   true,
}

// Component wraps Server for the component registry.
type Component struct {
	server *Server
}

// NewComponent returns a component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

func (c *Component) Health(_ context.Context) component.Health {
	if !c.server.running() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	cfg := c.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Port:    cfg.Port,
	}
}

// Routes returns the registered routes, API routes first.
func (c *Component) Routes() []component.Route {
	gr := c.server.engine.Routes()
	sort.Slice(gr, func(i, j int) bool {
		iSys, jSys := systemPaths[gr[i].Path], systemPaths[gr[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if gr[i].Path != gr[j].Path {
			return gr[i].Path < gr[j].Path
		}
		return methodOrder(gr[i].Method) < methodOrder(gr[j].Method)
	})

	routes := make([]component.Route, 0, len(gr))
	for _, r := range gr {
		routes = append(routes, component.Route{Method: r.Method, Path: r.Path})
	}
	return routes
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
