package server

import (
	"context"

	"github.com/kbukum/folio/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component runs a Server inside the component registry. Register it last
// so it stops first and no request reaches a stopped dependency.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Server returns the wrapped server.
func (c *Component) Server() *Server { return c.server }

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	return c.server.Start(ctx)
}

func (c *Component) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}

func (c *Component) Health(_ context.Context) component.Health {
	return component.Health{
		Name:    componentName,
		Status:  component.StatusHealthy,
		Message: c.server.Addr(),
	}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: c.server.Addr(),
	}
}

// Routes lists the API and streaming routes, then the system routes.
func (c *Component) Routes() []component.Route {
	return c.server.routes()
}
