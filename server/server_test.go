package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/folio/component"
	apperrors "github.com/kbukum/folio/errors"
	"github.com/kbukum/folio/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.Nop())
	s.ApplyMiddleware()
	return s
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Port != 8080 || cfg.Host != "0.0.0.0" {
		t.Errorf("unexpected address %s", cfg.Addr())
	}
	if cfg.WriteTimeout != 15*time.Second {
		t.Errorf("unexpected write timeout %v", cfg.WriteTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"negative timeout", func(c *Config) { c.ReadTimeout = -time.Second }},
		{"bad body size", func(c *Config) { c.MaxBodySize = "lots" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestServer_EnvelopeAndErrors(t *testing.T) {
	s := newTestServer(t)
	r := s.GinEngine()
	r.GET("/ok", func(c *gin.Context) { RespondOK(c, map[string]int{"n": 1}) })
	r.GET("/missing", func(c *gin.Context) { RespondWithError(c, apperrors.NotFound("project", "x")) })
	r.GET("/plain", func(c *gin.Context) { RespondWithError(c, errors.New("boom")) })
	r.POST("/later", func(c *gin.Context) { RespondAccepted(c, gin.H{"queued": true}) })

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"GET", "/ok", http.StatusOK, `{"data":{"n":1}}`},
		{"POST", "/later", http.StatusAccepted, `{"data":{"queued":true}}`},
	}
	for _, tc := range tests {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, http.NoBody))
		if rr.Code != tc.wantCode || rr.Body.String() != tc.wantBody {
			t.Errorf("%s %s: got %d %s", tc.method, tc.path, rr.Code, rr.Body.String())
		}
		if rr.Header().Get("X-Request-Id") == "" {
			t.Errorf("%s %s: middleware stack not applied", tc.method, tc.path)
		}
	}

	for path, want := range map[string]struct {
		code int
		err  string
	}{
		"/missing": {http.StatusNotFound, "NOT_FOUND"},
		"/plain":   {http.StatusInternalServerError, "INTERNAL_ERROR"},
	} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))
		var body apperrors.ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid body %s", path, rr.Body.String())
		}
		if rr.Code != want.code || string(body.Error.Code) != want.err {
			t.Errorf("%s: got %d %s", path, rr.Code, body.Error.Code)
		}
	}
}

func TestServer_HealthReflectsComponents(t *testing.T) {
	tests := []struct {
		name     string
		statuses []component.HealthStatus
		wantCode int
		want     string
	}{
		{"all healthy", []component.HealthStatus{component.StatusHealthy}, http.StatusOK, "healthy"},
		{"degraded", []component.HealthStatus{component.StatusHealthy, component.StatusDegraded}, http.StatusOK, "degraded"},
		{"unhealthy", []component.HealthStatus{component.StatusDegraded, component.StatusUnhealthy}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.RegisterDefaultEndpoints("folio", func(context.Context) []component.Health {
				out := make([]component.Health, len(tc.statuses))
				for i, st := range tc.statuses {
					out[i] = component.Health{Name: "c", Status: st}
				}
				return out
			})

			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

			var body struct {
				Status  string `json:"status"`
				Service string `json:"service"`
			}
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			if rr.Code != tc.wantCode || body.Status != tc.want || body.Service != "folio" {
				t.Errorf("got %d %+v", rr.Code, body)
			}
		})
	}
}

func TestServer_Version(t *testing.T) {
	s := newTestServer(t)
	s.RegisterDefaultEndpoints("folio", nil)

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/version", http.NoBody))

	var body struct {
		Service string `json:"service"`
		Build   struct {
			Version string `json:"version"`
		} `json:"build"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if rr.Code != http.StatusOK || body.Service != "folio" || body.Build.Version == "" {
		t.Errorf("unexpected version response %d %s", rr.Code, rr.Body.String())
	}
}

func TestServer_HandleMountsBesideGin(t *testing.T) {
	s := newTestServer(t)
	s.Handle("/events/pointer", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "stream")
	}))

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/events/pointer", http.NoBody))
	if rr.Body.String() != "stream" {
		t.Errorf("expected mux handler, got %q", rr.Body.String())
	}
}

func TestComponent_StartServeStop(t *testing.T) {
	s := newTestServer(t)
	s.RegisterDefaultEndpoints("folio", nil)
	c := NewComponent(s)
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if h := c.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("unexpected health %+v", h)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestComponent_RoutesSortedWithSystemLast(t *testing.T) {
	s := newTestServer(t)
	s.RegisterDefaultEndpoints("folio", nil)
	s.GinEngine().POST("/api/webhooks/content", func(c *gin.Context) {})
	s.GinEngine().GET("/api/home", func(c *gin.Context) {})
	s.Handle("/events/pointer", http.NotFoundHandler())
	s.Handle("GET /ws/pointer", http.NotFoundHandler())

	routes := NewComponent(s).Routes()
	want := []component.Route{
		{Method: "GET", Path: "/api/home"},
		{Method: "POST", Path: "/api/webhooks/content"},
		{Method: "ANY", Path: "/events/pointer", Handler: "http.HandlerFunc"},
		{Method: "GET", Path: "/ws/pointer", Handler: "http.HandlerFunc"},
		{Method: "GET", Path: "/health"},
		{Method: "GET", Path: "/version"},
	}
	if len(routes) != len(want) {
		t.Fatalf("expected %d routes, got %+v", len(want), routes)
	}
	for i, w := range want {
		r := routes[i]
		if r.Method != w.Method || r.Path != w.Path || (w.Handler != "" && r.Handler != w.Handler) {
			t.Errorf("route %d: expected %+v, got %+v", i, w, r)
		}
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"github.com/kbukum/folio/site.(*API).project-fm", "API.project"},
		{"github.com/kbukum/folio/server/endpoint.Health.func1", "health"},
		{"main.handler", "handler"},
	}
	for _, tc := range tests {
		if got := formatHandlerName(tc.in); got != tc.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestServer_OnShutdownRunsOnStop(t *testing.T) {
	s := newTestServer(t)
	called := make(chan struct{})
	s.OnShutdown(func() { close(called) })

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Error("shutdown hook did not run")
	}
}
