package site

import (
	"fmt"

	"github.com/kbukum/folio/bootstrap"
	"github.com/kbukum/folio/cache"
	"github.com/kbukum/folio/content"
	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/observability"
	"github.com/kbukum/folio/pointer"
	"github.com/kbukum/folio/redis"
	"github.com/kbukum/folio/server"
	"github.com/kbukum/folio/server/middleware"
	"github.com/kbukum/folio/sse"
	"github.com/kbukum/folio/ws"
)

// Paths of the streaming endpoints, mounted beside the gin engine.
const (
	EventsPath    = "/events/pointer"
	WebSocketPath = "/ws/pointer"
)

// Site holds the parts of a running folio service.
type Site struct {
	Feed        *pointer.Feed
	Broadcaster *pointer.Broadcaster
	Content     *content.Service
	Webhook     *content.Webhook
	Hub         *sse.Hub
	Server      *server.Server
	WebSocket   *ws.Handler
}

// New builds the service and registers its components with app in start
// order: observability, redis, content, pointer, sse and finally the HTTP
// server, which therefore stops first.
func New(app *bootstrap.App[*Config]) (*Site, error) {
	cfg := app.Cfg
	log := app.Logger

	if err := registerObservability(app); err != nil {
		return nil, err
	}

	sseComp := sse.NewComponent(EventsPath)
	hub := sseComp.Hub()

	contentComp, err := registerContent(app, content.OnChange(func(n content.Notification) {
		e, err := sse.NewEvent(sse.EventTypeContentUpdated, sse.ContentUpdatedEvent{
			DocumentID: n.ID,
			Type:       n.Type,
		})
		if err != nil {
			log.Error("Encoding content update failed", logger.ErrorFields("encode", err))
			return
		}
		hub.Broadcast(e)
	}))
	if err != nil {
		return nil, err
	}

	pointerMetrics, err := observability.NewPointerMetrics(observability.Meter("folio/pointer"))
	if err != nil {
		return nil, fmt.Errorf("pointer metrics: %w", err)
	}
	feed := pointer.NewFeed()
	broadcaster := pointer.New(feed,
		pointer.WithInterval(cfg.Pointer.Interval),
		pointer.WithLogger(log.WithComponent("pointer")),
		pointer.WithMetrics(pointerMetrics),
	)
	if err := app.RegisterComponent(pointer.NewComponent(broadcaster)); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(sseComp); err != nil {
		return nil, err
	}

	httpMetrics, err := observability.NewHTTPMetrics(observability.Meter("folio/http"))
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}
	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()

	s := &Site{
		Feed:        feed,
		Broadcaster: broadcaster,
		Content:     contentComp.Service(),
		Webhook:     contentComp.Webhook(),
		Hub:         hub,
		Server:      srv,
		WebSocket: ws.NewHandler(broadcaster, feed,
			ws.WithOriginPatterns(cfg.Pointer.OriginPatterns...),
			ws.WithWriteTimeout(cfg.Pointer.WriteTimeout),
			ws.WithLogger(log.WithComponent("ws")),
		),
	}

	engine := srv.GinEngine()
	engine.Use(middleware.Metrics(httpMetrics))
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll)
	s.registerAPI(cfg.Webhook)

	srv.Handle(EventsPath, sse.NewHandler(hub, broadcaster, sse.WithKeepAlive(cfg.Pointer.KeepAlive)))
	srv.Handle(WebSocketPath, s.WebSocket)
	// Streams never finish on their own, so end them when shutdown starts.
	srv.OnShutdown(hub.Stop)
	srv.OnShutdown(s.WebSocket.Close)

	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	return s, nil
}

// NewContent registers only what the content layer needs. The CLI uses it
// for one-shot fetches.
func NewContent(app *bootstrap.App[*Config]) (*content.Service, error) {
	if err := registerObservability(app); err != nil {
		return nil, err
	}
	comp, err := registerContent(app)
	if err != nil {
		return nil, err
	}
	return comp.Service(), nil
}

func registerObservability(app *bootstrap.App[*Config]) error {
	cfg := app.Cfg
	return app.RegisterComponent(observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment))
}

// registerContent builds the content client, cache and service. Webhook
// options are only used when at least one is given.
func registerContent(app *bootstrap.App[*Config], webhookOpts ...content.WebhookOption) (*content.Component, error) {
	cfg := app.Cfg.Content
	log := app.Logger

	client, err := content.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	memory, err := cache.NewMemory(cfg.MaxCacheBytes())
	if err != nil {
		return nil, fmt.Errorf("content cache: %w", err)
	}
	var store cache.Cache = memory
	if app.Cfg.Redis.Enabled {
		rc := redis.NewComponent(app.Cfg.Redis, log.WithComponent("redis"))
		if err := app.RegisterComponent(rc); err != nil {
			memory.Close()
			return nil, err
		}
		store = cache.NewTiered(memory, cache.NewRedis(rc), cfg.CacheTTL)
	}

	service := content.NewService(client, store,
		content.WithTTL(cfg.CacheTTL),
		content.WithLogger(log.WithComponent("content")),
		content.WithTracer(observability.Tracer("folio/content")),
	)

	var webhook *content.Webhook
	if len(webhookOpts) > 0 {
		opts := append([]content.WebhookOption{
			content.WithDebounce(cfg.WebhookDebounce),
			content.WithTolerance(cfg.WebhookTolerance),
		}, webhookOpts...)
		webhook = content.NewWebhook(service, cfg.WebhookSecret, opts...)
	}

	comp := content.NewComponent(cfg, service, webhook,
		content.WithBreaker(client),
		content.WithMemoryCache(memory),
		content.WithWarmup(cfg.Warmup),
	)
	if err := app.RegisterComponent(comp); err != nil {
		memory.Close()
		return nil, err
	}
	return comp, nil
}
