package content

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kbukum/folio/cache"
	"github.com/kbukum/folio/errors"
	"github.com/kbukum/folio/httpclient"
	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/validation"
)

const tracerName = "github.com/kbukum/folio/content"

type collection struct {
	name  string
	query string
}

func (c collection) key() string { return "content:" + c.name }

var (
	projects = collection{name: "projects", query: ProjectsQuery}
	videos   = collection{name: "videos", query: VideosQuery}
	images   = collection{name: "images", query: ImagesQuery}

	collections = []collection{projects, videos, images}
)

// Service serves validated, ordered content collections from a cache in
// front of the content store.
type Service struct {
	querier Querier
	cache   cache.Cache
	ttl     time.Duration
	log     *logger.Logger
	tracer  trace.Tracer

	group   singleflight.Group
	dropped atomic.Uint64
	// gen changes on every Invalidate. A load that started under an older
	// generation does not write its result back to the cache.
	gen atomic.Uint64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTTL sets how long fetched collections are cached.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = ttl }
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithTracer sets the tracer used for fetch spans. Defaults to the global
// provider.
func WithTracer(t trace.Tracer) ServiceOption {
	return func(s *Service) { s.tracer = t }
}

// NewService creates a Service reading through c.
func NewService(q Querier, c cache.Cache, opts ...ServiceOption) *Service {
	s := &Service{
		querier: q,
		cache:   c,
		ttl:     time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.WithComponent("content")
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Projects returns portfolio projects ordered by orderRank.
func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	return fetch[Project](ctx, s, projects)
}

// Videos returns film-lab videos ordered by orderRank.
func (s *Service) Videos(ctx context.Context) ([]Video, error) {
	return fetch[Video](ctx, s, videos)
}

// Images returns visual-generation images ordered by orderRank.
func (s *Service) Images(ctx context.Context) ([]Image, error) {
	return fetch[Image](ctx, s, images)
}

// VideosByPlatform returns the videos made with platform, compared
// case-insensitively. An empty platform returns every video.
func (s *Service) VideosByPlatform(ctx context.Context, platform string) ([]Video, error) {
	all, err := s.Videos(ctx)
	if err != nil || platform == "" {
		return all, err
	}
	return filter(all, func(v Video) bool { return strings.EqualFold(v.Platform, platform) }), nil
}

// ImagesByPlatform returns the images made with platform, compared
// case-insensitively. An empty platform returns every image.
func (s *Service) ImagesByPlatform(ctx context.Context, platform string) ([]Image, error) {
	all, err := s.Images(ctx)
	if err != nil || platform == "" {
		return all, err
	}
	return filter(all, func(i Image) bool { return strings.EqualFold(i.Platform, platform) }), nil
}

// ProjectBySlug returns the project whose slug is slug.
func (s *Service) ProjectBySlug(ctx context.Context, slug string) (*Project, error) {
	all, err := s.Projects(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(all, func(p Project) bool { return p.Slug.Current == slug })
	if i < 0 {
		return nil, errors.NotFound("project", slug)
	}
	p := all[i]
	return &p, nil
}

// Home fetches every collection concurrently. The first failure cancels
// the other fetches.
func (s *Service) Home(ctx context.Context) (*Home, error) {
	var home Home
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		home.Projects, err = s.Projects(ctx)
		return err
	})
	g.Go(func() (err error) {
		home.Videos, err = s.Videos(ctx)
		return err
	})
	g.Go(func() (err error) {
		home.Images, err = s.Images(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &home, nil
}

// Invalidate drops every cached collection.
func (s *Service) Invalidate(ctx context.Context) error {
	s.gen.Add(1)
	var errs []error
	for _, c := range collections {
		s.group.Forget(c.name)
		if err := s.cache.Delete(ctx, c.key()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := stderrors.Join(errs...); err != nil {
		s.log.Warn("Cache invalidation incomplete", logger.ErrorFields("invalidate", err))
		return errors.CacheError(err)
	}
	s.log.Info("Content cache invalidated")
	return nil
}

// Dropped returns how many documents failed validation since start.
func (s *Service) Dropped() uint64 {
	return s.dropped.Load()
}

func fetch[T document](ctx context.Context, s *Service, c collection) ([]T, error) {
	ctx, span := s.tracer.Start(ctx, "content.fetch",
		trace.WithAttributes(attribute.String("content.collection", c.name)))
	defer span.End()

	if docs, ok := cached[T](ctx, s, c); ok {
		span.SetAttributes(
			attribute.Bool("cache.hit", true),
			attribute.Int("content.documents", len(docs)),
		)
		return docs, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	// Concurrent misses share one upstream query. The shared call must not
	// die with whichever request happened to start it.
	v, err, _ := s.group.Do(c.name, func() (any, error) {
		return load[T](context.WithoutCancel(ctx), s, c)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	docs := v.([]T)
	span.SetAttributes(attribute.Int("content.documents", len(docs)))
	return docs, nil
}

func cached[T document](ctx context.Context, s *Service, c collection) ([]T, bool) {
	raw, ok, err := s.cache.Get(ctx, c.key())
	if err != nil {
		s.log.Warn("Cache read failed", map[string]interface{}{
			logger.FieldCollection: c.name,
			logger.FieldError:      err.Error(),
		})
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var docs []T
	if err := json.Unmarshal(raw, &docs); err != nil {
		s.log.Warn("Discarding unreadable cache entry", map[string]interface{}{
			logger.FieldCollection: c.name,
			logger.FieldError:      err.Error(),
		})
		return nil, false
	}
	return docs, true
}

func load[T document](ctx context.Context, s *Service, c collection) ([]T, error) {
	start := time.Now()
	gen := s.gen.Load()
	result, err := s.querier.Query(ctx, c.query)
	if err != nil {
		s.log.Error("Content query failed", map[string]interface{}{
			logger.FieldCollection: c.name,
			logger.FieldError:      err.Error(),
		})
		return nil, httpclient.ToAppError(err, "content store", c.name)
	}

	var raws []json.RawMessage
	if !isNull(result) {
		if err := json.Unmarshal(result, &raws); err != nil {
			return nil, errors.ExternalServiceError("content store", err).
				WithDetail("collection", c.name)
		}
	}

	docs := make([]T, 0, len(raws))
	for i, raw := range raws {
		var d T
		if err := json.Unmarshal(raw, &d); err != nil {
			s.drop(c, i, "", err)
			continue
		}
		if err := validation.Validate(d); err != nil {
			s.drop(c, i, idOf(&d), err)
			continue
		}
		normalize(&d)
		docs = append(docs, d)
	}
	slices.SortStableFunc(docs, func(a, b T) int {
		ra, rb := rankOf(&a), rankOf(&b)
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		}
		return 0
	})

	if encoded, err := json.Marshal(docs); err == nil {
		s.store(ctx, c, encoded, gen)
	}

	s.log.Debug("Collection fetched", map[string]interface{}{
		logger.FieldCollection: c.name,
		"documents":            len(docs),
		"dropped":              len(raws) - len(docs),
		logger.FieldDuration:   time.Since(start).Milliseconds(),
	})
	return docs, nil
}

// store caches a collection loaded under generation gen. An Invalidate
// that lands between the generation check and the write would otherwise
// leave the pre-invalidation result cached until the TTL runs out, so the
// generation is checked again afterwards and the entry removed if it moved.
func (s *Service) store(ctx context.Context, c collection, encoded []byte, gen uint64) {
	if s.gen.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, c.key(), encoded, s.ttl); err != nil {
		s.log.Warn("Cache write failed", map[string]interface{}{
			logger.FieldCollection: c.name,
			logger.FieldError:      err.Error(),
		})
		return
	}
	if s.gen.Load() == gen {
		return
	}
	if err := s.cache.Delete(ctx, c.key()); err != nil {
		s.log.Warn("Stale cache entry not removed", map[string]interface{}{
			logger.FieldCollection: c.name,
			logger.FieldError:      err.Error(),
		})
	}
}

func (s *Service) drop(c collection, index int, id string, err error) {
	s.dropped.Add(1)
	s.log.Warn("Dropping invalid document", map[string]interface{}{
		logger.FieldCollection: c.name,
		logger.FieldDocumentID: id,
		"index":                index,
		logger.FieldError:      err.Error(),
	})
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
