// Package redis wraps go-redis with folio logging, configuration
// conventions and the component lifecycle. It backs the shared tier of the
// content cache when more than one folio instance serves the same site.
//
//	comp := redis.NewComponent(cfg.Redis, logger.WithComponent("redis"))
//	registry.Register(comp)
//	...
//	client := comp.Client()
package redis
