// Package content fetches the site's three collections (portfolio
// projects, film-lab videos and visual-generation images) from a
// Sanity-compatible content store.
//
// Documents are validated on the way in; invalid ones are dropped and
// logged. Collections are ordered by orderRank, cached, and invalidated by
// the store's publish webhook:
//
//	client, _ := content.NewClient(cfg)
//	svc := content.NewService(client, memoryCache, content.WithTTL(cfg.CacheTTL))
//	hook := content.NewWebhook(svc, cfg.WebhookSecret,
//	    content.WithDebounce(cfg.WebhookDebounce),
//	    content.OnChange(func(n content.Notification) { hub.Broadcast(...) }))
package content
