// Package pointer implements the shared pointer-position broadcaster.
//
// A Broadcaster keeps the latest Sample, throttles incoming samples to
// DefaultInterval, and delivers each accepted sample to every subscriber.
// Its Source is attached only while someone is subscribed:
//
//	feed := pointer.NewFeed()
//	b := pointer.New(feed)
//
//	unsubscribe := b.Subscribe(func(x, y float64) {
//	    // called once now, then on every accepted sample
//	})
//	defer unsubscribe()
//
//	feed.Push(pointer.Sample{X: 100, Y: 200})
package pointer
