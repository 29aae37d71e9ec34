package content

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kbukum/folio/errors"
	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/ratelimit"
)

// SignatureHeader carries the webhook signature:
// t=<timestamp>,v1=<base64 hmac-sha256 of "<timestamp>.<body>">.
const SignatureHeader = "sanity-webhook-signature"

// Sign returns the signature header value for payload at t. The timestamp
// is written in milliseconds, as the content store does.
func Sign(payload []byte, secret string, t time.Time) string {
	ts := strconv.FormatInt(t.UnixMilli(), 10)
	return "t=" + ts + ",v1=" + base64.RawURLEncoding.EncodeToString(mac(ts, payload, secret))
}

// VerifySignature checks header against payload. Timestamps older than
// tolerance relative to now are rejected. A zero tolerance skips the age
// check.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	ts, sigs := parseSignature(header)
	if ts == "" || len(sigs) == 0 {
		return errors.Unauthorized("missing or malformed webhook signature")
	}

	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return errors.Unauthorized("malformed webhook timestamp")
	}
	signedAt := time.Unix(n, 0)
	if n > 1e12 {
		signedAt = time.UnixMilli(n)
	}
	if tolerance > 0 && now.Sub(signedAt).Abs() > tolerance {
		return errors.Unauthorized("webhook signature expired")
	}

	want := mac(ts, payload, secret)
	for _, sig := range sigs {
		if got, ok := decodeSignature(sig); ok && hmac.Equal(got, want) {
			return nil
		}
	}
	return errors.Unauthorized("webhook signature mismatch")
}

func mac(ts string, payload []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(ts))
	h.Write([]byte("."))
	h.Write(payload)
	return h.Sum(nil)
}

func parseSignature(header string) (ts string, sigs []string) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	return ts, sigs
}

// decodeSignature accepts both URL-safe and standard base64, padded or
// not.
func decodeSignature(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.StdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}

// Notification is the subset of a webhook body that is logged.
type Notification struct {
	ID   string `json:"_id"`
	Type string `json:"_type"`
}

// Webhook turns publish notifications into cache invalidations. A burst
// of notifications results in a single invalidation once the burst has
// been quiet for the debounce window.
type Webhook struct {
	service   *Service
	secret    string
	tolerance time.Duration
	now       func() time.Time
	onChange  func(Notification)
	log       *logger.Logger

	debouncer *ratelimit.Debouncer[Notification]
	accepted  atomic.Uint64
	flushed   atomic.Uint64
}

// WebhookOption configures a Webhook.
type WebhookOption func(*webhookOptions)

type webhookOptions struct {
	debounce  time.Duration
	tolerance time.Duration
	clock     ratelimit.Clock
	onChange  func(Notification)
}

// WithDebounce sets the quiet period before invalidating.
func WithDebounce(d time.Duration) WebhookOption {
	return func(o *webhookOptions) { o.debounce = d }
}

// WithTolerance sets the maximum signature age.
func WithTolerance(d time.Duration) WebhookOption {
	return func(o *webhookOptions) { o.tolerance = d }
}

// WithWebhookClock sets the clock used for debouncing and signature age.
func WithWebhookClock(c ratelimit.Clock) WebhookOption {
	return func(o *webhookOptions) { o.clock = c }
}

// OnChange registers fn to run after each invalidation with the last
// notification of the burst.
func OnChange(fn func(Notification)) WebhookOption {
	return func(o *webhookOptions) { o.onChange = fn }
}

// NewWebhook creates a Webhook invalidating service. An empty secret
// disables signature checks.
func NewWebhook(service *Service, secret string, opts ...WebhookOption) *Webhook {
	o := webhookOptions{debounce: 2 * time.Second, tolerance: 5 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	w := &Webhook{
		service:   service,
		secret:    secret,
		tolerance: o.tolerance,
		now:       time.Now,
		onChange:  o.onChange,
		log:       logger.WithComponent("content-webhook"),
	}
	var dopts []ratelimit.Option
	if o.clock != nil {
		dopts = append(dopts, ratelimit.WithClock(o.clock))
		w.now = o.clock.Now
	}
	w.debouncer = ratelimit.NewDebouncer(w.flush, o.debounce, dopts...)
	return w
}

// Accept verifies and schedules a notification. It returns an
// Unauthorized AppError when the signature does not match.
func (w *Webhook) Accept(payload []byte, signature string) error {
	if w.secret != "" {
		if err := VerifySignature(payload, signature, w.secret, w.now(), w.tolerance); err != nil {
			w.log.Warn("Rejected webhook", logger.ErrorFields("verify", err))
			return err
		}
	}

	var n Notification
	_ = json.Unmarshal(payload, &n)
	w.accepted.Add(1)
	w.log.Debug("Webhook accepted", map[string]interface{}{
		logger.FieldDocumentID: n.ID,
		"type":                 n.Type,
	})
	w.debouncer.Call(n)
	return nil
}

func (w *Webhook) flush(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.service.Invalidate(ctx); err != nil {
		w.log.Error("Invalidation after webhook failed", logger.ErrorFields("invalidate", err))
	}
	w.flushed.Add(1)
	if w.onChange != nil {
		w.onChange(n)
	}
}

// Flush runs a pending invalidation now. It reports whether one was
// pending.
func (w *Webhook) Flush() bool {
	return w.debouncer.Flush()
}

// Pending reports whether an invalidation is scheduled.
func (w *Webhook) Pending() bool {
	return w.debouncer.Pending()
}

// Stats returns accepted notifications and completed invalidations.
func (w *Webhook) Stats() (accepted, invalidations uint64) {
	return w.accepted.Load(), w.flushed.Load()
}

// Stop runs any pending invalidation and cancels the timer.
func (w *Webhook) Stop() {
	w.debouncer.Flush()
	w.debouncer.Stop()
}
