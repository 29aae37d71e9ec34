package content

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kbukum/folio/util"
	"github.com/kbukum/folio/validation"
)

var (
	projectIDPattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	apiVersionPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|1|X)$`)
)

// Config configures the content store connection, cache and webhook.
type Config struct {
	ProjectID  string        `mapstructure:"project_id"`
	Dataset    string        `mapstructure:"dataset"`
	APIVersion string        `mapstructure:"api_version"`
	UseCDN     *bool         `mapstructure:"use_cdn"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// BaseURL replaces the URL derived from ProjectID, for proxies and tests.
	BaseURL string `mapstructure:"base_url"`

	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheMaxBytes string        `mapstructure:"cache_max_bytes"`

	// Warmup fetches every collection when the service starts.
	Warmup bool `mapstructure:"warmup"`

	WebhookSecret   string        `mapstructure:"webhook_secret"`
	WebhookDebounce time.Duration `mapstructure:"webhook_debounce"`
	// WebhookTolerance bounds how old a signed webhook may be.
	WebhookTolerance time.Duration `mapstructure:"webhook_tolerance"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Dataset == "" {
		c.Dataset = "production"
	}
	if c.APIVersion == "" {
		c.APIVersion = "2024-01-01"
	}
	if c.UseCDN == nil {
		useCDN := true
		c.UseCDN = &useCDN
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Minute
	}
	if c.CacheMaxBytes == "" {
		c.CacheMaxBytes = "16MB"
	}
	if c.WebhookDebounce <= 0 {
		c.WebhookDebounce = 2 * time.Second
	}
	if c.WebhookTolerance <= 0 {
		c.WebhookTolerance = 5 * time.Minute
	}
}

// Validate checks the configuration. A project id is required unless
// BaseURL is set.
func (c *Config) Validate() error {
	v := validation.New()
	if c.BaseURL == "" {
		v.Required("content.project_id", c.ProjectID)
		if c.ProjectID != "" {
			v.Pattern("content.project_id", c.ProjectID, projectIDPattern)
		}
	}
	v.Required("content.dataset", c.Dataset)
	v.Pattern("content.api_version", c.APIVersion, apiVersionPattern)
	if _, err := util.ParseBytes(c.CacheMaxBytes); err != nil {
		v.AddError("content.cache_max_bytes", err.Error())
	}
	if appErr := v.Validate(); appErr != nil {
		return fmt.Errorf("content config: %w", appErr)
	}
	return nil
}

// CDN reports whether the cached API edge is used.
func (c *Config) CDN() bool {
	return c.UseCDN == nil || *c.UseCDN
}

// MaxCacheBytes returns the parsed memory cache bound.
func (c *Config) MaxCacheBytes() int64 {
	return util.ParseSize(c.CacheMaxBytes, 16<<20)
}

// Endpoint returns the versioned API base URL:
// https://<project>.<api|apicdn>.sanity.io/v<version>.
func (c *Config) Endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	host := "api"
	// Authenticated reads must bypass the CDN to see drafts and private data.
	if c.CDN() && c.Token == "" {
		host = "apicdn"
	}
	return fmt.Sprintf("https://%s.%s.sanity.io/v%s", c.ProjectID, host, c.APIVersion)
}
