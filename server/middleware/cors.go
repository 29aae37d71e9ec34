package middleware

import (
	"net/http"
	"path"
	"strings"
)

// CORSConfig holds CORS middleware configuration. An allowed origin may
// contain "*" wildcards, so "https://*.vercel.app" admits preview
// deployments; a bare "*" admits every origin.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
}

// Allows reports whether origin matches an allowed origin.
func (c *CORSConfig) Allows(origin string) bool {
	for _, pattern := range c.AllowedOrigins {
		if pattern == "*" || pattern == origin {
			return true
		}
		if strings.Contains(pattern, "*") {
			if ok, err := path.Match(pattern, origin); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// CORS echoes allowed origins and answers preflight requests with 204.
// Requests from other origins pass through without CORS headers.
func CORS(cfg *CORSConfig) Middleware {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin != "" && cfg.Allows(origin) {
				h.Set("Access-Control-Allow-Origin", origin)
				if methods != "" {
					h.Set("Access-Control-Allow-Methods", methods)
				}
				if headers != "" {
					h.Set("Access-Control-Allow-Headers", headers)
				}
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
