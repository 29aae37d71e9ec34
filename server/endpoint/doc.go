// Package endpoint provides the standard /health and /version handlers.
package endpoint
