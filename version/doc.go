// Package version reports the folio build: version, commit and build time.
//
// Values are set at link time and fall back to the Go build info:
//
//	go build -ldflags "-X github.com/kbukum/folio/version.Version=1.2.0" ./cmd/folio
package version
