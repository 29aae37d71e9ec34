// Package site assembles the folio service from its parts: the content
// layer behind /api, the shared pointer with its SSE and WebSocket
// transports, and the HTTP server that carries them.
package site
