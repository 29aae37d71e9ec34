// Package ws serves the shared pointer over WebSocket.
//
// Browsers send {"x":…,"y":…} text frames, which are pushed into the
// pointer Feed. Every connection also subscribes to the Broadcaster and
// receives {"type":"pointer","x":…,"y":…} frames until it closes.
package ws
