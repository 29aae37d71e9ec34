// Package component defines the lifecycle interface shared by folio's
// long-running parts and the Registry that starts and stops them in order.
package component
