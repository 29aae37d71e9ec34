// Package bootstrap runs a service through its lifecycle.
//
// An App owns a component registry. Run starts every registered component
// in order, runs the OnStart hooks and OnConfigure callbacks, performs a
// ready check, prints a startup summary and then blocks until a signal or
// context cancellation. Shutdown runs the OnStop hooks and stops the
// components in reverse order within the graceful timeout.
//
// RunTask follows the same sequence for one-shot commands that finish on
// their own.
package bootstrap
