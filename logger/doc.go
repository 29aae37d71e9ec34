// Package logger provides structured logging for folio using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with map fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("pointer")
//	log.Info("attached", logger.Fields("subscribers", 1))
package logger
