// Package config loads folio configuration with Viper.
//
// Values come from, lowest precedence first: defaults passed to Load, a
// config.yml found in the standard locations, a .env file, and the process
// environment. Environment variables use underscores for nesting:
//
//	FOLIO_CONTENT_PROJECT_ID=abc123 -> content.project_id
package config
