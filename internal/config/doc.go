// Package config loads and validates the bot's YAML configuration: IRC
// connection settings, webhook HTTP server, tracker integrations with their
// dedupe windows and match caps, route store, logging and metrics.
package config
