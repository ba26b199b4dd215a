// ABOUTME: Package bot assembles and runs all jbossbot components.

// Package bot is the orchestrator: it builds the route store, dedupe cache,
// target resolver, metrics, tracker handlers, dispatcher, IRC client and
// webhook server from one Config, and runs the IRC and HTTP sides under a
// single lifecycle with graceful shutdown.
package bot
