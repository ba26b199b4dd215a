// ABOUTME: Package webhook receives tracker push notifications over HTTP.
// ABOUTME: Payloads become preformatted Notices handed to the dispatcher.

// Package webhook runs the bot's HTTP listener. It accepts GitHub push and
// pull request deliveries (with optional HMAC-SHA256 signature validation),
// JIRA issue-created events and TeamCity build-finished events, turns each
// into a deduplicatable Notice and hands it to the notification dispatcher,
// which resolves the broadcast channels for the project. The listener also
// serves /health and, when enabled, Prometheus metrics.
package webhook
