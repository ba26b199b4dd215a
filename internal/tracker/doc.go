// Package tracker implements the issue-tracker and source-control
// integrations: key extraction from IRC text, metadata lookup over HTTP with
// bounded timeouts, and colorized message formatting. Each integration plugs
// into the notify dispatcher as a Handler.
package tracker
