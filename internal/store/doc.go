// Package store persists the broadcast routes: which channels receive
// proactive notifications for a given tracker project. Routes are edited at
// runtime through IRC admin commands and read back as an immutable snapshot
// consumed by the target resolver.
package store
