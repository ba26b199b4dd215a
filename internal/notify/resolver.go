// ABOUTME: TargetResolver mapping events and webhook notices to delivery targets.
// ABOUTME: Holds an immutable route snapshot swapped atomically on refresh.

package notify

import "sync/atomic"

// TargetResolver determines which channels receive a notification. Reactive
// scans reply to the channel the text came from; proactive webhook notices go
// to the configured broadcast list for their tracker project.
//
// The broadcast routes are an immutable snapshot loaded from the route store;
// Update swaps in a fresh copy, so lookups never see a half-written map.
type TargetResolver struct {
	routes atomic.Pointer[map[string][]string]
}

// NewTargetResolver returns a resolver with no broadcast routes.
func NewTargetResolver() *TargetResolver {
	r := &TargetResolver{}
	empty := map[string][]string{}
	r.routes.Store(&empty)
	return r
}

// Update replaces the broadcast route snapshot. The caller hands over
// ownership of snap and must not mutate it afterwards.
func (r *TargetResolver) Update(snap map[string][]string) {
	if snap == nil {
		snap = map[string][]string{}
	}
	r.routes.Store(&snap)
}

// Reply resolves the targets for a reactive scan: the origin of the event.
// An event with no origin (nothing to reply to) resolves to no targets,
// which the dispatcher treats as "nothing to notify".
func (r *TargetResolver) Reply(ev Event) []string {
	if ev.Origin == "" {
		return nil
	}
	return []string{ev.Origin}
}

// Broadcast resolves the configured channels for a tracker project. An
// unknown project returns an empty list, not an error.
func (r *TargetResolver) Broadcast(tracker, project string) []string {
	routes := *r.routes.Load()
	return routes[tracker+":"+project]
}
