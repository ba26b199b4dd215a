// ABOUTME: Depth-counted recursion scope preventing same-event re-processing of a fingerprint.
// ABOUTME: Caller-constructed and passed explicitly through the dispatch chain, never thread-ambient.

package guard

import "github.com/jbossbot/jbossbot/internal/track"

// Scope tracks the fingerprints seen while handling one externally-triggered
// event. The dispatcher creates a Scope at the top of a dispatch and threads
// it through every cascade (an outbound message re-scanned before sending
// re-enters the same Scope), so a formatted summary that itself contains the
// triggering key cannot loop.
//
// A Scope is confined to the call chain of a single dispatch and is not safe
// for concurrent use; each dispatch gets its own.
type Scope struct {
	depth int
	seen  map[track.Fingerprint]struct{}
}

// NewScope returns an empty scope at depth zero.
func NewScope() *Scope {
	return &Scope{}
}

// Enter increments the nesting depth. Every Enter must be paired with an
// Exit, normally via defer so an early return mid-dispatch still unwinds.
func (s *Scope) Enter() {
	s.depth++
}

// Exit decrements the nesting depth. The seen set is cleared only when depth
// returns to zero: intermediate exits keep it intact so cascaded events share
// suppression with their trigger, and the outermost exit resets it so a
// later, unrelated dispatch is free to process the same keys again.
func (s *Scope) Exit() {
	if s.depth > 0 {
		s.depth--
	}
	if s.depth == 0 {
		s.seen = nil
	}
}

// Add records a fingerprint in the current scope. It returns true when the
// fingerprint is novel (caller should proceed) and false when it was already
// recorded during this dispatch.
func (s *Scope) Add(fp track.Fingerprint) bool {
	if s.seen == nil {
		s.seen = make(map[track.Fingerprint]struct{})
	}
	if _, dup := s.seen[fp]; dup {
		return false
	}
	s.seen[fp] = struct{}{}
	return true
}

// Depth returns the current nesting depth.
func (s *Scope) Depth() int {
	return s.depth
}
