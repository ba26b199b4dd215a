// Package dedupe provides the time-windowed notification cache shared by all
// tracker integrations. It suppresses repeat postings of the same fingerprint
// to the same target within a configurable window, with per-target isolation
// and atomic check-and-record semantics.
package dedupe
