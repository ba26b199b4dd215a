// Package notify implements the notification pipeline shared by every
// tracker integration: scan inbound text for fingerprints, guard against
// same-dispatch repeats, deduplicate per target within a window, perform the
// external lookup outside any lock, and fan the formatted message out to the
// resolved targets. Outbound messages re-enter the pipeline under the same
// recursion scope before being sent, so the bot's own output can never
// re-trigger itself.
package notify
