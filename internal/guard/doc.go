// Package guard provides the per-dispatch recursion guard: a depth-counted
// scope that records which fingerprints have already been handled while
// processing one inbound event and any events it synchronously cascades into.
package guard
