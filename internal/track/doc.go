// Package track defines the value types shared by every tracker integration:
// fingerprints identifying one trackable unit (a bug, an issue, a commit, a
// pull request) and the issue metadata returned by tracker lookups.
package track
