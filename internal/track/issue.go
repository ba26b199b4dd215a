// ABOUTME: IssueInfo result type returned by tracker lookups.
// ABOUTME: A non-empty Redirect marks the "redirected to X" variant, still a successful lookup.

package track

// IssueInfo carries the metadata a tracker lookup produced for one
// fingerprint. Formatting into an IRC line is the tracker's job; the
// dispatcher only cares whether a lookup succeeded.
type IssueInfo struct {
	// Key is the canonical display key ("1234", "JBIDE-999", "a1b2c3d").
	Key string

	Title    string
	Status   string
	Assignee string
	Priority string

	// Resolution is shown only when non-empty; open issues have none.
	Resolution string

	// URL points at the issue in the tracker's web UI.
	URL string

	// Redirect is the location the tracker redirected to. When set, the
	// formatted message is the short "redirected" variant instead of the
	// full summary.
	Redirect string
}

// Redirected reports whether this lookup ended in a redirect.
func (i *IssueInfo) Redirected() bool {
	return i.Redirect != ""
}
