// ABOUTME: Fingerprint value type identifying one deduplication target.
// ABOUTME: Comparable struct usable directly as a map key across guard and dedupe.

package track

import "fmt"

// Kind distinguishes GitHub reference types. Issue-tracker fingerprints leave
// it empty.
type Kind string

const (
	KindIssue       Kind = ""
	KindCommit      Kind = "commit"
	KindPullRequest Kind = "pull_request"
)

// Fingerprint identifies one trackable unit of interest. Two fingerprints are
// equal iff all components compare equal, so the zero-cost struct comparison
// is the equality contract. Fingerprints are immutable once constructed.
//
// Tracker-specific shapes:
//   - Bugzilla/JIRA/YouTrack: Scope is the server or project key, ID the issue id.
//   - GitHub: Scope is "org/repo", ID the commit hash or PR number, Kind set.
type Fingerprint struct {
	Tracker string
	Scope   string
	ID      string
	Kind    Kind
}

// IssueFingerprint builds a fingerprint for an issue-tracker key.
func IssueFingerprint(tracker, scope, id string) Fingerprint {
	return Fingerprint{Tracker: tracker, Scope: scope, ID: id}
}

// CommitFingerprint builds a fingerprint for a GitHub commit.
func CommitFingerprint(org, repo, hash string) Fingerprint {
	return Fingerprint{Tracker: "github", Scope: org + "/" + repo, ID: hash, Kind: KindCommit}
}

// PullRequestFingerprint builds a fingerprint for a GitHub pull request.
func PullRequestFingerprint(org, repo, number string) Fingerprint {
	return Fingerprint{Tracker: "github", Scope: org + "/" + repo, ID: number, Kind: KindPullRequest}
}

// String renders the fingerprint for logs.
func (f Fingerprint) String() string {
	if f.Kind != KindIssue {
		return fmt.Sprintf("%s:%s:%s:%s", f.Tracker, f.Scope, string(f.Kind), f.ID)
	}
	return fmt.Sprintf("%s:%s:%s", f.Tracker, f.Scope, f.ID)
}
