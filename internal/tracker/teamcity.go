// ABOUTME: TeamCity build notifications: fingerprinting and formatting for webhook payloads.
// ABOUTME: Webhook-only, there is no inbound key scanning for builds.

package tracker

import (
	"fmt"

	"github.com/jbossbot/jbossbot/internal/ircfmt"
	"github.com/jbossbot/jbossbot/internal/track"
)

// Build describes one finished TeamCity build as delivered by the webhook.
type Build struct {
	Project string
	Name    string
	Number  string
	Status  string // SUCCESS or FAILURE
	URL     string
}

// BuildFingerprint identifies one build result for deduplication.
func BuildFingerprint(b Build) track.Fingerprint {
	return track.IssueFingerprint("teamcity", b.Project, b.Name+"#"+b.Number)
}

// FormatBuild renders the colorized build-finished line.
func FormatBuild(b Build) string {
	ok := b.Status == "SUCCESS"
	return fmt.Sprintf("%s %s build %s #%s: %s %s",
		ircfmt.Bold("teamcity"), b.Project, b.Name, b.Number,
		ircfmt.Status(b.Status, ok), ircfmt.Colored(b.URL, ircfmt.Grey))
}
