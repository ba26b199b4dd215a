// ABOUTME: Bugzilla integration: bz#NNN and show_bug.cgi URL scanning, XML lookup, formatting.

package tracker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jbossbot/jbossbot/internal/config"
	"github.com/jbossbot/jbossbot/internal/ircfmt"
	"github.com/jbossbot/jbossbot/internal/track"
)

var (
	bugzillaKeyPattern = regexp.MustCompile(`(?i)\bbz\s?#(\d+)\b`)
	bugzillaURLPattern = regexp.MustCompile(`show_bug\.cgi\?id=(\d+)`)
)

// Bugzilla integrates one Bugzilla server.
type Bugzilla struct {
	name    string
	baseURL string
	opts    config.TrackerOptions
	client  *Client
}

// NewBugzilla creates the integration for one configured Bugzilla server.
func NewBugzilla(cfg config.BugzillaConfig, client *Client) *Bugzilla {
	return &Bugzilla{
		name:    "bugzilla/" + cfg.Name,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		opts:    cfg.TrackerOptions,
		client:  client,
	}
}

func (b *Bugzilla) Name() string          { return b.name }
func (b *Bugzilla) Window() time.Duration { return b.opts.DedupeWindow }
func (b *Bugzilla) MaxKeys() int          { return b.opts.MaxKeys }

// Extract scans for bz#NNN shorthand and show_bug.cgi URLs, in document
// order.
func (b *Bugzilla) Extract(text string) []track.Fingerprint {
	var matches []keyMatch
	for _, m := range bugzillaKeyPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, keyMatch{pos: m[0], fp: track.IssueFingerprint("bugzilla", b.name, text[m[2]:m[3]])})
	}
	for _, m := range bugzillaURLPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, keyMatch{pos: m[0], fp: track.IssueFingerprint("bugzilla", b.name, text[m[2]:m[3]])})
	}
	return inOrder(matches)
}

// bugzillaXML is the ctype=xml response shape.
type bugzillaXML struct {
	Bug struct {
		ID         string `xml:"bug_id"`
		Summary    string `xml:"short_desc"`
		Status     string `xml:"bug_status"`
		Resolution string `xml:"resolution"`
		AssignedTo string `xml:"assigned_to"`
		Priority   string `xml:"priority"`
	} `xml:"bug"`
}

// Fetch looks the bug up over the XML interface.
func (b *Bugzilla) Fetch(ctx context.Context, fp track.Fingerprint) (*track.IssueInfo, error) {
	url := fmt.Sprintf("%s/show_bug.cgi?ctype=xml&id=%s", b.baseURL, fp.ID)

	var doc bugzillaXML
	redirect, err := b.client.getXML(ctx, url, &doc)
	if err != nil {
		return nil, err
	}
	if redirect != "" {
		return &track.IssueInfo{Key: fp.ID, Redirect: redirect}, nil
	}
	if doc.Bug.ID == "" {
		return nil, fmt.Errorf("bug %s not found", fp.ID)
	}

	return &track.IssueInfo{
		Key:        doc.Bug.ID,
		Title:      doc.Bug.Summary,
		Status:     doc.Bug.Status,
		Resolution: doc.Bug.Resolution,
		Assignee:   doc.Bug.AssignedTo,
		Priority:   doc.Bug.Priority,
		URL:        fmt.Sprintf("%s/show_bug.cgi?id=%s", b.baseURL, fp.ID),
	}, nil
}

// Format renders the one-line colorized summary. The resolution is shown
// only when the bug actually has one.
func (b *Bugzilla) Format(info *track.IssueInfo) string {
	if info.Redirected() {
		return fmt.Sprintf("%s bug #%s redirected to %s", ircfmt.Bold("bugzilla"), info.Key, info.Redirect)
	}

	status := info.Status
	if info.Resolution != "" {
		status += " " + info.Resolution
	}
	ok := bugzillaStatusClosed(info.Status)

	return fmt.Sprintf("%s bug #%s: %s [%s] %s",
		ircfmt.Bold("bugzilla"), info.Key, info.Title, ircfmt.Status(status, ok), ircfmt.Colored(info.URL, ircfmt.Grey))
}

func bugzillaStatusClosed(status string) bool {
	switch status {
	case "RESOLVED", "VERIFIED", "CLOSED":
		return true
	}
	return false
}
