// ABOUTME: YouTrack integration: PROJECT-123 key scanning filtered by configured projects, JSON API lookup.

package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jbossbot/jbossbot/internal/config"
	"github.com/jbossbot/jbossbot/internal/ircfmt"
	"github.com/jbossbot/jbossbot/internal/track"
)

// YouTrack integrates one YouTrack server. Key syntax is shared with JIRA,
// so a YouTrack instance must list its projects to avoid claiming another
// tracker's keys.
type YouTrack struct {
	name     string
	baseURL  string
	projects map[string]bool
	opts     config.TrackerOptions
	client   *Client
}

// NewYouTrack creates the integration for one configured YouTrack server.
func NewYouTrack(cfg config.YouTrackConfig, client *Client) *YouTrack {
	projects := make(map[string]bool, len(cfg.Projects))
	for _, p := range cfg.Projects {
		projects[strings.ToUpper(p)] = true
	}
	return &YouTrack{
		name:     "youtrack/" + cfg.Name,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		projects: projects,
		opts:     cfg.TrackerOptions,
		client:   client,
	}
}

func (y *YouTrack) Name() string          { return y.name }
func (y *YouTrack) Window() time.Duration { return y.opts.DedupeWindow }
func (y *YouTrack) MaxKeys() int          { return y.opts.MaxKeys }

// Extract scans for issue keys belonging to this server's projects.
func (y *YouTrack) Extract(text string) []track.Fingerprint {
	var fps []track.Fingerprint
	for _, m := range jiraKeyPattern.FindAllStringSubmatch(text, -1) {
		key := m[1]
		if !y.projects[projectOf(key)] {
			continue
		}
		fps = append(fps, track.IssueFingerprint("youtrack", y.name, key))
	}
	return fps
}

// youtrackIssue is the api/issues response shape.
type youtrackIssue struct {
	IDReadable string `json:"idReadable"`
	Summary    string `json:"summary"`
	Resolved   *int64 `json:"resolved"`
}

// Fetch looks the issue up over the JSON API.
func (y *YouTrack) Fetch(ctx context.Context, fp track.Fingerprint) (*track.IssueInfo, error) {
	url := fmt.Sprintf("%s/api/issues/%s?fields=idReadable,summary,resolved", y.baseURL, fp.ID)

	var issue youtrackIssue
	redirect, err := y.client.getJSON(ctx, url, &issue)
	if err != nil {
		return nil, err
	}
	if redirect != "" {
		return &track.IssueInfo{Key: fp.ID, Redirect: redirect}, nil
	}
	if issue.IDReadable == "" {
		return nil, fmt.Errorf("issue %s not found", fp.ID)
	}

	status := "Open"
	if issue.Resolved != nil {
		status = "Resolved"
	}
	return &track.IssueInfo{
		Key:    issue.IDReadable,
		Title:  issue.Summary,
		Status: status,
		URL:    fmt.Sprintf("%s/issue/%s", y.baseURL, issue.IDReadable),
	}, nil
}

// Format renders the one-line colorized summary.
func (y *YouTrack) Format(info *track.IssueInfo) string {
	if info.Redirected() {
		return fmt.Sprintf("%s %s redirected to %s", ircfmt.Bold("youtrack"), info.Key, info.Redirect)
	}
	return fmt.Sprintf("%s %s: %s [%s] %s",
		ircfmt.Bold("youtrack"), info.Key, info.Title,
		ircfmt.Status(info.Status, info.Status == "Resolved"), ircfmt.Colored(info.URL, ircfmt.Grey))
}
