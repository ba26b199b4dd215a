// ABOUTME: JIRA integration: PROJECT-123 key scanning filtered by configured projects, REST lookup.

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

var jiraKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]*-\d+)\b`)

// Jira integrates one JIRA server.
type Jira struct {
	name     string
	baseURL  string
	projects map[string]bool
	opts     config.TrackerOptions
	client   *Client
}

// NewJira creates the integration for one configured JIRA server. When the
// config lists projects, only keys with those prefixes are picked up;
// otherwise every PROJECT-123-shaped token is a candidate.
func NewJira(cfg config.JiraConfig, client *Client) *Jira {
	projects := make(map[string]bool, len(cfg.Projects))
	for _, p := range cfg.Projects {
		projects[strings.ToUpper(p)] = true
	}
	return &Jira{
		name:     "jira/" + cfg.Name,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		projects: projects,
		opts:     cfg.TrackerOptions,
		client:   client,
	}
}

func (j *Jira) Name() string          { return j.name }
func (j *Jira) Window() time.Duration { return j.opts.DedupeWindow }
func (j *Jira) MaxKeys() int          { return j.opts.MaxKeys }

// Extract scans for issue keys belonging to this server's projects.
func (j *Jira) Extract(text string) []track.Fingerprint {
	var fps []track.Fingerprint
	for _, m := range jiraKeyPattern.FindAllStringSubmatch(text, -1) {
		key := m[1]
		if len(j.projects) > 0 && !j.projects[projectOf(key)] {
			continue
		}
		fps = append(fps, track.IssueFingerprint("jira", j.name, key))
	}
	return fps
}

// projectOf returns the project prefix of an issue key.
func projectOf(key string) string {
	if i := strings.IndexByte(key, '-'); i > 0 {
		return key[:i]
	}
	return key
}

// jiraIssue is the REST api/2 issue shape, fields trimmed to what we render.
type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Resolution *struct {
			Name string `json:"name"`
		} `json:"resolution"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
	} `json:"fields"`
}

// Fetch looks the issue up over the REST API.
func (j *Jira) Fetch(ctx context.Context, fp track.Fingerprint) (*track.IssueInfo, error) {
	url := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=summary,status,resolution,assignee,priority", j.baseURL, fp.ID)

	var issue jiraIssue
	redirect, err := j.client.getJSON(ctx, url, &issue)
	if err != nil {
		return nil, err
	}
	if redirect != "" {
		return &track.IssueInfo{Key: fp.ID, Redirect: redirect}, nil
	}
	if issue.Key == "" {
		return nil, fmt.Errorf("issue %s not found", fp.ID)
	}

	info := &track.IssueInfo{
		Key:    issue.Key,
		Title:  issue.Fields.Summary,
		Status: issue.Fields.Status.Name,
		URL:    fmt.Sprintf("%s/browse/%s", j.baseURL, issue.Key),
	}
	if issue.Fields.Resolution != nil {
		info.Resolution = issue.Fields.Resolution.Name
	}
	if issue.Fields.Assignee != nil {
		info.Assignee = issue.Fields.Assignee.DisplayName
	}
	if issue.Fields.Priority != nil {
		info.Priority = issue.Fields.Priority.Name
	}
	return info, nil
}

// Format renders the one-line colorized summary.
func (j *Jira) Format(info *track.IssueInfo) string {
	if info.Redirected() {
		return fmt.Sprintf("%s %s redirected to %s", ircfmt.Bold("jira"), info.Key, info.Redirect)
	}

	status := info.Status
	if info.Resolution != "" {
		status += " " + info.Resolution
	}
	ok := info.Resolution != "" && info.Resolution != "Unresolved"

	var assignee string
	if info.Assignee != "" {
		assignee = " (" + info.Assignee + ")"
	}

	return fmt.Sprintf("%s %s: %s [%s]%s %s",
		ircfmt.Bold("jira"), info.Key, info.Title, ircfmt.Status(status, ok), assignee, ircfmt.Colored(info.URL, ircfmt.Grey))
}
