// ABOUTME: GitHub integration: commit and pull request URL scanning, API lookup, formatting.

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
	githubCommitPattern = regexp.MustCompile(`github\.com/([\w.-]+)/([\w.-]+)/commit/([0-9a-fA-F]{7,40})`)
	githubPullPattern   = regexp.MustCompile(`github\.com/([\w.-]+)/([\w.-]+)/pull/(\d+)`)
)

// shortHashLen is how many hash characters the formatted line shows.
const shortHashLen = 7

// GitHub integrates commit and pull request links.
type GitHub struct {
	apiBase string
	opts    config.TrackerOptions
	client  *Client
}

// NewGitHub creates the GitHub integration.
func NewGitHub(cfg config.GitHubConfig, client *Client) *GitHub {
	return &GitHub{
		apiBase: strings.TrimSuffix(cfg.APIBase, "/"),
		opts:    cfg.TrackerOptions,
		client:  client,
	}
}

func (g *GitHub) Name() string          { return "github" }
func (g *GitHub) Window() time.Duration { return g.opts.DedupeWindow }
func (g *GitHub) MaxKeys() int          { return g.opts.MaxKeys }

// Extract scans for commit and pull request URLs in document order. Commit
// hashes are normalized to lowercase so long and short forms of different
// case cannot dodge the dedupe cache.
func (g *GitHub) Extract(text string) []track.Fingerprint {
	var matches []keyMatch
	for _, m := range githubCommitPattern.FindAllStringSubmatchIndex(text, -1) {
		org, repo := text[m[2]:m[3]], text[m[4]:m[5]]
		hash := strings.ToLower(text[m[6]:m[7]])
		matches = append(matches, keyMatch{pos: m[0], fp: track.CommitFingerprint(org, repo, hash)})
	}
	for _, m := range githubPullPattern.FindAllStringSubmatchIndex(text, -1) {
		org, repo, num := text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]
		matches = append(matches, keyMatch{pos: m[0], fp: track.PullRequestFingerprint(org, repo, num)})
	}
	return inOrder(matches)
}

// githubCommit is the repos/{owner}/{repo}/commits/{sha} response shape.
type githubCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
}

// githubPull is the repos/{owner}/{repo}/pulls/{number} response shape.
type githubPull struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Merged bool   `json:"merged"`
	User   struct {
		Login string `json:"login"`
	} `json:"user"`
	HTMLURL string `json:"html_url"`
}

// Fetch looks the commit or pull request up via the GitHub API.
func (g *GitHub) Fetch(ctx context.Context, fp track.Fingerprint) (*track.IssueInfo, error) {
	switch fp.Kind {
	case track.KindCommit:
		return g.fetchCommit(ctx, fp)
	case track.KindPullRequest:
		return g.fetchPull(ctx, fp)
	default:
		return nil, fmt.Errorf("unsupported github fingerprint kind %q", fp.Kind)
	}
}

func (g *GitHub) fetchCommit(ctx context.Context, fp track.Fingerprint) (*track.IssueInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/commits/%s", g.apiBase, fp.Scope, fp.ID)

	var commit githubCommit
	redirect, err := g.client.getJSON(ctx, url, &commit)
	if err != nil {
		return nil, err
	}
	if redirect != "" {
		return &track.IssueInfo{Key: fp.ID, Redirect: redirect}, nil
	}
	if commit.SHA == "" {
		return nil, fmt.Errorf("commit %s not found in %s", fp.ID, fp.Scope)
	}

	return &track.IssueInfo{
		Key:      shortHash(commit.SHA),
		Title:    firstLine(commit.Commit.Message),
		Assignee: commit.Commit.Author.Name,
		URL:      commit.HTMLURL,
	}, nil
}

func (g *GitHub) fetchPull(ctx context.Context, fp track.Fingerprint) (*track.IssueInfo, error) {
	url := fmt.Sprintf("%s/repos/%s/pulls/%s", g.apiBase, fp.Scope, fp.ID)

	var pull githubPull
	redirect, err := g.client.getJSON(ctx, url, &pull)
	if err != nil {
		return nil, err
	}
	if redirect != "" {
		return &track.IssueInfo{Key: fp.ID, Redirect: redirect}, nil
	}
	if pull.Number == 0 {
		return nil, fmt.Errorf("pull request %s not found in %s", fp.ID, fp.Scope)
	}

	status := pull.State
	if pull.Merged {
		status = "merged"
	}
	return &track.IssueInfo{
		Key:      fmt.Sprintf("#%d", pull.Number),
		Title:    pull.Title,
		Status:   status,
		Assignee: pull.User.Login,
		URL:      pull.HTMLURL,
	}, nil
}

// Format renders the one-line colorized summary. The fingerprint kind is
// recoverable from the key shape: commits carry a bare short hash, pull
// requests a #N key.
func (g *GitHub) Format(info *track.IssueInfo) string {
	if info.Redirected() {
		return fmt.Sprintf("%s %s redirected to %s", ircfmt.Bold("git"), info.Key, info.Redirect)
	}
	if strings.HasPrefix(info.Key, "#") {
		ok := info.Status == "merged"
		return fmt.Sprintf("%s pull req %s: %s [%s] (%s) %s",
			ircfmt.Bold("git"), info.Key, info.Title,
			ircfmt.Status(info.Status, ok), info.Assignee, ircfmt.Colored(info.URL, ircfmt.Grey))
	}
	return fmt.Sprintf("%s commit %s: %s (%s) %s",
		ircfmt.Bold("git"), ircfmt.Colored(info.Key, ircfmt.Orange), info.Title, info.Assignee,
		ircfmt.Colored(info.URL, ircfmt.Grey))
}

func shortHash(sha string) string {
	if len(sha) > shortHashLen {
		return sha[:shortHashLen]
	}
	return sha
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
