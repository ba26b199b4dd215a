// ABOUTME: GitHub webhook handling: signature validation, push and pull_request events.

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jbossbot/jbossbot/internal/ircfmt"
	"github.com/jbossbot/jbossbot/internal/notify"
	"github.com/jbossbot/jbossbot/internal/track"
)

// maxPushCommits caps per-commit lines for one push delivery. Large pushes
// get the first commits plus a summary line.
const maxPushCommits = 5

type githubPush struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Commits []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
		URL     string `json:"url"`
		Author  struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"commits"`
}

type githubPullRequest struct {
	Action     string `json:"action"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	PullRequest struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		Merged  bool   `json:"merged"`
		HTMLURL string `json:"html_url"`
		User    struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"pull_request"`
}

func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if s.secret != "" && !validSignature(s.secret, r.Header.Get("X-Hub-Signature-256"), body) {
		s.logger.Warn("github delivery rejected", "reason", "bad signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event := r.Header.Get("X-GitHub-Event")
	switch event {
	case "push":
		s.handleGitHubPush(r, body)
	case "pull_request":
		s.handleGitHubPull(r, body)
	case "ping":
		// Delivery test from the GitHub settings page.
	default:
		s.logger.Debug("ignoring github event", "event", event)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGitHubPush(r *http.Request, body []byte) {
	var push githubPush
	if err := json.Unmarshal(body, &push); err != nil {
		s.logger.Warn("bad push payload", "error", err)
		return
	}
	repo := push.Repository.FullName
	if repo == "" || len(push.Commits) == 0 {
		return
	}
	branch := strings.TrimPrefix(push.Ref, "refs/heads/")

	commits := push.Commits
	truncated := 0
	if len(commits) > maxPushCommits {
		truncated = len(commits) - maxPushCommits
		commits = commits[:maxPushCommits]
	}

	org, name, _ := strings.Cut(repo, "/")
	for _, commit := range commits {
		message := fmt.Sprintf("%s push %s %s: %s %s %s %s",
			ircfmt.Bold("git"), repo, branch,
			commit.Author.Name, shortHash(commit.ID), firstLine(commit.Message),
			ircfmt.Colored(commit.URL, ircfmt.Grey))
		s.notifier.HandleNotice(r.Context(), notify.Notice{
			Tracker:     "github",
			Project:     repo,
			Fingerprint: track.CommitFingerprint(org, name, strings.ToLower(commit.ID)),
			Message:     message,
		})
	}
	if truncated > 0 {
		last := push.Commits[len(push.Commits)-1]
		s.notifier.HandleNotice(r.Context(), notify.Notice{
			Tracker:     "github",
			Project:     repo,
			Fingerprint: track.CommitFingerprint(org, name, strings.ToLower(last.ID)),
			Message: fmt.Sprintf("%s push %s %s: ... and %d more commits",
				ircfmt.Bold("git"), repo, branch, truncated),
		})
	}
}

func (s *Server) handleGitHubPull(r *http.Request, body []byte) {
	var pr githubPullRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		s.logger.Warn("bad pull_request payload", "error", err)
		return
	}

	var status string
	switch pr.Action {
	case "opened":
		status = "opened"
	case "closed":
		status = "closed"
		if pr.PullRequest.Merged {
			status = "merged"
		}
	default:
		return
	}

	repo := pr.Repository.FullName
	org, name, _ := strings.Cut(repo, "/")
	number := strconv.Itoa(pr.PullRequest.Number)
	message := fmt.Sprintf("%s pull req %s: %s [%s] (%s) %s",
		ircfmt.Bold("git"), ircfmt.Bold("#"+number),
		pr.PullRequest.Title, ircfmt.Status(status, status == "merged"),
		pr.PullRequest.User.Login,
		ircfmt.Colored(pr.PullRequest.HTMLURL, ircfmt.Grey))

	s.notifier.HandleNotice(r.Context(), notify.Notice{
		Tracker: "github",
		Project: repo,
		// The action is part of the fingerprint: "opened" and "merged" for
		// the same PR are distinct notifications.
		Fingerprint: track.PullRequestFingerprint(org, name, number+":"+status),
		Message:     message,
	})
}

// validSignature checks a GitHub X-Hub-Signature-256 header against the body.
func validSignature(secret, header string, body []byte) bool {
	digest, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(digest), []byte(expected))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
