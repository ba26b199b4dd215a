// ABOUTME: JIRA webhook handling for issue-created events.

package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jbossbot/jbossbot/internal/ircfmt"
	"github.com/jbossbot/jbossbot/internal/notify"
	"github.com/jbossbot/jbossbot/internal/track"
)

type jiraEvent struct {
	WebhookEvent string `json:"webhookEvent"`
	Issue        struct {
		Key    string `json:"key"`
		Fields struct {
			Summary string `json:"summary"`
			Creator struct {
				DisplayName string `json:"displayName"`
			} `json:"creator"`
		} `json:"fields"`
	} `json:"issue"`
}

func (s *Server) handleJira(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	var ev jiraEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.logger.Warn("bad jira payload", "error", err)
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if ev.WebhookEvent != "jira:issue_created" || ev.Issue.Key == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// The project is the key prefix: JBIDE-100 belongs to JBIDE.
	project, _, _ := strings.Cut(ev.Issue.Key, "-")

	message := fmt.Sprintf("%s %s created: %s (%s)",
		ircfmt.Bold("new jira"), ircfmt.Bold(ev.Issue.Key),
		ev.Issue.Fields.Summary, ev.Issue.Fields.Creator.DisplayName)

	s.notifier.HandleNotice(r.Context(), notify.Notice{
		Tracker:     "jira",
		Project:     project,
		Fingerprint: track.IssueFingerprint("jira", project, ev.Issue.Key+":created"),
		Message:     message,
	})
	w.WriteHeader(http.StatusOK)
}
