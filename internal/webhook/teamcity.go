// ABOUTME: TeamCity webhook handling for build-finished events.

package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/jbossbot/jbossbot/internal/notify"
	"github.com/jbossbot/jbossbot/internal/tracker"
)

type teamcityEvent struct {
	Build struct {
		ProjectName string `json:"projectName"`
		BuildName   string `json:"buildName"`
		BuildNumber string `json:"buildNumber"`
		BuildResult string `json:"buildResult"`
		BuildURL    string `json:"buildStatusUrl"`
	} `json:"build"`
}

func (s *Server) handleTeamCity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := readBody(r)
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	var ev teamcityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.logger.Warn("bad teamcity payload", "error", err)
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	if ev.Build.ProjectName == "" || ev.Build.BuildNumber == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	build := tracker.Build{
		Project: ev.Build.ProjectName,
		Name:    ev.Build.BuildName,
		Number:  ev.Build.BuildNumber,
		Status:  ev.Build.BuildResult,
		URL:     ev.Build.BuildURL,
	}

	s.notifier.HandleNotice(r.Context(), notify.Notice{
		Tracker:     "teamcity",
		Project:     build.Project,
		Fingerprint: tracker.BuildFingerprint(build),
		Message:     tracker.FormatBuild(build),
	})
	w.WriteHeader(http.StatusOK)
}
