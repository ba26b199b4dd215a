// ABOUTME: Tests for the YouTrack integration: project-gated extraction, JSON lookup, formatting.

package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbossbot/jbossbot/internal/config"
	"github.com/jbossbot/jbossbot/internal/ircfmt"
	"github.com/jbossbot/jbossbot/internal/track"
)

func testYouTrack(t *testing.T, baseURL string, projects ...string) *YouTrack {
	t.Helper()
	return NewYouTrack(config.YouTrackConfig{
		Name:     "main",
		BaseURL:  baseURL,
		Projects: projects,
		TrackerOptions: config.TrackerOptions{
			DedupeWindow: 10 * time.Second,
			MaxKeys:      10,
		},
	}, testClient(t))
}

func TestYouTrack_Extract(t *testing.T) {
	yt := testYouTrack(t, "https://youtrack.example.org", "JT")

	fps := yt.Extract("JT-42 looks related, JBIDE-1 belongs to jira")
	require.Len(t, fps, 1)
	assert.Equal(t, "JT-42", fps[0].ID)
	assert.Equal(t, "youtrack", fps[0].Tracker)
}

func TestYouTrack_ExtractRequiresProjects(t *testing.T) {
	// Key syntax is shared with JIRA; without a project list nothing matches.
	yt := testYouTrack(t, "https://youtrack.example.org")

	assert.Empty(t, yt.Extract("JT-42 and ANY-1"))
}

func TestYouTrack_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/issues/JT-42", r.URL.Path)
		fmt.Fprint(w, `{"idReadable": "JT-42", "summary": "Importer drops comments", "resolved": 1709294400000}`)
	}))
	defer ts.Close()

	yt := testYouTrack(t, ts.URL, "JT")
	info, err := yt.Fetch(context.Background(), track.IssueFingerprint("youtrack", "youtrack/main", "JT-42"))
	require.NoError(t, err)

	assert.Equal(t, "JT-42", info.Key)
	assert.Equal(t, "Importer drops comments", info.Title)
	assert.Equal(t, "Resolved", info.Status)
	assert.Equal(t, ts.URL+"/issue/JT-42", info.URL)
}

func TestYouTrack_FetchOpen(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"idReadable": "JT-7", "summary": "still broken", "resolved": null}`)
	}))
	defer ts.Close()

	yt := testYouTrack(t, ts.URL, "JT")
	info, err := yt.Fetch(context.Background(), track.IssueFingerprint("youtrack", "youtrack/main", "JT-7"))
	require.NoError(t, err)
	assert.Equal(t, "Open", info.Status)
}

func TestYouTrack_FetchNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	yt := testYouTrack(t, ts.URL, "JT")
	info, err := yt.Fetch(context.Background(), track.IssueFingerprint("youtrack", "youtrack/main", "JT-404"))
	require.Error(t, err)
	assert.Nil(t, info)
}

func TestYouTrack_Format(t *testing.T) {
	yt := testYouTrack(t, "https://youtrack.example.org", "JT")

	line := yt.Format(&track.IssueInfo{Key: "JT-42", Title: "Importer drops comments", Status: "Resolved", URL: "u"})
	assert.Contains(t, ircfmt.Strip(line), "youtrack JT-42: Importer drops comments [Resolved]")
}
