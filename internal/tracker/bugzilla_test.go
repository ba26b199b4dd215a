// ABOUTME: Tests for the Bugzilla integration: extraction, XML lookup, redirect handling, formatting.

package tracker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
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

func testClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testBugzilla(t *testing.T, baseURL string) *Bugzilla {
	t.Helper()
	return NewBugzilla(config.BugzillaConfig{
		Name:    "main",
		BaseURL: baseURL,
		TrackerOptions: config.TrackerOptions{
			DedupeWindow: 10 * time.Second,
			MaxKeys:      10,
		},
	}, testClient(t))
}

func TestBugzilla_Extract(t *testing.T) {
	bz := testBugzilla(t, "https://bugzilla.example.org")

	fps := bz.Extract("please look at bz#1234 and BZ #5678, also https://bugzilla.example.org/show_bug.cgi?id=42")
	require.Len(t, fps, 3)
	assert.Equal(t, "1234", fps[0].ID)
	assert.Equal(t, "5678", fps[1].ID)
	assert.Equal(t, "42", fps[2].ID)
	assert.Equal(t, "bugzilla", fps[0].Tracker)
	assert.Equal(t, "bugzilla/main", fps[0].Scope)
}

func TestBugzilla_ExtractNoMatch(t *testing.T) {
	bz := testBugzilla(t, "https://bugzilla.example.org")

	assert.Empty(t, bz.Extract("nothing to see here, not even blazes or bz without a number"))
}

const bugzillaResponse = `<?xml version="1.0"?>
<bugzilla version="4.4">
  <bug>
    <bug_id>1234</bug_id>
    <short_desc>NPE in deployment scanner</short_desc>
    <bug_status>RESOLVED</bug_status>
    <resolution>FIXED</resolution>
    <assigned_to>dev@example.org</assigned_to>
    <priority>P1</priority>
  </bug>
</bugzilla>`

func TestBugzilla_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/show_bug.cgi", r.URL.Path)
		assert.Equal(t, "xml", r.URL.Query().Get("ctype"))
		assert.Equal(t, "1234", r.URL.Query().Get("id"))
		fmt.Fprint(w, bugzillaResponse)
	}))
	defer ts.Close()

	bz := testBugzilla(t, ts.URL)
	info, err := bz.Fetch(context.Background(), track.IssueFingerprint("bugzilla", "bugzilla/main", "1234"))
	require.NoError(t, err)

	assert.Equal(t, "1234", info.Key)
	assert.Equal(t, "NPE in deployment scanner", info.Title)
	assert.Equal(t, "RESOLVED", info.Status)
	assert.Equal(t, "FIXED", info.Resolution)
	assert.Equal(t, ts.URL+"/show_bug.cgi?id=1234", info.URL)
	assert.False(t, info.Redirected())
}

func TestBugzilla_FetchRedirect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://issues.example.org/browse/MIGRATED-1234")
		w.WriteHeader(http.StatusFound)
	}))
	defer ts.Close()

	bz := testBugzilla(t, ts.URL)
	info, err := bz.Fetch(context.Background(), track.IssueFingerprint("bugzilla", "bugzilla/main", "1234"))
	require.NoError(t, err, "a redirect is a successful lookup")

	assert.True(t, info.Redirected())
	assert.Equal(t, "https://issues.example.org/browse/MIGRATED-1234", info.Redirect)
}

func TestBugzilla_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<not-even")
			},
		},
		{
			name: "empty document",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<bugzilla></bugzilla>`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			bz := testBugzilla(t, ts.URL)
			info, err := bz.Fetch(context.Background(), track.IssueFingerprint("bugzilla", "bugzilla/main", "1234"))
			require.Error(t, err)
			assert.Nil(t, info)
		})
	}
}

func TestBugzilla_Format(t *testing.T) {
	bz := testBugzilla(t, "https://bugzilla.example.org")

	line := bz.Format(&track.IssueInfo{
		Key:        "1234",
		Title:      "NPE in deployment scanner",
		Status:     "RESOLVED",
		Resolution: "FIXED",
		URL:        "https://bugzilla.example.org/show_bug.cgi?id=1234",
	})
	plain := ircfmt.Strip(line)
	assert.Contains(t, plain, "bug #1234: NPE in deployment scanner")
	assert.Contains(t, plain, "[RESOLVED FIXED]")
}

func TestBugzilla_FormatWithoutResolution(t *testing.T) {
	bz := testBugzilla(t, "https://bugzilla.example.org")

	// Open bugs have no resolution; it must not render as an empty token.
	line := bz.Format(&track.IssueInfo{Key: "1234", Title: "broken", Status: "NEW"})
	assert.Contains(t, ircfmt.Strip(line), "[NEW]")
}

func TestBugzilla_FormatRedirect(t *testing.T) {
	bz := testBugzilla(t, "https://bugzilla.example.org")

	line := bz.Format(&track.IssueInfo{Key: "1234", Redirect: "https://elsewhere.example.org/1234"})
	assert.Contains(t, ircfmt.Strip(line), "redirected to https://elsewhere.example.org/1234")
}
