// ABOUTME: Tests for the notification dispatcher pipeline.
// ABOUTME: Covers guard suppression, dedupe windows, target isolation, lookup failure retry, and cascades.

package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbossbot/jbossbot/internal/dedupe"
	"github.com/jbossbot/jbossbot/internal/track"
)

var bzPattern = regexp.MustCompile(`bz#(\d+)`)

// fakeHandler scans for bz#NNN keys and serves canned issue info.
type fakeHandler struct {
	window  time.Duration
	maxKeys int

	mu      sync.Mutex
	lookups []track.Fingerprint
	fail    bool
}

func (h *fakeHandler) Name() string { return "bugzilla" }

func (h *fakeHandler) Extract(text string) []track.Fingerprint {
	var fps []track.Fingerprint
	for _, m := range bzPattern.FindAllStringSubmatch(text, -1) {
		fps = append(fps, track.IssueFingerprint("bugzilla", "main", m[1]))
	}
	return fps
}

func (h *fakeHandler) Fetch(_ context.Context, fp track.Fingerprint) (*track.IssueInfo, error) {
	h.mu.Lock()
	h.lookups = append(h.lookups, fp)
	fail := h.fail
	h.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("connect timeout")
	}
	return &track.IssueInfo{Key: fp.ID, Title: "title of " + fp.ID}, nil
}

func (h *fakeHandler) Format(info *track.IssueInfo) string {
	return "bug " + info.Key + ": " + info.Title
}

func (h *fakeHandler) Window() time.Duration { return h.window }
func (h *fakeHandler) MaxKeys() int          { return h.maxKeys }

func (h *fakeHandler) lookupCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.lookups)
}

// fakeSender records sent messages.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	target  string
	message string
}

func (s *fakeSender) Send(target, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{target, message})
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fixture struct {
	dispatcher *Dispatcher
	handler    *fakeHandler
	sender     *fakeSender
	resolver   *TargetResolver
	clock      *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cache := dedupe.New[track.Fingerprint](10*time.Second, 1000)
	t.Cleanup(cache.Close)

	handler := &fakeHandler{window: 10 * time.Second, maxKeys: 10}
	sender := &fakeSender{}
	resolver := NewTargetResolver()
	metrics := NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d := NewDispatcher(cache, resolver, sender, metrics, logger)
	d.Register(handler)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	return &fixture{dispatcher: d, handler: handler, sender: sender, resolver: resolver, clock: &now}
}

func TestDispatch_RepeatedKeyInOneMessage(t *testing.T) {
	f := newFixture(t)

	// The guard suppresses the second occurrence; one lookup, one message.
	f.dispatcher.HandleInbound(context.Background(), Event{Origin: "#test", Text: "bz#1234 bz#1234"})

	assert.Equal(t, 1, f.handler.lookupCount())
	require.Equal(t, 1, f.sender.count())
	assert.Equal(t, "#test", f.sender.sent[0].target)
	assert.Equal(t, "bug 1234: title of 1234", f.sender.sent[0].message)
}

func TestDispatch_RepeatWithinWindowSuppressed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.HandleInbound(ctx, Event{Origin: "#test", Text: "see bz#1234"})
	assert.Equal(t, 1, f.sender.count())

	// Same message again inside the window: no lookup, no message.
	*f.clock = f.clock.Add(5 * time.Second)
	f.dispatcher.HandleInbound(ctx, Event{Origin: "#test", Text: "see bz#1234"})

	assert.Equal(t, 1, f.handler.lookupCount())
	assert.Equal(t, 1, f.sender.count())

	// Once the window has elapsed it posts again.
	*f.clock = f.clock.Add(10 * time.Second)
	f.dispatcher.HandleInbound(ctx, Event{Origin: "#test", Text: "see bz#1234"})
	assert.Equal(t, 2, f.sender.count())
}

func TestDispatch_TargetIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dispatcher.HandleInbound(ctx, Event{Origin: "#chanA", Text: "bz#1234"})
	f.dispatcher.HandleInbound(ctx, Event{Origin: "#chanB", Text: "bz#1234"})

	require.Equal(t, 2, f.sender.count())
	assert.Equal(t, "#chanA", f.sender.sent[0].target)
	assert.Equal(t, "#chanB", f.sender.sent[1].target)
}

func TestDispatch_LookupFailureRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.handler.fail = true
	f.dispatcher.HandleInbound(ctx, Event{Origin: "#test", Text: "bz#1234"})

	// Failure: nothing sent, nothing cached.
	assert.Equal(t, 1, f.handler.lookupCount())
	assert.Equal(t, 0, f.sender.count())

	// Next occurrence performs a fresh lookup even within the window.
	f.handler.fail = false
	f.dispatcher.HandleInbound(ctx, Event{Origin: "#test", Text: "bz#1234"})

	assert.Equal(t, 2, f.handler.lookupCount())
	assert.Equal(t, 1, f.sender.count())
}

func TestDispatch_MatchCap(t *testing.T) {
	f := newFixture(t)
	f.handler.maxKeys = 2

	f.dispatcher.HandleInbound(context.Background(), Event{Origin: "#test", Text: "bz#1 bz#2 bz#3 bz#4"})

	// Left-to-right, first maxKeys matches win.
	assert.Equal(t, 2, f.handler.lookupCount())
	require.Equal(t, 2, f.sender.count())
	assert.Equal(t, "bug 1: title of 1", f.sender.sent[0].message)
	assert.Equal(t, "bug 2: title of 2", f.sender.sent[1].message)
}

func TestDispatch_OutboundRescanDoesNotLoop(t *testing.T) {
	f := newFixture(t)

	// The formatted summary echoes the key; the re-scan of our own outbound
	// text must not trigger a second lookup.
	f.dispatcher.HandleInbound(context.Background(), Event{Origin: "#test", Text: "bz#1234"})

	assert.Equal(t, 1, f.handler.lookupCount())
	assert.Equal(t, 1, f.sender.count())
}

func TestDispatch_CascadeProcessesNewKeys(t *testing.T) {
	f := newFixture(t)

	// bz#77's title mentions bz#1234: the outbound summary cascades into a
	// second lookup, and the cascade's own echo terminates the recursion.
	cascade := &cascadeHandler{fakeHandler: f.handler}
	f.dispatcher.handlers = []Handler{cascade}

	f.dispatcher.HandleInbound(context.Background(), Event{Origin: "#test", Text: "bz#77"})

	assert.Equal(t, 2, f.handler.lookupCount(), "trigger plus one cascaded lookup")
	require.Equal(t, 2, f.sender.count())
	assert.Equal(t, "bug 1234: title of 1234", f.sender.sent[0].message, "cascade delivered before the trigger's send")
	assert.Equal(t, "bug 77: see also bz#1234", f.sender.sent[1].message)
}

// cascadeHandler formats bug 77 with a reference to another key.
type cascadeHandler struct {
	*fakeHandler
}

func (h *cascadeHandler) Format(info *track.IssueInfo) string {
	if info.Key == "77" {
		return "bug 77: see also bz#1234"
	}
	return h.fakeHandler.Format(info)
}

func TestDispatch_NoOriginNoTargets(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleInbound(context.Background(), Event{Text: "bz#1234"})

	assert.Equal(t, 0, f.handler.lookupCount(), "no targets means no lookup")
	assert.Equal(t, 0, f.sender.count())
}

func TestHandleNotice_Broadcast(t *testing.T) {
	f := newFixture(t)
	f.resolver.Update(map[string][]string{
		"jira:JBIDE": {"#jbosstools", "#jboss-dev"},
	})

	n := Notice{
		Tracker:     "jira",
		Project:     "JBIDE",
		Fingerprint: track.IssueFingerprint("jira", "issues.example.org", "JBIDE-100"),
		Message:     "new issue JBIDE-100: something broke",
	}
	f.dispatcher.HandleNotice(context.Background(), n)

	require.Equal(t, 2, f.sender.count())
	assert.Equal(t, "#jbosstools", f.sender.sent[0].target)
	assert.Equal(t, "#jboss-dev", f.sender.sent[1].target)

	// Redelivery of the same notice inside the window is suppressed.
	f.dispatcher.HandleNotice(context.Background(), n)
	assert.Equal(t, 2, f.sender.count())
}

func TestHandleNotice_NoRoute(t *testing.T) {
	f := newFixture(t)

	f.dispatcher.HandleNotice(context.Background(), Notice{
		Tracker:     "jira",
		Project:     "UNROUTED",
		Fingerprint: track.IssueFingerprint("jira", "issues.example.org", "UNROUTED-1"),
		Message:     "new issue",
	})

	assert.Equal(t, 0, f.sender.count())
}

func TestResolver_Reply(t *testing.T) {
	r := NewTargetResolver()

	assert.Equal(t, []string{"#test"}, r.Reply(Event{Origin: "#test"}))
	assert.Empty(t, r.Reply(Event{}))
}

func TestResolver_UpdateSwapsSnapshot(t *testing.T) {
	r := NewTargetResolver()
	assert.Empty(t, r.Broadcast("jira", "JBIDE"))

	r.Update(map[string][]string{"jira:JBIDE": {"#a"}})
	assert.Equal(t, []string{"#a"}, r.Broadcast("jira", "JBIDE"))

	r.Update(nil)
	assert.Empty(t, r.Broadcast("jira", "JBIDE"))
}
