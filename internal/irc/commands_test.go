// ABOUTME: Tests for admin command parsing and route management replies.

package irc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbossbot/jbossbot/internal/store"
)

type fakeRoutes struct {
	added   [][3]string
	removed [][3]string
	routes  []store.Route
	exists  bool
	err     error
}

func (f *fakeRoutes) AddRoute(ctx context.Context, tracker, project, channel string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.added = append(f.added, [3]string{tracker, project, channel})
	return !f.exists, nil
}

func (f *fakeRoutes) RemoveRoute(ctx context.Context, tracker, project, channel string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.removed = append(f.removed, [3]string{tracker, project, channel})
	return !f.exists, nil
}

func (f *fakeRoutes) ListRoutes(ctx context.Context) ([]store.Route, error) {
	return f.routes, f.err
}

func commandClient(t *testing.T, routes *fakeRoutes) (*Client, *[]string, *int) {
	t.Helper()
	var sent []string
	refreshes := 0
	c := &Client{
		routes:          routes,
		version:         "1.2.3",
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		onRoutesChanged: func() { refreshes++ },
	}
	c.privmsg = func(target, text string) {
		sent = append(sent, target+" <- "+text)
	}
	return c, &sent, &refreshes
}

func TestHandleCommand_RouteAdd(t *testing.T) {
	routes := &fakeRoutes{}
	c, sent, refreshes := commandClient(t, routes)

	c.handleCommand("#jboss", "!route add jira JBIDE #jboss-dev")

	require.Len(t, routes.added, 1)
	assert.Equal(t, [3]string{"jira", "JBIDE", "#jboss-dev"}, routes.added[0])
	require.Len(t, *sent, 1)
	assert.Equal(t, "#jboss <- routing jira/JBIDE -> #jboss-dev", (*sent)[0])
	assert.Equal(t, 1, *refreshes, "snapshot refresh after change")
}

func TestHandleCommand_RouteAddExisting(t *testing.T) {
	routes := &fakeRoutes{exists: true}
	c, sent, refreshes := commandClient(t, routes)

	c.handleCommand("#jboss", "!route add jira JBIDE #jboss-dev")

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "already exists")
	assert.Zero(t, *refreshes, "no refresh when nothing changed")
}

func TestHandleCommand_RouteDel(t *testing.T) {
	routes := &fakeRoutes{}
	c, sent, refreshes := commandClient(t, routes)

	c.handleCommand("#jboss", "!route del jira JBIDE #jboss-dev")

	require.Len(t, routes.removed, 1)
	assert.Contains(t, (*sent)[0], "dropped route jira/JBIDE -> #jboss-dev")
	assert.Equal(t, 1, *refreshes)
}

func TestHandleCommand_RouteDelMissing(t *testing.T) {
	routes := &fakeRoutes{exists: true}
	c, sent, refreshes := commandClient(t, routes)

	c.handleCommand("#jboss", "!route del jira JBIDE #jboss-dev")

	assert.Contains(t, (*sent)[0], "no route")
	assert.Zero(t, *refreshes)
}

func TestHandleCommand_RouteList(t *testing.T) {
	routes := &fakeRoutes{routes: []store.Route{
		{Tracker: "jira", Project: "JBIDE", Channel: "#jboss-dev"},
		{Tracker: "teamcity", Project: "Gatein", Channel: "#gatein"},
	}}
	c, sent, _ := commandClient(t, routes)

	c.handleCommand("mike", "!route list")

	require.Len(t, *sent, 2)
	assert.Equal(t, "mike <- jira/JBIDE -> #jboss-dev", (*sent)[0])
	assert.Equal(t, "mike <- teamcity/Gatein -> #gatein", (*sent)[1])
}

func TestHandleCommand_RouteListEmpty(t *testing.T) {
	c, sent, _ := commandClient(t, &fakeRoutes{})

	c.handleCommand("mike", "!route list")

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "no routes configured")
}

func TestHandleCommand_RouteUsage(t *testing.T) {
	for _, text := range []string{
		"!route",
		"!route add jira JBIDE",
		"!route del jira",
		"!route bogus a b c",
	} {
		c, sent, _ := commandClient(t, &fakeRoutes{})
		c.handleCommand("mike", text)
		require.Len(t, *sent, 1, text)
		assert.Contains(t, (*sent)[0], "usage:", text)
	}
}

func TestHandleCommand_RouteStoreError(t *testing.T) {
	routes := &fakeRoutes{err: errors.New("db locked")}
	c, sent, refreshes := commandClient(t, routes)

	c.handleCommand("mike", "!route add jira JBIDE #jboss-dev")

	assert.Contains(t, (*sent)[0], "route add failed")
	assert.Zero(t, *refreshes)
}

func TestHandleCommand_Version(t *testing.T) {
	c, sent, _ := commandClient(t, &fakeRoutes{})

	c.handleCommand("mike", "!version")

	require.Len(t, *sent, 1)
	assert.Equal(t, "mike <- jbossbot 1.2.3", (*sent)[0])
}

func TestHandleCommand_UnknownIgnored(t *testing.T) {
	c, sent, _ := commandClient(t, &fakeRoutes{})

	c.handleCommand("#jboss", "!!! so excited")
	c.handleCommand("#jboss", "!weather")

	assert.Empty(t, *sent)
}
