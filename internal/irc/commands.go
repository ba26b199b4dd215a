// ABOUTME: Admin command handling: !route add/del/list and !version.
// ABOUTME: Commands are only reachable for hostmasks matching the configured admin patterns.

package irc

import (
	"fmt"
	"strings"
)

const routeUsage = "usage: !route add|del <tracker> <project> <channel> | !route list"

// handleCommand parses and executes one admin command, replying to origin.
func (c *Client) handleCommand(origin, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	switch strings.ToLower(fields[0]) {
	case "!route":
		c.handleRoute(origin, fields[1:])
	case "!version":
		c.privmsg(origin, fmt.Sprintf("jbossbot %s", c.version))
	default:
		// Unknown ! lines are ignored rather than answered; people prefix
		// plenty of ordinary chat with exclamation marks.
	}
}

func (c *Client) handleRoute(origin string, args []string) {
	ctx := c.context()

	if len(args) == 0 {
		c.privmsg(origin, routeUsage)
		return
	}

	switch strings.ToLower(args[0]) {
	case "add":
		if len(args) != 4 {
			c.privmsg(origin, routeUsage)
			return
		}
		tracker, project, channel := args[1], args[2], args[3]
		added, err := c.routes.AddRoute(ctx, tracker, project, channel)
		if err != nil {
			c.logger.Error("route add failed", "error", err)
			c.privmsg(origin, "route add failed")
			return
		}
		if !added {
			c.privmsg(origin, fmt.Sprintf("route %s/%s -> %s already exists", tracker, project, channel))
			return
		}
		c.privmsg(origin, fmt.Sprintf("routing %s/%s -> %s", tracker, project, channel))
		c.routesChanged()

	case "del":
		if len(args) != 4 {
			c.privmsg(origin, routeUsage)
			return
		}
		tracker, project, channel := args[1], args[2], args[3]
		removed, err := c.routes.RemoveRoute(ctx, tracker, project, channel)
		if err != nil {
			c.logger.Error("route del failed", "error", err)
			c.privmsg(origin, "route del failed")
			return
		}
		if !removed {
			c.privmsg(origin, fmt.Sprintf("no route %s/%s -> %s", tracker, project, channel))
			return
		}
		c.privmsg(origin, fmt.Sprintf("dropped route %s/%s -> %s", tracker, project, channel))
		c.routesChanged()

	case "list":
		routes, err := c.routes.ListRoutes(ctx)
		if err != nil {
			c.logger.Error("route list failed", "error", err)
			c.privmsg(origin, "route list failed")
			return
		}
		if len(routes) == 0 {
			c.privmsg(origin, "no routes configured")
			return
		}
		for _, r := range routes {
			c.privmsg(origin, fmt.Sprintf("%s/%s -> %s", r.Tracker, r.Project, r.Channel))
		}

	default:
		c.privmsg(origin, routeUsage)
	}
}

func (c *Client) routesChanged() {
	if c.onRoutesChanged != nil {
		c.onRoutesChanged()
	}
}
