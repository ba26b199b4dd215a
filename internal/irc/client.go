// ABOUTME: IRC client wrapping ergochat/irc-go: connection lifecycle, callbacks, outbound sends.
// ABOUTME: Implements the dispatcher's Sender; inbound PRIVMSGs feed the dispatcher.

package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"

	"github.com/jbossbot/jbossbot/internal/config"
	"github.com/jbossbot/jbossbot/internal/notify"
	"github.com/jbossbot/jbossbot/internal/store"
)

// Dispatcher receives every inbound channel and private message.
type Dispatcher interface {
	HandleInbound(ctx context.Context, ev notify.Event)
}

// RouteStore is the slice of the route store the admin commands need.
type RouteStore interface {
	AddRoute(ctx context.Context, tracker, project, channel string) (bool, error)
	RemoveRoute(ctx context.Context, tracker, project, channel string) (bool, error)
	ListRoutes(ctx context.Context) ([]store.Route, error)
}

// Client is the bot's IRC connection.
type Client struct {
	conn       *ircevent.Connection
	cfg        config.IRCConfig
	admins     []string
	dispatcher Dispatcher
	routes     RouteStore
	version    string
	logger     *slog.Logger

	// onRoutesChanged fires after a successful !route add/del so the
	// broadcast snapshot refreshes without waiting for the next tick.
	onRoutesChanged func()

	// privmsg is the outbound send; swapped out in tests.
	privmsg func(target, text string)

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient builds the IRC client. Run must be called to connect.
func NewClient(cfg config.IRCConfig, admins []string, d Dispatcher, routes RouteStore, onRoutesChanged func(), version string, logger *slog.Logger) *Client {
	c := &Client{
		cfg:             cfg,
		admins:          admins,
		dispatcher:      d,
		routes:          routes,
		version:         version,
		logger:          logger.With("component", "irc"),
		onRoutesChanged: onRoutesChanged,
	}

	conn := &ircevent.Connection{
		Server:      fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		Nick:        cfg.Nick,
		User:        cfg.Username,
		RealName:    cfg.Realname,
		QuitMessage: "shutting down",
		UseTLS:      cfg.TLS,
	}
	if cfg.TLS {
		conn.TLSConfig = &tls.Config{ServerName: cfg.Server}
	}
	c.conn = conn
	c.privmsg = func(target, text string) {
		if err := conn.Privmsg(target, text); err != nil {
			c.logger.Warn("send failed", "target", target, "error", err)
		}
	}

	c.registerHandlers()
	return c
}

func (c *Client) registerHandlers() {
	// End of MOTD (or no MOTD at all) means registration finished.
	c.conn.AddCallback("376", c.onConnect)
	c.conn.AddCallback("422", c.onConnect)

	c.conn.AddCallback("PRIVMSG", c.onPrivMsg)

	// Nick collisions fall back to the alternate nick.
	c.conn.AddCallback("432", c.onNickUnavailable)
	c.conn.AddCallback("433", c.onNickUnavailable)

	c.conn.AddCallback("CTCP_VERSION", c.onCtcpVersion)
}

// Run connects and blocks until the connection closes or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.ctx = ctx
	c.cancel = cancel
	c.mu.Unlock()

	if err := c.conn.Connect(); err != nil {
		cancel()
		return fmt.Errorf("connecting to %s: %w", c.conn.Server, err)
	}

	go func() {
		<-ctx.Done()
		c.conn.Quit()
	}()

	c.conn.Loop()
	cancel()
	return nil
}

// Close disconnects the client.
func (c *Client) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Send delivers one formatted notification line to an IRC target.
func (c *Client) Send(target, message string) {
	c.privmsg(target, message)
}

func (c *Client) context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

func (c *Client) onConnect(e ircmsg.Message) {
	c.logger.Info("connected", "server", c.conn.Server, "nick", c.conn.CurrentNick())

	if c.cfg.NickservPass != "" {
		c.privmsg("NickServ", fmt.Sprintf("IDENTIFY %s %s", c.cfg.Nick, c.cfg.NickservPass))
	}

	for _, channel := range c.cfg.Channels {
		if err := c.conn.Join(channel); err != nil {
			c.logger.Warn("join failed", "channel", channel, "error", err)
		}
	}
}

func (c *Client) onNickUnavailable(e ircmsg.Message) {
	if c.conn.CurrentNick() == c.cfg.Alternate {
		return
	}
	c.logger.Warn("nick unavailable, switching to alternate", "nick", c.cfg.Nick, "alternate", c.cfg.Alternate)
	c.conn.SetNick(c.cfg.Alternate)
}

func (c *Client) onCtcpVersion(e ircmsg.Message) {
	nick := e.Nick()
	if nick == "" {
		return
	}
	c.conn.SendRaw(fmt.Sprintf("NOTICE %s :\x01VERSION jbossbot %s\x01", nick, c.version))
}

func (c *Client) onPrivMsg(e ircmsg.Message) {
	if len(e.Params) < 2 {
		return
	}

	target := e.Params[0]
	text := e.Params[1]
	nick := e.Nick()

	// Never react to our own traffic.
	if strings.EqualFold(nick, c.conn.CurrentNick()) {
		return
	}

	// Private messages reply to the sender, channel messages to the channel.
	origin := target
	if strings.EqualFold(target, c.conn.CurrentNick()) {
		origin = nick
	}

	if strings.HasPrefix(text, "!") {
		nuh, err := e.NUH()
		if err != nil {
			return
		}
		if c.isAdmin(nuh.Canonical()) {
			c.handleCommand(origin, text)
			return
		}
		// Fall through: a non-admin "!" line is still scanned for keys.
	}

	c.dispatcher.HandleInbound(c.context(), notify.Event{
		Origin: origin,
		Sender: nick,
		Text:   text,
	})
}

func (c *Client) isAdmin(hostmask string) bool {
	for _, pattern := range c.admins {
		if matchHostmask(pattern, hostmask) {
			return true
		}
	}
	return false
}
