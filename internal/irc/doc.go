// ABOUTME: Package irc connects the bot to the IRC network and adapts traffic
// ABOUTME: both ways: inbound messages to the dispatcher, outbound notifications to channels.

// Package irc wraps ergochat/irc-go with the bot's connection lifecycle:
// registration, NickServ identification, channel joins, alternate-nick
// fallback and CTCP VERSION. Channel and private messages are handed to the
// notification dispatcher; the client also implements the dispatcher's
// Sender so formatted notifications flow back out through the same
// connection. Admin commands (!route, !version) are gated by hostmask
// patterns.
package irc
