// ABOUTME: NotificationDispatcher orchestrating extract -> guard -> dedupe -> lookup -> send.
// ABOUTME: One dispatch per inbound event; cascades share the event's recursion scope.

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jbossbot/jbossbot/internal/dedupe"
	"github.com/jbossbot/jbossbot/internal/guard"
	"github.com/jbossbot/jbossbot/internal/ircfmt"
	"github.com/jbossbot/jbossbot/internal/track"
)

// defaultNoticeWindow bounds repeat webhook notices when the notice itself
// carries no window.
const defaultNoticeWindow = 10 * time.Second

// Event is one inbound text event: a channel or private message the bot saw.
type Event struct {
	// Origin is the channel (or nick, for private messages) the text
	// arrived on; reactive notifications reply there.
	Origin string
	Sender string
	Text   string
}

// Notice is a proactive notification produced by a webhook delivery. The
// message is already formatted; the dispatcher only resolves targets and
// deduplicates.
type Notice struct {
	Tracker     string
	Project     string
	Fingerprint track.Fingerprint
	Message     string

	// Window overrides defaultNoticeWindow when non-zero.
	Window time.Duration
}

// Handler is one tracker integration plugged into the dispatcher. Extract is
// pure and non-blocking; Fetch is the only blocking operation and must carry
// its own timeout. A nil info or an error from Fetch means "no information
// this cycle": nothing is sent and nothing is cached.
type Handler interface {
	Name() string
	Extract(text string) []track.Fingerprint
	Fetch(ctx context.Context, fp track.Fingerprint) (*track.IssueInfo, error)
	Format(info *track.IssueInfo) string

	// Window is the dedupe window for this tracker's notifications.
	Window() time.Duration

	// MaxKeys caps matches processed per inbound message.
	MaxKeys() int
}

// Sender delivers a formatted message to an IRC target. Fire-and-forget;
// send failures are the transport's problem and never propagate back.
type Sender interface {
	Send(target, message string)
}

// Dispatcher wires the guard, the dedupe cache, the target resolver and the
// registered tracker handlers into one pipeline.
type Dispatcher struct {
	handlers []Handler
	cache    *dedupe.Cache[track.Fingerprint]
	resolver *TargetResolver
	sender   Sender
	metrics  *Metrics
	logger   *slog.Logger

	// now is the clock; injectable for tests.
	now func() time.Time
}

// NewDispatcher creates a dispatcher around the given cache, resolver and
// sender. Handlers are added with Register.
func NewDispatcher(cache *dedupe.Cache[track.Fingerprint], resolver *TargetResolver, sender Sender, metrics *Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cache:    cache,
		resolver: resolver,
		sender:   sender,
		metrics:  metrics,
		logger:   logger.With("component", "dispatcher"),
		now:      time.Now,
	}
}

// Register adds a tracker handler. Not safe to call once dispatching has
// started; registration happens during wiring.
func (d *Dispatcher) Register(h Handler) {
	d.handlers = append(d.handlers, h)
}

// HandleInbound processes one inbound IRC event. It creates the recursion
// scope for this dispatch and threads it through every cascade.
func (d *Dispatcher) HandleInbound(ctx context.Context, ev Event) {
	d.dispatch(ctx, guard.NewScope(), ev)
}

// HandleNotice processes one proactive webhook notification: resolve the
// broadcast targets for the project, claim the dedupe entries, and send the
// preformatted message. No external lookup is involved.
func (d *Dispatcher) HandleNotice(ctx context.Context, n Notice) {
	scope := guard.NewScope()
	scope.Enter()
	defer scope.Exit()

	if !scope.Add(n.Fingerprint) {
		return
	}

	targets := d.resolver.Broadcast(n.Tracker, n.Project)
	if len(targets) == 0 {
		d.logger.Debug("no broadcast route", "tracker", n.Tracker, "project", n.Project)
		return
	}

	window := n.Window
	if window == 0 {
		window = defaultNoticeWindow
	}

	now := d.now()
	for _, target := range targets {
		if !d.cache.CheckApplyWindow(target, n.Fingerprint, now, window) {
			d.metrics.suppressed.WithLabelValues(n.Tracker).Inc()
			continue
		}
		d.deliver(ctx, scope, n.Tracker, target, n.Message)
	}
}

// dispatch runs every registered handler over one event. Cascaded events
// (our own outbound text) re-enter here with the same scope, which is why
// the scope is depth-counted rather than boolean.
func (d *Dispatcher) dispatch(ctx context.Context, scope *guard.Scope, ev Event) {
	scope.Enter()
	defer scope.Exit()

	corr := uuid.NewString()[:8]
	for _, h := range d.handlers {
		fps := h.Extract(ev.Text)
		if len(fps) > h.MaxKeys() {
			fps = fps[:h.MaxKeys()]
		}
		for _, fp := range fps {
			d.process(ctx, scope, h, ev, fp, corr)
		}
	}
}

// process runs the per-fingerprint state machine:
// guard check -> dedupe claim per target -> lookup -> format -> fan out.
func (d *Dispatcher) process(ctx context.Context, scope *guard.Scope, h Handler, ev Event, fp track.Fingerprint, corr string) {
	if !scope.Add(fp) {
		d.metrics.duplicates.WithLabelValues(h.Name()).Inc()
		d.logger.Debug("duplicate within dispatch", "id", corr, "fingerprint", fp.String())
		return
	}

	targets := d.resolver.Reply(ev)
	if len(targets) == 0 {
		return
	}

	// Claim the dedupe entries before the lookup so a concurrent dispatch
	// for the same key observes the claim and stays silent.
	now := d.now()
	var deliver []string
	for _, target := range targets {
		if d.cache.CheckApplyWindow(target, fp, now, h.Window()) {
			deliver = append(deliver, target)
		}
	}
	if len(deliver) == 0 {
		d.metrics.suppressed.WithLabelValues(h.Name()).Inc()
		d.logger.Debug("suppressed by dedupe", "id", corr, "fingerprint", fp.String())
		return
	}

	// The lookup blocks on network I/O and runs outside every lock.
	info, err := h.Fetch(ctx, fp)
	if err != nil || info == nil {
		// Release the claims so the next occurrence retries.
		for _, target := range deliver {
			d.cache.Forget(target, fp)
		}
		d.metrics.lookupFailures.WithLabelValues(h.Name()).Inc()
		d.logger.Warn("lookup failed", "id", corr, "tracker", h.Name(), "fingerprint", fp.String(), "error", err)
		return
	}

	message := h.Format(info)
	for _, target := range deliver {
		d.deliver(ctx, scope, h.Name(), target, message)
	}
}

// deliver re-scans the outbound text under the current scope before handing
// it to the transport. Keys the message repeats are already in the scope and
// get skipped; keys it newly mentions are processed like any other event.
func (d *Dispatcher) deliver(ctx context.Context, scope *guard.Scope, tracker, target, message string) {
	d.dispatch(ctx, scope, Event{Origin: target, Text: ircfmt.Strip(message)})
	d.sender.Send(target, message)
	d.metrics.delivered.WithLabelValues(tracker).Inc()
}
