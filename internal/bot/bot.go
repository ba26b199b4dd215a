// ABOUTME: Bot orchestrator wiring config, store, dispatcher, IRC and webhook together.
// ABOUTME: Run drives both transports under one errgroup with graceful shutdown.

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jbossbot/jbossbot/internal/config"
	"github.com/jbossbot/jbossbot/internal/dedupe"
	"github.com/jbossbot/jbossbot/internal/irc"
	"github.com/jbossbot/jbossbot/internal/notify"
	"github.com/jbossbot/jbossbot/internal/store"
	"github.com/jbossbot/jbossbot/internal/track"
	"github.com/jbossbot/jbossbot/internal/tracker"
	"github.com/jbossbot/jbossbot/internal/webhook"
)

// maxCacheEntries bounds each dedupe target's entry count.
const maxCacheEntries = 1000

// Bot holds every long-lived component.
type Bot struct {
	cfg      *config.Config
	store    *store.SQLiteStore
	cache    *dedupe.Cache[track.Fingerprint]
	resolver *notify.TargetResolver
	irc      *irc.Client
	webhook  *webhook.Server
	logger   *slog.Logger
}

// New builds the bot from configuration. Nothing connects until Run.
func New(cfg *config.Config, version string, logger *slog.Logger) (*Bot, error) {
	routeStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening route store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := notify.NewMetrics(registry)

	resolver := notify.NewTargetResolver()
	if snap, err := routeStore.Snapshot(context.Background()); err != nil {
		logger.Warn("initial route snapshot failed", "error", err)
	} else {
		resolver.Update(snap)
	}

	cache := dedupe.New[track.Fingerprint](10*time.Second, maxCacheEntries)

	b := &Bot{
		cfg:      cfg,
		store:    routeStore,
		cache:    cache,
		resolver: resolver,
		logger:   logger,
	}

	// The IRC client is the dispatcher's sender, and the dispatcher is the
	// IRC client's inbound handler; the sender indirection breaks the cycle.
	sender := &deferredSender{}
	dispatcher := notify.NewDispatcher(cache, resolver, sender, metrics, logger)
	registerTrackers(dispatcher, cfg.Trackers, logger)

	b.irc = irc.NewClient(cfg.IRC, cfg.Admins, dispatcher, routeStore, b.refreshRoutes, version, logger)
	sender.Sender = b.irc

	b.webhook = webhook.NewServer(cfg.HTTP, cfg.Metrics, registry, dispatcher, logger)

	return b, nil
}

// registerTrackers builds a handler per configured integration.
func registerTrackers(d *notify.Dispatcher, cfg config.TrackersConfig, logger *slog.Logger) {
	client := tracker.NewClient(logger)

	for _, bz := range cfg.Bugzilla {
		d.Register(tracker.NewBugzilla(bz, client))
	}
	for _, j := range cfg.Jira {
		d.Register(tracker.NewJira(j, client))
	}
	for _, yt := range cfg.YouTrack {
		d.Register(tracker.NewYouTrack(yt, client))
	}
	if cfg.GitHub.Enabled {
		d.Register(tracker.NewGitHub(cfg.GitHub, client))
	}
}

// Run connects everything and blocks until ctx is cancelled or a component
// fails. All components are shut down before returning.
func (b *Bot) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.irc.Run(ctx)
	})

	g.Go(func() error {
		return b.webhook.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b.irc.Close()
		return b.webhook.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		b.refreshLoop(ctx)
		return nil
	})

	err := g.Wait()

	b.cache.Close()
	if closeErr := b.store.Close(); closeErr != nil {
		b.logger.Warn("closing route store", "error", closeErr)
	}
	return err
}

// refreshLoop reloads the broadcast route snapshot periodically so external
// edits to the database show up without a restart.
func (b *Bot) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.Routes.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.refreshRoutes()
		}
	}
}

// refreshRoutes swaps a fresh snapshot into the resolver. Also called right
// after an admin edits routes over IRC.
func (b *Bot) refreshRoutes() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := b.store.Snapshot(ctx)
	if err != nil {
		b.logger.Warn("route snapshot failed", "error", err)
		return
	}
	b.resolver.Update(snap)
}

// deferredSender lets the dispatcher be constructed before the IRC client
// that does the actual sending.
type deferredSender struct {
	notify.Sender
}

func (d *deferredSender) Send(target, message string) {
	if d.Sender != nil {
		d.Sender.Send(target, message)
	}
}
