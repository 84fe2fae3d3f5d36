package bot

import (
	"context"
	"errors"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/VTGare/member-counter/internal/config"
	"github.com/VTGare/member-counter/internal/gateway"
	"github.com/VTGare/member-counter/internal/metrics"
	"github.com/VTGare/member-counter/internal/scheduler"
	"github.com/VTGare/member-counter/stats"
	"github.com/bwmarrin/discordgo"
	"github.com/servusdei2018/shards"
	"go.uber.org/zap"
)

var ErrNoShardManager = errors.New("shard manager is not set")

// Bot is the process-wide context passed to every handler and command.
type Bot struct {
	// misc.
	Log     *zap.SugaredLogger
	Config  *config.Config
	Metrics *metrics.Metrics

	// counters
	Registry   *stats.Registry
	Reconciler *stats.Reconciler
	Scheduler  *scheduler.Scheduler

	// ReadyGuilds holds guilds initialized on Ready, so their following GuildCreate events are skipped.
	ReadyGuilds *ttlcache.Cache

	ShardManager *shards.Manager

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg *config.Config, logger *zap.SugaredLogger) *Bot {
	var (
		m        = metrics.New()
		registry = stats.NewRegistry()
		ready    = ttlcache.NewCache()
	)
	ready.SetTTL(5 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		Log:         logger,
		Config:      cfg,
		Metrics:     m,
		Registry:    registry,
		Reconciler:  stats.NewReconciler(cfg.Stats, registry, logger, m),
		ReadyGuilds: ready,
		ctx:         ctx,
		cancel:      cancel,
	}

	b.Scheduler = scheduler.New(cfg.Stats.Interval(), b.UpdateAll)
	return b
}

func (b *Bot) WithShardManager(mgr *shards.Manager) {
	b.ShardManager = mgr
}

// Context is canceled when the bot closes.
func (b *Bot) Context() context.Context {
	return b.ctx
}

// Session wraps a shard's session with the configured application ID.
func (b *Bot) Session(s *discordgo.Session) *gateway.Session {
	return gateway.Wrap(s, b.Config.Discord.ApplicationID)
}

// StartUpdates (re)starts the periodic counter refresh.
func (b *Bot) StartUpdates() {
	b.Scheduler.Start(b.ctx)
	b.Log.Infof("updating counters every %v", b.Config.Stats.Interval())
}

// Targets lists every guild of every shard with the session that owns it.
func (b *Bot) Targets() []stats.Target {
	if b.ShardManager == nil {
		return nil
	}

	b.ShardManager.RLock()
	defer b.ShardManager.RUnlock()

	var targets []stats.Target
	for _, shard := range b.ShardManager.Shards {
		s := shard.Session
		if s == nil || s.State == nil {
			continue
		}

		session := b.Session(s)
		s.State.RLock()
		for _, guild := range s.State.Guilds {
			targets = append(targets, stats.Target{Platform: session, Guild: guild})
		}
		s.State.RUnlock()
	}

	return targets
}

// UpdateAll refreshes counters of every guild. It's the scheduler's task.
func (b *Bot) UpdateAll(ctx context.Context) {
	start := time.Now()
	targets := b.Targets()

	b.Log.Debugf("updating counters of %v guilds", len(targets))
	if err := b.Reconciler.UpdateAll(ctx, targets); err != nil {
		b.Log.Debugf("scheduled update finished with errors: %v", err)
	}

	b.Metrics.ObserveTick(time.Since(start))
}

func (b *Bot) Open() error {
	if b.ShardManager == nil {
		return ErrNoShardManager
	}

	if err := b.ShardManager.Start(); err != nil {
		return err
	}

	b.Log.Infof("opened a connection to gateway. Shards: %v", b.ShardManager.ShardCount)
	return nil
}

// Close stops updates, discards the registry and disconnects every shard.
func (b *Bot) Close() error {
	b.cancel()
	b.Scheduler.Stop()
	b.Registry.Clear()
	b.ReadyGuilds.Close()

	if b.ShardManager == nil {
		return nil
	}

	return b.ShardManager.Shutdown()
}
