package stats

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/VTGare/member-counter/internal/config"
	"github.com/VTGare/member-counter/internal/metrics"
	"github.com/VTGare/member-counter/internal/permissions"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrCategoryNotFound        = errors.New("stats category not found")
)

// Reconciler creates, renames and deletes counter channels so they match live membership.
type Reconciler struct {
	Registry *Registry

	category string
	counters []*config.Counter
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
}

func NewReconciler(cfg *config.Stats, registry *Registry, log *zap.SugaredLogger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		Registry: registry,
		category: cfg.Category,
		counters: cfg.Counters,
		log:      log,
		metrics:  m,
	}
}

// Initialize finds or creates a voice channel for every counter under the stats category
// and records them in the registry. Running it again renames instead of duplicating.
// Counters are resolved concurrently, a failing counter doesn't affect the others.
func (r *Reconciler) Initialize(ctx context.Context, p Platform, guild *discordgo.Guild) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := r.log.With("guild_id", guild.ID, "guild", guild.Name)
	log.Info("setting up counters")

	perms, err := p.BotPermissions(guild.ID)
	if err != nil {
		return fmt.Errorf("failed to get bot permissions: %w", err)
	}

	if !permissions.Has(perms, permissions.Required) {
		log.Warn("insufficient permissions to manage counters")
		return ErrInsufficientPermissions
	}

	channels, err := r.channels(p, guild.ID)
	if err != nil {
		return err
	}

	category := findCategory(channels, r.category)
	if category == nil {
		log.Infof("category %q not found", r.category)
		return ErrCategoryNotFound
	}

	stats, err := r.stats(p, guild.ID)
	if err != nil {
		return err
	}

	var (
		eg       errgroup.Group
		matches  = r.claim(channels, category.ID)
		resolved = make([]*discordgo.Channel, len(r.counters))
		errs     = make([]error, len(r.counters))
	)

	for i, counter := range r.counters {
		i, counter := i, counter
		eg.Go(func() error {
			ch, err := r.ensure(p, guild.ID, category, matches[i], counter, stats)
			if err != nil {
				errs[i] = fmt.Errorf("counter %v: %w", counter.Key, err)
				return nil
			}

			resolved[i] = ch
			return nil
		})
	}

	_ = eg.Wait()

	entry := &Entry{Channels: make(map[string]*discordgo.Channel, len(r.counters))}
	if prev, ok := r.Registry.Get(guild.ID); ok {
		entry = prev.copy()
	}

	entry.CategoryID = category.ID
	for i, ch := range resolved {
		if ch != nil {
			entry.Channels[r.counters[i].Key] = ch
		}
	}
	r.Registry.Set(guild.ID, entry)

	if err := multierr.Combine(errs...); err != nil {
		log.With("error", err).Error("failed to set up counters")
		return err
	}

	log.Info("counters set up")
	return nil
}

// Update renames tracked channels whose name no longer matches the stats. Guilds that
// were never initialized are skipped, unchanged names issue no calls.
func (r *Reconciler) Update(ctx context.Context, p Platform, guild *discordgo.Guild) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, ok := r.Registry.Get(guild.ID)
	if !ok {
		return nil
	}

	stats, err := r.stats(p, guild.ID)
	if err != nil {
		return err
	}

	var (
		eg      errgroup.Group
		updated = make([]*discordgo.Channel, len(r.counters))
		missing = make([]bool, len(r.counters))
		errs    = make([]error, len(r.counters))
	)

	for i, counter := range r.counters {
		ch, ok := entry.Channels[counter.Key]
		if !ok || ch == nil {
			continue
		}

		i, counter := i, counter
		eg.Go(func() error {
			edited, err := r.rename(p, ch, counter.Format(stats[counter.Key]))
			if err != nil {
				missing[i] = isNotFound(err)
				errs[i] = fmt.Errorf("counter %v: %w", counter.Key, err)
				return nil
			}

			updated[i] = edited
			return nil
		})
	}

	_ = eg.Wait()

	var (
		next    = entry.copy()
		changed bool
	)

	for i, counter := range r.counters {
		switch {
		case missing[i]:
			// Deleted by hand, setup-stats will recreate it.
			r.log.With("guild_id", guild.ID, "key", counter.Key).Warn("counter channel no longer exists")
			delete(next.Channels, counter.Key)
			changed = true
		case updated[i] != nil && updated[i] != entry.Channels[counter.Key]:
			next.Channels[counter.Key] = updated[i]
			changed = true
		}
	}

	if changed {
		r.Registry.Replace(guild.ID, next)
	}

	return multierr.Combine(errs...)
}

// Remove deletes every channel under the stats category whose name contains a counter label,
// whether or not it is tracked. The category is kept. The registry entry is always dropped.
func (r *Reconciler) Remove(ctx context.Context, p Platform, guild *discordgo.Guild) error {
	defer r.metrics.DeleteGuild(guild.ID)
	defer r.Registry.Delete(guild.ID)

	if err := ctx.Err(); err != nil {
		return err
	}

	log := r.log.With("guild_id", guild.ID, "guild", guild.Name)

	channels, err := r.channels(p, guild.ID)
	if err != nil {
		return err
	}

	category := findCategory(channels, r.category)
	if category == nil {
		log.Infof("category %q not found, nothing to remove", r.category)
		return nil
	}

	var (
		errs    error
		deleted int
	)

	for _, ch := range channels {
		if ch.ParentID != category.ID || !r.isCounter(ch.Name) {
			continue
		}

		if _, err := p.ChannelDelete(ch.ID); err != nil {
			r.metrics.IncrementFailure(metrics.OperationDelete)
			errs = multierr.Append(errs, fmt.Errorf("failed to delete channel %v: %w", ch.ID, err))
			continue
		}

		r.metrics.IncrementOperation(metrics.OperationDelete)
		deleted++
	}

	if errs != nil {
		log.With("error", errs).Error("failed to remove counters")
		return errs
	}

	log.Infof("removed %v counter channels", deleted)
	return nil
}

// UpdateAll updates every target concurrently and waits for all of them.
// Failures are logged per guild and combined into the returned error.
func (r *Reconciler) UpdateAll(ctx context.Context, targets []Target) error {
	var (
		eg   errgroup.Group
		errs = make([]error, len(targets))
	)

	for i, target := range targets {
		i, target := i, target
		eg.Go(func() error {
			if err := r.Update(ctx, target.Platform, target.Guild); err != nil {
				r.log.With("guild_id", target.Guild.ID, "error", err).Warn("failed to update counters")
				errs[i] = fmt.Errorf("guild %v: %w", target.Guild.ID, err)
			}

			return nil
		})
	}

	_ = eg.Wait()
	return multierr.Combine(errs...)
}

// ensure renames existing to the counter's name, or creates the channel when existing is nil.
func (r *Reconciler) ensure(
	p Platform, guildID string, category *discordgo.Channel,
	existing *discordgo.Channel, counter *config.Counter, stats Stats,
) (*discordgo.Channel, error) {
	name := counter.Format(stats[counter.Key])

	if existing != nil {
		return r.rename(p, existing, name)
	}

	ch, err := p.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: category.ID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// @everyone role ID equals guild ID.
				ID:   guildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionVoiceConnect,
			},
		},
	})
	if err != nil {
		r.metrics.IncrementFailure(metrics.OperationCreate)
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	r.metrics.IncrementOperation(metrics.OperationCreate)
	r.log.With("guild_id", guildID, "channel_id", ch.ID).Infof("created counter channel %q", name)
	return ch, nil
}

// rename returns ch untouched when it already carries name.
func (r *Reconciler) rename(p Platform, ch *discordgo.Channel, name string) (*discordgo.Channel, error) {
	if ch.Name == name {
		return ch, nil
	}

	edited, err := p.ChannelEdit(ch.ID, name)
	if err != nil {
		r.metrics.IncrementFailure(metrics.OperationRename)
		return nil, fmt.Errorf("failed to rename channel %v: %w", ch.ID, err)
	}

	r.metrics.IncrementOperation(metrics.OperationRename)
	return edited, nil
}

func (r *Reconciler) stats(p Platform, guildID string) (Stats, error) {
	members, err := FetchMembers(p, guildID)
	if err != nil {
		return nil, err
	}

	stats := Count(members)
	for _, counter := range r.counters {
		r.metrics.SetStat(guildID, counter.Key, stats[counter.Key])
	}

	return stats, nil
}

// channels returns guild channels ordered by position, then ID.
func (r *Reconciler) channels(p Platform, guildID string) ([]*discordgo.Channel, error) {
	channels, err := p.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channels: %w", err)
	}

	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].Position != channels[j].Position {
			return channels[i].Position < channels[j].Position
		}

		return channels[i].ID < channels[j].ID
	})

	return channels, nil
}

func (r *Reconciler) isCounter(name string) bool {
	for _, counter := range r.counters {
		if label := counter.Label(); label != "" && strings.Contains(name, label) {
			return true
		}
	}

	return false
}

func findCategory(channels []*discordgo.Channel, name string) *discordgo.Channel {
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == name {
			return ch
		}
	}

	return nil
}

// claim matches counters to existing channels, indexed like r.counters. Counters with
// longer prefixes pick first and a channel is claimed by one counter at most, so
// overlapping prefixes never share a channel.
func (r *Reconciler) claim(channels []*discordgo.Channel, categoryID string) []*discordgo.Channel {
	order := make([]int, len(r.counters))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		return len(r.counters[order[i]].Prefix()) > len(r.counters[order[j]].Prefix())
	})

	var (
		matches = make([]*discordgo.Channel, len(r.counters))
		claimed = make(map[string]struct{})
	)

	for _, i := range order {
		if ch := findCounter(channels, categoryID, r.counters[i].Prefix(), claimed); ch != nil {
			matches[i] = ch
			claimed[ch.ID] = struct{}{}
		}
	}

	return matches
}

// findCounter returns the first unclaimed voice channel under the category starting with prefix.
// Duplicates are not merged, the first one wins.
func findCounter(channels []*discordgo.Channel, categoryID, prefix string, claimed map[string]struct{}) *discordgo.Channel {
	for _, ch := range channels {
		if ch.ParentID != categoryID || ch.Type != discordgo.ChannelTypeGuildVoice || !strings.HasPrefix(ch.Name, prefix) {
			continue
		}

		if _, ok := claimed[ch.ID]; ok {
			continue
		}

		return ch
	}

	return nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
