package handlers

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/VTGare/member-counter/bot"
	"github.com/VTGare/member-counter/commands"
	"github.com/VTGare/member-counter/stats"
	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"
)

// Session is what gateway events are handled with.
type Session interface {
	commands.Session
	Role(guildID, roleID string) (*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string) error
}

func All(b *bot.Bot) []interface{} {
	return []interface{}{
		OnReady(b), OnGuildCreate(b), OnGuildDelete(b),
		OnGuildMemberAdd(b), OnGuildMemberRemove(b), OnInteractionCreate(b),
	}
}

func OnReady(b *bot.Bot) func(*discordgo.Session, *discordgo.Ready) {
	return func(s *discordgo.Session, r *discordgo.Ready) {
		defer recoverPanic(b, "ready")

		b.Log.Infof("%v is online. Session ID: %v. Shard: %v. Guilds: %v", r.User.String(), r.SessionID, s.ShardID, len(r.Guilds))

		ready(b, b.Session(s), r.Guilds)
		b.StartUpdates()

		// Commands are global, one shard is enough.
		if s.ShardID == 0 {
			if err := commands.Register(b, s); err != nil {
				b.Log.With("error", err).Error("failed to register application commands")
			}
		}
	}
}

func OnGuildCreate(b *bot.Bot) func(*discordgo.Session, *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		defer recoverPanic(b, "guild create")
		guildCreated(b, b.Session(s), g.Guild)
	}
}

func OnGuildDelete(b *bot.Bot) func(*discordgo.Session, *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		defer recoverPanic(b, "guild delete")
		guildDeleted(b, g.Guild)
	}
}

func OnGuildMemberAdd(b *bot.Bot) func(*discordgo.Session, *discordgo.GuildMemberAdd) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		defer recoverPanic(b, "member add")
		memberJoined(b, b.Session(s), m.Member)
	}
}

func OnGuildMemberRemove(b *bot.Bot) func(*discordgo.Session, *discordgo.GuildMemberRemove) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
		defer recoverPanic(b, "member remove")
		memberLeft(b, b.Session(s), m.GuildID)
	}
}

func OnInteractionCreate(b *bot.Bot) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		defer recoverPanic(b, "interaction")
		interaction(b, b.Session(s), i.Interaction)
	}
}

// ready initializes every guild of a fresh session concurrently. The guilds are
// marked so the GuildCreate events that follow Ready don't initialize them twice.
func ready(b *bot.Bot, s Session, guilds []*discordgo.Guild) {
	for _, guild := range guilds {
		b.ReadyGuilds.Set(guild.ID, struct{}{})
	}

	var eg errgroup.Group
	for _, guild := range guilds {
		guild := guild
		eg.Go(func() error {
			initialize(b, s, guild)
			return nil
		})
	}

	_ = eg.Wait()
}

func guildCreated(b *bot.Bot, s Session, guild *discordgo.Guild) {
	if guild.Unavailable {
		return
	}

	if _, ok := b.ReadyGuilds.Get(guild.ID); ok {
		b.ReadyGuilds.Remove(guild.ID)
		return
	}

	b.Log.With("guild_id", guild.ID).Infof("joined a guild. Name: %v", guild.Name)
	initialize(b, s, guild)
}

func guildDeleted(b *bot.Bot, guild *discordgo.Guild) {
	// Outages only make a guild unavailable.
	if guild.Unavailable {
		return
	}

	b.Log.With("guild_id", guild.ID).Info("left a guild")
	b.Registry.Delete(guild.ID)
	b.Metrics.DeleteGuild(guild.ID)
	b.ReadyGuilds.Remove(guild.ID)
}

func memberJoined(b *bot.Bot, s Session, m *discordgo.Member) {
	if roleID := b.Config.Stats.RoleID; roleID != "" && m.User != nil {
		if err := grantRole(s, m.GuildID, m.User.ID, roleID); err != nil {
			b.Log.With("guild_id", m.GuildID, "user_id", m.User.ID, "error", err).Warn("failed to grant a role")
		}
	}

	update(b, s, m.GuildID)
}

func memberLeft(b *bot.Bot, s Session, guildID string) {
	update(b, s, guildID)
}

func interaction(b *bot.Bot, s Session, i *discordgo.Interaction) {
	commands.Handle(b, s, i)
}

// recoverPanic keeps a failing handler from taking the process down. Must be deferred.
func recoverPanic(b *bot.Bot, event string) {
	if r := recover(); r != nil {
		b.Log.With("event", event).Errorf("recovered from panic: %v\n%s", r, debug.Stack())
	}
}

func grantRole(s Session, guildID, userID, roleID string) error {
	role, err := s.Role(guildID, roleID)
	if err != nil {
		return fmt.Errorf("role %v: %w", roleID, err)
	}

	return s.GuildMemberRoleAdd(guildID, userID, role.ID)
}

func initialize(b *bot.Bot, s Session, guild *discordgo.Guild) {
	if guild.Name == "" {
		if g, err := s.Guild(guild.ID); err == nil {
			guild = g
		}
	}

	err := b.Reconciler.Initialize(b.Context(), s, guild)
	switch {
	case err == nil:
	case errors.Is(err, stats.ErrCategoryNotFound), errors.Is(err, stats.ErrInsufficientPermissions):
		b.Log.With("guild_id", guild.ID).Debugf("counters are not set up: %v", err)
	default:
		b.Log.With("guild_id", guild.ID, "error", err).Warn("failed to initialize counters")
	}
}

func update(b *bot.Bot, s Session, guildID string) {
	if _, ok := b.Registry.Get(guildID); !ok {
		return
	}

	guild, err := s.Guild(guildID)
	if err != nil {
		guild = &discordgo.Guild{ID: guildID}
	}

	if err := b.Reconciler.Update(b.Context(), s, guild); err != nil {
		b.Log.With("guild_id", guildID, "error", err).Warn("failed to update counters")
	}
}
