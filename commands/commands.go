package commands

import (
	"context"
	"errors"
	"sort"

	"github.com/VTGare/member-counter/bot"
	"github.com/VTGare/member-counter/internal/permissions"
	"github.com/VTGare/member-counter/messages"
	"github.com/VTGare/member-counter/responses"
	"github.com/VTGare/member-counter/stats"
	"github.com/bwmarrin/discordgo"
)

// Session is the subset of a Discord session commands are executed with.
type Session interface {
	stats.Platform
	Guild(guildID string) (*discordgo.Guild, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse) error
	InteractionResponseEdit(appID string, interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit) (*discordgo.Message, error)
	ApplicationID() string
}

type Command struct {
	ApplicationCommand *discordgo.ApplicationCommand
	Handler            HandlerFn
}

// HandlerFn runs a command after it's been deferred. The returned edit replaces the deferred response.
type HandlerFn func(ctx context.Context, b *bot.Bot, s Session, guild *discordgo.Guild) *discordgo.WebhookEdit

var cmds = map[string]*Command{
	"setup-stats": {
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "setup-stats",
			Description: "Create or refresh member counter channels.",
		},
		Handler: setupStats,
	},
	"remove-stats": {
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "remove-stats",
			Description: "Delete member counter channels.",
		},
		Handler: removeStats,
	},
}

// ApplicationCommands returns definitions of all commands sorted by name.
func ApplicationCommands() []*discordgo.ApplicationCommand {
	data := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		data = append(data, cmd.ApplicationCommand)
	}

	sort.Slice(data, func(i, j int) bool {
		return data[i].Name < data[j].Name
	})

	return data
}

// Register overwrites global application commands.
func Register(b *bot.Bot, s *discordgo.Session) error {
	created, err := s.ApplicationCommandBulkOverwrite(b.Session(s).ApplicationID(), "", ApplicationCommands())
	if err != nil {
		return err
	}

	b.Log.Infof("registered %v application commands", len(created))
	return nil
}

// Handle executes a slash command. Non-admins and DMs are answered right away,
// everything else is deferred since channel operations may take a while.
func Handle(b *bot.Bot, s Session, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	cmd, ok := cmds[data.Name]
	if !ok {
		return
	}

	log := b.Log.With("command", data.Name, "guild_id", i.GuildID)
	respond := func(resp *discordgo.InteractionResponse) {
		if err := s.InteractionRespond(i, resp); err != nil {
			log.With("error", err).Warn("failed to respond to an interaction")
		}
	}

	if i.GuildID == "" || i.Member == nil {
		respond(responses.Fail(messages.GuildOnly()))
		return
	}

	if !permissions.IsAdmin(i.Member.Permissions) {
		respond(responses.Fail(messages.NoPerms()))
		return
	}

	if err := s.InteractionRespond(i, responses.Deferred()); err != nil {
		log.With("error", err).Warn("failed to defer an interaction")
		return
	}

	guild, err := s.Guild(i.GuildID)
	if err != nil {
		log.With("error", err).Debug("failed to get guild, falling back to ID")
		guild = &discordgo.Guild{ID: i.GuildID}
	}

	log.Infof("executing command. User: %v", i.Member.User)
	edit := cmd.Handler(b.Context(), b, s, guild)
	if _, err := s.InteractionResponseEdit(s.ApplicationID(), i, edit); err != nil {
		log.With("error", err).Warn("failed to edit an interaction response")
	}
}

func setupStats(ctx context.Context, b *bot.Bot, s Session, guild *discordgo.Guild) *discordgo.WebhookEdit {
	err := b.Reconciler.Initialize(ctx, s, guild)
	switch {
	case errors.Is(err, stats.ErrCategoryNotFound):
		return responses.Failure(messages.CategoryNotFound(b.Config.Stats.Category))
	case errors.Is(err, stats.ErrInsufficientPermissions):
		return responses.Failure(messages.BotPermissions())
	case err != nil:
		b.Log.With("guild_id", guild.ID, "error", err).Error("failed to set up counters")

		// Counters that succeeded are still registered.
		if _, ok := b.Registry.Get(guild.ID); !ok {
			return responses.Error(messages.SetupFailure())
		}

		return responses.Failure(messages.SetupFailure() + "\n" + messages.ListCounters(counterIDs(b, guild.ID)))
	}

	return responses.Success(messages.SetupSuccess() + "\n" + messages.ListCounters(counterIDs(b, guild.ID)))
}

func removeStats(ctx context.Context, b *bot.Bot, s Session, guild *discordgo.Guild) *discordgo.WebhookEdit {
	if err := b.Reconciler.Remove(ctx, s, guild); err != nil {
		b.Log.With("guild_id", guild.ID, "error", err).Error("failed to remove counters")
		return responses.Error(messages.RemoveFailure())
	}

	return responses.Success(messages.RemoveSuccess())
}

// counterIDs returns registered counter channel IDs in configured counter order.
func counterIDs(b *bot.Bot, guildID string) []string {
	entry, ok := b.Registry.Get(guildID)
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(entry.Channels))
	for _, counter := range b.Config.Stats.Counters {
		if ch, ok := entry.Channels[counter.Key]; ok {
			ids = append(ids, ch.ID)
		}
	}

	return ids
}
