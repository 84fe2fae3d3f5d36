package stats

import "github.com/bwmarrin/discordgo"

// Platform is the subset of Discord calls the reconciler issues.
// *gateway.Session implements it on top of a discordgo session.
type Platform interface {
	BotPermissions(guildID string) (int64, error)
	GuildChannels(guildID string) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	ChannelEdit(channelID, name string) (*discordgo.Channel, error)
	ChannelDelete(channelID string) (*discordgo.Channel, error)
	GuildMembers(guildID, after string, limit int) ([]*discordgo.Member, error)
}

// Target pairs a guild with the session of the shard it belongs to.
type Target struct {
	Platform Platform
	Guild    *discordgo.Guild
}
