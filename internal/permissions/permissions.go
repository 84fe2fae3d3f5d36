// Package permissions computes guild-wide permissions of a member from role data,
// ignoring channel overwrites.
package permissions

import "github.com/bwmarrin/discordgo"

// Required is what the bot needs on a guild to manage counter channels.
const Required int64 = discordgo.PermissionManageChannels |
	discordgo.PermissionViewChannel |
	discordgo.PermissionVoiceConnect

// Guild returns member's guild-level permissions. Owners and administrators get every permission.
func Guild(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if guild == nil || member == nil {
		return 0
	}

	if member.User != nil && guild.OwnerID == member.User.ID {
		return discordgo.PermissionAll
	}

	roles := make(map[string]struct{}, len(member.Roles))
	for _, id := range member.Roles {
		roles[id] = struct{}{}
	}

	var perms int64
	for _, role := range guild.Roles {
		// @everyone shares its ID with the guild.
		if role.ID == guild.ID {
			perms |= role.Permissions
			continue
		}

		if _, ok := roles[role.ID]; ok {
			perms |= role.Permissions
		}
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}

	return perms
}

// Has reports whether perms include every bit of want. Administrator implies everything.
func Has(perms, want int64) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}

	return perms&want == want
}

// IsAdmin reports whether perms carry the administrator bit.
func IsAdmin(perms int64) bool {
	return perms&discordgo.PermissionAdministrator != 0
}
