// Package gateway adapts a discordgo session to the interfaces the stats and command packages consume.
package gateway

import (
	"errors"
	"fmt"

	"github.com/VTGare/member-counter/internal/permissions"
	"github.com/bwmarrin/discordgo"
)

var ErrRoleNotFound = errors.New("role not found")

// Session is a discordgo session with state-first lookups the bot needs.
type Session struct {
	*discordgo.Session

	applicationID string
}

// Wrap wraps s. An empty applicationID falls back to the bot user's ID.
func Wrap(s *discordgo.Session, applicationID string) *Session {
	return &Session{Session: s, applicationID: applicationID}
}

// ApplicationID returns the ID interactions and application commands belong to.
func (s *Session) ApplicationID() string {
	if s.applicationID != "" {
		return s.applicationID
	}

	return s.State.User.ID
}

// BotPermissions returns guild-level permissions of the bot user.
// State is used when populated, REST otherwise.
func (s *Session) BotPermissions(guildID string) (int64, error) {
	guild, err := s.State.Guild(guildID)
	if err != nil || len(guild.Roles) == 0 {
		guild, err = s.Session.Guild(guildID)
		if err != nil {
			return 0, fmt.Errorf("failed to get guild: %w", err)
		}
	}

	userID := s.State.User.ID
	member, err := s.State.Member(guildID, userID)
	if err != nil {
		member, err = s.GuildMember(guildID, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to get bot member: %w", err)
		}
	}

	return permissions.Guild(guild, member), nil
}

// Guild returns the guild from state when available.
func (s *Session) Guild(guildID string) (*discordgo.Guild, error) {
	if guild, err := s.State.Guild(guildID); err == nil && !guild.Unavailable {
		return guild, nil
	}

	return s.Session.Guild(guildID)
}

// Role looks a role up in state, then falls back to listing guild roles.
func (s *Session) Role(guildID, roleID string) (*discordgo.Role, error) {
	if role, err := s.State.Role(guildID, roleID); err == nil {
		return role, nil
	}

	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild roles: %w", err)
	}

	for _, role := range roles {
		if role.ID == roleID {
			return role, nil
		}
	}

	return nil, ErrRoleNotFound
}
