package stats

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	KeyMembers = "MEMBERS"
	KeyBots    = "BOTS"
	KeyTotal   = "TOTAL"
)

// membersPageSize is the largest page Discord returns from the list members endpoint.
const membersPageSize = 1000

// Stats maps counter keys to values. Missing keys read as 0.
type Stats map[string]int

// Count splits members into humans and bots.
func Count(members []*discordgo.Member) Stats {
	var humans, bots int
	for _, m := range members {
		if m == nil || m.User == nil {
			continue
		}

		if m.User.Bot {
			bots++
		} else {
			humans++
		}
	}

	return Stats{
		KeyMembers: humans,
		KeyBots:    bots,
		KeyTotal:   humans + bots,
	}
}

// FetchMembers pages through every member of the guild.
func FetchMembers(p Platform, guildID string) ([]*discordgo.Member, error) {
	var (
		all   []*discordgo.Member
		after string
	)

	for {
		page, err := p.GuildMembers(guildID, after, membersPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch members: %w", err)
		}

		all = append(all, page...)
		if len(page) < membersPageSize {
			return all, nil
		}

		last := page[len(page)-1]
		if last.User == nil {
			return all, nil
		}
		after = last.User.ID
	}
}
