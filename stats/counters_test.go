package stats

import (
	"testing"

	"github.com/VTGare/member-counter/stats/statstest"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	member := func(bot bool) *discordgo.Member {
		return &discordgo.Member{User: &discordgo.User{Bot: bot}}
	}

	tests := []struct {
		name    string
		members []*discordgo.Member
		want    Stats
	}{
		{"empty", nil, Stats{KeyMembers: 0, KeyBots: 0, KeyTotal: 0}},
		{"only bots", []*discordgo.Member{member(true), member(true)}, Stats{KeyMembers: 0, KeyBots: 2, KeyTotal: 2}},
		{"mixed", []*discordgo.Member{member(false), member(true), member(false)}, Stats{KeyMembers: 2, KeyBots: 1, KeyTotal: 3}},
		{"member without user", []*discordgo.Member{member(false), {}}, Stats{KeyMembers: 1, KeyBots: 0, KeyTotal: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.members))
		})
	}
}

func TestCountUnknownKey(t *testing.T) {
	stats := Count(nil)
	assert.Zero(t, stats["ONLINE"])
}

func TestFetchMembersPaginates(t *testing.T) {
	p := statstest.New("1", 0)
	p.AddMembers(2300, 200)

	members, err := FetchMembers(p, "1")
	require.NoError(t, err)
	assert.Len(t, members, 2500)
	assert.Equal(t, 3, p.MemberCalls)

	stats := Count(members)
	assert.Equal(t, 2300, stats[KeyMembers])
	assert.Equal(t, 200, stats[KeyBots])
}

func TestFetchMembersExactPage(t *testing.T) {
	p := statstest.New("1", 0)
	p.AddMembers(membersPageSize, 0)

	members, err := FetchMembers(p, "1")
	require.NoError(t, err)
	assert.Len(t, members, membersPageSize)
	// A full page needs one more request to learn it was the last one.
	assert.Equal(t, 2, p.MemberCalls)
}

func TestFetchMembersError(t *testing.T) {
	p := statstest.New("1", 0)
	p.FailMembers = statstest.ErrUnavailable

	_, err := FetchMembers(p, "1")
	assert.ErrorIs(t, err, statstest.ErrUnavailable)
}
