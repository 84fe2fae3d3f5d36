package stats

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("1")
	assert.False(t, ok)

	entry := &Entry{CategoryID: "c", Channels: map[string]*discordgo.Channel{KeyMembers: {ID: "10"}}}
	r.Set("1", entry)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get("1")
	require.True(t, ok)
	assert.Same(t, entry, got)

	next := got.copy()
	next.Channels[KeyMembers] = &discordgo.Channel{ID: "11"}
	assert.Equal(t, "10", got.Channels[KeyMembers].ID, "copy must not alias the stored entry")

	assert.True(t, r.Replace("1", next))
	got, _ = r.Get("1")
	assert.Equal(t, "11", got.Channels[KeyMembers].ID)

	r.Delete("1")
	assert.False(t, r.Replace("1", next), "replace must not resurrect deleted entries")
	assert.Zero(t, r.Len())

	r.Set("1", entry)
	r.Set("2", entry)
	r.Clear()
	assert.Zero(t, r.Len())
}
