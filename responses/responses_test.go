package responses

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponsesAreEphemeral(t *testing.T) {
	tests := []struct {
		name string
		resp *discordgo.InteractionResponse
		typ  discordgo.InteractionResponseType
	}{
		{"deferred", Deferred(), discordgo.InteractionResponseDeferredChannelMessageWithSource},
		{"fail", Fail("nope"), discordgo.InteractionResponseChannelMessageWithSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.resp.Type)
			require.NotNil(t, tt.resp.Data)
			assert.EqualValues(t, ephemeral, tt.resp.Data.Flags)
		})
	}
}

func TestEdits(t *testing.T) {
	for name, edit := range map[string]*discordgo.WebhookEdit{
		"success": Success("message"),
		"failure": Failure("message"),
		"error":   Error("message"),
	} {
		t.Run(name, func(t *testing.T) {
			require.Len(t, edit.Embeds, 1)
			assert.Equal(t, "message", edit.Embeds[0].Description)
			assert.NotEmpty(t, edit.Embeds[0].Title)
		})
	}
}
