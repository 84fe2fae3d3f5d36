package responses

import (
	"github.com/VTGare/embeds"
	"github.com/bwmarrin/discordgo"
)

// ephemeral is the message flag that hides a response from everyone but the invoker.
const ephemeral = 1 << 6

const errorColor = 0xde180c

// FromEmbed responds with an ephemeral message carrying embed.
func FromEmbed(embed *discordgo.MessageEmbed) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  ephemeral,
		},
	}
}

// Deferred acknowledges an interaction, the result is sent later with an edit.
func Deferred() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: ephemeral,
		},
	}
}

func Fail(message string) *discordgo.InteractionResponse {
	return FromEmbed(embeds.NewBuilder().FailureTemplate(message).Finalize())
}

// Edit replaces a deferred response with embed.
func Edit(embed *discordgo.MessageEmbed) *discordgo.WebhookEdit {
	return &discordgo.WebhookEdit{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
}

func Success(message string) *discordgo.WebhookEdit {
	return Edit(embeds.NewBuilder().SuccessTemplate(message).Finalize())
}

func Failure(message string) *discordgo.WebhookEdit {
	return Edit(embeds.NewBuilder().FailureTemplate(message).Finalize())
}

// Error is a failure the invoker can't fix by themselves.
func Error(message string) *discordgo.WebhookEdit {
	return Edit(embeds.NewBuilder().Title("🛑 Error").Description(message).Color(errorColor).Finalize())
}
