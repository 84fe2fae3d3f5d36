package messages

import (
	"fmt"
	"strings"
)

func NoPerms() string {
	return "You must be an administrator to use this command."
}

func GuildOnly() string {
	return "This command can't be used in direct messages."
}

func SetupSuccess() string {
	return "Stats channels have been set up successfully!"
}

func SetupFailure() string {
	return "An error occurred while setting up stats channels."
}

func RemoveSuccess() string {
	return "Stats channels have been removed successfully!"
}

func RemoveFailure() string {
	return "An error occurred while removing stats channels."
}

func CategoryNotFound(name string) string {
	return fmt.Sprintf("Category `%v` wasn't found. Create it first, then run `/setup-stats` again.", name)
}

func BotPermissions() string {
	return "I need **Manage Channels**, **View Channel** and **Connect** permissions to manage stats channels."
}

// ListCounters lists counter channels as mentions.
func ListCounters(channelIDs []string) string {
	mentions := make([]string, 0, len(channelIDs))
	for _, id := range channelIDs {
		mentions = append(mentions, fmt.Sprintf("<#%v>", id))
	}

	return strings.Join(mentions, " • ")
}
