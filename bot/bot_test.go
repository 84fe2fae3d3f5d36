package bot

import (
	"context"
	"testing"
	"time"

	"github.com/VTGare/member-counter/internal/config"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBot() *Bot {
	cfg := config.Default()
	cfg.Discord.Token = "token"
	cfg.Stats.UpdateInterval = 5

	return New(cfg, zap.NewNop().Sugar())
}

func TestApplicationID(t *testing.T) {
	b := newBot()
	defer b.Close()

	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: "bot"}
	assert.Equal(t, "bot", b.Session(s).ApplicationID())

	b.Config.Discord.ApplicationID = "app"
	assert.Equal(t, "app", b.Session(s).ApplicationID())
}

func TestWithoutShardManager(t *testing.T) {
	b := newBot()

	assert.Empty(t, b.Targets())
	assert.ErrorIs(t, b.Open(), ErrNoShardManager)
	assert.NoError(t, b.Close())
}

func TestUpdatesRun(t *testing.T) {
	b := newBot()

	b.StartUpdates()
	require.True(t, b.Scheduler.Running())
	assert.Eventually(t, func() bool {
		return b.Metrics.Ticks() > 0
	}, time.Second, time.Millisecond)

	require.NoError(t, b.Close())
	assert.False(t, b.Scheduler.Running())
	assert.ErrorIs(t, b.Context().Err(), context.Canceled)
}
