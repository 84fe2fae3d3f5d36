package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterFormat(t *testing.T) {
	tests := []struct {
		name       string
		template   string
		count      int
		wantName   string
		wantPrefix string
		wantLabel  string
	}{
		{"members", "members: {count}", 8, "members: 8", "members: ", "members:"},
		{"default template", "🙋‍♂️┃membres : {count}", 120, "🙋‍♂️┃membres : 120", "🙋‍♂️┃membres : ", "🙋‍♂️┃membres :"},
		{"placeholder first", "{count} online", 0, "0 online", "", ""},
		{"suffix kept", "bots [{count}]", 3, "bots [3]", "bots [", "bots ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Counter{Key: "MEMBERS", Template: tt.template}
			assert.Equal(t, tt.wantName, c.Format(tt.count))
			assert.Equal(t, tt.wantPrefix, c.Prefix())
			assert.Equal(t, tt.wantLabel, c.Label())
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Discord.Token = "token"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults with token", func(*Config) {}, nil},
		{"no token", func(c *Config) { c.Discord.Token = "" }, ErrNoToken},
		{"zero interval", func(c *Config) { c.Stats.UpdateInterval = 0 }, ErrInvalidInterval},
		{"no counters", func(c *Config) { c.Stats.Counters = nil }, ErrNoCounters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing placeholder", func(t *testing.T) {
		cfg := valid()
		cfg.Stats.Counters = []*Counter{{Key: "MEMBERS", Template: "members"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("no text before placeholder", func(t *testing.T) {
		cfg := valid()
		cfg.Stats.Counters = []*Counter{
			{Key: "MEMBERS", Template: "{count} members"},
			{Key: "BOTS", Template: " {count} bots"},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("duplicate key", func(t *testing.T) {
		cfg := valid()
		cfg.Stats.Counters = []*Counter{
			{Key: "MEMBERS", Template: "a {count}"},
			{Key: "MEMBERS", Template: "b {count}"},
		}
		assert.Error(t, cfg.Validate())
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DISCORD_TOKEN":       "env-token",
		"UPDATE_INTERVAL":     "5000",
		"STATS_CATEGORY_NAME": "Counters",
		"ROLE_ID":             "42",
		"METRICS_ADDRESS":     ":9100",
	}

	cfg := Default()
	err := cfg.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, 5*time.Second, cfg.Stats.Interval())
	assert.Equal(t, "Counters", cfg.Stats.Category)
	assert.Equal(t, "42", cfg.Stats.RoleID)
	assert.Equal(t, ":9100", cfg.Metrics.Address)

	assert.Empty(t, cfg.Notices)
}

func TestApplyEnvInvalidInterval(t *testing.T) {
	for _, value := range []string{"soon", "0", "-5"} {
		t.Run(value, func(t *testing.T) {
			cfg := Default()
			cfg.Stats.UpdateInterval = 5000

			err := cfg.applyEnv(func(key string) (string, bool) {
				if key == "UPDATE_INTERVAL" {
					return value, true
				}
				return "", false
			})
			require.NoError(t, err)

			assert.Equal(t, DefaultUpdateInterval, cfg.Stats.UpdateInterval)
			assert.Len(t, cfg.Notices, 1)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"discord": {"token": "file-token"},
		"stats": {
			"update_interval": 60000,
			"counters": [{"key": "BOTS", "template": "bots: {count}"}]
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Discord.Token)
	assert.Equal(t, time.Minute, cfg.Stats.Interval())
	assert.Equal(t, DefaultCategory, cfg.Stats.Category)
	require.Len(t, cfg.Stats.Counters, 1)
	assert.Equal(t, "BOTS", cfg.Stats.Counters[0].Key)
	assert.NotNil(t, cfg.Metrics)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Discord.Token)
	assert.Equal(t, DefaultUpdateInterval, cfg.Stats.UpdateInterval)
	assert.Equal(t, DefaultCounters(), cfg.Stats.Counters)
}
