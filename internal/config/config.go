package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Placeholder is substituted with a counter's value in channel name templates.
const Placeholder = "{count}"

const (
	DefaultUpdateInterval = 30000
	DefaultCategory       = "📈 Stats"
)

var (
	ErrNoToken         = errors.New("discord token is required")
	ErrInvalidInterval = errors.New("update interval must be positive")
	ErrNoCounters      = errors.New("at least one counter is required")
)

// Config is an application configuration struct.
type Config struct {
	Discord *Discord `json:"discord"`
	Stats   *Stats   `json:"stats"`
	Metrics *Metrics `json:"metrics"`
	Sentry  string   `json:"sentry"`

	// Notices are non-fatal problems found while loading, logged once a logger exists.
	Notices []string `json:"-"`
}

// Discord stores Discord bot configuration. Acquire bot token on Discord's Developer Portal.
// ApplicationID defaults to the bot's user ID when empty.
type Discord struct {
	Token         string `json:"token"`
	ApplicationID string `json:"application_id"`
}

// Stats configures counter channels. UpdateInterval is in milliseconds.
// Category must be created manually, the bot never creates it.
type Stats struct {
	UpdateInterval int        `json:"update_interval"`
	Category       string     `json:"category"`
	RoleID         string     `json:"role_id"`
	Counters       []*Counter `json:"counters"`
}

// Counter maps a stats key to a channel name template with one {count} placeholder.
type Counter struct {
	Key      string `json:"key"`
	Template string `json:"template"`
}

// Metrics stores the prometheus listener address. Empty address disables the listener.
type Metrics struct {
	Address string `json:"address"`
}

// Prefix returns the literal part of the template before the placeholder.
func (c *Counter) Prefix() string {
	prefix, _, _ := strings.Cut(c.Template, Placeholder)
	return prefix
}

// Label is the trimmed prefix used to recognise counter channels by name.
func (c *Counter) Label() string {
	return strings.TrimSpace(c.Prefix())
}

// Format substitutes the placeholder with n.
func (c *Counter) Format(n int) string {
	return strings.Replace(c.Template, Placeholder, strconv.Itoa(n), 1)
}

func DefaultCounters() []*Counter {
	return []*Counter{
		{Key: "MEMBERS", Template: "🙋‍♂️┃membres : {count}"},
	}
}

// Default returns a configuration with every optional field set to its default.
func Default() *Config {
	return &Config{
		Discord: &Discord{},
		Stats: &Stats{
			UpdateInterval: DefaultUpdateInterval,
			Category:       DefaultCategory,
			Counters:       DefaultCounters(),
		},
		Metrics: &Metrics{},
	}
}

// Load reads the JSON file at path if it exists, then .env, then environment variables.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %v: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	// .env is optional.
	_ = godotenv.Load()

	cfg.fillDefaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DISCORD_TOKEN"); ok && v != "" {
		c.Discord.Token = v
	}

	if v, ok := lookup("DISCORD_APPLICATION_ID"); ok && v != "" {
		c.Discord.ApplicationID = v
	}

	if v, ok := lookup("UPDATE_INTERVAL"); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			ms = DefaultUpdateInterval
			c.Notices = append(c.Notices, fmt.Sprintf("invalid UPDATE_INTERVAL %q, using %vms", v, ms))
		}

		c.Stats.UpdateInterval = ms
	}

	if v, ok := lookup("STATS_CATEGORY_NAME"); ok && v != "" {
		c.Stats.Category = v
	}

	if v, ok := lookup("ROLE_ID"); ok {
		c.Stats.RoleID = v
	}

	if v, ok := lookup("METRICS_ADDRESS"); ok {
		c.Metrics.Address = v
	}

	if v, ok := lookup("SENTRY_DSN"); ok {
		c.Sentry = v
	}

	return nil
}

// fillDefaults restores sections a JSON file may have nulled out.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Discord == nil {
		c.Discord = def.Discord
	}

	if c.Stats == nil {
		c.Stats = def.Stats
	}

	if c.Metrics == nil {
		c.Metrics = def.Metrics
	}

	if c.Stats.Category == "" {
		c.Stats.Category = DefaultCategory
	}

	if len(c.Stats.Counters) == 0 {
		c.Stats.Counters = DefaultCounters()
	}
}

func (c *Config) Validate() error {
	if c.Discord == nil || c.Discord.Token == "" {
		return ErrNoToken
	}

	if c.Stats == nil || c.Stats.UpdateInterval <= 0 {
		return ErrInvalidInterval
	}

	if len(c.Stats.Counters) == 0 {
		return ErrNoCounters
	}

	keys := make(map[string]struct{}, len(c.Stats.Counters))
	for _, counter := range c.Stats.Counters {
		if counter == nil || counter.Key == "" {
			return errors.New("counter key is required")
		}

		if _, ok := keys[counter.Key]; ok {
			return fmt.Errorf("duplicate counter key %v", counter.Key)
		}
		keys[counter.Key] = struct{}{}

		if n := strings.Count(counter.Template, Placeholder); n != 1 {
			return fmt.Errorf("counter %v: template must contain exactly one %v, found %v", counter.Key, Placeholder, n)
		}

		// Counter channels are found and removed by the text before the placeholder.
		if counter.Label() == "" {
			return fmt.Errorf("counter %v: template must start with text before %v", counter.Key, Placeholder)
		}
	}

	return nil
}

// Interval returns the update interval as a duration.
func (s *Stats) Interval() time.Duration {
	return time.Duration(s.UpdateInterval) * time.Millisecond
}
