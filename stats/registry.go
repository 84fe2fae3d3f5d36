package stats

import (
	"github.com/bwmarrin/discordgo"
	cache "github.com/patrickmn/go-cache"
)

// Entry is what the bot knows about one guild's counters. Treat it as read-only,
// store a modified copy instead.
type Entry struct {
	CategoryID string
	Channels   map[string]*discordgo.Channel
}

func (e *Entry) copy() *Entry {
	cp := &Entry{
		CategoryID: e.CategoryID,
		Channels:   make(map[string]*discordgo.Channel, len(e.Channels)),
	}

	for key, ch := range e.Channels {
		cp.Channels[key] = ch
	}

	return cp
}

// Registry caches counter channels per guild. Discord stays authoritative,
// the registry only remembers what was already created or found.
type Registry struct {
	cache *cache.Cache
}

func NewRegistry() *Registry {
	return &Registry{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *Registry) Get(guildID string) (*Entry, bool) {
	v, ok := r.cache.Get(guildID)
	if !ok {
		return nil, false
	}

	return v.(*Entry), true
}

func (r *Registry) Set(guildID string, entry *Entry) {
	r.cache.Set(guildID, entry, cache.NoExpiration)
}

// Replace stores entry only if guildID is still registered.
func (r *Registry) Replace(guildID string, entry *Entry) bool {
	return r.cache.Replace(guildID, entry, cache.NoExpiration) == nil
}

func (r *Registry) Delete(guildID string) {
	r.cache.Delete(guildID)
}

func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Clear drops every entry.
func (r *Registry) Clear() {
	r.cache.Flush()
}
