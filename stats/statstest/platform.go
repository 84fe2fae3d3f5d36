// Package statstest provides an in-memory Discord guild for testing counters.
package statstest

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/bwmarrin/discordgo"
)

var ErrUnavailable = errors.New("discord is unavailable")

// Platform fakes the Discord calls of a single guild. Failure fields make the
// corresponding call fail. Calls are counted per kind.
type Platform struct {
	mu sync.Mutex

	GuildID     string
	Permissions int64
	Channels    []*discordgo.Channel
	Members     []*discordgo.Member
	Roles       []*discordgo.Role

	FailPermissions error
	FailChannels    error
	FailMembers     error
	FailCreate      error
	FailRename      map[string]error
	FailDelete      map[string]error
	FailRoleAdd     error

	Creates     int
	Renames     int
	Deletes     int
	MemberCalls int
	RoleGrants  []string

	AppID      string
	Responses  []*discordgo.InteractionResponse
	Edits      []*discordgo.WebhookEdit
	EditAppIDs []string

	nextID int
}

func New(guildID string, perms int64) *Platform {
	return &Platform{GuildID: guildID, Permissions: perms, AppID: "app", nextID: 1000}
}

// AddMembers appends humans and bots with sequential IDs.
func (p *Platform) AddMembers(humans, bots int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < humans+bots; i++ {
		p.Members = append(p.Members, &discordgo.Member{
			GuildID: p.GuildID,
			User: &discordgo.User{
				ID:  strconv.Itoa(len(p.Members) + 1),
				Bot: i >= humans,
			},
		})
	}
}

// AddChannel adds a channel and returns its ID.
func (p *Platform) AddChannel(name string, typ discordgo.ChannelType, parentID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.addChannel(name, typ, parentID).ID
}

func (p *Platform) addChannel(name string, typ discordgo.ChannelType, parentID string) *discordgo.Channel {
	p.nextID++
	ch := &discordgo.Channel{
		ID:       strconv.Itoa(p.nextID),
		GuildID:  p.GuildID,
		Name:     name,
		Type:     typ,
		ParentID: parentID,
		Position: len(p.Channels),
	}

	p.Channels = append(p.Channels, ch)
	return ch
}

// Channel returns a copy of the channel with id.
func (p *Platform) Channel(id string) (*discordgo.Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ch := range p.Channels {
		if ch.ID == id {
			cp := *ch
			return &cp, true
		}
	}

	return nil, false
}

// Children returns copies of channels parented to id.
func (p *Platform) Children(id string) []*discordgo.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()

	var children []*discordgo.Channel
	for _, ch := range p.Channels {
		if ch.ParentID == id {
			cp := *ch
			children = append(children, &cp)
		}
	}

	return children
}

func (p *Platform) Calls() (creates, renames, deletes int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.Creates, p.Renames, p.Deletes
}

func (p *Platform) BotPermissions(string) (int64, error) {
	if p.FailPermissions != nil {
		return 0, p.FailPermissions
	}

	return p.Permissions, nil
}

func (p *Platform) GuildChannels(string) ([]*discordgo.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailChannels != nil {
		return nil, p.FailChannels
	}

	channels := make([]*discordgo.Channel, 0, len(p.Channels))
	for _, ch := range p.Channels {
		cp := *ch
		channels = append(channels, &cp)
	}

	return channels, nil
}

func (p *Platform) GuildChannelCreateComplex(_ string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailCreate != nil {
		return nil, p.FailCreate
	}

	p.Creates++
	ch := p.addChannel(data.Name, data.Type, data.ParentID)
	ch.PermissionOverwrites = data.PermissionOverwrites

	cp := *ch
	return &cp, nil
}

func (p *Platform) ChannelEdit(channelID, name string) (*discordgo.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.FailRename[channelID]; err != nil {
		return nil, err
	}

	for _, ch := range p.Channels {
		if ch.ID == channelID {
			p.Renames++
			ch.Name = name

			cp := *ch
			return &cp, nil
		}
	}

	return nil, notFound()
}

func (p *Platform) ChannelDelete(channelID string) (*discordgo.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.FailDelete[channelID]; err != nil {
		return nil, err
	}

	for i, ch := range p.Channels {
		if ch.ID == channelID {
			p.Deletes++
			p.Channels = append(p.Channels[:i], p.Channels[i+1:]...)
			return ch, nil
		}
	}

	return nil, notFound()
}

func (p *Platform) GuildMembers(_ string, after string, limit int) ([]*discordgo.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.MemberCalls++
	if p.FailMembers != nil {
		return nil, p.FailMembers
	}

	start := 0
	if after != "" {
		for i, m := range p.Members {
			if m.User.ID == after {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(p.Members) {
		end = len(p.Members)
	}

	return p.Members[start:end], nil
}

func (p *Platform) Guild(guildID string) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, Name: "Test guild", Roles: p.Roles}, nil
}

func (p *Platform) Role(_ string, roleID string) (*discordgo.Role, error) {
	for _, role := range p.Roles {
		if role.ID == roleID {
			return role, nil
		}
	}

	return nil, notFound()
}

func (p *Platform) GuildMemberRoleAdd(_, userID, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailRoleAdd != nil {
		return p.FailRoleAdd
	}

	p.RoleGrants = append(p.RoleGrants, userID+":"+roleID)
	return nil
}

func (p *Platform) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Responses = append(p.Responses, resp)
	return nil
}

func (p *Platform) InteractionResponseEdit(appID string, _ *discordgo.Interaction, edit *discordgo.WebhookEdit) (*discordgo.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Edits = append(p.Edits, edit)
	p.EditAppIDs = append(p.EditAppIDs, appID)
	return &discordgo.Message{Embeds: edit.Embeds}, nil
}

func (p *Platform) ApplicationID() string {
	return p.AppID
}

func notFound() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel, Message: "Unknown Channel"},
	}
}
