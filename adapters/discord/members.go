package discordbot

import (
	"context"

	"github.com/PaulFidika/vipbridge/core"
	"github.com/bwmarrin/discordgo"
)

// memberAPI is the part of *discordgo.Session the member client uses.
type memberAPI interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Members implements core.MemberClient over the Discord REST API. Every
// Member call goes to the API; the gateway state cache is never consulted.
type Members struct {
	api memberAPI
}

var _ core.MemberClient = (*Members)(nil)

func NewMembers(api memberAPI) *Members { return &Members{api: api} }

func (m *Members) Member(ctx context.Context, guildID, userID string) (core.Member, error) {
	gm, err := m.api.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return core.Member{}, err
	}
	return toMember(gm), nil
}

func (m *Members) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.api.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func toMember(gm *discordgo.Member) core.Member {
	out := core.Member{DisplayName: displayName(gm), Roles: append([]string(nil), gm.Roles...)}
	if gm.User != nil {
		out.UserID = gm.User.ID
	}
	return out
}

// displayName resolves what the guild shows: nickname, then global name, then username.
func displayName(gm *discordgo.Member) string {
	if gm.Nick != "" {
		return gm.Nick
	}
	if gm.User == nil {
		return ""
	}
	if gm.User.GlobalName != "" {
		return gm.User.GlobalName
	}
	return gm.User.Username
}
