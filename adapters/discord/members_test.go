package discordbot

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	member  *discordgo.Member
	err     error
	added   []string
	addErr  error
	fetches int
}

func (f *fakeAPI) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.fetches++
	return f.member, f.err
}

func (f *fakeAPI) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.added = append(f.added, guildID+"/"+userID+"/"+roleID)
	return f.addErr
}

func TestDisplayNamePrecedence(t *testing.T) {
	u := &discordgo.User{ID: "42", Username: "player", GlobalName: "Player One"}
	assert.Equal(t, "Nick (@roblox_user1)", displayName(&discordgo.Member{Nick: "Nick (@roblox_user1)", User: u}))
	assert.Equal(t, "Player One", displayName(&discordgo.Member{User: u}))
	assert.Equal(t, "player", displayName(&discordgo.Member{User: &discordgo.User{Username: "player"}}))
	assert.Equal(t, "", displayName(&discordgo.Member{}))
}

func TestMembersFetchesFresh(t *testing.T) {
	api := &fakeAPI{member: &discordgo.Member{
		Nick:  "PlayerOne (@roblox_user1)",
		User:  &discordgo.User{ID: "42"},
		Roles: []string{"verified-role"},
	}}
	m := NewMembers(api)

	for i := 0; i < 2; i++ {
		got, err := m.Member(context.Background(), guildID, "42")
		require.NoError(t, err)
		assert.Equal(t, "42", got.UserID)
		assert.Equal(t, "PlayerOne (@roblox_user1)", got.DisplayName)
		assert.Equal(t, []string{"verified-role"}, got.Roles)
	}
	assert.Equal(t, 2, api.fetches)
}

func TestMembersPropagatesErrors(t *testing.T) {
	api := &fakeAPI{err: errors.New("unknown member"), addErr: errors.New("missing permissions")}
	m := NewMembers(api)

	_, err := m.Member(context.Background(), guildID, "42")
	assert.Error(t, err)
	assert.Error(t, m.AddRole(context.Background(), guildID, "42", "vip-role"))
	assert.Equal(t, []string{"guild-1/42/vip-role"}, api.added)
}
