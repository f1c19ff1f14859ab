// Package testing provides an in-memory chat guild for exercising the role
// grant workflow without a chat-platform connection.
//
// Example usage:
//
//	g := testing.NewGuild("guild-1")
//	g.AddMember("42", "PlayerOne (@roblox_user1)", "verified-role")
//	svc, _ := core.NewService(cfg, g, store)
//	reply := svc.GrantRole(ctx, core.Request{UserID: "42"})
//	g.HasRole("42", cfg.VIPRoleID) // true when granted
package testing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/PaulFidika/vipbridge/core"
)

// ErrUnknownMember is returned for members that were never added.
var ErrUnknownMember = errors.New("unknown member")

// Guild is a mutable in-memory guild implementing core.MemberClient.
type Guild struct {
	id string
	mu sync.Mutex

	members map[string]*core.Member

	// FetchErr and AddRoleErr, when set, are returned by the matching calls.
	FetchErr   error
	AddRoleErr error

	fetches  int
	roleAdds int
}

func NewGuild(id string) *Guild {
	return &Guild{id: id, members: make(map[string]*core.Member)}
}

// AddMember registers a member with a display name and initial roles.
func (g *Guild) AddMember(userID, displayName string, roles ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[userID] = &core.Member{UserID: userID, DisplayName: displayName, Roles: append([]string(nil), roles...)}
}

// SetRoles replaces a member's roles, e.g. to simulate verification after a cache was taken.
func (g *Guild) SetRoles(userID string, roles ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m, ok := g.members[userID]; ok {
		m.Roles = append([]string(nil), roles...)
	}
}

func (g *Guild) Member(ctx context.Context, guildID, userID string) (core.Member, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.FetchErr != nil {
		return core.Member{}, g.FetchErr
	}
	if guildID != g.id {
		return core.Member{}, fmt.Errorf("guild %s: %w", guildID, ErrUnknownMember)
	}
	m, ok := g.members[userID]
	if !ok {
		return core.Member{}, ErrUnknownMember
	}
	out := *m
	out.Roles = append([]string(nil), m.Roles...)
	return out, nil
}

func (g *Guild) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roleAdds++
	if g.AddRoleErr != nil {
		return g.AddRoleErr
	}
	m, ok := g.members[userID]
	if !ok || guildID != g.id {
		return ErrUnknownMember
	}
	if !slices.Contains(m.Roles, roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

// HasRole reports whether the member currently holds roleID.
func (g *Guild) HasRole(userID, roleID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[userID]
	return ok && slices.Contains(m.Roles, roleID)
}

// Fetches returns how many member reads were made.
func (g *Guild) Fetches() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetches
}

// RoleAdds returns how many role mutations were attempted.
func (g *Guild) RoleAdds() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roleAdds
}
