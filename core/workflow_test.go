package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/PaulFidika/vipbridge/core"
	"github.com/PaulFidika/vipbridge/entitlements"
	"github.com/PaulFidika/vipbridge/lang"
	memorystore "github.com/PaulFidika/vipbridge/storage/memory"
	vtesting "github.com/PaulFidika/vipbridge/testing"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guildID      = "guild-1"
	vipRole      = "vip-role"
	verifiedRole = "verified-role"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []core.GrantEvent
}

func (r *recordingAudit) LogGrant(_ context.Context, ev core.GrantEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type fixture struct {
	guild *vtesting.Guild
	store *entitlements.Store
	audit *recordingAudit
	svc   *core.Service
}

func newFixture(t *testing.T, stages []core.Stage, opts ...core.ServiceOption) *fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	g := vtesting.NewGuild(guildID)
	st := entitlements.NewStore(memorystore.New(
		entitlements.Record{UserID: "1", Username: "roblox_user1", GamePass: "100"},
	), entitlements.WithLogger(log))
	a := &recordingAudit{}
	opts = append([]core.ServiceOption{core.WithAudit(a), core.WithLogger(log)}, opts...)
	svc, err := core.NewService(core.Config{
		GuildID:        guildID,
		VIPRoleID:      vipRole,
		VerifiedRoleID: verifiedRole,
		Stages:         stages,
	}, g, st, opts...)
	require.NoError(t, err)
	return &fixture{guild: g, store: st, audit: a, svc: svc}
}

func TestGrantRoleSuccess(t *testing.T) {
	f := newFixture(t, nil)
	f.guild.AddMember("42", "PlayerOne (@roblox_user1)", verifiedRole)

	reply := f.svc.GrantRole(context.Background(), core.Request{UserID: "42"})

	assert.Equal(t, core.OutcomeGranted, reply.Outcome)
	assert.Equal(t, "VIP role successfully assigned!", reply.Content)
	assert.True(t, reply.Ephemeral)
	assert.NoError(t, reply.Err)
	assert.True(t, f.guild.HasRole("42", vipRole))

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "roblox_user1", f.audit.events[0].GameUsername)
	assert.Equal(t, "100", f.audit.events[0].GamePass)
}

func TestGrantRoleNotEntitled(t *testing.T) {
	f := newFixture(t, nil)
	f.guild.AddMember("43", "PlayerTwo (@roblox_user2)", verifiedRole)

	reply := f.svc.GrantRole(context.Background(), core.Request{UserID: "43"})

	assert.Equal(t, core.OutcomeNotEntitled, reply.Outcome)
	assert.Equal(t, "You do not have VIP status in the game.", reply.Content)
	assert.ErrorIs(t, reply.Err, core.ErrNotEntitled)
	assert.False(t, f.guild.HasRole("43", vipRole))
	assert.Zero(t, f.guild.RoleAdds())
}

func TestGrantRoleNotLinked(t *testing.T) {
	f := newFixture(t, nil)
	f.guild.AddMember("44", "PlayerOne", verifiedRole)

	reply := f.svc.GrantRole(context.Background(), core.Request{UserID: "44"})

	assert.Equal(t, core.OutcomeNotLinked, reply.Outcome)
	assert.Contains(t, reply.Content, "not linked to a Roblox username")
	assert.True(t, reply.Ephemeral)
}

// countingLookup wraps the store to observe whether the lookup ran.
type countingLookup struct {
	core.EntitlementLookup
	calls int
}

func (c *countingLookup) FindByUsername(ctx context.Context, u string) (entitlements.Record, bool) {
	c.calls++
	return c.EntitlementLookup.FindByUsername(ctx, u)
}

func TestGrantRoleNotVerifiedShortCircuits(t *testing.T) {
	g := vtesting.NewGuild(guildID)
	g.AddMember("42", "PlayerOne (@roblox_user1)")
	lookup := &countingLookup{EntitlementLookup: entitlements.NewStore(memorystore.New(
		entitlements.Record{UserID: "1", Username: "roblox_user1", GamePass: "100"},
	))}
	svc, err := core.NewService(core.Config{GuildID: guildID, VIPRoleID: vipRole, VerifiedRoleID: verifiedRole}, g, lookup)
	require.NoError(t, err)

	reply := svc.GrantRole(context.Background(), core.Request{UserID: "42"})

	assert.Equal(t, core.OutcomeNotVerified, reply.Outcome)
	assert.ErrorIs(t, reply.Err, core.ErrNotVerified)
	assert.Zero(t, lookup.calls, "entitlement lookup must not run for unverified members")
	assert.Zero(t, g.RoleAdds())
}

func TestGrantRoleStageOrderEntitledBeforeVerified(t *testing.T) {
	f := newFixture(t, []core.Stage{core.StageLinked, core.StageEntitled, core.StageVerified})
	f.guild.AddMember("45", "Nobody (@roblox_user9)")

	// not entitled is reported before verification is even checked
	reply := f.svc.GrantRole(context.Background(), core.Request{UserID: "45"})
	assert.Equal(t, core.OutcomeNotEntitled, reply.Outcome)

	f.guild.AddMember("42", "PlayerOne (@roblox_user1)")
	reply = f.svc.GrantRole(context.Background(), core.Request{UserID: "42"})
	assert.Equal(t, core.OutcomeNotVerified, reply.Outcome)
}

func TestGrantRoleWithoutVerificationStage(t *testing.T) {
	g := vtesting.NewGuild(guildID)
	g.AddMember("42", "PlayerOne (@roblox_user1)")
	st := entitlements.NewStore(memorystore.New(entitlements.Record{UserID: "1", Username: "roblox_user1", GamePass: "100"}))
	svc, err := core.NewService(core.Config{
		GuildID:   guildID,
		VIPRoleID: vipRole,
		Stages:    []core.Stage{core.StageLinked, core.StageEntitled},
	}, g, st)
	require.NoError(t, err)

	assert.Equal(t, core.OutcomeGranted, svc.GrantRole(context.Background(), core.Request{UserID: "42"}).Outcome)
}

func TestGrantRoleUsesFreshMemberState(t *testing.T) {
	f := newFixture(t, nil)
	f.guild.AddMember("42", "PlayerOne (@roblox_user1)")

	assert.Equal(t, core.OutcomeNotVerified, f.svc.GrantRole(context.Background(), core.Request{UserID: "42"}).Outcome)

	f.guild.SetRoles("42", verifiedRole)
	assert.Equal(t, core.OutcomeGranted, f.svc.GrantRole(context.Background(), core.Request{UserID: "42"}).Outcome)
	assert.Equal(t, 2, f.guild.Fetches())
}

func TestGrantRoleMutationFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.guild.AddMember("42", "PlayerOne (@roblox_user1)", verifiedRole)
	f.guild.AddRoleErr = errors.New("missing permissions")

	reply := f.svc.GrantRole(context.Background(), core.Request{UserID: "42"})

	assert.Equal(t, core.OutcomeFailed, reply.Outcome)
	assert.Equal(t, "Failed to assign the VIP role. Please try again later.", reply.Content)
	assert.ErrorIs(t, reply.Err, core.ErrRoleMutation)
	assert.Equal(t, 1, f.guild.RoleAdds(), "no automatic retry")
	require.Len(t, f.audit.events, 1)
	assert.Equal(t, core.OutcomeFailed, f.audit.events[0].Outcome)
}

func TestGrantRoleMemberFetchFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.guild.FetchErr = errors.New("gateway timeout")

	reply := f.svc.GrantRole(context.Background(), core.Request{UserID: "42"})

	assert.Equal(t, core.OutcomeFailed, reply.Outcome)
	assert.ErrorIs(t, reply.Err, core.ErrMemberFetch)
	assert.Zero(t, f.guild.RoleAdds())
}

type denyLimiter struct{ err error }

func (d denyLimiter) AllowNamed(bucket, key string) (bool, error) { return false, d.err }

func TestGrantRoleRateLimited(t *testing.T) {
	f := newFixture(t, nil, core.WithRateLimiter(denyLimiter{}))
	f.guild.AddMember("42", "PlayerOne (@roblox_user1)", verifiedRole)

	reply := f.svc.GrantRole(context.Background(), core.Request{UserID: "42"})
	assert.Equal(t, core.OutcomeRateLimited, reply.Outcome)
	assert.Zero(t, f.guild.Fetches())
}

func TestGrantRoleLimiterErrorFailsOpen(t *testing.T) {
	f := newFixture(t, nil, core.WithRateLimiter(denyLimiter{err: errors.New("redis down")}))
	f.guild.AddMember("42", "PlayerOne (@roblox_user1)", verifiedRole)

	assert.Equal(t, core.OutcomeGranted, f.svc.GrantRole(context.Background(), core.Request{UserID: "42"}).Outcome)
}

func TestGrantRoleLocalizedReply(t *testing.T) {
	f := newFixture(t, nil)
	f.guild.AddMember("43", "PlayerTwo (@roblox_user2)", verifiedRole)

	ctx := lang.WithLanguage(context.Background(), "es-ES")
	reply := f.svc.GrantRole(ctx, core.Request{UserID: "43"})
	assert.Equal(t, "No tienes estado VIP en el juego.", reply.Content)

	ctx = lang.WithLanguage(context.Background(), "ja")
	reply = f.svc.GrantRole(ctx, core.Request{UserID: "43"})
	assert.Equal(t, "You do not have VIP status in the game.", reply.Content)
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	g := vtesting.NewGuild(guildID)
	st := entitlements.NewStore(memorystore.New())

	_, err := core.NewService(core.Config{GuildID: guildID, VIPRoleID: vipRole}, g, st)
	assert.ErrorContains(t, err, "verified role id")

	_, err = core.NewService(core.Config{
		GuildID: guildID, VIPRoleID: vipRole,
		Stages: []core.Stage{core.StageEntitled, core.StageLinked},
	}, g, st)
	assert.Error(t, err)

	_, err = core.NewService(core.Config{VerifiedRoleID: verifiedRole}, g, st)
	assert.ErrorContains(t, err, "guild id")
}
