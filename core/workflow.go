package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PaulFidika/vipbridge/entitlements"
	"github.com/PaulFidika/vipbridge/identity"
	"github.com/sirupsen/logrus"
)

// Member is the slice of chat-platform member state the workflow reads.
type Member struct {
	UserID      string
	DisplayName string
	Roles       []string
}

// MemberClient is the narrow chat-platform surface: one fresh read, one write.
type MemberClient interface {
	Member(ctx context.Context, guildID, userID string) (Member, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
}

// EntitlementLookup finds entitlements by game username.
type EntitlementLookup interface {
	FindByUsername(ctx context.Context, username string) (entitlements.Record, bool)
}

// RateLimiter matches ratelimit/memory and ratelimit/redis.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// BucketGrant is the rate limit bucket for role grant invocations.
const BucketGrant = "get_role"

// Outcome is the terminal state of one role grant invocation.
type Outcome string

const (
	OutcomeGranted     Outcome = "granted"
	OutcomeNotVerified Outcome = "not_verified"
	OutcomeNotLinked   Outcome = "not_linked"
	OutcomeNotEntitled Outcome = "not_entitled"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeFailed      Outcome = "failed"
)

// Config holds the guild and role identifiers plus the stage order.
type Config struct {
	GuildID        string
	VIPRoleID      string
	VerifiedRoleID string
	Stages         []Stage
}

// Request is one invocation of the role grant command.
type Request struct {
	UserID string
}

// Reply is what the chat adapter sends back. Replies are always ephemeral.
type Reply struct {
	Outcome   Outcome
	Content   string
	Ephemeral bool
	// Err is the terminal sentinel (ErrNotLinked, ErrRoleMutation, ...), nil on success.
	Err error
}

// Service runs the role grant workflow.
type Service struct {
	cfg      Config
	members  MemberClient
	store    EntitlementLookup
	audit    GrantEventLogger
	limiter  RateLimiter
	messages Catalog
	log      logrus.FieldLogger
}

type ServiceOption func(*Service)

func WithAudit(a GrantEventLogger) ServiceOption { return func(s *Service) { s.audit = a } }

func WithRateLimiter(l RateLimiter) ServiceOption { return func(s *Service) { s.limiter = l } }

func WithMessages(c Catalog) ServiceOption { return func(s *Service) { s.messages = c } }

func WithLogger(l logrus.FieldLogger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService validates cfg and builds the workflow. Empty cfg.Stages means DefaultStages.
func NewService(cfg Config, members MemberClient, store EntitlementLookup, opts ...ServiceOption) (*Service, error) {
	if len(cfg.Stages) == 0 {
		cfg.Stages = DefaultStages()
	}
	if err := ValidateStages(cfg.Stages); err != nil {
		return nil, err
	}
	var missing []string
	if strings.TrimSpace(cfg.GuildID) == "" {
		missing = append(missing, "guild id")
	}
	if strings.TrimSpace(cfg.VIPRoleID) == "" {
		missing = append(missing, "vip role id")
	}
	if hasStage(cfg.Stages, StageVerified) && strings.TrimSpace(cfg.VerifiedRoleID) == "" {
		missing = append(missing, "verified role id")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("role grant config: missing %s", strings.Join(missing, ", "))
	}
	if members == nil || store == nil {
		return nil, errors.New("role grant config: member client and entitlement store are required")
	}
	s := &Service{
		cfg:      cfg,
		members:  members,
		store:    store,
		messages: DefaultCatalog(),
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithField("component", "grant")
	return s, nil
}

// Stages returns the configured stage order.
func (s *Service) Stages() []Stage { return append([]Stage(nil), s.cfg.Stages...) }

// grantState carries what earlier steps learned to later ones.
type grantState struct {
	member       Member
	gameUsername string
	record       entitlements.Record
}

// GrantRole fetches the member, runs the ordered stages, then adds the role. It always returns a
// reply; nothing is retried.
func (s *Service) GrantRole(ctx context.Context, req Request) Reply {
	start := time.Now()
	st := &grantState{}
	err := s.run(ctx, req, st)

	outcome := outcomeFor(err)
	reply := Reply{
		Outcome:   outcome,
		Content:   s.messages.Lookup(ctx).For(outcome),
		Ephemeral: true,
		Err:       err,
	}
	if s.audit != nil {
		ev := GrantEvent{
			UserID:       req.UserID,
			GameUsername: st.gameUsername,
			GamePass:     st.record.GamePass,
			Outcome:      outcome,
			Err:          err,
			Duration:     time.Since(start),
		}
		if aerr := s.audit.LogGrant(ctx, ev); aerr != nil {
			s.log.WithError(aerr).Warn("grant audit failed")
		}
	}
	return reply
}

func (s *Service) run(ctx context.Context, req Request, st *grantState) error {
	if s.limiter != nil {
		ok, err := s.limiter.AllowNamed(BucketGrant, req.UserID)
		if err != nil {
			s.log.WithError(err).Warn("rate limiter unavailable, allowing")
		} else if !ok {
			return ErrRateLimited
		}
	}

	m, err := s.members.Member(ctx, s.cfg.GuildID, req.UserID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMemberFetch, err)
	}
	st.member = m

	for _, stage := range s.cfg.Stages {
		if err := s.runStage(ctx, stage, st); err != nil {
			return err
		}
	}

	if err := s.members.AddRole(ctx, s.cfg.GuildID, req.UserID, s.cfg.VIPRoleID); err != nil {
		return fmt.Errorf("%w: %w", ErrRoleMutation, err)
	}
	return nil
}

func (s *Service) runStage(ctx context.Context, stage Stage, st *grantState) error {
	switch stage {
	case StageVerified:
		if !identity.IsVerified(st.member.Roles, s.cfg.VerifiedRoleID) {
			return ErrNotVerified
		}
	case StageLinked:
		u, ok := identity.ExtractExternalUsername(st.member.DisplayName)
		if !ok {
			return ErrNotLinked
		}
		st.gameUsername = u
	case StageEntitled:
		rec, ok := s.store.FindByUsername(ctx, st.gameUsername)
		if !ok {
			return ErrNotEntitled
		}
		st.record = rec
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	return nil
}

func outcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeGranted
	case errors.Is(err, ErrNotVerified):
		return OutcomeNotVerified
	case errors.Is(err, ErrNotLinked):
		return OutcomeNotLinked
	case errors.Is(err, ErrNotEntitled):
		return OutcomeNotEntitled
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	default:
		return OutcomeFailed
	}
}
