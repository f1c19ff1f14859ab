package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// GrantEvent describes one finished role grant invocation.
type GrantEvent struct {
	UserID       string
	GameUsername string
	GamePass     string
	Outcome      Outcome
	Err          error
	Duration     time.Duration
}

// GrantEventLogger records grant outcomes to an external sink.
// Implementations should be non-blocking and best-effort.
type GrantEventLogger interface {
	LogGrant(ctx context.Context, ev GrantEvent) error
}

// LogrusAudit writes grant events as structured log entries. Failures are
// logged at error level; user-facing terminal states at info.
type LogrusAudit struct {
	Log logrus.FieldLogger
}

func (a LogrusAudit) LogGrant(_ context.Context, ev GrantEvent) error {
	l := a.Log
	if l == nil {
		l = logrus.StandardLogger()
	}
	e := l.WithFields(logrus.Fields{
		"user_id":       ev.UserID,
		"game_username": ev.GameUsername,
		"game_pass":     ev.GamePass,
		"outcome":       string(ev.Outcome),
		"duration_ms":   ev.Duration.Milliseconds(),
	})
	if ev.Outcome == OutcomeFailed {
		e.WithError(ev.Err).Error("role grant failed")
		return nil
	}
	e.Info("role grant finished")
	return nil
}

// MultiAudit fans an event out to several loggers.
type MultiAudit []GrantEventLogger

func (m MultiAudit) LogGrant(ctx context.Context, ev GrantEvent) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.LogGrant(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
