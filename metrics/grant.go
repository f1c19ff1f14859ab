package metrics

import (
	"context"

	"github.com/PaulFidika/vipbridge/core"
)

// GrantAudit records role grant outcomes as metrics.
type GrantAudit struct{}

var _ core.GrantEventLogger = GrantAudit{}

func (GrantAudit) LogGrant(_ context.Context, ev core.GrantEvent) error {
	o := string(ev.Outcome)
	GrantOutcomesTotal.WithLabelValues(o).Inc()
	GrantDuration.WithLabelValues(o).Observe(ev.Duration.Seconds())
	return nil
}
