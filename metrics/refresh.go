package metrics

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultRefreshSpec refreshes the entitlement gauge once a minute.
const DefaultRefreshSpec = "@every 1m"

// Counter reports the current number of entitlement records.
type Counter interface {
	Count(ctx context.Context) int
}

// GaugeRefresher periodically copies the entitlement count into the Entitlements gauge.
type GaugeRefresher struct {
	cron  *cron.Cron
	src   Counter
	log   logrus.FieldLogger
	gauge func(float64)
}

// NewGaugeRefresher schedules the refresh on spec (standard cron or @every syntax).
// An empty spec means DefaultRefreshSpec.
func NewGaugeRefresher(spec string, src Counter, log logrus.FieldLogger) (*GaugeRefresher, error) {
	if spec == "" {
		spec = DefaultRefreshSpec
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &GaugeRefresher{
		cron:  cron.New(),
		src:   src,
		log:   log.WithField("component", "metrics"),
		gauge: Entitlements.Set,
	}
	if _, err := r.cron.AddFunc(spec, r.Refresh); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh updates the gauge immediately.
func (r *GaugeRefresher) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n := r.src.Count(ctx)
	r.gauge(float64(n))
	r.log.WithField("entitlements", n).Debug("entitlement gauge refreshed")
}

// Start refreshes once and then runs the schedule in the background.
func (r *GaugeRefresher) Start() {
	r.Refresh()
	r.cron.Start()
}

// Stop halts the schedule and waits for a running refresh to finish or ctx to end.
func (r *GaugeRefresher) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}
