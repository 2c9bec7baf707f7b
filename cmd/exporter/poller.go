package main

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/arvarik/withings-go/withings"
)

// poller copies the latest body measures into the exporter gauges.
type poller struct {
	client   *withings.Client
	metrics  *metrics
	lookback time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// refresh fetches weight and pulse over the lookback window. A failing
// measure leaves its gauge untouched; the errors are combined.
func (p *poller) refresh(ctx context.Context) error {
	end := p.now()
	start := end.Add(-p.lookback)

	var errs error

	weights, err := p.client.Measure.GetWeightMeasures(ctx, start, end, nil)
	if err != nil {
		p.metrics.scrapeErrors.WithLabelValues("weight").Inc()
		errs = multierr.Append(errs, err)
	} else if v, ok := latest(weights, withings.MeasureTypeWeight); ok {
		p.metrics.currentWeight.Set(v)
	}

	pulses, err := p.client.Measure.GetPulseMeasures(ctx, start, end, nil)
	if err != nil {
		p.metrics.scrapeErrors.WithLabelValues("pulse").Inc()
		errs = multierr.Append(errs, err)
	} else if v, ok := latest(pulses, withings.MeasureTypeHeartPulse); ok {
		p.metrics.currentPulse.Set(v)
	}

	if errs == nil {
		p.metrics.lastScrape.Set(float64(end.Unix()))
	}
	return errs
}

// run refreshes every interval and whenever trigger fires, until ctx is done.
func (p *poller) run(ctx context.Context, interval time.Duration, trigger <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.refreshAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshAndLog(ctx)
		case <-trigger:
			p.refreshAndLog(ctx)
		}
	}
}

func (p *poller) refreshAndLog(ctx context.Context) {
	if err := p.refresh(ctx); err != nil {
		p.logger.Error("failed to refresh measures", zap.Error(err))
		return
	}
	p.logger.Debug("refreshed measures")
}

// latest returns the value of type t from the most recent group carrying it.
func latest(groups []withings.MeasureGroup, t withings.MeasureType) (float64, bool) {
	var (
		best  float64
		at    int64
		found bool
	)
	for _, g := range groups {
		v, ok := g.Value(t)
		if !ok {
			continue
		}
		if !found || g.Date > at {
			best, at, found = v, g.Date, true
		}
	}
	return best, found
}
