package scheduler

import (
	"context"
	"time"

	"rfv_copilot_backend/platform/config"
	"rfv_copilot_backend/platform/logger"
)

const dispatcherName = "dispatcher"

// Dispatcher enqueues the periodic engine passes: recalculation on the daily
// interval, attribution on the hourly one. Re-enqueueing an already-processed
// day is harmless because both passes are idempotent.
type Dispatcher struct {
	client              *Client
	recalculateInterval time.Duration
	attributionInterval time.Duration
	log                 *logger.Logger
}

func NewDispatcher(cfg config.SchedulerConfig, log *logger.Logger) (*Dispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	recalc := cfg.GetRecalculateInterval()
	if recalc <= 0 {
		recalc = 24 * time.Hour
	}
	attribution := cfg.GetAttributionInterval()
	if attribution <= 0 {
		attribution = time.Hour
	}

	return &Dispatcher{
		client:              client,
		recalculateInterval: recalc,
		attributionInterval: attribution,
		log:                 log,
	}, nil
}

func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	return d.client.Close()
}

// Run enqueues passes until the context is canceled. One pass of each kind is
// enqueued immediately so a fresh deployment does not wait a full interval.
func (d *Dispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	d.enqueueRecalculate(ctx)
	d.enqueueAttribution(ctx)

	recalcTicker := time.NewTicker(d.recalculateInterval)
	defer recalcTicker.Stop()
	attributionTicker := time.NewTicker(d.attributionInterval)
	defer attributionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-recalcTicker.C:
			d.enqueueRecalculate(ctx)
		case <-attributionTicker.C:
			d.enqueueAttribution(ctx)
		}
	}
}

func (d *Dispatcher) enqueueRecalculate(ctx context.Context) {
	payload := PassPayload{RequestedAt: time.Now().UTC(), TriggeredBy: dispatcherName}
	if err := d.client.EnqueueRecalculate(ctx, payload); err != nil {
		d.log.Warn("failed to enqueue recalculation", "error", err)
	}
}

func (d *Dispatcher) enqueueAttribution(ctx context.Context) {
	payload := PassPayload{RequestedAt: time.Now().UTC(), TriggeredBy: dispatcherName}
	if err := d.client.EnqueueAttributeRevenue(ctx, payload); err != nil {
		d.log.Warn("failed to enqueue attribution", "error", err)
	}
}
