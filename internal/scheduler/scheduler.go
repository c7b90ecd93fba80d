// Package scheduler runs the periodic status reconciliation pass: it loads
// every open order, recomputes its delivery status from elapsed business-local
// time, and writes the changed statuses back in one conditional batch.
package scheduler

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/freshkart/order-service/internal/bizclock"
	"github.com/freshkart/order-service/internal/domain/order"
)

// Fault records one order the pass could not evaluate. The order's status is
// left unchanged and the batch continues.
type Fault struct {
	OrderID string
	Err     error
}

// TickResult summarizes one reconciliation pass.
type TickResult struct {
	Scanned   int
	Updated   int
	Unchanged int
	Faults    []Fault
}

// Config holds the reconciler's timing parameters.
type Config struct {
	// Interval is the fixed period between ticks.
	Interval time.Duration
	// TickTimeout bounds the store I/O of a single tick. A tick that cannot
	// finish in time is abandoned whole and retried on the next occurrence.
	TickTimeout time.Duration
}

// Reconciler is the background status reconciliation task. It holds no state
// across ticks: every tick is a fresh scan, which makes it idempotent and
// safe to restart at any point.
type Reconciler struct {
	orders order.Repository
	clock  *bizclock.Clock
	cfg    Config
	lg     *zap.Logger
	tracer trace.Tracer

	ticks   metric.Int64Counter
	updates metric.Int64Counter
	faults  metric.Int64Counter
}

// New creates a Reconciler. The meter and tracer may come straight from the
// application telemetry providers.
func New(
	orders order.Repository,
	clock *bizclock.Clock,
	cfg Config,
	lg *zap.Logger,
	tracerProvider trace.TracerProvider,
	meterProvider metric.MeterProvider,
) (*Reconciler, error) {
	meter := meterProvider.Meter("order-reconciler")

	ticks, err := meter.Int64Counter("reconciler.ticks")
	if err != nil {
		return nil, errors.Wrap(err, "create ticks counter")
	}
	updates, err := meter.Int64Counter("reconciler.status_updates")
	if err != nil {
		return nil, errors.Wrap(err, "create updates counter")
	}
	faults, err := meter.Int64Counter("reconciler.record_faults")
	if err != nil {
		return nil, errors.Wrap(err, "create faults counter")
	}

	return &Reconciler{
		orders:  orders,
		clock:   clock,
		cfg:     cfg,
		lg:      lg,
		tracer:  tracerProvider.Tracer("order-reconciler"),
		ticks:   ticks,
		updates: updates,
		faults:  faults,
	}, nil
}

// Run executes ticks on the configured fixed interval until ctx is cancelled.
// The first tick runs immediately. A failed tick is logged and retried on the
// next occurrence; Run only returns on context cancellation.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick wraps Tick with the per-tick timeout, tracing, and outcome logging.
func (r *Reconciler) tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, r.cfg.TickTimeout)
	defer cancel()

	tickCtx, span := r.tracer.Start(tickCtx, "reconcile")
	defer span.End()

	r.ticks.Add(tickCtx, 1)

	res, err := r.Tick(tickCtx)
	if err != nil {
		// Store-level outage: the whole tick is abandoned and the next
		// occurrence retries from a consistent read.
		r.lg.Error("reconciliation tick failed", zap.Error(err))
		return
	}

	r.updates.Add(tickCtx, int64(res.Updated))
	r.faults.Add(tickCtx, int64(len(res.Faults)))

	for _, f := range res.Faults {
		r.lg.Warn("order skipped by reconciliation",
			zap.String("order_id", f.OrderID),
			zap.Error(f.Err))
	}
	r.lg.Info("reconciliation tick complete",
		zap.Int("scanned", res.Scanned),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged),
		zap.Int("faults", len(res.Faults)))
}

// Tick performs one reconciliation pass.
//
// Per order: a Cancelled order is never touched; the stored UTC placement
// instant and the local delivery date are parsed fresh, and a parse failure
// on either leaves that order unchanged and is collected as a Fault. The
// remaining orders get the status computed by order.NextStatus, and only the
// changed ones are written back, in one conditional batch.
func (r *Reconciler) Tick(ctx context.Context) (TickResult, error) {
	nowLocal := r.clock.Now()

	open, err := r.orders.ListOpen(ctx)
	if err != nil {
		return TickResult{}, errors.Wrap(err, "load open orders")
	}

	res := TickResult{Scanned: len(open)}
	updates := make([]order.StatusUpdate, 0, len(open))

	for _, o := range open {
		if o.Status == order.StatusCancelled {
			res.Unchanged++
			continue
		}

		placedLocal, err := r.clock.ParseInstant(o.OrderedAt)
		if err != nil {
			res.Faults = append(res.Faults, Fault{OrderID: o.ID, Err: err})
			continue
		}
		deliveryDate, err := r.clock.ParseDate(o.DeliveryDate)
		if err != nil {
			res.Faults = append(res.Faults, Fault{OrderID: o.ID, Err: err})
			continue
		}

		next := order.NextStatus(o.Status, placedLocal, nowLocal, deliveryDate)
		if next == o.Status {
			res.Unchanged++
			continue
		}
		updates = append(updates, order.StatusUpdate{OrderID: o.ID, Status: next})
	}

	if len(updates) > 0 {
		if err := r.orders.UpdateStatuses(ctx, updates); err != nil {
			return TickResult{}, errors.Wrap(err, "write back statuses")
		}
	}
	res.Updated = len(updates)

	return res, nil
}
