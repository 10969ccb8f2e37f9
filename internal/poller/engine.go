// Package poller runs the periodic fetch-parse-dedup-retain cycle against
// the device.
package poller

import (
	"context"
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/bus"
	"github.com/danielfett/miqro-rutos-sms/internal/dedup"
	"github.com/danielfett/miqro-rutos-sms/internal/metrics"
	"github.com/danielfett/miqro-rutos-sms/internal/retention"
	"github.com/danielfett/miqro-rutos-sms/internal/sms"
	"github.com/danielfett/miqro-rutos-sms/internal/status"
	"github.com/danielfett/miqro-rutos-sms/internal/store"
	"go.uber.org/zap"
)

// Lister is the slice of the device client the engine needs.
type Lister interface {
	List(ctx context.Context) (string, error)
}

// Deleter issues device deletions and publishes their confirmations.
// Satisfied by *outbox.Sender so retention deletes share the manual delete
// path.
type Deleter interface {
	DeleteMessage(ctx context.Context, index string)
}

// Engine polls the device message list on a fixed interval. Each cycle runs
// to completion before the next is scheduled: fetch, parse, surface new
// records on the bus, and evaluate retention for every record. The dedup
// set is owned here and mutated only from the poll goroutine.
type Engine struct {
	device   Lister
	deleter  Deleter
	bus      *bus.Bus
	seen     *dedup.Set
	policy   retention.Policy
	archive  *store.DB // nil when archiving is disabled
	machine  *status.Machine
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	now      func() time.Time
}

// NewEngine creates a polling engine. archive and machine may be nil.
func NewEngine(device Lister, deleter Deleter, b *bus.Bus, seen *dedup.Set,
	policy retention.Policy, archive *store.DB, machine *status.Machine,
	interval time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		device:   device,
		deleter:  deleter,
		bus:      b,
		seen:     seen,
		policy:   policy,
		archive:  archive,
		machine:  machine,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start begins polling. The first poll fires immediately, then every
// interval. Cycles never overlap.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	go e.loop(ctx)
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) loop(ctx context.Context) {
	e.Poll(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Poll runs one fetch-parse-dedup-retain cycle. A fetch failure abandons
// only this cycle; the next tick proceeds independently.
func (e *Engine) Poll(ctx context.Context) {
	raw, err := e.device.List(ctx)
	if err != nil {
		e.logger.Error("message list fetch failed", zap.Error(err))
		metrics.PollsTotal.WithLabelValues("error").Inc()
		e.markDegraded()
		return
	}
	metrics.PollsTotal.WithLabelValues("ok").Inc()
	e.markHealthy()

	records := sms.ParseList(raw)
	e.logger.Info("message list fetched", zap.Int("records", len(records)))

	now := e.now()
	for _, rec := range records {
		if e.seen.Observe(rec.Identity()) {
			e.surface(rec)
		}
		// Retention runs for every record on every cycle, seen or not.
		// Re-deleting an index the device already freed is a no-op there.
		if e.policy.ShouldDelete(rec, now) {
			metrics.DeletesTotal.WithLabelValues("retention").Inc()
			e.deleter.DeleteMessage(ctx, rec.Index)
		}
	}
}

func (e *Engine) surface(rec sms.Record) {
	metrics.ReceivedTotal.Inc()
	e.bus.Publish(bus.Event{
		Kind:      "sms.received",
		Timestamp: time.Now(),
		Payload:   rec,
	})
	if e.archive != nil {
		if err := e.archive.InsertRecord(rec); err != nil {
			e.logger.Error("archive insert failed", zap.Error(err), zap.String("index", rec.Index))
		}
	}
}

func (e *Engine) markDegraded() {
	if e.machine != nil && e.machine.Current() == status.Ready {
		_ = e.machine.Transition(status.Degraded)
	}
}

func (e *Engine) markHealthy() {
	if e.machine != nil && e.machine.Current() == status.Degraded {
		_ = e.machine.Transition(status.Ready)
	}
}
