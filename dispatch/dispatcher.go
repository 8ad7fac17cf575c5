package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"i4.energy/across/cellgw/at"
	"i4.energy/across/cellgw/modem"
	"i4.energy/across/cellgw/status"
)

// Config wires a Dispatcher to the modem side and the result store.
type Config struct {
	Link   *modem.Link
	Engine *modem.Engine
	Store  *status.Store
	// Metrics may be nil.
	Metrics *status.Metrics
	Logger  *slog.Logger

	// ATTimeout bounds preflight and ad-hoc command exchanges.
	ATTimeout time.Duration
	// DrainEvery is the idle cadence for soaking up unsolicited output.
	DrainEvery time.Duration
}

// Dispatcher owns the modem link. It serves one trigger at a time and
// drains the line in between, which is what keeps the half-duplex
// serial conversation from interleaving.
type Dispatcher struct {
	link    *modem.Link
	engine  *modem.Engine
	store   *status.Store
	metrics *status.Metrics
	logger  *slog.Logger

	atTimeout  time.Duration
	drainEvery time.Duration

	mu      sync.Mutex
	busy    bool
	mailbox chan Trigger
}

// New builds a dispatcher and binds the engine's step observer to the
// metrics when they are present.
func New(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ATTimeout == 0 {
		cfg.ATTimeout = 5 * time.Second
	}
	if cfg.DrainEvery == 0 {
		cfg.DrainEvery = time.Second
	}

	d := &Dispatcher{
		link:       cfg.Link,
		engine:     cfg.Engine,
		store:      cfg.Store,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("component", "dispatch"),
		atTimeout:  cfg.ATTimeout,
		drainEvery: cfg.DrainEvery,
		mailbox:    make(chan Trigger, 1),
	}
	if d.metrics != nil && d.engine != nil {
		d.engine.Observe = func(state, outcome string) {
			d.metrics.WorkflowSteps.WithLabelValues(state, outcome).Inc()
		}
	}
	return d
}

// Submit hands a trigger to the dispatcher. It reports false, without
// blocking, when a trigger is already queued or in service.
func (d *Dispatcher) Submit(trig Trigger) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		d.reject(trig)
		return false
	}
	select {
	case d.mailbox <- trig:
		return true
	default:
		d.reject(trig)
		return false
	}
}

func (d *Dispatcher) reject(trig Trigger) {
	d.logger.Warn("trigger rejected, one already in service", "kind", trig.Kind.String())
	if d.metrics != nil {
		d.metrics.Rejections.Inc()
	}
}

func (d *Dispatcher) setBusy(v bool) {
	d.mu.Lock()
	d.busy = v
	d.mu.Unlock()
}

// Run serves triggers until ctx ends. Between triggers it periodically
// drains unsolicited modem output into the transcript.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.preflight(ctx)

	ticker := time.NewTicker(d.drainEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.link.Drain()
		case trig := <-d.mailbox:
			d.setBusy(true)
			d.serve(ctx, trig)
			d.setBusy(false)
		}
	}
}

// preflight settles the line once at startup: soak up the boot banner,
// confirm the modem answers, turn echo off and ask for verbose errors.
// Failures are logged and tolerated; the modem may simply not be
// powered yet.
func (d *Dispatcher) preflight(ctx context.Context) {
	d.link.Drain()

	for _, text := range []string{"AT", "ATE0", "AT+CMEE=2"} {
		out := d.link.Execute(ctx, modem.AdHoc(text, d.atTimeout))
		if out.Kind == modem.OutcomeSuccess {
			d.logger.Info("preflight command ok", "command", text)
			continue
		}
		d.logger.Warn("preflight command failed",
			"command", text,
			"outcome", out.Kind.String(),
			"detail", out.Describe(d.atTimeout),
		)
	}
}

func (d *Dispatcher) serve(ctx context.Context, trig Trigger) {
	d.link.Drain()

	switch trig.Kind {
	case KindCommand:
		d.serveCommand(ctx, trig)
	case KindFetch:
		d.serveFetch(ctx, trig)
	default:
		d.logger.Error("unknown trigger kind", "kind", int(trig.Kind))
	}
}

func (d *Dispatcher) serveCommand(ctx context.Context, trig Trigger) {
	text := at.SanitizeCommand(trig.Command)
	if text == "" {
		d.store.SetStatus("command rejected: empty after sanitizing")
		d.count(trig.Kind, "rejected")
		return
	}

	d.logger.Info("running command", "command", text)
	out := d.link.Execute(ctx, modem.AdHoc(text, d.atTimeout))
	d.store.SetStatus(fmt.Sprintf("command %q: %s", text, out.Describe(d.atTimeout)))
	d.count(trig.Kind, out.Kind.String())

	if out.Kind != modem.OutcomeSuccess {
		d.logger.Warn("command did not succeed",
			"command", text,
			"outcome", out.Kind.String(),
		)
	}
}

func (d *Dispatcher) serveFetch(ctx context.Context, trig Trigger) {
	if trig.Workflow != "" && trig.Workflow != modem.WorkflowFetch {
		d.store.SetStatus(fmt.Sprintf("unknown workflow %q", trig.Workflow))
		d.count(trig.Kind, "rejected")
		return
	}

	d.logger.Info("running fetch workflow")
	start := time.Now()
	err := d.engine.Run(ctx)
	elapsed := time.Since(start)

	if d.metrics != nil {
		d.metrics.WorkflowSeconds.Observe(elapsed.Seconds())
	}
	if err != nil {
		d.logger.Warn("fetch workflow failed", "error", err, "elapsed", elapsed)
		d.count(trig.Kind, "failure")
		return
	}
	d.logger.Info("fetch workflow completed", "elapsed", elapsed)
	d.count(trig.Kind, "success")
}

func (d *Dispatcher) count(kind TriggerKind, outcome string) {
	if d.metrics != nil {
		d.metrics.Triggers.WithLabelValues(kind.String(), outcome).Inc()
	}
}
