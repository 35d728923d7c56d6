package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourneighborhoodchef/pagewatch/internal/mail"
	"github.com/yourneighborhoodchef/pagewatch/internal/notify"
	"github.com/yourneighborhoodchef/pagewatch/internal/ratelimit"
	"github.com/yourneighborhoodchef/pagewatch/internal/session"
	"github.com/yourneighborhoodchef/pagewatch/internal/stock"
)

// Lifecycle receives the loop's readiness and liveness signals.
type Lifecycle interface {
	Ready()
	Watchdog()
	Stopping()
}

type nopLifecycle struct{}

func (nopLifecycle) Ready()    {}
func (nopLifecycle) Watchdog() {}
func (nopLifecycle) Stopping() {}

type Options struct {
	URL       string
	Recipient string
	Interval  time.Duration
	// Heartbeat is the longest gap between two status events while the state
	// stays the same. Zero means ten intervals.
	Heartbeat time.Duration
	// Backoff paces session (re)opening within one tick.
	Backoff ratelimit.Backoff
}

type Deps struct {
	Engine     session.Engine
	Inspector  *Inspector
	Classifier stock.Classifier
	Gate       *notify.Gate
	Mailer     mail.Transport
	Lifecycle  Lifecycle
	Logger     zerolog.Logger
}

// Monitor is the single sequential check loop. It owns the live session and
// the notification gate; nothing else touches them, so there are no locks.
type Monitor struct {
	engine     session.Engine
	inspector  *Inspector
	classifier stock.Classifier
	gate       *notify.Gate
	mailer     mail.Transport
	lifecycle  Lifecycle
	log        zerolog.Logger
	opts       Options
	status     *statusReporter

	sess session.Session
}

func New(deps Deps, opts Options) *Monitor {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 10 * opts.Interval
	}
	if opts.Backoff.Attempts < 1 {
		opts.Backoff = ratelimit.DefaultBackoff(3)
	}
	lc := deps.Lifecycle
	if lc == nil {
		lc = nopLifecycle{}
	}
	return &Monitor{
		engine:     deps.Engine,
		inspector:  deps.Inspector,
		classifier: deps.Classifier,
		gate:       deps.Gate,
		mailer:     deps.Mailer,
		lifecycle:  lc,
		log:        deps.Logger,
		opts:       opts,
		status:     newStatusReporter(opts.URL, opts.Heartbeat, deps.Logger),
	}
}

// Run checks immediately, then once per interval, until ctx is cancelled.
// Every runtime failure is logged and survived; Run returns nil on shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().
		Str("engine", m.engine.Name()).
		Str("url", m.opts.URL).
		Dur("interval", m.opts.Interval).
		Msg("starting product checker")
	m.lifecycle.Ready()

	defer func() {
		m.lifecycle.Stopping()
		m.dispose()
		m.log.Info().Msg("product checker stopped")
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		m.Tick(ctx)
		m.lifecycle.Watchdog()

		m.log.Debug().Dur("wait", m.opts.Interval).Msg("waiting before next check")
		if err := ratelimit.Sleep(ctx, m.opts.Interval); err != nil {
			return nil
		}
	}
}

// Tick runs one check. Without a live session it first tries to open one;
// after a session failure it replaces the session before returning.
func (m *Monitor) Tick(ctx context.Context) Result {
	var r Result

	if m.sess == nil {
		if !m.recover(ctx) {
			return r
		}
	}

	out := m.inspector.Inspect(ctx, m.sess)
	r.Outcome = out
	if ctx.Err() != nil {
		// Shutdown aborted the inspection; its outcome means nothing.
		return r
	}
	r.Inspected = true

	if out.Kind == OutcomeSessionFailure {
		m.log.Warn().Err(out.Err).Str("session", out.SessionID).Msg("page session failed, rebuilding")
		m.status.failure(out)
		r.Recovered = m.recover(ctx)
		return r
	}

	r.State = m.classifier.Classify(out.Ok(), out.Text)
	r.Decision = m.gate.Evaluate(r.State)
	m.status.observe(out, r.State)

	if !r.Decision.Send {
		return r
	}
	switch r.State {
	case stock.InStock:
		m.log.Info().Msg("product is in stock")
	case stock.Blocked:
		m.log.Warn().Msg("possible blocking detected")
	}
	r.MailErr = m.dispatch(ctx, r.Decision)
	return r
}

func (m *Monitor) dispatch(ctx context.Context, d notify.Decision) error {
	m.log.Info().Str("to", m.opts.Recipient).Str("subject", d.Subject).Msg("sending email")
	if err := m.mailer.Send(ctx, d.Subject, d.Body, m.opts.Recipient); err != nil {
		m.log.Error().Err(err).Str("subject", d.Subject).Msg("error sending email")
		return err
	}
	return nil
}

// recover disposes of the current session, if any, and opens a new one with
// bounded retries. On failure the monitor is left without a session and the
// next tick tries again.
func (m *Monitor) recover(ctx context.Context) bool {
	m.dispose()

	attempts := m.opts.Backoff.Attempts
	err := m.opts.Backoff.Retry(ctx, func(attempt int) error {
		m.log.Info().Int("attempt", attempt).Int("max_attempts", attempts).Msg("opening page session")
		s, err := m.engine.Open(ctx)
		if err != nil {
			return err
		}
		m.sess = s
		return nil
	}, func(attempt int, err error) {
		m.log.Error().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("failed to open page session")
	})
	if err != nil {
		if ctx.Err() == nil {
			m.log.Error().Err(err).Dur("retry_in", m.opts.Interval).Msg("page session unavailable, retrying on next check")
		}
		return false
	}

	m.log.Info().Str("session", m.sess.ID()).Msg("page session ready")
	return true
}

func (m *Monitor) dispose() {
	if m.sess == nil {
		return
	}
	id := m.sess.ID()
	if err := m.sess.Close(); err != nil {
		m.log.Warn().Err(err).Str("session", id).Msg("error while closing page session")
	}
	m.sess = nil
}
