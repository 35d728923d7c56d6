package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourneighborhoodchef/pagewatch/internal/session"
)

// step scripts one inspection: what Navigate and Locate return.
type step struct {
	navErr error
	text   string
	locErr error
	// onNavigate runs inside Navigate, e.g. to simulate shutdown mid-call.
	onNavigate func()
}

func found(text string) step { return step{text: text} }

func notFound() step {
	return step{locErr: fmt.Errorf("%q: %w", "#buy", session.ErrNotFound)}
}

func crashed() step {
	return step{navErr: session.Failure("navigate", errors.New("websocket closed"))}
}

type fakeEngine struct {
	steps    []step
	openErrs []error
	opened   int
	sessions []*fakeSession
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Open(ctx context.Context) (session.Session, error) {
	e.opened++
	if len(e.openErrs) > 0 {
		err := e.openErrs[0]
		e.openErrs = e.openErrs[1:]
		if err != nil {
			return nil, session.Failure("open", err)
		}
	}
	s := &fakeSession{id: fmt.Sprintf("s%d", e.opened), engine: e}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *fakeEngine) closedCount() int {
	n := 0
	for _, s := range e.sessions {
		if s.closed > 0 {
			n++
		}
	}
	return n
}

type fakeSession struct {
	id      string
	engine  *fakeEngine
	current step
	closed  int
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if s.closed > 0 {
		return session.Failure("navigate", errors.New("used after close"))
	}
	if len(s.engine.steps) == 0 {
		s.current = notFound()
		return nil
	}
	s.current = s.engine.steps[0]
	s.engine.steps = s.engine.steps[1:]
	if s.current.onNavigate != nil {
		s.current.onNavigate()
	}
	return s.current.navErr
}

func (s *fakeSession) Locate(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if s.closed > 0 {
		return "", session.Failure("locate", errors.New("used after close"))
	}
	return s.current.text, s.current.locErr
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type sent struct {
	subject, body, to string
}

type fakeMailer struct {
	sent []sent
	err  error
}

func (m *fakeMailer) Send(_ context.Context, subject, body, to string) error {
	m.sent = append(m.sent, sent{subject, body, to})
	return m.err
}

type fakeLifecycle struct {
	ready, watchdog, stopping int
	onWatchdog                func(n int)
}

func (l *fakeLifecycle) Ready() { l.ready++ }

func (l *fakeLifecycle) Watchdog() {
	l.watchdog++
	if l.onWatchdog != nil {
		l.onWatchdog(l.watchdog)
	}
}

func (l *fakeLifecycle) Stopping() { l.stopping++ }
