package monitor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/yourneighborhoodchef/pagewatch/internal/notify"
	"github.com/yourneighborhoodchef/pagewatch/internal/stock"
)

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeNotFound
	OutcomeSessionFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "element-not-found"
	case OutcomeSessionFailure:
		return "session-failure"
	}
	return "unknown"
}

// CheckOutcome is the result of one inspection. Text is set only on
// success, Err only on failure.
type CheckOutcome struct {
	Time      time.Time
	Kind      OutcomeKind
	Text      string
	Err       error
	Latency   time.Duration
	SessionID string
}

func (o CheckOutcome) Ok() bool { return o.Kind == OutcomeSuccess }

// Result is everything one tick did, for logging and tests.
type Result struct {
	Outcome  CheckOutcome
	State    stock.State
	Decision notify.Decision
	MailErr  error
	// Inspected is false when no session could be opened or shutdown
	// interrupted the tick.
	Inspected bool
	// Recovered is true when a failed session was replaced this tick.
	Recovered bool
}

type StatusMessage struct {
	Status    string
	URL       string
	Outcome   string
	Text      string
	LastCheck time.Time
	InStock   bool
	Latency   time.Duration
}

func (m StatusMessage) MarshalZerologObject(e *zerolog.Event) {
	e.Str("status", m.Status).
		Str("url", m.URL).
		Str("outcome", m.Outcome).
		Time("last_check", m.LastCheck).
		Bool("in_stock", m.InStock).
		Dur("latency", m.Latency)
	if m.Text != "" {
		e.Str("text", m.Text)
	}
}
