package monitor

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/yourneighborhoodchef/pagewatch/internal/stock"
)

const statusError = "ERROR"

// statusReporter writes a "status" event whenever the state changes, on
// every session failure, and otherwise at most once per heartbeat.
type statusReporter struct {
	url         string
	heartbeat   time.Duration
	log         zerolog.Logger
	prevStatus  string
	lastPublish time.Time
}

func newStatusReporter(url string, heartbeat time.Duration, log zerolog.Logger) *statusReporter {
	return &statusReporter{url: url, heartbeat: heartbeat, log: log}
}

func (r *statusReporter) observe(out CheckOutcome, state stock.State) {
	status := state.String()
	if status == r.prevStatus && out.Time.Sub(r.lastPublish) < r.heartbeat {
		return
	}
	r.publish(StatusMessage{
		Status:    status,
		URL:       r.url,
		Outcome:   out.Kind.String(),
		Text:      out.Text,
		LastCheck: out.Time,
		InStock:   state == stock.InStock,
		Latency:   out.Latency,
	})
}

func (r *statusReporter) failure(out CheckOutcome) {
	r.publish(StatusMessage{
		Status:    statusError,
		URL:       r.url,
		Outcome:   out.Kind.String(),
		LastCheck: out.Time,
		Latency:   out.Latency,
	})
}

func (r *statusReporter) publish(msg StatusMessage) {
	r.log.Info().Str("event", "status").EmbedObject(msg).Msg("status")
	r.prevStatus = msg.Status
	r.lastPublish = msg.LastCheck
}
