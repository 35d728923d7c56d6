package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogTransport records messages instead of sending them (dry runs).
type LogTransport struct {
	Log zerolog.Logger
}

func (t LogTransport) Send(_ context.Context, subject, body, to string) error {
	t.Log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("dry run: email not sent")
	return nil
}
