package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourneighborhoodchef/pagewatch/internal/session"
)

type Inspector struct {
	url             string
	selector        string
	navigateTimeout time.Duration
	elementTimeout  time.Duration
	log             zerolog.Logger
	now             func() time.Time
}

func NewInspector(url, selector string, navigateTimeout, elementTimeout time.Duration, log zerolog.Logger) *Inspector {
	return &Inspector{
		url:             url,
		selector:        selector,
		navigateTimeout: navigateTimeout,
		elementTimeout:  elementTimeout,
		log:             log,
		now:             time.Now,
	}
}

// Inspect loads the page and reads the configured element. It never fails:
// every error is folded into the outcome. OutcomeSessionFailure tells the
// caller sess is no longer usable.
func (in *Inspector) Inspect(ctx context.Context, sess session.Session) CheckOutcome {
	start := in.now()
	out := CheckOutcome{Time: start, SessionID: sess.ID()}
	finish := func(kind OutcomeKind, text string, err error) CheckOutcome {
		out.Kind = kind
		out.Text = text
		out.Err = err
		out.Latency = in.now().Sub(start)
		return out
	}

	in.log.Debug().Str("url", in.url).Str("session", sess.ID()).Msg("loading page")
	if err := sess.Navigate(ctx, in.url, in.navigateTimeout); err != nil {
		in.log.Error().Err(err).Str("url", in.url).Msg("error loading page")
		return finish(kindOf(err), "", err)
	}

	text, err := sess.Locate(ctx, in.selector, in.elementTimeout)
	if err != nil {
		kind := kindOf(err)
		if kind == OutcomeNotFound {
			in.log.Info().Str("selector", in.selector).Msg("element not found")
		} else {
			in.log.Error().Err(err).Str("selector", in.selector).Msg("error getting element text")
		}
		return finish(kind, "", err)
	}

	in.log.Info().Str("text", text).Msg("element text")
	return finish(OutcomeSuccess, text, nil)
}

// kindOf treats everything but a missing element as a dead session.
func kindOf(err error) OutcomeKind {
	if session.IsNotFound(err) && !session.IsSessionFailure(err) {
		return OutcomeNotFound
	}
	return OutcomeSessionFailure
}
