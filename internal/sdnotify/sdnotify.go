// Package sdnotify reports readiness and liveness to systemd when the
// process runs as a Type=notify unit. Outside systemd every call is a no-op.
package sdnotify

import (
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
)

type Notifier struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Notifier {
	return &Notifier{log: log}
}

func (n *Notifier) Ready()    { n.notify(daemon.SdNotifyReady) }
func (n *Notifier) Watchdog() { n.notify(daemon.SdNotifyWatchdog) }
func (n *Notifier) Stopping() { n.notify(daemon.SdNotifyStopping) }

func (n *Notifier) notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.log.Debug().Err(err).Str("state", state).Msg("sd_notify failed")
		return
	}
	if sent {
		n.log.Trace().Str("state", state).Msg("sd_notify")
	}
}
