// Package notify surfaces user-facing warnings, such as a failed save, as
// desktop notifications with a log fallback.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// AppName is shown as the notification source.
const AppName = "codepulse"

// Notifier delivers warnings. It never blocks tracking: a failed desktop
// notification is logged and dropped.
type Notifier struct {
	desktop bool
	log     *slog.Logger
	send    func(title, message string) error
}

// New returns a Notifier. When desktop is false warnings are only logged.
func New(desktop bool, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	beeep.AppName = AppName
	return &Notifier{
		desktop: desktop,
		log:     log,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Warn logs the warning and, if enabled, shows it on the desktop.
func (n *Notifier) Warn(title, message string) {
	n.log.Warn(message, "title", title)
	if !n.desktop {
		return
	}
	defer func() {
		// Notification backends can panic on headless systems.
		if r := recover(); r != nil {
			n.log.Debug("desktop notification panicked", "recovered", r)
		}
	}()
	if err := n.send(title, message); err != nil {
		n.log.Debug("desktop notification failed", "err", err)
	}
}
