package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/godbus/dbus/v5"

	"github.com/fakeyudi/codepulse/internal/tracker"
)

const (
	login1Service   = "org.freedesktop.login1"
	login1Path      = "/org/freedesktop/login1"
	login1Manager   = "org.freedesktop.login1.Manager"
	login1Session   = "org.freedesktop.login1.Session"
	propertiesIface = "org.freedesktop.DBus.Properties"

	signalPrepareForSleep   = login1Manager + ".PrepareForSleep"
	signalPropertiesChanged = propertiesIface + ".PropertiesChanged"
)

// WatchLock subscribes to logind on the system bus and publishes a focus
// loss when the screen locks or the machine suspends, and a focus gain when
// it unlocks or resumes. It returns when ctx is cancelled.
func WatchLock(ctx context.Context, out chan<- tracker.Event, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface(login1Manager),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}

	own, err := ownSession(conn)
	if err != nil {
		// Without our own session path, lock changes of any session count.
		log.Debug("resolve login session", "err", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	defer conn.RemoveSignal(c)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-c:
			if !ok {
				return nil
			}
			ev, ok := lockEvent(sig, own)
			if !ok {
				continue
			}
			log.Debug("lock state changed", "signal", sig.Name, "focused", ev.Focused)
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// ownSession asks logind which session this process belongs to.
func ownSession(conn *dbus.Conn) (dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	err := conn.Object(login1Service, login1Path).
		Call(login1Manager+".GetSessionByPID", 0, uint32(os.Getpid())).
		Store(&path)
	if err != nil {
		return "", fmt.Errorf("get session by pid: %w", err)
	}
	return path, nil
}

// lockEvent maps a logind signal to a focus event. own filters lock hints
// to one session; an empty own accepts every session.
func lockEvent(sig *dbus.Signal, own dbus.ObjectPath) (tracker.Event, bool) {
	switch sig.Name {
	case signalPrepareForSleep:
		if len(sig.Body) == 0 {
			return tracker.Event{}, false
		}
		sleeping, ok := sig.Body[0].(bool)
		if !ok {
			return tracker.Event{}, false
		}
		return tracker.FocusEvent(!sleeping), true

	case signalPropertiesChanged:
		if len(sig.Body) < 2 {
			return tracker.Event{}, false
		}
		iface, ok := sig.Body[0].(string)
		if !ok || iface != login1Session {
			return tracker.Event{}, false
		}
		if own != "" && sig.Path != own {
			return tracker.Event{}, false
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return tracker.Event{}, false
		}
		val, exists := changed["LockedHint"]
		if !exists {
			return tracker.Event{}, false
		}
		locked, ok := val.Value().(bool)
		if !ok {
			return tracker.Event{}, false
		}
		return tracker.FocusEvent(!locked), true
	}
	return tracker.Event{}, false
}
