// Package notify handles notifying the service manager of the program's state.
//
// For linux based operating systems, this is done through the systemd socket
// set by "NOTIFY_SOCKET" environment variable. On every other operating system
// notifications are silently discarded.
package notify

import (
	"os"
)

// State is a lifecycle state reported to the service manager.
type State int

const (
	// Ready is sent once the collector has started polling.
	Ready State = iota
	// Watchdog is sent after every poll to show the process is still alive.
	Watchdog
	Reloading
	// Stopping is sent once shutdown has begun.
	Stopping
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY=1"
	case Watchdog:
		return "WATCHDOG=1"
	case Reloading:
		return "RELOADING=1"
	case Stopping:
		return "STOPPING=1"
	default:
		return ""
	}
}

// Notifier writes state notifications to a socket. A Notifier without a
// socket does nothing.
type Notifier struct {
	Socket string
}

// New returns a Notifier using the socket the service manager advertised in
// the environment, if any.
func New() *Notifier {
	return &Notifier{Socket: os.Getenv("NOTIFY_SOCKET")}
}

// Notify sends the given state along with an optional human readable status
// line.
func (n *Notifier) Notify(state State, status string) error {
	if n == nil || n.Socket == "" {
		return nil
	}
	payload := state.String()
	if status != "" {
		payload += "\nSTATUS=" + status
	}
	return send(n.Socket, payload)
}
