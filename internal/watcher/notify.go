package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// levelRank orders alert levels for filtering.
var levelRank = map[string]int{"info": 0, "warning": 1, "critical": 2}

// Notifier delivers alerts to the desktop, falling back to a writer when
// no notification command is available.
type Notifier struct {
	// MinLevel drops alerts below this level. Empty means "info".
	MinLevel string
	// Desktop enables osascript / notify-send delivery.
	Desktop  bool
	Fallback io.Writer
}

// NewNotifier returns a notifier that writes to stderr, optionally also
// raising desktop notifications.
func NewNotifier(desktop bool, minLevel string) *Notifier {
	return &Notifier{MinLevel: minLevel, Desktop: desktop, Fallback: os.Stderr}
}

// Allows reports whether an alert passes the level filter.
func (n *Notifier) Allows(a Alert) bool {
	return levelRank[a.Level] >= levelRank[n.MinLevel]
}

// Notify delivers one alert. Alerts below MinLevel are ignored.
func (n *Notifier) Notify(a Alert) error {
	if !n.Allows(a) {
		return nil
	}
	if !n.Desktop {
		return n.fallback(a)
	}
	var err error
	switch runtime.GOOS {
	case "darwin":
		err = notifyMacOS(a)
	case "linux":
		err = notifyLinux(a)
	default:
		return n.fallback(a)
	}
	if err != nil {
		return n.fallback(a)
	}
	return nil
}

// notifyMacOS sends a notification via osascript.
func notifyMacOS(a Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title "siteinsight" subtitle %q`,
		a.Message, a.Title,
	)
	return exec.Command("osascript", "-e", script).Run()
}

// notifyLinux sends a notification via notify-send, mapping the alert level
// to an urgency.
func notifyLinux(a Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return err
	}
	urgency := "normal"
	switch a.Level {
	case "critical":
		urgency = "critical"
	case "info":
		urgency = "low"
	}
	title := fmt.Sprintf("siteinsight: %s", a.Title)
	return exec.Command("notify-send", "-u", urgency, title, a.Message).Run()
}

func (n *Notifier) fallback(a Alert) error {
	w := n.Fallback
	if w == nil {
		w = os.Stderr
	}
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", a.Level, a.Title, a.Message)
	return err
}
