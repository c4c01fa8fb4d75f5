package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// TerminalNotifier prints toast-style notifications to a terminal.
type TerminalNotifier struct {
	mu           sync.Mutex
	writer       io.Writer
	colorEnabled bool
	bellEnabled  bool
}

// NewTerminalNotifier creates a terminal channel writing to stdout.
func NewTerminalNotifier(colorEnabled bool) *TerminalNotifier {
	return &TerminalNotifier{
		writer:       os.Stdout,
		colorEnabled: colorEnabled,
		bellEnabled:  true,
	}
}

// NewTerminalNotifierWithWriter creates a terminal channel with a custom
// writer, used in tests.
func NewTerminalNotifierWithWriter(w io.Writer, colorEnabled bool) *TerminalNotifier {
	return &TerminalNotifier{writer: w, colorEnabled: colorEnabled}
}

// SetBellEnabled enables or disables the terminal bell on errors.
func (t *TerminalNotifier) SetBellEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bellEnabled = enabled
}

// Send prints the notification.
func (t *TerminalNotifier) Send(ctx context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	if t.bellEnabled && n.Type == NotificationError {
		fmt.Fprint(t.writer, "\a")
	}

	line := fmt.Sprintf("[%s] %s", n.Timestamp.Format("15:04:05"), t.tag(n.Type))
	if n.Title != "" {
		line += " | " + n.Title
	}
	if n.Message != "" {
		line += " | " + n.Message
	}
	_, err := fmt.Fprintln(t.writer, line)
	return err
}

func (t *TerminalNotifier) tag(typ NotificationType) string {
	var label, color string
	switch typ {
	case NotificationError:
		label, color = "ERROR", "\033[31m"
	case NotificationGeneration:
		label, color = "REFLECTIONS", "\033[35m"
	case NotificationSummary:
		label, color = "SUMMARY", "\033[32m"
	default:
		label, color = "INFO", "\033[36m"
	}
	if t.colorEnabled {
		return color + label + "\033[0m"
	}
	return label
}
