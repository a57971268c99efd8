package cli

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
)

// toastKind classifies a transient notification.
type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
	toastInfo
)

// Auto-dismiss durations. Errors stay longer so they can be read.
const (
	successToastDuration = 4 * time.Second
	errorToastDuration   = 8 * time.Second
)

// toast is a transient, auto-dismissing notification. The persistent
// zero-token warning is not a toast; it is rendered by the chat view as long
// as the condition holds.
type toast struct {
	id      string
	kind    toastKind
	message string
}

// toastExpiredMsg removes a toast after its duration.
type toastExpiredMsg struct {
	id string
}

// newToast creates a toast and the command that expires it.
func newToast(kind toastKind, message string) (toast, tea.Cmd) {
	t := toast{
		id:      uuid.New().String(),
		kind:    kind,
		message: message,
	}
	d := successToastDuration
	if kind == toastError {
		d = errorToastDuration
	}
	id := t.id
	cmd := tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
	return t, cmd
}

// renderToasts renders active toasts, newest last.
func renderToasts(theme Theme, toasts []toast) string {
	if len(toasts) == 0 {
		return ""
	}
	var out string
	for _, t := range toasts {
		switch t.kind {
		case toastSuccess:
			out += theme.successStyle().Render("✓ "+t.message) + "\n"
		case toastError:
			out += theme.errorStyle().Render("✗ "+t.message) + "\n"
		default:
			out += theme.accentStyle().Render("• "+t.message) + "\n"
		}
	}
	return out
}
