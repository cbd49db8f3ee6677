package tracker

import "github.com/fakeyudi/codepulse/internal/session"

// EventKind enumerates the notifications the editor host delivers.
type EventKind int

const (
	// ContextChanged carries the newly focused editor context, or nil when
	// focus moved to a terminal, webview or nothing.
	ContextChanged EventKind = iota
	// ContentChanged carries the number of characters edited.
	ContentChanged
	SelectionChanged
	// FocusChanged carries whether the editor window gained focus.
	FocusChanged
	WorkspaceFoldersChanged
	TerminalActivity
	// Tick is the periodic timer.
	Tick
)

func (k EventKind) String() string {
	switch k {
	case ContextChanged:
		return "context-changed"
	case ContentChanged:
		return "content-changed"
	case SelectionChanged:
		return "selection-changed"
	case FocusChanged:
		return "focus-changed"
	case WorkspaceFoldersChanged:
		return "workspace-folders-changed"
	case TerminalActivity:
		return "terminal-activity"
	case Tick:
		return "tick"
	}
	return "unknown"
}

// Event is one inbound host notification.
type Event struct {
	Kind       EventKind
	Context    *session.Context
	Characters int64
	Focused    bool
}

// ContextEvent builds a ContextChanged event.
func ContextEvent(ctx *session.Context) Event {
	return Event{Kind: ContextChanged, Context: ctx}
}

// ContentEvent builds a ContentChanged event.
func ContentEvent(chars int64) Event {
	return Event{Kind: ContentChanged, Characters: chars}
}

// FocusEvent builds a FocusChanged event.
func FocusEvent(focused bool) Event {
	return Event{Kind: FocusChanged, Focused: focused}
}

// State is the tracker's coarse lifecycle state.
type State int

const (
	Stopped State = iota
	// Active means tracking with a live session.
	Active
	// IdleWaiting means tracking without a session.
	IdleWaiting
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Active:
		return "active"
	case IdleWaiting:
		return "idle-waiting"
	}
	return "unknown"
}
