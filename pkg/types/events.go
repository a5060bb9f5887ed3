package types

// EventKind identifies a router notification.
type EventKind int

const (
	EventRouterStart EventKind = iota
	EventRouterStop
	EventTransitionStart
	EventTransitionSuccess
	EventTransitionError
	EventTransitionCancel
	EventTransitionBlocked
)

var eventNames = map[EventKind]string{
	EventRouterStart:       "router.start",
	EventRouterStop:        "router.stop",
	EventTransitionStart:   "transition.start",
	EventTransitionSuccess: "transition.success",
	EventTransitionError:   "transition.error",
	EventTransitionCancel:  "transition.cancel",
	EventTransitionBlocked: "transition.blocked",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the kind settles a navigation attempt. The
// engine emits exactly one terminal event per attempt that passed the
// router-not-started check.
func (k EventKind) Terminal() bool {
	switch k {
	case EventTransitionSuccess, EventTransitionError, EventTransitionCancel, EventTransitionBlocked:
		return true
	default:
		return false
	}
}

// Event is a router notification delivered to observers.
type Event struct {
	Kind EventKind
	To   *State
	From *State
	Err  error
}

// Observer receives router events. Observers run synchronously in
// registration order; a panicking observer is logged and skipped, never
// propagated.
type Observer func(Event)
