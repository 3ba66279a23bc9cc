package inventory

// State is the lifecycle state of an item as seen by the client.
type State string

const (
	StateUnknown State = ""
	StateActive  State = "ACTIVE"
	StateTrashed State = "TRASHED"
	StatePurged  State = "PURGED"
)

// Event drives a lifecycle transition.
type Event string

const (
	EventDelete  Event = "delete"
	EventRestore Event = "restore"
	EventPurge   Event = "purge"
)

// Transition returns the state reached from `from` on `event`.
//
// Active -delete-> Trashed, Trashed -restore-> Active and
// Trashed -purge-> Purged are the only transitions. Purged is terminal.
func Transition(from State, event Event) (State, error) {
	switch from {
	case StateActive:
		if event == EventDelete {
			return StateTrashed, nil
		}
	case StateTrashed:
		switch event {
		case EventRestore:
			return StateActive, nil
		case EventPurge:
			return StatePurged, nil
		}
	}
	return from, ErrInvalidTransition
}

// IsTerminal reports whether no transition leaves the state.
func (s State) IsTerminal() bool {
	return s == StatePurged
}
