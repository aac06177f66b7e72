package autosave

import "fmt"

// State of the draft lifecycle.
type State int

const (
	StateNoDraft State = iota
	StateDrafting
	StateFinalized
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateNoDraft:
		return "no_draft"
	case StateDrafting:
		return "drafting"
	case StateFinalized:
		return "finalized"
	case StateDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event drives the draft lifecycle.
type Event int

const (
	EventFormChanged Event = iota
	EventFieldToggled
	EventNewInvoiceRequested
	EventSubmitRequested
	EventSaveAsDraftRequested
	EventClearRequested
	EventUnmountRequested
)

func (e Event) String() string {
	switch e {
	case EventFormChanged:
		return "form_changed"
	case EventFieldToggled:
		return "field_toggled"
	case EventNewInvoiceRequested:
		return "new_invoice_requested"
	case EventSubmitRequested:
		return "submit_requested"
	case EventSaveAsDraftRequested:
		return "save_as_draft_requested"
	case EventClearRequested:
		return "clear_requested"
	case EventUnmountRequested:
		return "unmount_requested"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Finalized and Discarded have no outgoing events: the session returns to NoDraft as
// soon as the write that led there has committed.
var transitions = map[State]map[Event]State{
	StateNoDraft: {
		EventFormChanged:         StateDrafting,
		EventFieldToggled:        StateDrafting,
		EventNewInvoiceRequested: StateDrafting,
		EventClearRequested:      StateDiscarded,
		EventUnmountRequested:    StateNoDraft,
	},
	StateDrafting: {
		EventFormChanged:          StateDrafting,
		EventFieldToggled:         StateDrafting,
		EventNewInvoiceRequested:  StateDrafting,
		EventSubmitRequested:      StateFinalized,
		EventSaveAsDraftRequested: StateFinalized,
		EventClearRequested:       StateDiscarded,
		EventUnmountRequested:     StateDrafting,
	},
}

// Next returns the state event leads to from s.
func Next(s State, e Event) (State, error) {
	if next, ok := transitions[s][e]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e, s)
}
