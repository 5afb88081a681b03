package quality

import "fmt"

// Phase is the coarse render state.
type Phase int

const (
	// PhaseZooming is entered on any zoom input.
	PhaseZooming Phase = iota

	// PhaseMoving is entered on any drag input.
	PhaseMoving

	// PhaseWaiting is entered once input has been idle for the grace period, and when a refinement cycle ends.
	PhaseWaiting

	// PhaseRefining renders the static view at increasing quality, one level per frame.
	PhaseRefining
)

func (p Phase) String() string {
	switch p {
	case PhaseZooming:
		return "zooming"
	case PhaseMoving:
		return "moving"
	case PhaseWaiting:
		return "waiting"
	case PhaseRefining:
		return "refining"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// State is the single render state value owned by a Controller.
type State struct {
	Phase Phase

	// Level is the refinement level. It is 0 on entry to PhaseRefining and meaningless in other phases.
	Level int

	// Complete marks a PhaseWaiting reached by terminating a refinement cycle. The view is final until new input.
	Complete bool
}

func (s State) String() string {
	switch {
	case s.Phase == PhaseRefining:
		return fmt.Sprintf("refining(%d)", s.Level)
	case s.Phase == PhaseWaiting && s.Complete:
		return "waiting(complete)"
	default:
		return s.Phase.String()
	}
}

// Event drives state transitions.
type Event int

const (
	// EventZoom is a new zoom input.
	EventZoom Event = iota

	// EventDrag is a new drag input.
	EventDrag

	// EventIdle fires once no input has arrived for the idle grace period.
	EventIdle

	// EventFrameDone fires after each dispatched frame.
	EventFrameDone

	// EventTerminate ends the current refinement cycle.
	EventTerminate

	// EventRestart starts a new refinement cycle without input, after a resize or a parameter change.
	EventRestart
)

func (e Event) String() string {
	switch e {
	case EventZoom:
		return "zoom"
	case EventDrag:
		return "drag"
	case EventIdle:
		return "idle"
	case EventFrameDone:
		return "frame-done"
	case EventTerminate:
		return "terminate"
	case EventRestart:
		return "restart"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Transition returns the state that follows s on event e. It is the only place render state changes.
//
// Parameters:
//   - s: the current state
//   - e: the event to apply
//
// Returns:
//   - State: the next state; s itself when e does not apply to s
func Transition(s State, e Event) State {
	switch e {
	case EventZoom:
		return State{Phase: PhaseZooming}
	case EventDrag:
		return State{Phase: PhaseMoving}
	case EventIdle:
		if s.Phase == PhaseZooming || s.Phase == PhaseMoving {
			return State{Phase: PhaseWaiting}
		}
	case EventFrameDone:
		switch {
		case s.Phase == PhaseWaiting && !s.Complete:
			return State{Phase: PhaseRefining}
		case s.Phase == PhaseRefining:
			return State{Phase: PhaseRefining, Level: s.Level + 1}
		}
	case EventTerminate:
		if s.Phase == PhaseRefining {
			return State{Phase: PhaseWaiting, Complete: true}
		}
	case EventRestart:
		return State{Phase: PhaseWaiting}
	}
	return s
}
