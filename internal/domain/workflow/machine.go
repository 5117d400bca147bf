package workflow

// StateMachine tracks the current state of one request and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// Fire moves to the trigger's target state, or returns ErrInvalidTransition
	// and leaves the state unchanged
	Fire(trigger Trigger) error
}
